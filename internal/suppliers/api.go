package suppliers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/tdr/proveedores/internal/platform/httpx"
)

// API serves the JSON endpoints.
type API struct {
	logger    *slog.Logger
	service   *Service
	validate  *validator.Validate
	keepalive time.Duration
}

// NewAPI constructs an API.
func NewAPI(logger *slog.Logger, service *Service) *API {
	if logger == nil {
		logger = slog.Default()
	}
	return &API{logger: logger, service: service, validate: newValidator(), keepalive: 25 * time.Second}
}

type createRequest struct {
	Draft
	Active *bool `json:"activo"`
}

func (a *API) list(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, sorted(a.service.GetAll(), r.URL.Query().Get("sort")))
}

func (a *API) get(w http.ResponseWriter, r *http.Request) {
	id, err := apiID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	sup, found := a.service.GetByID(id)
	if !found {
		httpx.RespondError(w, fmt.Errorf("supplier %d: %w", id, httpx.ErrNotFound))
		return
	}
	httpx.JSON(w, http.StatusOK, sup)
}

func (a *API) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrBadRequest, err))
		return
	}
	draft := req.Draft
	draft.Active = req.Active == nil || *req.Active
	draft.Categories = cleanCategories(draft.Categories)
	if err := a.validate.Struct(draft); err != nil {
		httpx.ValidationProblem(w, fieldErrors(err))
		return
	}
	created, err := a.service.Create(r.Context(), draft)
	if err != nil {
		a.logger.Error("api create supplier", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.Header().Set("Location", "/api/suppliers/"+strconv.FormatInt(created.ID, 10))
	httpx.JSON(w, http.StatusCreated, created)
}

func (a *API) update(w http.ResponseWriter, r *http.Request) {
	id, err := apiID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var patch Patch
	if err := httpx.DecodeJSON(r, &patch); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrBadRequest, err))
		return
	}
	if err := a.validate.Struct(patch); err != nil {
		httpx.ValidationProblem(w, fieldErrors(err))
		return
	}
	if patch.Categories != nil {
		cleaned := cleanCategories(*patch.Categories)
		patch.Categories = &cleaned
	}
	updated, err := a.service.Update(r.Context(), id, patch)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.RespondError(w, fmt.Errorf("%s: %w", MsgUpdateNotFound, httpx.ErrNotFound))
			return
		}
		a.logger.Error("api update supplier", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

func (a *API) delete(w http.ResponseWriter, r *http.Request) {
	id, err := apiID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	deleted, err := a.service.Delete(r.Context(), id)
	if err != nil {
		a.logger.Error("api delete supplier", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	if !deleted {
		httpx.RespondError(w, fmt.Errorf("%s: %w", MsgDeleteNotFound, httpx.ErrNotFound))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) reseed(w http.ResponseWriter, r *http.Request) {
	list, err := a.service.ResetToSeed(r.Context())
	if err != nil {
		a.logger.Error("api reseed suppliers", slog.Any("error", err))
		httpx.RespondError(w, fmt.Errorf("%s: %w", MsgReseedFailed, httpx.ErrUnavailable))
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

// events streams the supplier list as server-sent events, starting with the
// current list and then once per change.
func (a *API) events(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)
	updates := make(chan []Supplier, 1)
	unsubscribe := a.service.Subscribe(func(list []Supplier) {
		// Keep only the most recent list when the client lags.
		for {
			select {
			case updates <- list:
				return
			default:
			}
			select {
			case <-updates:
			default:
			}
		}
	})
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	ticker := time.NewTicker(a.keepalive)
	defer ticker.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				return
			}
		case list := <-updates:
			data, err := json.Marshal(list)
			if err != nil {
				a.logger.Error("encode supplier event", slog.Any("error", err))
				continue
			}
			if _, err := fmt.Fprintf(w, "event: suppliers\ndata: %s\n\n", data); err != nil {
				return
			}
		}
		if err := rc.Flush(); err != nil {
			a.logger.Warn("flush supplier events", slog.Any("error", err))
			return
		}
	}
}

func apiID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid supplier id %q: %w", chi.URLParam(r, "id"), httpx.ErrBadRequest)
	}
	return id, nil
}

func cleanCategories(in []string) []string {
	var out []string
	for _, c := range in {
		out = append(out, SplitCategories(c)...)
	}
	return out
}
