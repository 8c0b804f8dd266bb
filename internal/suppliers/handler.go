package suppliers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tdr/proveedores/internal/shared"
	"github.com/tdr/proveedores/internal/view"
)

const editingSessionKey = "suppliers.editing"

// Handler serves the server-rendered supplier pages.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	templates *view.Engine
	csrf      *shared.CSRFManager
	pdf       PDFRenderer
}

// NewHandler constructs a Handler. pdf may be nil, which disables PDF export.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *shared.CSRFManager, pdf PDFRenderer) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, templates: templates, csrf: csrf, pdf: pdf}
}

type pageData struct {
	Suppliers []Supplier
	Form      FormValues
	Errors    map[string]string
	Error     string
	Success   string
	Editing   bool
	EditingID int64
	Loading   bool
	ShowJSON  bool
	JSON      string
}

func (h *Handler) index(w http.ResponseWriter, r *http.Request) {
	ctrl := h.controller(r)
	defer ctrl.Close()
	h.renderIndex(w, r, ctrl, http.StatusOK)
}

func (h *Handler) edit(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	sup, found := h.service.GetByID(id)
	if !found {
		h.redirectWithFlash(w, r, "/suppliers", shared.FlashError, MsgUpdateNotFound)
		return
	}
	ctrl := h.controller(r)
	defer ctrl.Close()
	ctrl.Edit(sup)
	h.saveEditing(r, ctrl)
	h.renderIndex(w, r, ctrl, http.StatusOK)
}

func (h *Handler) save(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	ctrl := h.controller(r)
	defer ctrl.Close()

	values := FormValues{
		Name:       r.PostFormValue("nombre"),
		Contact:    r.PostFormValue("contacto"),
		Email:      r.PostFormValue("email"),
		Phone:      r.PostFormValue("telefono"),
		Address:    r.PostFormValue("direccion"),
		Active:     r.PostFormValue("activo") != "",
		Categories: r.PostFormValue("categorias"),
	}
	if ctrl.Submit(r.Context(), values) {
		h.saveEditing(r, ctrl)
		h.redirectWithFlash(w, r, "/suppliers", shared.FlashSuccess, ctrl.Success)
		return
	}
	if ctrl.Error == MsgUpdateNotFound {
		ctrl.Cancel()
		h.saveEditing(r, ctrl)
		h.redirectWithFlash(w, r, "/suppliers", shared.FlashError, ctrl.Error)
		return
	}
	h.renderIndex(w, r, ctrl, http.StatusUnprocessableEntity)
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	ctrl := h.controller(r)
	defer ctrl.Close()
	ctrl.Cancel()
	h.saveEditing(r, ctrl)
	http.Redirect(w, r, "/suppliers", http.StatusSeeOther)
}

func (h *Handler) confirmDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	sup, found := h.service.GetByID(id)
	if !found {
		h.redirectWithFlash(w, r, "/suppliers", shared.FlashError, MsgDeleteNotFound)
		return
	}
	h.render(w, r, "pages/supplier_delete.html", "Eliminar proveedor", map[string]any{"Supplier": sup}, http.StatusOK)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	ctrl := h.controller(r)
	defer ctrl.Close()

	target, found := h.service.GetByID(id)
	if !found {
		target = Supplier{ID: id}
	}
	confirmed := r.PostFormValue("confirm") == "si"
	if !ctrl.Delete(r.Context(), target, func(Supplier) bool { return confirmed }) {
		if ctrl.Error == "" {
			http.Redirect(w, r, "/suppliers", http.StatusSeeOther)
			return
		}
		h.redirectWithFlash(w, r, "/suppliers", shared.FlashError, ctrl.Error)
		return
	}
	h.saveEditing(r, ctrl)
	h.redirectWithFlash(w, r, "/suppliers", shared.FlashSuccess, ctrl.Success)
}

func (h *Handler) reseed(w http.ResponseWriter, r *http.Request) {
	ctrl := h.controller(r)
	defer ctrl.Close()
	if !ctrl.Reseed(r.Context()) {
		h.redirectWithFlash(w, r, "/suppliers", shared.FlashError, ctrl.Error)
		return
	}
	h.saveEditing(r, ctrl)
	h.redirectWithFlash(w, r, "/suppliers", shared.FlashSuccess, ctrl.Success)
}

// controller rebuilds the form controller for this request, restoring edit
// mode from the session.
func (h *Handler) controller(r *http.Request) *FormController {
	ctrl := NewFormController(h.service, h.logger)
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		if raw := sess.Get(editingSessionKey); raw != "" {
			id, err := strconv.ParseInt(raw, 10, 64)
			if sup, found := h.service.GetByID(id); err == nil && found {
				ctrl.Edit(sup)
			} else {
				sess.Delete(editingSessionKey)
			}
		}
	}
	ctrl.Load()
	return ctrl
}

func (h *Handler) saveEditing(r *http.Request, ctrl *FormController) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		return
	}
	if ctrl.Editing {
		sess.Set(editingSessionKey, strconv.FormatInt(ctrl.EditingID, 10))
		return
	}
	sess.Delete(editingSessionKey)
}

func (h *Handler) renderIndex(w http.ResponseWriter, r *http.Request, ctrl *FormController, status int) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		for _, f := range sess.PopFlashes() {
			switch f.Kind {
			case shared.FlashError:
				ctrl.Error = f.Message
			case shared.FlashSuccess:
				ctrl.Success = f.Message
			}
		}
	}
	data := pageData{
		Suppliers: sorted(ctrl.Suppliers(), r.URL.Query().Get("sort")),
		Form:      ctrl.Values,
		Errors:    ctrl.Errors,
		Error:     ctrl.Error,
		Success:   ctrl.Success,
		Editing:   ctrl.Editing,
		EditingID: ctrl.EditingID,
		Loading:   ctrl.Loading,
		ShowJSON:  r.URL.Query().Get("json") == "1",
	}
	if data.ShowJSON {
		raw, err := json.MarshalIndent(data.Suppliers, "", "  ")
		if err != nil {
			h.logger.Error("encode supplier json", slog.Any("error", err))
		}
		data.JSON = string(raw)
	}
	h.render(w, r, "pages/suppliers.html", "Proveedores", data, status)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, name, title string, data any, status int) {
	viewData := view.TemplateData{
		Title:       title,
		CurrentPath: r.URL.Path,
		Data:        data,
	}
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		viewData.CSRFToken, _ = h.csrf.EnsureToken(sess)
		viewData.Flashes = sess.PopFlashes()
	}
	if err := h.templates.Render(w, status, name, viewData); err != nil {
		h.logger.Error("render template", slog.Any("error", err), slog.String("template", name))
	}
}

func (h *Handler) redirectWithFlash(w http.ResponseWriter, r *http.Request, location, kind, message string) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil && message != "" {
		sess.AddFlash(shared.FlashMessage{Kind: kind, Message: message})
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}

func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "ID de proveedor inválido", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}
