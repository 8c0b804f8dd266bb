package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/tdr/proveedores/internal/jobs"
	"github.com/tdr/proveedores/internal/suppliers"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskSuppliersReseed discards the stored supplier list and seeds it again.
	TaskSuppliersReseed = "suppliers:reseed"
)

// ReseedPayload describes who asked for a reseed.
type ReseedPayload struct {
	Reason string `json:"reason"`
}

// NewReseedTask builds a reseed task.
func NewReseedTask(reason string) (*asynq.Task, error) {
	body, err := json.Marshal(ReseedPayload{Reason: reason})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSuppliersReseed, body, asynq.Queue(QueueDefault), asynq.MaxRetry(3)), nil
}

// Reseeder is the part of the supplier service the reseed job drives.
type Reseeder interface {
	ResetToSeed(ctx context.Context) ([]suppliers.Supplier, error)
}

// ReseedHandler processes TaskSuppliersReseed tasks.
type ReseedHandler struct {
	Reseeder Reseeder
	Metrics  *jobmetrics.Metrics
	Logger   *slog.Logger
}

// ProcessTask implements asynq.Handler.
func (h *ReseedHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload ReseedPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("decode reseed payload: %w", asynq.SkipRetry)
	}
	tracker := h.Metrics.Track(TaskSuppliersReseed)
	list, err := h.Reseeder.ResetToSeed(ctx)
	if err != nil {
		return tracker.End(fmt.Errorf("reseed suppliers: %w", err))
	}
	if h.Logger != nil {
		h.Logger.Info("suppliers reseeded", slog.String("reason", payload.Reason), slog.Int("count", len(list)))
	}
	return tracker.End(nil)
}
