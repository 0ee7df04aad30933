package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/meridian-erp/meridian-erp/internal/catalog"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeCatalogScan reconciles the permission page catalog against the
	// compiled page registry.
	TaskTypeCatalogScan = "catalog:scan"
)

// CatalogScanPayload parameterizes a catalog scan run.
type CatalogScanPayload struct {
	Reason string `json:"reason"`
}

// CatalogReconciler is the slice of the catalog service the worker needs.
type CatalogReconciler interface {
	Reconcile(ctx context.Context, defs []shared.PageDef) (catalog.ReconcileReport, error)
}

// NewCatalogScanTask constructs an Asynq task.
func NewCatalogScanTask(payload CatalogScanPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeCatalogScan, data), nil
}

// NewCatalogScanHandler builds the handler for TaskTypeCatalogScan tasks.
func NewCatalogScanHandler(reconciler CatalogReconciler, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload CatalogScanPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		report, err := reconciler.Reconcile(ctx, shared.AllPages())
		if err != nil {
			return err
		}
		if logger != nil {
			logger.Info("catalog scan",
				slog.String("reason", payload.Reason),
				slog.Int("discovered", len(report.Discovered)),
				slog.Int("deactivated", len(report.Deactivated)),
				slog.Int("refreshed", report.Refreshed),
			)
		}
		return nil
	}
}
