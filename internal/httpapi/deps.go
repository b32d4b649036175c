package httpapi

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"

	"dealtrack-engine/internal/domain"
	"dealtrack-engine/internal/events"
)

// RunPipeline matches pipeline.Runner.Run.
type RunPipeline func(ctx context.Context) domain.RunResult

// Deps wires the handlers to the rest of the engine.
type Deps struct {
	Run       RunPipeline
	RunStatus *atomic.Value // stores httpapi.RunStatus
	Hub       *events.Hub

	// AuthToken guards the trigger endpoints (the scheduled-run secret).
	// Empty disables auth — local use only.
	AuthToken string

	Log *zap.SugaredLogger
}

// RunStatus is the trigger surface's view of the last/current run.
type RunStatus struct {
	Running    bool              `json:"running"`
	LastRunAt  string            `json:"last_run_at"`
	LastOkAt   string            `json:"last_ok_at"`
	LastError  string            `json:"last_error"`
	LastResult *domain.RunResult `json:"last_result,omitempty"`
}
