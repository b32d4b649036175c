package httpapi

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"dealtrack-engine/internal/events"
)

type RunHandler struct {
	Run       RunPipeline
	RunStatus *atomic.Value
	Hub       *events.Hub
}

func (h RunHandler) Status(w http.ResponseWriter, r *http.Request) {
	st := h.RunStatus.Load().(RunStatus)
	writeJSON(w, st)
}

// Trigger starts one pipeline run in the background, refusing to overlap a
// running one — the dedup known-set is only race-free run-at-a-time. Both
// the manual endpoint and the cron schedule come through here. Returns
// false when a run was already in flight.
func (h RunHandler) Trigger() bool {
	st := h.RunStatus.Load().(RunStatus)
	if st.Running {
		return false
	}

	h.RunStatus.Store(RunStatus{
		Running:   true,
		LastRunAt: time.Now().Format(time.RFC3339),
		LastOkAt:  st.LastOkAt,
	})
	h.Hub.Publish(events.Make(events.TypeRunStarted, nil))

	go func() {
		res := h.Run(context.Background())

		now := time.Now().Format(time.RFC3339)
		next := h.RunStatus.Load().(RunStatus)
		next.Running = false
		next.LastRunAt = now
		next.LastResult = &res
		if res.Success {
			next.LastError = ""
			next.LastOkAt = now
		} else if len(res.Errors) > 0 {
			next.LastError = res.Errors[len(res.Errors)-1]
		}
		h.RunStatus.Store(next)

		h.Hub.Publish(events.Make(events.TypeRunFinished, res))
	}()

	return true
}

func (h RunHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if !h.Trigger() {
		writeJSON(w, map[string]any{"ok": false, "msg": "already running"})
		return
	}
	writeJSON(w, map[string]any{"ok": true})
}
