package httpapi

import (
	"net/http"
	"time"
)

// NewMux builds the trigger surface: health, manual refresh, run status,
// and the SSE event stream.
func NewMux(d Deps) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, map[string]any{"ok": true, "time": time.Now().Format(time.RFC3339)})
		},
	}))

	rh := RunHandler{Run: d.Run, RunStatus: d.RunStatus, Hub: d.Hub}
	mux.HandleFunc("/refresh", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: rh.Refresh,
	}))
	mux.HandleFunc("/refresh/status", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: rh.Status,
	}))

	eh := EventsHandler{Hub: d.Hub}
	mux.HandleFunc("/events", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: eh.ServeSSE,
	}))

	return mux
}

// Handler wraps the mux in the standard middleware stack.
func Handler(d Deps) http.Handler {
	return Chain(NewMux(d),
		RequestID,
		Recover(d.Log),
		AccessLog(d.Log),
		BearerAuth(d.AuthToken),
	)
}
