package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"dealtrack-engine/internal/domain"
	"dealtrack-engine/internal/events"
)

func testDeps(run RunPipeline, token string) Deps {
	status := &atomic.Value{}
	status.Store(RunStatus{})
	return Deps{
		Run:       run,
		RunStatus: status,
		Hub:       events.NewHub(),
		AuthToken: token,
		Log:       zap.NewNop().Sugar(),
	}
}

func instantRun(ctx context.Context) domain.RunResult {
	return domain.RunResult{Success: true}
}

func waitNotRunning(t *testing.T, status *atomic.Value) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if !status.Load().(RunStatus).Running {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("run never finished")
}

func TestHealth(t *testing.T) {
	h := Handler(testDeps(instantRun, ""))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok":true`)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRefreshRejectsOverlappingRun(t *testing.T) {
	release := make(chan struct{})
	d := testDeps(func(ctx context.Context) domain.RunResult {
		<-release
		return domain.RunResult{Success: true, RecordsInserted: 2}
	}, "")
	h := Handler(d)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/refresh", nil))
	assert.Contains(t, rec.Body.String(), `"ok":true`)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/refresh", nil))
	assert.Contains(t, rec.Body.String(), "already running")

	close(release)
	waitNotRunning(t, d.RunStatus)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/refresh/status", nil))

	var st RunStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.False(t, st.Running)
	assert.NotEmpty(t, st.LastOkAt)
	require.NotNil(t, st.LastResult)
	assert.Equal(t, 2, st.LastResult.RecordsInserted)
}

func TestStatusRecordsLastError(t *testing.T) {
	d := testDeps(func(ctx context.Context) domain.RunResult {
		return domain.RunResult{Success: false, Errors: []string{"list deal history: db gone"}}
	}, "")
	rh := RunHandler{Run: d.Run, RunStatus: d.RunStatus, Hub: d.Hub}

	require.True(t, rh.Trigger())
	waitNotRunning(t, d.RunStatus)

	st := d.RunStatus.Load().(RunStatus)
	assert.Equal(t, "list deal history: db gone", st.LastError)
	assert.Empty(t, st.LastOkAt)
}

func TestBearerAuth(t *testing.T) {
	h := Handler(testDeps(instantRun, "s3cret"))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/refresh", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/refresh", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Health stays open for probes.
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	h := Handler(testDeps(instantRun, ""))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/refresh", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestTriggerPublishesRunEvents(t *testing.T) {
	d := testDeps(instantRun, "")
	ch := d.Hub.Subscribe()
	defer d.Hub.Unsubscribe(ch)

	rh := RunHandler{Run: d.Run, RunStatus: d.RunStatus, Hub: d.Hub}
	require.True(t, rh.Trigger())

	types := []string{}
	timeout := time.After(2 * time.Second)
	for len(types) < 2 {
		select {
		case raw := <-ch:
			var ev events.Event
			require.NoError(t, json.Unmarshal([]byte(raw), &ev))
			types = append(types, ev.Type)
		case <-timeout:
			t.Fatalf("saw events %v, wanted started+finished", types)
		}
	}
	assert.Equal(t, []string{events.TypeRunStarted, events.TypeRunFinished}, types)
}
