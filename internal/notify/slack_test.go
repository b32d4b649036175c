package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"dealtrack-engine/internal/domain"
)

func amount(v float64) *float64 { return &v }

func testDeals() []domain.CandidateDeal {
	return []domain.CandidateDeal{
		{
			CompanyName:  "Acme Corp",
			Investor:     "Summit Partners",
			AmountRaised: amount(50_000_000),
			EndMarket:    "FinTech",
			Description:  "Acme Corp provides billing software.",
			Date:         "2026-02-20",
			SourceURL:    "https://example.com/a",
		},
		{
			CompanyName: "Brightline Software",
			Investor:    "Insight",
			Date:        "2026-02-21",
		},
	}
}

func TestNotifyNewDealsPostsSummary(t *testing.T) {
	var body map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		b, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(b, &body))
	}))
	defer srv.Close()

	n := &SlackNotifier{
		WebhookURL:   srv.URL,
		DashboardURL: "https://deals.example.com",
		Client:       &http.Client{Timeout: 5 * time.Second},
		Log:          zap.NewNop().Sugar(),
	}
	require.NoError(t, n.NotifyNewDeals(context.Background(), testDeals()))

	text := body["text"]
	assert.Contains(t, text, "2 new deals found")
	assert.Contains(t, text, "*Acme Corp* — Summit Partners — $50M — FinTech")
	assert.Contains(t, text, "_Acme Corp provides billing software._")
	assert.Contains(t, text, "*Brightline Software* — Insight — undisclosed — Other")
	assert.Contains(t, text, "<https://deals.example.com|View all deals")
}

func TestNotifyNewDealsSingularHeader(t *testing.T) {
	n := &SlackNotifier{Log: zap.NewNop().Sugar()}
	msg := n.formatMessage(testDeals()[:1])
	assert.Contains(t, msg, "1 new deal found")
}

func TestNotifyNewDealsNoWebhookIsNoop(t *testing.T) {
	n := &SlackNotifier{
		Client: &http.Client{Timeout: time.Second},
		Log:    zap.NewNop().Sugar(),
	}
	assert.NoError(t, n.NotifyNewDeals(context.Background(), testDeals()))
}

func TestNotifyNewDealsSurfacesHTTPFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no", http.StatusForbidden)
	}))
	defer srv.Close()

	n := &SlackNotifier{
		WebhookURL: srv.URL,
		Client:     &http.Client{Timeout: 5 * time.Second},
		Log:        zap.NewNop().Sugar(),
	}
	err := n.NotifyNewDeals(context.Background(), testDeals())
	assert.ErrorContains(t, err, "403")
}
