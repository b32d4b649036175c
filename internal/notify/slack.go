// Package notify posts run summaries to a Slack-style incoming webhook.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"dealtrack-engine/internal/config"
	"dealtrack-engine/internal/domain"
)

type SlackNotifier struct {
	WebhookURL   string
	DashboardURL string
	Client       *http.Client
	Log          *zap.SugaredLogger
}

func NewSlackNotifier(cfg config.Config, log *zap.SugaredLogger) *SlackNotifier {
	return &SlackNotifier{
		WebhookURL:   cfg.Notify.WebhookURL,
		DashboardURL: cfg.Notify.DashboardURL,
		Client:       &http.Client{Timeout: 10 * time.Second},
		Log:          log,
	}
}

// NotifyNewDeals posts a human-readable summary of freshly inserted deals.
// An unconfigured webhook URL is a silent no-op, not an error.
func (n *SlackNotifier) NotifyNewDeals(ctx context.Context, deals []domain.CandidateDeal) error {
	if n.WebhookURL == "" {
		n.Log.Debugw("webhook url not set, skipping notification")
		return nil
	}

	payload, err := json.Marshal(map[string]string{"text": n.formatMessage(deals)})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook returned http %d", resp.StatusCode)
	}
	return nil
}

func (n *SlackNotifier) formatMessage(deals []domain.CandidateDeal) string {
	plural := "s"
	if len(deals) == 1 {
		plural = ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\U0001F4CA *%d new deal%s found*\n\n", len(deals), plural)

	for _, d := range deals {
		amount := "undisclosed"
		if d.AmountRaised != nil {
			amount = fmt.Sprintf("$%.0fM", *d.AmountRaised/1_000_000)
		}
		fmt.Fprintf(&b, "• *%s* — %s — %s — %s",
			d.CompanyName, d.Investor, amount, domain.NormalizeEndMarket(d.EndMarket))
		if d.SourceURL != "" {
			fmt.Fprintf(&b, " (<%s|source>)", d.SourceURL)
		}
		b.WriteString("\n")
		if d.Description != "" {
			fmt.Fprintf(&b, "   _%s_\n", d.Description)
		}
	}

	if n.DashboardURL != "" {
		fmt.Fprintf(&b, "\n<%s|View all deals →>", n.DashboardURL)
	}
	return b.String()
}
