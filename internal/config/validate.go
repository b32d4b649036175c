package config

import (
	"fmt"
	"strings"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// NormalizeAndValidate fills unset knobs with defaults, drops malformed
// catalog entries, and reports anything a run would trip over.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	out := cfg
	var res Validation

	// ---- Defaults ----

	if out.App.Port == 0 {
		out.App.Port = 8750
	}
	if out.Scrape.BatchSize <= 0 {
		out.Scrape.BatchSize = 10
	}
	if out.Scrape.TimeoutSeconds <= 0 {
		out.Scrape.TimeoutSeconds = 15
	}
	if out.Scrape.MaxTextChars <= 0 {
		out.Scrape.MaxTextChars = 15000
	}
	if out.Scrape.MinTextChars <= 0 {
		out.Scrape.MinTextChars = 50
	}
	if out.Scrape.HostReqPerSec <= 0 {
		out.Scrape.HostReqPerSec = 1.0
	}
	if out.Scrape.HostBurst <= 0 {
		out.Scrape.HostBurst = 2
	}
	if out.Extract.BatchSize <= 0 {
		out.Extract.BatchSize = 2
	}
	if out.Extract.MaxTokens <= 0 {
		out.Extract.MaxTokens = 4096
	}
	if out.Extract.RecencyDays <= 0 {
		out.Extract.RecencyDays = 3
	}
	if out.Dedup.CompanyThreshold <= 0 {
		out.Dedup.CompanyThreshold = 80
	}
	if out.Dedup.InvestorThreshold <= 0 {
		out.Dedup.InvestorThreshold = 80
	}

	// ---- Catalog normalization ----

	trimSources := func(xs []Source) []Source {
		seen := map[string]bool{}
		var ys []Source
		for _, x := range xs {
			x.Name = strings.TrimSpace(x.Name)
			x.URL = strings.TrimSpace(x.URL)
			if x.Name == "" || x.URL == "" {
				res.addWarn("dropping catalog entry with blank name or url: %+v", x)
				continue
			}
			key := strings.ToLower(x.URL)
			if seen[key] {
				res.addWarn("duplicate source url in catalog: %q", x.URL)
				continue
			}
			seen[key] = true
			ys = append(ys, x)
		}
		return ys
	}

	out.Sources.News = trimSources(out.Sources.News)
	out.Sources.Firms = trimSources(out.Sources.Firms)

	// ---- Validation rules ----

	if len(out.Sources.News)+len(out.Sources.Firms) == 0 {
		res.addErr("source catalog is empty: add sources.news or sources.firms entries")
	}

	if strings.TrimSpace(out.Extract.Model) == "" {
		res.addErr("extract.model is required")
	}

	if out.Scrape.BatchSize > 50 {
		res.addWarn("scrape.batch_size is very high (%d) and may hammer target sites.", out.Scrape.BatchSize)
	}
	if out.Extract.BatchSize > 5 {
		res.addWarn("extract.batch_size is high (%d); completion API rate limits may bite.", out.Extract.BatchSize)
	}

	if out.Dedup.CompanyThreshold > 100 || out.Dedup.InvestorThreshold > 100 {
		res.addErr("dedup thresholds are 0-100 similarity scores")
	}

	if out.Notify.WebhookURL != "" && !strings.HasPrefix(out.Notify.WebhookURL, "http") {
		res.addErr("notify.webhook_url must be an http(s) URL")
	}

	return out, res
}
