// internal/config/config.go
package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"dealtrack-engine/internal/domain"
)

type Source struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

type Config struct {
	App struct {
		Port    int    `yaml:"port"`
		DataDir string `yaml:"data_dir"`
	} `yaml:"app"`

	// Cron expression for scheduled runs; empty disables the schedule.
	Schedule string `yaml:"schedule"`

	Scrape struct {
		BatchSize      int     `yaml:"batch_size"`
		TimeoutSeconds int     `yaml:"timeout_seconds"`
		MaxTextChars   int     `yaml:"max_text_chars"`
		MinTextChars   int     `yaml:"min_text_chars"`
		HostReqPerSec  float64 `yaml:"host_req_per_sec"`
		HostBurst      int     `yaml:"host_burst"`
	} `yaml:"scrape"`

	Extract struct {
		Model       string  `yaml:"model"`
		MaxTokens   int     `yaml:"max_tokens"`
		Temperature float64 `yaml:"temperature"`
		BatchSize   int     `yaml:"batch_size"`
		RecencyDays int     `yaml:"recency_days"`
	} `yaml:"extract"`

	Dedup struct {
		CompanyThreshold  int `yaml:"company_threshold"`
		InvestorThreshold int `yaml:"investor_threshold"`
	} `yaml:"dedup"`

	Notify struct {
		WebhookURL   string `yaml:"webhook_url"`
		DashboardURL string `yaml:"dashboard_url"`
	} `yaml:"notify"`

	Sources struct {
		News  []Source `yaml:"news"`
		Firms []Source `yaml:"firms"`
	} `yaml:"sources"`
}

func Load(path string) (Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	err = yaml.Unmarshal(b, &cfg)
	return cfg, err
}

// AllSources flattens the catalog into the order the pipeline fetches it:
// news wires first, then firm pages.
func (c Config) AllSources() []domain.Source {
	out := make([]domain.Source, 0, len(c.Sources.News)+len(c.Sources.Firms))
	for _, s := range c.Sources.News {
		out = append(out, domain.Source{Name: s.Name, URL: s.URL, Category: domain.SourceNews})
	}
	for _, s := range c.Sources.Firms {
		out = append(out, domain.Source{Name: s.Name, URL: s.URL, Category: domain.SourceFirm})
	}
	return out
}
