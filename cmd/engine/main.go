package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"dealtrack-engine/internal/config"
	"dealtrack-engine/internal/dedup"
	"dealtrack-engine/internal/events"
	"dealtrack-engine/internal/extract"
	"dealtrack-engine/internal/httpapi"
	"dealtrack-engine/internal/notify"
	"dealtrack-engine/internal/pipeline"
	"dealtrack-engine/internal/scrape"
	"dealtrack-engine/internal/secrets"
	"dealtrack-engine/internal/store"
)

func main() {
	once := flag.Bool("once", false, "run the pipeline once and exit")
	flag.Parse()

	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	sugar := logger.Sugar()

	dataDir := os.Getenv("DEALTRACK_DATA_DIR")
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		sugar.Fatalw("create data dir", "err", err)
	}

	cfgPath, err := config.EnsureUserConfig(dataDir)
	if err != nil {
		sugar.Fatalw("config bootstrap failed", "err", err)
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		sugar.Fatalw("config load failed", "path", cfgPath, "err", err)
	}
	cfg, validation := config.NormalizeAndValidate(cfg)
	for _, warning := range validation.Warnings {
		sugar.Warnw("config warning", "msg", warning)
	}
	if !validation.OK() {
		sugar.Fatalw("config invalid", "errors", validation.Errors)
	}
	if cfg.Notify.WebhookURL == "" {
		cfg.Notify.WebhookURL = os.Getenv("SLACK_WEBHOOK_URL")
	}

	// One engine per data dir. The dedup known-set assumes runs never
	// overlap, so a second instance must not start.
	lock := flock.New(filepath.Join(dataDir, "engine.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		sugar.Fatalw("lock data dir", "err", err)
	}
	if !locked {
		sugar.Fatalw("another engine instance holds the data dir", "dir", dataDir)
	}
	defer func() { _ = lock.Unlock() }()

	db, err := store.Open(filepath.Join(dataDir, "dealtrack.db"))
	if err != nil {
		sugar.Fatalw("open store", "err", err)
	}
	defer db.Close()
	if err := store.Migrate(db.Pool); err != nil {
		sugar.Fatalw("migrate store", "err", err)
	}

	runner := buildRunner(cfg, db, sugar)

	if *once {
		res := runner.Run(context.Background())
		b, _ := json.MarshalIndent(res, "", "  ")
		fmt.Println(string(b))
		return
	}

	serve(cfg, runner, sugar)
}

func buildRunner(cfg config.Config, db *store.DB, sugar *zap.SugaredLogger) *pipeline.Runner {
	var extractor pipeline.Extractor
	if apiKey := secrets.APIKey(); apiKey != "" {
		completer := extract.NewAnthropicCompleter(apiKey, cfg)
		extractor = extract.NewExtractor(completer, cfg, sugar)
	} else {
		sugar.Warnw("no completion credential; runs will be no-ops")
	}

	return &pipeline.Runner{
		Sources:   cfg.AllSources(),
		Fetcher:   scrape.NewFetcher(cfg, sugar),
		Extractor: extractor,
		Dedup:     dedup.NewFilter(cfg, sugar),
		Store:     db,
		Notifier:  notify.NewSlackNotifier(cfg, sugar),
		Log:       sugar,
	}
}

func serve(cfg config.Config, runner *pipeline.Runner, sugar *zap.SugaredLogger) {
	hub := events.NewHub()
	runner.OnInserted = func(count int) {
		hub.Publish(events.Make(events.TypeDealsInserted, map[string]int{"count": count}))
	}

	var runStatus atomic.Value
	runStatus.Store(httpapi.RunStatus{})

	deps := httpapi.Deps{
		Run:       runner.Run,
		RunStatus: &runStatus,
		Hub:       hub,
		AuthToken: os.Getenv("DEALTRACK_AUTH_TOKEN"),
		Log:       sugar,
	}

	// Scheduled runs share the trigger (and its running-guard) with the
	// manual endpoint.
	rh := httpapi.RunHandler{Run: deps.Run, RunStatus: deps.RunStatus, Hub: deps.Hub}

	var c *cron.Cron
	if cfg.Schedule != "" {
		c = cron.New()
		if _, err := c.AddFunc(cfg.Schedule, func() {
			if !rh.Trigger() {
				sugar.Warnw("scheduled run skipped, previous run still going")
			}
		}); err != nil {
			sugar.Fatalw("bad schedule", "expr", cfg.Schedule, "err", err)
		}
		c.Start()
		sugar.Infow("schedule armed", "expr", cfg.Schedule)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf("127.0.0.1:%d", cfg.App.Port),
		Handler:           httpapi.Handler(deps),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		sugar.Infow("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			sugar.Fatalw("serve", "err", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	sugar.Infow("shutting down")
	if c != nil {
		<-c.Stop().Done()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
}
