package main

import (
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"briefing-mail-archive/internal/config"
	"briefing-mail-archive/internal/httpapi"
	"briefing-mail-archive/internal/ingest"
	"briefing-mail-archive/internal/logging"
	"briefing-mail-archive/internal/query"
	"briefing-mail-archive/internal/store"
)

var mailboxFailureCount atomic.Int32

const failureSleepDuration = 30 * time.Minute

func main() {
	cfg, err := config.Load(configPath())
	if err != nil {
		logging.Log.Fatalf("Error reading configuration file: %v", err)
	}

	logging.Log.Infof("Starting briefing archive, refresh every %s", cfg.Email.RefreshTime)

	st := store.New(cfg.StorageFile)
	svc := ingest.NewService(cfg, st)
	engine := query.NewEngine(st)

	api := httpapi.NewServer(engine, svc, cfg.PageSize)
	go func() {
		logging.Log.Infof("Serving query API on %s", cfg.Listen)
		if err := http.ListenAndServe(cfg.Listen, api.Router()); err != nil {
			logging.Log.Fatalf("HTTP server error: %v", err)
		}
	}()

	for {
		runIngestion(svc)
		time.Sleep(cfg.Email.RefreshTime)
	}
}

func configPath() string {
	if path := os.Getenv("BRIEFING_CONFIG"); path != "" {
		return path
	}
	return "config.yaml"
}

// runIngestion executes one ingest-and-persist cycle and reports the outcome
func runIngestion(svc *ingest.Service) {
	stats, err := svc.IngestAndPersist(time.Now())
	if err != nil {
		handleMailboxFailure(err)
		return
	}

	// Reset failure count on a successful cycle
	mailboxFailureCount.Store(0)

	if stats.NewCount > 0 {
		logging.Log.Infof("Merged %d new briefings, %d stored in total", stats.NewCount, stats.TotalCount)
	}
}

// handleMailboxFailure increments the failure count and implements an exponential backoff strategy
func handleMailboxFailure(err error) {
	failures := mailboxFailureCount.Add(1)
	logging.Log.Errorf("Ingestion cycle failed: %v", err)

	if failures >= 5 {
		base := 5 * time.Minute
		maxSteps := int32(10)

		n := failures - 5
		if n > maxSteps {
			n = maxSteps
		}

		backoff := base * time.Duration(1<<n)
		if backoff > failureSleepDuration {
			backoff = failureSleepDuration
		}

		logging.Log.Warnf("Mailbox unreachable %d times, waiting %s before next attempt", failures, backoff)
		time.Sleep(backoff)
	}
}
