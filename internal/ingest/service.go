package ingest

import (
	"sync"
	"time"

	imapclient "briefing-mail-archive/internal/imap"
	"briefing-mail-archive/internal/models"
	"briefing-mail-archive/internal/store"
)

// Stats summarizes one ingest-and-persist cycle for the caller.
type Stats struct {
	NewCount   int `json:"new_count"`
	TotalCount int `json:"total_count"`
}

// Service ties the pipeline to the durable store. Each cycle opens a fresh
// mailbox session and closes it before returning; the store is read and
// rewritten at most once per cycle.
type Service struct {
	cfg       *models.Config
	store     *store.Store
	newClient func() imapclient.Client

	// mu serializes cycles so the scheduled loop and an on-demand refresh
	// never read-modify-write the store concurrently. Separate processes
	// sharing one store file remain unguarded.
	mu sync.Mutex
}

func NewService(cfg *models.Config, st *store.Store) *Service {
	return &Service{
		cfg:   cfg,
		store: st,
		newClient: func() imapclient.Client {
			return imapclient.NewStandardClient()
		},
	}
}

// IngestAndPersist runs one ingestion cycle and merges the result into the
// store. On a pipeline error the store is left untouched and the error is
// returned with the current total for reporting.
func (s *Service) IngestAndPersist(now time.Time) (Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pipeline := NewPipeline(s.newClient(), s.store, s.cfg)

	records, err := pipeline.Run(now)
	if err != nil {
		return Stats{TotalCount: len(s.store.Load())}, err
	}

	merged, total, err := s.store.Merge(records)
	if err != nil {
		return Stats{TotalCount: len(s.store.Load())}, err
	}
	return Stats{NewCount: merged, TotalCount: total}, nil
}
