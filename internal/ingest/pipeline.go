// Package ingest orchestrates one mailbox ingestion cycle: windowed search,
// dedup against the store, per-message fetch and extraction.
package ingest

import (
	"strconv"
	"time"

	imapclient "briefing-mail-archive/internal/imap"
	"briefing-mail-archive/internal/logging"
	"briefing-mail-archive/internal/mailparse"
	"briefing-mail-archive/internal/models"
	"briefing-mail-archive/internal/store"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// searchWindow is how far back each cycle looks. The briefing arrives weekly,
// so seven days always covers at least one issue; older messages were picked
// up by earlier cycles.
const searchWindow = 7 * 24 * time.Hour

type Pipeline struct {
	client imapclient.Client
	store  *store.Store
	cfg    *models.Config
}

func NewPipeline(client imapclient.Client, st *store.Store, cfg *models.Config) *Pipeline {
	return &Pipeline{
		client: client,
		store:  st,
		cfg:    cfg,
	}
}

// Run executes one ingestion cycle at the given time and returns the new
// matching records, newest first. Connect, login, select and search failures
// abort the cycle; a failed fetch only skips that message.
func (p *Pipeline) Run(now time.Time) ([]models.Record, error) {
	log := logging.Log.WithField("trace_id", uuid.New().String())

	since := now.Add(-searchWindow)
	// "Tomorrow" as the exclusive bound so messages from today are included.
	before := now.AddDate(0, 0, 1)

	if err := p.client.Connect(p.cfg.Email.Imap); err != nil {
		return nil, err
	}
	defer func() {
		if err := p.client.Close(); err != nil {
			log.Warnf("Logout error: %v", err)
		}
	}()

	if err := p.client.Login(p.cfg.Email.Login, p.cfg.Email.Password); err != nil {
		return nil, err
	}

	if err := p.client.SelectMailbox(p.cfg.Email.MailBox); err != nil {
		return nil, err
	}

	uids, err := p.client.SearchDateRange(since, before)
	if err != nil {
		return nil, err
	}
	log.Infof("Found %d messages in the current window", len(uids))

	known := p.store.KnownIDs()

	var newRecords []models.Record
	processed := 0

	// Newest first, so a per-cycle cap prioritizes the most recent issues;
	// anything left over is picked up next cycle via the dedup check.
	for i := len(uids) - 1; i >= 0; i-- {
		uid := uids[i]
		if _, ok := known[strconv.FormatUint(uint64(uid), 10)]; ok {
			continue
		}

		if p.cfg.MaxPerCycle > 0 && processed >= p.cfg.MaxPerCycle {
			log.Infof("Per-cycle limit of %d messages reached, deferring the rest", p.cfg.MaxPerCycle)
			break
		}

		raw, err := p.client.FetchRaw(uid)
		if err != nil {
			log.Warnf("Skipping message: %v", err)
			continue
		}
		processed++

		rec, ok := mailparse.Extract(uid, raw, p.cfg.TargetSubject)
		if !ok {
			continue
		}

		log.WithFields(logrus.Fields{
			"uid":       rec.ID,
			"send_time": rec.SendTime.String(),
		}).Info("New briefing message")
		newRecords = append(newRecords, *rec)
	}

	return newRecords, nil
}
