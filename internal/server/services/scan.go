package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/dockeeper/internal/common"
	"github.com/dmitrijs2005/dockeeper/internal/logging"
	"github.com/dmitrijs2005/dockeeper/internal/server/config"
	"github.com/dmitrijs2005/dockeeper/internal/server/models"
	"github.com/dmitrijs2005/dockeeper/internal/server/policy"
	"github.com/dmitrijs2005/dockeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/dockeeper/internal/timex"
	"github.com/sethvargo/go-retry"
)

// Per-document scan outcomes.
const (
	ScanStatusNotified           = "notified"
	ScanStatusSkippedNotDue      = "skipped-not-due"
	ScanStatusSkippedAlreadySent = "skipped-already-sent"
	ScanStatusFailed             = "failed"
)

// DocumentResult is the outcome for one document in one scan run.
type DocumentResult struct {
	DocumentID    string
	DaysRemaining int
	Status        string
	Channels      []string
}

// RunSummary aggregates one scan run.
type RunSummary struct {
	Processed int
	Notified  int
	Results   []DocumentResult
}

// ScanService runs the daily pass over all active documents: evaluate each
// one against the owner's policy and hand the due ones to the dispatcher.
type ScanService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	dispatcher  *Dispatcher
	logger      logging.Logger
	workers     int
}

// NewScanService constructs a ScanService using server config.
func NewScanService(db *sql.DB, m repomanager.RepositoryManager, dispatcher *Dispatcher,
	logger logging.Logger, cfg *config.Config) *ScanService {
	workers := cfg.ScanWorkers
	if workers < 1 {
		workers = 1
	}
	return &ScanService{
		db:          db,
		repomanager: m,
		dispatcher:  dispatcher,
		logger:      logger.With("component", "scan"),
		workers:     workers,
	}
}

// loadActive fetches the scan working set, retrying transient load failures
// with exponential backoff before giving up on the whole run.
func (s *ScanService) loadActive(ctx context.Context) ([]*models.DocumentContext, error) {
	var docs []*models.DocumentContext
	backoff := retry.WithMaxRetries(3, retry.NewExponential(200*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var err error
		docs, err = s.repomanager.Documents(s.db).SelectActiveForScan(ctx)
		if err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	return docs, err
}

// Run evaluates every active document once. Documents are spread over a
// bounded worker pool; one document failing, or even panicking, never stops
// the rest of the run.
func (s *ScanService) Run(ctx context.Context, now time.Time) (*RunSummary, error) {
	docs, err := s.loadActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("error loading documents: %w", err)
	}

	s.logger.Info(ctx, "scan started", "documents", len(docs), "workers", s.workers)

	jobs := make(chan *models.DocumentContext)
	results := make([]DocumentResult, 0, len(docs))

	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for doc := range jobs {
				res := s.processOne(ctx, doc, now)
				mu.Lock()
				results = append(results, res)
				mu.Unlock()
			}
		}()
	}

	for _, doc := range docs {
		jobs <- doc
	}
	close(jobs)
	wg.Wait()

	summary := &RunSummary{Processed: len(results), Results: results}
	for _, r := range results {
		if r.Status == ScanStatusNotified {
			summary.Notified++
		}
	}

	s.logger.Info(ctx, "scan finished", "processed", summary.Processed, "notified", summary.Notified)
	return summary, nil
}

// processOne evaluates and, when due, dispatches a single document. A panic
// inside the document's processing is contained here and reported as a
// failure for that document only.
func (s *ScanService) processOne(ctx context.Context, doc *models.DocumentContext, now time.Time) (res DocumentResult) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error(ctx, "panic while processing document", "document", doc.ID, "panic", r)
			res = DocumentResult{DocumentID: doc.ID, Status: ScanStatusFailed}
		}
	}()

	pref := doc.Preference
	if pref == nil {
		pref = models.DefaultPreference(doc.OwnerID)
	}

	days := timex.DaysUntil(now, doc.ExpiryDate)
	res = DocumentResult{DocumentID: doc.ID, DaysRemaining: days}

	decision := policy.Evaluate(days, pref.AnticipationDays, pref.Frequency)
	if !decision.Due {
		res.Status = ScanStatusSkippedNotDue
		return res
	}

	// Cheap pre-check; the authoritative gate is the SENT insert.
	already, err := s.repomanager.Reminders(s.db).SentToday(ctx, doc.ID)
	if err != nil {
		s.logger.Error(ctx, "error checking sent reminders", "document", doc.ID, "error", err)
		res.Status = ScanStatusFailed
		return res
	}
	if already {
		res.Status = ScanStatusSkippedAlreadySent
		return res
	}

	outcome, err := s.dispatcher.Dispatch(ctx, doc, days, now)
	if err != nil {
		if errors.Is(err, common.ErrAlreadySentToday) {
			res.Status = ScanStatusSkippedAlreadySent
			return res
		}
		s.logger.Error(ctx, "error dispatching reminder", "document", doc.ID, "error", err)
		res.Status = ScanStatusFailed
		return res
	}
	if !outcome.Notified {
		res.Status = ScanStatusFailed
		return res
	}

	res.Status = ScanStatusNotified
	res.Channels = outcome.Channels
	return res
}
