package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/cfp-sync/internal/domain"
	"github.com/heartmarshall/cfp-sync/internal/service/importer"
	"github.com/heartmarshall/cfp-sync/internal/transport/rest"
	"github.com/heartmarshall/cfp-sync/pkg/ctxutil"
)

type conferenceImporter interface {
	Import(ctx context.Context, conferenceID string, opts importer.Options) (domain.ImportReport, error)
}

type importableLister interface {
	ListImportable(ctx context.Context) ([]*domain.Conference, error)
}

// RunResult is the outcome of one conference import within a cycle.
type RunResult struct {
	ConferenceID string              `json:"conferenceId"`
	Report       domain.ImportReport `json:"report"`
	Error        string              `json:"error,omitempty"`
}

// Scheduler runs import cycles. With explicit conference ids it imports
// exactly those; otherwise every conference with CFP credentials.
type Scheduler struct {
	importer      conferenceImporter
	conferences   importableLister
	logger        *slog.Logger
	conferenceIDs []string
	opts          importer.Options

	mu   sync.Mutex
	last *rest.CycleStatus
}

// NewScheduler creates a Scheduler.
func NewScheduler(
	imp conferenceImporter,
	conferences importableLister,
	logger *slog.Logger,
	conferenceIDs []string,
	opts importer.Options,
) *Scheduler {
	return &Scheduler{
		importer:      imp,
		conferences:   conferences,
		logger:        logger.With("component", "scheduler"),
		conferenceIDs: conferenceIDs,
		opts:          opts,
	}
}

// Start runs a cycle immediately and then on every tick until ctx is
// cancelled. Cycle failures are logged; the next tick retries.
func (s *Scheduler) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("import scheduler started", slog.Duration("interval", interval))

	s.cycle(ctx)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("import scheduler stopped")
			return
		case <-ticker.C:
			s.cycle(ctx)
		}
	}
}

func (s *Scheduler) cycle(ctx context.Context) {
	if _, err := s.RunOnce(ctx); err != nil {
		s.logger.Error("import cycle failed", slog.String("error", err.Error()))
	}
}

// RunOnce imports each target conference in turn. A failed conference does
// not stop the others; its error is recorded in the result. The returned
// error is set only when the target list cannot be built.
func (s *Scheduler) RunOnce(ctx context.Context) ([]RunResult, error) {
	ids, err := s.targets(ctx)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		s.logger.Info("no conference to import")
		return nil, nil
	}

	start := time.Now()
	results := make([]RunResult, 0, len(ids))
	failed := 0
	for _, id := range ids {
		if ctx.Err() != nil {
			break
		}
		runCtx := ctxutil.WithRequestID(ctx, uuid.NewString())
		report, err := s.importer.Import(runCtx, id, s.opts)
		res := RunResult{ConferenceID: id, Report: report}
		if err != nil {
			failed++
			res.Error = err.Error()
		}
		results = append(results, res)
	}

	s.mu.Lock()
	s.last = &rest.CycleStatus{FinishedAt: time.Now().UTC(), Conferences: len(results), Failed: failed}
	s.mu.Unlock()

	s.logger.Info("import cycle finished",
		slog.Int("conferences", len(results)),
		slog.Int("failed", failed),
		slog.Duration("took", time.Since(start)),
	)
	return results, nil
}

// LastCycle returns the outcome of the last finished cycle, if any.
func (s *Scheduler) LastCycle() (rest.CycleStatus, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return rest.CycleStatus{}, false
	}
	return *s.last, true
}

func (s *Scheduler) targets(ctx context.Context) ([]string, error) {
	if len(s.conferenceIDs) > 0 {
		return s.conferenceIDs, nil
	}
	confs, err := s.conferences.ListImportable(ctx)
	if err != nil {
		return nil, fmt.Errorf("list importable conferences: %w", err)
	}
	ids := make([]string, 0, len(confs))
	for _, c := range confs {
		ids = append(ids, c.ID)
	}
	return ids, nil
}
