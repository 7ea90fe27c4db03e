package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/heartmarshall/cfp-sync/internal/domain"
	"github.com/heartmarshall/cfp-sync/pkg/ctxutil"
)

// existing is the local state of a conference loaded before reconciliation.
type existing struct {
	persons  []*domain.Person
	sessions []*domain.Session
	tracks   []*domain.Track
}

// Import pulls the submissions of conferenceID from the external source and
// reconciles tracks, speakers and sessions into the store.
//
// Writes are committed in chunks of at most cfg.MaxBatchOps operations. Each
// chunk is atomic; the sequence is not. A failed run may leave earlier chunks
// committed, and rerunning it converges to the same end state.
//
// Every fatal error is a *domain.ImportError carrying the counters so far.
func (s *Service) Import(ctx context.Context, conferenceID string, opts Options) (domain.ImportReport, error) {
	started := s.now()
	report := domain.ImportReport{DryRun: opts.DryRun}

	log := s.log.With(slog.String("conference_id", conferenceID))
	if r, ok := ctxutil.RequesterFromCtx(ctx); ok {
		log = log.With(slog.String("requested_by", r.Email))
	}
	if id := ctxutil.RequestIDFromCtx(ctx); id != "" {
		log = log.With(slog.String("run_id", id))
	}

	fail := func(stage domain.ImportStage, err error) (domain.ImportReport, error) {
		s.metrics.RecordFailure(stage, report, s.now().Sub(started))
		log.ErrorContext(ctx, "import failed",
			slog.String("stage", string(stage)),
			slog.Int("chunks_committed", report.Chunks),
			slog.String("error", err.Error()),
		)
		return report, &domain.ImportError{ConferenceID: conferenceID, Stage: stage, Report: report, Err: err}
	}

	conf, err := s.conferences.GetByID(ctx, conferenceID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fail(domain.ImportStageConfig, fmt.Errorf("%w: %w", domain.ErrConfigMissing, err))
		}
		return fail(domain.ImportStageConfig, fmt.Errorf("load conference: %w", err))
	}
	if !conf.CFP.Complete() {
		return fail(domain.ImportStageConfig, fmt.Errorf("%w: conference %s has no CFP event id or API key", domain.ErrConfigMissing, conferenceID))
	}

	release, err := s.locker.Acquire(ctx, conferenceID)
	if err != nil {
		return fail(domain.ImportStageLock, err)
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			log.WarnContext(ctx, "release import lock", slog.String("error", err.Error()))
		}
	}()

	subs, err := s.source.FetchSubmissions(ctx, conf.CFP)
	if err != nil {
		return fail(domain.ImportStageFetch, err)
	}

	current, err := s.loadExisting(ctx, conferenceID)
	if err != nil {
		return fail(domain.ImportStageLoad, err)
	}

	now := started.UTC().Truncate(time.Microsecond)
	st := newStager(s.cfg.MaxBatchOps)

	tracks := s.synthesizeTracks(conf, subs, current.tracks, st, &report)

	speakers, err := s.reconcileSpeakers(ctx, conf, subs, current.persons, now, st, &report)
	if err != nil {
		return fail(domain.ImportStageSpeakers, err)
	}

	if err := s.reconcileSessions(ctx, conf, subs, speakers, tracks, current.sessions, now, st, &report); err != nil {
		return fail(domain.ImportStageSessions, err)
	}
	log.DebugContext(ctx, "writes staged", slog.Int("ops", st.pending()), slog.Int("chunks", len(st.chunks())))

	if !opts.DryRun {
		for i, chunk := range st.chunks() {
			if err := ctx.Err(); err != nil {
				return fail(domain.ImportStageCommit, err)
			}
			// A started chunk runs to completion even if ctx is cancelled.
			if err := s.batches.CommitBatch(context.WithoutCancel(ctx), chunk); err != nil {
				return fail(domain.ImportStageCommit, fmt.Errorf("chunk %d: %w", i+1, err))
			}
			report.Chunks++
			log.DebugContext(ctx, "chunk committed", slog.Int("chunk", i+1), slog.Int("ops", len(chunk)))
		}
	}

	report.ImportedAt = now
	took := s.now().Sub(started)
	s.metrics.RecordImport(report, took)

	log.InfoContext(ctx, "import finished",
		slog.Bool("dry_run", opts.DryRun),
		slog.Int("submissions", len(subs)),
		slog.Int("session_added", report.SessionAdded),
		slog.Int("session_updated", report.SessionUpdated),
		slog.Int("speaker_added", report.SpeakerAdded),
		slog.Int("speaker_updated", report.SpeakerUpdated),
		slog.Int("speaker_skipped", report.SpeakerSkipped),
		slog.Int("track_added", report.TrackAdded),
		slog.Int("chunks", report.Chunks),
		slog.Duration("took", took),
	)

	return report, nil
}

// loadExisting reads the conference's current persons, sessions and tracks
// concurrently.
func (s *Service) loadExisting(ctx context.Context, conferenceID string) (existing, error) {
	var out existing
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		if out.persons, err = s.persons.ListByConference(gctx, conferenceID); err != nil {
			return fmt.Errorf("load persons: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if out.sessions, err = s.sessions.ListByConference(gctx, conferenceID); err != nil {
			return fmt.Errorf("load sessions: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if out.tracks, err = s.tracks.ListByConference(gctx, conferenceID); err != nil {
			return fmt.Errorf("load tracks: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return existing{}, err
	}
	return out, nil
}
