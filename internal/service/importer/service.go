package importer

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/cfp-sync/internal/config"
	"github.com/heartmarshall/cfp-sync/internal/domain"
	"github.com/heartmarshall/cfp-sync/internal/provider"
)

// ---------------------------------------------------------------------------
// Consumer-defined interfaces (private)
// ---------------------------------------------------------------------------

type conferenceRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Conference, error)
}

type personRepo interface {
	GetByIDs(ctx context.Context, ids []string) (map[string]*domain.Person, error)
	ListByConference(ctx context.Context, conferenceID string) ([]*domain.Person, error)
}

type sessionRepo interface {
	ListByConference(ctx context.Context, conferenceID string) ([]*domain.Session, error)
}

type trackRepo interface {
	ListByConference(ctx context.Context, conferenceID string) ([]*domain.Track, error)
}

type identityIndex interface {
	OwnerOf(ctx context.Context, email string) (string, error)
}

type batchCommitter interface {
	CommitBatch(ctx context.Context, ops []domain.WriteOp) error
}

type submissionSource interface {
	FetchSubmissions(ctx context.Context, creds domain.CFPCredentials) ([]provider.Submission, error)
}

type importLocker interface {
	Acquire(ctx context.Context, conferenceID string) (func(context.Context) error, error)
}

type metricsRecorder interface {
	RecordImport(r domain.ImportReport, took time.Duration)
	RecordFailure(stage domain.ImportStage, r domain.ImportReport, took time.Duration)
}

// ---------------------------------------------------------------------------
// Service
// ---------------------------------------------------------------------------

// Service reconciles submissions from the external source into the local
// conference dataset.
type Service struct {
	log         *slog.Logger
	conferences conferenceRepo
	persons     personRepo
	sessions    sessionRepo
	tracks      trackRepo
	identity    identityIndex
	batches     batchCommitter
	source      submissionSource
	locker      importLocker
	metrics     metricsRecorder
	cfg         config.ImportConfig

	now   func() time.Time
	newID func() string
}

// NewService creates a new import service.
func NewService(
	logger *slog.Logger,
	conferences conferenceRepo,
	persons personRepo,
	sessions sessionRepo,
	tracks trackRepo,
	identity identityIndex,
	batches batchCommitter,
	source submissionSource,
	locker importLocker,
	metrics metricsRecorder,
	cfg config.ImportConfig,
) *Service {
	return &Service{
		log:         logger.With("service", "importer"),
		conferences: conferences,
		persons:     persons,
		sessions:    sessions,
		tracks:      tracks,
		identity:    identity,
		batches:     batches,
		source:      source,
		locker:      locker,
		metrics:     metrics,
		cfg:         cfg,
		now:         time.Now,
		newID:       uuid.NewString,
	}
}

// Options tune a single import run.
type Options struct {
	// DryRun computes the full report without committing any write.
	DryRun bool
}
