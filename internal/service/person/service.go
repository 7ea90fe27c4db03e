package person

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/cfp-sync/internal/domain"
)

type personRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Person, error)
	Upsert(ctx context.Context, p *domain.Person) error
}

type identityRepo interface {
	Get(ctx context.Context, email string) (*domain.EmailIndexEntry, error)
	Claim(ctx context.Context, email, ownerID string) error
	Release(ctx context.Context, email, ownerID string) error
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service creates and updates single persons while keeping the email
// index consistent.
type Service struct {
	log      *slog.Logger
	persons  personRepo
	identity identityRepo
	tx       txManager

	now   func() time.Time
	newID func() string
}

// NewService creates a new person service.
func NewService(logger *slog.Logger, persons personRepo, identity identityRepo, tx txManager) *Service {
	return &Service{
		log:      logger.With("service", "person"),
		persons:  persons,
		identity: identity,
		tx:       tx,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}
