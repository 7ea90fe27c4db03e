// Package identity implements the email identity index on PostgreSQL. Each
// normalized email has at most one owning Person; the primary key on
// person_emails.email enforces it, and claims only succeed for the current
// owner or an unowned key.
package identity

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/heartmarshall/cfp-sync/internal/adapter/postgres"
	"github.com/heartmarshall/cfp-sync/internal/domain"
)

// claimSQL inserts the entry, or touches it when the same owner already holds
// it. A different owner leaves the row alone and the statement affects 0 rows.
const claimSQL = `
INSERT INTO person_emails (email, person_id, created_at)
VALUES ($1, $2, now())
ON CONFLICT (email) DO UPDATE
    SET person_id = EXCLUDED.person_id
    WHERE person_emails.person_id = EXCLUDED.person_id`

const releaseSQL = `DELETE FROM person_emails WHERE email = $1 AND person_id = $2`

// Repo provides identity index persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new identity index repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Get returns the index entry for email.
// Returns domain.ErrNotFound if nobody owns it.
func (r *Repo) Get(ctx context.Context, email string) (*domain.EmailIndexEntry, error) {
	key := domain.NormalizeEmail(email)

	sql, args, err := postgres.Builder.
		Select("email", "person_id", "created_at").
		From("person_emails").
		Where(squirrel.Eq{"email": key}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build person_email query: %w", err)
	}

	var e domain.EmailIndexEntry
	err = postgres.QuerierFromCtx(ctx, r.pool).QueryRow(ctx, sql, args...).Scan(&e.Email, &e.PersonID, &e.CreatedAt)
	if err != nil {
		return nil, postgres.MapError(err, "person_email", key)
	}
	e.CreatedAt = e.CreatedAt.UTC()
	return &e, nil
}

// OwnerOf returns the id of the Person owning email, or "" when unowned.
func (r *Repo) OwnerOf(ctx context.Context, email string) (string, error) {
	e, err := r.Get(ctx, email)
	switch {
	case err == nil:
		return e.PersonID, nil
	case postgres.IsNotFound(err):
		return "", nil
	default:
		return "", err
	}
}

// Claim records ownerID as the owner of email.
// Returns domain.ErrEmailExists if another Person owns it.
func (r *Repo) Claim(ctx context.Context, email, ownerID string) error {
	key := domain.NormalizeEmail(email)
	if key == "" {
		return domain.ErrEmailMissing
	}

	tag, err := postgres.QuerierFromCtx(ctx, r.pool).Exec(ctx, claimSQL, key, ownerID)
	if err != nil {
		return postgres.MapError(err, "person_email", key)
	}
	return checkClaim(tag, key)
}

// Release deletes the entry for email only if ownerID still owns it.
// It is a no-op otherwise.
func (r *Repo) Release(ctx context.Context, email, ownerID string) error {
	key := domain.NormalizeEmail(email)
	if _, err := postgres.QuerierFromCtx(ctx, r.pool).Exec(ctx, releaseSQL, key, ownerID); err != nil {
		return postgres.MapError(err, "person_email", key)
	}
	return nil
}

// QueueClaim adds a claim to b. The batch fails with domain.ErrEmailExists
// when the claim is rejected.
func QueueClaim(b *pgx.Batch, email, ownerID string) {
	key := domain.NormalizeEmail(email)
	b.Queue(claimSQL, key, ownerID).Exec(func(tag pgconn.CommandTag) error {
		return checkClaim(tag, key)
	})
}

// QueueRelease adds a conditional release to b.
func QueueRelease(b *pgx.Batch, email, ownerID string) {
	b.Queue(releaseSQL, domain.NormalizeEmail(email), ownerID)
}

func checkClaim(tag pgconn.CommandTag, key string) error {
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("person_email %s: %w", key, domain.ErrEmailExists)
	}
	return nil
}
