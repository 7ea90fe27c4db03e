// Package person implements the Person repository using PostgreSQL.
// The speaker sub-record is stored as JSONB and queried by conference
// membership and external id.
package person

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/heartmarshall/cfp-sync/internal/adapter/postgres"
	"github.com/heartmarshall/cfp-sync/internal/domain"
)

var columns = []string{
	"id", "email", "first_name", "last_name",
	"has_account", "is_platform_admin", "is_speaker",
	"preferred_language", "search", "speaker", "created_at", "updated_at",
}

const upsertSQL = `
INSERT INTO persons (id, email, first_name, last_name, has_account, is_platform_admin, is_speaker,
                     preferred_language, search, speaker, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
ON CONFLICT (id) DO UPDATE SET
    email              = EXCLUDED.email,
    first_name         = EXCLUDED.first_name,
    last_name          = EXCLUDED.last_name,
    has_account        = EXCLUDED.has_account,
    is_platform_admin  = EXCLUDED.is_platform_admin,
    is_speaker         = EXCLUDED.is_speaker,
    preferred_language = EXCLUDED.preferred_language,
    search             = EXCLUDED.search,
    speaker            = EXCLUDED.speaker,
    updated_at         = EXCLUDED.updated_at`

// Repo provides person persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new person repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

// GetByID returns a person by primary key.
// Returns domain.ErrNotFound if the person does not exist.
func (r *Repo) GetByID(ctx context.Context, id string) (*domain.Person, error) {
	people, err := r.query(ctx, postgres.Builder.Select(columns...).From("persons").Where(squirrel.Eq{"id": id}))
	if err != nil {
		return nil, postgres.MapError(err, "person", id)
	}
	if len(people) == 0 {
		return nil, postgres.MapError(pgx.ErrNoRows, "person", id)
	}
	return people[0], nil
}

// GetByIDs returns the persons with the given ids keyed by id.
// Missing ids are absent from the map.
func (r *Repo) GetByIDs(ctx context.Context, ids []string) (map[string]*domain.Person, error) {
	out := make(map[string]*domain.Person, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	people, err := r.query(ctx, postgres.Builder.Select(columns...).From("persons").Where(squirrel.Eq{"id": ids}))
	if err != nil {
		return nil, fmt.Errorf("get persons by ids: %w", err)
	}
	for _, p := range people {
		out[p.ID] = p
	}
	return out, nil
}

// ListByConference returns the speakers who submitted to conferenceID.
// Returns an empty slice (not nil) when there are none.
func (r *Repo) ListByConference(ctx context.Context, conferenceID string) ([]*domain.Person, error) {
	q := postgres.Builder.Select(columns...).
		From("persons").
		Where("speaker -> 'conferenceIds' @> jsonb_build_array(?::text)", conferenceID).
		OrderBy("id")

	people, err := r.query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list persons by conference %s: %w", conferenceID, err)
	}
	return people, nil
}

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

// Upsert inserts or replaces the person row. It does not touch the identity
// index; callers claim the email in the same transaction.
func (r *Repo) Upsert(ctx context.Context, p *domain.Person) error {
	args, err := upsertArgs(p)
	if err != nil {
		return err
	}
	if _, err := postgres.QuerierFromCtx(ctx, r.pool).Exec(ctx, upsertSQL, args...); err != nil {
		return postgres.MapError(err, "person", p.ID)
	}
	return nil
}

// QueueUpsert adds the person upsert to b.
func QueueUpsert(b *pgx.Batch, p *domain.Person) error {
	args, err := upsertArgs(p)
	if err != nil {
		return err
	}
	b.Queue(upsertSQL, args...)
	return nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func upsertArgs(p *domain.Person) ([]any, error) {
	var speaker []byte
	if p.Speaker != nil {
		var err error
		if speaker, err = json.Marshal(p.Speaker); err != nil {
			return nil, fmt.Errorf("person %s marshal speaker: %w", p.ID, err)
		}
	}
	return []any{
		p.ID, domain.NormalizeEmail(p.Email), p.FirstName, p.LastName,
		p.HasAccount, p.IsPlatformAdmin, p.IsSpeaker,
		p.PreferredLanguage, p.Search, speaker, p.CreatedAt, p.UpdatedAt,
	}, nil
}

func (r *Repo) query(ctx context.Context, q squirrel.SelectBuilder) ([]*domain.Person, error) {
	rows, err := postgres.Select(ctx, r.pool, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	people := []*domain.Person{}
	for rows.Next() {
		var (
			p       domain.Person
			speaker []byte
		)
		if err := rows.Scan(
			&p.ID, &p.Email, &p.FirstName, &p.LastName,
			&p.HasAccount, &p.IsPlatformAdmin, &p.IsSpeaker,
			&p.PreferredLanguage, &p.Search, &speaker, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, err
		}
		if speaker != nil {
			p.Speaker = &domain.SpeakerProfile{}
			if err := json.Unmarshal(speaker, p.Speaker); err != nil {
				return nil, fmt.Errorf("person %s unmarshal speaker: %w", p.ID, err)
			}
		}
		p.CreatedAt = p.CreatedAt.UTC()
		p.UpdatedAt = p.UpdatedAt.UTC()
		people = append(people, &p)
	}
	return people, rows.Err()
}
