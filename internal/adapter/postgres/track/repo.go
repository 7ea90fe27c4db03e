// Package track implements the Track repository using PostgreSQL.
// Tracks are unique per conference by domain.LabelKey(name), stored in name_key.
package track

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/heartmarshall/cfp-sync/internal/adapter/postgres"
	"github.com/heartmarshall/cfp-sync/internal/domain"
)

const upsertSQL = `
INSERT INTO tracks (id, conference_id, name, name_key, description, color, icon)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO UPDATE SET
    name        = EXCLUDED.name,
    name_key    = EXCLUDED.name_key,
    description = EXCLUDED.description,
    color       = EXCLUDED.color,
    icon        = EXCLUDED.icon`

// Repo provides track persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new track repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// ListByConference returns the tracks of conferenceID ordered by name.
func (r *Repo) ListByConference(ctx context.Context, conferenceID string) ([]*domain.Track, error) {
	q := postgres.Builder.
		Select("id", "conference_id", "name", "description", "color", "icon").
		From("tracks").
		Where(squirrel.Eq{"conference_id": conferenceID}).
		OrderBy("name", "id")

	rows, err := postgres.Select(ctx, r.pool, q)
	if err != nil {
		return nil, fmt.Errorf("list tracks by conference %s: %w", conferenceID, err)
	}
	defer rows.Close()

	tracks := []*domain.Track{}
	for rows.Next() {
		var t domain.Track
		if err := rows.Scan(&t.ID, &t.ConferenceID, &t.Name, &t.Description, &t.Color, &t.Icon); err != nil {
			return nil, fmt.Errorf("scan track: %w", err)
		}
		tracks = append(tracks, &t)
	}
	return tracks, rows.Err()
}

// Upsert inserts or replaces a track.
// Returns domain.ErrAlreadyExists if the conference already has a track with
// the same label key.
func (r *Repo) Upsert(ctx context.Context, t *domain.Track) error {
	if _, err := postgres.QuerierFromCtx(ctx, r.pool).Exec(ctx, upsertSQL, upsertArgs(t)...); err != nil {
		return postgres.MapError(err, "track", t.ID)
	}
	return nil
}

// QueueUpsert adds the track upsert to b.
func QueueUpsert(b *pgx.Batch, t *domain.Track) {
	b.Queue(upsertSQL, upsertArgs(t)...)
}

func upsertArgs(t *domain.Track) []any {
	return []any{t.ID, t.ConferenceID, t.Name, domain.LabelKey(t.Name), t.Description, t.Color, t.Icon}
}
