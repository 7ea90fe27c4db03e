// Package session implements the Session repository using PostgreSQL.
// The conference sub-record is stored as JSONB with its identifying fields
// (conference_id, external_id, status) denormalized into columns.
package session

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
	"id", "title", "abstract", "refs", "session_type", "speaker_ids",
	"search", "conference", "schedule", "last_change_date",
}

// The schedule column is organizer-owned: upserts never overwrite it.
const upsertSQL = `
INSERT INTO sessions (id, conference_id, external_id, status, title, abstract, refs, session_type,
                      speaker_ids, search, conference, schedule, last_change_date)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
ON CONFLICT (id) DO UPDATE SET
    conference_id    = EXCLUDED.conference_id,
    external_id      = EXCLUDED.external_id,
    status           = EXCLUDED.status,
    title            = EXCLUDED.title,
    abstract         = EXCLUDED.abstract,
    refs             = EXCLUDED.refs,
    session_type     = EXCLUDED.session_type,
    speaker_ids      = EXCLUDED.speaker_ids,
    search           = EXCLUDED.search,
    conference       = EXCLUDED.conference,
    last_change_date = EXCLUDED.last_change_date`

// Repo provides session persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new session repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// GetByID returns a session by primary key.
// Returns domain.ErrNotFound if the session does not exist.
func (r *Repo) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	sessions, err := r.query(ctx, postgres.Builder.Select(columns...).From("sessions").Where(squirrel.Eq{"id": id}))
	if err != nil {
		return nil, postgres.MapError(err, "session", id)
	}
	if len(sessions) == 0 {
		return nil, postgres.MapError(pgx.ErrNoRows, "session", id)
	}
	return sessions[0], nil
}

// ListByConference returns every session of conferenceID.
// Returns an empty slice (not nil) when there are none.
func (r *Repo) ListByConference(ctx context.Context, conferenceID string) ([]*domain.Session, error) {
	q := postgres.Builder.Select(columns...).
		From("sessions").
		Where(squirrel.Eq{"conference_id": conferenceID}).
		OrderBy("id")

	sessions, err := r.query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list sessions by conference %s: %w", conferenceID, err)
	}
	return sessions, nil
}

// Upsert inserts or replaces the importer-owned columns of the session.
// Returns domain.ErrAlreadyExists if another session already holds the
// same (conference, external id) pair.
func (r *Repo) Upsert(ctx context.Context, s *domain.Session) error {
	args, err := upsertArgs(s)
	if err != nil {
		return err
	}
	if _, err := postgres.QuerierFromCtx(ctx, r.pool).Exec(ctx, upsertSQL, args...); err != nil {
		return postgres.MapError(err, "session", s.ID)
	}
	return nil
}

// QueueUpsert adds the session upsert to b.
func QueueUpsert(b *pgx.Batch, s *domain.Session) error {
	args, err := upsertArgs(s)
	if err != nil {
		return err
	}
	b.Queue(upsertSQL, args...)
	return nil
}

func upsertArgs(s *domain.Session) ([]any, error) {
	conf, err := json.Marshal(s.Conference)
	if err != nil {
		return nil, fmt.Errorf("session %s marshal conference: %w", s.ID, err)
	}
	var schedule []byte
	if s.Schedule != nil {
		if schedule, err = json.Marshal(s.Schedule); err != nil {
			return nil, fmt.Errorf("session %s marshal schedule: %w", s.ID, err)
		}
	}
	return []any{
		s.ID, s.Conference.ConferenceID, s.Conference.ExternalID, string(s.Conference.Status),
		s.Title, s.Abstract, s.References, s.SessionType,
		s.Speakers.IDs(), s.Search, conf, schedule, s.LastChangeDate,
	}, nil
}

func (r *Repo) query(ctx context.Context, q squirrel.SelectBuilder) ([]*domain.Session, error) {
	rows, err := postgres.Select(ctx, r.pool, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := []*domain.Session{}
	for rows.Next() {
		var (
			s              domain.Session
			speakerIDs     []string
			conf, schedule []byte
		)
		if err := rows.Scan(
			&s.ID, &s.Title, &s.Abstract, &s.References, &s.SessionType, &speakerIDs,
			&s.Search, &conf, &schedule, &s.LastChangeDate,
		); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(conf, &s.Conference); err != nil {
			return nil, fmt.Errorf("session %s unmarshal conference: %w", s.ID, err)
		}
		if schedule != nil {
			s.Schedule = &domain.SessionSchedule{}
			if err := json.Unmarshal(schedule, s.Schedule); err != nil {
				return nil, fmt.Errorf("session %s unmarshal schedule: %w", s.ID, err)
			}
		}
		s.Speakers, _ = domain.FillSpeakerSlots(speakerIDs)
		s.LastChangeDate = s.LastChangeDate.UTC()
		sessions = append(sessions, &s)
	}
	return sessions, rows.Err()
}
