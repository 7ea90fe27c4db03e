// Package conference reads conference configuration: languages, session
// types, format mappings and submission platform credentials.
package conference

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

var columns = []string{"id", "name", "languages", "session_types", "format_mappings", "cfp_event_id", "cfp_api_key"}

// Repo provides conference reads backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new conference repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// GetByID returns a conference by primary key.
// Returns domain.ErrNotFound if the conference does not exist.
func (r *Repo) GetByID(ctx context.Context, id string) (*domain.Conference, error) {
	confs, err := r.query(ctx, postgres.Builder.Select(columns...).From("conferences").Where(squirrel.Eq{"id": id}))
	if err != nil {
		return nil, postgres.MapError(err, "conference", id)
	}
	if len(confs) == 0 {
		return nil, postgres.MapError(pgx.ErrNoRows, "conference", id)
	}
	return confs[0], nil
}

// ListImportable returns the conferences with complete CFP credentials.
func (r *Repo) ListImportable(ctx context.Context) ([]*domain.Conference, error) {
	q := postgres.Builder.Select(columns...).
		From("conferences").
		Where(squirrel.And{
			squirrel.NotEq{"cfp_event_id": ""},
			squirrel.NotEq{"cfp_api_key": ""},
		}).
		OrderBy("id")

	confs, err := r.query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list importable conferences: %w", err)
	}
	return confs, nil
}

func (r *Repo) query(ctx context.Context, q squirrel.SelectBuilder) ([]*domain.Conference, error) {
	rows, err := postgres.Select(ctx, r.pool, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	confs := []*domain.Conference{}
	for rows.Next() {
		var (
			c               domain.Conference
			types, mappings []byte
		)
		if err := rows.Scan(&c.ID, &c.Name, &c.Languages, &types, &mappings, &c.CFP.EventID, &c.CFP.APIKey); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(types, &c.SessionTypes); err != nil {
			return nil, fmt.Errorf("conference %s unmarshal session types: %w", c.ID, err)
		}
		if err := json.Unmarshal(mappings, &c.FormatMappings); err != nil {
			return nil, fmt.Errorf("conference %s unmarshal format mappings: %w", c.ID, err)
		}
		confs = append(confs, &c)
	}
	return confs, rows.Err()
}
