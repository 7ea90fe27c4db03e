// Package batch commits staged import mutations as one atomic unit.
package batch

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/heartmarshall/cfp-sync/internal/adapter/postgres"
	"github.com/heartmarshall/cfp-sync/internal/adapter/postgres/identity"
	"github.com/heartmarshall/cfp-sync/internal/adapter/postgres/person"
	"github.com/heartmarshall/cfp-sync/internal/adapter/postgres/session"
	"github.com/heartmarshall/cfp-sync/internal/adapter/postgres/track"
	"github.com/heartmarshall/cfp-sync/internal/config"
	"github.com/heartmarshall/cfp-sync/internal/domain"
)

// Writer sends a chunk of write operations as a single pgx.Batch inside one
// transaction: either every operation of the chunk is applied or none is.
type Writer struct {
	pool *pgxpool.Pool
	tx   *postgres.TxManager
}

// NewWriter creates a Writer.
func NewWriter(pool *pgxpool.Pool, tx *postgres.TxManager) *Writer {
	return &Writer{pool: pool, tx: tx}
}

// CommitBatch applies ops in order. An identity claim rejected for a
// different owner fails the whole batch with domain.ErrEmailExists.
func (w *Writer) CommitBatch(ctx context.Context, ops []domain.WriteOp) error {
	if len(ops) == 0 {
		return nil
	}
	if len(ops) > config.MaxStoreBatchOps {
		return fmt.Errorf("batch of %d ops exceeds store limit %d: %w", len(ops), config.MaxStoreBatchOps, domain.ErrValidation)
	}

	b := &pgx.Batch{}
	for i, op := range ops {
		if err := queue(b, op); err != nil {
			return fmt.Errorf("queue op %d (%s): %w", i, op.Kind, err)
		}
	}

	return w.tx.RunInTx(ctx, func(ctx context.Context) error {
		results := postgres.QuerierFromCtx(ctx, w.pool).SendBatch(ctx, b)
		if err := results.Close(); err != nil {
			return postgres.MapError(err, "batch", fmt.Sprintf("(%d ops)", len(ops)))
		}
		return nil
	})
}

func queue(b *pgx.Batch, op domain.WriteOp) error {
	switch op.Kind {
	case domain.WritePerson:
		return person.QueueUpsert(b, op.Person)
	case domain.WriteSession:
		return session.QueueUpsert(b, op.Session)
	case domain.WriteTrack:
		track.QueueUpsert(b, op.Track)
		return nil
	case domain.WriteEmailClaim:
		identity.QueueClaim(b, op.Email, op.OwnerID)
		return nil
	case domain.WriteEmailRelease:
		identity.QueueRelease(b, op.Email, op.OwnerID)
		return nil
	default:
		return fmt.Errorf("unknown write kind %q: %w", op.Kind, domain.ErrValidation)
	}
}
