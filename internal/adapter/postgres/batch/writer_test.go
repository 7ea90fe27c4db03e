package batch_test

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	postgres "github.com/heartmarshall/cfp-sync/internal/adapter/postgres"
	"github.com/heartmarshall/cfp-sync/internal/adapter/postgres/batch"
	"github.com/heartmarshall/cfp-sync/internal/adapter/postgres/identity"
	"github.com/heartmarshall/cfp-sync/internal/adapter/postgres/person"
	"github.com/heartmarshall/cfp-sync/internal/adapter/postgres/testhelper"
	"github.com/heartmarshall/cfp-sync/internal/adapter/postgres/track"
	"github.com/heartmarshall/cfp-sync/internal/config"
	"github.com/heartmarshall/cfp-sync/internal/domain"
)

func newWriter(t *testing.T) (*batch.Writer, *pgxpool.Pool) {
	t.Helper()
	pool := testhelper.SetupTestDB(t)
	return batch.NewWriter(pool, postgres.NewTxManager(pool)), pool
}

func newPerson() *domain.Person {
	id := testhelper.UniqueID("person")
	now := testhelper.Now()
	return &domain.Person{ID: id, Email: id + "@example.com", FirstName: "Ada", CreatedAt: now, UpdatedAt: now}
}

func TestWriter_CommitBatch_AppliesAll(t *testing.T) {
	t.Parallel()
	w, pool := newWriter(t)
	ctx := context.Background()
	conf := testhelper.SeedConference(t, pool)

	p := newPerson()
	tr := &domain.Track{ID: testhelper.UniqueID("track"), ConferenceID: conf.ID, Name: "Cloud"}
	ops := []domain.WriteOp{
		domain.EmailClaim(p.Email, p.ID),
		domain.PersonWrite(p),
		domain.TrackWrite(tr),
	}
	require.NoError(t, w.CommitBatch(ctx, ops))

	got, err := person.New(pool).GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.Email, got.Email)

	owner, err := identity.New(pool).OwnerOf(ctx, p.Email)
	require.NoError(t, err)
	assert.Equal(t, p.ID, owner)

	tracks, err := track.New(pool).ListByConference(ctx, conf.ID)
	require.NoError(t, err)
	assert.Len(t, tracks, 1)
}

func TestWriter_CommitBatch_ConflictRollsBackChunk(t *testing.T) {
	t.Parallel()
	w, pool := newWriter(t)
	ctx := context.Background()

	owner := newPerson()
	require.NoError(t, w.CommitBatch(ctx, []domain.WriteOp{
		domain.EmailClaim(owner.Email, owner.ID),
		domain.PersonWrite(owner),
	}))

	intruder := newPerson()
	intruder.Email = owner.Email
	bystander := newPerson()
	err := w.CommitBatch(ctx, []domain.WriteOp{
		domain.EmailClaim(bystander.Email, bystander.ID),
		domain.PersonWrite(bystander),
		domain.EmailClaim(intruder.Email, intruder.ID),
		domain.PersonWrite(intruder),
	})
	require.ErrorIs(t, err, domain.ErrEmailExists)

	_, err = person.New(pool).GetByID(ctx, bystander.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound, "the whole chunk must roll back")

	got, err := identity.New(pool).OwnerOf(ctx, owner.Email)
	require.NoError(t, err)
	assert.Equal(t, owner.ID, got)
}

func TestWriter_CommitBatch_EmailChange(t *testing.T) {
	t.Parallel()
	w, pool := newWriter(t)
	ctx := context.Background()

	p := newPerson()
	oldEmail := p.Email
	require.NoError(t, w.CommitBatch(ctx, []domain.WriteOp{domain.EmailClaim(oldEmail, p.ID), domain.PersonWrite(p)}))

	p.Email = testhelper.UniqueID("renamed") + "@example.com"
	require.NoError(t, w.CommitBatch(ctx, []domain.WriteOp{
		domain.EmailRelease(oldEmail, p.ID),
		domain.EmailClaim(p.Email, p.ID),
		domain.PersonWrite(p),
	}))

	idx := identity.New(pool)
	owner, err := idx.OwnerOf(ctx, oldEmail)
	require.NoError(t, err)
	assert.Empty(t, owner)
	owner, err = idx.OwnerOf(ctx, p.Email)
	require.NoError(t, err)
	assert.Equal(t, p.ID, owner)
}

func TestWriter_CommitBatch_RejectsOversizedChunk(t *testing.T) {
	t.Parallel()
	w, _ := newWriter(t)

	ops := make([]domain.WriteOp, config.MaxStoreBatchOps+1)
	err := w.CommitBatch(context.Background(), ops)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestWriter_CommitBatch_Empty(t *testing.T) {
	t.Parallel()
	w, _ := newWriter(t)
	assert.NoError(t, w.CommitBatch(context.Background(), nil))
}
