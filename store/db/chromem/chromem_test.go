package chromem

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/recollect/store"
)

func TestTenantLifecycle(t *testing.T) {
	ctx := context.Background()
	d := NewDB()

	require.NoError(t, d.CreateTenant(ctx, "alice"))
	assert.ErrorIs(t, d.CreateTenant(ctx, "alice"), store.ErrTenantExists)

	tenants, err := d.ListTenants(ctx)
	require.NoError(t, err)
	require.Contains(t, tenants, "alice")
	assert.Equal(t, 0, tenants["alice"].DataCount)
	assert.Equal(t, "ACTIVE", tenants["alice"].ActivityStatus)

	_, err = d.InsertSummary(ctx, &store.Summary{
		Tenant:    "alice",
		Summary:   "something",
		Embedding: []float32{1, 0, 0, 0},
	})
	require.NoError(t, err)

	tenants, err = d.ListTenants(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, tenants["alice"].DataCount)

	require.NoError(t, d.RemoveTenant(ctx, "alice"))
	assert.ErrorIs(t, d.RemoveTenant(ctx, "alice"), store.ErrTenantNotFound)
}

func TestInsertIntoMissingTenant(t *testing.T) {
	ctx := context.Background()
	d := NewDB()

	_, err := d.InsertSummary(ctx, &store.Summary{
		Tenant:    "nobody",
		Summary:   "something",
		Embedding: []float32{1, 0, 0, 0},
	})
	assert.ErrorIs(t, err, store.ErrTenantNotFound)
}

func TestDeleteSummariesSkipsAbsent(t *testing.T) {
	ctx := context.Background()
	d := NewDB()
	require.NoError(t, d.CreateTenant(ctx, "alice"))

	id, err := d.InsertSummary(ctx, &store.Summary{
		Tenant:    "alice",
		Summary:   "keep or drop",
		Embedding: []float32{1, 0, 0, 0},
	})
	require.NoError(t, err)

	batch := []string{id, uuid.NewString()}
	require.NoError(t, d.DeleteSummaries(ctx, "alice", batch))
	require.NoError(t, d.DeleteSummaries(ctx, "alice", batch))

	count, err := d.CountSummaries(ctx, "alice")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestListOrdering(t *testing.T) {
	ctx := context.Background()
	d := NewDB()
	require.NoError(t, d.CreateTenant(ctx, "alice"))

	for _, text := range []string{"first", "second", "third"} {
		_, err := d.InsertSummary(ctx, &store.Summary{
			Tenant:    "alice",
			Summary:   text,
			Embedding: []float32{1, 0, 0, 0},
		})
		require.NoError(t, err)
	}

	byID, err := d.ListSummaries(ctx, &store.FindSummary{Tenant: "alice", ByID: true})
	require.NoError(t, err)
	require.Len(t, byID, 3)
	for i := 1; i < len(byID); i++ {
		assert.Less(t, byID[i-1].ID, byID[i].ID)
	}

	after, err := d.ListSummaries(ctx, &store.FindSummary{
		Tenant:  "alice",
		ByID:    true,
		AfterID: byID[0].ID,
	})
	require.NoError(t, err)
	require.Len(t, after, 2)
	assert.Equal(t, byID[1].ID, after[0].ID)
}

func TestSearchVectorStrictThreshold(t *testing.T) {
	ctx := context.Background()
	d := NewDB()
	require.NoError(t, d.CreateTenant(ctx, "alice"))

	_, err := d.InsertSummary(ctx, &store.Summary{
		Tenant:    "alice",
		Summary:   "orthogonal",
		Embedding: []float32{0, 1, 0, 0},
	})
	require.NoError(t, err)

	// Distance is exactly 1.0; the threshold is exclusive.
	hits, err := d.SearchVector(ctx, "alice", []float32{1, 0, 0, 0}, 1.0, 10)
	require.NoError(t, err)
	assert.Empty(t, hits)

	hits, err = d.SearchVector(ctx, "alice", []float32{1, 0, 0, 0}, 1.001, 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.NotNil(t, hits[0].Distance)
	assert.InDelta(t, 1.0, *hits[0].Distance, 1e-6)
}
