package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUninitializedStore(t *testing.T) {
	ctx := context.Background()

	var nilStore *Store
	assert.ErrorIs(t, nilStore.Ping(ctx), ErrNotInitialized)

	s := New(nil)
	assert.ErrorIs(t, s.Ping(ctx), ErrNotInitialized)
	assert.ErrorIs(t, s.Migrate(ctx), ErrNotInitialized)
	assert.ErrorIs(t, s.CreateTenant(ctx, "alice"), ErrNotInitialized)

	_, err := s.ListTenants(ctx)
	assert.ErrorIs(t, err, ErrNotInitialized)
	_, err = s.InsertSummary(ctx, &Summary{})
	assert.ErrorIs(t, err, ErrNotInitialized)
	_, err = s.SearchKeyword(ctx, "alice", "q", 10)
	assert.ErrorIs(t, err, ErrNotInitialized)
}
