package memory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/recollect/store"
)

func TestAddAndGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t, &fakeEmbedder{}, "alice")

	added, err := repo.Add(ctx, "alice", &AddRequest{
		Summary: "The user prefers tea over coffee.",
		Turn:    intPtr(3),
		Type:    strPtr("preference"),
	})
	require.NoError(t, err)
	require.NotEmpty(t, added.UUID)
	require.NotNil(t, added.CreatedAt)
	require.NotNil(t, added.UpdatedAt)

	got, err := repo.GetByID(ctx, "alice", added.UUID)
	require.NoError(t, err)
	assert.Equal(t, "The user prefers tea over coffee.", got.Summary)
	require.NotNil(t, got.Turn)
	assert.Equal(t, 3, *got.Turn)
	require.NotNil(t, got.Type)
	assert.Equal(t, "preference", *got.Type)
	assert.Empty(t, got.Merged)
	assert.Nil(t, got.Score)
	assert.Nil(t, got.Distance)
}

func TestAddValidation(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t, &fakeEmbedder{}, "alice")

	_, err := repo.Add(ctx, "alice", &AddRequest{Summary: "   "})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestAddUnknownTenant(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t, &fakeEmbedder{})

	_, err := repo.Add(ctx, "nobody", &AddRequest{Summary: "anything"})
	assert.ErrorIs(t, err, store.ErrTenantNotFound)
}

func TestTenantIsolation(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t, &fakeEmbedder{}, "alice", "bob")

	aliceRec, err := repo.Add(ctx, "alice", &AddRequest{Summary: "alice likes hiking"})
	require.NoError(t, err)
	_, err = repo.Add(ctx, "bob", &AddRequest{Summary: "bob likes chess"})
	require.NoError(t, err)

	alicePage, err := repo.List(ctx, "alice", 10)
	require.NoError(t, err)
	require.Equal(t, 1, alicePage.Total)
	assert.Equal(t, "alice likes hiking", alicePage.Data[0].Summary)

	bobPage, err := repo.List(ctx, "bob", 10)
	require.NoError(t, err)
	require.Equal(t, 1, bobPage.Total)
	assert.Equal(t, "bob likes chess", bobPage.Data[0].Summary)

	_, err = repo.GetByID(ctx, "bob", aliceRec.UUID)
	assert.ErrorIs(t, err, store.ErrSummaryNotFound)
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t, &fakeEmbedder{}, "alice")

	added, err := repo.Add(ctx, "alice", &AddRequest{Summary: "old text", Turn: intPtr(1)})
	require.NoError(t, err)

	updated, err := repo.Update(ctx, "alice", added.UUID, &UpdateRequest{
		Summary: "new text",
		Turn:    intPtr(2),
	})
	require.NoError(t, err)
	assert.Equal(t, "new text", updated.Summary)
	require.NotNil(t, updated.Turn)
	assert.Equal(t, 2, *updated.Turn)

	_, err = repo.Update(ctx, "alice", uuid.NewString(), &UpdateRequest{Summary: "x"})
	assert.ErrorIs(t, err, store.ErrSummaryNotFound)

	_, err = repo.Update(ctx, "alice", "not-a-uuid", &UpdateRequest{Summary: "x"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestDeleteMany(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t, &fakeEmbedder{}, "alice")

	var ids []string
	for _, text := range []string{"one", "two", "three"} {
		rec, err := repo.Add(ctx, "alice", &AddRequest{Summary: text})
		require.NoError(t, err)
		ids = append(ids, rec.UUID)
	}

	// Absent ids are skipped without error, so retiring the same batch
	// twice is harmless.
	batch := []string{ids[0], ids[1], uuid.NewString()}
	require.NoError(t, repo.DeleteMany(ctx, "alice", batch))
	require.NoError(t, repo.DeleteMany(ctx, "alice", batch))

	page, err := repo.List(ctx, "alice", 10)
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)
	assert.Equal(t, ids[2], page.Data[0].UUID)

	err = repo.DeleteMany(ctx, "alice", []string{"garbage"})
	assert.ErrorIs(t, err, ErrValidation)

	err = repo.DeleteMany(ctx, "alice", nil)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestListOffsetPagination(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t, &fakeEmbedder{}, "alice")

	for _, text := range []string{"a", "b", "c", "d", "e"} {
		_, err := repo.Add(ctx, "alice", &AddRequest{Summary: text})
		require.NoError(t, err)
	}

	seen := map[string]bool{}
	for page := 1; page <= 3; page++ {
		result, err := repo.ListOffset(ctx, "alice", page, 2)
		require.NoError(t, err)
		assert.Equal(t, 5, result.Total)
		for _, record := range result.Data {
			assert.False(t, seen[record.UUID], "record %s repeated across pages", record.UUID)
			seen[record.UUID] = true
		}
	}
	assert.Len(t, seen, 5)

	result, err := repo.ListOffset(ctx, "alice", 4, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, result.Total)
	assert.Empty(t, result.Data)

	_, err = repo.ListOffset(ctx, "alice", 0, 2)
	assert.ErrorIs(t, err, ErrValidation)
	_, err = repo.ListOffset(ctx, "alice", 1, 0)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestListCursorWalk(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t, &fakeEmbedder{}, "alice")

	for _, text := range []string{"a", "b", "c", "d", "e"} {
		_, err := repo.Add(ctx, "alice", &AddRequest{Summary: text})
		require.NoError(t, err)
	}

	var collected []string
	cursor := ""
	for {
		page, err := repo.ListCursor(ctx, "alice", cursor, 2)
		require.NoError(t, err)
		assert.Equal(t, 5, page.Total)
		if len(page.Data) == 0 {
			break
		}
		for _, record := range page.Data {
			collected = append(collected, record.UUID)
		}
		cursor = page.Data[len(page.Data)-1].UUID
	}

	require.Len(t, collected, 5)
	for i := 1; i < len(collected); i++ {
		assert.Less(t, collected[i-1], collected[i], "cursor order must be id ascending")
	}

	_, err := repo.ListCursor(ctx, "alice", "not-a-uuid", 2)
	assert.ErrorIs(t, err, ErrValidation)
}
