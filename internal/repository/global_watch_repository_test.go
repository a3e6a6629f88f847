package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGlobalWatchRepoMarkWatched(t *testing.T) {
	db := newTestDB(t)
	shows := NewShowRepo(db)
	ledger := NewGlobalWatchRepo(db)
	ctx := context.Background()

	s, err := shows.Create(ctx, "Mad Men")
	require.NoError(t, err)

	w, err := ledger.MarkWatched(ctx, "ray", s.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, w.Rating)

	t.Run("all three fields set together", func(t *testing.T) {
		got, err := shows.GetByID(ctx, s.ID)
		require.NoError(t, err)
		assert.True(t, got.Watched)
		require.NotNil(t, got.Rating)
		assert.Equal(t, 4, *got.Rating)
		assert.NotNil(t, got.WatchedAt)
	})

	t.Run("state is shared across identities", func(t *testing.T) {
		st, err := ledger.StatusFor(ctx, "dana", s.ID)
		require.NoError(t, err)
		require.NotNil(t, st)
		assert.Equal(t, 4, st.Rating)
	})

	t.Run("re-watch with identical rating still succeeds", func(t *testing.T) {
		_, err := ledger.MarkWatched(ctx, "ray", s.ID, 4)
		assert.NoError(t, err)
	})

	t.Run("rating bounds", func(t *testing.T) {
		for _, rating := range []int{0, 6, -1} {
			_, err := ledger.MarkWatched(ctx, "ray", s.ID, rating)
			assert.ErrorIs(t, err, ErrInvalidRating, "rating %d", rating)
		}
	})

	t.Run("missing show", func(t *testing.T) {
		_, err := ledger.MarkWatched(ctx, "ray", 9999, 3)
		assert.ErrorIs(t, err, ErrShowNotFound)
	})
}

func TestGlobalWatchRepoMarkUnwatched(t *testing.T) {
	db := newTestDB(t)
	shows := NewShowRepo(db)
	ledger := NewGlobalWatchRepo(db)
	ctx := context.Background()

	s, err := shows.Create(ctx, "The Sopranos")
	require.NoError(t, err)
	_, err = ledger.MarkWatched(ctx, "ray", s.ID, 5)
	require.NoError(t, err)

	require.NoError(t, ledger.MarkUnwatched(ctx, "dana", s.ID))

	t.Run("all three fields cleared together", func(t *testing.T) {
		got, err := shows.GetByID(ctx, s.ID)
		require.NoError(t, err)
		assert.False(t, got.Watched)
		assert.Nil(t, got.Rating)
		assert.Nil(t, got.WatchedAt)
	})

	t.Run("double unwatch fails", func(t *testing.T) {
		err := ledger.MarkUnwatched(ctx, "ray", s.ID)
		assert.ErrorIs(t, err, ErrNotWatched)
	})

	t.Run("missing show", func(t *testing.T) {
		err := ledger.MarkUnwatched(ctx, "ray", 9999)
		assert.ErrorIs(t, err, ErrShowNotFound)
	})
}

func TestGlobalWatchRepoListings(t *testing.T) {
	db := newTestDB(t)
	shows := NewShowRepo(db)
	ledger := NewGlobalWatchRepo(db)
	ctx := context.Background()

	a, err := shows.Create(ctx, "A")
	require.NoError(t, err)
	b, err := shows.Create(ctx, "B")
	require.NoError(t, err)
	_, err = ledger.MarkWatched(ctx, "ray", a.ID, 2)
	require.NoError(t, err)

	watched, err := ledger.WatchedBy(ctx, "anyone")
	require.NoError(t, err)
	require.Len(t, watched, 1)
	assert.Equal(t, a.ID, watched[0].Show.ID)
	assert.Equal(t, 2, watched[0].Rating)

	unwatched, err := ledger.UnwatchedBy(ctx, "anyone")
	require.NoError(t, err)
	require.Len(t, unwatched, 1)
	assert.Equal(t, b.ID, unwatched[0].ID)

	statuses, err := ledger.StatusesFor(ctx, "anyone")
	require.NoError(t, err)
	require.Len(t, statuses, 1)
	assert.Equal(t, 2, statuses[a.ID].Rating)
}
