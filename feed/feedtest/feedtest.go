// Package feedtest holds the behaviour every feed.Store implementation must share.
package feedtest

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ByLCY/memecanvas/feed"
)

// RunStoreTests exercises a fresh store returned by newStore for each subtest.
func RunStoreTests(t *testing.T, newStore func(t *testing.T) feed.Store) {
	ctx := context.Background()

	t.Run("CreateGetList", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.CreateMeme(ctx, &feed.Meme{ID: "m1", ImageURL: "u1", CreatedAt: 10, UserID: "alice"}))
		require.NoError(t, s.CreateMeme(ctx, &feed.Meme{ID: "m2", ImageURL: "u2", CreatedAt: 20, UserID: "bob"}))

		m, err := s.GetMeme(ctx, "m2")
		require.NoError(t, err)
		assert.Equal(t, "bob", m.UserID)
		assert.Equal(t, int64(20), m.CreatedAt)

		list, err := s.ListMemes(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "m1", list[0].ID)

		_, err = s.GetMeme(ctx, "missing")
		assert.ErrorIs(t, err, feed.ErrNotFound)
	})

	t.Run("DuplicateMemeRejected", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.CreateMeme(ctx, &feed.Meme{ID: "m1", UserID: "alice"}))
		assert.Error(t, s.CreateMeme(ctx, &feed.Meme{ID: "m1", UserID: "alice"}))
	})

	t.Run("UpvoteOnce", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.CreateMeme(ctx, &feed.Meme{ID: "m1", UserID: "alice"}))

		ok, err := s.HasUpvoted(ctx, "m1", "bob")
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, s.Upvote(ctx, &feed.Upvote{ID: "v1", MemeID: "m1", UserID: "bob"}))
		err = s.Upvote(ctx, &feed.Upvote{ID: "v2", MemeID: "m1", UserID: "bob"})
		assert.ErrorIs(t, err, feed.ErrAlreadyUpvoted)

		ok, err = s.HasUpvoted(ctx, "m1", "bob")
		require.NoError(t, err)
		assert.True(t, ok)

		m, err := s.GetMeme(ctx, "m1")
		require.NoError(t, err)
		assert.Equal(t, 1, m.UpvoteCount)

		err = s.Upvote(ctx, &feed.Upvote{ID: "v3", MemeID: "nope", UserID: "bob"})
		assert.ErrorIs(t, err, feed.ErrNotFound)
	})

	t.Run("ConcurrentUpvotesCountOnce", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.CreateMeme(ctx, &feed.Meme{ID: "m1", UserID: "alice"}))

		var wg sync.WaitGroup
		ids := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
		for _, id := range ids {
			wg.Add(1)
			go func(id string) {
				defer wg.Done()
				_ = s.Upvote(ctx, &feed.Upvote{ID: "v-" + id, MemeID: "m1", UserID: "carol"})
			}(id)
		}
		wg.Wait()

		m, err := s.GetMeme(ctx, "m1")
		require.NoError(t, err)
		assert.Equal(t, 1, m.UpvoteCount)
	})
}
