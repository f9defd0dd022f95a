package store

import (
	"context"
	"sync"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runStoreSuite exercises the Store contract against any implementation.
func runStoreSuite(t *testing.T, newStore func(t *testing.T) Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("add and find by email", func(t *testing.T) {
		s := newStore(t)

		ident, err := s.Add(ctx, "a@x.com", "hash-1")
		require.NoError(t, err)
		assert.Equal(t, "a@x.com", ident.Email)
		assert.Equal(t, "hash-1", ident.PasswordHash)
		assert.False(t, ident.HasSession())
		assert.False(t, ident.HasPendingReset())

		found, err := s.FindByEmail(ctx, "a@x.com")
		require.NoError(t, err)
		assert.Equal(t, ident.ID, found.ID)

		byID, err := s.FindByID(ctx, ident.ID)
		require.NoError(t, err)
		assert.Equal(t, "a@x.com", byID.Email)
	})

	t.Run("duplicate email rejected, original untouched", func(t *testing.T) {
		s := newStore(t)

		first, err := s.Add(ctx, "a@x.com", "hash-1")
		require.NoError(t, err)

		_, err = s.Add(ctx, "a@x.com", "hash-2")
		assert.ErrorIs(t, err, ErrDuplicateEmail)

		found, err := s.FindByEmail(ctx, "a@x.com")
		require.NoError(t, err)
		assert.Equal(t, first.ID, found.ID)
		assert.Equal(t, "hash-1", found.PasswordHash)
	})

	t.Run("unknown lookups are not found", func(t *testing.T) {
		s := newStore(t)

		_, err := s.FindByEmail(ctx, "nobody@x.com")
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = s.FindByID(ctx, ulid.Make())
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = s.FindBySessionHash(ctx, "deadbeef")
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = s.FindByResetHash(ctx, "deadbeef")
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = s.FindBySessionHash(ctx, "")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("session token set, move, clear", func(t *testing.T) {
		s := newStore(t)

		ident, err := s.Add(ctx, "a@x.com", "hash-1")
		require.NoError(t, err)

		require.NoError(t, s.Update(ctx, ident.ID, Fields{SessionHash: Set("sess-1")}))
		found, err := s.FindBySessionHash(ctx, "sess-1")
		require.NoError(t, err)
		assert.Equal(t, ident.ID, found.ID)

		// Overwriting invalidates the previous token.
		require.NoError(t, s.Update(ctx, ident.ID, Fields{SessionHash: Set("sess-2")}))
		_, err = s.FindBySessionHash(ctx, "sess-1")
		assert.ErrorIs(t, err, ErrNotFound)
		found, err = s.FindBySessionHash(ctx, "sess-2")
		require.NoError(t, err)
		assert.Equal(t, ident.ID, found.ID)

		require.NoError(t, s.Update(ctx, ident.ID, Fields{SessionHash: Clear()}))
		_, err = s.FindBySessionHash(ctx, "sess-2")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("partial update leaves other fields alone", func(t *testing.T) {
		s := newStore(t)

		ident, err := s.Add(ctx, "a@x.com", "hash-1")
		require.NoError(t, err)
		require.NoError(t, s.Update(ctx, ident.ID, Fields{
			SessionHash: Set("sess-1"),
			ResetHash:   Set("reset-1"),
		}))

		require.NoError(t, s.Update(ctx, ident.ID, Fields{PasswordHash: Set("hash-2")}))

		found, err := s.FindByID(ctx, ident.ID)
		require.NoError(t, err)
		assert.Equal(t, "hash-2", found.PasswordHash)
		assert.Equal(t, "sess-1", found.SessionHash)
		assert.Equal(t, "reset-1", found.ResetHash)
	})

	t.Run("reset consumed in one update", func(t *testing.T) {
		s := newStore(t)

		ident, err := s.Add(ctx, "a@x.com", "hash-1")
		require.NoError(t, err)
		require.NoError(t, s.Update(ctx, ident.ID, Fields{ResetHash: Set("reset-1")}))

		require.NoError(t, s.Update(ctx, ident.ID, Fields{
			PasswordHash: Set("hash-2"),
			ResetHash:    Clear(),
		}))

		_, err = s.FindByResetHash(ctx, "reset-1")
		assert.ErrorIs(t, err, ErrNotFound)
		found, err := s.FindByID(ctx, ident.ID)
		require.NoError(t, err)
		assert.Equal(t, "hash-2", found.PasswordHash)
	})

	t.Run("update unknown identity", func(t *testing.T) {
		s := newStore(t)
		err := s.Update(ctx, ulid.Make(), Fields{SessionHash: Set("sess-1")})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("concurrent add single winner", func(t *testing.T) {
		s := newStore(t)

		const callers = 16
		var wg sync.WaitGroup
		errs := make([]error, callers)

		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = s.Add(ctx, "race@x.com", "hash-1")
			}(i)
		}
		wg.Wait()

		var wins, dups int
		for _, err := range errs {
			switch {
			case err == nil:
				wins++
			default:
				assert.ErrorIs(t, err, ErrDuplicateEmail)
				dups++
			}
		}
		assert.Equal(t, 1, wins)
		assert.Equal(t, callers-1, dups)
	})
}
