// Package storetest holds the behavior every secrets.AccountStore must share.
// Backends call Run from their own tests.
package storetest

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panyam/secrets"
)

// Factory returns an empty store. Cleanup is registered on t.
type Factory func(t *testing.T) secrets.AccountStore

func Run(t *testing.T, newStore Factory) {
	ctx := context.Background()

	t.Run("CreateAndGet", func(t *testing.T) {
		store := newStore(t)
		created, err := store.CreateAccount(ctx, &secrets.Account{Username: "alice", PasswordHash: "hash"})
		require.NoError(t, err)
		assert.NotEmpty(t, created.ID)
		assert.False(t, created.CreatedAt.IsZero())

		byID, err := store.GetAccountByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "alice", byID.Username)
		assert.Equal(t, "hash", byID.PasswordHash)
		assert.Empty(t, byID.Secret)

		byName, err := store.GetAccountByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, created.ID, byName.ID)
	})

	t.Run("NotFound", func(t *testing.T) {
		store := newStore(t)
		_, err := store.GetAccountByID(ctx, "00000000-0000-0000-0000-000000000000")
		assert.ErrorIs(t, err, secrets.ErrAccountNotFound)
		_, err = store.GetAccountByUsername(ctx, "nobody")
		assert.ErrorIs(t, err, secrets.ErrAccountNotFound)
		err = store.SetSecret(ctx, "00000000-0000-0000-0000-000000000000", "x")
		assert.ErrorIs(t, err, secrets.ErrAccountNotFound)
	})

	t.Run("UsernameUnique", func(t *testing.T) {
		store := newStore(t)
		_, err := store.CreateAccount(ctx, &secrets.Account{Username: "alice", PasswordHash: "h1"})
		require.NoError(t, err)
		_, err = store.CreateAccount(ctx, &secrets.Account{Username: "alice", PasswordHash: "h2"})
		assert.ErrorIs(t, err, secrets.ErrUsernameTaken)

		// usernames are case sensitive
		_, err = store.CreateAccount(ctx, &secrets.Account{Username: "Alice", PasswordHash: "h3"})
		assert.NoError(t, err)

		stored, err := store.GetAccountByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, "h1", stored.PasswordHash)
	})

	t.Run("FindOrCreateByProvider", func(t *testing.T) {
		store := newStore(t)
		first, created, err := store.FindOrCreateByProvider(ctx, secrets.ProviderGoogle, "g-1")
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, "g-1", first.GoogleID)
		assert.Empty(t, first.Username)

		second, created, err := store.FindOrCreateByProvider(ctx, secrets.ProviderGoogle, "g-1")
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, first.ID, second.ID)

		// the same raw id under another provider is a different account
		fb, created, err := store.FindOrCreateByProvider(ctx, secrets.ProviderFacebook, "g-1")
		require.NoError(t, err)
		assert.True(t, created)
		assert.NotEqual(t, first.ID, fb.ID)
		assert.Equal(t, "g-1", fb.FacebookID)
		assert.Empty(t, fb.GoogleID)
	})

	t.Run("FindOrCreateUnknownProvider", func(t *testing.T) {
		store := newStore(t)
		_, _, err := store.FindOrCreateByProvider(ctx, "myspace", "1")
		assert.ErrorIs(t, err, secrets.ErrUnknownProvider)
	})

	t.Run("FindOrCreateConcurrent", func(t *testing.T) {
		store := newStore(t)
		const n = 8
		ids := make([]string, n)
		var wg sync.WaitGroup
		for i := range n {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				account, _, err := store.FindOrCreateByProvider(ctx, secrets.ProviderFacebook, "fb-race")
				if assert.NoError(t, err) {
					ids[i] = account.ID
				}
			}(i)
		}
		wg.Wait()
		for _, id := range ids {
			assert.Equal(t, ids[0], id)
		}
	})

	t.Run("SecretOverwriteAndListing", func(t *testing.T) {
		store := newStore(t)
		alice, err := store.CreateAccount(ctx, &secrets.Account{Username: "alice", PasswordHash: "h"})
		require.NoError(t, err)
		_, err = store.CreateAccount(ctx, &secrets.Account{Username: "bob", PasswordHash: "h"})
		require.NoError(t, err)

		listed, err := store.ListAccountsWithSecrets(ctx)
		require.NoError(t, err)
		assert.Empty(t, listed)

		require.NoError(t, store.SetSecret(ctx, alice.ID, "hello"))
		require.NoError(t, store.SetSecret(ctx, alice.ID, "goodbye"))

		listed, err = store.ListAccountsWithSecrets(ctx)
		require.NoError(t, err)
		require.Len(t, listed, 1)
		assert.Equal(t, alice.ID, listed[0].ID)
		assert.Equal(t, "goodbye", listed[0].Secret)

		// an empty submission takes the account off the listing
		require.NoError(t, store.SetSecret(ctx, alice.ID, ""))
		listed, err = store.ListAccountsWithSecrets(ctx)
		require.NoError(t, err)
		assert.Empty(t, listed)
	})
}
