package fs_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panyam/secrets"
	"github.com/panyam/secrets/stores/fs"
	"github.com/panyam/secrets/stores/storetest"
)

func TestAccountStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) secrets.AccountStore {
		store, err := fs.NewAccountStore(t.TempDir())
		require.NoError(t, err)
		return store
	})
}

func TestAccountStoreLayout(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := fs.NewAccountStore(dir)
	require.NoError(t, err)

	account, err := store.CreateAccount(ctx, &secrets.Account{Username: "../escape", PasswordHash: "h"})
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "accounts", account.ID+".json"))
	assert.NoError(t, err)

	// no file was written outside the index directory
	_, err = os.Stat(filepath.Join(dir, "escape.json"))
	assert.True(t, os.IsNotExist(err))

	found, err := store.GetAccountByUsername(ctx, "../escape")
	require.NoError(t, err)
	assert.Equal(t, account.ID, found.ID)
}

func TestAccountStoreLongKeys(t *testing.T) {
	ctx := context.Background()
	store, err := fs.NewAccountStore(t.TempDir())
	require.NoError(t, err)

	username := strings.Repeat("u", 300)
	account, err := store.CreateAccount(ctx, &secrets.Account{Username: username, PasswordHash: "h"})
	require.NoError(t, err)

	found, err := store.GetAccountByUsername(ctx, username)
	require.NoError(t, err)
	assert.Equal(t, account.ID, found.ID)

	_, err = store.CreateAccount(ctx, &secrets.Account{Username: username, PasswordHash: "h"})
	assert.ErrorIs(t, err, secrets.ErrUsernameTaken)

	_, created, err := store.FindOrCreateByProvider(ctx, secrets.ProviderFacebook, strings.Repeat("9", 300))
	require.NoError(t, err)
	assert.True(t, created)
}

func TestAccountStoreRejectsPathIDs(t *testing.T) {
	store, err := fs.NewAccountStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.GetAccountByID(context.Background(), "../../etc/passwd")
	assert.ErrorIs(t, err, secrets.ErrAccountNotFound)
}

func TestAccountStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := fs.NewAccountStore(dir)
	require.NoError(t, err)
	account, _, err := store.FindOrCreateByProvider(ctx, secrets.ProviderGoogle, "g-7")
	require.NoError(t, err)
	require.NoError(t, store.SetSecret(ctx, account.ID, "persisted"))

	reopened, err := fs.NewAccountStore(dir)
	require.NoError(t, err)
	again, created, err := reopened.FindOrCreateByProvider(ctx, secrets.ProviderGoogle, "g-7")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "persisted", again.Secret)
}
