package secrets_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/panyam/secrets"
	"github.com/panyam/secrets/stores/fs"
)

func newLocalStrategy(t *testing.T) (*secrets.LocalStrategy, *fs.AccountStore) {
	store, err := fs.NewAccountStore(t.TempDir())
	require.NoError(t, err)
	s := secrets.NewLocalStrategy(store)
	s.Cost = bcrypt.MinCost
	return s, store
}

func TestLocalStrategyRegister(t *testing.T) {
	ctx := context.Background()
	s, _ := newLocalStrategy(t)

	account, err := s.Register(ctx, "alice", "pw1")
	require.NoError(t, err)
	assert.Equal(t, "alice", account.Username)
	assert.NotContains(t, account.PasswordHash, "pw1")
	_, err = s.Authenticate(ctx, "alice", "pw1")
	assert.NoError(t, err)

	_, err = s.Register(ctx, "alice", "pw2")
	assert.ErrorIs(t, err, secrets.ErrUsernameTaken)

	_, err = s.Register(ctx, "", "pw")
	assert.Error(t, err)
	_, err = s.Register(ctx, "carol", "")
	assert.Error(t, err)
}

func TestLocalStrategyAuthenticate(t *testing.T) {
	ctx := context.Background()
	s, store := newLocalStrategy(t)
	_, err := s.Register(ctx, "alice", "pw1")
	require.NoError(t, err)
	_, err = store.CreateAccount(ctx, &secrets.Account{Username: "ghost"})
	require.NoError(t, err)

	account, err := s.Authenticate(ctx, "alice", "pw1")
	require.NoError(t, err)
	assert.Equal(t, "alice", account.Username)

	tests := []struct {
		name     string
		username string
		password string
	}{
		{"wrong password", "alice", "pw2"},
		{"unknown user", "mallory", "pw1"},
		{"account without password", "ghost", "anything"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Authenticate(ctx, tt.username, tt.password)
			assert.ErrorIs(t, err, secrets.ErrInvalidCredentials)
		})
	}

	// Resolve is the Strategy form of Authenticate
	resolved, err := s.Resolve(ctx, secrets.Credential{Provider: secrets.ProviderLocal, Username: "alice", Password: "pw1"})
	require.NoError(t, err)
	assert.Equal(t, account.ID, resolved.ID)
}

func TestLocalStrategyLongPasswords(t *testing.T) {
	ctx := context.Background()
	s, _ := newLocalStrategy(t)

	long := strings.Repeat("p", 80)
	_, err := s.Register(ctx, "alice", long)
	require.NoError(t, err)

	_, err = s.Authenticate(ctx, "alice", long)
	assert.NoError(t, err)

	// bytes past 72 still count
	_, err = s.Authenticate(ctx, "alice", strings.Repeat("p", 79)+"q")
	assert.ErrorIs(t, err, secrets.ErrInvalidCredentials)
	_, err = s.Authenticate(ctx, "alice", strings.Repeat("p", 72))
	assert.ErrorIs(t, err, secrets.ErrInvalidCredentials)
}

func TestOAuthStrategyResolve(t *testing.T) {
	ctx := context.Background()
	store, err := fs.NewAccountStore(t.TempDir())
	require.NoError(t, err)
	var s secrets.Strategy = &secrets.OAuthStrategy{Store: store}

	first, err := s.Resolve(ctx, secrets.Credential{Provider: secrets.ProviderFacebook, ProviderID: "fb-1"})
	require.NoError(t, err)
	assert.Equal(t, "fb-1", first.FacebookID)

	again, err := s.Resolve(ctx, secrets.Credential{Provider: secrets.ProviderFacebook, ProviderID: "fb-1"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)

	_, err = s.Resolve(ctx, secrets.Credential{Provider: secrets.ProviderFacebook})
	assert.Error(t, err)

	_, err = s.Resolve(ctx, secrets.Credential{Provider: "github", ProviderID: "1"})
	assert.ErrorIs(t, err, secrets.ErrUnknownProvider)
}

func TestAccountProviderIDs(t *testing.T) {
	var a secrets.Account
	require.NoError(t, a.SetProviderID(secrets.ProviderGoogle, "g"))
	require.NoError(t, a.SetProviderID(secrets.ProviderFacebook, "f"))
	assert.Equal(t, "g", a.ProviderID(secrets.ProviderGoogle))
	assert.Equal(t, "f", a.ProviderID(secrets.ProviderFacebook))
	assert.Empty(t, a.ProviderID(secrets.ProviderLocal))
	assert.ErrorIs(t, a.SetProviderID("github", "x"), secrets.ErrUnknownProvider)

	assert.False(t, a.HasSecret())
	a.Secret = "s"
	assert.True(t, a.HasSecret())
}
