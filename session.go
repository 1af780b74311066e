package secrets

import (
	"context"
	"encoding/gob"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
)

// Identity is what a session remembers about the signed in account
type Identity struct {
	ID       string
	Username string
	Provider string
	Picture  string
}

// NewIdentity builds the session identity of an account signed in via provider
func NewIdentity(account *Account, provider string) Identity {
	return Identity{
		ID:       account.ID,
		Username: account.Username,
		Provider: provider,
	}
}

func init() {
	// scs gob-encodes session values
	gob.Register(Identity{})
}

const sessionIdentityKey = "identity"

// Sessions keeps the signed in identity in server side session state.
// The client only holds an opaque session cookie that ends with the
// browser session.
type Sessions struct {
	Manager *scs.SessionManager
}

// NewSessions creates a session manager over the given store. A nil store
// keeps the scs default in-memory store.
func NewSessions(store scs.Store, lifetime time.Duration, secureCookie bool) *Sessions {
	m := scs.New()
	if store != nil {
		m.Store = store
	}
	if lifetime > 0 {
		m.Lifetime = lifetime
	}
	m.Cookie.Name = "secrets_session"
	m.Cookie.HttpOnly = true
	m.Cookie.Path = "/"
	// Lax so the cookie survives the top level redirect back from a provider
	m.Cookie.SameSite = http.SameSiteLaxMode
	m.Cookie.Secure = secureCookie
	m.Cookie.Persist = false
	return &Sessions{Manager: m}
}

// LoadAndSave must wrap every handler that reads or writes the session
func (s *Sessions) LoadAndSave(next http.Handler) http.Handler {
	return s.Manager.LoadAndSave(next)
}

// Login moves the session to the authenticated state.
// The session token is renewed first so a pre-login token cannot be reused.
func (s *Sessions) Login(ctx context.Context, identity Identity) error {
	if err := s.Manager.RenewToken(ctx); err != nil {
		return err
	}
	s.Manager.Put(ctx, sessionIdentityKey, identity)
	return nil
}

// Identity returns the identity stored in the session, if any
func (s *Sessions) Identity(ctx context.Context) (Identity, bool) {
	identity, ok := s.Manager.Get(ctx, sessionIdentityKey).(Identity)
	if !ok || identity.ID == "" {
		return Identity{}, false
	}
	return identity, true
}

// Logout discards the session and its stored identity
func (s *Sessions) Logout(ctx context.Context) error {
	return s.Manager.Destroy(ctx)
}
