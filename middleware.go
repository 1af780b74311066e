package secrets

import (
	"context"
	"net/http"
)

type identityContextKey struct{}

// Middleware moves the session identity into the request context
type Middleware struct {
	Sessions *Sessions

	// Where EnsureUser sends anonymous requests. Defaults to /login
	LoginURL string
}

/**
 * Ensures that config values have reasonable defaults.
 */
func (m *Middleware) EnsureReasonableDefaults() {
	if m.LoginURL == "" {
		m.LoginURL = "/login"
	}
}

// IdentityFromContext returns the identity set by ExtractUser or EnsureUser
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityContextKey{}).(Identity)
	return identity, ok && identity.ID != ""
}

// WithIdentity returns a context carrying the given identity
func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, identity)
}

// Get the ID of the logged in account from the current request
func (m *Middleware) GetLoggedInUserId(r *http.Request) string {
	if identity, ok := IdentityFromContext(r.Context()); ok {
		return identity.ID
	}
	if identity, ok := m.Sessions.Identity(r.Context()); ok {
		return identity.ID
	}
	return ""
}

/**
 * Loads the session identity, if there is one, into the request context.
 *
 * Note this does not redirect anonymous requests. To also enforce a signed
 * in user, use EnsureUser.
 */
func (m *Middleware) ExtractUser(next http.Handler) http.Handler {
	m.EnsureReasonableDefaults()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if identity, ok := m.Sessions.Identity(r.Context()); ok {
			r = r.WithContext(WithIdentity(r.Context(), identity))
		}
		next.ServeHTTP(w, r)
	})
}

// EnsureUser redirects anonymous requests to the login page
func (m *Middleware) EnsureUser(next http.Handler) http.Handler {
	m.EnsureReasonableDefaults()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := m.Sessions.Identity(r.Context())
		if !ok {
			http.Redirect(w, r, m.LoginURL, http.StatusFound)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
	})
}
