package secrets_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/alexedwards/scs/v2/memstore"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	oauth2lib "golang.org/x/oauth2"

	"github.com/panyam/secrets"
	"github.com/panyam/secrets/oauth2"
	"github.com/panyam/secrets/stores/fs"
)

// TestJourney holds an app served over a real listener, backed by a file
// store in a temp dir
type TestJourney struct {
	t      *testing.T
	App    *secrets.App
	Store  *fs.AccountStore
	Server *httptest.Server
}

func setupJourney(t *testing.T) *TestJourney {
	t.Helper()
	return setupJourneyWith(t, memstore.NewWithCleanupInterval(0), zap.NewNop())
}

func setupJourneyWith(t *testing.T, sessionStore scs.Store, logger *zap.Logger) *TestJourney {
	t.Helper()
	store, err := fs.NewAccountStore(t.TempDir())
	require.NoError(t, err)

	app := secrets.NewApp(secrets.AppConfig{
		Store:      store,
		Sessions:   secrets.NewSessions(sessionStore, time.Hour, false),
		Logger:     logger,
		BcryptCost: bcrypt.MinCost,
	})
	server := httptest.NewServer(app.Handler())
	t.Cleanup(server.Close)
	return &TestJourney{t: t, App: app, Store: store, Server: server}
}

// browser is one user agent with its own cookie jar. Redirects are not
// followed so tests can assert where they point.
type browser struct {
	t      *testing.T
	base   string
	client *http.Client
}

func (j *TestJourney) newBrowser() *browser {
	jar, err := cookiejar.New(nil)
	require.NoError(j.t, err)
	return &browser{
		t:    j.t,
		base: j.Server.URL,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (b *browser) get(path string) *http.Response {
	b.t.Helper()
	resp, err := b.client.Get(b.base + path)
	require.NoError(b.t, err)
	b.t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (b *browser) post(path string, form url.Values) *http.Response {
	b.t.Helper()
	resp, err := b.client.PostForm(b.base+path, form)
	require.NoError(b.t, err)
	b.t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (b *browser) register(username, password string) *http.Response {
	return b.post("/register", url.Values{"username": {username}, "password": {password}})
}

func (b *browser) login(username, password string) *http.Response {
	return b.post("/login", url.Values{"username": {username}, "password": {password}})
}

func (b *browser) submit(secret string) *http.Response {
	return b.post("/submit", url.Values{"secret": {secret}})
}

func body(t *testing.T, resp *http.Response) string {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(data)
}

func location(resp *http.Response) string {
	return resp.Header.Get("Location")
}

// mockProvider fakes the token and userinfo endpoints of an OAuth provider
type mockProvider struct {
	server   *httptest.Server
	profile  map[string]any
	tokenErr bool
}

func newMockProvider(t *testing.T, profile map[string]any) *mockProvider {
	m := &mockProvider{profile: profile}
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		if m.tokenErr {
			http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "mock_access_token",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(m.profile)
	})
	m.server = httptest.NewServer(mux)
	t.Cleanup(m.server.Close)
	return m
}

// mount points a provider at the mock and adds it to the app
func (j *TestJourney) mount(b *oauth2.BaseOAuth2, m *mockProvider) {
	b.Config.RedirectURL = j.Server.URL + "/auth/" + b.Name() + "/secrets"
	b.UserInfoURL = m.server.URL + "/userinfo"
	b.SetHTTPClient(m.server.Client())
	b.SetOAuthEndpoint(oauth2lib.Endpoint{
		AuthURL:   m.server.URL + "/auth",
		TokenURL:  m.server.URL + "/token",
		AuthStyle: oauth2lib.AuthStyleInParams,
	})
}

// oauthLogin walks the consent redirect and the callback as a browser would
// after the user approved
func (b *browser) oauthLogin(provider string) *http.Response {
	b.t.Helper()
	start := b.get("/auth/" + provider)
	require.Equal(b.t, http.StatusFound, start.StatusCode)
	consent, err := url.Parse(location(start))
	require.NoError(b.t, err)
	state := consent.Query().Get("state")
	require.NotEmpty(b.t, state)
	return b.get("/auth/" + provider + "/secrets?code=approved&state=" + url.QueryEscape(state))
}
