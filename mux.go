package secrets

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// OAuthProvider is a third party login flow mounted under /auth/{name}
type OAuthProvider interface {
	Name() string

	// HandleStart redirects the browser to the provider consent screen
	HandleStart(w http.ResponseWriter, r *http.Request)

	// HandleCallback receives the provider redirect with an authorization code
	HandleCallback(w http.ResponseWriter, r *http.Request)
}

// AppConfig holds what the app is built from. It is constructed once at
// startup and not changed afterwards.
type AppConfig struct {
	Store    AccountStore
	Sessions *Sessions
	Logger   *zap.Logger

	// bcrypt cost for new passwords, defaults to bcrypt.DefaultCost
	BcryptCost int
}

type App struct {
	router     *mux.Router
	Store      AccountStore
	Sessions   *Sessions
	Middleware Middleware
	Local      *LocalAuth
	OAuth      *OAuthStrategy
	Pages      *Pages
	Logger     *zap.Logger

	// Where a successful login lands. Defaults to /secrets
	SuccessURL string

	// Where failed logins and anonymous requests land. Defaults to /login
	LoginURL string

	providers []string
}

func NewApp(cfg AppConfig) *App {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{
		Store:      cfg.Store,
		Sessions:   cfg.Sessions,
		Logger:     logger,
		Pages:      NewPages(),
		SuccessURL: "/secrets",
		LoginURL:   "/login",
	}
	a.Middleware = Middleware{Sessions: a.Sessions, LoginURL: a.LoginURL}

	local := NewLocalStrategy(cfg.Store)
	if cfg.BcryptCost > 0 {
		local.Cost = cfg.BcryptCost
	}
	a.Local = &LocalAuth{
		Strategy:   local,
		Logger:     logger.Named("local"),
		HandleUser: a.SaveUserAndRedirect,
		LoginURL:   a.LoginURL,
		SignupURL:  "/register",
	}
	a.OAuth = &OAuthStrategy{Store: cfg.Store, Logger: logger.Named("oauth")}
	return a.setupRoutes()
}

// Handler returns the app wrapped in the session middleware. Extra
// middlewares are applied outermost first.
func (a *App) Handler(middlewares ...func(http.Handler) http.Handler) http.Handler {
	var h http.Handler = a.Sessions.LoadAndSave(a.router)
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

func (a *App) setupRoutes() *App {
	r := mux.NewRouter()
	r.Use(a.Middleware.ExtractUser)

	r.HandleFunc("/", a.handleHome).Methods(http.MethodGet)
	r.HandleFunc("/healthz", a.handleHealthz).Methods(http.MethodGet)
	r.PathPrefix("/static/").Handler(http.StripPrefix("/static/", http.FileServerFS(staticFiles())))

	r.HandleFunc("/login", a.handleLoginPage).Methods(http.MethodGet)
	r.Handle("/login", a.Local).Methods(http.MethodPost)
	r.HandleFunc("/register", a.handleRegisterPage).Methods(http.MethodGet)
	r.HandleFunc("/register", a.Local.HandleSignup).Methods(http.MethodPost)

	// Reading the listing is open to everyone, contributing is not
	r.HandleFunc("/secrets", a.handleSecrets).Methods(http.MethodGet)
	r.Handle("/submit", a.Middleware.EnsureUser(http.HandlerFunc(a.handleSubmitForm))).Methods(http.MethodGet)
	r.Handle("/submit", a.Middleware.EnsureUser(http.HandlerFunc(a.handleSubmit))).Methods(http.MethodPost)

	r.HandleFunc("/logout", a.onLogout).Methods(http.MethodGet)
	a.router = r
	return a
}

// AddProvider mounts the consent redirect at /auth/{name} and the provider
// callback at /auth/{name}/secrets
func (a *App) AddProvider(p OAuthProvider) *App {
	prefix := "/auth/" + p.Name()
	a.router.HandleFunc(prefix, p.HandleStart).Methods(http.MethodGet)
	a.router.HandleFunc(prefix+"/secrets", p.HandleCallback).Methods(http.MethodGet)
	a.providers = append(a.providers, p.Name())
	a.Logger.Info("mounted oauth provider", zap.String("provider", p.Name()), zap.String("prefix", prefix))
	return a
}

// Providers lists the names of the mounted OAuth providers
func (a *App) Providers() []string {
	return a.providers
}

/**
 * Called by an OAuth provider after a successful code exchange and profile
 * fetch.
 *
 * The provider scoped id is resolved to an account with find-or-create and
 * the session is moved to the authenticated state.
 */
func (a *App) HandleOAuthUser(provider string, _ *oauth2.Token, userInfo map[string]any, w http.ResponseWriter, r *http.Request) {
	providerID, _ := userInfo["id"].(string)
	account, err := a.OAuth.Resolve(r.Context(), Credential{Provider: provider, ProviderID: providerID})
	if err != nil {
		a.Logger.Error("oauth login failed", zap.String("provider", provider), zap.Error(err))
		http.Redirect(w, r, a.LoginURL, http.StatusFound)
		return
	}

	identity := NewIdentity(account, provider)
	if picture, ok := userInfo["picture"].(string); ok {
		identity.Picture = picture
	}
	a.SaveUserAndRedirect(identity, w, r)
}

// SaveUserAndRedirect stores the identity in the session and sends the
// browser to the listing page
func (a *App) SaveUserAndRedirect(identity Identity, w http.ResponseWriter, r *http.Request) {
	if err := a.Sessions.Login(r.Context(), identity); err != nil {
		a.Logger.Error("error establishing session", zap.String("account_id", identity.ID), zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, a.SuccessURL, http.StatusFound)
}

func (a *App) onLogout(w http.ResponseWriter, r *http.Request) {
	// A failed destroy is logged, the browser is sent home regardless
	if err := a.Sessions.Logout(r.Context()); err != nil {
		a.Logger.Warn("error destroying session", zap.Error(err))
	}
	http.Redirect(w, r, "/", http.StatusFound)
}
