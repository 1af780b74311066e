package oauth2

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

var ErrMissingProfileID = errors.New("provider profile has no id")

// ProfileFunc maps a provider specific profile document onto the
// {"id", "name", "picture"} shape handed to HandleUser
type ProfileFunc func(raw map[string]any) map[string]any

// BaseOAuth2 runs the authorization code flow shared by every provider:
// consent redirect, state check, code exchange and profile fetch.
type BaseOAuth2 struct {
	ProviderName string
	Config       oauth2.Config
	UserInfoURL  string
	HandleUser   HandleUserFunc

	// Where failed callbacks are sent. Defaults to /login
	FailureURL string

	// Extra parameters for the consent redirect
	AuthCodeOptions []oauth2.AuthCodeOption

	States       *StateSigner
	SecureCookie bool
	Logger       *zap.Logger

	normalize  ProfileFunc
	httpClient *http.Client
}

func NewBaseOAuth2(provider, clientId, clientSecret, callbackUrl string, handleUser HandleUserFunc) *BaseOAuth2 {
	return &BaseOAuth2{
		ProviderName: provider,
		HandleUser:   handleUser,
		FailureURL:   "/login",
		States:       NewStateSigner(nil),
		Config: oauth2.Config{
			ClientID:     clientId,
			ClientSecret: clientSecret,
			RedirectURL:  callbackUrl,
		},
	}
}

func (b *BaseOAuth2) Name() string {
	return b.ProviderName
}

// SetHTTPClient replaces the client used for the token exchange and the
// profile fetch
func (b *BaseOAuth2) SetHTTPClient(client *http.Client) {
	b.httpClient = client
}

func (b *BaseOAuth2) SetOAuthEndpoint(endpoint oauth2.Endpoint) {
	b.Config.Endpoint = endpoint
}

// HandleStart pins a nonce in the browser and redirects to the consent screen
func (b *BaseOAuth2) HandleStart(w http.ResponseWriter, r *http.Request) {
	state, nonce, err := b.States.Issue(b.ProviderName)
	if err != nil {
		b.logger().Error("error issuing oauth state", zap.Error(err))
		http.Redirect(w, r, b.failureURL(), http.StatusFound)
		return
	}
	setStateCookie(w, nonce, b.States.TTL, b.SecureCookie)
	http.Redirect(w, r, b.Config.AuthCodeURL(state, b.AuthCodeOptions...), http.StatusFound)
}

// HandleCallback completes the flow. Every failure lands on FailureURL.
func (b *BaseOAuth2) HandleCallback(w http.ResponseWriter, r *http.Request) {
	log := b.logger().With(zap.String("provider", b.ProviderName))

	if reason := r.FormValue("error"); reason != "" {
		log.Info("consent not granted", zap.String("error", reason), zap.String("description", r.FormValue("error_description")))
		b.fail(w, r)
		return
	}

	if err := b.States.Verify(r.FormValue("state"), b.ProviderName, stateCookieValue(r)); err != nil {
		log.Warn("rejected oauth callback", zap.Error(err))
		b.fail(w, r)
		return
	}
	clearStateCookie(w)

	ctx := b.exchangeContext(r.Context())
	token, err := b.Config.Exchange(ctx, r.FormValue("code"))
	if err != nil {
		log.Info("invalid code exchange", zap.Error(err))
		b.fail(w, r)
		return
	}

	userInfo, err := b.fetchProfile(ctx, token)
	if err != nil {
		log.Info("error fetching profile", zap.Error(err))
		b.fail(w, r)
		return
	}
	b.HandleUser(b.ProviderName, token, userInfo, w, r)
}

func (b *BaseOAuth2) fetchProfile(ctx context.Context, token *oauth2.Token) (map[string]any, error) {
	resp, err := b.Config.Client(ctx, token).Get(b.UserInfoURL)
	if err != nil {
		return nil, fmt.Errorf("failed getting user info: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("user info returned status %d", resp.StatusCode)
	}

	var raw map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to parse user info: %w", err)
	}

	userInfo := raw
	if b.normalize != nil {
		userInfo = b.normalize(raw)
	}
	if id, _ := userInfo["id"].(string); id == "" {
		return nil, ErrMissingProfileID
	}
	return userInfo, nil
}

func (b *BaseOAuth2) exchangeContext(ctx context.Context) context.Context {
	if b.httpClient != nil {
		return context.WithValue(ctx, oauth2.HTTPClient, b.httpClient)
	}
	return ctx
}

func (b *BaseOAuth2) fail(w http.ResponseWriter, r *http.Request) {
	clearStateCookie(w)
	http.Redirect(w, r, b.failureURL(), http.StatusFound)
}

func (b *BaseOAuth2) failureURL() string {
	if b.FailureURL != "" {
		return b.FailureURL
	}
	return "/login"
}

func (b *BaseOAuth2) logger() *zap.Logger {
	if b.Logger == nil {
		return zap.NewNop()
	}
	return b.Logger
}
