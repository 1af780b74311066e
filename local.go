package secrets

import (
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

// HandleUserFunc is called once a strategy has resolved an account
type HandleUserFunc func(identity Identity, w http.ResponseWriter, r *http.Request)

// Allows local username/password based authentication
type LocalAuth struct {
	Strategy *LocalStrategy

	Logger *zap.Logger

	// Form field names
	UsernameField string
	PasswordField string

	// Handler called after successful login or signup
	HandleUser HandleUserFunc

	// OnSignupError is called when signup fails. If nil, redirects to SignupURL.
	OnSignupError AuthErrorHandler

	// OnLoginError is called when login fails. If nil, redirects to LoginURL.
	OnLoginError AuthErrorHandler

	// SignupURL is where failed signups are sent back to
	SignupURL string

	// LoginURL is where failed logins are sent back to
	LoginURL string
}

// ServeHTTP handles login requests
func (a *LocalAuth) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	username, password, err := a.parseForm(r)
	if err != nil {
		a.handleLoginError(NewAuthError(ErrCodeMissingField, err.Error(), "username"), w, r)
		return
	}

	account, err := a.Strategy.Authenticate(r.Context(), username, password)
	if err != nil {
		authErr := NewAuthError(ErrCodeInvalidCreds, "Invalid credentials", "password")
		if !errors.Is(err, ErrInvalidCredentials) {
			a.logger().Error("error validating credentials", zap.Error(err))
			authErr.Err = err
		}
		a.handleLoginError(authErr, w, r)
		return
	}

	a.HandleUser(NewIdentity(account, ProviderLocal), w, r)
}

func (a *LocalAuth) parseForm(r *http.Request) (username, password string, err error) {
	if err = r.ParseForm(); err != nil {
		return "", "", fmt.Errorf("error parsing form")
	}
	username = r.PostFormValue(a.getUsernameField())
	password = r.PostFormValue(a.getPasswordField())
	if username == "" || password == "" {
		return "", "", fmt.Errorf("username and password required")
	}
	return username, password, nil
}

func (a *LocalAuth) getUsernameField() string {
	if a.UsernameField != "" {
		return a.UsernameField
	}
	return "username"
}

func (a *LocalAuth) getPasswordField() string {
	if a.PasswordField != "" {
		return a.PasswordField
	}
	return "password"
}

func (a *LocalAuth) getLoginURL() string {
	if a.LoginURL != "" {
		return a.LoginURL
	}
	return "/login"
}

func (a *LocalAuth) getSignupURL() string {
	if a.SignupURL != "" {
		return a.SignupURL
	}
	return "/register"
}

func (a *LocalAuth) logger() *zap.Logger {
	if a.Logger == nil {
		return zap.NewNop()
	}
	return a.Logger
}

// handleLoginError hands the error to OnLoginError or redirects back to login.
// The caller is never told which of username or password was wrong.
func (a *LocalAuth) handleLoginError(err *AuthError, w http.ResponseWriter, r *http.Request) {
	if a.OnLoginError != nil && a.OnLoginError(err, w, r) {
		return
	}
	http.Redirect(w, r, a.getLoginURL(), http.StatusFound)
}

// handleSignupError hands the error to OnSignupError or redirects back to signup
func (a *LocalAuth) handleSignupError(err *AuthError, w http.ResponseWriter, r *http.Request) {
	if a.OnSignupError != nil && a.OnSignupError(err, w, r) {
		return
	}
	http.Redirect(w, r, a.getSignupURL(), http.StatusFound)
}
