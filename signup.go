package secrets

import (
	"errors"
	"net/http"

	"go.uber.org/zap"
)

// HandleSignup processes account registration
func (a *LocalAuth) HandleSignup(w http.ResponseWriter, r *http.Request) {
	username, password, err := a.parseForm(r)
	if err != nil {
		a.handleSignupError(NewAuthError(ErrCodeMissingField, err.Error(), "username"), w, r)
		return
	}

	account, err := a.Strategy.Register(r.Context(), username, password)
	if err != nil {
		if errors.Is(err, ErrUsernameTaken) {
			a.logger().Info("signup with existing username", zap.String("username", username))
			authErr := NewAuthError(ErrCodeUsernameTaken, "Username is already taken", "username")
			authErr.Err = err
			a.handleSignupError(authErr, w, r)
			return
		}
		a.logger().Error("error creating account", zap.Error(err))
		authErr := NewAuthError(ErrCodeCreateFailed, "Failed to create account", "")
		authErr.Err = err
		a.handleSignupError(authErr, w, r)
		return
	}

	a.logger().Info("created local account", zap.String("account_id", account.ID))

	// Log the new account in right away
	a.HandleUser(NewIdentity(account, ProviderLocal), w, r)
}
