package secrets

import (
	"context"
	"time"
)

// Provider names used on accounts and session identities
const (
	ProviderLocal    = "local"
	ProviderGoogle   = "google"
	ProviderFacebook = "facebook"
)

// Account is the single persisted record of the app
type Account struct {
	ID           string    `json:"id"`
	Username     string    `json:"username,omitempty"`
	PasswordHash string    `json:"password_hash,omitempty"` // bcrypt, salt embedded
	GoogleID     string    `json:"google_id,omitempty"`
	FacebookID   string    `json:"facebook_id,omitempty"`
	Secret       string    `json:"secret,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ProviderID returns the provider scoped id of the account, if any
func (a *Account) ProviderID(provider string) string {
	switch provider {
	case ProviderGoogle:
		return a.GoogleID
	case ProviderFacebook:
		return a.FacebookID
	}
	return ""
}

// SetProviderID sets the provider scoped id for a known provider
func (a *Account) SetProviderID(provider, providerID string) error {
	switch provider {
	case ProviderGoogle:
		a.GoogleID = providerID
	case ProviderFacebook:
		a.FacebookID = providerID
	default:
		return ErrUnknownProvider
	}
	return nil
}

// HasSecret reports whether the account shows up on the listing page
func (a *Account) HasSecret() bool {
	return a.Secret != ""
}

// AccountStore manages account documents.
//
// Implementations must enforce uniqueness of Username, GoogleID and
// FacebookID when they are set.
type AccountStore interface {
	// CreateAccount assigns an ID and persists the account.
	// Returns ErrUsernameTaken or ErrProviderIDTaken on a uniqueness conflict.
	CreateAccount(ctx context.Context, account *Account) (*Account, error)

	// GetAccountByID returns ErrAccountNotFound if no such account exists
	GetAccountByID(ctx context.Context, id string) (*Account, error)

	// GetAccountByUsername returns ErrAccountNotFound if no such account exists
	GetAccountByUsername(ctx context.Context, username string) (*Account, error)

	// FindOrCreateByProvider looks up the account holding the given provider
	// id and creates one with only that id set if there is none.
	FindOrCreateByProvider(ctx context.Context, provider, providerID string) (account *Account, created bool, err error)

	// SetSecret overwrites the secret of an account. Last writer wins.
	SetSecret(ctx context.Context, id, secret string) error

	// ListAccountsWithSecrets returns all accounts with a non-empty secret
	ListAccountsWithSecrets(ctx context.Context) ([]*Account, error)
}
