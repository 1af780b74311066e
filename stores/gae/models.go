package gae

import (
	"time"

	"cloud.google.com/go/datastore"

	"github.com/panyam/secrets"
)

// Kind constants for Datastore entities
const (
	KindAccount    = "Account"
	KindUsername   = "Username"
	KindGoogleID   = "GoogleID"
	KindFacebookID = "FacebookID"
)

// AccountEntity is the Datastore entity for accounts.
// HasSecret mirrors Secret != "" so the listing is an equality query.
type AccountEntity struct {
	Key          *datastore.Key `datastore:"__key__"`
	Username     string         `datastore:"username"`
	PasswordHash string         `datastore:"hash,noindex"`
	GoogleID     string         `datastore:"google_id"`
	FacebookID   string         `datastore:"facebook_id"`
	Secret       string         `datastore:"secret,noindex"`
	HasSecret    bool           `datastore:"has_secret"`
	CreatedAt    time.Time      `datastore:"created_at"`
	UpdatedAt    time.Time      `datastore:"updated_at"`
}

// MarkerEntity reserves a unique value for one account
type MarkerEntity struct {
	AccountID string    `datastore:"account_id,noindex"`
	CreatedAt time.Time `datastore:"created_at,noindex"`
}

func (e *AccountEntity) ToAccount() *secrets.Account {
	return &secrets.Account{
		ID:           e.Key.Name,
		Username:     e.Username,
		PasswordHash: e.PasswordHash,
		GoogleID:     e.GoogleID,
		FacebookID:   e.FacebookID,
		Secret:       e.Secret,
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
	}
}

func AccountToEntity(a *secrets.Account, key *datastore.Key) *AccountEntity {
	return &AccountEntity{
		Key:          key,
		Username:     a.Username,
		PasswordHash: a.PasswordHash,
		GoogleID:     a.GoogleID,
		FacebookID:   a.FacebookID,
		Secret:       a.Secret,
		HasSecret:    a.HasSecret(),
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}
