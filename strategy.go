package secrets

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Credential is the input a Strategy resolves into an Account.
// Local credentials set Username and Password, OAuth credentials set
// Provider and ProviderID.
type Credential struct {
	Provider   string
	Username   string
	Password   string
	ProviderID string
}

// Strategy resolves an external credential to an account
type Strategy interface {
	Resolve(ctx context.Context, cred Credential) (*Account, error)
}

// LocalStrategy verifies usernames and bcrypt password hashes
type LocalStrategy struct {
	Store AccountStore

	// bcrypt cost, defaults to bcrypt.DefaultCost
	Cost int

	dummyOnce sync.Once
	dummyHash []byte
}

func NewLocalStrategy(store AccountStore) *LocalStrategy {
	return &LocalStrategy{Store: store, Cost: bcrypt.DefaultCost}
}

func (s *LocalStrategy) cost() int {
	if s.Cost < bcrypt.MinCost {
		return bcrypt.DefaultCost
	}
	return s.Cost
}

// passwordKey pre-hashes the password so inputs past bcrypt's 72 byte
// limit are neither rejected nor truncated
func passwordKey(password string) []byte {
	sum := sha256.Sum256([]byte(password))
	return []byte(base64.StdEncoding.EncodeToString(sum[:]))
}

// Register hashes the password and creates a local account.
// Returns ErrUsernameTaken if the username exists.
func (s *LocalStrategy) Register(ctx context.Context, username, password string) (*Account, error) {
	if username == "" || password == "" {
		return nil, fmt.Errorf("username and password required")
	}

	passwordHash, err := bcrypt.GenerateFromPassword(passwordKey(password), s.cost())
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	account, err := s.Store.CreateAccount(ctx, &Account{
		Username:     username,
		PasswordHash: string(passwordHash),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}
	return account, nil
}

// Authenticate checks a username and password. Unknown users and wrong
// passwords both yield ErrInvalidCredentials.
func (s *LocalStrategy) Authenticate(ctx context.Context, username, password string) (*Account, error) {
	account, err := s.Store.GetAccountByUsername(ctx, username)
	if errors.Is(err, ErrAccountNotFound) || (err == nil && account.PasswordHash == "") {
		// Burn the same bcrypt time as a real check
		bcrypt.CompareHashAndPassword(s.getDummyHash(), passwordKey(password))
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), passwordKey(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return account, nil
}

func (s *LocalStrategy) Resolve(ctx context.Context, cred Credential) (*Account, error) {
	return s.Authenticate(ctx, cred.Username, cred.Password)
}

func (s *LocalStrategy) getDummyHash() []byte {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = bcrypt.GenerateFromPassword(passwordKey("not-a-real-password"), s.cost())
	})
	return s.dummyHash
}

// OAuthStrategy maps a provider scoped id to an account with find-or-create
type OAuthStrategy struct {
	Store  AccountStore
	Logger *zap.Logger
}

func (s *OAuthStrategy) Resolve(ctx context.Context, cred Credential) (*Account, error) {
	if cred.ProviderID == "" {
		return nil, fmt.Errorf("%s profile has no id", cred.Provider)
	}
	if cred.Provider != ProviderGoogle && cred.Provider != ProviderFacebook {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, cred.Provider)
	}

	account, created, err := s.Store.FindOrCreateByProvider(ctx, cred.Provider, cred.ProviderID)
	if err != nil {
		return nil, fmt.Errorf("find or create %s account: %w", cred.Provider, err)
	}
	if created && s.Logger != nil {
		s.Logger.Info("created account from oauth login",
			zap.String("provider", cred.Provider), zap.String("account_id", account.ID))
	}
	return account, nil
}
