package fs

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/panyam/secrets"
)

// Index directory names
const (
	indexUsernames = "usernames"
	indexGoogle    = "google"
	indexFacebook  = "facebook"
)

// indexEntry points a unique key at the account holding it
type indexEntry struct {
	AccountID string    `json:"account_id"`
	CreatedAt time.Time `json:"created_at"`
}

// AccountStore implements secrets.AccountStore using filesystem storage.
//
// # File Structure
//
//	{StoragePath}/
//	├── accounts/
//	│   └── {id}.json          # the account document
//	└── index/
//	    ├── usernames/{sha256}.json   # {"account_id": "..."}
//	    ├── google/{sha256}.json
//	    └── facebook/{sha256}.json
//
// Index file names are the hex SHA-256 of the key so any username, of any
// length, is a safe file name and lookups stay case sensitive on every
// filesystem.
//
// # Concurrency Model
//
// A single mutex serializes writers inside one process. The store is meant
// for development and tests, not for several processes sharing a directory.
type AccountStore struct {
	StoragePath string
	mu          sync.RWMutex
}

// NewAccountStore creates the storage directory if needed
func NewAccountStore(storagePath string) (*AccountStore, error) {
	if err := os.MkdirAll(filepath.Join(storagePath, "accounts"), 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage dir: %w", err)
	}
	return &AccountStore{StoragePath: storagePath}, nil
}

func (s *AccountStore) Close(ctx context.Context) error {
	return nil
}

func (s *AccountStore) accountPath(id string) string {
	return filepath.Join(s.StoragePath, "accounts", id+".json")
}

func (s *AccountStore) indexPath(index, key string) string {
	sum := sha256.Sum256([]byte(key))
	return filepath.Join(s.StoragePath, "index", index, hex.EncodeToString(sum[:])+".json")
}

func providerIndex(provider string) (string, error) {
	switch provider {
	case secrets.ProviderGoogle:
		return indexGoogle, nil
	case secrets.ProviderFacebook:
		return indexFacebook, nil
	}
	return "", fmt.Errorf("%w: %s", secrets.ErrUnknownProvider, provider)
}

func (s *AccountStore) CreateAccount(ctx context.Context, account *secrets.Account) (*secrets.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createLocked(account)
}

func (s *AccountStore) createLocked(account *secrets.Account) (*secrets.Account, error) {
	if account.Username != "" {
		if id, err := s.readIndex(indexUsernames, account.Username); err != nil {
			return nil, err
		} else if id != "" {
			return nil, secrets.ErrUsernameTaken
		}
	}
	for _, provider := range []string{secrets.ProviderGoogle, secrets.ProviderFacebook} {
		providerID := account.ProviderID(provider)
		if providerID == "" {
			continue
		}
		index, _ := providerIndex(provider)
		if id, err := s.readIndex(index, providerID); err != nil {
			return nil, err
		} else if id != "" {
			return nil, secrets.ErrProviderIDTaken
		}
	}

	out := *account
	out.ID = uuid.NewString()
	now := time.Now().UTC()
	out.CreatedAt = now
	out.UpdatedAt = now

	if err := s.writeAccount(&out); err != nil {
		return nil, err
	}
	if out.Username != "" {
		if err := s.writeIndex(indexUsernames, out.Username, out.ID); err != nil {
			return nil, err
		}
	}
	if out.GoogleID != "" {
		if err := s.writeIndex(indexGoogle, out.GoogleID, out.ID); err != nil {
			return nil, err
		}
	}
	if out.FacebookID != "" {
		if err := s.writeIndex(indexFacebook, out.FacebookID, out.ID); err != nil {
			return nil, err
		}
	}
	return &out, nil
}

func (s *AccountStore) GetAccountByID(ctx context.Context, id string) (*secrets.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.readAccount(id)
}

func (s *AccountStore) GetAccountByUsername(ctx context.Context, username string) (*secrets.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, err := s.readIndex(indexUsernames, username)
	if err != nil {
		return nil, err
	}
	if id == "" {
		return nil, secrets.ErrAccountNotFound
	}
	return s.readAccount(id)
}

func (s *AccountStore) FindOrCreateByProvider(ctx context.Context, provider, providerID string) (*secrets.Account, bool, error) {
	index, err := providerIndex(provider)
	if err != nil {
		return nil, false, err
	}
	if providerID == "" {
		return nil, false, fmt.Errorf("empty %s id", provider)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.readIndex(index, providerID)
	if err != nil {
		return nil, false, err
	}
	if id != "" {
		account, err := s.readAccount(id)
		return account, false, err
	}

	account := &secrets.Account{}
	account.SetProviderID(provider, providerID)
	created, err := s.createLocked(account)
	if err != nil {
		return nil, false, err
	}
	return created, true, nil
}

func (s *AccountStore) SetSecret(ctx context.Context, id, secret string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, err := s.readAccount(id)
	if err != nil {
		return err
	}
	account.Secret = secret
	account.UpdatedAt = time.Now().UTC()
	return s.writeAccount(account)
}

// ListAccountsWithSecrets returns accounts in creation order
func (s *AccountStore) ListAccountsWithSecrets(ctx context.Context) ([]*secrets.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(filepath.Join(s.StoragePath, "accounts"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var out []*secrets.Account
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		account, err := s.readAccount(strings.TrimSuffix(name, ".json"))
		if err != nil {
			if errors.Is(err, secrets.ErrAccountNotFound) {
				continue
			}
			return nil, err
		}
		if account.HasSecret() {
			out = append(out, account)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *AccountStore) readAccount(id string) (*secrets.Account, error) {
	// ids are always uuids, anything else could escape the directory
	if _, err := uuid.Parse(id); err != nil {
		return nil, secrets.ErrAccountNotFound
	}
	data, err := os.ReadFile(s.accountPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, secrets.ErrAccountNotFound
		}
		return nil, err
	}
	var account secrets.Account
	if err := json.Unmarshal(data, &account); err != nil {
		return nil, fmt.Errorf("corrupt account %s: %w", id, err)
	}
	return &account, nil
}

func (s *AccountStore) writeAccount(account *secrets.Account) error {
	data, err := json.MarshalIndent(account, "", "  ")
	if err != nil {
		return err
	}
	return writeAtomicFile(s.accountPath(account.ID), data)
}

// readIndex returns "" when the key is not indexed
func (s *AccountStore) readIndex(index, key string) (string, error) {
	data, err := os.ReadFile(s.indexPath(index, key))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	var entry indexEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return "", err
	}
	return entry.AccountID, nil
}

func (s *AccountStore) writeIndex(index, key, accountID string) error {
	data, err := json.Marshal(indexEntry{AccountID: accountID, CreatedAt: time.Now().UTC()})
	if err != nil {
		return err
	}
	return writeAtomicFile(s.indexPath(index, key), data)
}
