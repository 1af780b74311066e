package gae

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"cloud.google.com/go/datastore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"

	"github.com/panyam/secrets"
)

// Concurrent first logins for one provider id contend on the same marker
const maxAttempts = 10

// AccountStore implements secrets.AccountStore using Google Cloud Datastore
type AccountStore struct {
	client    *datastore.Client
	namespace string
}

// NewAccountStore creates a new Datastore-backed AccountStore
func NewAccountStore(client *datastore.Client, namespace string) *AccountStore {
	return &AccountStore{client: client, namespace: namespace}
}

// Open creates a client for projectID. DATASTORE_EMULATOR_HOST is honored by
// the client library.
func Open(ctx context.Context, projectID, namespace string) (*AccountStore, error) {
	client, err := datastore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating datastore client: %w", err)
	}
	return NewAccountStore(client, namespace), nil
}

func (s *AccountStore) Close(ctx context.Context) error {
	return s.client.Close()
}

func (s *AccountStore) namespacedKey(kind, name string) *datastore.Key {
	key := datastore.NameKey(kind, name, nil)
	key.Namespace = s.namespace
	return key
}

// markerKey prefixes the value since names of the form __*__ are reserved
func (s *AccountStore) markerKey(kind, value string) *datastore.Key {
	return s.namespacedKey(kind, "v:"+value)
}

func markerKind(provider string) (string, error) {
	switch provider {
	case secrets.ProviderGoogle:
		return KindGoogleID, nil
	case secrets.ProviderFacebook:
		return KindFacebookID, nil
	}
	return "", fmt.Errorf("%w: %s", secrets.ErrUnknownProvider, provider)
}

func (s *AccountStore) CreateAccount(ctx context.Context, account *secrets.Account) (*secrets.Account, error) {
	var out *secrets.Account
	_, err := s.client.RunInTransaction(ctx, func(tx *datastore.Transaction) error {
		var err error
		out, err = s.createInTx(tx, account)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *AccountStore) createInTx(tx *datastore.Transaction, account *secrets.Account) (*secrets.Account, error) {
	type marker struct {
		kind, value string
		taken       error
	}
	markers := []marker{
		{KindUsername, account.Username, secrets.ErrUsernameTaken},
		{KindGoogleID, account.GoogleID, secrets.ErrProviderIDTaken},
		{KindFacebookID, account.FacebookID, secrets.ErrProviderIDTaken},
	}

	out := *account
	out.ID = uuid.NewString()
	now := time.Now().UTC()
	out.CreatedAt = now
	out.UpdatedAt = now

	for _, m := range markers {
		if m.value == "" {
			continue
		}
		key := s.markerKey(m.kind, m.value)
		var existing MarkerEntity
		err := tx.Get(key, &existing)
		if err == nil {
			return nil, m.taken
		}
		if !errors.Is(err, datastore.ErrNoSuchEntity) {
			return nil, err
		}
		if _, err := tx.Put(key, &MarkerEntity{AccountID: out.ID, CreatedAt: now}); err != nil {
			return nil, err
		}
	}

	key := s.namespacedKey(KindAccount, out.ID)
	if _, err := tx.Put(key, AccountToEntity(&out, key)); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *AccountStore) GetAccountByID(ctx context.Context, id string) (*secrets.Account, error) {
	var entity AccountEntity
	if err := s.client.Get(ctx, s.namespacedKey(KindAccount, id), &entity); err != nil {
		if errors.Is(err, datastore.ErrNoSuchEntity) {
			return nil, secrets.ErrAccountNotFound
		}
		return nil, err
	}
	return entity.ToAccount(), nil
}

func (s *AccountStore) GetAccountByUsername(ctx context.Context, username string) (*secrets.Account, error) {
	var marker MarkerEntity
	if err := s.client.Get(ctx, s.markerKey(KindUsername, username), &marker); err != nil {
		if errors.Is(err, datastore.ErrNoSuchEntity) {
			return nil, secrets.ErrAccountNotFound
		}
		return nil, err
	}
	return s.GetAccountByID(ctx, marker.AccountID)
}

func (s *AccountStore) FindOrCreateByProvider(ctx context.Context, provider, providerID string) (*secrets.Account, bool, error) {
	kind, err := markerKind(provider)
	if err != nil {
		return nil, false, err
	}
	if providerID == "" {
		return nil, false, fmt.Errorf("empty %s id", provider)
	}

	var account *secrets.Account
	var created bool
	_, err = s.client.RunInTransaction(ctx, func(tx *datastore.Transaction) error {
		created = false
		var marker MarkerEntity
		err := tx.Get(s.markerKey(kind, providerID), &marker)
		if err == nil {
			var entity AccountEntity
			if err := tx.Get(s.namespacedKey(KindAccount, marker.AccountID), &entity); err != nil {
				return err
			}
			account = entity.ToAccount()
			return nil
		}
		if !errors.Is(err, datastore.ErrNoSuchEntity) {
			return err
		}

		fresh := &secrets.Account{}
		fresh.SetProviderID(provider, providerID)
		account, err = s.createInTx(tx, fresh)
		created = err == nil
		return err
	}, datastore.MaxAttempts(maxAttempts))
	if err != nil {
		return nil, false, err
	}
	return account, created, nil
}

func (s *AccountStore) SetSecret(ctx context.Context, id, secret string) error {
	key := s.namespacedKey(KindAccount, id)
	_, err := s.client.RunInTransaction(ctx, func(tx *datastore.Transaction) error {
		var entity AccountEntity
		if err := tx.Get(key, &entity); err != nil {
			if errors.Is(err, datastore.ErrNoSuchEntity) {
				return secrets.ErrAccountNotFound
			}
			return err
		}
		entity.Secret = secret
		entity.HasSecret = secret != ""
		entity.UpdatedAt = time.Now().UTC()
		_, err := tx.Put(key, &entity)
		return err
	})
	return err
}

// ListAccountsWithSecrets returns accounts in creation order. Sorting happens
// here so the query needs no composite index.
func (s *AccountStore) ListAccountsWithSecrets(ctx context.Context) ([]*secrets.Account, error) {
	query := datastore.NewQuery(KindAccount).
		FilterField("has_secret", "=", true)
	if s.namespace != "" {
		query = query.Namespace(s.namespace)
	}

	var accounts []*secrets.Account
	it := s.client.Run(ctx, query)
	for {
		var entity AccountEntity
		_, err := it.Next(&entity)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, entity.ToAccount())
	}
	sort.SliceStable(accounts, func(i, j int) bool {
		return accounts[i].CreatedAt.Before(accounts[j].CreatedAt)
	})
	return accounts, nil
}
