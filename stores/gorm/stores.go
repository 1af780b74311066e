package gorm

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/panyam/secrets"
)

// AutoMigrate runs database migrations for the accounts table
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&AccountModel{})
}

// Open connects to Postgres and migrates the schema
func Open(ctx context.Context, dsn string) (*AccountStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("opening postgres: %w", err)
	}
	if err := AutoMigrate(db.WithContext(ctx)); err != nil {
		return nil, fmt.Errorf("migrating: %w", err)
	}
	return NewAccountStore(db), nil
}

// AccountStore implements secrets.AccountStore using GORM.
// The *gorm.DB should be opened with TranslateError so unique violations
// surface as gorm.ErrDuplicatedKey.
type AccountStore struct {
	db *gorm.DB
}

func NewAccountStore(db *gorm.DB) *AccountStore {
	return &AccountStore{db: db}
}

func (s *AccountStore) Close(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *AccountStore) CreateAccount(ctx context.Context, account *secrets.Account) (*secrets.Account, error) {
	model := AccountToModel(account)
	model.ID = uuid.NewString()
	if err := s.db.WithContext(ctx).Create(model).Error; err != nil {
		return nil, s.translateCreateError(ctx, account, err)
	}
	return model.ToAccount(), nil
}

// translateCreateError works out which unique column was hit
func (s *AccountStore) translateCreateError(ctx context.Context, account *secrets.Account, err error) error {
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		return err
	}
	if account.Username != "" {
		var count int64
		if s.db.WithContext(ctx).Model(&AccountModel{}).Where("username = ?", account.Username).Count(&count); count > 0 {
			return secrets.ErrUsernameTaken
		}
	}
	return secrets.ErrProviderIDTaken
}

func (s *AccountStore) GetAccountByID(ctx context.Context, id string) (*secrets.Account, error) {
	return s.first(ctx, "id = ?", id)
}

func (s *AccountStore) GetAccountByUsername(ctx context.Context, username string) (*secrets.Account, error) {
	return s.first(ctx, "username = ?", username)
}

func (s *AccountStore) first(ctx context.Context, query string, args ...any) (*secrets.Account, error) {
	var model AccountModel
	if err := s.db.WithContext(ctx).First(&model, append([]any{query}, args...)...).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, secrets.ErrAccountNotFound
		}
		return nil, err
	}
	return model.ToAccount(), nil
}

func providerColumn(provider string) (string, error) {
	switch provider {
	case secrets.ProviderGoogle:
		return "google_id", nil
	case secrets.ProviderFacebook:
		return "facebook_id", nil
	}
	return "", fmt.Errorf("%w: %s", secrets.ErrUnknownProvider, provider)
}

func (s *AccountStore) FindOrCreateByProvider(ctx context.Context, provider, providerID string) (*secrets.Account, bool, error) {
	column, err := providerColumn(provider)
	if err != nil {
		return nil, false, err
	}
	if providerID == "" {
		return nil, false, fmt.Errorf("empty %s id", provider)
	}

	account, err := s.first(ctx, column+" = ?", providerID)
	if err == nil {
		return account, false, nil
	}
	if !errors.Is(err, secrets.ErrAccountNotFound) {
		return nil, false, err
	}

	fresh := &secrets.Account{}
	fresh.SetProviderID(provider, providerID)
	created, err := s.CreateAccount(ctx, fresh)
	if errors.Is(err, secrets.ErrProviderIDTaken) {
		// lost a race with a concurrent first login
		account, err := s.first(ctx, column+" = ?", providerID)
		return account, false, err
	}
	if err != nil {
		return nil, false, err
	}
	return created, true, nil
}

func (s *AccountStore) SetSecret(ctx context.Context, id, secret string) error {
	// map form so an empty secret is written too
	result := s.db.WithContext(ctx).Model(&AccountModel{}).Where("id = ?", id).Updates(map[string]any{
		"secret": secret,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return secrets.ErrAccountNotFound
	}
	return nil
}

// ListAccountsWithSecrets returns accounts in creation order
func (s *AccountStore) ListAccountsWithSecrets(ctx context.Context) ([]*secrets.Account, error) {
	var models []AccountModel
	err := s.db.WithContext(ctx).
		Where("secret IS NOT NULL AND secret <> ''").
		Order("created_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	accounts := make([]*secrets.Account, 0, len(models))
	for i := range models {
		accounts = append(accounts, models[i].ToAccount())
	}
	return accounts, nil
}

// Truncate deletes every account. Used by tests.
func (s *AccountStore) Truncate(ctx context.Context) error {
	return s.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&AccountModel{}).Error
}
