package gorm

import (
	"time"

	"github.com/panyam/secrets"
)

// AccountModel is the GORM model for accounts
type AccountModel struct {
	ID           string    `gorm:"primaryKey;size:64"`
	Username     *string   `gorm:"size:255;uniqueIndex"`
	PasswordHash string    `gorm:"size:255"`
	GoogleID     *string   `gorm:"size:255;uniqueIndex"`
	FacebookID   *string   `gorm:"size:255;uniqueIndex"`
	Secret       string    `gorm:"type:text"`
	CreatedAt    time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

func (AccountModel) TableName() string {
	return "accounts"
}

func (m *AccountModel) ToAccount() *secrets.Account {
	return &secrets.Account{
		ID:           m.ID,
		Username:     deref(m.Username),
		PasswordHash: m.PasswordHash,
		GoogleID:     deref(m.GoogleID),
		FacebookID:   deref(m.FacebookID),
		Secret:       m.Secret,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func AccountToModel(a *secrets.Account) *AccountModel {
	return &AccountModel{
		ID:           a.ID,
		Username:     nullable(a.Username),
		PasswordHash: a.PasswordHash,
		GoogleID:     nullable(a.GoogleID),
		FacebookID:   nullable(a.FacebookID),
		Secret:       a.Secret,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

// empty strings are stored as NULL so the unique indexes ignore them
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
