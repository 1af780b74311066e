package gorm

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/panyam/secrets"
)

func TestAccountModelNullsEmptyUniqueColumns(t *testing.T) {
	model := AccountToModel(&secrets.Account{ID: "a1", GoogleID: "g-1"})
	assert.Nil(t, model.Username)
	assert.Nil(t, model.FacebookID)
	if assert.NotNil(t, model.GoogleID) {
		assert.Equal(t, "g-1", *model.GoogleID)
	}

	back := model.ToAccount()
	assert.Equal(t, "a1", back.ID)
	assert.Equal(t, "g-1", back.GoogleID)
	assert.Empty(t, back.Username)
}
