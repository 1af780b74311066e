package mongo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDatabaseName(t *testing.T) {
	assert.Equal(t, "userDB", databaseName("mongodb://localhost:27017/userDB"))
	assert.Equal(t, "userDB", databaseName("mongodb://localhost:27017"))
	assert.Equal(t, "userDB", databaseName("mongodb://localhost:27017/"))
	assert.Equal(t, "secrets", databaseName("mongodb+srv://u:p@cluster.example.net/secrets?retryWrites=true"))
}
