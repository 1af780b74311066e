package stores_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panyam/secrets/stores"
	"github.com/panyam/secrets/stores/fs"
)

func TestOpenFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	store, err := stores.Open(context.Background(), "file://"+dir)
	require.NoError(t, err)
	defer store.Close(context.Background())

	fsStore, ok := store.(*fs.AccountStore)
	require.True(t, ok)
	assert.Equal(t, dir, fsStore.StoragePath)
}

func TestOpenRejectsBadDSN(t *testing.T) {
	ctx := context.Background()
	for _, dsn := range []string{
		"redis://localhost:6379",
		"datastore://",
		"file://",
		"::not a url",
	} {
		_, err := stores.Open(ctx, dsn)
		assert.Error(t, err, dsn)
	}
}
