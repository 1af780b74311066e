package gae_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/panyam/secrets"
	"github.com/panyam/secrets/stores/gae"
	"github.com/panyam/secrets/stores/storetest"
)

// Runs against the Datastore emulator:
//
//	gcloud beta emulators datastore start --no-store-on-disk
//	DATASTORE_EMULATOR_HOST=localhost:8081 go test ./stores/gae/
func TestAccountStore(t *testing.T) {
	if os.Getenv("DATASTORE_EMULATOR_HOST") == "" {
		t.Skip("DATASTORE_EMULATOR_HOST not set")
	}

	n := 0
	storetest.Run(t, func(t *testing.T) secrets.AccountStore {
		n++
		// a fresh namespace per test keeps runs isolated
		ns := fmt.Sprintf("test-%d-%d", time.Now().UnixNano(), n)
		store, err := gae.Open(context.Background(), "secrets-test", ns)
		require.NoError(t, err)
		t.Cleanup(func() { store.Close(context.Background()) })
		return store
	})
}
