package testutil

import (
	"context"
	"strings"
	"testing"
	"time"

	"canteen/internal/database"
	"canteen/internal/logging"

	"github.com/google/uuid"
)

// MemoryDSN returns a private shared-cache in-memory SQLite DSN for t.
func MemoryDSN(t *testing.T) string {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	return "file:" + name + "_" + uuid.NewString()[:8] + "?mode=memory&cache=shared"
}

// OpenGateway opens a migrated in-memory gateway closed via t.Cleanup.
func OpenGateway(t *testing.T, policy database.Policy) *database.Gateway {
	t.Helper()
	gw, err := database.Open(context.Background(), database.Config{
		URL:          MemoryDSN(t),
		Policy:       policy,
		MaxOpenConns: 4,
		QueryTimeout: 5 * time.Second,
		Logger:       logging.Discard(),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = gw.Close() })
	if err := gw.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return gw
}
