package database

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestEncryptionKey is the key material used by NewTestDB.
const TestEncryptionKey = "test-encryption-key"

// NewTestDB creates an in-memory SQLite database for testing.
// The database is automatically closed when the test completes.
func NewTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(":memory:", TestEncryptionKey)
	require.NoError(t, err, "failed to create test database")

	// A second pooled connection would see a different in-memory database.
	db.SetMaxOpenConns(1)

	t.Cleanup(func() {
		db.Close()
	})

	return db
}
