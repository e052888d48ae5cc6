package database

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/omriShneor/telcal/internal/database/migrations"
)

type DB struct {
	*sql.DB
	cipher *tokenCipher
}

// New opens the sqlite database at dbPath and applies pending migrations.
// encryptionKey protects OAuth tokens at rest and must not be empty.
func New(dbPath, encryptionKey string) (*DB, error) {
	cipher, err := newTokenCipher(encryptionKey)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency, busy timeout to wait instead of failing,
	// and foreign keys for referential integrity
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := migrations.RunMigrations(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &DB{DB: db, cipher: cipher}, nil
}

func (d *DB) Close() error {
	return d.DB.Close()
}
