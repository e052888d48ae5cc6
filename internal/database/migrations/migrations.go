package migrations

import (
	"database/sql"
	"fmt"
	"sort"

	"github.com/omriShneor/telcal/internal/log"
)

// Migration represents a database migration
type Migration struct {
	Version int
	Name    string
	Up      func(*sql.DB) error
}

// registry holds all registered migrations
var registry []Migration

// Register adds a migration to the registry
func Register(m Migration) {
	registry = append(registry, m)
}

// RunMigrations executes all pending migrations in version order
func RunMigrations(db *sql.DB) error {
	logger := log.WithComponent("migrations")

	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema_migrations table: %w", err)
	}

	applied, err := appliedVersions(db)
	if err != nil {
		return err
	}

	sort.Slice(registry, func(i, j int) bool {
		return registry[i].Version < registry[j].Version
	})

	for _, m := range registry {
		if applied[m.Version] {
			continue
		}

		logger.Info().Int("version", m.Version).Str("name", m.Name).Msg("running migration")

		if err := m.Up(db); err != nil {
			return fmt.Errorf("migration %d (%s) failed: %w", m.Version, m.Name, err)
		}

		_, err := db.Exec(
			"INSERT INTO schema_migrations (version, name) VALUES (?, ?)",
			m.Version, m.Name,
		)
		if err != nil {
			return fmt.Errorf("failed to record migration %d: %w", m.Version, err)
		}
	}

	return nil
}

func appliedVersions(db *sql.DB) (map[int]bool, error) {
	rows, err := db.Query("SELECT version FROM schema_migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to query schema_migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("failed to scan version: %w", err)
		}
		applied[version] = true
	}
	return applied, rows.Err()
}
