package migrations

import (
	"database/sql"
)

func init() {
	Register(Migration{
		Version: 1,
		Name:    "user_profiles",
		Up:      userProfiles,
	})
}

func userProfiles(db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS user_profiles (
			user_id TEXT PRIMARY KEY,
			calendar_id TEXT NOT NULL DEFAULT '',
			access_token_encrypted BLOB,
			refresh_token_encrypted BLOB,
			token_type TEXT NOT NULL DEFAULT '',
			expiry DATETIME,
			keywords TEXT NOT NULL DEFAULT '',
			default_keyword TEXT NOT NULL DEFAULT '',
			compound_keywords TEXT NOT NULL DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
