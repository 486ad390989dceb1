package database

import (
	"database/sql"
	"time"

	_ "github.com/lib/pq"

	"github.com/crisiscare/crisiscare-backend/internal/logger"
)

// ConnectPostgres opens the archive database and makes sure its table exists.
func ConnectPostgres(postgresURI string) (*sql.DB, error) {
	db, err := sql.Open("postgres", postgresURI)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	logger.GetLogger().Info("✅ Connected to PostgreSQL")

	if err = InitPostgresTables(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// InitPostgresTables creates the archive table if it does not exist.
func InitPostgresTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS community_help_entries (
			id BIGINT PRIMARY KEY,
			role VARCHAR(255) NOT NULL,
			name VARCHAR(255) NOT NULL,
			email VARCHAR(255) NOT NULL,
			city VARCHAR(255) NOT NULL DEFAULT '',
			support_type VARCHAR(255) NOT NULL DEFAULT '',
			message TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_community_help_entries_email ON community_help_entries(email)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return err
		}
	}

	logger.GetLogger().Info("✅ PostgreSQL archive table initialized")
	return nil
}
