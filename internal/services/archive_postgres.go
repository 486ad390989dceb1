package services

import (
	"context"
	"database/sql"

	"github.com/crisiscare/crisiscare-backend/internal/models"
)

type PostgresArchive struct {
	db *sql.DB
}

func NewPostgresArchive(db *sql.DB) *PostgresArchive {
	return &PostgresArchive{db: db}
}

func (a *PostgresArchive) Name() string { return "postgres" }

func (a *PostgresArchive) Archive(ctx context.Context, entry models.Entry) error {
	_, err := a.db.ExecContext(ctx, `
		INSERT INTO community_help_entries (id, role, name, email, city, support_type, message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING
	`, entry.ID, entry.Role, entry.Name, entry.Email, entry.City, entry.SupportType, entry.Message, entry.CreatedAt)
	return err
}
