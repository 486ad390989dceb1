package database

import (
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crisiscare/crisiscare-backend/internal/logger"
)

func init() {
	logger.IsTest = true
}

func TestInitPostgresTables(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS community_help_entries").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE INDEX IF NOT EXISTS idx_community_help_entries_email").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, InitPostgresTables(db))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInitPostgresTables_StopsOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE").WillReturnError(errors.New("permission denied"))

	assert.Error(t, InitPostgresTables(db))
	assert.NoError(t, mock.ExpectationsWereMet())
}
