package services

import (
	"context"

	"github.com/crisiscare/crisiscare-backend/internal/models"
)

// Archiver is a write-only copy of the entry stream kept outside the flat
// files. Archive failures are logged and never fail a submission.
type Archiver interface {
	Name() string
	Archive(ctx context.Context, entry models.Entry) error
}
