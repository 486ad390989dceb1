package services

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/crisiscare/crisiscare-backend/internal/models"
)

const entriesCollection = "community_help_entries"

type MongoArchive struct {
	col *mongo.Collection
}

func NewMongoArchive(db *mongo.Database) *MongoArchive {
	return &MongoArchive{col: db.Collection(entriesCollection)}
}

func (a *MongoArchive) Name() string { return "mongo" }

// Archive inserts entry keyed by its id; a replayed id is not an error.
func (a *MongoArchive) Archive(ctx context.Context, entry models.Entry) error {
	_, err := a.col.InsertOne(ctx, entry)
	if mongo.IsDuplicateKeyError(err) {
		return nil
	}
	return err
}
