package database

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/crisiscare/crisiscare-backend/internal/logger"
)

const defaultMongoDB = "crisiscare"

// ConnectMongo connects, pings and returns the database named in the URI
// path (or "crisiscare").
func ConnectMongo(mongoURI string) (*mongo.Database, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	clientOptions := options.Client().ApplyURI(mongoURI)
	clientOptions.SetServerSelectionTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, err
	}

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer pingCancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, err
	}

	logger.GetLogger().Info("✅ Connected to MongoDB")
	return client.Database(MongoDBName(mongoURI)), nil
}

// MongoDBName extracts the database name from a mongodb:// or mongodb+srv://
// URI, falling back to the default.
func MongoDBName(mongoURI string) string {
	rest := mongoURI
	if i := strings.Index(rest, "://"); i != -1 {
		rest = rest[i+3:]
	}
	slash := strings.Index(rest, "/")
	if slash == -1 {
		return defaultMongoDB
	}
	name, _, _ := strings.Cut(rest[slash+1:], "?")
	if name == "" {
		return defaultMongoDB
	}
	return name
}

// DisconnectMongo closes the client behind db.
func DisconnectMongo(db *mongo.Database) error {
	if db == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return db.Client().Disconnect(ctx)
}
