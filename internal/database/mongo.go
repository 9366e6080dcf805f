package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
	"go.uber.org/zap"
)

const (
	connectTimeout = 10 * time.Second
	pingTimeout    = 5 * time.Second
)

// Collection names shared across services.
const (
	CollectionUsers          = "users"
	CollectionGroups         = "groups"
	CollectionGroupUsers     = "groupusers"
	CollectionMessages       = "messages"
	CollectionDetectedSounds = "detectedsounds"
	CollectionCustomFolders  = "customfolders"
	CollectionCustomSounds   = "customsounds"
	CollectionModels         = "models"
)

// Open establishes a MongoDB connection, verifies it and ensures indexes.
func Open(ctx context.Context, uri, databaseName string, logger *zap.Logger) (*mongo.Database, error) {
	if uri == "" {
		return nil, fmt.Errorf("mongo uri is required")
	}
	if databaseName == "" {
		return nil, fmt.Errorf("mongo database name is required")
	}

	client, err := mongo.Connect(options.Client().ApplyURI(uri).SetConnectTimeout(connectTimeout))
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	db := client.Database(databaseName)
	if err := ensureIndexes(ctx, db); err != nil {
		return nil, err
	}

	if logger != nil {
		logger.Info("database initialized", zap.String("database", databaseName))
	}

	return db, nil
}

// Close disconnects the client backing the database handle.
func Close(ctx context.Context, db *mongo.Database) error {
	if db == nil {
		return nil
	}
	return db.Client().Disconnect(ctx)
}

func ensureIndexes(ctx context.Context, db *mongo.Database) error {
	userIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
	}
	if _, err := db.Collection(CollectionUsers).Indexes().CreateMany(ctx, userIndexes); err != nil {
		return fmt.Errorf("create user indexes: %w", err)
	}

	membershipIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "userid", Value: 1}, {Key: "groupid", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "groupid", Value: 1}}},
	}
	if _, err := db.Collection(CollectionGroupUsers).Indexes().CreateMany(ctx, membershipIndexes); err != nil {
		return fmt.Errorf("create membership indexes: %w", err)
	}

	messageIndex := mongo.IndexModel{Keys: bson.D{{Key: "groupId", Value: 1}, {Key: "createdAt", Value: 1}}}
	if _, err := db.Collection(CollectionMessages).Indexes().CreateOne(ctx, messageIndex); err != nil {
		return fmt.Errorf("create message index: %w", err)
	}

	soundIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "userid", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "createdAt", Value: 1}}},
	}
	if _, err := db.Collection(CollectionDetectedSounds).Indexes().CreateMany(ctx, soundIndexes); err != nil {
		return fmt.Errorf("create detected sound indexes: %w", err)
	}

	libraryIndexes := map[string]mongo.IndexModel{
		CollectionCustomFolders: {Keys: bson.D{{Key: "groupId", Value: 1}}},
		CollectionCustomSounds:  {Keys: bson.D{{Key: "folderId", Value: 1}}},
		CollectionModels:        {Keys: bson.D{{Key: "groupId", Value: 1}}},
	}
	for name, model := range libraryIndexes {
		if _, err := db.Collection(name).Indexes().CreateOne(ctx, model); err != nil {
			return fmt.Errorf("create %s index: %w", name, err)
		}
	}

	return nil
}
