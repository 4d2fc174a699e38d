package database

import (
	"context"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CreateIndexes creates all necessary indexes for the collections
func CreateIndexes(ctx context.Context, db *MongoDB) error {
	slog.Info("Creating MongoDB indexes")

	if err := createUsageRecordIndexes(ctx, db); err != nil {
		return err
	}

	if err := createQuestionPoolIndexes(ctx, db); err != nil {
		return err
	}

	slog.Info("Successfully created all MongoDB indexes")
	return nil
}

func createUsageRecordIndexes(ctx context.Context, db *MongoDB) error {
	collection := db.GetCollection(CollectionUsageRecords)

	// The unique key index is what makes the upsert-based
	// check-and-increment safe under concurrent callers.
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "section", Value: 1},
				{Key: "day", Value: 1},
			},
			Options: options.Index().SetUnique(true).SetName("idx_user_section_day_unique"),
		},
		{
			Keys:    bson.D{{Key: "day", Value: 1}},
			Options: options.Index().SetName("idx_day"),
		},
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := collection.Indexes().CreateMany(ctxTimeout, indexes)
	if err != nil {
		return err
	}

	slog.Info("Created usage_records indexes")
	return nil
}

func createQuestionPoolIndexes(ctx context.Context, db *MongoDB) error {
	collection := db.GetCollection(CollectionQuestionPool)

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "section", Value: 1},
				{Key: "subsection", Value: 1},
				{Key: "difficulty", Value: 1},
			},
			Options: options.Index().SetName("idx_section_subsection_difficulty"),
		},
		{
			Keys:    bson.D{{Key: "used_by", Value: 1}},
			Options: options.Index().SetName("idx_used_by"),
		},
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := collection.Indexes().CreateMany(ctxTimeout, indexes)
	if err != nil {
		return err
	}

	slog.Info("Created question_pool indexes")
	return nil
}
