package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/examforge/examforge/internal/database"
	"github.com/examforge/examforge/internal/model"
	"github.com/examforge/examforge/internal/policy"
)

// MongoLedger stores usage counters in MongoDB. The check-and-increment
// is a single FindOneAndUpdate with an aggregation-pipeline update, so
// concurrent callers for the same (user, section, day) key serialize on
// the document and can never jointly exceed the cap.
type MongoLedger struct {
	collection *mongo.Collection
}

// NewMongoLedger creates a ledger backed by the usage_records collection
func NewMongoLedger(db *database.MongoDB) *MongoLedger {
	return &MongoLedger{
		collection: db.GetCollection(database.CollectionUsageRecords),
	}
}

// CheckAndIncrement implements Ledger
func (l *MongoLedger) CheckAndIncrement(ctx context.Context, userID string, section model.Section, day string, requested, cap int) (int, int, error) {
	if cap == policy.Unlimited {
		// Unlimited roles are not accounted; no ledger write occurs.
		slog.Debug("Unlimited grant, skipping ledger write",
			"user_id", userID,
			"section", section,
			"requested", requested,
		)
		return requested, policy.Unlimited, nil
	}

	if requested <= 0 {
		current, err := l.Usage(ctx, userID, section, day)
		if err != nil {
			return 0, 0, err
		}
		_, remaining := grant(current, 0, cap)
		return 0, remaining, nil
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"user_id": userID,
		"section": section,
		"day":     day,
	}

	// count' = max(count, min(count + requested, cap)); the outer $max
	// keeps the counter monotonic even if the cap was lowered below an
	// already-spent count.
	current := bson.M{"$ifNull": bson.A{"$count", 0}}
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"user_id": userID,
			"section": section,
			"day":     day,
			"count": bson.M{"$max": bson.A{
				current,
				bson.M{"$min": bson.A{
					bson.M{"$add": bson.A{current, requested}},
					cap,
				}},
			}},
			"updated_at": time.Now().UTC(),
		}}},
	}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.Before)

	var before model.UsageRecord
	for attempt := 0; ; attempt++ {
		err := l.collection.FindOneAndUpdate(ctxTimeout, filter, update, opts).Decode(&before)
		if err == nil {
			break
		}
		if errors.Is(err, mongo.ErrNoDocuments) {
			// Upsert inserted a fresh record; the prior count was zero.
			before.Count = 0
			break
		}
		if attempt == 0 && isUpsertRace(err) {
			// Two first writes of the day raced on the unique
			// user+section+day index; the loser's document now exists,
			// so the retry is a plain atomic update.
			slog.Debug("Usage record upsert raced, retrying",
				"user_id", userID,
				"section", section,
				"day", day,
			)
			continue
		}
		return 0, 0, fmt.Errorf("%w: check-and-increment failed: %v", model.ErrLedgerUnavailable, err)
	}

	granted, remaining := grant(before.Count, requested, cap)

	slog.Debug("Ledger grant",
		"user_id", userID,
		"section", section,
		"day", day,
		"requested", requested,
		"granted", granted,
		"remaining", remaining,
	)

	return granted, remaining, nil
}

// isUpsertRace reports whether the error is the duplicate-key failure a
// concurrent upsert on the unique user+section+day index produces. It is
// transient: the key's document exists once the race is lost.
func isUpsertRace(err error) bool {
	return mongo.IsDuplicateKeyError(err)
}

// Usage implements Ledger
func (l *MongoLedger) Usage(ctx context.Context, userID string, section model.Section, day string) (int, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"user_id": userID,
		"section": section,
		"day":     day,
	}

	var record model.UsageRecord
	err := l.collection.FindOne(ctxTimeout, filter).Decode(&record)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: usage lookup failed: %v", model.ErrLedgerUnavailable, err)
	}

	return record.Count, nil
}
