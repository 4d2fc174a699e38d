package pool

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
)

// poolItem is the question_pool document shape. used_by carries the set
// of user ids the item has already been served to.
type poolItem struct {
	ID           string              `bson:"_id"`
	Section      model.Section       `bson:"section"`
	Subsection   string              `bson:"subsection,omitempty"`
	Difficulty   model.Difficulty    `bson:"difficulty"`
	Prompt       string              `bson:"prompt,omitempty"`
	Choices      []string            `bson:"choices,omitempty"`
	Answer       int                 `bson:"answer"`
	Explanation  string              `bson:"explanation,omitempty"`
	Passage      string              `bson:"passage,omitempty"`
	SubQuestions []model.SubQuestion `bson:"sub_questions,omitempty"`
	UsedBy       []string            `bson:"used_by,omitempty"`
}

// MongoPool serves questions from the question_pool collection. Each
// item is claimed with an atomic FindOneAndUpdate that appends the user
// to used_by, so concurrent takers never receive the same item twice
// for the same user.
type MongoPool struct {
	collection *mongo.Collection
}

// NewMongoPool creates a pool backed by the question_pool collection
func NewMongoPool(db *database.MongoDB) *MongoPool {
	return &MongoPool{
		collection: db.GetCollection(database.CollectionQuestionPool),
	}
}

// Take implements Source
func (p *MongoPool) Take(ctx context.Context, userID string, section model.Section, subsection string, difficulty model.Difficulty, count int) ([]model.Question, error) {
	if count <= 0 {
		return nil, nil
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	filter := bson.M{
		"section":    section,
		"difficulty": difficulty,
		"used_by":    bson.M{"$ne": userID},
	}
	if subsection != "" {
		filter["subsection"] = subsection
	}

	update := bson.M{
		"$addToSet": bson.M{"used_by": userID},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	taken := make([]model.Question, 0, count)
	for len(taken) < count {
		var item poolItem
		err := p.collection.FindOneAndUpdate(ctxTimeout, filter, update, opts).Decode(&item)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				// Pool exhausted for this user; return what we have.
				break
			}
			if len(taken) > 0 {
				// Items already claimed stay claimed; deliver them.
				slog.Warn("Pool claim failed mid-fetch",
					"section", section,
					"claimed", len(taken),
					"error", err.Error(),
				)
				break
			}
			return nil, fmt.Errorf("%w: %v", model.ErrPoolUnavailable, err)
		}

		taken = append(taken, item.toQuestion())
	}

	slog.Debug("Pool fetch",
		"user_id", userID,
		"section", section,
		"difficulty", difficulty,
		"requested", count,
		"taken", len(taken),
	)

	return taken, nil
}

func (pi *poolItem) toQuestion() model.Question {
	return model.Question{
		ID:           pi.ID,
		Section:      pi.Section,
		Subsection:   pi.Subsection,
		Difficulty:   pi.Difficulty,
		Prompt:       pi.Prompt,
		Choices:      pi.Choices,
		Answer:       pi.Answer,
		Explanation:  pi.Explanation,
		Passage:      pi.Passage,
		SubQuestions: pi.SubQuestions,
		Source:       model.SourcePool,
	}
}
