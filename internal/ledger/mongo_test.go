package ledger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/mongo"
)

// A concurrent first-write-of-day upsert loses to the unique
// user+section+day index with E11000; that is a retryable race, not a
// ledger outage.
func TestIsUpsertRace(t *testing.T) {
	dup := mongo.WriteException{
		WriteErrors: mongo.WriteErrors{{Code: 11000, Message: "E11000 duplicate key error"}},
	}
	assert.True(t, isUpsertRace(dup))

	dupCmd := mongo.CommandError{Code: 11000, Message: "E11000 duplicate key error"}
	assert.True(t, isUpsertRace(dupCmd))

	assert.False(t, isUpsertRace(mongo.CommandError{Code: 50, Message: "operation exceeded time limit"}))
	assert.False(t, isUpsertRace(errors.New("connection refused")))
	assert.False(t, isUpsertRace(mongo.ErrNoDocuments))
}
