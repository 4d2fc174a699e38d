package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/examforge/examforge/internal/model"
)

func TestSweepRespectsRetention(t *testing.T) {
	store := NewJobStore()

	expired := newJob("expired", "u1", model.JobCompleted)
	expired.UpdatedAt = time.Now().UTC().Add(-2 * time.Hour)
	store.Put(expired)

	recent := newJob("recent", "u1", model.JobFailed)
	store.Put(recent)

	s := NewSweeper(store, time.Hour, "@every 10m")
	s.Sweep()

	assert.Equal(t, 1, store.Len())
	_, exists := store.Get("recent")
	assert.True(t, exists)
}

func TestSweeperStartRejectsBadSchedule(t *testing.T) {
	s := NewSweeper(NewJobStore(), time.Hour, "not a schedule")
	require.Error(t, s.Start())
}

func TestSweeperStartStop(t *testing.T) {
	s := NewSweeper(NewJobStore(), time.Hour, "@every 10m")
	require.NoError(t, s.Start())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}
