package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newQueue(t *testing.T) (*miniredis.Miniredis, *Queue) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, NewQueue(client, nil)
}

func TestFormationJobRoundTrip(t *testing.T) {
	mr, q := newQueue(t)
	ctx := context.Background()

	id, err := q.EnqueueFormation(ctx, "admin")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	st, err := q.GetStatus(ctx, id)
	require.NoError(t, err)
	require.Equal(t, StateQueued, st.State)
	require.Equal(t, StatusTTL, mr.TTL(statusPrefix+id))

	job, err := q.Dequeue(ctx)
	require.NoError(t, err)
	require.NotNil(t, job)
	require.Equal(t, id, job.ID)
	require.Equal(t, JobTypeFormation, job.Type)
	var payload FormationPayload
	require.NoError(t, json.Unmarshal(job.Payload, &payload))
	require.Equal(t, "admin", payload.RequestedBy)

	require.NoError(t, q.SetStatus(ctx, Status{ID: id, State: StateSucceeded, Teams: 3}))
	st, err = q.GetStatus(ctx, id)
	require.NoError(t, err)
	require.Equal(t, StateSucceeded, st.State)
	require.Equal(t, 3, st.Teams)
	require.False(t, st.UpdatedAt.IsZero())
}

func TestDeadLetterKeepsFailureReason(t *testing.T) {
	mr, q := newQueue(t)
	ctx := context.Background()

	_, err := q.EnqueueFormation(ctx, "admin")
	require.NoError(t, err)
	job, err := q.Dequeue(ctx)
	require.NoError(t, err)

	require.NoError(t, q.DeadLetter(ctx, job, errors.New("delegate unavailable")))
	dead, err := mr.List(QueueDLQ)
	require.NoError(t, err)
	require.Len(t, dead, 1)

	var stored Job
	require.NoError(t, json.Unmarshal([]byte(dead[0]), &stored))
	require.Equal(t, job.ID, stored.ID)
	require.Equal(t, "delegate unavailable", stored.Error)
	require.False(t, mr.Exists(QueueFormation))
}

func TestDequeueSkipsGarbage(t *testing.T) {
	mr, q := newQueue(t)
	_, err := mr.Lpush(QueueFormation, "not json")
	require.NoError(t, err)

	job, err := q.Dequeue(context.Background())
	require.NoError(t, err)
	require.Nil(t, job)
}

func TestGetStatusUnknownJob(t *testing.T) {
	mr, q := newQueue(t)
	ctx := context.Background()
	_, err := q.GetStatus(ctx, "missing")
	require.ErrorIs(t, err, ErrJobNotFound)

	id, err := q.EnqueueFormation(ctx, "admin")
	require.NoError(t, err)
	mr.FastForward(StatusTTL)
	_, err = q.GetStatus(ctx, id)
	require.ErrorIs(t, err, ErrJobNotFound)
}
