package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// QueueFormation is the Redis list key for team formation jobs.
	QueueFormation = "worker:formation"
	// QueueDLQ is the dead-letter list for failed jobs. Jobs are not retried.
	QueueDLQ = "worker:dlq"
	// statusPrefix keys the per-job status documents.
	statusPrefix = "worker:status:"
	// StatusTTL is how long a job status stays readable.
	StatusTTL = 24 * time.Hour
	// DequeueBackoff is the delay after a failed dequeue.
	DequeueBackoff = 5 * time.Second
)

// ErrJobNotFound is returned for unknown or expired job ids.
var ErrJobNotFound = errors.New("job not found")

// JobType identifies the job kind.
type JobType string

const (
	JobTypeFormation JobType = "team_formation"
)

// FormationPayload is the payload for team formation jobs.
type FormationPayload struct {
	RequestedBy string `json:"requested_by"`
}

// Job is a generic job envelope.
type Job struct {
	ID        string          `json:"id"`
	Type      JobType         `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
	Error     string          `json:"error,omitempty"` // set on dead-lettered jobs
}

// State is the lifecycle stage of a job.
type State string

const (
	StateQueued    State = "queued"
	StateRunning   State = "running"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
)

// Status is the externally visible progress of a job.
type Status struct {
	ID        string    `json:"jobId"`
	State     State     `json:"state"`
	Teams     int       `json:"teams,omitempty"`
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Queue enqueues and dequeues jobs via Redis.
type Queue struct {
	client *redis.Client
	logger *zap.Logger
}

// NewQueue creates a new Redis-backed job queue.
func NewQueue(client *redis.Client, logger *zap.Logger) *Queue {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Queue{client: client, logger: logger}
}

// EnqueueFormation enqueues a team formation job and returns its id.
func (q *Queue) EnqueueFormation(ctx context.Context, requestedBy string) (string, error) {
	body, err := json.Marshal(FormationPayload{RequestedBy: requestedBy})
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	job := Job{
		ID:        uuid.New().String(),
		Type:      JobTypeFormation,
		Payload:   body,
		CreatedAt: time.Now(),
	}
	raw, err := json.Marshal(job)
	if err != nil {
		return "", fmt.Errorf("marshal job: %w", err)
	}
	if err := q.SetStatus(ctx, Status{ID: job.ID, State: StateQueued}); err != nil {
		return "", err
	}
	if err := q.client.RPush(ctx, QueueFormation, raw).Err(); err != nil {
		return "", fmt.Errorf("rpush: %w", err)
	}
	q.logger.Debug("enqueued formation job", zap.String("job_id", job.ID), zap.String("requested_by", requestedBy))
	return job.ID, nil
}

// Dequeue blocks until a job is available or ctx is done. A nil job with nil error means
// nothing usable was read.
func (q *Queue) Dequeue(ctx context.Context) (*Job, error) {
	result, err := q.client.BLPop(ctx, 0, QueueFormation).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	if len(result) < 2 {
		return nil, nil
	}
	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		q.logger.Warn("invalid job payload", zap.String("raw", result[1]), zap.Error(err))
		return nil, nil
	}
	return &job, nil
}

// DeadLetter moves a failed job to the DLQ with the failure reason.
func (q *Queue) DeadLetter(ctx context.Context, job *Job, cause error) error {
	job.Error = cause.Error()
	raw, err := json.Marshal(job)
	if err != nil {
		return err
	}
	if err := q.client.RPush(ctx, QueueDLQ, raw).Err(); err != nil {
		q.logger.Error("dlq push failed", zap.Error(err), zap.String("job_id", job.ID))
		return err
	}
	q.logger.Warn("job moved to DLQ", zap.String("job_id", job.ID), zap.Error(cause))
	return nil
}

// SetStatus stores the status of a job for StatusTTL.
func (q *Queue) SetStatus(ctx context.Context, s Status) error {
	s.UpdatedAt = time.Now().UTC()
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal status: %w", err)
	}
	if err := q.client.Set(ctx, statusPrefix+s.ID, raw, StatusTTL).Err(); err != nil {
		return fmt.Errorf("set status: %w", err)
	}
	return nil
}

// GetStatus returns the stored status of a job.
func (q *Queue) GetStatus(ctx context.Context, id string) (*Status, error) {
	raw, err := q.client.Get(ctx, statusPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get status: %w", err)
	}
	var s Status
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode status: %w", err)
	}
	return &s, nil
}
