package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/internhub/backend/internal/models"
	"github.com/internhub/backend/pkg/queue"
)

// Former runs one team formation.
type Former interface {
	Run(ctx context.Context) (*models.TeamSet, error)
}

// Jobs is the queue surface used by the processor.
type Jobs interface {
	Dequeue(ctx context.Context) (*queue.Job, error)
	DeadLetter(ctx context.Context, job *queue.Job, cause error) error
	SetStatus(ctx context.Context, s queue.Status) error
}

// FormationProcessor consumes team formation jobs. Failed jobs are dead-lettered, not
// retried: each run calls the completion service and replaces the stored teams.
type FormationProcessor struct {
	former     Former
	jobs       Jobs
	runTimeout time.Duration
	logger     *zap.Logger
}

// NewFormationProcessor creates a team formation processor.
func NewFormationProcessor(former Former, jobs Jobs, runTimeout time.Duration, logger *zap.Logger) *FormationProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FormationProcessor{former: former, jobs: jobs, runTimeout: runTimeout, logger: logger}
}

// Process executes one formation job and records its status.
func (p *FormationProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeFormation {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.FormationPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}
	p.setStatus(ctx, queue.Status{ID: job.ID, State: queue.StateRunning})

	runCtx := ctx
	if p.runTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, p.runTimeout)
		defer cancel()
	}
	set, err := p.former.Run(runCtx)
	if err != nil {
		p.setStatus(ctx, queue.Status{ID: job.ID, State: queue.StateFailed, Error: err.Error()})
		return err
	}
	p.setStatus(ctx, queue.Status{ID: job.ID, State: queue.StateSucceeded, Teams: len(set.Teams)})
	p.logger.Info("formation job completed",
		zap.String("job_id", job.ID),
		zap.String("requested_by", payload.RequestedBy),
		zap.Int("teams", len(set.Teams)),
	)
	return nil
}

func (p *FormationProcessor) setStatus(ctx context.Context, s queue.Status) {
	if err := p.jobs.SetStatus(ctx, s); err != nil {
		p.logger.Warn("update job status failed", zap.String("job_id", s.ID), zap.Error(err))
	}
}

// Run starts the worker loop: dequeue, process, dead-letter on error.
func (p *FormationProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("formation worker stopping")
			return
		default:
		}

		job, err := p.jobs.Dequeue(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				continue
			}
			p.logger.Warn("dequeue error", zap.Error(err))
			sleep(ctx, queue.DequeueBackoff)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if dlErr := p.jobs.DeadLetter(ctx, job, err); dlErr != nil {
				p.logger.Error("dead-letter failed", zap.Error(dlErr))
			}
		}
	}
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
