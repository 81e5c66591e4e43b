package formation

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/internhub/backend/internal/session"
	"github.com/internhub/backend/pkg/queue"
	"github.com/internhub/backend/pkg/response"
)

// JobEnqueuer schedules a formation run on the background worker and reports its progress.
type JobEnqueuer interface {
	EnqueueFormation(ctx context.Context, requestedBy string) (jobID string, err error)
	GetStatus(ctx context.Context, id string) (*queue.Status, error)
}

// Handler exposes team formation and team views over HTTP.
type Handler struct {
	svc        *Service
	jobs       JobEnqueuer
	runTimeout time.Duration
	logger     *zap.Logger
}

// NewHandler creates a formation handler. jobs may be nil when no queue is configured.
func NewHandler(svc *Service, jobs JobEnqueuer, runTimeout time.Duration, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, jobs: jobs, runTimeout: runTimeout, logger: logger}
}

// Form handles POST /team-formation (admin). The run is detached from the request so a
// client disconnect does not abort it halfway.
func (h *Handler) Form(c *gin.Context) {
	ctx := context.WithoutCancel(c.Request.Context())
	if h.runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.runTimeout)
		defer cancel()
	}
	set, err := h.svc.Run(ctx)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.OK(c, set)
}

// Enqueue handles POST /team-formation/jobs (admin).
func (h *Handler) Enqueue(c *gin.Context) {
	if h.jobs == nil {
		response.ServiceUnavailable(c, "background formation is not configured")
		return
	}
	sess, _ := session.From(c)
	id, err := h.jobs.EnqueueFormation(c.Request.Context(), sess.Username)
	if err != nil {
		h.logger.Error("enqueue formation failed", zap.Error(err))
		response.Internal(c, "failed to enqueue team formation")
		return
	}
	response.Accepted(c, gin.H{"jobId": id})
}

// Job handles GET /team-formation/jobs/:id (admin).
func (h *Handler) Job(c *gin.Context) {
	if h.jobs == nil {
		response.ServiceUnavailable(c, "background formation is not configured")
		return
	}
	st, err := h.jobs.GetStatus(c.Request.Context(), c.Param("id"))
	if errors.Is(err, queue.ErrJobNotFound) {
		response.NotFound(c, "job not found")
		return
	}
	if err != nil {
		h.logger.Error("job status lookup failed", zap.Error(err))
		response.Internal(c, "failed to load job status")
		return
	}
	response.OK(c, st)
}

// List handles GET /teams (admin).
func (h *Handler) List(c *gin.Context) {
	teams, err := h.svc.Teams(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.OK(c, gin.H{"teams": teams})
}

// Mine handles GET /teams/me.
func (h *Handler) Mine(c *gin.Context) {
	sess, ok := session.From(c)
	if !ok {
		response.Unauthorized(c, "missing session")
		return
	}
	m, err := h.svc.MembershipOf(c.Request.Context(), sess.Username)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.OK(c, m)
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrFormationInProgress):
		response.Conflict(c, err.Error())
	case IsDataIntegrity(err):
		h.logger.Error("team formation data error", zap.Error(err))
		response.UnprocessableEntity(c, err.Error())
	case errors.Is(err, ErrDelegateUnavailable):
		response.BadGateway(c, ErrDelegateUnavailable.Error())
	case errors.Is(err, ErrEmptyCompletion):
		response.BadGateway(c, ErrEmptyCompletion.Error())
	case errors.Is(err, ErrSchemaMismatch):
		response.BadGateway(c, ErrSchemaMismatch.Error())
	default:
		h.logger.Error("team formation request failed", zap.Error(err))
		response.Internal(c, "failed to create teams")
	}
}
