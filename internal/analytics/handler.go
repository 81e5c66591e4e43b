// Package analytics serves admin dashboard counters.
package analytics

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/internhub/backend/internal/store"
	"github.com/internhub/backend/pkg/response"
)

// StatsResponse is the JSON shape of GET /stats.
type StatsResponse struct {
	TotalRoles   int `json:"totalRoles"`
	TotalModules int `json:"totalModules"`
}

// Handler handles GET /stats.
type Handler struct {
	store  store.Backend
	logger *zap.Logger
}

// NewHandler creates an analytics handler.
func NewHandler(backend store.Backend, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: backend, logger: logger}
}

// Stats handles GET /stats (admin).
func (h *Handler) Stats(c *gin.Context) {
	ctx := c.Request.Context()
	roles, err := store.Count(ctx, h.store, store.Users)
	if err != nil {
		h.logger.Error("count users failed", zap.Error(err))
		response.Internal(c, "failed to fetch stats")
		return
	}
	modules, err := store.Count(ctx, h.store, store.Modules)
	if err != nil {
		h.logger.Error("count modules failed", zap.Error(err))
		response.Internal(c, "failed to fetch stats")
		return
	}
	response.OK(c, StatsResponse{TotalRoles: roles, TotalModules: modules})
}
