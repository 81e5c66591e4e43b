// Package modules manages learning modules and their course content.
package modules

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/internhub/backend/internal/models"
	"github.com/internhub/backend/internal/store"
	"github.com/internhub/backend/pkg/response"
	"github.com/internhub/backend/pkg/storage"
)

// CreateResponse is returned by POST /modules.
type CreateResponse struct {
	Message     string        `json:"message"`
	AddedModule models.Module `json:"addedModule"`
}

// Handler handles module HTTP endpoints.
type Handler struct {
	store    store.Backend
	uploads  storage.Uploader
	maxBytes int64
	logger   *zap.Logger
}

// NewHandler creates a modules handler. maxBytes limits the summary PDF size; 0 means no
// limit.
func NewHandler(backend store.Backend, uploads storage.Uploader, maxBytes int64, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: backend, uploads: uploads, maxBytes: maxBytes, logger: logger}
}

// List handles GET /modules and GET /courses.
func (h *Handler) List(c *gin.Context) {
	list, err := store.List[models.Module](c.Request.Context(), h.store, store.Modules)
	if err != nil {
		h.logger.Error("list modules failed", zap.Error(err))
		if errors.Is(err, store.ErrMalformedCollection) {
			response.UnprocessableEntity(c, err.Error())
			return
		}
		response.Internal(c, "failed to fetch modules")
		return
	}
	response.OK(c, list)
}

// Create handles POST /modules (admin, multipart form).
func (h *Handler) Create(c *gin.Context) {
	module, err := parseModuleForm(c)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	file, err := c.FormFile("summaryPdf")
	switch {
	case err == nil:
		if h.maxBytes > 0 && file.Size > h.maxBytes {
			response.BadRequest(c, fmt.Sprintf("summary file exceeds %d bytes", h.maxBytes))
			return
		}
		src, err := file.Open()
		if err != nil {
			response.BadRequest(c, "cannot read summary file")
			return
		}
		defer src.Close()
		ref, err := h.uploads.Save(c.Request.Context(), file.Filename, file.Header.Get("Content-Type"), src, file.Size)
		if errors.Is(err, storage.ErrInvalidName) {
			response.BadRequest(c, "invalid summary file name")
			return
		}
		if err != nil {
			h.logger.Error("save summary file failed", zap.Error(err), zap.String("file", file.Filename))
			response.Internal(c, "failed to save summary file")
			return
		}
		module.Content[0].SummaryPDF = ref
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		// no summary attached
	default:
		response.BadRequest(c, "invalid summary file")
		return
	}

	if err := store.Append(c.Request.Context(), h.store, store.Modules, module); err != nil {
		h.logger.Error("save module failed", zap.Error(err))
		response.Internal(c, "failed to save module")
		return
	}
	h.logger.Info("module added", zap.String("module", module.ModuleName), zap.String("course", module.Content[0].Name))
	response.Created(c, CreateResponse{Message: "Module added successfully", AddedModule: module})
}

// parseModuleForm builds a single-course module from the form fields.
func parseModuleForm(c *gin.Context) (models.Module, error) {
	moduleName := strings.TrimSpace(c.PostForm("moduleName"))
	contentName := strings.TrimSpace(c.PostForm("contentName"))
	if moduleName == "" || contentName == "" {
		return models.Module{}, errors.New("moduleName and contentName are required")
	}
	access := models.Access(strings.ToUpper(strings.TrimSpace(c.PostForm("access"))))
	if access != models.AccessPublic && access != models.AccessPrivate {
		return models.Module{}, errors.New("access must be PUBLIC or PRIVATE")
	}

	course := models.Course{
		Name:   contentName,
		Videos: splitList(c.PostForm("videos"), "\n"),
		Tags:   splitList(c.PostForm("tags"), ","),
		Access: access,
	}
	if raw := strings.TrimSpace(c.PostForm("accessor")); raw != "" && access == models.AccessPublic {
		var accessor []string
		if err := json.Unmarshal([]byte(raw), &accessor); err != nil {
			return models.Module{}, errors.New("accessor must be a JSON array of company names")
		}
		course.Accessor = accessor
	}
	return models.Module{ModuleName: moduleName, Content: []models.Course{course}}, nil
}

func splitList(s, sep string) []string {
	out := []string{}
	for _, part := range strings.Split(s, sep) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
