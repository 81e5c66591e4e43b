package quiz

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/internhub/backend/internal/models"
	"github.com/internhub/backend/internal/session"
	"github.com/internhub/backend/internal/store"
	"github.com/internhub/backend/pkg/response"
)

// SubmitRequest is the body for POST /quiz. Username defaults to the caller.
type SubmitRequest struct {
	Username string          `json:"username"`
	Answers  []models.Answer `json:"answers" binding:"required"`
}

// Handler handles quiz HTTP endpoints.
type Handler struct {
	store  store.Backend
	logger *zap.Logger
}

// NewHandler creates a quiz handler.
func NewHandler(backend store.Backend, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: backend, logger: logger}
}

// Questions handles GET /quiz/questions.
func (h *Handler) Questions(c *gin.Context) {
	questions, err := store.List[models.Question](c.Request.Context(), h.store, store.Questions)
	if err != nil {
		h.writeStoreError(c, err, "failed to load questions")
		return
	}
	response.OK(c, questions)
}

// Submit handles POST /quiz.
func (h *Handler) Submit(c *gin.Context) {
	sess, ok := session.From(c)
	if !ok {
		response.Unauthorized(c, "missing session")
		return
	}
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid data format")
		return
	}
	username := strings.TrimSpace(req.Username)
	switch {
	case username == "":
		username = sess.Username
	case username != sess.Username && !sess.IsAdmin():
		response.Forbidden(c, "cannot submit answers for another user")
		return
	}

	questions, err := store.List[models.Question](c.Request.Context(), h.store, store.Questions)
	if err != nil {
		h.writeStoreError(c, err, "failed to load questions")
		return
	}
	if err := ValidateAnswers(questions, req.Answers); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	entry := models.QuizResponse{Username: username, Answers: req.Answers}
	if err := store.Append(c.Request.Context(), h.store, store.QuizResponses, entry); err != nil {
		h.writeStoreError(c, err, "failed to save quiz results")
		return
	}
	h.logger.Info("quiz submitted", zap.String("username", username), zap.Int("answers", len(req.Answers)))
	response.Created(c, gin.H{"message": "Quiz results saved successfully"})
}

// ValidateAnswers checks a submission against the catalogue: one answer per question, radio
// answers are option indices and slider answers are within the rating range.
func ValidateAnswers(questions []models.Question, answers []models.Answer) error {
	if len(answers) != len(questions) {
		return fmt.Errorf("expected %d answers, got %d", len(questions), len(answers))
	}
	for i, q := range questions {
		a := int(answers[i])
		switch q.Type {
		case models.QuestionRadio:
			if a < 0 || a >= len(q.Options) {
				return fmt.Errorf("question %d: option %d out of range", q.ID, a)
			}
		case models.QuestionSlider:
			if a < models.SliderMin || a > models.SliderMax {
				return fmt.Errorf("question %d: rating must be between %d and %d", q.ID, models.SliderMin, models.SliderMax)
			}
		default:
			return fmt.Errorf("question %d: unsupported type %q", q.ID, q.Type)
		}
	}
	return nil
}

func (h *Handler) writeStoreError(c *gin.Context, err error, msg string) {
	h.logger.Error(msg, zap.Error(err))
	if errors.Is(err, store.ErrMalformedCollection) {
		response.UnprocessableEntity(c, err.Error())
		return
	}
	response.Internal(c, msg)
}
