package auth

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/internhub/backend/internal/models"
	"github.com/internhub/backend/internal/session"
	"github.com/internhub/backend/pkg/response"
	"github.com/internhub/backend/pkg/utils"
)

// LoginRequest is the body for POST /auth/login.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse is the auth response with JWT.
type TokenResponse struct {
	Token string          `json:"token"`
	User  session.Session `json:"user"`
}

// CreateCredentialRequest is the body for POST /credentials. An empty password is
// replaced with a generated one.
type CreateCredentialRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password"`
	Role     string `json:"role" binding:"required"`
	Company  string `json:"company"`
}

// CreateCredentialResponse echoes the stored credential. GeneratedPassword is only set when
// the server chose the password; it is not retrievable later.
type CreateCredentialResponse struct {
	Message           string                  `json:"message"`
	AddedRole         models.CredentialPublic `json:"addedRole"`
	GeneratedPassword string                  `json:"generatedPassword,omitempty"`
}

// Handler handles auth and credential endpoints.
type Handler struct {
	repo   *Repository
	jwt    *JWTService
	logger *zap.Logger
}

// NewHandler creates an auth handler.
func NewHandler(repo *Repository, jwt *JWTService, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, jwt: jwt, logger: logger}
}

// Login handles POST /auth/login.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	cred, err := h.repo.GetByUsername(c.Request.Context(), strings.TrimSpace(req.Username))
	if errors.Is(err, ErrUserNotFound) {
		response.Unauthorized(c, "invalid username or password")
		return
	}
	if err != nil {
		h.logger.Error("load credential failed", zap.Error(err))
		response.Internal(c, "failed to load credentials")
		return
	}
	if !utils.CheckPassword(req.Password, cred.Password) {
		response.Unauthorized(c, "invalid username or password")
		return
	}

	sess := session.Session{Username: cred.Username, Role: cred.Role, Company: cred.Company}
	token, err := h.jwt.Generate(sess)
	if err != nil {
		response.Internal(c, "failed to generate token")
		return
	}
	response.OK(c, TokenResponse{Token: token, User: sess})
}

// Me handles GET /me.
func (h *Handler) Me(c *gin.Context) {
	sess, ok := session.From(c)
	if !ok {
		response.Unauthorized(c, "missing session")
		return
	}
	response.OK(c, sess)
}

// CreateCredential handles POST /credentials (admin).
func (h *Handler) CreateCredential(c *gin.Context) {
	var req CreateCredentialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	username := strings.TrimSpace(req.Username)
	if username == "" {
		response.BadRequest(c, "username is required")
		return
	}
	role, ok := models.ParseRole(req.Role)
	if !ok {
		response.BadRequest(c, "invalid role")
		return
	}

	password, generated := req.Password, ""
	if password == "" {
		var err error
		if password, err = utils.GeneratePassword(); err != nil {
			response.Internal(c, "failed to generate password")
			return
		}
		generated = password
	}
	hash, err := utils.HashPassword(password)
	if err != nil {
		response.Internal(c, "failed to hash password")
		return
	}

	cred := models.Credential{
		Username: username,
		Password: hash,
		Role:     role,
		Company:  strings.TrimSpace(req.Company),
	}
	if err := h.repo.Create(c.Request.Context(), cred); err != nil {
		if errors.Is(err, ErrUsernameTaken) {
			response.Conflict(c, err.Error())
			return
		}
		h.logger.Error("create credential failed", zap.Error(err))
		response.Internal(c, "failed to add role")
		return
	}
	h.logger.Info("credential created", zap.String("username", username), zap.String("role", string(role)))
	response.Created(c, CreateCredentialResponse{
		Message:           "Role added successfully",
		AddedRole:         cred.ToPublic(),
		GeneratedPassword: generated,
	})
}

// ListRoles handles GET /roles (admin).
func (h *Handler) ListRoles(c *gin.Context) {
	list, err := h.repo.List(c.Request.Context())
	if err != nil {
		h.logger.Error("list credentials failed", zap.Error(err))
		response.Internal(c, "failed to fetch roles")
		return
	}
	response.OK(c, list)
}
