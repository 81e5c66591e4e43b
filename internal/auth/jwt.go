package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/internhub/backend/internal/models"
	"github.com/internhub/backend/internal/session"
)

var (
	ErrInvalidToken = errors.New("invalid token")
)

// Claims holds the session fields signed into a token.
type Claims struct {
	Username string      `json:"username"`
	Role     models.Role `json:"role"`
	Company  string      `json:"company,omitempty"`
	jwt.RegisteredClaims
}

// Session converts the claims into a request session.
func (c *Claims) Session() session.Session {
	return session.Session{Username: c.Username, Role: c.Role, Company: c.Company}
}

// JWTService handles token generation and validation.
type JWTService struct {
	secret      []byte
	expireHours int
}

// NewJWTService creates a JWT service.
func NewJWTService(secret string, expireHours int) *JWTService {
	return &JWTService{
		secret:      []byte(secret),
		expireHours: expireHours,
	}
}

// Generate signs a token for the session.
func (s *JWTService) Generate(sess session.Session) (string, error) {
	now := time.Now()
	claims := Claims{
		Username: sess.Username,
		Role:     sess.Role,
		Company:  sess.Company,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sess.Username,
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(s.expireHours) * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.New().String(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Validate parses and validates a JWT, returning claims or error.
func (s *JWTService) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Username == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
