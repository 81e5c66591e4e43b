package auth

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/internhub/backend/internal/models"
	"github.com/internhub/backend/internal/store"
	"github.com/internhub/backend/pkg/utils"
)

// EnsureAdmin creates an ADMIN credential when the Users collection is empty, so a fresh
// deployment can log in. It does nothing if username or password is blank.
func EnsureAdmin(ctx context.Context, backend store.Backend, username, password, company string, logger *zap.Logger) error {
	if username == "" || password == "" {
		return nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	hash, err := utils.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash bootstrap password: %w", err)
	}
	admin := models.Credential{Username: username, Password: hash, Role: models.RoleAdmin, Company: company}
	created, err := store.SeedIfEmpty(ctx, backend, store.Users, []models.Credential{admin})
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	if created {
		logger.Info("bootstrap admin created", zap.String("username", username))
	}
	return nil
}
