package auth

import (
	"context"
	"errors"

	"github.com/internhub/backend/internal/models"
	"github.com/internhub/backend/internal/store"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrUsernameTaken = errors.New("username already exists")
)

// Repository handles credential persistence in the Users collection.
type Repository struct {
	store store.Backend
}

// NewRepository creates an auth repository.
func NewRepository(backend store.Backend) *Repository {
	return &Repository{store: backend}
}

// GetByUsername returns the first credential with the given username.
func (r *Repository) GetByUsername(ctx context.Context, username string) (*models.Credential, error) {
	users, err := store.List[models.Credential](ctx, r.store, store.Users)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].Username == username {
			return &users[i], nil
		}
	}
	return nil, ErrUserNotFound
}

// List returns every credential without password hashes.
func (r *Repository) List(ctx context.Context) ([]models.CredentialPublic, error) {
	users, err := store.List[models.Credential](ctx, r.store, store.Users)
	if err != nil {
		return nil, err
	}
	list := make([]models.CredentialPublic, 0, len(users))
	for i := range users {
		list = append(list, users[i].ToPublic())
	}
	return list, nil
}

// Create appends a credential unless the username is already taken.
func (r *Repository) Create(ctx context.Context, cred models.Credential) error {
	return store.Mutate(ctx, r.store, store.Users, func(users []models.Credential) ([]models.Credential, error) {
		for _, u := range users {
			if u.Username == cred.Username {
				return nil, ErrUsernameTaken
			}
		}
		return append(users, cred), nil
	})
}
