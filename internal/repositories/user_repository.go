package repositories

import (
	"context"

	"fiorella/internal/models"
)

// UserRepository defines the interface for administrator accounts.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}
