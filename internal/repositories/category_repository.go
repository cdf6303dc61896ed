package repositories

import (
	"context"

	"fiorella/internal/models"
)

// CategoryRepository defines the interface for category data access.
type CategoryRepository interface {
	GetAll(ctx context.Context) ([]models.Category, error)
	// GetByID returns nil and no error when the category does not exist.
	GetByID(ctx context.Context, id uint) (*models.Category, error)
	// GetByName returns nil and no error when no category has that name.
	GetByName(ctx context.Context, name string) (*models.Category, error)
	Create(ctx context.Context, category *models.Category) error
}
