package repositories

import (
	"context"

	"fiorella/internal/models"
)

// ProductRepository defines the interface for product data access.
// Reads return products with their category and images loaded.
type ProductRepository interface {
	List(ctx context.Context, offset, limit int) ([]models.Product, error)
	Count(ctx context.Context) (int64, error)
	// GetFullByID returns nil and no error when the product does not exist.
	GetFullByID(ctx context.Context, id uint) (*models.Product, error)
	// Create persists the product together with its images.
	Create(ctx context.Context, product *models.Product) error
	// Update persists the scalar fields only; the image set is left untouched.
	Update(ctx context.Context, product *models.Product) error
	// ReplaceImages swaps the whole image set of the product. When
	// withScalars is set the scalar fields are persisted in the same transaction.
	ReplaceImages(ctx context.Context, product *models.Product, images []models.ProductImage, withScalars bool) error
	// Delete removes the product and its image rows.
	Delete(ctx context.Context, id uint) error
}
