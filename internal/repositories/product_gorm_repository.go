package repositories

import (
	"context"
	"errors"
	"fmt"

	"fiorella/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrProductNotFound is returned by writes that target a missing product.
var ErrProductNotFound = errors.New("product not found")

var scalarColumns = []string{"name", "description", "price", "count", "category_id", "updated_at"}

// GORMProductRepository is a GORM implementation of ProductRepository.
type GORMProductRepository struct {
	db *gorm.DB
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{
		db: db,
	}
}

func (r *GORMProductRepository) full(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Category").
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("product_images.id") })
}

// List retrieves one page of products ordered by primary key.
func (r *GORMProductRepository) List(ctx context.Context, offset, limit int) ([]models.Product, error) {
	var products []models.Product
	err := r.full(ctx).
		Order("products.id").
		Offset(offset).
		Limit(limit).
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// Count returns the total number of products.
func (r *GORMProductRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Product{}).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return total, nil
}

// GetFullByID retrieves a product with its category and images.
func (r *GORMProductRepository) GetFullByID(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	if err := r.full(ctx).First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get product by ID %d: %w", id, err)
	}
	return &product, nil
}

// Create inserts the product and its images in one transaction.
func (r *GORMProductRepository) Create(ctx context.Context, product *models.Product) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Omit("Category").Create(product).Error
	})
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// Update writes the scalar columns of an existing product.
func (r *GORMProductRepository) Update(ctx context.Context, product *models.Product) error {
	res := r.db.WithContext(ctx).
		Model(product).
		Omit(clause.Associations).
		Select(scalarColumns).
		Updates(product)
	if res.Error != nil {
		return fmt.Errorf("failed to update product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product with ID %d: %w", product.ID, ErrProductNotFound)
	}
	return nil
}

// ReplaceImages deletes the current image rows and inserts images in their place.
func (r *GORMProductRepository) ReplaceImages(ctx context.Context, product *models.Product, images []models.ProductImage, withScalars bool) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if withScalars {
			res := tx.Model(product).Omit(clause.Associations).Select(scalarColumns).Updates(product)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("product with ID %d: %w", product.ID, ErrProductNotFound)
			}
		}
		if err := tx.Where("product_id = ?", product.ID).Delete(&models.ProductImage{}).Error; err != nil {
			return err
		}
		for i := range images {
			images[i].ID = 0
			images[i].ProductID = product.ID
		}
		if len(images) > 0 {
			if err := tx.Create(&images).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to replace images of product %d: %w", product.ID, err)
	}
	product.Images = images
	return nil
}

// Delete removes a product and, in the same transaction, its images.
func (r *GORMProductRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", id).Delete(&models.ProductImage{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Product{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("product with ID %d: %w", id, ErrProductNotFound)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return nil
}
