package services

import (
	"context"
	"errors"
	"fmt"

	"fiorella/internal/models"
	"fiorella/internal/repositories"
)

// ErrInvalidPage is returned for a page number below 1 or a non-positive page size.
var ErrInvalidPage = errors.New("page must be >= 1 and page size > 0")

// CatalogService handles the read side of the product catalog.
type CatalogService struct {
	repo repositories.ProductRepository
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(repo repositories.ProductRepository) *CatalogService {
	return &CatalogService{
		repo: repo,
	}
}

// GetPage returns one page of products with category and images loaded.
func (s *CatalogService) GetPage(ctx context.Context, page, pageSize int) ([]models.Product, error) {
	if page < 1 || pageSize <= 0 {
		return nil, ErrInvalidPage
	}
	return s.repo.List(ctx, models.Offset(page, pageSize), pageSize)
}

// GetCount returns the total number of products.
func (s *CatalogService) GetCount(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx)
}

// GetFullByID returns the product with category and images, or nil if absent.
func (s *CatalogService) GetFullByID(ctx context.Context, id uint) (*models.Product, error) {
	return s.repo.GetFullByID(ctx, id)
}

// List builds the admin listing page: the products of the page mapped to
// list items, plus the total page count.
func (s *CatalogService) List(ctx context.Context, page, pageSize int) (*models.Paginate[models.ProductListItem], error) {
	products, err := s.GetPage(ctx, page, pageSize)
	if err != nil {
		return nil, err
	}
	count, err := s.GetCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compute page count: %w", err)
	}

	items := make([]models.ProductListItem, 0, len(products))
	for i := range products {
		items = append(items, models.NewProductListItem(&products[i]))
	}
	return models.NewPaginate(items, page, models.TotalPages(count, pageSize), pageSize), nil
}
