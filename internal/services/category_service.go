package services

import (
	"context"
	"fmt"

	"fiorella/internal/forms"
	"fiorella/internal/models"
	"fiorella/internal/repositories"
)

// CategoryService handles the categories products can be filed under.
type CategoryService struct {
	repo repositories.CategoryRepository
}

// NewCategoryService creates a new CategoryService.
func NewCategoryService(repo repositories.CategoryRepository) *CategoryService {
	return &CategoryService{repo: repo}
}

// GetAll returns every category.
func (s *CategoryService) GetAll(ctx context.Context) ([]models.Category, error) {
	return s.repo.GetAll(ctx)
}

// Create validates and stores a new category.
func (s *CategoryService) Create(ctx context.Context, in forms.CategoryInput) (*models.Category, error) {
	name, err := forms.ValidateCategory(in)
	if err != nil {
		return nil, err
	}
	existing, err := s.repo.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, forms.NewValidationError("name", fmt.Sprintf("category %q already exists", name))
	}
	category := &models.Category{Name: name}
	if err := s.repo.Create(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}
