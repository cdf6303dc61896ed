package services

import (
	"context"
	"fmt"
	"log"

	"fiorella/internal/forms"
	"fiorella/internal/models"
	"fiorella/internal/repositories"
)

// ErrProductNotFound is returned when a workflow targets a product that does not exist.
var ErrProductNotFound = repositories.ErrProductNotFound

// ImageStore stores and removes image blobs.
type ImageStore interface {
	Save(data []byte, contentType, originalName string) (string, error)
	DeleteAll(fileNames []string) error
}

// MainImagePolicy flags exactly one image of a non-empty set as main.
type MainImagePolicy func(images []models.ProductImage)

// FirstImageIsMain marks the first uploaded image as the main one.
func FirstImageIsMain(images []models.ProductImage) {
	for i := range images {
		images[i].IsMain = i == 0
	}
}

// AdminOptions tunes the mutation workflows.
type AdminOptions struct {
	// UpdateScalarsWithPhotos applies submitted name, price, count, description
	// and category when an edit also replaces the photos. When false those
	// fields are ignored on that path and only the image set changes.
	UpdateScalarsWithPhotos bool
	// PurgeImagesOnDelete removes image blobs once a product row is deleted.
	PurgeImagesOnDelete bool
	// MainImage defaults to FirstImageIsMain.
	MainImage MainImagePolicy
	// Events may be nil.
	Events EventPublisher
}

// ProductAdminService implements the create, edit and delete workflows of the admin area.
type ProductAdminService struct {
	products   repositories.ProductRepository
	categories repositories.CategoryRepository
	images     ImageStore
	opts       AdminOptions
}

// NewProductAdminService creates a new ProductAdminService.
func NewProductAdminService(products repositories.ProductRepository, categories repositories.CategoryRepository, images ImageStore, opts AdminOptions) *ProductAdminService {
	if opts.MainImage == nil {
		opts.MainImage = FirstImageIsMain
	}
	return &ProductAdminService{
		products:   products,
		categories: categories,
		images:     images,
		opts:       opts,
	}
}

// Create validates the input, stores the photos and persists the product with
// its images. Photos already written are removed again if persisting fails.
func (s *ProductAdminService) Create(ctx context.Context, in forms.ProductInput) (*models.Product, error) {
	fields, err := forms.ValidateCreate(in)
	if err != nil {
		return nil, err
	}
	if err := s.checkCategory(ctx, fields.CategoryID); err != nil {
		return nil, err
	}

	images, err := s.storePhotos(in.Photos)
	if err != nil {
		return nil, err
	}

	product := &models.Product{Images: images}
	applyFields(product, fields)

	if err := s.products.Create(ctx, product); err != nil {
		s.discard(images)
		return nil, err
	}

	publish(s.opts.Events, EventProductCreated, ProductEvent{ProductID: product.ID, Name: product.Name, Images: product.ImageNames()})
	return product, nil
}

// Edit updates an existing product. Without photos only the scalar fields
// change. With photos the whole image set is replaced and the previous blobs
// are deleted after the new set has been committed.
func (s *ProductAdminService) Edit(ctx context.Context, id uint, in forms.ProductInput) (*models.Product, error) {
	product, err := s.products.GetFullByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, fmt.Errorf("product with ID %d: %w", id, ErrProductNotFound)
	}

	fields, err := forms.ValidateUpdate(in)
	if err != nil {
		return nil, err
	}

	if len(in.Photos) == 0 {
		if err := s.checkCategory(ctx, fields.CategoryID); err != nil {
			return nil, err
		}
		applyFields(product, fields)
		if err := s.products.Update(ctx, product); err != nil {
			return nil, err
		}
		publish(s.opts.Events, EventProductUpdated, ProductEvent{ProductID: product.ID, Name: product.Name, Images: product.ImageNames()})
		return product, nil
	}

	if s.opts.UpdateScalarsWithPhotos {
		if err := s.checkCategory(ctx, fields.CategoryID); err != nil {
			return nil, err
		}
		applyFields(product, fields)
	}

	oldImages := product.ImageNames()
	images, err := s.storePhotos(in.Photos)
	if err != nil {
		return nil, err
	}
	if err := s.products.ReplaceImages(ctx, product, images, s.opts.UpdateScalarsWithPhotos); err != nil {
		s.discard(images)
		return nil, err
	}
	if err := s.images.DeleteAll(oldImages); err != nil {
		log.Printf("Warning: failed to remove replaced images of product %d: %v", product.ID, err)
	}

	publish(s.opts.Events, EventProductUpdated, ProductEvent{ProductID: product.ID, Name: product.Name, Images: product.ImageNames()})
	return product, nil
}

// Delete removes the product and its image rows.
func (s *ProductAdminService) Delete(ctx context.Context, id uint) error {
	product, err := s.products.GetFullByID(ctx, id)
	if err != nil {
		return err
	}
	if product == nil {
		return fmt.Errorf("product with ID %d: %w", id, ErrProductNotFound)
	}
	if err := s.products.Delete(ctx, id); err != nil {
		return err
	}

	names := product.ImageNames()
	if s.opts.PurgeImagesOnDelete {
		if err := s.images.DeleteAll(names); err != nil {
			log.Printf("Warning: failed to remove images of deleted product %d: %v", id, err)
		}
	}

	publish(s.opts.Events, EventProductDeleted, ProductEvent{ProductID: id, Name: product.Name, Images: names})
	return nil
}

func (s *ProductAdminService) checkCategory(ctx context.Context, id uint) error {
	category, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if category == nil {
		return forms.NewValidationError("category_id", "category not found")
	}
	return nil
}

// storePhotos writes every photo. On failure the photos written so far are removed.
func (s *ProductAdminService) storePhotos(photos []forms.Photo) ([]models.ProductImage, error) {
	images := make([]models.ProductImage, 0, len(photos))
	for _, photo := range photos {
		name, err := s.images.Save(photo.Data, photo.ContentType, photo.FileName)
		if err != nil {
			s.discard(images)
			return nil, err
		}
		images = append(images, models.ProductImage{Image: name})
	}
	s.opts.MainImage(images)
	return images, nil
}

// discard removes blobs that were written for a change that did not commit.
func (s *ProductAdminService) discard(images []models.ProductImage) {
	names := make([]string, 0, len(images))
	for _, img := range images {
		names = append(names, img.Image)
	}
	if err := s.images.DeleteAll(names); err != nil {
		log.Printf("Warning: failed to remove orphaned images: %v", err)
	}
}

func applyFields(p *models.Product, f forms.ProductFields) {
	p.Name = f.Name
	p.Description = f.Description
	p.Price = f.Price
	p.Count = f.Count
	p.CategoryID = f.CategoryID
	p.Category = nil
}
