package handlers

import (
	"errors"
	"fmt"
	"io"
	"log"
	"regexp"
	"strconv"
	"strings"

	"fiorella/internal/forms"
	"fiorella/internal/middleware"
	"fiorella/internal/models"
	"fiorella/internal/services"
	"fiorella/internal/storage"

	"github.com/gofiber/fiber/v2"
)

// ProductIndexPath is where successful mutations redirect to.
const ProductIndexPath = "/Admin/Product"

var htmlTag = regexp.MustCompile(`<.*?>`)

// Paging holds the listing defaults.
type Paging struct {
	PageSize    int
	MaxPageSize int
}

// ProductHandler handles the admin product pages.
type ProductHandler struct {
	catalog     *services.CatalogService
	admin       *services.ProductAdminService
	categories  *services.CategoryService
	paging      Paging
	antiForgery fiber.Handler
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(catalog *services.CatalogService, admin *services.ProductAdminService, categories *services.CategoryService, paging Paging) *ProductHandler {
	if paging.PageSize <= 0 {
		paging.PageSize = 10
	}
	if paging.MaxPageSize < paging.PageSize {
		paging.MaxPageSize = paging.PageSize
	}
	return &ProductHandler{
		catalog:     catalog,
		admin:       admin,
		categories:  categories,
		paging:      paging,
		antiForgery: middleware.AntiForgery(),
	}
}

// RegisterRoutes registers the product routes under the admin router.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	products := router.Group("/Product")
	products.Get("/", h.HandleIndex)
	products.Get("/Create", h.HandleCreateForm)
	products.Post("/Create", h.HandleCreate)
	products.Get("/Detail/:id?", h.HandleDetail)
	products.Get("/Edit/:id?", h.antiForgery, h.HandleEditForm)
	products.Post("/Edit/:id?", h.antiForgery, h.HandleEdit)
	products.Get("/Delete/:id?", h.antiForgery, h.HandleDeleteConfirm)
	products.Post("/Delete/:id?", h.antiForgery, h.HandleDeleteProduct)
}

// HandleIndex returns one page of the product listing.
func (h *ProductHandler) HandleIndex(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	take := c.QueryInt("take", h.paging.PageSize)
	if take <= 0 {
		take = h.paging.PageSize
	}
	if take > h.paging.MaxPageSize {
		take = h.paging.MaxPageSize
	}

	result, err := h.catalog.List(c.UserContext(), page, take)
	if err != nil {
		return err
	}
	return c.JSON(result)
}

// HandleCreateForm returns what the create form needs.
func (h *ProductHandler) HandleCreateForm(c *fiber.Ctx) error {
	categories, err := h.categories.GetAll(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"categories": categories})
}

// HandleCreate creates a product from a multipart form.
func (h *ProductHandler) HandleCreate(c *fiber.Ctx) error {
	in, err := readProductInput(c)
	if err != nil {
		return err
	}
	product, err := h.admin.Create(c.UserContext(), in)
	if err != nil {
		return h.fail(c, err)
	}
	log.Printf("Created product %d (%s) with %d images", product.ID, product.Name, len(product.Images))
	return c.Redirect(ProductIndexPath, fiber.StatusSeeOther)
}

// HandleDetail returns a product with its category and images.
func (h *ProductHandler) HandleDetail(c *fiber.Ctx) error {
	product, done, err := h.loadProduct(c)
	if done || err != nil {
		return err
	}
	return c.JSON(fiber.Map{"product": product})
}

// HandleEditForm returns the current values of the product for editing.
func (h *ProductHandler) HandleEditForm(c *fiber.Ctx) error {
	product, done, err := h.loadProduct(c)
	if done || err != nil {
		return err
	}
	categories, err := h.categories.GetAll(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"product":    models.NewProductEditView(product),
		"categories": categories,
		"csrf_token": middleware.CSRFToken(c),
	})
}

// HandleEdit applies a submitted edit form.
func (h *ProductHandler) HandleEdit(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return nil
	}
	in, err := readProductInput(c)
	if err != nil {
		return err
	}
	if _, err := h.admin.Edit(c.UserContext(), id, in); err != nil {
		return h.fail(c, err)
	}
	return c.Redirect(ProductIndexPath, fiber.StatusSeeOther)
}

// HandleDeleteConfirm returns the product that is about to be deleted.
func (h *ProductHandler) HandleDeleteConfirm(c *fiber.Ctx) error {
	product, done, err := h.loadProduct(c)
	if done || err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"product":           product,
		"plain_description": htmlTag.ReplaceAllString(product.Description, ""),
		"csrf_token":        middleware.CSRFToken(c),
	})
}

// HandleDeleteProduct deletes the product once the confirmation is posted.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return nil
	}
	if err := h.admin.Delete(c.UserContext(), id); err != nil {
		return h.fail(c, err)
	}
	log.Printf("Deleted product %d", id)
	return c.Redirect(ProductIndexPath, fiber.StatusSeeOther)
}

// loadProduct resolves the :id parameter. When done is true the response
// has already been written.
func (h *ProductHandler) loadProduct(c *fiber.Ctx) (product *models.Product, done bool, err error) {
	id, ok := parseID(c)
	if !ok {
		return nil, true, nil
	}
	product, err = h.catalog.GetFullByID(c.UserContext(), id)
	if err != nil {
		return nil, true, err
	}
	if product == nil {
		return nil, true, notFound(c, id)
	}
	return product, false, nil
}

func (h *ProductHandler) fail(c *fiber.Ctx, err error) error {
	var ve *forms.ValidationError
	switch {
	case errors.As(err, &ve):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  ve.Fields,
		})
	case errors.Is(err, storage.ErrInvalidMediaType):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  []forms.FieldError{{Field: "photos", Message: storage.ErrInvalidMediaType.Error()}},
		})
	case errors.Is(err, services.ErrProductNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "Product not found",
			"error":   err.Error(),
		})
	default:
		return err
	}
}

// parseID writes a 400 response and returns false when :id is missing or malformed.
func parseID(c *fiber.Ctx) (uint, bool) {
	raw := c.Params("id")
	if raw == "" {
		_ = c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Product ID is required"})
		return 0, false
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		_ = c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": fmt.Sprintf("Invalid product ID %q", raw)})
		return 0, false
	}
	return uint(id), true
}

func notFound(c *fiber.Ctx, id uint) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"message": fmt.Sprintf("Product with ID %d not found", id),
	})
}

// readProductInput collects the product form fields and uploaded photos.
func readProductInput(c *fiber.Ctx) (forms.ProductInput, error) {
	in := forms.ProductInput{
		Name:        c.FormValue("name"),
		Description: c.FormValue("description"),
		Price:       c.FormValue("price"),
		Count:       c.FormValue("count"),
		CategoryID:  c.FormValue("category_id"),
	}
	if !strings.HasPrefix(string(c.Request().Header.ContentType()), fiber.MIMEMultipartForm) {
		return in, nil
	}

	form, err := c.MultipartForm()
	if err != nil {
		return in, fiber.NewError(fiber.StatusBadRequest, "Invalid multipart form")
	}
	for _, fh := range form.File["photos"] {
		f, err := fh.Open()
		if err != nil {
			return in, fmt.Errorf("failed to open upload %s: %w", fh.Filename, err)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return in, fmt.Errorf("failed to read upload %s: %w", fh.Filename, err)
		}
		in.Photos = append(in.Photos, forms.Photo{
			FileName:    fh.Filename,
			ContentType: storage.ResolveContentType(fh.Header.Get(fiber.HeaderContentType), data),
			Data:        data,
		})
	}
	return in, nil
}
