package handlers

import (
	"errors"

	"fiorella/internal/forms"
	"fiorella/internal/services"

	"github.com/gofiber/fiber/v2"
)

// CategoryHandler handles the admin category endpoints.
type CategoryHandler struct {
	service *services.CategoryService
}

// NewCategoryHandler creates a new CategoryHandler.
func NewCategoryHandler(service *services.CategoryService) *CategoryHandler {
	return &CategoryHandler{service: service}
}

// RegisterRoutes registers the category routes under the admin router.
func (h *CategoryHandler) RegisterRoutes(router fiber.Router) {
	categories := router.Group("/Category")
	categories.Get("/", h.HandleList)
	categories.Post("/", h.HandleCreate)
}

// HandleList returns every category ordered by name.
func (h *CategoryHandler) HandleList(c *fiber.Ctx) error {
	categories, err := h.service.GetAll(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(categories)
}

// HandleCreate adds a category from a JSON or form body.
func (h *CategoryHandler) HandleCreate(c *fiber.Ctx) error {
	var in forms.CategoryInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	category, err := h.service.Create(c.UserContext(), in)
	if err != nil {
		var ve *forms.ValidationError
		if errors.As(err, &ve) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Validation failed",
				"errors":  ve.Fields,
			})
		}
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(category)
}
