// Package app assembles the HTTP application from its configuration.
package app

import (
	"errors"
	"log"
	"time"

	"fiorella/internal/config"
	"fiorella/internal/database"
	"fiorella/internal/handlers"
	"fiorella/internal/middleware"
	"fiorella/internal/repositories"
	"fiorella/internal/services"
	"fiorella/internal/storage"
	"fiorella/pkg/rabbitmq"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/gorm"
)

// App is the running service and the resources it owns.
type App struct {
	Fiber *fiber.App
	db    *gorm.DB
	mq    *rabbitmq.Client
}

// New opens the database, the image root and, when configured, the event
// broker, and builds the HTTP application on top of them.
func New(cfg config.Config) (*App, error) {
	db, err := database.Open(cfg.Database)
	if err != nil {
		return nil, err
	}

	images, err := storage.NewLocalImageStore(cfg.Images.Root)
	if err != nil {
		return nil, err
	}

	a := &App{db: db}
	var events services.EventPublisher
	if cfg.AMQP.URL != "" {
		a.mq, err = rabbitmq.NewClient(rabbitmq.Config{URL: cfg.AMQP.URL, Exchange: cfg.AMQP.Exchange})
		if err != nil {
			return nil, err
		}
		events = a.mq
	} else {
		log.Println("AMQP URL not set. Catalog events will not be published.")
	}

	a.Fiber = Build(cfg, db, images, events)
	a.Fiber.Static(cfg.Images.URLPrefix, images.Root())
	return a, nil
}

// Build wires repositories, services and handlers into a Fiber app.
// events may be nil.
func Build(cfg config.Config, db *gorm.DB, images *storage.ImageStore, events services.EventPublisher) *fiber.App {
	productRepo := repositories.NewGORMProductRepository(db)
	categoryRepo := repositories.NewGORMCategoryRepository(db)
	userRepo := repositories.NewGORMUserRepository(db)

	catalogService := services.NewCatalogService(productRepo)
	categoryService := services.NewCategoryService(categoryRepo)
	adminService := services.NewProductAdminService(productRepo, categoryRepo, images, services.AdminOptions{
		UpdateScalarsWithPhotos: cfg.Catalog.UpdateScalarsWithPhotos,
		PurgeImagesOnDelete:     cfg.Catalog.PurgeImagesOnDelete,
		MainImage:               services.FirstImageIsMain,
		Events:                  events,
	})
	authService := services.NewAuthService(userRepo, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	productHandler := handlers.NewProductHandler(catalogService, adminService, categoryService, handlers.Paging{
		PageSize:    cfg.Catalog.PageSize,
		MaxPageSize: cfg.Catalog.MaxPageSize,
	})
	categoryHandler := handlers.NewCategoryHandler(categoryService)
	authHandler := handlers.NewAuthHandler(authService)

	app := fiber.New(fiber.Config{
		BodyLimit:    cfg.App.BodyLimit,
		ErrorHandler: errorHandler,
	})
	app.Use(recover.New())
	app.Use(logger.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		status := fiber.Map{"status": "healthy", "time": time.Now().Format(time.RFC3339)}
		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(c.UserContext()) != nil {
			status["status"] = "degraded"
			return c.Status(fiber.StatusServiceUnavailable).JSON(status)
		}
		return c.JSON(status)
	})

	authHandler.RegisterRoutes(app)

	admin := app.Group("/Admin", middleware.AuthRequired(authService))
	productHandler.RegisterRoutes(admin)
	categoryHandler.RegisterRoutes(admin)

	return app
}

// Shutdown stops the HTTP server and releases the broker and database.
func (a *App) Shutdown() error {
	var errs []error
	if err := a.Fiber.Shutdown(); err != nil {
		errs = append(errs, err)
	}
	if a.mq != nil {
		if err := a.mq.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if sqlDB, err := a.db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// errorHandler is the last stop for errors returned by handlers.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	}
	if code >= fiber.StatusInternalServerError {
		log.Printf("Unhandled error on %s %s: %v", c.Method(), c.Path(), err)
	}
	return c.Status(code).JSON(fiber.Map{"message": message})
}
