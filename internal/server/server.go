package server

import (
	"log"
	"time"

	"leadflow-be/internal/bootstrap"
	"leadflow-be/internal/config"
	"leadflow-be/internal/pkg/serverutils"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

type Server struct {
	app       *fiber.App
	cfg       *config.Config
	container *bootstrap.Container
}

func New(cfg *config.Config, container *bootstrap.Container) *Server {
	app := fiber.New(fiber.Config{
		AppName:   "leadflow-be",
		BodyLimit: 1 * 1024 * 1024, // notifications are small
		// the provider retries on timeout, so stay under its 30s budget
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.Webhook.ProcessingTimeout + 5*time.Second,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.App.CorsAllowedOrigins,
		AllowCredentials: true,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, PATCH, OPTIONS",
		ExposeHeaders:    "Content-Length, Content-Type, X-Request-ID",
	}))
	app.Use(otelfiber.Middleware())
	app.Use(serverutils.ErrorHandlerMiddleware())

	app.Get("/healthz", func(ctx *fiber.Ctx) error {
		return ctx.JSON(serverutils.SuccessResponse("ok", fiber.Map{
			"status":       "up",
			"store":        cfg.Database.Driver,
			"sweep":        cfg.Sweep.Enabled,
			"bus_consumer": container.NotificationHandler != nil,
		}))
	})

	api := app.Group("/api")
	container.WebhookController.RegisterRoutes(api)
	container.PaymentController.RegisterRoutes(api)
	container.AdminController.RegisterRoutes(api)

	return &Server{
		app:       app,
		cfg:       cfg,
		container: container,
	}
}

func (s *Server) Run() error {
	log.Printf("Billing API listening on :%s", s.cfg.App.Port)
	return s.app.Listen(":" + s.cfg.App.Port)
}

func (s *Server) Shutdown() error {
	return s.app.ShutdownWithTimeout(s.cfg.Webhook.ProcessingTimeout)
}
