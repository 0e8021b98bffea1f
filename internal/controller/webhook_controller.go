package controller

import (
	"leadflow-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IWebhookController interface {
	RegisterRoutes(r fiber.Router)
	Payment(ctx *fiber.Ctx) error
}

type webhookController struct {
	service service.IWebhookService
}

func NewWebhookController(service service.IWebhookService) IWebhookController {
	return &webhookController{service: service}
}

func (c *webhookController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/webhooks")
	h.Post("/payment", c.Payment)
}

// Payment always answers 200 so the provider stops redelivering; success in the
// body carries the outcome.
func (c *webhookController) Payment(ctx *fiber.Ctx) error {
	// fasthttp reuses the body buffer after the handler returns
	raw := append([]byte(nil), ctx.Body()...)

	res := c.service.Handle(ctx.UserContext(), raw)
	return ctx.Status(fiber.StatusOK).JSON(res)
}
