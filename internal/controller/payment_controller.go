// FILE: internal/controller/payment_controller.go
package controller

import (
	"errors"

	"leadflow-be/internal/dto"
	"leadflow-be/internal/pkg/serverutils"
	"leadflow-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IPaymentController interface {
	RegisterRoutes(r fiber.Router)
	GetPlans(ctx *fiber.Ctx) error
	Checkout(ctx *fiber.Ctx) error
	CheckoutLeadPackage(ctx *fiber.Ctx) error
	GetStatus(ctx *fiber.Ctx) error
	CancelSubscription(ctx *fiber.Ctx) error
}

type paymentController struct {
	service        service.IPaymentService
	authMiddleware fiber.Handler
}

func NewPaymentController(service service.IPaymentService, jwtSecret string) IPaymentController {
	return &paymentController{
		service:        service,
		authMiddleware: serverutils.JwtMiddleware(jwtSecret),
	}
}

func (c *paymentController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/billing")
	h.Get("/plans", c.GetPlans)

	// Protected Routes
	h.Post("/checkout", c.authMiddleware, c.Checkout)
	h.Post("/checkout/leads", c.authMiddleware, c.CheckoutLeadPackage)
	h.Get("/status", c.authMiddleware, c.GetStatus)
	h.Post("/cancel", c.authMiddleware, c.CancelSubscription)
}

func (c *paymentController) GetPlans(ctx *fiber.Ctx) error {
	res, err := c.service.GetPlans(ctx.UserContext())
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success fetching plans", res))
}

func (c *paymentController) Checkout(ctx *fiber.Ctx) error {
	var req dto.CheckoutRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	userId, err := currentUserId(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.Checkout(ctx.UserContext(), userId, &req)
	if err != nil {
		return billingError(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Checkout session created", res))
}

func (c *paymentController) CheckoutLeadPackage(ctx *fiber.Ctx) error {
	var req dto.LeadCheckoutRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	userId, err := currentUserId(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.CheckoutLeadPackage(ctx.UserContext(), userId, &req)
	if err != nil {
		return billingError(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Checkout session created", res))
}

func (c *paymentController) GetStatus(ctx *fiber.Ctx) error {
	userId, err := currentUserId(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.GetSubscriptionStatus(ctx.UserContext(), userId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success fetching subscription status", res))
}

func (c *paymentController) CancelSubscription(ctx *fiber.Ctx) error {
	var req dto.CancelSubscriptionRequest
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	userId, err := currentUserId(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.CancelSubscription(ctx.UserContext(), userId, &req)
	if err != nil {
		return billingError(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Subscription cancelled", res))
}

func currentUserId(ctx *fiber.Ctx) (uuid.UUID, error) {
	userIdStr, _ := ctx.Locals("user_id").(string)
	userId, err := uuid.Parse(userIdStr)
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "invalid user id in token")
	}
	return userId, nil
}

func billingError(err error) error {
	switch {
	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrPlanNotAvailable),
		errors.Is(err, service.ErrPackageNotAvailable):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrNoActiveSubscription):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrCheckoutGatewayFailure):
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	default:
		return err
	}
}
