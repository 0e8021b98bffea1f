// FILE: internal/controller/admin_controller.go
package controller

import (
	"errors"

	"leadflow-be/internal/dto"
	"leadflow-be/internal/pkg/serverutils"
	"leadflow-be/internal/service"
	"leadflow-be/pkg/billing"
	"leadflow-be/pkg/billing/cancellation"
	"leadflow-be/pkg/billing/sweep"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IAdminController interface {
	RegisterRoutes(r fiber.Router)
	GetUnsettledEvents(ctx *fiber.Ctx) error
	ReplayEvent(ctx *fiber.Ctx) error
	GetTickets(ctx *fiber.Ctx) error
	ResolveTicket(ctx *fiber.Ctx) error
	RunSweep(ctx *fiber.Ctx) error
}

type adminController struct {
	service        service.IAdminService
	authMiddleware fiber.Handler
}

func NewAdminController(service service.IAdminService, jwtSecret string) IAdminController {
	return &adminController{
		service:        service,
		authMiddleware: serverutils.JwtMiddleware(jwtSecret),
	}
}

func (c *adminController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/admin", c.authMiddleware, serverutils.AdminOnly)

	h.Get("/webhook-events", c.GetUnsettledEvents)
	h.Post("/webhook-events/:id/replay", c.ReplayEvent)

	h.Get("/tickets", c.GetTickets)
	h.Post("/tickets/:id/resolve", c.ResolveTicket)

	h.Post("/sweep", c.RunSweep)
}

func (c *adminController) GetUnsettledEvents(ctx *fiber.Ctx) error {
	var query dto.ListQuery
	if err := ctx.QueryParser(&query); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid query")
	}

	res, err := c.service.GetUnsettledEvents(ctx.UserContext(), query)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success fetching webhook events", res))
}

func (c *adminController) ReplayEvent(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid event id")
	}

	res, err := c.service.ReplayEvent(ctx.UserContext(), id)
	switch {
	case errors.Is(err, service.ErrEventNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, billing.ErrDuplicateEvent), errors.Is(err, billing.ErrEventInFlight):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case err != nil:
		return ctx.Status(fiber.StatusUnprocessableEntity).JSON(serverutils.ErrorResponse(422, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse("Event replayed", res))
}

func (c *adminController) GetTickets(ctx *fiber.Ctx) error {
	var query dto.ListQuery
	if err := ctx.QueryParser(&query); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid query")
	}

	res, err := c.service.GetTickets(ctx.UserContext(), ctx.Query("status"), query)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success fetching tickets", res))
}

func (c *adminController) ResolveTicket(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid ticket id")
	}

	var req dto.ResolveTicketRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.ResolveTicket(ctx.UserContext(), id, &req)
	switch {
	case errors.Is(err, cancellation.ErrTicketNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, cancellation.ErrTicketAlreadyResolved):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case err != nil:
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Ticket resolved", res))
}

func (c *adminController) RunSweep(ctx *fiber.Ctx) error {
	res, err := c.service.RunSweep(ctx.UserContext())
	if errors.Is(err, sweep.ErrSweepInProgress) {
		return fiber.NewError(fiber.StatusConflict, err.Error())
	}
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Sweep completed", res))
}
