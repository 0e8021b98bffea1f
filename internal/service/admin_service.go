// FILE: internal/service/admin_service.go
package service

import (
	"context"

	"leadflow-be/internal/dto"
	"leadflow-be/internal/entity"
	"leadflow-be/internal/repository/specification"
	"leadflow-be/internal/repository/unitofwork"
	"leadflow-be/pkg/billing/cancellation"
	"leadflow-be/pkg/billing/sweep"

	"github.com/google/uuid"
)

// IAdminService backs the operator routes.
type IAdminService interface {
	GetUnsettledEvents(ctx context.Context, query dto.ListQuery) ([]*dto.WebhookEventResponse, error)
	ReplayEvent(ctx context.Context, eventId uuid.UUID) (*dto.WebhookResult, error)
	GetTickets(ctx context.Context, status string, query dto.ListQuery) ([]*dto.SupportTicketResponse, error)
	ResolveTicket(ctx context.Context, ticketId uuid.UUID, req *dto.ResolveTicketRequest) (*dto.SupportTicketResponse, error)
	RunSweep(ctx context.Context) (*dto.SweepReportResponse, error)
}

type adminService struct {
	uowFactory   unitofwork.RepositoryFactory
	webhooks     IWebhookService
	cancellation *cancellation.Workflow
	sweeper      *sweep.Sweeper
}

func NewAdminService(
	uowFactory unitofwork.RepositoryFactory,
	webhooks IWebhookService,
	cancellation *cancellation.Workflow,
	sweeper *sweep.Sweeper,
) IAdminService {
	return &adminService{
		uowFactory:   uowFactory,
		webhooks:     webhooks,
		cancellation: cancellation,
		sweeper:      sweeper,
	}
}

func (s *adminService) GetUnsettledEvents(ctx context.Context, query dto.ListQuery) ([]*dto.WebhookEventResponse, error) {
	query.Normalize()
	uow := s.uowFactory.NewUnitOfWork(ctx)
	events, err := uow.WebhookEventRepository().FindAll(ctx,
		specification.UnsettledWebhookEvent{},
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: query.Limit, Offset: query.Offset()},
	)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.WebhookEventResponse, 0, len(events))
	for _, e := range events {
		res = append(res, &dto.WebhookEventResponse{
			Id:              e.Id,
			ProviderEventId: e.ProviderEventId,
			Action:          e.Action,
			Status:          e.Status,
			Processed:       e.Processed,
			ProcessedAt:     e.ProcessedAt,
			Operation:       e.Operation,
			Note:            e.Note,
			ErrorMessage:    e.ErrorMessage,
			Attempts:        e.Attempts,
			Payload:         e.Payload,
			CreatedAt:       e.CreatedAt,
		})
	}
	return res, nil
}

func (s *adminService) ReplayEvent(ctx context.Context, eventId uuid.UUID) (*dto.WebhookResult, error) {
	return s.webhooks.Replay(ctx, eventId)
}

func (s *adminService) GetTickets(ctx context.Context, status string, query dto.ListQuery) ([]*dto.SupportTicketResponse, error) {
	query.Normalize()
	specs := []specification.Specification{
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: query.Limit, Offset: query.Offset()},
	}
	if status != "" {
		specs = append(specs, specification.ByStatus{Status: status})
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	tickets, err := uow.SupportTicketRepository().FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.SupportTicketResponse, 0, len(tickets))
	for _, t := range tickets {
		res = append(res, toTicketResponse(t))
	}
	return res, nil
}

func (s *adminService) ResolveTicket(ctx context.Context, ticketId uuid.UUID, req *dto.ResolveTicketRequest) (*dto.SupportTicketResponse, error) {
	ticket, err := s.cancellation.Resolve(ctx, s.uowFactory.NewUnitOfWork(ctx), ticketId, req.Note)
	if err != nil {
		return nil, err
	}
	return toTicketResponse(ticket), nil
}

func (s *adminService) RunSweep(ctx context.Context) (*dto.SweepReportResponse, error) {
	report, err := s.sweeper.RunOnce(ctx)
	if err != nil {
		return nil, err
	}
	return &dto.SweepReportResponse{
		Scanned:    report.Scanned,
		Updated:    report.Updated,
		Created:    report.Created,
		Skipped:    report.Skipped,
		Failed:     report.Failed,
		StartedAt:  report.StartedAt,
		FinishedAt: report.FinishedAt,
	}, nil
}

func toTicketResponse(t *entity.SupportTicket) *dto.SupportTicketResponse {
	res := &dto.SupportTicketResponse{
		Id:             t.Id,
		UserId:         t.UserId,
		SubscriptionId: t.SubscriptionId,
		Type:           string(t.Type),
		Priority:       string(t.Priority),
		Status:         string(t.Status),
		Metadata:       t.Metadata,
		ResolutionNote: t.ResolutionNote,
		ResolvedAt:     t.ResolvedAt,
		CreatedAt:      t.CreatedAt,
	}
	if t.ProviderSubscriptionId != nil {
		res.ProviderSubscriptionId = *t.ProviderSubscriptionId
	}
	if t.ProviderTransactionId != nil {
		res.ProviderTransactionId = *t.ProviderTransactionId
	}
	return res
}
