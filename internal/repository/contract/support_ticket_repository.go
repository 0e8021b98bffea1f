package contract

import (
	"context"

	"leadflow-be/internal/entity"
	"leadflow-be/internal/repository/specification"
)

type SupportTicketRepository interface {
	Create(ctx context.Context, ticket *entity.SupportTicket) error
	Update(ctx context.Context, ticket *entity.SupportTicket) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.SupportTicket, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.SupportTicket, error)
}
