package implementation

import (
	"context"
	"errors"

	"leadflow-be/internal/entity"
	"leadflow-be/internal/mapper"
	"leadflow-be/internal/model"
	"leadflow-be/internal/repository/contract"
	"leadflow-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SupportTicketRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.SupportTicketMapper
}

func NewSupportTicketRepository(db *gorm.DB) contract.SupportTicketRepository {
	return &SupportTicketRepositoryImpl{
		db:     db,
		mapper: mapper.NewSupportTicketMapper(),
	}
}

func (r *SupportTicketRepositoryImpl) Create(ctx context.Context, ticket *entity.SupportTicket) error {
	m := r.mapper.ToModel(ticket)
	if m.Id == uuid.Nil {
		m.Id = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*ticket = *r.mapper.ToEntity(m)
	return nil
}

func (r *SupportTicketRepositoryImpl) Update(ctx context.Context, ticket *entity.SupportTicket) error {
	m := r.mapper.ToModel(ticket)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*ticket = *r.mapper.ToEntity(m)
	return nil
}

func (r *SupportTicketRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.SupportTicket, error) {
	var m model.SupportTicket
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *SupportTicketRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.SupportTicket, error) {
	var models []*model.SupportTicket
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.SupportTicket, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ToEntity(m)
	}
	return entities, nil
}
