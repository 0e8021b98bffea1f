package mapper

import (
	"encoding/json"

	"leadflow-be/internal/entity"
	"leadflow-be/internal/model"

	"gorm.io/datatypes"
)

type SupportTicketMapper struct{}

func NewSupportTicketMapper() *SupportTicketMapper {
	return &SupportTicketMapper{}
}

func (m *SupportTicketMapper) ToEntity(t *model.SupportTicket) *entity.SupportTicket {
	if t == nil {
		return nil
	}
	var metadata map[string]interface{}
	if len(t.Metadata) > 0 {
		_ = json.Unmarshal(t.Metadata, &metadata)
	}
	return &entity.SupportTicket{
		Id:                     t.Id,
		UserId:                 t.UserId,
		SubscriptionId:         t.SubscriptionId,
		Type:                   entity.TicketType(t.Type),
		Priority:               entity.TicketPriority(t.Priority),
		Status:                 entity.TicketStatus(t.Status),
		ProviderSubscriptionId: t.ProviderSubscriptionId,
		ProviderTransactionId:  t.ProviderTransactionId,
		Metadata:               metadata,
		ResolutionNote:         t.ResolutionNote,
		ResolvedAt:             t.ResolvedAt,
		CreatedAt:              t.CreatedAt,
		UpdatedAt:              t.UpdatedAt,
	}
}

func (m *SupportTicketMapper) ToModel(t *entity.SupportTicket) *model.SupportTicket {
	if t == nil {
		return nil
	}
	var metadata datatypes.JSON
	if t.Metadata != nil {
		raw, err := json.Marshal(t.Metadata)
		if err == nil {
			metadata = datatypes.JSON(raw)
		}
	}
	return &model.SupportTicket{
		Id:                     t.Id,
		UserId:                 t.UserId,
		SubscriptionId:         t.SubscriptionId,
		Type:                   string(t.Type),
		Priority:               string(t.Priority),
		Status:                 string(t.Status),
		ProviderSubscriptionId: t.ProviderSubscriptionId,
		ProviderTransactionId:  t.ProviderTransactionId,
		Metadata:               metadata,
		ResolutionNote:         t.ResolutionNote,
		ResolvedAt:             t.ResolvedAt,
		CreatedAt:              t.CreatedAt,
		UpdatedAt:              t.UpdatedAt,
	}
}
