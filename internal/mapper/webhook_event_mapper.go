package mapper

import (
	"encoding/json"

	"leadflow-be/internal/entity"
	"leadflow-be/internal/model"

	"gorm.io/datatypes"
)

type WebhookEventMapper struct{}

func NewWebhookEventMapper() *WebhookEventMapper {
	return &WebhookEventMapper{}
}

func (m *WebhookEventMapper) ToEntity(e *model.WebhookEvent) *entity.WebhookEvent {
	if e == nil {
		return nil
	}
	return &entity.WebhookEvent{
		Id:              e.Id,
		ProviderEventId: e.ProviderEventId,
		Action:          e.Action,
		Status:          e.Status,
		Payload:         json.RawMessage(e.Payload),
		Processed:       e.Processed,
		ProcessedAt:     e.ProcessedAt,
		Operation:       e.Operation,
		Note:            e.Note,
		ErrorMessage:    e.ErrorMessage,
		Attempts:        e.Attempts,
		ClaimedAt:       e.ClaimedAt,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}
}

func (m *WebhookEventMapper) ToModel(e *entity.WebhookEvent) *model.WebhookEvent {
	if e == nil {
		return nil
	}
	payload := e.Payload
	if !json.Valid(payload) {
		// jsonb rejects non-JSON bodies; keep them as a JSON string instead
		payload, _ = json.Marshal(string(e.Payload))
	}
	return &model.WebhookEvent{
		Id:              e.Id,
		ProviderEventId: e.ProviderEventId,
		Action:          e.Action,
		Status:          e.Status,
		Payload:         datatypes.JSON(payload),
		Processed:       e.Processed,
		ProcessedAt:     e.ProcessedAt,
		Operation:       e.Operation,
		Note:            e.Note,
		ErrorMessage:    e.ErrorMessage,
		Attempts:        e.Attempts,
		ClaimedAt:       e.ClaimedAt,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}
}
