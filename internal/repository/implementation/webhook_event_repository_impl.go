package implementation

import (
	"context"
	"errors"
	"time"

	"leadflow-be/internal/entity"
	"leadflow-be/internal/mapper"
	"leadflow-be/internal/model"
	"leadflow-be/internal/repository/contract"
	"leadflow-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type WebhookEventRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.WebhookEventMapper
}

func NewWebhookEventRepository(db *gorm.DB) contract.WebhookEventRepository {
	return &WebhookEventRepositoryImpl{
		db:     db,
		mapper: mapper.NewWebhookEventMapper(),
	}
}

func (r *WebhookEventRepositoryImpl) CreateIfNotExists(ctx context.Context, event *entity.WebhookEvent) (*entity.WebhookEvent, bool, error) {
	m := r.mapper.ToModel(event)
	if m.Id == uuid.Nil {
		m.Id = uuid.New()
	}
	tx := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "provider_event_id"}},
		DoNothing: true,
	}).Create(m)
	if tx.Error != nil {
		return nil, false, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored model.WebhookEvent
	if err := r.db.WithContext(ctx).
		Where("provider_event_id = ?", event.ProviderEventId).
		First(&stored).Error; err != nil {
		return nil, false, err
	}
	return r.mapper.ToEntity(&stored), created, nil
}

func (r *WebhookEventRepositoryImpl) ClaimAttempt(ctx context.Context, id uuid.UUID, staleBefore time.Time) (bool, error) {
	tx := r.db.WithContext(ctx).
		Model(&model.WebhookEvent{}).
		Where("id = ?", id).
		Where("(processed = ? OR error_message <> '')", false).
		Where("(claimed_at IS NULL OR claimed_at < ?)", staleBefore).
		Updates(map[string]interface{}{
			"attempts":   gorm.Expr("attempts + 1"),
			"processed":  false,
			"claimed_at": time.Now(),
		})
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *WebhookEventRepositoryImpl) MarkProcessed(ctx context.Context, id uuid.UUID, outcome entity.WebhookOutcome) error {
	now := time.Now()
	updates := map[string]interface{}{
		"processed":     true,
		"processed_at":  &now,
		"operation":     outcome.Operation,
		"note":          outcome.Note,
		"error_message": outcome.ErrorMessage,
		"claimed_at":    nil,
	}
	return r.db.WithContext(ctx).Model(&model.WebhookEvent{}).Where("id = ?", id).Updates(updates).Error
}

func (r *WebhookEventRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.WebhookEvent, error) {
	var m model.WebhookEvent
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *WebhookEventRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.WebhookEvent, error) {
	var models []*model.WebhookEvent
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.WebhookEvent, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ToEntity(m)
	}
	return entities, nil
}
