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
)

type SubscriptionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.SubscriptionMapper
}

func NewSubscriptionRepository(db *gorm.DB) contract.SubscriptionRepository {
	return &SubscriptionRepositoryImpl{
		db:     db,
		mapper: mapper.NewSubscriptionMapper(),
	}
}

func (r *SubscriptionRepositoryImpl) Create(ctx context.Context, subscription *entity.Subscription) error {
	m := r.mapper.ToCoreModel(subscription)
	if m.Id == uuid.Nil {
		m.Id = uuid.New()
	}
	if err := r.db.WithContext(ctx).Select(
		"id", "user_id", "plan_id", "status", "leads_balance",
		"current_period_start", "current_period_end", "created_at", "updated_at",
	).Create(m).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return contract.ErrActiveRowExists
		}
		return err
	}
	subscription.Id = m.Id
	subscription.CreatedAt = m.CreatedAt
	subscription.UpdatedAt = m.UpdatedAt
	return nil
}

func (r *SubscriptionRepositoryImpl) ApplyMutation(ctx context.Context, id uuid.UUID, mutation entity.LedgerMutation) (*entity.Subscription, error) {
	updates := map[string]interface{}{}
	switch mutation.BalanceOp {
	case entity.BalanceSet:
		updates["leads_balance"] = mutation.BalanceValue
	case entity.BalanceAdd:
		updates["leads_balance"] = gorm.Expr("leads_balance + ?", mutation.BalanceValue)
	}
	if mutation.PlanId != nil {
		updates["plan_id"] = *mutation.PlanId
	}
	if mutation.Status != nil {
		updates["status"] = string(*mutation.Status)
	}
	if mutation.PeriodStart != nil {
		updates["current_period_start"] = *mutation.PeriodStart
	}
	if mutation.PeriodEnd != nil {
		updates["current_period_end"] = *mutation.PeriodEnd
	}
	updates["updated_at"] = time.Now()

	tx := r.db.WithContext(ctx).
		Model(&model.Subscription{}).
		Where("id = ? AND leads_balance = ?", id, mutation.ExpectedBalance).
		Updates(updates)
	if errors.Is(tx.Error, gorm.ErrDuplicatedKey) {
		return nil, contract.ErrActiveRowExists
	}
	if tx.Error != nil {
		return nil, tx.Error
	}
	if tx.RowsAffected == 0 {
		return nil, contract.ErrStaleRow
	}
	return r.FindOne(ctx, specification.ByID{ID: id})
}

func (r *SubscriptionRepositoryImpl) PatchExtension(ctx context.Context, id uuid.UUID, extension entity.SubscriptionExtension) error {
	columns := r.mapper.ExtensionColumns(extension)
	if len(columns) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&model.Subscription{}).
		Where("id = ?", id).
		UpdateColumns(columns).Error
}

func (r *SubscriptionRepositoryImpl) UpdateStatusIfUnchanged(ctx context.Context, id uuid.UUID, observedUpdatedAt time.Time, status entity.SubscriptionStatus, periodEnd *time.Time) (bool, error) {
	updates := map[string]interface{}{
		"status":     string(status),
		"updated_at": time.Now(),
	}
	if periodEnd != nil {
		updates["current_period_end"] = *periodEnd
	}
	tx := r.db.WithContext(ctx).
		Model(&model.Subscription{}).
		Where("id = ? AND updated_at = ?", id, observedUpdatedAt).
		Updates(updates)
	if errors.Is(tx.Error, gorm.ErrDuplicatedKey) {
		return false, contract.ErrActiveRowExists
	}
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *SubscriptionRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Subscription, error) {
	var m model.Subscription
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *SubscriptionRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Subscription, error) {
	var models []*model.Subscription
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.Subscription, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ToEntity(m)
	}
	return entities, nil
}
