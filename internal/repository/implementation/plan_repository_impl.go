package implementation

import (
	"context"
	"errors"

	"leadflow-be/internal/entity"
	"leadflow-be/internal/mapper"
	"leadflow-be/internal/model"
	"leadflow-be/internal/repository/contract"
	"leadflow-be/internal/repository/specification"

	"gorm.io/gorm"
)

type PlanRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.PlanMapper
}

func NewPlanRepository(db *gorm.DB) contract.PlanRepository {
	return &PlanRepositoryImpl{
		db:     db,
		mapper: mapper.NewPlanMapper(),
	}
}

func (r *PlanRepositoryImpl) FindOnePlan(ctx context.Context, specs ...specification.Specification) (*entity.Plan, error) {
	var m model.Plan
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *PlanRepositoryImpl) FindAllPlans(ctx context.Context, specs ...specification.Specification) ([]*entity.Plan, error) {
	var models []*model.Plan
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.Plan, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ToEntity(m)
	}
	return entities, nil
}

func (r *PlanRepositoryImpl) FindOnePackage(ctx context.Context, specs ...specification.Specification) (*entity.LeadPackage, error) {
	var m model.LeadPackage
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.PackageToEntity(&m), nil
}

func (r *PlanRepositoryImpl) FindAllPackages(ctx context.Context, specs ...specification.Specification) ([]*entity.LeadPackage, error) {
	var models []*model.LeadPackage
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.LeadPackage, len(models))
	for i, m := range models {
		entities[i] = r.mapper.PackageToEntity(m)
	}
	return entities, nil
}
