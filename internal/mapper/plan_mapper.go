package mapper

import (
	"leadflow-be/internal/entity"
	"leadflow-be/internal/model"
)

type PlanMapper struct{}

func NewPlanMapper() *PlanMapper {
	return &PlanMapper{}
}

func (m *PlanMapper) ToEntity(p *model.Plan) *entity.Plan {
	if p == nil {
		return nil
	}
	return &entity.Plan{
		Id:               p.Id,
		Name:             p.Name,
		Price:            p.Price,
		LeadsIncluded:    p.LeadsIncluded,
		ProviderPlanCode: p.ProviderPlanCode,
		IsActive:         p.IsActive,
		SortOrder:        p.SortOrder,
	}
}

func (m *PlanMapper) PackageToEntity(p *model.LeadPackage) *entity.LeadPackage {
	if p == nil {
		return nil
	}
	return &entity.LeadPackage{
		Id:       p.Id,
		Name:     p.Name,
		Price:    p.Price,
		Leads:    p.Leads,
		IsActive: p.IsActive,
	}
}
