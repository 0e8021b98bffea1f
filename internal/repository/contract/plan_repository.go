package contract

import (
	"context"

	"leadflow-be/internal/entity"
	"leadflow-be/internal/repository/specification"
)

type PlanRepository interface {
	FindOnePlan(ctx context.Context, specs ...specification.Specification) (*entity.Plan, error)
	FindAllPlans(ctx context.Context, specs ...specification.Specification) ([]*entity.Plan, error)

	FindOnePackage(ctx context.Context, specs ...specification.Specification) (*entity.LeadPackage, error)
	FindAllPackages(ctx context.Context, specs ...specification.Specification) ([]*entity.LeadPackage, error)
}
