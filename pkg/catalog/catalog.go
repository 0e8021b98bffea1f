package catalog

import (
	"context"
	"fmt"
	"time"

	"leadflow-be/internal/entity"
	"leadflow-be/internal/repository/specification"
	"leadflow-be/internal/repository/unitofwork"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// Catalog is a read-through cache over plans and lead packages. Only hits are
// cached so a newly added plan is visible immediately.
type Catalog struct {
	cache *cache.Cache
}

func New(ttl time.Duration) *Catalog {
	return &Catalog{
		cache: cache.New(ttl, 2*ttl),
	}
}

func (c *Catalog) PlanByID(ctx context.Context, uow unitofwork.UnitOfWork, id uuid.UUID) (*entity.Plan, error) {
	return c.plan(ctx, uow, "plan:id:"+id.String(), specification.ByID{ID: id})
}

func (c *Catalog) PlanByCode(ctx context.Context, uow unitofwork.UnitOfWork, code string) (*entity.Plan, error) {
	return c.plan(ctx, uow, "plan:code:"+code, specification.ByProviderPlanCode{Code: code})
}

func (c *Catalog) PlanByName(ctx context.Context, uow unitofwork.UnitOfWork, name string) (*entity.Plan, error) {
	return c.plan(ctx, uow, "plan:name:"+name, specification.Filter("name", name))
}

// CheapestPlan returns the lowest-priced active plan, or nil when the catalog is empty.
func (c *Catalog) CheapestPlan(ctx context.Context, uow unitofwork.UnitOfWork) (*entity.Plan, error) {
	return c.plan(ctx, uow, "plan:cheapest",
		specification.ActiveCatalogEntry{},
		specification.OrderBy{Field: "price"},
		specification.OrderBy{Field: "sort_order"},
	)
}

func (c *Catalog) PackageByID(ctx context.Context, uow unitofwork.UnitOfWork, id uuid.UUID) (*entity.LeadPackage, error) {
	key := "package:id:" + id.String()
	if x, found := c.cache.Get(key); found {
		p := *x.(*entity.LeadPackage)
		return &p, nil
	}
	p, err := uow.PlanRepository().FindOnePackage(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, fmt.Errorf("load lead package %s: %w", id, err)
	}
	if p != nil {
		c.cache.SetDefault(key, p)
	}
	return p, nil
}

func (c *Catalog) ActivePlans(ctx context.Context, uow unitofwork.UnitOfWork) ([]*entity.Plan, error) {
	return uow.PlanRepository().FindAllPlans(ctx,
		specification.ActiveCatalogEntry{},
		specification.OrderBy{Field: "sort_order"},
	)
}

func (c *Catalog) Flush() {
	c.cache.Flush()
}

func (c *Catalog) plan(ctx context.Context, uow unitofwork.UnitOfWork, key string, specs ...specification.Specification) (*entity.Plan, error) {
	if x, found := c.cache.Get(key); found {
		p := *x.(*entity.Plan)
		return &p, nil
	}
	p, err := uow.PlanRepository().FindOnePlan(ctx, specs...)
	if err != nil {
		return nil, fmt.Errorf("load plan (%s): %w", key, err)
	}
	if p != nil {
		c.cache.SetDefault(key, p)
	}
	return p, nil
}
