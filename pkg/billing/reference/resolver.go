package reference

import (
	"context"
	"fmt"
	"strings"
	"time"

	"leadflow-be/internal/entity"
	"leadflow-be/internal/repository/specification"
	"leadflow-be/internal/repository/unitofwork"
	"leadflow-be/pkg/billing"
	"leadflow-be/pkg/catalog"

	"github.com/google/uuid"
)

type Source string

const (
	SourceToken                Source = "token"
	SourceProviderSubscription Source = "provider_subscription"
	SourcePayerEmail           Source = "payer_email"
)

// Intent is what a notification asks for once its identifiers are resolved.
type Intent struct {
	Reference *Reference // nil when resolved by fallback
	Kind      Kind       // empty when the fallback cannot tell
	Source    Source
	User      *entity.User
	Plan      *entity.Plan        // nil for lead packages and plan-less lifecycle events
	Package   *entity.LeadPackage // set for lead packages only
	Recurring bool
}

func (i *Intent) IsLeadPackage() bool {
	return i.Package != nil
}

// IsRenewal reports a renewal request: an explicit renewal token or a token-less
// recurring charge.
func (i *Intent) IsRenewal() bool {
	return i.Kind == KindRenewal
}

type Resolver struct {
	catalog       *catalog.Catalog
	lookupTimeout time.Duration
}

func NewResolver(catalog *catalog.Catalog, lookupTimeout time.Duration) *Resolver {
	return &Resolver{
		catalog:       catalog,
		lookupTimeout: lookupTimeout,
	}
}

// Resolve binds the notification to a user and a plan or lead package. The token is
// tried first; the provider subscription id and the payer email are fallbacks.
func (r *Resolver) Resolve(ctx context.Context, uow unitofwork.UnitOfWork, n billing.Notification) (*Intent, error) {
	if ref, err := Parse(n.Correlation); err == nil {
		intent, err := r.fromToken(ctx, uow, ref, n)
		if err != nil {
			return nil, err
		}
		if intent != nil {
			return intent, nil
		}
		// token user is gone; fall through to the customer identity
	}
	return r.fromIdentity(ctx, uow, n)
}

func (r *Resolver) fromToken(ctx context.Context, uow unitofwork.UnitOfWork, ref *Reference, n billing.Notification) (*Intent, error) {
	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: ref.UserId})
	if err != nil {
		return nil, fmt.Errorf("load user %s: %w", ref.UserId, err)
	}
	if user == nil {
		return nil, nil
	}

	intent := &Intent{
		Reference: ref,
		Kind:      ref.Kind,
		Source:    SourceToken,
		User:      user,
		Recurring: n.IsRecurringCharge(),
	}
	if ref.IsLeadPackage() {
		pkg, err := r.catalog.PackageByID(ctx, uow, ref.PackageId)
		if err != nil {
			return nil, err
		}
		if pkg == nil {
			return nil, fmt.Errorf("%w: %s", billing.ErrUnknownPackage, ref.PackageId)
		}
		intent.Package = pkg
		return intent, nil
	}

	plan, err := r.catalog.PlanByID(ctx, uow, ref.PlanId)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, fmt.Errorf("%w: id %s", billing.ErrUnknownPlan, ref.PlanId)
	}
	intent.Plan = plan
	return intent, nil
}

func (r *Resolver) fromIdentity(ctx context.Context, uow unitofwork.UnitOfWork, n billing.Notification) (*Intent, error) {
	intent := &Intent{Recurring: n.IsRecurringCharge()}
	if intent.Recurring {
		intent.Kind = KindRenewal
	}

	var ledgerPlanId uuid.UUID
	if id := strings.TrimSpace(n.SubscriptionId); id != "" {
		row, err := uow.SubscriptionRepository().FindOne(ctx,
			specification.ByProviderSubscriptionID{ProviderSubscriptionID: id},
			specification.OrderBy{Field: "updated_at", Desc: true},
		)
		if err != nil {
			return nil, fmt.Errorf("load subscription by provider id: %w", err)
		}
		if row != nil {
			user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: row.UserId})
			if err != nil {
				return nil, fmt.Errorf("load user %s: %w", row.UserId, err)
			}
			if user != nil {
				intent.User = user
				intent.Source = SourceProviderSubscription
				ledgerPlanId = row.PlanId
			}
		}
	}

	if intent.User == nil {
		user, err := r.userByEmail(ctx, uow, n.PayerEmail)
		if err != nil {
			return nil, err
		}
		intent.User = user
		intent.Source = SourcePayerEmail
	}

	for _, item := range n.ItemIds {
		if packageId, ok := LeadPackageItem(item); ok {
			pkg, err := r.catalog.PackageByID(ctx, uow, packageId)
			if err != nil {
				return nil, err
			}
			if pkg == nil {
				return nil, fmt.Errorf("%w: %s", billing.ErrUnknownPackage, packageId)
			}
			intent.Kind = KindLeads
			intent.Package = pkg
			return intent, nil
		}
	}

	plan, err := r.planFallback(ctx, uow, n.PlanCode, ledgerPlanId)
	if err != nil {
		if n.IsLifecycleEvent() {
			return intent, nil
		}
		return nil, err
	}
	intent.Plan = plan
	return intent, nil
}

func (r *Resolver) userByEmail(ctx context.Context, uow unitofwork.UnitOfWork, email string) (*entity.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, fmt.Errorf("%w: no token, provider subscription or payer email", billing.ErrReferenceUnresolved)
	}

	lookupCtx, cancel := context.WithTimeout(ctx, r.lookupTimeout)
	defer cancel()

	users, err := uow.UserRepository().FindAll(lookupCtx,
		specification.ByEmail{Email: email},
		specification.Pagination{Limit: 2},
	)
	if err != nil {
		return nil, fmt.Errorf("%w: lookup %q: %v", billing.ErrPartialIdentityFailure, email, err)
	}
	if len(users) != 1 {
		return nil, fmt.Errorf("%w: %d users match %q", billing.ErrPartialIdentityFailure, len(users), email)
	}
	return users[0], nil
}

func (r *Resolver) planFallback(ctx context.Context, uow unitofwork.UnitOfWork, code string, ledgerPlanId uuid.UUID) (*entity.Plan, error) {
	if code = strings.TrimSpace(code); code != "" {
		plan, err := r.catalog.PlanByCode(ctx, uow, code)
		if err != nil {
			return nil, err
		}
		if plan == nil {
			return nil, fmt.Errorf("%w: code %q", billing.ErrUnknownPlan, code)
		}
		return plan, nil
	}
	if ledgerPlanId != uuid.Nil {
		plan, err := r.catalog.PlanByID(ctx, uow, ledgerPlanId)
		if err != nil {
			return nil, err
		}
		if plan != nil {
			return plan, nil
		}
	}
	// only lifecycle signals get here; payments without a token, plan code or lead
	// item are rejected by the authenticator
	plan, err := r.catalog.CheapestPlan(ctx, uow)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, fmt.Errorf("%w: catalog has no active plan", billing.ErrUnknownPlan)
	}
	return plan, nil
}
