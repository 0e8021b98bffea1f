// FILE: internal/service/payment_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"leadflow-be/internal/dto"
	"leadflow-be/internal/entity"
	"leadflow-be/internal/pkg/logger"
	"leadflow-be/internal/repository/specification"
	"leadflow-be/internal/repository/unitofwork"
	"leadflow-be/pkg/billing"
	"leadflow-be/pkg/billing/cancellation"
	"leadflow-be/pkg/billing/events"
	"leadflow-be/pkg/billing/ledger"
	"leadflow-be/pkg/billing/reference"
	"leadflow-be/pkg/catalog"

	"github.com/google/uuid"
	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"
)

var (
	ErrUserNotFound           = errors.New("user not found")
	ErrPlanNotAvailable       = errors.New("plan not available")
	ErrPackageNotAvailable    = errors.New("lead package not available")
	ErrNoActiveSubscription   = errors.New("no active subscription")
	ErrCheckoutGatewayFailure = errors.New("checkout gateway error")
)

// CheckoutGateway creates a hosted payment session. *snap.Client satisfies it.
type CheckoutGateway interface {
	CreateTransaction(req *snap.Request) (*snap.Response, *midtrans.Error)
}

// NewSnapGateway builds the Midtrans Snap client.
func NewSnapGateway(serverKey string, production bool) *snap.Client {
	env := midtrans.Sandbox
	if production {
		env = midtrans.Production
	}
	var sClient snap.Client
	sClient.New(serverKey, env)
	return &sClient
}

type IPaymentService interface {
	GetPlans(ctx context.Context) ([]*dto.PlanResponse, error)
	Checkout(ctx context.Context, userId uuid.UUID, req *dto.CheckoutRequest) (*dto.CheckoutResponse, error)
	CheckoutLeadPackage(ctx context.Context, userId uuid.UUID, req *dto.LeadCheckoutRequest) (*dto.CheckoutResponse, error)
	GetSubscriptionStatus(ctx context.Context, userId uuid.UUID) (*dto.SubscriptionStatusResponse, error)
	CancelSubscription(ctx context.Context, userId uuid.UUID, req *dto.CancelSubscriptionRequest) (*dto.CancelSubscriptionResponse, error)
}

type paymentService struct {
	uowFactory unitofwork.RepositoryFactory
	catalog    *catalog.Catalog
	gateway    CheckoutGateway
	updater    *ledger.Updater
	effects    ledgerEffects
	logger     logger.ILogger
	finishURL  string
	now        func() time.Time
}

func NewPaymentService(
	uowFactory unitofwork.RepositoryFactory,
	catalog *catalog.Catalog,
	gateway CheckoutGateway,
	updater *ledger.Updater,
	cancellation *cancellation.Workflow,
	publisher events.Publisher,
	extensions IConsumerService,
	logger logger.ILogger,
	clientURL string,
) IPaymentService {
	return &paymentService{
		uowFactory: uowFactory,
		catalog:    catalog,
		gateway:    gateway,
		updater:    updater,
		logger:     logger,
		finishURL:  strings.TrimRight(clientURL, "/") + "/billing/finish",
		now:        time.Now,
		effects: ledgerEffects{
			extensions:   extensions,
			publisher:    publisher,
			cancellation: cancellation,
			logger:       logger,
		},
	}
}

func (s *paymentService) GetPlans(ctx context.Context) ([]*dto.PlanResponse, error) {
	plans, err := s.catalog.ActivePlans(ctx, s.uowFactory.NewUnitOfWork(ctx))
	if err != nil {
		return nil, err
	}

	res := make([]*dto.PlanResponse, 0, len(plans))
	for _, p := range plans {
		res = append(res, &dto.PlanResponse{
			Id:            p.Id,
			Name:          p.Name,
			Price:         p.Price,
			LeadsIncluded: p.LeadsIncluded,
		})
	}
	return res, nil
}

// Checkout opens a payment session for a plan. The correlation token records what
// the user asked for relative to the plan they hold now.
func (s *paymentService) Checkout(ctx context.Context, userId uuid.UUID, req *dto.CheckoutRequest) (*dto.CheckoutResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	user, err := s.loadUser(ctx, uow, userId)
	if err != nil {
		return nil, err
	}
	plan, err := s.catalog.PlanByID(ctx, uow, req.PlanId)
	if err != nil {
		return nil, err
	}
	if plan == nil || !plan.IsActive {
		return nil, ErrPlanNotAvailable
	}

	current, err := uow.SubscriptionRepository().FindOne(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.ActiveSubscription{},
	)
	if err != nil {
		return nil, err
	}
	var currentPlan *entity.Plan
	if current != nil {
		if currentPlan, err = s.catalog.PlanByID(ctx, uow, current.PlanId); err != nil {
			return nil, err
		}
	}

	kind := checkoutKind(plan, current, currentPlan)
	ref := reference.NewPlanReference(kind, userId, plan.Id, s.now())

	planCode := ""
	if plan.ProviderPlanCode != nil {
		planCode = *plan.ProviderPlanCode
	}

	snapReq := s.snapRequest(user, req.FirstName, req.LastName, req.Phone, plan.Price, midtrans.ItemDetails{
		ID:    plan.Id.String(),
		Price: int64(plan.Price),
		Qty:   1,
		Name:  plan.Name,
	})
	snapReq.CustomField1 = ref.String()
	snapReq.CustomField2 = planCode

	return s.createSession(snapReq, kind, ref)
}

// CheckoutLeadPackage opens a payment session for a one-off lead pack.
func (s *paymentService) CheckoutLeadPackage(ctx context.Context, userId uuid.UUID, req *dto.LeadCheckoutRequest) (*dto.CheckoutResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	user, err := s.loadUser(ctx, uow, userId)
	if err != nil {
		return nil, err
	}
	pkg, err := s.catalog.PackageByID(ctx, uow, req.PackageId)
	if err != nil {
		return nil, err
	}
	if pkg == nil || !pkg.IsActive {
		return nil, ErrPackageNotAvailable
	}

	// lead packs top up an existing subscription only
	current, err := uow.SubscriptionRepository().FindOne(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.ActiveSubscription{},
	)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, ErrNoActiveSubscription
	}

	ref := reference.NewLeadPackageReference(pkg.Id, userId, s.now())
	snapReq := s.snapRequest(user, "", "", "", pkg.Price, midtrans.ItemDetails{
		ID:    reference.LeadPackageItemId(pkg.Id),
		Price: int64(pkg.Price),
		Qty:   1,
		Name:  pkg.Name,
	})
	snapReq.CustomField1 = ref.String()

	return s.createSession(snapReq, reference.KindLeads, ref)
}

func (s *paymentService) GetSubscriptionStatus(ctx context.Context, userId uuid.UUID) (*dto.SubscriptionStatusResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	sub, err := uow.SubscriptionRepository().FindOne(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.ActiveSubscription{},
	)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		// fall back to the latest row so cancelled users still see their access window
		sub, err = uow.SubscriptionRepository().FindOne(ctx,
			specification.UserOwnedBy{UserID: userId},
			specification.OrderBy{Field: "updated_at", Desc: true},
		)
		if err != nil {
			return nil, err
		}
	}
	if sub == nil {
		return &dto.SubscriptionStatusResponse{Status: "none"}, nil
	}

	res := &dto.SubscriptionStatusResponse{
		SubscriptionId: &sub.Id,
		Status:         string(sub.Status),
		PlanId:         &sub.PlanId,
		LeadsBalance:   sub.LeadsBalance,
		AccessUntil:    &sub.CurrentPeriodEnd,
		CancelledAt:    sub.CancelledAt,
	}
	plan, err := s.catalog.PlanByID(ctx, uow, sub.PlanId)
	if err != nil {
		return nil, err
	}
	if plan != nil {
		res.PlanName = plan.Name
	}
	return res, nil
}

// CancelSubscription runs a user-initiated cancellation through the same ledger path
// as a provider cancellation event.
func (s *paymentService) CancelSubscription(ctx context.Context, userId uuid.UUID, req *dto.CancelSubscriptionRequest) (*dto.CancelSubscriptionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	user, err := s.loadUser(ctx, uow, userId)
	if err != nil {
		return nil, err
	}
	current, err := uow.SubscriptionRepository().FindOne(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.ActiveSubscription{},
	)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, ErrNoActiveSubscription
	}

	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		reason = "cancelled by user"
	}

	outcome, err := s.updater.Apply(ctx, s.uowFactory.NewUnitOfWork(ctx), ledger.Request{
		Intent:    &reference.Intent{User: user},
		Lifecycle: billing.LifecycleCancelled,
		Facts:     ledger.Facts{Reason: reason},
	})
	if err != nil {
		return nil, err
	}
	if outcome.After == nil || outcome.Ticket == nil {
		// the row changed between the check and the locked read
		return nil, ErrNoActiveSubscription
	}
	s.effects.dispatch(ctx, outcome)

	return &dto.CancelSubscriptionResponse{
		SubscriptionId: outcome.After.Id,
		Status:         string(outcome.After.Status),
		AccessUntil:    outcome.After.CurrentPeriodEnd,
		TicketId:       outcome.Ticket.Id,
	}, nil
}

func (s *paymentService) loadUser(ctx context.Context, uow unitofwork.UnitOfWork, userId uuid.UUID) (*entity.User, error) {
	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *paymentService) snapRequest(user *entity.User, firstName, lastName, phone string, amount float64, item midtrans.ItemDetails) *snap.Request {
	if firstName == "" {
		firstName, lastName = splitName(user.FullName)
	}
	return &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  uuid.NewString(),
			GrossAmt: int64(amount),
		},
		CreditCard: &snap.CreditCardDetails{
			Secure: true,
		},
		Callbacks: &snap.Callbacks{
			Finish: s.finishURL,
		},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: firstName,
			LName: lastName,
			Email: user.Email,
			Phone: phone,
		},
		Items:           &[]midtrans.ItemDetails{item},
		EnabledPayments: snap.AllSnapPaymentType,
	}
}

func (s *paymentService) createSession(snapReq *snap.Request, kind reference.Kind, ref reference.Reference) (*dto.CheckoutResponse, error) {
	snapResp, midErr := s.gateway.CreateTransaction(snapReq)
	if midErr != nil {
		return nil, fmt.Errorf("%w: %s", ErrCheckoutGatewayFailure, midErr.GetMessage())
	}

	s.logger.Info("CHECKOUT", "Payment session created", map[string]interface{}{
		"order_id": snapReq.TransactionDetails.OrderID,
		"kind":     kind,
		"user_id":  ref.UserId,
		"amount":   snapReq.TransactionDetails.GrossAmt,
	})

	return &dto.CheckoutResponse{
		OrderId:         snapReq.TransactionDetails.OrderID,
		Operation:       string(kind),
		Reference:       ref.String(),
		SnapToken:       snapResp.Token,
		SnapRedirectUrl: snapResp.RedirectURL,
	}, nil
}

// checkoutKind names the checkout relative to the active row and its plan.
func checkoutKind(plan *entity.Plan, current *entity.Subscription, currentPlan *entity.Plan) reference.Kind {
	switch {
	case current == nil:
		return reference.KindNew
	case current.PlanId == plan.Id:
		return reference.KindRenewal
	case currentPlan == nil || plan.Price > currentPlan.Price:
		return reference.KindUpgrade
	case plan.Price < currentPlan.Price:
		return reference.KindDowngrade
	default:
		return reference.KindRenewal
	}
}

func splitName(fullName string) (string, string) {
	parts := strings.Fields(fullName)
	switch len(parts) {
	case 0:
		return "Customer", ""
	case 1:
		return parts[0], ""
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}
