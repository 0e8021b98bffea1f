package sweep

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"leadflow-be/internal/entity"
	"leadflow-be/internal/pkg/logger"
	"leadflow-be/internal/repository/contract"
	"leadflow-be/internal/repository/specification"
	"leadflow-be/internal/repository/unitofwork"
	"leadflow-be/pkg/catalog"
	"leadflow-be/pkg/lock"
	"leadflow-be/pkg/provider"
)

const LockKey = "leadflow:ledger-sweep"

var ErrSweepInProgress = errors.New("reconciliation sweep already running")

// Publisher announces finished sweeps.
type Publisher interface {
	PublishSweepCompleted(ctx context.Context, summary map[string]interface{})
}

type Config struct {
	Interval      time.Duration
	PageSize      int
	LockTTL       time.Duration
	LookupTimeout time.Duration
}

type Report struct {
	Scanned    int       `json:"scanned"`
	Updated    int       `json:"updated"`
	Created    int       `json:"created"`
	Skipped    int       `json:"skipped"`
	Failed     int       `json:"failed"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

func (r *Report) Summary() map[string]interface{} {
	return map[string]interface{}{
		"scanned":     r.Scanned,
		"updated":     r.Updated,
		"created":     r.Created,
		"skipped":     r.Skipped,
		"failed":      r.Failed,
		"duration_ms": r.FinishedAt.Sub(r.StartedAt).Milliseconds(),
	}
}

// Sweeper periodically copies the provider's view of subscription status into the
// ledger. It only writes status and period end, never the balance. A record applies
// to the row bound to its provider subscription id; the payer's email is only used
// for rows that carry no provider id.
type Sweeper struct {
	client     provider.Client
	uowFactory unitofwork.RepositoryFactory
	catalog    *catalog.Catalog
	locker     lock.Locker
	publisher  Publisher
	logger     logger.ILogger
	cfg        Config
	now        func() time.Time

	running atomic.Bool

	mu      sync.Mutex
	started bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

func NewSweeper(
	client provider.Client,
	uowFactory unitofwork.RepositoryFactory,
	catalog *catalog.Catalog,
	locker lock.Locker,
	publisher Publisher,
	logger logger.ILogger,
	cfg Config,
) *Sweeper {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 100
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 10 * time.Minute
	}
	if cfg.LookupTimeout <= 0 {
		cfg.LookupTimeout = 3 * time.Second
	}
	return &Sweeper{
		client:     client,
		uowFactory: uowFactory,
		catalog:    catalog,
		locker:     locker,
		publisher:  publisher,
		logger:     logger,
		cfg:        cfg,
		now:        time.Now,
	}
}

// Start runs the sweep every Interval until Stop is called or ctx ends.
func (s *Sweeper) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started || s.cfg.Interval <= 0 {
		return
	}
	s.started = true
	s.stopCh = make(chan struct{})

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.cfg.Interval)
		defer ticker.Stop()

		s.logger.Info("SWEEP", "Reconciliation sweep scheduled", map[string]interface{}{
			"interval": s.cfg.Interval.String(),
		})
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopCh:
				return
			case <-ticker.C:
				if _, err := s.RunOnce(ctx); err != nil && !errors.Is(err, ErrSweepInProgress) {
					s.logger.Error("SWEEP", "Sweep failed", map[string]interface{}{"error": err.Error()})
				}
			}
		}
	}()
}

func (s *Sweeper) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	close(s.stopCh)
	s.mu.Unlock()
	s.wg.Wait()
}

// RunOnce performs one full pass. It returns ErrSweepInProgress when this process
// or another replica is already sweeping.
func (s *Sweeper) RunOnce(ctx context.Context) (*Report, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrSweepInProgress
	}
	defer s.running.Store(false)

	if s.locker != nil {
		release, acquired, err := s.locker.TryAcquire(ctx, LockKey, s.cfg.LockTTL)
		switch {
		case err != nil:
			// the writes are conditional, so an overlapping replica cannot corrupt state
			s.logger.Warn("SWEEP", "Lock unavailable, sweeping without it", map[string]interface{}{"error": err.Error()})
		case !acquired:
			return nil, ErrSweepInProgress
		default:
			defer release()
		}
	}

	report := &Report{StartedAt: s.now()}
	offset := 0
	for {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		page, err := s.client.ListSubscriptions(ctx, provider.ListFilter{Offset: offset, Limit: s.cfg.PageSize})
		if err != nil {
			report.FinishedAt = s.now()
			return report, fmt.Errorf("list page at offset %d: %w", offset, err)
		}
		for i := range page.Results {
			report.Scanned++
			s.reconcile(ctx, &page.Results[i], report)
		}

		offset += len(page.Results)
		if len(page.Results) < s.cfg.PageSize || (page.Total > 0 && offset >= page.Total) {
			break
		}
	}
	report.FinishedAt = s.now()

	s.logger.Info("SWEEP", "Reconciliation sweep finished", report.Summary())
	if s.publisher != nil {
		s.publisher.PublishSweepCompleted(ctx, report.Summary())
	}
	return report, nil
}

// MapStatus translates a provider subscription status. ok is false for statuses
// the ledger has no equivalent for.
func MapStatus(status string) (entity.SubscriptionStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "authorized", "active":
		return entity.SubscriptionStatusActive, true
	case "cancelled", "canceled":
		return entity.SubscriptionStatusCancelled, true
	case "paused", "pending":
		return entity.SubscriptionStatusPending, true
	case "expired", "finished":
		return entity.SubscriptionStatusExpired, true
	default:
		return "", false
	}
}

func (s *Sweeper) reconcile(ctx context.Context, rec *provider.SubscriptionRecord, report *Report) {
	details := map[string]interface{}{
		"provider_subscription_id": rec.Id,
		"provider_status":          rec.Status,
	}

	desired, ok := MapStatus(rec.Status)
	if !ok {
		report.Skipped++
		return
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	subs := uow.SubscriptionRepository()

	row, err := s.boundRow(ctx, uow, rec.Id)
	if err != nil {
		report.Failed++
		details["error"] = err.Error()
		s.logger.Error("SWEEP", "Ledger read failed", details)
		return
	}

	if row == nil {
		user, err := s.userByEmail(ctx, uow, rec.PayerEmail)
		if err != nil {
			report.Failed++
			details["error"] = err.Error()
			s.logger.Warn("SWEEP", "User lookup failed", details)
			return
		}
		if user == nil {
			report.Skipped++
			return
		}
		details["user_id"] = user.Id

		row, err = subs.FindOne(ctx, specification.UserOwnedBy{UserID: user.Id}, specification.ActiveSubscription{})
		if err == nil && row == nil {
			row, err = subs.FindOne(ctx,
				specification.UserOwnedBy{UserID: user.Id},
				specification.OrderBy{Field: "created_at", Desc: true},
			)
		}
		if err != nil {
			report.Failed++
			details["error"] = err.Error()
			s.logger.Error("SWEEP", "Ledger read failed", details)
			return
		}

		if row != nil && row.ProviderSubscriptionId != nil && *row.ProviderSubscriptionId != rec.Id {
			// the payer's row belongs to another provider subscription
			if desired != entity.SubscriptionStatusActive || row.Status == entity.SubscriptionStatusActive {
				report.Skipped++
				details["bound_to"] = *row.ProviderSubscriptionId
				s.logger.Debug("SWEEP", "Record does not own the payer's row", details)
				return
			}
			row = nil
		}

		if row == nil {
			if err := s.createRow(ctx, uow, user, rec, desired); err != nil {
				report.Failed++
				details["error"] = err.Error()
				s.logger.Error("SWEEP", "Failed to create missing ledger row", details)
				return
			}
			report.Created++
			s.logger.Info("SWEEP", "Created missing ledger row", details)
			return
		}
	}
	details["subscription_id"] = row.Id

	var periodEnd *time.Time
	if desired == entity.SubscriptionStatusActive && rec.NextPaymentDate != nil && !rec.NextPaymentDate.Equal(row.CurrentPeriodEnd) {
		periodEnd = rec.NextPaymentDate
	}
	if row.Status == desired && periodEnd == nil {
		return
	}

	if desired == entity.SubscriptionStatusActive && row.Status == entity.SubscriptionStatusCancelled {
		open, err := uow.SupportTicketRepository().FindOne(ctx,
			specification.Filter("subscription_id", row.Id),
			specification.ByStatus{Status: string(entity.TicketStatusOpen)},
		)
		if err == nil && open != nil {
			// provider charge is still being stopped by an operator
			report.Skipped++
			return
		}
	}

	applied, err := subs.UpdateStatusIfUnchanged(ctx, row.Id, row.UpdatedAt, desired, periodEnd)
	if errors.Is(err, contract.ErrActiveRowExists) {
		report.Skipped++
		s.logger.Warn("SWEEP", "Payer already has another active row", details)
		return
	}
	if err != nil {
		report.Failed++
		details["error"] = err.Error()
		s.logger.Error("SWEEP", "Ledger status write failed", details)
		return
	}
	if !applied {
		report.Skipped++
		s.logger.Debug("SWEEP", "Row changed during sweep, live event wins", details)
		return
	}
	report.Updated++
	details["from"] = row.Status
	details["to"] = desired
	s.logger.Info("SWEEP", "Corrected ledger drift", details)
}

// boundRow returns the row that stores providerSubscriptionId, if any.
func (s *Sweeper) boundRow(ctx context.Context, uow unitofwork.UnitOfWork, providerSubscriptionId string) (*entity.Subscription, error) {
	if strings.TrimSpace(providerSubscriptionId) == "" {
		return nil, nil
	}
	return uow.SubscriptionRepository().FindOne(ctx,
		specification.ByProviderSubscriptionID{ProviderSubscriptionID: providerSubscriptionId},
		specification.OrderBy{Field: "updated_at", Desc: true},
	)
}

func (s *Sweeper) createRow(ctx context.Context, uow unitofwork.UnitOfWork, user *entity.User, rec *provider.SubscriptionRecord, status entity.SubscriptionStatus) error {
	var plan *entity.Plan
	var err error
	if code := strings.TrimSpace(rec.PlanCode); code != "" {
		plan, err = s.catalog.PlanByCode(ctx, uow, code)
		if err != nil {
			return err
		}
	}
	if plan == nil {
		if plan, err = s.catalog.CheapestPlan(ctx, uow); err != nil {
			return err
		}
	}
	if plan == nil {
		return errors.New("catalog has no active plan")
	}

	now := s.now()
	end := now.AddDate(0, 1, 0)
	if rec.NextPaymentDate != nil {
		end = *rec.NextPaymentDate
	}
	row := &entity.Subscription{
		UserId:             user.Id,
		PlanId:             plan.Id,
		Status:             status,
		LeadsBalance:       0,
		CurrentPeriodStart: now,
		CurrentPeriodEnd:   end,
	}
	if err := uow.SubscriptionRepository().Create(ctx, row); err != nil {
		return err
	}

	ext := entity.SubscriptionExtension{ProviderSubscriptionId: &rec.Id}
	if rec.LastTransactionId != "" {
		ext.ProviderTransactionId = &rec.LastTransactionId
	}
	if err := uow.SubscriptionRepository().PatchExtension(ctx, row.Id, ext); err != nil {
		s.logger.Warn("SWEEP", "Failed to store provider ids on new row", map[string]interface{}{
			"subscription_id": row.Id,
			"error":           err.Error(),
		})
	}
	return nil
}

func (s *Sweeper) userByEmail(ctx context.Context, uow unitofwork.UnitOfWork, email string) (*entity.User, error) {
	if strings.TrimSpace(email) == "" {
		return nil, nil
	}
	lookupCtx, cancel := context.WithTimeout(ctx, s.cfg.LookupTimeout)
	defer cancel()

	users, err := uow.UserRepository().FindAll(lookupCtx,
		specification.ByEmail{Email: email},
		specification.Pagination{Limit: 2},
	)
	if err != nil {
		return nil, err
	}
	if len(users) != 1 {
		return nil, nil
	}
	return users[0], nil
}
