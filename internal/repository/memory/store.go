package memory

import (
	"context"
	"errors"
	"sync"

	"leadflow-be/internal/entity"
	"leadflow-be/internal/repository/contract"
	"leadflow-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

// Store is an in-process replacement for the relational store. A transaction holds
// the store lock until it commits or rolls back, so a goroutine must not open a
// second unit of work while its own transaction is running.
type Store struct {
	mu sync.Mutex

	users         map[uuid.UUID]*entity.User
	plans         map[uuid.UUID]*entity.Plan
	packages      map[uuid.UUID]*entity.LeadPackage
	subscriptions map[uuid.UUID]*entity.Subscription
	events        map[uuid.UUID]*entity.WebhookEvent
	tickets       map[uuid.UUID]*entity.SupportTicket
}

func NewStore() *Store {
	return &Store{
		users:         make(map[uuid.UUID]*entity.User),
		plans:         make(map[uuid.UUID]*entity.Plan),
		packages:      make(map[uuid.UUID]*entity.LeadPackage),
		subscriptions: make(map[uuid.UUID]*entity.Subscription),
		events:        make(map[uuid.UUID]*entity.WebhookEvent),
		tickets:       make(map[uuid.UUID]*entity.SupportTicket),
	}
}

// NewUnitOfWork satisfies unitofwork.RepositoryFactory.
func (s *Store) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &unitOfWork{store: s}
}

func (s *Store) AddUser(u *entity.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *u
	s.users[u.Id] = &c
}

func (s *Store) AddPlan(p *entity.Plan) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *p
	s.plans[p.Id] = &c
}

func (s *Store) AddPackage(p *entity.LeadPackage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *p
	s.packages[p.Id] = &c
}

func (s *Store) AddSubscription(sub *entity.Subscription) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *sub
	s.subscriptions[sub.Id] = &c
}

type snapshot struct {
	subscriptions map[uuid.UUID]*entity.Subscription
	events        map[uuid.UUID]*entity.WebhookEvent
	tickets       map[uuid.UUID]*entity.SupportTicket
}

// capture copies the mutable tables. Users and the catalog are read-only here.
func (s *Store) capture() *snapshot {
	snap := &snapshot{
		subscriptions: make(map[uuid.UUID]*entity.Subscription, len(s.subscriptions)),
		events:        make(map[uuid.UUID]*entity.WebhookEvent, len(s.events)),
		tickets:       make(map[uuid.UUID]*entity.SupportTicket, len(s.tickets)),
	}
	for id, v := range s.subscriptions {
		c := *v
		snap.subscriptions[id] = &c
	}
	for id, v := range s.events {
		c := *v
		snap.events[id] = &c
	}
	for id, v := range s.tickets {
		c := *v
		snap.tickets[id] = &c
	}
	return snap
}

func (s *Store) restore(snap *snapshot) {
	s.subscriptions = snap.subscriptions
	s.events = snap.events
	s.tickets = snap.tickets
}

type unitOfWork struct {
	store    *Store
	snapshot *snapshot
}

func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.snapshot != nil {
		return errors.New("transaction already started")
	}
	u.store.mu.Lock()
	u.snapshot = u.store.capture()
	return nil
}

func (u *unitOfWork) Commit() error {
	if u.snapshot == nil {
		return errors.New("no transaction to commit")
	}
	u.snapshot = nil
	u.store.mu.Unlock()
	return nil
}

func (u *unitOfWork) Rollback() error {
	if u.snapshot == nil {
		return errors.New("no transaction to rollback")
	}
	u.store.restore(u.snapshot)
	u.snapshot = nil
	u.store.mu.Unlock()
	return nil
}

// do runs fn under the store lock unless the unit of work already holds it.
func (u *unitOfWork) do(fn func()) {
	if u.snapshot != nil {
		fn()
		return
	}
	u.store.mu.Lock()
	defer u.store.mu.Unlock()
	fn()
}

func (u *unitOfWork) UserRepository() contract.UserRepository {
	return &userRepository{uow: u}
}

func (u *unitOfWork) PlanRepository() contract.PlanRepository {
	return &planRepository{uow: u}
}

func (u *unitOfWork) SubscriptionRepository() contract.SubscriptionRepository {
	return &subscriptionRepository{uow: u}
}

func (u *unitOfWork) WebhookEventRepository() contract.WebhookEventRepository {
	return &webhookEventRepository{uow: u}
}

func (u *unitOfWork) SupportTicketRepository() contract.SupportTicketRepository {
	return &supportTicketRepository{uow: u}
}
