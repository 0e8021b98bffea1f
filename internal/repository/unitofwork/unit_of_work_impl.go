package unitofwork

import (
	"context"
	"database/sql"
	"errors"

	"leadflow-be/internal/repository/contract"
	"leadflow-be/internal/repository/implementation"

	"gorm.io/gorm"
)

var (
	ErrTransactionActive = errors.New("transaction already started")
	ErrNoTransaction     = errors.New("no transaction in progress")
)

type UnitOfWorkImpl struct {
	db *gorm.DB
	tx *gorm.DB // nil outside a transaction
}

func NewUnitOfWork(db *gorm.DB) UnitOfWork {
	return &UnitOfWorkImpl{
		db: db,
	}
}

func (u *UnitOfWorkImpl) getDB() *gorm.DB {
	if u.tx != nil {
		return u.tx
	}
	return u.db
}

// Begin opens a READ COMMITTED transaction; ledger writes carry their own
// balance precondition.
func (u *UnitOfWorkImpl) Begin(ctx context.Context) error {
	if u.tx != nil {
		return ErrTransactionActive
	}
	tx := u.db.WithContext(ctx).Begin(&sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if tx.Error != nil {
		return tx.Error
	}
	u.tx = tx
	return nil
}

func (u *UnitOfWorkImpl) Commit() error {
	if u.tx == nil {
		return ErrNoTransaction
	}
	err := u.tx.Commit().Error
	u.tx = nil
	return err
}

func (u *UnitOfWorkImpl) Rollback() error {
	if u.tx == nil {
		return ErrNoTransaction
	}
	err := u.tx.Rollback().Error
	u.tx = nil
	return err
}

func (u *UnitOfWorkImpl) UserRepository() contract.UserRepository {
	return implementation.NewUserRepository(u.getDB())
}

func (u *UnitOfWorkImpl) PlanRepository() contract.PlanRepository {
	return implementation.NewPlanRepository(u.getDB())
}

func (u *UnitOfWorkImpl) SubscriptionRepository() contract.SubscriptionRepository {
	return implementation.NewSubscriptionRepository(u.getDB())
}

func (u *UnitOfWorkImpl) WebhookEventRepository() contract.WebhookEventRepository {
	return implementation.NewWebhookEventRepository(u.getDB())
}

func (u *UnitOfWorkImpl) SupportTicketRepository() contract.SupportTicketRepository {
	return implementation.NewSupportTicketRepository(u.getDB())
}
