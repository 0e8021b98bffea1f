package implementation_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// sqliteSchema mirrors cmd/migrate without the postgres-only column defaults.
var sqliteSchema = []string{
	`CREATE TABLE users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		full_name TEXT,
		role TEXT DEFAULT 'user',
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE plans (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		price NUMERIC NOT NULL,
		leads_included INTEGER NOT NULL DEFAULT 0,
		provider_plan_code TEXT UNIQUE,
		is_active BOOLEAN DEFAULT true,
		sort_order INTEGER DEFAULT 0
	)`,
	`CREATE TABLE subscriptions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		plan_id TEXT NOT NULL,
		status TEXT NOT NULL,
		leads_balance INTEGER NOT NULL DEFAULT 0,
		current_period_start DATETIME NOT NULL,
		current_period_end DATETIME NOT NULL,
		first_payment_date DATETIME,
		refund_deadline DATETIME,
		provider_transaction_id TEXT,
		provider_subscription_id TEXT,
		cancelled_at DATETIME,
		cancellation_reason TEXT,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE UNIQUE INDEX ux_subscriptions_user_active ON subscriptions (user_id) WHERE status = 'active'`,
	`CREATE TABLE support_tickets (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		subscription_id TEXT NOT NULL,
		type TEXT NOT NULL,
		priority TEXT NOT NULL DEFAULT 'NORMAL',
		status TEXT NOT NULL DEFAULT 'OPEN',
		provider_subscription_id TEXT,
		provider_transaction_id TEXT,
		metadata TEXT,
		resolution_note TEXT,
		resolved_at DATETIME,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE UNIQUE INDEX ux_support_tickets_open_cancellation ON support_tickets (subscription_id)
		WHERE status = 'OPEN' AND type = 'cancellation'`,
	`CREATE TABLE webhook_events (
		id TEXT PRIMARY KEY,
		provider_event_id TEXT NOT NULL UNIQUE,
		action TEXT,
		status TEXT,
		payload TEXT,
		processed BOOLEAN DEFAULT false,
		processed_at DATETIME,
		operation TEXT,
		note TEXT,
		error_message TEXT DEFAULT '',
		attempts INTEGER DEFAULT 0,
		claimed_at DATETIME,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE INDEX ix_webhook_events_unsettled ON webhook_events (created_at) WHERE processed = false OR error_message <> ''`,
}

func newSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "ledger.db") + "?_busy_timeout=5000&_journal_mode=WAL"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	for _, stmt := range sqliteSchema {
		require.NoError(t, db.Exec(stmt).Error)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func TestGormLedgerSQLite(t *testing.T) {
	exerciseLedger(t, newSQLiteDB(t))
}
