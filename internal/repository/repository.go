// Package repository persists the checkout ledger in PostgreSQL.
package repository

import (
	"context"

	"storefront/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is satisfied by *pgxpool.Pool, pgx.Tx and pgxmock pools.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// CheckoutLedger records every checkout phase.
type CheckoutLedger interface {
	// Create inserts a new ledger row.
	Create(ctx context.Context, record *model.CheckoutRecord) error

	// UpdateStatus moves the row for gatewayOrderID to status. Returns model.ErrNotFound when no
	// row of userID carries that gateway order.
	UpdateStatus(ctx context.Context, userID, gatewayOrderID string, status model.LedgerStatus) error

	// GetByGatewayOrderID returns the row for a gateway order, or model.ErrNotFound.
	GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*model.CheckoutRecord, error)

	// ListByUser returns the most recent rows of a user, newest first.
	ListByUser(ctx context.Context, userID string, limit int) ([]model.CheckoutRecord, error)
}
