package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

const ledgerColumns = `id, user_id, remote_order_id, gateway_order_id, payment_method,
		subtotal, shipping, tax, total, status, created_at, updated_at`

type ledgerRepository struct {
	db     DBTX
	logger zerolog.Logger
	now    func() time.Time
}

// NewLedgerRepository creates a PostgreSQL-backed checkout ledger.
func NewLedgerRepository(db DBTX, logger zerolog.Logger) CheckoutLedger {
	return &ledgerRepository{
		db:     db,
		logger: logger.With().Str("repository", "checkout_ledger").Logger(),
		now:    time.Now,
	}
}

func (r *ledgerRepository) Create(ctx context.Context, record *model.CheckoutRecord) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	now := r.now().UTC()
	record.CreatedAt = now
	record.UpdatedAt = now

	query := `
		INSERT INTO checkout_orders (` + ledgerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.db.Exec(ctx, query,
		record.ID,
		record.UserID,
		record.RemoteOrderID,
		nullable(record.GatewayOrderID),
		string(record.PaymentMethod),
		record.Subtotal,
		record.Shipping,
		record.Tax,
		record.Total,
		string(record.Status),
		record.CreatedAt,
		record.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("remote_order_id", record.RemoteOrderID).Msg("failed to create ledger row")
		return fmt.Errorf("failed to create ledger row: %w", err)
	}

	r.logger.Debug().
		Str("remote_order_id", record.RemoteOrderID).
		Str("status", string(record.Status)).
		Msg("ledger row created")
	return nil
}

func (r *ledgerRepository) UpdateStatus(ctx context.Context, userID, gatewayOrderID string, status model.LedgerStatus) error {
	query := `
		UPDATE checkout_orders
		SET status = $1, updated_at = $2
		WHERE gateway_order_id = $3 AND user_id = $4
	`

	tag, err := r.db.Exec(ctx, query, string(status), r.now().UTC(), gatewayOrderID, userID)
	if err != nil {
		r.logger.Error().Err(err).Str("gateway_order_id", gatewayOrderID).Msg("failed to update ledger status")
		return fmt.Errorf("failed to update ledger status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *ledgerRepository) GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*model.CheckoutRecord, error) {
	query := `SELECT ` + ledgerColumns + ` FROM checkout_orders WHERE gateway_order_id = $1`

	record, err := scanRecord(r.db.QueryRow(ctx, query, gatewayOrderID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		r.logger.Error().Err(err).Str("gateway_order_id", gatewayOrderID).Msg("failed to query ledger row")
		return nil, fmt.Errorf("failed to query ledger row: %w", err)
	}
	return record, nil
}

func (r *ledgerRepository) ListByUser(ctx context.Context, userID string, limit int) ([]model.CheckoutRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `
		SELECT ` + ledgerColumns + `
		FROM checkout_orders
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", userID).Msg("failed to query ledger rows")
		return nil, fmt.Errorf("failed to query ledger rows: %w", err)
	}
	defer rows.Close()

	records := []model.CheckoutRecord{}
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ledger row: %w", err)
		}
		records = append(records, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ledger rows: %w", err)
	}
	return records, nil
}

func scanRecord(row pgx.Row) (*model.CheckoutRecord, error) {
	var (
		record  model.CheckoutRecord
		gateway *string
		method  string
		status  string
	)
	err := row.Scan(
		&record.ID,
		&record.UserID,
		&record.RemoteOrderID,
		&gateway,
		&method,
		&record.Subtotal,
		&record.Shipping,
		&record.Tax,
		&record.Total,
		&status,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if gateway != nil {
		record.GatewayOrderID = *gateway
	}
	record.PaymentMethod = model.PaymentMethod(method)
	record.Status = model.LedgerStatus(status)
	return &record, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
