package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"storefront/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Numeric and uuid columns are fed as text, the way they reach sql.Scanner implementations.
var ledgerTestColumns = []string{
	"id", "user_id", "remote_order_id", "gateway_order_id", "payment_method",
	"subtotal", "shipping", "tax", "total", "status", "created_at", "updated_at",
}

func newMockLedger(t *testing.T) (*ledgerRepository, pgxmock.PgxPoolIface, time.Time) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	now := time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC)
	repo := NewLedgerRepository(mock, zerolog.Nop()).(*ledgerRepository)
	repo.now = func() time.Time { return now }
	return repo, mock, now
}

func TestLedgerRepository_Create(t *testing.T) {
	repo, mock, now := newMockLedger(t)
	record := &model.CheckoutRecord{
		UserID:         "u1",
		RemoteOrderID:  "o1",
		GatewayOrderID: "order_RZP1",
		PaymentMethod:  model.PaymentGateway,
		Subtotal:       decimal.NewFromInt(1000),
		Shipping:       decimal.Zero,
		Tax:            decimal.NewFromInt(180),
		Total:          decimal.NewFromInt(1180),
		Status:         model.LedgerPendingPayment,
	}

	gateway := "order_RZP1"
	mock.ExpectExec("INSERT INTO checkout_orders").
		WithArgs(pgxmock.AnyArg(), "u1", "o1", &gateway, "razorpay",
			record.Subtotal, record.Shipping, record.Tax, record.Total,
			"pending_payment", now, now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.Create(context.Background(), record)

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, record.ID)
	assert.Equal(t, now, record.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepository_CreateCashOnDeliveryHasNoGatewayOrder(t *testing.T) {
	repo, mock, _ := newMockLedger(t)
	var noGateway *string

	mock.ExpectExec("INSERT INTO checkout_orders").
		WithArgs(pgxmock.AnyArg(), "u1", "o2", noGateway, "cod",
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			"placed", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.Create(context.Background(), &model.CheckoutRecord{
		UserID:        "u1",
		RemoteOrderID: "o2",
		PaymentMethod: model.PaymentCashOnDelivery,
		Status:        model.LedgerPlaced,
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepository_CreateError(t *testing.T) {
	repo, mock, _ := newMockLedger(t)
	mock.ExpectExec("INSERT INTO checkout_orders").WillReturnError(errors.New("duplicate key"))

	err := repo.Create(context.Background(), &model.CheckoutRecord{UserID: "u1"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create ledger row")
}

func TestLedgerRepository_UpdateStatus(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		execErr  error
		wantErr  error
		wantText string
	}{
		{name: "updated", affected: 1},
		{name: "no matching row", affected: 0, wantErr: model.ErrNotFound},
		{name: "database error", execErr: errors.New("connection reset"), wantText: "failed to update ledger status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, now := newMockLedger(t)
			exp := mock.ExpectExec("UPDATE checkout_orders").
				WithArgs("payment_verified", now, "order_RZP1", "u1")
			if tt.execErr != nil {
				exp.WillReturnError(tt.execErr)
			} else {
				exp.WillReturnResult(pgxmock.NewResult("UPDATE", tt.affected))
			}

			err := repo.UpdateStatus(context.Background(), "u1", "order_RZP1", model.LedgerPaymentVerified)

			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.wantText != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantText)
			default:
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestLedgerRepository_GetByGatewayOrderID(t *testing.T) {
	repo, mock, now := newMockLedger(t)
	id := uuid.New()
	gateway := "order_RZP1"

	mock.ExpectQuery("SELECT (.+) FROM checkout_orders WHERE gateway_order_id").
		WithArgs("order_RZP1").
		WillReturnRows(pgxmock.NewRows(ledgerTestColumns).AddRow(
			id.String(), "u1", "o1", &gateway, "razorpay",
			"1000.00", "0.00", "180.00", "1180.00",
			"pending_payment", now, now,
		))

	record, err := repo.GetByGatewayOrderID(context.Background(), "order_RZP1")

	require.NoError(t, err)
	assert.Equal(t, id, record.ID)
	assert.Equal(t, "order_RZP1", record.GatewayOrderID)
	assert.Equal(t, model.PaymentGateway, record.PaymentMethod)
	assert.Equal(t, model.LedgerPendingPayment, record.Status)
	assert.True(t, record.Total.Equal(decimal.NewFromInt(1180)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepository_GetByGatewayOrderIDNotFound(t *testing.T) {
	repo, mock, _ := newMockLedger(t)
	mock.ExpectQuery("SELECT (.+) FROM checkout_orders").
		WithArgs("order_missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetByGatewayOrderID(context.Background(), "order_missing")

	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestLedgerRepository_ListByUser(t *testing.T) {
	repo, mock, now := newMockLedger(t)
	var noGateway *string
	gateway := "order_RZP1"

	mock.ExpectQuery("SELECT (.+) FROM checkout_orders WHERE user_id").
		WithArgs("u1", 20).
		WillReturnRows(pgxmock.NewRows(ledgerTestColumns).
			AddRow(uuid.NewString(), "u1", "o2", noGateway, "cod",
				"500.00", "99.00", "90.00", "689.00",
				"placed", now, now).
			AddRow(uuid.NewString(), "u1", "o1", &gateway, "razorpay",
				"1000.00", "0.00", "180.00", "1180.00",
				"payment_verified", now.Add(-time.Hour), now.Add(-time.Hour)))

	records, err := repo.ListByUser(context.Background(), "u1", 0)

	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Empty(t, records[0].GatewayOrderID)
	assert.Equal(t, model.LedgerPlaced, records[0].Status)
	assert.Equal(t, model.LedgerPaymentVerified, records[1].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}
