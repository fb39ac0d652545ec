package wallets

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/mealdash-backend/pkg/db/dbtest"
	"github.com/angelmondragon/mealdash-backend/pkg/db/models"
	"github.com/angelmondragon/mealdash-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/mealdash-backend/pkg/errors"
	"github.com/angelmondragon/mealdash-backend/pkg/outbox"
)

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	client, conn := dbtest.NewClient(t)
	svc, err := NewService(NewRepository(conn), client, outbox.NewService(outbox.NewRepository(conn), nil), nil)
	require.NoError(t, err)
	return svc, conn
}

func dec(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(nil, nil, nil, nil)
	require.Error(t, err)
}

func TestCreditCreatesWalletAndLedgerRow(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	vendorID := uuid.New()
	orderID := uuid.New()

	txn, err := svc.Credit(ctx, conn, EntryInput{
		OwnerType:   enums.WalletOwnerVendor,
		OwnerID:     vendorID,
		Amount:      dec("90.005"),
		Description: "settlement",
		OrderID:     &orderID,
	})
	require.NoError(t, err)
	require.Equal(t, enums.WalletTransactionCredit, txn.Type)
	require.True(t, dec("90.01").Equal(txn.Amount))
	require.True(t, dec("90.01").Equal(txn.BalanceAfter))

	_, err = svc.Credit(ctx, conn, EntryInput{OwnerType: enums.WalletOwnerVendor, OwnerID: vendorID, Amount: dec("10")})
	require.NoError(t, err)

	view, err := svc.GetWallet(ctx, enums.WalletOwnerVendor, vendorID)
	require.NoError(t, err)
	require.True(t, view.Exists)
	require.True(t, dec("100.01").Equal(view.Balance))

	var count int64
	require.NoError(t, conn.Model(&models.Wallet{}).Where("owner_id = ?", vendorID).Count(&count).Error)
	require.EqualValues(t, 1, count)

	rows, err := svc.ListTransactions(ctx, view.ID, 0)
	require.NoError(t, err)
	require.Len(t, rows, 2)
}

func TestCreditRejectsNegativeAmount(t *testing.T) {
	svc, conn := newTestService(t)

	_, err := svc.Credit(context.Background(), conn, EntryInput{
		OwnerType: enums.WalletOwnerVendor,
		OwnerID:   uuid.New(),
		Amount:    dec("-1"),
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestGetWalletWithoutCreditsReturnsZeroView(t *testing.T) {
	svc, conn := newTestService(t)
	partnerID := uuid.New()

	view, err := svc.GetWallet(context.Background(), enums.WalletOwnerDeliveryPartner, partnerID)
	require.NoError(t, err)
	require.False(t, view.Exists)
	require.True(t, view.Balance.IsZero())

	var count int64
	require.NoError(t, conn.Model(&models.Wallet{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestDebitWalletGuardsBalanceAndEmitsEvent(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	partnerID := uuid.New()

	credit, err := svc.Credit(ctx, conn, EntryInput{OwnerType: enums.WalletOwnerDeliveryPartner, OwnerID: partnerID, Amount: dec("50")})
	require.NoError(t, err)

	_, err = svc.DebitWallet(ctx, DebitWalletInput{WalletID: credit.WalletID, Amount: dec("80")})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	paymentID := "payout-1"
	txn, err := svc.DebitWallet(ctx, DebitWalletInput{
		WalletID:  credit.WalletID,
		Amount:    dec("20"),
		PaymentID: &paymentID,
		ActorID:   uuid.New(),
	})
	require.NoError(t, err)
	require.Equal(t, enums.WalletTransactionDebit, txn.Type)
	require.True(t, dec("30").Equal(txn.BalanceAfter))

	var events []models.OutboxEvent
	require.NoError(t, conn.Where("event_type = ?", enums.EventWalletDebited).Find(&events).Error)
	require.Len(t, events, 1)
	require.Equal(t, credit.WalletID, events[0].AggregateID)
}

func TestDebitRejectsMissingWallet(t *testing.T) {
	svc, conn := newTestService(t)

	_, err := svc.Debit(context.Background(), conn, EntryInput{
		OwnerType: enums.WalletOwnerAdmin,
		OwnerID:   uuid.New(),
		Amount:    dec("5"),
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestReconcileDetectsDrift(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	vendorID := uuid.New()

	credit, err := svc.Credit(ctx, conn, EntryInput{OwnerType: enums.WalletOwnerVendor, OwnerID: vendorID, Amount: dec("40")})
	require.NoError(t, err)
	_, err = svc.Debit(ctx, conn, EntryInput{OwnerType: enums.WalletOwnerVendor, OwnerID: vendorID, Amount: dec("15")})
	require.NoError(t, err)

	result, err := svc.Reconcile(ctx, credit.WalletID)
	require.NoError(t, err)
	require.True(t, result.Consistent)
	require.True(t, dec("25").Equal(result.LedgerSum))

	require.NoError(t, conn.Model(&models.Wallet{}).Where("id = ?", credit.WalletID).Update("balance", dec("30")).Error)

	results, err := svc.ReconcileAll(ctx)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.False(t, results[0].Consistent)
	require.True(t, dec("5").Equal(results[0].Difference))
}
