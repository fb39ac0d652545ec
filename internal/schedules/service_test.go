package schedules

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/mealdash-backend/internal/settlement"
	"github.com/angelmondragon/mealdash-backend/internal/wallets"
	"github.com/angelmondragon/mealdash-backend/pkg/db/dbtest"
	"github.com/angelmondragon/mealdash-backend/pkg/db/models"
	"github.com/angelmondragon/mealdash-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/mealdash-backend/pkg/errors"
	"github.com/angelmondragon/mealdash-backend/pkg/outbox"
)

type harness struct {
	conn    *gorm.DB
	svc     Service
	user    models.User
	vendor  models.Vendor
	partner models.DeliveryPartner
}

func newHarness(t *testing.T) harness {
	t.Helper()
	client, conn := dbtest.NewClient(t)
	outboxSvc := outbox.NewService(outbox.NewRepository(conn), nil)
	walletSvc, err := wallets.NewService(wallets.NewRepository(conn), client, outboxSvc, nil)
	require.NoError(t, err)
	settleSvc, err := settlement.NewService(settlement.ServiceParams{
		Repository: settlement.NewRepository(conn),
		Wallets:    walletSvc,
		Outbox:     outboxSvc,
	})
	require.NoError(t, err)
	svc, err := NewService(ServiceParams{
		Repository: NewRepository(conn),
		TxRunner:   client,
		Outbox:     outboxSvc,
		Settlement: settleSvc,
		Now:        func() time.Time { return time.Date(2026, time.March, 2, 13, 0, 0, 0, time.UTC) },
	})
	require.NoError(t, err)

	dbtest.CreateSettings(t, conn, "10", "5")
	dbtest.CreateAdmin(t, conn)
	return harness{
		conn:    conn,
		svc:     svc,
		user:    dbtest.CreateUser(t, conn),
		vendor:  dbtest.CreateVendor(t, conn, nil),
		partner: dbtest.CreatePartner(t, conn, true),
	}
}

func (h harness) order(t *testing.T, statuses ...enums.ScheduleStatus) dbtest.OrderFixture {
	t.Helper()
	return dbtest.CreateOrder(t, h.conn, h.user.ID, h.vendor.ID, "1000", "30", statuses...)
}

func (h harness) assignDirect(t *testing.T, schedule models.MealSchedule) {
	t.Helper()
	require.NoError(t, h.conn.Model(&models.MealSchedule{}).
		Where("id = ?", schedule.ID).
		Update("delivery_partner_id", h.partner.ID).Error)
}

func (h harness) reload(t *testing.T, id uuid.UUID) models.MealSchedule {
	t.Helper()
	var row models.MealSchedule
	require.NoError(t, h.conn.First(&row, "id = ?", id).Error)
	return row
}

func (h harness) count(t *testing.T, model any, query string, args ...any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, h.conn.Model(model).Where(query, args...).Count(&n).Error)
	return n
}

func TestPartnerHappyPathSettlesAndPromotes(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	fixture := h.order(t, enums.ScheduleStatusPickedUp)
	schedule := fixture.Schedules[0]
	h.assignDirect(t, schedule)

	_, err := h.svc.UpdateStatusAsPartner(ctx, TransitionInput{ScheduleID: schedule.ID, ActorID: h.partner.ID, Target: enums.ScheduleStatusOutForDelivery})
	require.NoError(t, err)
	updated, err := h.svc.UpdateStatusAsPartner(ctx, TransitionInput{ScheduleID: schedule.ID, ActorID: h.partner.ID, Target: enums.ScheduleStatusDelivered})
	require.NoError(t, err)
	require.Equal(t, enums.ScheduleStatusDelivered, updated.Status)
	require.NotNil(t, updated.DeliveredAt)

	var order models.Order
	require.NoError(t, h.conn.First(&order, "id = ?", fixture.Order.ID).Error)
	require.Equal(t, enums.OrderStatusDelivered, order.Status)

	require.EqualValues(t, 1, h.count(t, &models.WalletTransaction{}, "type = ? AND amount = ?", enums.WalletTransactionCredit, 900))
	require.EqualValues(t, 1, h.count(t, &models.WalletTransaction{}, "type = ? AND amount = ?", enums.WalletTransactionCredit, 30))
	require.EqualValues(t, 1, h.count(t, &models.WalletTransaction{}, "type = ? AND amount = ?", enums.WalletTransactionCredit, 50))
	require.EqualValues(t, 1, h.count(t, &models.Settlement{}, "schedule_id = ?", schedule.ID))
	require.EqualValues(t, 1, h.count(t, &models.OutboxEvent{}, "event_type = ?", enums.EventOrderDelivered))
	require.EqualValues(t, 2, h.count(t, &models.OutboxEvent{}, "event_type = ?", enums.EventScheduleStatusChanged))

	_, err = h.svc.UpdateStatusAsPartner(ctx, TransitionInput{ScheduleID: schedule.ID, ActorID: h.partner.ID, Target: enums.ScheduleStatusDelivered})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
	require.EqualValues(t, 1, h.count(t, &models.Settlement{}, "schedule_id = ?", schedule.ID))
}

func TestPartnerDeliveryRollsBackWhenSettlementFails(t *testing.T) {
	h := newHarness(t)
	fixture := h.order(t, enums.ScheduleStatusOutForDelivery)
	schedule := fixture.Schedules[0]
	h.assignDirect(t, schedule)
	require.NoError(t, h.conn.Where("1 = 1").Delete(&models.Settings{}).Error)

	_, err := h.svc.UpdateStatusAsPartner(context.Background(), TransitionInput{
		ScheduleID: schedule.ID,
		ActorID:    h.partner.ID,
		Target:     enums.ScheduleStatusDelivered,
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	reloaded := h.reload(t, schedule.ID)
	require.Equal(t, enums.ScheduleStatusOutForDelivery, reloaded.Status)
	require.Nil(t, reloaded.DeliveredAt)

	var order models.Order
	require.NoError(t, h.conn.First(&order, "id = ?", fixture.Order.ID).Error)
	require.Equal(t, fixture.Order.Status, order.Status)

	require.Zero(t, h.count(t, &models.Wallet{}, "1 = 1"))
	require.Zero(t, h.count(t, &models.WalletTransaction{}, "1 = 1"))
	require.Zero(t, h.count(t, &models.Settlement{}, "1 = 1"))
	require.Zero(t, h.count(t, &models.OutboxEvent{}, "1 = 1"))
}

func TestPartnerCannotSkipToDelivered(t *testing.T) {
	h := newHarness(t)
	fixture := h.order(t, enums.ScheduleStatusScheduled)
	schedule := fixture.Schedules[0]
	h.assignDirect(t, schedule)

	_, err := h.svc.UpdateStatusAsPartner(context.Background(), TransitionInput{
		ScheduleID: schedule.ID,
		ActorID:    h.partner.ID,
		Target:     enums.ScheduleStatusDelivered,
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
	require.Contains(t, err.Error(), "cannot change status from SCHEDULED to DELIVERED")

	require.Equal(t, enums.ScheduleStatusScheduled, h.reload(t, schedule.ID).Status)
	require.Zero(t, h.count(t, &models.WalletTransaction{}, "1 = 1"))
}

func TestPartnerDeliveryKeepsOrderOpenUntilSiblingsFinish(t *testing.T) {
	h := newHarness(t)
	fixture := h.order(t, enums.ScheduleStatusOutForDelivery, enums.ScheduleStatusScheduled)
	first := fixture.Schedules[0]
	h.assignDirect(t, first)

	_, err := h.svc.UpdateStatusAsPartner(context.Background(), TransitionInput{ScheduleID: first.ID, ActorID: h.partner.ID, Target: enums.ScheduleStatusDelivered})
	require.NoError(t, err)

	var order models.Order
	require.NoError(t, h.conn.First(&order, "id = ?", fixture.Order.ID).Error)
	require.Equal(t, enums.OrderStatusPending, order.Status)

	missed, err := h.svc.MarkMissed(context.Background(), fixture.Schedules[1].ID)
	require.NoError(t, err)
	require.True(t, missed)
	require.NoError(t, h.conn.First(&order, "id = ?", fixture.Order.ID).Error)
	require.Equal(t, enums.OrderStatusDelivered, order.Status)
}

func TestPartnerActorChecks(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	fixture := h.order(t, enums.ScheduleStatusPrepared)
	schedule := fixture.Schedules[0]

	_, err := h.svc.UpdateStatusAsPartner(ctx, TransitionInput{ScheduleID: schedule.ID, ActorID: h.partner.ID, Target: enums.ScheduleStatusPickedUp})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	h.assignDirect(t, schedule)
	_, err = h.svc.UpdateStatusAsPartner(ctx, TransitionInput{ScheduleID: schedule.ID, ActorID: h.partner.ID, Target: enums.ScheduleStatusCancelled})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	_, err = h.svc.UpdateStatusAsPartner(ctx, TransitionInput{ScheduleID: schedule.ID, ActorID: h.partner.ID, Target: enums.ScheduleStatusMissed})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
	require.Contains(t, err.Error(), "cannot change status from PREPARED to MISSED")

	_, err = h.svc.UpdateStatusAsPartner(ctx, TransitionInput{ScheduleID: schedule.ID, ActorID: uuid.New(), Target: enums.ScheduleStatusPickedUp})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	updated, err := h.svc.UpdateStatusAsPartner(ctx, TransitionInput{ScheduleID: schedule.ID, ActorID: h.partner.ID, Target: enums.ScheduleStatusPickedUp})
	require.NoError(t, err)
	require.Equal(t, enums.ScheduleStatusPickedUp, updated.Status)
}

func TestVendorTransitions(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	fixture := h.order(t, enums.ScheduleStatusScheduled)
	schedule := fixture.Schedules[0]

	_, err := h.svc.UpdateStatusAsVendor(ctx, TransitionInput{ScheduleID: schedule.ID, ActorID: h.vendor.ID, Target: enums.ScheduleStatusDelivered})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	_, err = h.svc.UpdateStatusAsVendor(ctx, TransitionInput{ScheduleID: schedule.ID, ActorID: uuid.New(), Target: enums.ScheduleStatusConfirmed})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	updated, err := h.svc.UpdateStatusAsVendor(ctx, TransitionInput{ScheduleID: schedule.ID, ActorID: h.vendor.ID, Target: enums.ScheduleStatusReadyForPickup})
	require.NoError(t, err)
	require.Equal(t, enums.ScheduleStatusReadyForPickup, updated.Status)

	_, err = h.svc.UpdateStatusAsVendor(ctx, TransitionInput{ScheduleID: schedule.ID, ActorID: h.vendor.ID, Target: enums.ScheduleStatusReadyForPickup})
	require.NoError(t, err)
	require.EqualValues(t, 1, h.count(t, &models.OutboxEvent{}, "event_type = ?", enums.EventScheduleStatusChanged))
}

func TestAdminTerminalStatusIsImmutableAndPromotes(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	admin := uuid.New()
	fixture := h.order(t, enums.ScheduleStatusDelivered, enums.ScheduleStatusPreparing)

	_, err := h.svc.UpdateStatusAsAdmin(ctx, TransitionInput{ScheduleID: fixture.Schedules[0].ID, ActorID: admin, Target: enums.ScheduleStatusScheduled})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	_, err = h.svc.UpdateStatusAsAdmin(ctx, TransitionInput{ScheduleID: fixture.Schedules[1].ID, ActorID: admin, Target: enums.ScheduleStatusCancelled})
	require.NoError(t, err)

	var order models.Order
	require.NoError(t, h.conn.First(&order, "id = ?", fixture.Order.ID).Error)
	require.Equal(t, enums.OrderStatusDelivered, order.Status)
	require.Zero(t, h.count(t, &models.Settlement{}, "1 = 1"))
}

func TestAssignPartner(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	fixture := h.order(t, enums.ScheduleStatusReadyForPickup)
	schedule := fixture.Schedules[0]
	inactive := dbtest.CreatePartner(t, h.conn, false)

	_, err := h.svc.AssignPartner(ctx, AssignInput{ScheduleID: schedule.ID, PartnerID: uuid.New()})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = h.svc.AssignPartner(ctx, AssignInput{ScheduleID: schedule.ID, PartnerID: inactive.ID})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	updated, err := h.svc.AssignPartner(ctx, AssignInput{ScheduleID: schedule.ID, PartnerID: h.partner.ID, ActorID: uuid.New()})
	require.NoError(t, err)
	require.Equal(t, enums.ScheduleStatusPrepared, updated.Status)
	require.Equal(t, h.partner.ID, *h.reload(t, schedule.ID).DeliveryPartnerID)
	require.EqualValues(t, 1, h.count(t, &models.OutboxEvent{}, "event_type = ?", enums.EventPartnerAssigned))

	rows, err := h.svc.ListForPartner(ctx, h.partner.ID, ListFilter{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestOverdueAndLists(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	fixture := h.order(t, enums.ScheduleStatusScheduled, enums.ScheduleStatusConfirmed, enums.ScheduleStatusPrepared)

	overdue, err := h.svc.ListOverdue(ctx, time.Date(2026, time.March, 5, 0, 0, 0, 0, time.UTC), 0)
	require.NoError(t, err)
	require.Len(t, overdue, 2)

	none, err := h.svc.ListOverdue(ctx, time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC), 0)
	require.NoError(t, err)
	require.Empty(t, none)

	missed, err := h.svc.MarkMissed(ctx, fixture.Schedules[2].ID)
	require.NoError(t, err)
	require.False(t, missed)

	byOrder, err := h.svc.ListForOrder(ctx, fixture.Order.ID)
	require.NoError(t, err)
	require.Len(t, byOrder, 3)

	day := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)
	byVendor, err := h.svc.ListForVendor(ctx, h.vendor.ID, ListFilter{Date: &day, Status: enums.ScheduleStatusConfirmed})
	require.NoError(t, err)
	require.Len(t, byVendor, 1)
}

func TestGeneratorRequiresVendor(t *testing.T) {
	conn := dbtest.New(t)
	generator, err := NewGenerator(NewRepository(conn))
	require.NoError(t, err)

	order := &models.Order{ID: uuid.New(), VendorID: uuid.New(), OrderType: enums.OrderTypeWeekly, StartDate: dbtest.Day(2026, time.March, 2)}
	item := &models.OrderItem{ID: uuid.New(), OrderID: order.ID, MealType: "LUNCH", MealTitle: "Thali", Quantity: 1}
	_, err = generator.Generate(context.Background(), conn, order, item)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
}

func TestGeneratorUsesVendorWindows(t *testing.T) {
	conn := dbtest.New(t)
	generator, err := NewGenerator(NewRepository(conn))
	require.NoError(t, err)
	user := dbtest.CreateUser(t, conn)
	vendor := dbtest.CreateVendor(t, conn, func(v *models.Vendor) {
		v.LunchStart = strPtr("11:45")
		v.LunchEnd = strPtr("13:15")
	})
	fixture := dbtest.CreateOrder(t, conn, user.ID, vendor.ID, "200", "10")
	fixture.Item.Quantity = 2

	rows, err := generator.Generate(context.Background(), conn, &fixture.Order, &fixture.Item)
	require.NoError(t, err)
	require.Len(t, rows, 14)

	var stored []models.MealSchedule
	require.NoError(t, conn.Where("order_id = ?", fixture.Order.ID).Find(&stored).Error)
	require.Len(t, stored, 14)
	for _, row := range stored {
		require.Equal(t, "11:45-13:15", row.ScheduledTimeSlot)
	}
}
