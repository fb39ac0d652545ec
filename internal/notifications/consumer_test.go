package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/mealdash-backend/pkg/db/dbtest"
	"github.com/angelmondragon/mealdash-backend/pkg/db/models"
	"github.com/angelmondragon/mealdash-backend/pkg/enums"
	"github.com/angelmondragon/mealdash-backend/pkg/logger"
	"github.com/angelmondragon/mealdash-backend/pkg/outbox"
	"github.com/angelmondragon/mealdash-backend/pkg/outbox/idempotency"
	"github.com/angelmondragon/mealdash-backend/pkg/outbox/payloads"
)

type memoryStore struct {
	mu   sync.Mutex
	keys map[string]string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{keys: map[string]string{}}
}

func (m *memoryStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.keys[key], nil
}

func (m *memoryStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.keys[key]; ok {
		return false, nil
	}
	m.keys[key] = "1"
	return true, nil
}

func (m *memoryStore) IdempotencyKey(scope, id string) string {
	return scope + ":" + id
}

func (m *memoryStore) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.keys, key)
	}
	return nil
}

type noopReceiver struct{}

func (noopReceiver) Receive(ctx context.Context, _ func(context.Context, *pubsub.Message)) error {
	<-ctx.Done()
	return nil
}

type recordingPush struct {
	sent []models.Notification
	err  error
}

func (r *recordingPush) Send(_ context.Context, n models.Notification) error {
	r.sent = append(r.sent, n)
	return r.err
}

type failingRepository struct {
	Repository
}

func (failingRepository) CreateBatch(context.Context, []models.Notification) error {
	return errors.New("connection reset")
}

func newTestConsumer(t *testing.T, repo Repository, push PushSender) (*Consumer, *memoryStore) {
	t.Helper()
	store := newMemoryStore()
	manager, err := idempotency.NewManager(store, time.Hour)
	require.NoError(t, err)
	consumer, err := NewConsumer(ConsumerParams{
		Repository:    repo,
		Subscriptions: []Receiver{noopReceiver{}},
		Idempotency:   manager,
		Push:          push,
		Logger:        logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
	})
	require.NoError(t, err)
	return consumer, store
}

func eventMessage(t *testing.T, eventType enums.OutboxEventType, eventID uuid.UUID, data any) *pubsub.Message {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	body, err := json.Marshal(outbox.PayloadEnvelope{
		Version:    outbox.EnvelopeVersion,
		EventID:    eventID,
		OccurredAt: time.Now().UTC(),
		Data:       raw,
	})
	require.NoError(t, err)
	return &pubsub.Message{
		ID:         "msg-" + eventID.String(),
		Data:       body,
		Attributes: map[string]string{"event_type": string(eventType)},
	}
}

func countNotifications(t *testing.T, conn *gorm.DB) int64 {
	t.Helper()
	var count int64
	require.NoError(t, conn.Model(&models.Notification{}).Count(&count).Error)
	return count
}

func TestNewConsumerRequiresDependencies(t *testing.T) {
	_, err := NewConsumer(ConsumerParams{})
	require.Error(t, err)

	_, err = NewConsumer(ConsumerParams{Repository: NewRepository(dbtest.New(t))})
	require.Error(t, err)
}

func TestConsumerStoresScheduleUpdateOnce(t *testing.T) {
	conn := dbtest.New(t)
	push := &recordingPush{}
	consumer, _ := newTestConsumer(t, NewRepository(conn), push)

	userID, vendorID := uuid.New(), uuid.New()
	eventID := uuid.New()
	msg := eventMessage(t, enums.EventScheduleStatusChanged, eventID, payloads.ScheduleStatusChangedEvent{
		ScheduleID:    uuid.New(),
		OrderID:       uuid.New(),
		UserID:        userID,
		VendorID:      vendorID,
		ScheduledDate: "2026-03-02",
		From:          enums.ScheduleStatusPickedUp,
		To:            enums.ScheduleStatusOutForDelivery,
		ActorRole:     enums.RoleDeliveryPartner,
	})

	res := consumer.process(context.Background(), msg)
	require.True(t, res.ack)
	require.EqualValues(t, 2, countNotifications(t, conn))
	require.Len(t, push.sent, 2)

	var stored models.Notification
	require.NoError(t, conn.Where("recipient_type = ?", enums.RecipientUser).First(&stored).Error)
	require.Equal(t, userID, stored.RecipientID)
	require.Equal(t, "Your meal for 2026-03-02 is now out for delivery.", stored.Message)
	require.NotNil(t, stored.EventID)
	require.Equal(t, eventID, *stored.EventID)

	res = consumer.process(context.Background(), msg)
	require.True(t, res.ack)
	require.EqualValues(t, 2, countNotifications(t, conn))
	require.Len(t, push.sent, 2)
}

func TestConsumerSkipsVendorWhenVendorActed(t *testing.T) {
	conn := dbtest.New(t)
	consumer, _ := newTestConsumer(t, NewRepository(conn), nil)

	msg := eventMessage(t, enums.EventScheduleStatusChanged, uuid.New(), payloads.ScheduleStatusChangedEvent{
		ScheduleID: uuid.New(),
		UserID:     uuid.New(),
		VendorID:   uuid.New(),
		From:       enums.ScheduleStatusConfirmed,
		To:         enums.ScheduleStatusPreparing,
		ActorRole:  enums.RoleVendor,
	})
	require.True(t, consumer.process(context.Background(), msg).ack)
	require.EqualValues(t, 1, countNotifications(t, conn))
}

func TestConsumerNacksAndReleasesOnStorageFailure(t *testing.T) {
	consumer, store := newTestConsumer(t, failingRepository{}, nil)

	msg := eventMessage(t, enums.EventPartnerAssigned, uuid.New(), payloads.PartnerAssignedEvent{
		ScheduleID:        uuid.New(),
		DeliveryPartnerID: uuid.New(),
		ScheduledDate:     "2026-03-02",
	})
	res := consumer.process(context.Background(), msg)
	require.True(t, res.nack)
	require.Empty(t, store.keys)
}

func TestConsumerSwallowsPushFailures(t *testing.T) {
	conn := dbtest.New(t)
	push := &recordingPush{err: errors.New("provider down")}
	consumer, _ := newTestConsumer(t, NewRepository(conn), push)

	msg := eventMessage(t, enums.EventSettlementRecorded, uuid.New(), payloads.SettlementRecordedEvent{
		SettlementID:      uuid.New(),
		OrderID:           uuid.New(),
		ScheduleID:        uuid.New(),
		VendorID:          uuid.New(),
		DeliveryPartnerID: uuid.New(),
		VendorAmount:      decimal.RequireFromString("90"),
		DeliveryPayout:    decimal.RequireFromString("30"),
	})
	res := consumer.process(context.Background(), msg)
	require.True(t, res.ack)
	require.EqualValues(t, 2, countNotifications(t, conn))
	require.Len(t, push.sent, 2)
}

func TestConsumerAcksPoisonMessages(t *testing.T) {
	conn := dbtest.New(t)
	consumer, store := newTestConsumer(t, NewRepository(conn), nil)
	ctx := context.Background()

	require.True(t, consumer.process(ctx, &pubsub.Message{Data: []byte("not json")}).ack)

	unknown := eventMessage(t, enums.OutboxEventType("vendor_onboarded"), uuid.New(), map[string]string{})
	require.True(t, consumer.process(ctx, unknown).ack)

	badID := eventMessage(t, enums.EventOrderDelivered, uuid.New(), payloads.OrderDeliveredEvent{UserID: uuid.New()})
	var raw map[string]any
	require.NoError(t, json.Unmarshal(badID.Data, &raw))
	raw["eventId"] = "nope"
	badID.Data, _ = json.Marshal(raw)
	require.True(t, consumer.process(ctx, badID).ack)

	raw["eventId"] = uuid.Nil.String()
	badID.Data, _ = json.Marshal(raw)
	require.True(t, consumer.process(ctx, badID).ack)

	require.Zero(t, countNotifications(t, conn))
	require.Empty(t, store.keys)
}

func TestConsumerFansOutRequestedNotifications(t *testing.T) {
	conn := dbtest.New(t)
	consumer, _ := newTestConsumer(t, NewRepository(conn), nil)

	vendors := []uuid.UUID{uuid.New(), uuid.New(), uuid.Nil}
	msg := eventMessage(t, enums.EventNotificationRequested, uuid.New(), payloads.NotificationRequestedEvent{
		RecipientType: enums.RecipientVendor,
		RecipientIDs:  vendors,
		Type:          enums.NotificationType("promo"),
		Title:         "Menu refresh",
		Message:       "Update your dinner menu for next week.",
		Metadata:      map[string]any{"campaign": "spring"},
	})
	require.True(t, consumer.process(context.Background(), msg).ack)

	var rows []models.Notification
	require.NoError(t, conn.Find(&rows).Error)
	require.Len(t, rows, 2)
	for _, row := range rows {
		require.Equal(t, enums.NotificationTypeSystem, row.Type)
		require.Equal(t, "spring", row.Metadata["campaign"])
	}
}

func TestWalletDebitedTargetsOwner(t *testing.T) {
	ownerID := uuid.New()
	rows, err := walletDebited(payloads.WalletDebitedEvent{
		WalletID:     uuid.New(),
		OwnerType:    enums.WalletOwnerDeliveryPartner,
		OwnerID:      ownerID,
		Amount:       decimal.RequireFromString("25"),
		BalanceAfter: decimal.RequireFromString("5"),
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, enums.RecipientDeliveryPartner, rows[0].RecipientType)
	require.Equal(t, ownerID, rows[0].RecipientID)
	require.Equal(t, "25.00 was paid out from your wallet. Remaining balance 5.00.", rows[0].Message)
}

func TestRunStopsWithContext(t *testing.T) {
	consumer, _ := newTestConsumer(t, NewRepository(dbtest.New(t)), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, consumer.Run(ctx))
}
