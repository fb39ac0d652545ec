package outbox

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/mealdash-backend/pkg/db/dbtest"
	"github.com/angelmondragon/mealdash-backend/pkg/db/models"
	"github.com/angelmondragon/mealdash-backend/pkg/enums"
	"github.com/angelmondragon/mealdash-backend/pkg/outbox/payloads"
)

func TestServiceEmitPersistsEnvelope(t *testing.T) {
	conn := dbtest.New(t)
	repo := NewRepository(conn)
	svc := NewService(repo, nil)
	orderID := uuid.New()
	actorID := uuid.New()

	err := svc.Emit(context.Background(), conn, DomainEvent{
		EventType:     enums.EventOrderDelivered,
		AggregateType: enums.AggregateOrder,
		AggregateID:   orderID,
		Actor:         &ActorRef{ID: actorID, Role: string(enums.RoleDeliveryPartner)},
		Data:          payloads.OrderDeliveredEvent{OrderID: orderID},
	})
	require.NoError(t, err)

	rows, err := repo.FetchUnpublishedForPublish(conn, 10, 5)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, orderID, rows[0].AggregateID)

	envelope, err := DecodeEnvelope(rows[0].Payload)
	require.NoError(t, err)
	require.Equal(t, EnvelopeVersion, envelope.Version)
	require.Equal(t, rows[0].ID, envelope.EventID)
	require.Equal(t, actorID, envelope.Actor.ID)
	require.JSONEq(t, `{"order_id":"`+orderID.String()+`","user_id":"00000000-0000-0000-0000-000000000000","vendor_id":"00000000-0000-0000-0000-000000000000"}`, string(envelope.Data))
}

func TestServiceEmitRequiresTxAndValidTypes(t *testing.T) {
	conn := dbtest.New(t)
	svc := NewService(NewRepository(conn), nil)

	require.Error(t, svc.Emit(context.Background(), nil, DomainEvent{}))
	require.Error(t, svc.Emit(context.Background(), conn, DomainEvent{
		EventType:     "bogus",
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
	}))
	require.Error(t, svc.Emit(context.Background(), conn, DomainEvent{
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
	}))
}

func TestServiceEmitIfNotExists(t *testing.T) {
	conn := dbtest.New(t)
	repo := NewRepository(conn)
	svc := NewService(repo, nil)
	orderID := uuid.New()
	event := DomainEvent{
		EventType:     enums.EventOrderDelivered,
		AggregateType: enums.AggregateOrder,
		AggregateID:   orderID,
		Data:          payloads.OrderDeliveredEvent{OrderID: orderID},
	}

	require.NoError(t, svc.EmitIfNotExists(context.Background(), conn, event))
	require.NoError(t, svc.EmitIfNotExists(context.Background(), conn, event))

	var count int64
	require.NoError(t, conn.Model(&models.OutboxEvent{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestRepositoryAttemptTracking(t *testing.T) {
	conn := dbtest.New(t)
	repo := NewRepository(conn)
	svc := NewService(repo, nil)
	for i := 0; i < 2; i++ {
		require.NoError(t, svc.Emit(context.Background(), conn, DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   uuid.New(),
			Data:          payloads.OrderCreatedEvent{},
		}))
	}

	rows, err := repo.FetchUnpublishedForPublish(conn, 10, 3)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	require.NoError(t, repo.MarkPublishedTx(conn, rows[0].ID))
	require.NoError(t, repo.MarkFailedTx(conn, rows[1].ID, errors.New("pubsub unavailable")))

	failed, err := repo.FindByID(context.Background(), rows[1].ID)
	require.NoError(t, err)
	require.Equal(t, 1, failed.AttemptCount)
	require.Equal(t, "pubsub unavailable", *failed.LastError)

	require.NoError(t, repo.MarkTerminalTx(conn, rows[1].ID, errors.New("bad payload"), 3))
	pending, err := repo.FetchUnpublishedForPublish(conn, 10, 3)
	require.NoError(t, err)
	require.Empty(t, pending)

	deleted, err := repo.DeletePublishedBefore(context.Background(), conn, time.Now().UTC().Add(time.Hour), 3)
	require.NoError(t, err)
	require.EqualValues(t, 2, deleted)

	missing, err := repo.FindByID(context.Background(), rows[0].ID)
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestDLQRepositoryTruncatesAndLists(t *testing.T) {
	conn := dbtest.New(t)
	dlq := NewDLQRepository(conn)
	eventID := uuid.New()
	long := make([]byte, maxDLQErrorLen+100)
	for i := range long {
		long[i] = 'x'
	}
	msg := string(long)

	require.NoError(t, dlq.InsertTx(conn, models.OutboxDLQ{
		EventID:       eventID,
		EventType:     enums.EventWalletDebited,
		AggregateType: enums.AggregateWallet,
		AggregateID:   uuid.New(),
		Payload:       []byte(`{}`),
		ErrorReason:   enums.OutboxDLQReasonNonRetryable,
		ErrorMessage:  &msg,
		AttemptCount:  1,
	}))

	found, err := dlq.FindByEventID(context.Background(), eventID)
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Len(t, *found.ErrorMessage, maxDLQErrorLen)

	rows, err := dlq.List(context.Background(), string(enums.EventWalletDebited), 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	rows, err = dlq.List(context.Background(), string(enums.EventOrderCreated), 10)
	require.NoError(t, err)
	require.Empty(t, rows)
}

func TestDLQRepositoryRequeueResetsOrRebuildsOutboxRow(t *testing.T) {
	conn := dbtest.New(t)
	repo := NewRepository(conn)
	dlq := NewDLQRepository(conn)
	ctx := context.Background()

	kept := models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
		Payload:       []byte(`{"version":1}`),
	}
	require.NoError(t, repo.Insert(conn, kept))
	require.NoError(t, repo.MarkTerminalTx(conn, kept.ID, errors.New("topic gone"), 5))

	removedID := uuid.New()
	for _, entry := range []models.OutboxDLQ{
		{EventID: kept.ID, EventType: kept.EventType, AggregateType: kept.AggregateType, AggregateID: kept.AggregateID, Payload: kept.Payload, ErrorReason: enums.OutboxDLQReasonMaxAttempts, AttemptCount: 5},
		{EventID: removedID, EventType: enums.EventWalletDebited, AggregateType: enums.AggregateWallet, AggregateID: uuid.New(), Payload: []byte(`{"version":1}`), ErrorReason: enums.OutboxDLQReasonUnroutable},
	} {
		require.NoError(t, dlq.InsertTx(conn, entry))
	}

	ok, err := dlq.RequeueTx(conn, kept.ID)
	require.NoError(t, err)
	require.True(t, ok)
	reset, err := repo.FindByID(ctx, kept.ID)
	require.NoError(t, err)
	require.NotNil(t, reset)
	require.Zero(t, reset.AttemptCount)
	require.Nil(t, reset.LastError)

	ok, err = dlq.RequeueTx(conn, removedID)
	require.NoError(t, err)
	require.True(t, ok)
	rebuilt, err := repo.FindByID(ctx, removedID)
	require.NoError(t, err)
	require.NotNil(t, rebuilt)
	require.Equal(t, enums.EventWalletDebited, rebuilt.EventType)

	remaining, err := dlq.List(ctx, "", 0)
	require.NoError(t, err)
	require.Empty(t, remaining)

	ok, err = dlq.RequeueTx(conn, uuid.New())
	require.NoError(t, err)
	require.False(t, ok)

	_, err = dlq.RequeueTx(nil, kept.ID)
	require.Error(t, err)
}
