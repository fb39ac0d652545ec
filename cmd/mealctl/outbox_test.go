package main

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/mealdash-backend/pkg/config"
	"github.com/angelmondragon/mealdash-backend/pkg/db"
	"github.com/angelmondragon/mealdash-backend/pkg/db/dbtest"
	"github.com/angelmondragon/mealdash-backend/pkg/db/models"
	"github.com/angelmondragon/mealdash-backend/pkg/enums"
	"github.com/angelmondragon/mealdash-backend/pkg/logger"
	"github.com/angelmondragon/mealdash-backend/pkg/outbox"
)

// sqliteEnvironment hands every command the same in-memory database. The
// command closes it when done, so each test builds its own.
func sqliteEnvironment(t *testing.T) (*environment, *gorm.DB) {
	t.Helper()
	conn := dbtest.New(t)
	env := testEnvironment()
	env.openDB = func(context.Context, *config.Config, *logger.Logger) (*db.Client, error) {
		return db.Wrap(conn), nil
	}
	return env, conn
}

func seedDLQ(t *testing.T, conn *gorm.DB, eventType enums.OutboxEventType) uuid.UUID {
	t.Helper()
	id := uuid.New()
	msg := "topic missing"
	require.NoError(t, outbox.NewDLQRepository(conn).InsertTx(conn, models.OutboxDLQ{
		EventID:       id,
		EventType:     eventType,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
		Payload:       []byte(`{"version":1}`),
		ErrorReason:   enums.OutboxDLQReasonUnroutable,
		ErrorMessage:  &msg,
		AttemptCount:  1,
	}))
	return id
}

func TestOutboxDLQListJSON(t *testing.T) {
	env, conn := sqliteEnvironment(t)
	created := seedDLQ(t, conn, enums.EventOrderCreated)
	seedDLQ(t, conn, enums.EventOrderCanceled)

	out, err := execute(t, env, "--format", "json", "outbox", "dlq", "list", "--type", string(enums.EventOrderCreated))
	require.NoError(t, err)

	var entries []dlqEntry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, created, entries[0].EventID)
	assert.Equal(t, "unroutable", entries[0].Reason)
	assert.Equal(t, "topic missing", entries[0].Error)
}

func TestOutboxDLQListRejectsUnknownType(t *testing.T) {
	_, err := execute(t, testEnvironment(), "outbox", "dlq", "list", "--type", "vendor_onboarded")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --type")
}

func TestOutboxDLQRequeue(t *testing.T) {
	env, conn := sqliteEnvironment(t)
	id := seedDLQ(t, conn, enums.EventOrderCreated)

	out, err := execute(t, env, "outbox", "dlq", "requeue", id.String())
	require.NoError(t, err)
	assert.Contains(t, out, "1 event(s) requeued")
}

func TestOutboxDLQRequeueUnknownEventRollsBack(t *testing.T) {
	env, conn := sqliteEnvironment(t)
	id := seedDLQ(t, conn, enums.EventOrderCreated)

	_, err := execute(t, env, "outbox", "dlq", "requeue", id.String(), uuid.NewString())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no dead-lettered event")
}

func TestOutboxDLQRequeueRejectsBadID(t *testing.T) {
	_, err := execute(t, testEnvironment(), "outbox", "dlq", "requeue", "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid event id")
}
