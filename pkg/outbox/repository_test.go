package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/swayaa-dev/storefront-backend/pkg/db/models"
	"github.com/swayaa-dev/storefront-backend/pkg/enums"
)

const sqliteUUID = `(lower(hex(randomblob(4)) || '-' || hex(randomblob(2)) || '-4' || substr(hex(randomblob(2)),2) || '-' || substr('89ab', abs(random()) % 4 + 1, 1) || substr(hex(randomblob(2)),2) || '-' || hex(randomblob(6))))`

func setupOutboxDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	statements := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS outbox_events (
  id TEXT PRIMARY KEY DEFAULT %s,
  event_type TEXT NOT NULL,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  payload TEXT NOT NULL,
  created_at DATETIME,
  published_at DATETIME,
  attempt_count INTEGER NOT NULL DEFAULT 0,
  last_error TEXT
);`, sqliteUUID),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS outbox_dlq (
  id TEXT PRIMARY KEY DEFAULT %s,
  event_id TEXT NOT NULL,
  event_type TEXT NOT NULL,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  payload_json TEXT NOT NULL,
  error_reason TEXT NOT NULL,
  error_message TEXT NOT NULL,
  attempt_count INTEGER NOT NULL,
  failed_at DATETIME NOT NULL,
  created_at DATETIME
);`, sqliteUUID),
	}
	for _, stmt := range statements {
		require.NoError(t, conn.Exec(stmt).Error)
	}
	return conn
}

func insertOutboxEvent(t *testing.T, conn *gorm.DB, attempts int) *models.OutboxEvent {
	t.Helper()
	event := &models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.OutboxEventOrderPlaced,
		AggregateType: enums.OutboxAggregateOrder,
		AggregateID:   uuid.New(),
		Payload:       json.RawMessage(`{"version":1,"eventId":"x","data":{}}`),
		AttemptCount:  attempts,
	}
	require.NoError(t, conn.Create(event).Error)
	return event
}

func TestInsertRequiresTransaction(t *testing.T) {
	conn := setupOutboxDB(t)
	repo := NewRepository(conn)

	err := repo.Insert(nil, models.OutboxEvent{})
	require.Error(t, err)

	require.NoError(t, conn.Transaction(func(tx *gorm.DB) error {
		return repo.Insert(tx, models.OutboxEvent{
			EventType:     enums.OutboxEventOrderPlaced,
			AggregateType: enums.OutboxAggregateOrder,
			AggregateID:   uuid.New(),
			Payload:       json.RawMessage(`{}`),
		})
	}))

	var count int64
	require.NoError(t, conn.Model(&models.OutboxEvent{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestFetchUnpublishedForPublishSkipsExhaustedEvents(t *testing.T) {
	conn := setupOutboxDB(t)
	repo := NewRepository(conn)

	fresh := insertOutboxEvent(t, conn, 0)
	retried := insertOutboxEvent(t, conn, 3)
	exhausted := insertOutboxEvent(t, conn, 10)
	published := insertOutboxEvent(t, conn, 1)
	require.NoError(t, repo.MarkPublished(published.ID))

	require.NoError(t, conn.Transaction(func(tx *gorm.DB) error {
		rows, err := repo.FetchUnpublishedForPublish(tx, 50, 10)
		require.NoError(t, err)
		require.Len(t, rows, 2)

		ids := map[uuid.UUID]bool{}
		for _, row := range rows {
			ids[row.ID] = true
		}
		assert.True(t, ids[fresh.ID])
		assert.True(t, ids[retried.ID])
		assert.False(t, ids[exhausted.ID], "events at the attempt ceiling stay out of the batch")
		assert.False(t, ids[published.ID], "published events never reappear")
		return nil
	}))

	_, err := repo.FetchUnpublishedForPublish(nil, 50, 10)
	require.Error(t, err)
}

func TestMarkFailedIncrementsAttempts(t *testing.T) {
	conn := setupOutboxDB(t)
	repo := NewRepository(conn)

	event := insertOutboxEvent(t, conn, 0)

	require.NoError(t, conn.Transaction(func(tx *gorm.DB) error {
		return repo.MarkFailedTx(tx, event.ID, errors.New("publish timeout"))
	}))
	require.NoError(t, conn.Transaction(func(tx *gorm.DB) error {
		return repo.MarkFailedTx(tx, event.ID, errors.New("publish timeout"))
	}))

	var stored models.OutboxEvent
	require.NoError(t, conn.First(&stored, "id = ?", event.ID).Error)
	assert.Equal(t, 2, stored.AttemptCount)
	require.NotNil(t, stored.LastError)
	assert.Equal(t, "publish timeout", *stored.LastError)
	assert.Nil(t, stored.PublishedAt)
}

func TestMarkPublishedTx(t *testing.T) {
	conn := setupOutboxDB(t)
	repo := NewRepository(conn)

	event := insertOutboxEvent(t, conn, 1)
	require.NoError(t, conn.Transaction(func(tx *gorm.DB) error {
		return repo.MarkPublishedTx(tx, event.ID)
	}))

	var stored models.OutboxEvent
	require.NoError(t, conn.First(&stored, "id = ?", event.ID).Error)
	require.NotNil(t, stored.PublishedAt)
}

func TestMarkTerminalTxPinsAttemptCount(t *testing.T) {
	conn := setupOutboxDB(t)
	repo := NewRepository(conn)

	event := insertOutboxEvent(t, conn, 9)
	require.NoError(t, conn.Transaction(func(tx *gorm.DB) error {
		return repo.MarkTerminalTx(tx, event.ID, errors.New("max publish attempts reached"), 10)
	}))

	var stored models.OutboxEvent
	require.NoError(t, conn.First(&stored, "id = ?", event.ID).Error)
	assert.Equal(t, 10, stored.AttemptCount)

	// Once terminal, the event no longer shows up for publishing.
	require.NoError(t, conn.Transaction(func(tx *gorm.DB) error {
		rows, err := repo.FetchUnpublishedForPublish(tx, 50, 10)
		require.NoError(t, err)
		assert.Empty(t, rows)
		return nil
	}))
}

func TestServiceEmitWrapsPayloadInEnvelope(t *testing.T) {
	conn := setupOutboxDB(t)
	svc := NewService(NewRepository(conn), nil)

	aggregateID := uuid.New()
	require.NoError(t, conn.Transaction(func(tx *gorm.DB) error {
		return svc.Emit(context.Background(), tx, DomainEvent{
			EventType:     enums.OutboxEventOrderPlaced,
			AggregateType: enums.OutboxAggregateOrder,
			AggregateID:   aggregateID,
			Version:       1,
			Data:          map[string]string{"order": "abc"},
		})
	}))

	var stored models.OutboxEvent
	require.NoError(t, conn.First(&stored, "aggregate_id = ?", aggregateID).Error)
	assert.Equal(t, enums.OutboxEventOrderPlaced, stored.EventType)

	var envelope PayloadEnvelope
	require.NoError(t, json.Unmarshal(stored.Payload, &envelope))
	assert.Equal(t, 1, envelope.Version)
	assert.NotEmpty(t, envelope.EventID)
	_, err := uuid.Parse(envelope.EventID)
	assert.NoError(t, err, "event id must be a uuid")
	assert.False(t, envelope.OccurredAt.IsZero())

	var data map[string]string
	require.NoError(t, json.Unmarshal(envelope.Data, &data))
	assert.Equal(t, "abc", data["order"])

	err = svc.Emit(context.Background(), nil, DomainEvent{})
	require.Error(t, err, "emit outside a transaction must fail")
}

func TestDLQInsertTxTruncatesLongMessages(t *testing.T) {
	conn := setupOutboxDB(t)
	dlq := NewDLQRepository(conn)

	long := strings.Repeat("x", 3000)

	eventID := uuid.New()
	require.NoError(t, conn.Transaction(func(tx *gorm.DB) error {
		return dlq.InsertTx(tx, models.OutboxDLQ{
			EventID:       eventID,
			EventType:     enums.OutboxEventOrderPlaced,
			AggregateType: enums.OutboxAggregateOrder,
			AggregateID:   uuid.New(),
			Payload:       json.RawMessage(`{}`),
			ErrorReason:   enums.OutboxDLQReasonMaxAttempts,
			ErrorMessage:  &long,
			AttemptCount:  10,
		})
	}))

	var stored models.OutboxDLQ
	require.NoError(t, conn.First(&stored, "event_id = ?", eventID).Error)
	require.NotNil(t, stored.ErrorMessage)
	assert.LessOrEqual(t, len(*stored.ErrorMessage), 1024)
	assert.Equal(t, enums.OutboxDLQReasonMaxAttempts, stored.ErrorReason)

	err := dlq.InsertTx(nil, models.OutboxDLQ{})
	require.Error(t, err)
}
