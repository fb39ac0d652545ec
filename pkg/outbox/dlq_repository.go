package outbox

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/mealdash-backend/pkg/db/models"
)

const (
	maxDLQErrorLen   = 1024
	defaultDLQListed = 50
)

// DLQRepository stores outbox rows the publisher gave up on. Entries are keyed
// by the outbox row id they came from.
type DLQRepository struct {
	db *gorm.DB
}

func NewDLQRepository(db *gorm.DB) *DLQRepository {
	return &DLQRepository{db: db}
}

// InsertTx records a terminal failure inside the publisher's transaction.
func (r *DLQRepository) InsertTx(tx *gorm.DB, entry models.OutboxDLQ) error {
	if tx == nil {
		return errTxRequired
	}
	if entry.ErrorMessage != nil && len(*entry.ErrorMessage) > maxDLQErrorLen {
		msg := (*entry.ErrorMessage)[:maxDLQErrorLen]
		entry.ErrorMessage = &msg
	}
	return tx.Create(&entry).Error
}

// FindByEventID returns nil without error when no entry exists.
func (r *DLQRepository) FindByEventID(ctx context.Context, eventID uuid.UUID) (*models.OutboxDLQ, error) {
	var entry models.OutboxDLQ
	err := r.db.WithContext(ctx).Where("event_id = ?", eventID).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// List returns the newest failures first, optionally filtered by event type.
func (r *DLQRepository) List(ctx context.Context, eventType string, limit int) ([]models.OutboxDLQ, error) {
	if limit <= 0 {
		limit = defaultDLQListed
	}
	query := r.db.WithContext(ctx).Order("failed_at DESC").Order("id DESC").Limit(limit)
	if eventType != "" {
		query = query.Where("event_type = ?", eventType)
	}
	var entries []models.OutboxDLQ
	if err := query.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// RequeueTx moves a dead-lettered event back into the outbox with a fresh
// attempt budget. The original row is reset when retention has not removed
// it yet, otherwise it is rebuilt from the stored payload. Reports false
// when no entry exists for eventID.
func (r *DLQRepository) RequeueTx(tx *gorm.DB, eventID uuid.UUID) (bool, error) {
	if tx == nil {
		return false, errTxRequired
	}
	var entry models.OutboxDLQ
	err := tx.Where("event_id = ?", eventID).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	row := models.OutboxEvent{
		ID:            entry.EventID,
		EventType:     entry.EventType,
		AggregateType: entry.AggregateType,
		AggregateID:   entry.AggregateID,
		Payload:       entry.Payload,
	}
	err = tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"attempt_count": 0,
			"last_error":    nil,
			"published_at":  nil,
		}),
	}).Create(&row).Error
	if err != nil {
		return false, err
	}
	if err := tx.Where("event_id = ?", eventID).Delete(&models.OutboxDLQ{}).Error; err != nil {
		return false, err
	}
	return true, nil
}
