package notifications

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/mealdash-backend/internal/repo"
	"github.com/angelmondragon/mealdash-backend/pkg/db/models"
	"github.com/angelmondragon/mealdash-backend/pkg/enums"
)

// Repository exposes persistence operations for notifications.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateBatch(ctx context.Context, rows []models.Notification) error
	List(ctx context.Context, params listNotificationsParams) ([]models.Notification, error)
	MarkRead(ctx context.Context, recipient Recipient, notificationID uuid.UUID, now time.Time) (bool, error)
	MarkAllRead(ctx context.Context, recipient Recipient, now time.Time) (int64, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Recipient identifies the party a notification belongs to.
type Recipient struct {
	Type enums.RecipientType
	ID   uuid.UUID
}

type listNotificationsParams struct {
	Recipient  Recipient
	Limit      int
	UnreadOnly bool
}

type repository struct {
	base repo.Base
}

// NewRepository builds a notifications repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{base: r.base.WithTx(tx)}
}

func (r *repository) CreateBatch(ctx context.Context, rows []models.Notification) error {
	if len(rows) == 0 {
		return nil
	}
	return r.base.DB(ctx).Create(&rows).Error
}

func (r *repository) List(ctx context.Context, params listNotificationsParams) ([]models.Notification, error) {
	q := r.base.DB(ctx).
		Where("recipient_type = ? AND recipient_id = ?", params.Recipient.Type, params.Recipient.ID)
	if params.UnreadOnly {
		q = q.Where("read_at IS NULL")
	}
	if params.Limit > 0 {
		q = q.Limit(params.Limit)
	}

	var rows []models.Notification
	if err := q.Order("created_at DESC").Order("id DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// MarkRead keeps the first read timestamp; the bool reports whether the row exists for the recipient.
func (r *repository) MarkRead(ctx context.Context, recipient Recipient, notificationID uuid.UUID, now time.Time) (bool, error) {
	res := r.base.DB(ctx).
		Model(&models.Notification{}).
		Where("id = ? AND recipient_type = ? AND recipient_id = ?", notificationID, recipient.Type, recipient.ID).
		Update("read_at", gorm.Expr("COALESCE(read_at, ?)", now))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) MarkAllRead(ctx context.Context, recipient Recipient, now time.Time) (int64, error) {
	res := r.base.DB(ctx).
		Model(&models.Notification{}).
		Where("recipient_type = ? AND recipient_id = ? AND read_at IS NULL", recipient.Type, recipient.ID).
		Update("read_at", now)
	return res.RowsAffected, res.Error
}

func (r *repository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.base.DB(ctx).
		Where("created_at < ?", cutoff).
		Delete(&models.Notification{})
	return res.RowsAffected, res.Error
}
