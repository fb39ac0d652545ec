package settlement

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/mealdash-backend/internal/repo"
	"github.com/angelmondragon/mealdash-backend/pkg/db/models"
)

// Repository reads settlement inputs and records the audit row.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	SumOrderItems(ctx context.Context, orderID uuid.UUID) (decimal.Decimal, error)
	LoadSettings(ctx context.Context) (*models.Settings, error)
	FirstAdminID(ctx context.Context) (*uuid.UUID, error)
	FindBySchedule(ctx context.Context, scheduleID uuid.UUID) (*models.Settlement, error)
	Insert(ctx context.Context, row *models.Settlement) error
	ListForOrder(ctx context.Context, orderID uuid.UUID) ([]models.Settlement, error)
}

type repository struct {
	base repo.Base
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{base: r.base.WithTx(tx)}
}

func (r *repository) SumOrderItems(ctx context.Context, orderID uuid.UUID) (decimal.Decimal, error) {
	var sum decimal.NullDecimal
	err := r.base.DB(ctx).
		Model(&models.OrderItem{}).
		Select("SUM(total_price)").
		Where("order_id = ?", orderID).
		Row().
		Scan(&sum)
	if err != nil {
		return decimal.Zero, err
	}
	if !sum.Valid {
		return decimal.Zero, nil
	}
	return sum.Decimal, nil
}

func (r *repository) LoadSettings(ctx context.Context) (*models.Settings, error) {
	var settings models.Settings
	if err := r.base.DB(ctx).First(&settings, "id = ?", models.SettingsRowID).Error; err != nil {
		return nil, err
	}
	return &settings, nil
}

// FirstAdminID returns the earliest admin, or nil when none is registered.
func (r *repository) FirstAdminID(ctx context.Context) (*uuid.UUID, error) {
	var admins []models.Admin
	err := r.base.DB(ctx).
		Order("created_at ASC").
		Order("id ASC").
		Limit(1).
		Find(&admins).Error
	if err != nil {
		return nil, err
	}
	if len(admins) == 0 {
		return nil, nil
	}
	return &admins[0].ID, nil
}

func (r *repository) FindBySchedule(ctx context.Context, scheduleID uuid.UUID) (*models.Settlement, error) {
	var rows []models.Settlement
	if err := r.base.DB(ctx).Where("schedule_id = ?", scheduleID).Limit(1).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (r *repository) Insert(ctx context.Context, row *models.Settlement) error {
	return r.base.DB(ctx).Create(row).Error
}

func (r *repository) ListForOrder(ctx context.Context, orderID uuid.UUID) ([]models.Settlement, error) {
	var rows []models.Settlement
	err := r.base.DB(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}
