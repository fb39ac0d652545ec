package schedules

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/angelmondragon/mealdash-backend/internal/repo"
	"github.com/angelmondragon/mealdash-backend/pkg/db/models"
	"github.com/angelmondragon/mealdash-backend/pkg/enums"
)

const insertBatchSize = 100

// ListFilter narrows schedule lists. Zero values are ignored.
type ListFilter struct {
	Date   *time.Time
	Status enums.ScheduleStatus
	Limit  int
}

// Repository persists meal schedules and the order status they roll up into.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	InsertBatch(ctx context.Context, rows []models.MealSchedule) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.MealSchedule, error)
	FindForUpdate(ctx context.Context, id uuid.UUID) (*models.MealSchedule, error)
	UpdateGuarded(ctx context.Context, id uuid.UUID, from enums.ScheduleStatus, updates map[string]any) (bool, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.MealSchedule, error)
	ListByPartner(ctx context.Context, partnerID uuid.UUID, filter ListFilter) ([]models.MealSchedule, error)
	ListByVendor(ctx context.Context, vendorID uuid.UUID, filter ListFilter) ([]models.MealSchedule, error)
	ListOverdue(ctx context.Context, before time.Time, statuses []enums.ScheduleStatus, limit int) ([]models.MealSchedule, error)
	StatusesForOrder(ctx context.Context, orderID uuid.UUID) ([]enums.ScheduleStatus, error)
	FindOrderForUpdate(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) (bool, error)
	FindVendor(ctx context.Context, vendorID uuid.UUID) (*models.Vendor, error)
	FindPartner(ctx context.Context, partnerID uuid.UUID) (*models.DeliveryPartner, error)
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

func (r *repository) InsertBatch(ctx context.Context, rows []models.MealSchedule) error {
	if len(rows) == 0 {
		return nil
	}
	return r.base.DB(ctx).CreateInBatches(&rows, insertBatchSize).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.MealSchedule, error) {
	var row models.MealSchedule
	if err := r.base.DB(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repository) FindForUpdate(ctx context.Context, id uuid.UUID) (*models.MealSchedule, error) {
	var row models.MealSchedule
	if err := r.base.ForUpdate(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// UpdateGuarded applies updates only while the row still holds status from.
// A false result means another writer moved the schedule first.
func (r *repository) UpdateGuarded(ctx context.Context, id uuid.UUID, from enums.ScheduleStatus, updates map[string]any) (bool, error) {
	res := r.base.DB(ctx).
		Model(&models.MealSchedule{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.MealSchedule, error) {
	var rows []models.MealSchedule
	err := r.base.DB(ctx).
		Where("order_id = ?", orderID).
		Order("scheduled_date ASC").
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) ListByPartner(ctx context.Context, partnerID uuid.UUID, filter ListFilter) ([]models.MealSchedule, error) {
	return r.list(ctx, "delivery_partner_id = ?", partnerID, filter)
}

func (r *repository) ListByVendor(ctx context.Context, vendorID uuid.UUID, filter ListFilter) ([]models.MealSchedule, error) {
	return r.list(ctx, "vendor_id = ?", vendorID, filter)
}

func (r *repository) list(ctx context.Context, ownerClause string, ownerID uuid.UUID, filter ListFilter) ([]models.MealSchedule, error) {
	query := r.base.DB(ctx).Where(ownerClause, ownerID)
	if filter.Date != nil {
		query = query.Where("scheduled_date = ?", datatypes.Date(truncateDay(*filter.Date)))
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	var rows []models.MealSchedule
	err := query.
		Order("scheduled_date ASC").
		Order("scheduled_time_slot ASC").
		Order("id ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) ListOverdue(ctx context.Context, before time.Time, statuses []enums.ScheduleStatus, limit int) ([]models.MealSchedule, error) {
	var rows []models.MealSchedule
	err := r.base.DB(ctx).
		Where("scheduled_date < ? AND status IN ?", datatypes.Date(truncateDay(before)), statuses).
		Order("scheduled_date ASC").
		Order("id ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *repository) StatusesForOrder(ctx context.Context, orderID uuid.UUID) ([]enums.ScheduleStatus, error) {
	var statuses []enums.ScheduleStatus
	err := r.base.DB(ctx).
		Model(&models.MealSchedule{}).
		Where("order_id = ?", orderID).
		Pluck("status", &statuses).Error
	return statuses, err
}

func (r *repository) FindOrderForUpdate(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.base.ForUpdate(ctx).First(&order, "id = ?", orderID).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// UpdateOrderStatus skips orders that already hold status.
func (r *repository) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) (bool, error) {
	res := r.base.DB(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status <> ?", orderID, status).
		Update("status", status)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) FindVendor(ctx context.Context, vendorID uuid.UUID) (*models.Vendor, error) {
	var vendor models.Vendor
	if err := r.base.DB(ctx).First(&vendor, "id = ?", vendorID).Error; err != nil {
		return nil, err
	}
	return &vendor, nil
}

func (r *repository) FindPartner(ctx context.Context, partnerID uuid.UUID) (*models.DeliveryPartner, error) {
	var partner models.DeliveryPartner
	if err := r.base.DB(ctx).First(&partner, "id = ?", partnerID).Error; err != nil {
		return nil, err
	}
	return &partner, nil
}
