package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/mealdash-backend/internal/repo"
	"github.com/angelmondragon/mealdash-backend/pkg/db/models"
	"github.com/angelmondragon/mealdash-backend/pkg/enums"
)

// Repository persists orders and reads the cart they are assembled from.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ListCart(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error)
	PurgeCart(ctx context.Context, userID uuid.UUID) error
	FindAddress(ctx context.Context, userID, addressID uuid.UUID) (*models.Address, error)
	CreateOrder(ctx context.Context, order *models.Order) error
	CreateItem(ctx context.Context, item *models.OrderItem) error
	UpdateTotalMeals(ctx context.Context, orderID uuid.UUID, totalMeals int) error
	FindForUser(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error)
	FindForUpdate(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	ListForUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.Order, error)
	ListForVendor(ctx context.Context, vendorID uuid.UUID, status enums.OrderStatus, limit int) ([]models.Order, error)
	ScheduleStatuses(ctx context.Context, orderID uuid.UUID) ([]enums.ScheduleStatus, error)
	CancelSchedules(ctx context.Context, orderID uuid.UUID, from []enums.ScheduleStatus) (int64, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, from, to enums.OrderStatus) (bool, error)
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

func (r *repository) ListCart(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	var items []models.CartItem
	err := r.base.DB(ctx).
		Preload("Options").
		Preload("Meal").
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&items).Error
	return items, err
}

func (r *repository) PurgeCart(ctx context.Context, userID uuid.UUID) error {
	db := r.base.DB(ctx)
	itemIDs := db.Model(&models.CartItem{}).Select("id").Where("user_id = ?", userID)
	if err := db.Where("cart_item_id IN (?)", itemIDs).Delete(&models.CartItemOption{}).Error; err != nil {
		return err
	}
	return db.Where("user_id = ?", userID).Delete(&models.CartItem{}).Error
}

func (r *repository) FindAddress(ctx context.Context, userID, addressID uuid.UUID) (*models.Address, error) {
	var address models.Address
	if err := r.base.DB(ctx).First(&address, "id = ? AND user_id = ?", addressID, userID).Error; err != nil {
		return nil, err
	}
	return &address, nil
}

func (r *repository) CreateOrder(ctx context.Context, order *models.Order) error {
	return r.base.DB(ctx).Omit("Items").Create(order).Error
}

// CreateItem inserts the item together with its option snapshots.
func (r *repository) CreateItem(ctx context.Context, item *models.OrderItem) error {
	return r.base.DB(ctx).Create(item).Error
}

func (r *repository) UpdateTotalMeals(ctx context.Context, orderID uuid.UUID, totalMeals int) error {
	return r.base.DB(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Update("total_meals", totalMeals).Error
}

func (r *repository) FindForUser(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.base.DB(ctx).
		Preload("Items.Options").
		Where("id = ? AND user_id = ?", orderID, userID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindForUpdate(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.base.ForUpdate(ctx).First(&order, "id = ?", orderID).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) ListForUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.Order, error) {
	var rows []models.Order
	err := r.base.DB(ctx).
		Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *repository) ListForVendor(ctx context.Context, vendorID uuid.UUID, status enums.OrderStatus, limit int) ([]models.Order, error) {
	query := r.base.DB(ctx).Preload("Items").Where("vendor_id = ?", vendorID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var rows []models.Order
	err := query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *repository) ScheduleStatuses(ctx context.Context, orderID uuid.UUID) ([]enums.ScheduleStatus, error) {
	var statuses []enums.ScheduleStatus
	err := r.base.DB(ctx).
		Model(&models.MealSchedule{}).
		Where("order_id = ?", orderID).
		Pluck("status", &statuses).Error
	return statuses, err
}

func (r *repository) CancelSchedules(ctx context.Context, orderID uuid.UUID, from []enums.ScheduleStatus) (int64, error) {
	res := r.base.DB(ctx).
		Model(&models.MealSchedule{}).
		Where("order_id = ? AND status IN ?", orderID, from).
		Update("status", enums.ScheduleStatusCancelled)
	return res.RowsAffected, res.Error
}

func (r *repository) UpdateStatus(ctx context.Context, orderID uuid.UUID, from, to enums.OrderStatus) (bool, error) {
	res := r.base.DB(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", orderID, from).
		Update("status", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
