package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/mealdash-backend/internal/repo"
	"github.com/angelmondragon/mealdash-backend/pkg/db/models"
)

// Repository defines the persistence surface required by the cart service.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ListItems(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error)
	FindItem(ctx context.Context, userID, mealID uuid.UUID) (*models.CartItem, error)
	FindItemByID(ctx context.Context, userID, itemID uuid.UUID) (*models.CartItem, error)
	SaveItem(ctx context.Context, item *models.CartItem) error
	ReplaceOptions(ctx context.Context, itemID uuid.UUID, options []models.CartItemOption) error
	DeleteItem(ctx context.Context, userID, itemID uuid.UUID) (bool, error)
	DeleteOtherVendors(ctx context.Context, userID, vendorID uuid.UUID) (int64, error)
	DeleteForUser(ctx context.Context, userID uuid.UUID) (int64, error)
	FindMeal(ctx context.Context, mealID uuid.UUID) (*models.Meal, error)
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

func (r *repository) ListItems(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
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

func (r *repository) FindItem(ctx context.Context, userID, mealID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	err := r.base.DB(ctx).
		Where("user_id = ? AND meal_id = ?", userID, mealID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) FindItemByID(ctx context.Context, userID, itemID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	err := r.base.DB(ctx).
		Preload("Options").
		Where("id = ? AND user_id = ?", itemID, userID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// SaveItem inserts new rows and updates existing ones. Associations are
// written separately through ReplaceOptions.
func (r *repository) SaveItem(ctx context.Context, item *models.CartItem) error {
	return r.base.DB(ctx).Omit("Meal", "Options").Save(item).Error
}

func (r *repository) ReplaceOptions(ctx context.Context, itemID uuid.UUID, options []models.CartItemOption) error {
	db := r.base.DB(ctx)
	if err := db.Where("cart_item_id = ?", itemID).Delete(&models.CartItemOption{}).Error; err != nil {
		return err
	}
	if len(options) == 0 {
		return nil
	}
	for i := range options {
		options[i].CartItemID = itemID
	}
	return db.Create(&options).Error
}

func (r *repository) DeleteItem(ctx context.Context, userID, itemID uuid.UUID) (bool, error) {
	db := r.base.DB(ctx)
	res := db.Where("id = ? AND user_id = ?", itemID, userID).Delete(&models.CartItem{})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	if err := db.Where("cart_item_id = ?", itemID).Delete(&models.CartItemOption{}).Error; err != nil {
		return false, err
	}
	return true, nil
}

// DeleteOtherVendors purges every cart row the user holds for a vendor other
// than vendorID.
func (r *repository) DeleteOtherVendors(ctx context.Context, userID, vendorID uuid.UUID) (int64, error) {
	return r.deleteWhere(ctx, r.base.DB(ctx).Model(&models.CartItem{}).
		Where("user_id = ? AND vendor_id <> ?", userID, vendorID))
}

func (r *repository) DeleteForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	return r.deleteWhere(ctx, r.base.DB(ctx).Model(&models.CartItem{}).Where("user_id = ?", userID))
}

func (r *repository) deleteWhere(ctx context.Context, scope *gorm.DB) (int64, error) {
	var ids []uuid.UUID
	if err := scope.Pluck("id", &ids).Error; err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}
	db := r.base.DB(ctx)
	if err := db.Where("cart_item_id IN ?", ids).Delete(&models.CartItemOption{}).Error; err != nil {
		return 0, err
	}
	res := db.Where("id IN ?", ids).Delete(&models.CartItem{})
	return res.RowsAffected, res.Error
}

func (r *repository) FindMeal(ctx context.Context, mealID uuid.UUID) (*models.Meal, error) {
	var meal models.Meal
	if err := r.base.DB(ctx).Preload("Options").First(&meal, "id = ?", mealID).Error; err != nil {
		return nil, err
	}
	return &meal, nil
}
