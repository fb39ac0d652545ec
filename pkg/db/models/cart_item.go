package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CartItem is a pending line for one (user, meal) pair.
type CartItem struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID       uuid.UUID       `gorm:"column:user_id;type:uuid;not null;uniqueIndex:ux_cart_items_user_meal"`
	MealID       uuid.UUID       `gorm:"column:meal_id;type:uuid;not null;uniqueIndex:ux_cart_items_user_meal"`
	VendorID     uuid.UUID       `gorm:"column:vendor_id;type:uuid;not null"`
	Quantity     int             `gorm:"column:quantity;not null"`
	UnitPrice    decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	TotalPrice   decimal.Decimal `gorm:"column:total_price;type:numeric(12,2);not null"`
	DeliveryDate *datatypes.Date `gorm:"column:delivery_date;type:date"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`

	Meal    *Meal            `gorm:"foreignKey:MealID"`
	Options []CartItemOption `gorm:"foreignKey:CartItemID"`
}

func (c *CartItem) BeforeCreate(*gorm.DB) error {
	assignID(&c.ID)
	return nil
}

// CartItemOption is a selected meal option priced at add-to-cart time.
type CartItemOption struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CartItemID   uuid.UUID       `gorm:"column:cart_item_id;type:uuid;not null;index"`
	MealOptionID uuid.UUID       `gorm:"column:meal_option_id;type:uuid;not null"`
	Name         string          `gorm:"column:name;not null"`
	Price        decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
}

func (o *CartItemOption) BeforeCreate(*gorm.DB) error {
	assignID(&o.ID)
	return nil
}
