package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Meal is a live catalog entry. Orders snapshot its fields into OrderItem.
type Meal struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VendorID  uuid.UUID       `gorm:"column:vendor_id;type:uuid;not null;index"`
	Title     string          `gorm:"column:title;not null"`
	Image     *string         `gorm:"column:image"`
	MealType  string          `gorm:"column:meal_type;not null"`
	Price     decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	Active    bool            `gorm:"column:active;not null;default:true"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`

	Options []MealOption `gorm:"foreignKey:MealID"`
}

func (m *Meal) BeforeCreate(*gorm.DB) error {
	assignID(&m.ID)
	return nil
}

// MealOption is a priced customization a user may attach to a meal.
type MealOption struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	MealID    uuid.UUID       `gorm:"column:meal_id;type:uuid;not null;index"`
	Name      string          `gorm:"column:name;not null"`
	Price     decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (o *MealOption) BeforeCreate(*gorm.DB) error {
	assignID(&o.ID)
	return nil
}
