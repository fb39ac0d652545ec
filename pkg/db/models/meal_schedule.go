package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/angelmondragon/mealdash-backend/pkg/enums"
)

// MealSchedule is one delivery occurrence expanded from an order item.
type MealSchedule struct {
	ID                uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID           uuid.UUID            `gorm:"column:order_id;type:uuid;not null;index"`
	OrderItemID       uuid.UUID            `gorm:"column:order_item_id;type:uuid;not null"`
	UserID            uuid.UUID            `gorm:"column:user_id;type:uuid;not null"`
	VendorID          uuid.UUID            `gorm:"column:vendor_id;type:uuid;not null;index"`
	DeliveryPartnerID *uuid.UUID           `gorm:"column:delivery_partner_id;type:uuid;index"`
	ScheduledDate     datatypes.Date       `gorm:"column:scheduled_date;type:date;not null"`
	ScheduledTimeSlot string               `gorm:"column:scheduled_time_slot;not null"`
	MealType          string               `gorm:"column:meal_type;not null"`
	MealTitle         string               `gorm:"column:meal_title;not null"`
	MealImage         *string              `gorm:"column:meal_image"`
	Quantity          int                  `gorm:"column:quantity;not null"`
	Status            enums.ScheduleStatus `gorm:"column:status;type:text;not null"`
	DeliveredAt       *time.Time           `gorm:"column:delivered_at"`
	CreatedAt         time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

func (s *MealSchedule) BeforeCreate(*gorm.DB) error {
	assignID(&s.ID)
	return nil
}
