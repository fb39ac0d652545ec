package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Settlement is the audit row written once per delivered schedule.
type Settlement struct {
	ID                uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID           uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	ScheduleID        uuid.UUID       `gorm:"column:schedule_id;type:uuid;not null;uniqueIndex"`
	VendorID          uuid.UUID       `gorm:"column:vendor_id;type:uuid;not null"`
	DeliveryPartnerID uuid.UUID       `gorm:"column:delivery_partner_id;type:uuid;not null"`
	AdminID           *uuid.UUID      `gorm:"column:admin_id;type:uuid"`
	ItemTotal         decimal.Decimal `gorm:"column:item_total;type:numeric(12,2);not null"`
	VendorCommission  decimal.Decimal `gorm:"column:vendor_commission;type:numeric(12,2);not null"`
	VendorAmount      decimal.Decimal `gorm:"column:vendor_amount;type:numeric(12,2);not null"`
	AdminCommission   decimal.Decimal `gorm:"column:admin_commission;type:numeric(12,2);not null"`
	DeliveryPayout    decimal.Decimal `gorm:"column:delivery_payout;type:numeric(12,2);not null"`
	CreatedAt         time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (s *Settlement) BeforeCreate(*gorm.DB) error {
	assignID(&s.ID)
	return nil
}
