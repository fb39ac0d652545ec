package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SettingsRowID is the primary key of the single global settings row.
const SettingsRowID = 1

// Settings holds the platform commission and delivery pricing inputs.
type Settings struct {
	ID                      int             `gorm:"column:id;primaryKey"`
	VendorCommissionPercent decimal.Decimal `gorm:"column:vendor_commission_percent;type:numeric(5,2);not null"`
	AdminCommissionPercent  decimal.Decimal `gorm:"column:admin_commission_percent;type:numeric(5,2);not null"`
	DeliveryBaseCharge      decimal.Decimal `gorm:"column:delivery_base_charge;type:numeric(12,2);not null"`
	DeliveryChargePerKm     decimal.Decimal `gorm:"column:delivery_charge_per_km;type:numeric(12,2);not null"`
	GSTPercent              decimal.Decimal `gorm:"column:gst_percent;type:numeric(5,2);not null"`
	PlatformCharge          decimal.Decimal `gorm:"column:platform_charge;type:numeric(12,2);not null"`
	UpdatedAt               time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (Settings) TableName() string { return "settings" }
