package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/mealdash-backend/pkg/enums"
)

// Wallet is the running balance for one vendor, delivery partner, or admin.
type Wallet struct {
	ID        uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OwnerType enums.WalletOwnerType `gorm:"column:owner_type;type:text;not null;uniqueIndex:ux_wallets_owner"`
	OwnerID   uuid.UUID             `gorm:"column:owner_id;type:uuid;not null;uniqueIndex:ux_wallets_owner"`
	Balance   decimal.Decimal       `gorm:"column:balance;type:numeric(12,2);not null;default:0"`
	CreatedAt time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

func (w *Wallet) BeforeCreate(*gorm.DB) error {
	assignID(&w.ID)
	return nil
}

// WalletTransaction is an append-only ledger row. Rows are never updated.
type WalletTransaction struct {
	ID           uuid.UUID                   `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	WalletID     uuid.UUID                   `gorm:"column:wallet_id;type:uuid;not null;index"`
	Type         enums.WalletTransactionType `gorm:"column:type;type:text;not null"`
	Amount       decimal.Decimal             `gorm:"column:amount;type:numeric(12,2);not null"`
	BalanceAfter decimal.Decimal             `gorm:"column:balance_after;type:numeric(12,2);not null"`
	Description  string                      `gorm:"column:description;not null"`
	OrderID      *uuid.UUID                  `gorm:"column:order_id;type:uuid"`
	ScheduleID   *uuid.UUID                  `gorm:"column:schedule_id;type:uuid"`
	PaymentID    *string                     `gorm:"column:payment_id"`
	CreatedAt    time.Time                   `gorm:"column:created_at;autoCreateTime"`
}

func (t *WalletTransaction) BeforeCreate(*gorm.DB) error {
	assignID(&t.ID)
	return nil
}
