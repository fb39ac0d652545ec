package payloads

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/mealdash-backend/pkg/enums"
)

// OrderCreatedEvent is emitted once the order, its items and its schedule
// calendar have committed.
type OrderCreatedEvent struct {
	OrderID       uuid.UUID         `json:"order_id"`
	UserID        uuid.UUID         `json:"user_id"`
	VendorID      uuid.UUID         `json:"vendor_id"`
	OrderType     enums.OrderType   `json:"order_type"`
	PaymentType   enums.PaymentType `json:"payment_type"`
	TotalAmount   decimal.Decimal   `json:"total_amount"`
	ScheduleCount int               `json:"schedule_count"`
	StartDate     string            `json:"start_date"`
	EndDate       string            `json:"end_date"`
}

type OrderCanceledEvent struct {
	OrderID           uuid.UUID `json:"order_id"`
	UserID            uuid.UUID `json:"user_id"`
	VendorID          uuid.UUID `json:"vendor_id"`
	CanceledSchedules int       `json:"canceled_schedules"`
}

type OrderDeliveredEvent struct {
	OrderID  uuid.UUID `json:"order_id"`
	UserID   uuid.UUID `json:"user_id"`
	VendorID uuid.UUID `json:"vendor_id"`
}

// ScheduleStatusChangedEvent carries both sides of a transition.
type ScheduleStatusChangedEvent struct {
	ScheduleID        uuid.UUID            `json:"schedule_id"`
	OrderID           uuid.UUID            `json:"order_id"`
	UserID            uuid.UUID            `json:"user_id"`
	VendorID          uuid.UUID            `json:"vendor_id"`
	DeliveryPartnerID *uuid.UUID           `json:"delivery_partner_id,omitempty"`
	ScheduledDate     string               `json:"scheduled_date"`
	From              enums.ScheduleStatus `json:"from"`
	To                enums.ScheduleStatus `json:"to"`
	ActorRole         enums.Role           `json:"actor_role"`
}

type PartnerAssignedEvent struct {
	ScheduleID        uuid.UUID `json:"schedule_id"`
	OrderID           uuid.UUID `json:"order_id"`
	VendorID          uuid.UUID `json:"vendor_id"`
	DeliveryPartnerID uuid.UUID `json:"delivery_partner_id"`
	ScheduledDate     string    `json:"scheduled_date"`
	TimeSlot          string    `json:"time_slot"`
}

type SettlementRecordedEvent struct {
	SettlementID      uuid.UUID       `json:"settlement_id"`
	OrderID           uuid.UUID       `json:"order_id"`
	ScheduleID        uuid.UUID       `json:"schedule_id"`
	VendorID          uuid.UUID       `json:"vendor_id"`
	DeliveryPartnerID uuid.UUID       `json:"delivery_partner_id"`
	AdminID           *uuid.UUID      `json:"admin_id,omitempty"`
	ItemTotal         decimal.Decimal `json:"item_total"`
	VendorAmount      decimal.Decimal `json:"vendor_amount"`
	DeliveryPayout    decimal.Decimal `json:"delivery_payout"`
	AdminCommission   decimal.Decimal `json:"admin_commission"`
}

type WalletDebitedEvent struct {
	WalletID      uuid.UUID             `json:"wallet_id"`
	TransactionID uuid.UUID             `json:"transaction_id"`
	OwnerType     enums.WalletOwnerType `json:"owner_type"`
	OwnerID       uuid.UUID             `json:"owner_id"`
	Amount        decimal.Decimal       `json:"amount"`
	BalanceAfter  decimal.Decimal       `json:"balance_after"`
	PaymentID     *string               `json:"payment_id,omitempty"`
}

// NotificationRequestedEvent asks the notification worker to fan a message
// out to explicit recipients.
type NotificationRequestedEvent struct {
	RecipientType enums.RecipientType    `json:"recipient_type"`
	RecipientIDs  []uuid.UUID            `json:"recipient_ids"`
	Type          enums.NotificationType `json:"type"`
	Title         string                 `json:"title"`
	Message       string                 `json:"message"`
	Metadata      map[string]any         `json:"metadata,omitempty"`
}
