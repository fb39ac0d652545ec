package notifications

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/angelmondragon/mealdash-backend/pkg/db/models"
	"github.com/angelmondragon/mealdash-backend/pkg/enums"
	"github.com/angelmondragon/mealdash-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/mealdash-backend/pkg/outbox/registry"
)

const payloadVersion = 1

// NewDecoders registers a notification builder for every event the worker reacts to.
func NewDecoders() *registry.DecoderRegistry {
	reg := registry.NewDecoderRegistry()
	register(reg, enums.EventOrderCreated, orderCreated)
	register(reg, enums.EventOrderCanceled, orderCanceled)
	register(reg, enums.EventOrderDelivered, orderDelivered)
	register(reg, enums.EventScheduleStatusChanged, scheduleStatusChanged)
	register(reg, enums.EventPartnerAssigned, partnerAssigned)
	register(reg, enums.EventSettlementRecorded, settlementRecorded)
	register(reg, enums.EventWalletDebited, walletDebited)
	register(reg, enums.EventNotificationRequested, notificationRequested)
	return reg
}

func register[T any](reg *registry.DecoderRegistry, eventType enums.OutboxEventType, build func(T) ([]models.Notification, error)) {
	reg.Register(eventType, payloadVersion, registry.JSON(func(payload T) (any, error) {
		return build(payload)
	}))
}

func orderCreated(p payloads.OrderCreatedEvent) ([]models.Notification, error) {
	meta := datatypes.JSONMap{"order_id": p.OrderID.String(), "order_type": string(p.OrderType)}
	deliveries := "delivery"
	if p.ScheduleCount != 1 {
		deliveries = "deliveries"
	}
	return []models.Notification{
		{
			RecipientType: enums.RecipientUser,
			RecipientID:   p.UserID,
			Type:          enums.NotificationTypeOrderPlaced,
			Title:         "Order placed",
			Message:       fmt.Sprintf("Your %s order is confirmed with %d %s starting %s.", strings.ToLower(string(p.OrderType)), p.ScheduleCount, deliveries, p.StartDate),
			Metadata:      meta,
		},
		{
			RecipientType: enums.RecipientVendor,
			RecipientID:   p.VendorID,
			Type:          enums.NotificationTypeOrderPlaced,
			Title:         "New order received",
			Message:       fmt.Sprintf("A %s order for %s was placed from %s to %s.", strings.ToLower(string(p.OrderType)), p.TotalAmount.StringFixed(2), p.StartDate, p.EndDate),
			Metadata:      meta,
		},
	}, nil
}

func orderCanceled(p payloads.OrderCanceledEvent) ([]models.Notification, error) {
	meta := datatypes.JSONMap{"order_id": p.OrderID.String()}
	return []models.Notification{
		{
			RecipientType: enums.RecipientUser,
			RecipientID:   p.UserID,
			Type:          enums.NotificationTypeOrderCanceled,
			Title:         "Order cancelled",
			Message:       "Your order has been cancelled.",
			Metadata:      meta,
		},
		{
			RecipientType: enums.RecipientVendor,
			RecipientID:   p.VendorID,
			Type:          enums.NotificationTypeOrderCanceled,
			Title:         "Order cancelled",
			Message:       fmt.Sprintf("An order was cancelled; %d upcoming meals were removed.", p.CanceledSchedules),
			Metadata:      meta,
		},
	}, nil
}

func orderDelivered(p payloads.OrderDeliveredEvent) ([]models.Notification, error) {
	return []models.Notification{{
		RecipientType: enums.RecipientUser,
		RecipientID:   p.UserID,
		Type:          enums.NotificationTypeOrderDelivered,
		Title:         "Order completed",
		Message:       "All meals in your order have been delivered.",
		Metadata:      datatypes.JSONMap{"order_id": p.OrderID.String()},
	}}, nil
}

// scheduleStatusChanged always tells the customer and tells the vendor when
// someone else moved their schedule.
func scheduleStatusChanged(p payloads.ScheduleStatusChangedEvent) ([]models.Notification, error) {
	meta := datatypes.JSONMap{
		"schedule_id": p.ScheduleID.String(),
		"order_id":    p.OrderID.String(),
		"from":        string(p.From),
		"to":          string(p.To),
	}
	status := humanStatus(p.To)
	rows := []models.Notification{{
		RecipientType: enums.RecipientUser,
		RecipientID:   p.UserID,
		Type:          enums.NotificationTypeScheduleUpdate,
		Title:         "Meal update",
		Message:       fmt.Sprintf("Your meal for %s is now %s.", p.ScheduledDate, status),
		Metadata:      meta,
	}}
	if p.ActorRole != enums.RoleVendor && p.VendorID != uuid.Nil {
		rows = append(rows, models.Notification{
			RecipientType: enums.RecipientVendor,
			RecipientID:   p.VendorID,
			Type:          enums.NotificationTypeScheduleUpdate,
			Title:         "Schedule update",
			Message:       fmt.Sprintf("A meal scheduled for %s is now %s.", p.ScheduledDate, status),
			Metadata:      meta,
		})
	}
	return rows, nil
}

func partnerAssigned(p payloads.PartnerAssignedEvent) ([]models.Notification, error) {
	message := fmt.Sprintf("You have a pickup on %s.", p.ScheduledDate)
	if p.TimeSlot != "" {
		message = fmt.Sprintf("You have a pickup on %s between %s.", p.ScheduledDate, p.TimeSlot)
	}
	return []models.Notification{{
		RecipientType: enums.RecipientDeliveryPartner,
		RecipientID:   p.DeliveryPartnerID,
		Type:          enums.NotificationTypeAssignment,
		Title:         "New delivery assigned",
		Message:       message,
		Metadata: datatypes.JSONMap{
			"schedule_id": p.ScheduleID.String(),
			"order_id":    p.OrderID.String(),
		},
	}}, nil
}

func settlementRecorded(p payloads.SettlementRecordedEvent) ([]models.Notification, error) {
	meta := datatypes.JSONMap{
		"settlement_id": p.SettlementID.String(),
		"schedule_id":   p.ScheduleID.String(),
		"order_id":      p.OrderID.String(),
	}
	return []models.Notification{
		{
			RecipientType: enums.RecipientVendor,
			RecipientID:   p.VendorID,
			Type:          enums.NotificationTypeWalletCredit,
			Title:         "Wallet credited",
			Message:       fmt.Sprintf("%s was added to your wallet for a delivered meal.", p.VendorAmount.StringFixed(2)),
			Metadata:      meta,
		},
		{
			RecipientType: enums.RecipientDeliveryPartner,
			RecipientID:   p.DeliveryPartnerID,
			Type:          enums.NotificationTypeWalletCredit,
			Title:         "Delivery payout",
			Message:       fmt.Sprintf("%s was added to your wallet for a completed delivery.", p.DeliveryPayout.StringFixed(2)),
			Metadata:      meta,
		},
	}, nil
}

func walletDebited(p payloads.WalletDebitedEvent) ([]models.Notification, error) {
	recipientType, ok := recipientForOwner(p.OwnerType)
	if !ok {
		return nil, fmt.Errorf("unsupported wallet owner type %q", p.OwnerType)
	}
	return []models.Notification{{
		RecipientType: recipientType,
		RecipientID:   p.OwnerID,
		Type:          enums.NotificationTypeWalletCredit,
		Title:         "Wallet payout",
		Message:       fmt.Sprintf("%s was paid out from your wallet. Remaining balance %s.", p.Amount.StringFixed(2), p.BalanceAfter.StringFixed(2)),
		Metadata: datatypes.JSONMap{
			"wallet_id":      p.WalletID.String(),
			"transaction_id": p.TransactionID.String(),
		},
	}}, nil
}

func notificationRequested(p payloads.NotificationRequestedEvent) ([]models.Notification, error) {
	if !p.RecipientType.IsValid() {
		return nil, fmt.Errorf("invalid recipient type %q", p.RecipientType)
	}
	kind := p.Type
	if !kind.IsValid() {
		kind = enums.NotificationTypeSystem
	}
	rows := make([]models.Notification, 0, len(p.RecipientIDs))
	for _, id := range p.RecipientIDs {
		if id == uuid.Nil {
			continue
		}
		row := models.Notification{
			RecipientType: p.RecipientType,
			RecipientID:   id,
			Type:          kind,
			Title:         p.Title,
			Message:       p.Message,
		}
		if len(p.Metadata) > 0 {
			row.Metadata = datatypes.JSONMap(p.Metadata)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func recipientForOwner(owner enums.WalletOwnerType) (enums.RecipientType, bool) {
	switch owner {
	case enums.WalletOwnerVendor:
		return enums.RecipientVendor, true
	case enums.WalletOwnerDeliveryPartner:
		return enums.RecipientDeliveryPartner, true
	case enums.WalletOwnerAdmin:
		return enums.RecipientAdmin, true
	default:
		return "", false
	}
}

// humanStatus renders READY_FOR_PICKUP as "ready for pickup".
func humanStatus(status enums.ScheduleStatus) string {
	return strings.ToLower(strings.ReplaceAll(string(status), "_", " "))
}
