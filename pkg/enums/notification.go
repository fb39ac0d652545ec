package enums

import "fmt"

// NotificationType classifies stored notifications.
type NotificationType string

const (
	NotificationTypeOrderPlaced    NotificationType = "order_placed"
	NotificationTypeOrderCanceled  NotificationType = "order_canceled"
	NotificationTypeOrderDelivered NotificationType = "order_delivered"
	NotificationTypeScheduleUpdate NotificationType = "schedule_update"
	NotificationTypeAssignment     NotificationType = "assignment"
	NotificationTypeWalletCredit   NotificationType = "wallet_credit"
	NotificationTypeSystem         NotificationType = "system"
)

var validNotificationTypes = []NotificationType{
	NotificationTypeOrderPlaced,
	NotificationTypeOrderCanceled,
	NotificationTypeOrderDelivered,
	NotificationTypeScheduleUpdate,
	NotificationTypeAssignment,
	NotificationTypeWalletCredit,
	NotificationTypeSystem,
}

// IsValid checks whether the given type matches the canonical enum.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw strings into NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}

// RecipientType identifies which party table a notification recipient lives in.
type RecipientType string

const (
	RecipientUser            RecipientType = "user"
	RecipientVendor          RecipientType = "vendor"
	RecipientDeliveryPartner RecipientType = "delivery_partner"
	RecipientAdmin           RecipientType = "admin"
)

var validRecipientTypes = []RecipientType{
	RecipientUser,
	RecipientVendor,
	RecipientDeliveryPartner,
	RecipientAdmin,
}

func (r RecipientType) IsValid() bool {
	for _, candidate := range validRecipientTypes {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRecipientType converts raw strings into RecipientType.
func ParseRecipientType(value string) (RecipientType, error) {
	for _, candidate := range validRecipientTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid recipient type %q", value)
}
