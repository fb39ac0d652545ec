package enums

import "fmt"

// ScheduleStatus is the state of a single meal delivery occurrence.
type ScheduleStatus string

const (
	ScheduleStatusScheduled       ScheduleStatus = "SCHEDULED"
	ScheduleStatusConfirmed       ScheduleStatus = "CONFIRMED"
	ScheduleStatusPreparing       ScheduleStatus = "PREPARING"
	ScheduleStatusPrepared        ScheduleStatus = "PREPARED"
	ScheduleStatusReadyForPickup  ScheduleStatus = "READY_FOR_PICKUP"
	ScheduleStatusPartnerAssigned ScheduleStatus = "PARTNER_ASSIGNED"
	ScheduleStatusPickedUp        ScheduleStatus = "PICKED_UP"
	ScheduleStatusOutForDelivery  ScheduleStatus = "OUT_FOR_DELIVERY"
	ScheduleStatusDelivered       ScheduleStatus = "DELIVERED"
	ScheduleStatusCancelled       ScheduleStatus = "CANCELLED"
	ScheduleStatusMissed          ScheduleStatus = "MISSED"
)

var validScheduleStatuses = []ScheduleStatus{
	ScheduleStatusScheduled,
	ScheduleStatusConfirmed,
	ScheduleStatusPreparing,
	ScheduleStatusPrepared,
	ScheduleStatusReadyForPickup,
	ScheduleStatusPartnerAssigned,
	ScheduleStatusPickedUp,
	ScheduleStatusOutForDelivery,
	ScheduleStatusDelivered,
	ScheduleStatusCancelled,
	ScheduleStatusMissed,
}

// ScheduleStatuses returns every known status in lifecycle order.
func ScheduleStatuses() []ScheduleStatus {
	out := make([]ScheduleStatus, len(validScheduleStatuses))
	copy(out, validScheduleStatuses)
	return out
}

// String implements fmt.Stringer.
func (s ScheduleStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ScheduleStatus.
func (s ScheduleStatus) IsValid() bool {
	for _, candidate := range validScheduleStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the schedule has left the delivery pipeline.
func (s ScheduleStatus) IsTerminal() bool {
	switch s {
	case ScheduleStatusDelivered, ScheduleStatusCancelled, ScheduleStatusMissed:
		return true
	default:
		return false
	}
}

// ParseScheduleStatus converts raw input into a ScheduleStatus.
func ParseScheduleStatus(value string) (ScheduleStatus, error) {
	for _, candidate := range validScheduleStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid schedule status %q", value)
}
