package schedules

import (
	"github.com/angelmondragon/mealdash-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/mealdash-backend/pkg/errors"
)

type statusSet map[enums.ScheduleStatus]struct{}

func setOf(statuses ...enums.ScheduleStatus) statusSet {
	out := make(statusSet, len(statuses))
	for _, status := range statuses {
		out[status] = struct{}{}
	}
	return out
}

func (s statusSet) has(status enums.ScheduleStatus) bool {
	_, ok := s[status]
	return ok
}

var (
	partnerTargets = setOf(
		enums.ScheduleStatusPickedUp,
		enums.ScheduleStatusOutForDelivery,
		enums.ScheduleStatusDelivered,
		enums.ScheduleStatusMissed,
	)

	vendorTargets = setOf(
		enums.ScheduleStatusConfirmed,
		enums.ScheduleStatusPreparing,
		enums.ScheduleStatusReadyForPickup,
	)

	// partnerTransitions is the complete set of moves a delivery partner may
	// make. Any current status without an entry accepts nothing.
	partnerTransitions = map[enums.ScheduleStatus]statusSet{
		enums.ScheduleStatusPartnerAssigned: setOf(enums.ScheduleStatusPickedUp, enums.ScheduleStatusCancelled),
		enums.ScheduleStatusPrepared:        setOf(enums.ScheduleStatusPickedUp),
		enums.ScheduleStatusPickedUp:        setOf(enums.ScheduleStatusOutForDelivery),
		enums.ScheduleStatusOutForDelivery:  setOf(enums.ScheduleStatusDelivered, enums.ScheduleStatusCancelled),
	}
)

// CanPartnerTransition reports whether the partner table lists from -> to.
func CanPartnerTransition(from, to enums.ScheduleStatus) bool {
	allowed, ok := partnerTransitions[from]
	return ok && allowed.has(to)
}

// PartnerTargets lists the statuses a delivery partner may request.
func PartnerTargets() []enums.ScheduleStatus {
	return orderedMembers(partnerTargets)
}

// VendorTargets lists the statuses a vendor may request.
func VendorTargets() []enums.ScheduleStatus {
	return orderedMembers(vendorTargets)
}

func orderedMembers(set statusSet) []enums.ScheduleStatus {
	out := make([]enums.ScheduleStatus, 0, len(set))
	for _, status := range enums.ScheduleStatuses() {
		if set.has(status) {
			out = append(out, status)
		}
	}
	return out
}

func illegalTransition(from, to enums.ScheduleStatus) error {
	return pkgerrors.Newf(pkgerrors.CodeStateConflict, "cannot change status from %s to %s", from, to).
		WithDetails(map[string]any{"from": from, "to": to})
}

func terminalStatus(status enums.ScheduleStatus) error {
	return pkgerrors.Newf(pkgerrors.CodeStateConflict, "schedule is already %s", status).
		WithDetails(map[string]any{"status": status})
}
