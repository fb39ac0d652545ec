package schedules

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/mealdash-backend/internal/repo"
	"github.com/angelmondragon/mealdash-backend/pkg/db/models"
	"github.com/angelmondragon/mealdash-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/mealdash-backend/pkg/errors"
	"github.com/angelmondragon/mealdash-backend/pkg/logger"
	"github.com/angelmondragon/mealdash-backend/pkg/outbox"
	"github.com/angelmondragon/mealdash-backend/pkg/outbox/payloads"
)

const (
	defaultListLimit = 100
	maxListLimit     = 500
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type settler interface {
	Settle(ctx context.Context, tx *gorm.DB, order *models.Order, schedule *models.MealSchedule) (*models.Settlement, error)
}

// Service runs the actor-scoped schedule state machine. Each mutation is one
// transaction: a locked read, the actor checks, then an update guarded on the
// status that was read.
type Service interface {
	UpdateStatusAsPartner(ctx context.Context, input TransitionInput) (*models.MealSchedule, error)
	UpdateStatusAsVendor(ctx context.Context, input TransitionInput) (*models.MealSchedule, error)
	UpdateStatusAsAdmin(ctx context.Context, input TransitionInput) (*models.MealSchedule, error)
	AssignPartner(ctx context.Context, input AssignInput) (*models.MealSchedule, error)
	MarkMissed(ctx context.Context, scheduleID uuid.UUID) (bool, error)
	ListOverdue(ctx context.Context, before time.Time, limit int) ([]models.MealSchedule, error)
	ListForPartner(ctx context.Context, partnerID uuid.UUID, filter ListFilter) ([]models.MealSchedule, error)
	ListForVendor(ctx context.Context, vendorID uuid.UUID, filter ListFilter) ([]models.MealSchedule, error)
	ListForOrder(ctx context.Context, orderID uuid.UUID) ([]models.MealSchedule, error)
}

// TransitionInput asks for schedule ScheduleID to move to Target on behalf of
// ActorID.
type TransitionInput struct {
	ScheduleID uuid.UUID
	ActorID    uuid.UUID
	Target     enums.ScheduleStatus
}

type AssignInput struct {
	ScheduleID uuid.UUID
	PartnerID  uuid.UUID
	ActorID    uuid.UUID
}

type ServiceParams struct {
	Repository Repository
	TxRunner   txRunner
	Outbox     outboxPublisher
	Settlement settler
	Logger     *logger.Logger
	Now        func() time.Time
}

type service struct {
	repo       Repository
	tx         txRunner
	outbox     outboxPublisher
	settlement settler
	logg       *logger.Logger
	now        func() time.Time
}

var missableStatuses = []enums.ScheduleStatus{
	enums.ScheduleStatusScheduled,
	enums.ScheduleStatusConfirmed,
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repository == nil {
		return nil, fmt.Errorf("schedules repository required")
	}
	if params.TxRunner == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if params.Settlement == nil {
		return nil, fmt.Errorf("settlement service required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:       params.Repository,
		tx:         params.TxRunner,
		outbox:     params.Outbox,
		settlement: params.Settlement,
		logg:       params.Logger,
		now:        now,
	}, nil
}

func validateTransition(input TransitionInput) error {
	if input.ScheduleID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "schedule id required")
	}
	if input.ActorID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "actor identity missing")
	}
	if !input.Target.IsValid() {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "invalid schedule status %q", input.Target)
	}
	return nil
}

func (s *service) UpdateStatusAsPartner(ctx context.Context, input TransitionInput) (*models.MealSchedule, error) {
	if err := validateTransition(input); err != nil {
		return nil, err
	}
	if !partnerTargets.has(input.Target) {
		return nil, pkgerrors.Newf(pkgerrors.CodeForbidden, "delivery partner cannot set status %s", input.Target)
	}

	var result *models.MealSchedule
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repository := s.repo.WithTx(tx)
		schedule, err := s.lock(ctx, repository, input.ScheduleID)
		if err != nil {
			return err
		}
		if schedule.DeliveryPartnerID == nil || *schedule.DeliveryPartnerID != input.ActorID {
			return pkgerrors.New(pkgerrors.CodeNotFound, "schedule not found")
		}
		if schedule.Status.IsTerminal() {
			return terminalStatus(schedule.Status)
		}
		if !CanPartnerTransition(schedule.Status, input.Target) {
			return illegalTransition(schedule.Status, input.Target)
		}

		from := schedule.Status
		if err := s.apply(ctx, repository, schedule, input.Target, nil); err != nil {
			return err
		}

		if input.Target == enums.ScheduleStatusDelivered {
			if err := s.completeDelivery(ctx, tx, repository, schedule); err != nil {
				return err
			}
		}
		if err := s.emitStatusChanged(ctx, tx, schedule, from, input.ActorID, enums.RoleDeliveryPartner); err != nil {
			return err
		}
		result = schedule
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logTransition(ctx, result, enums.RoleDeliveryPartner)
	return result, nil
}

// completeDelivery promotes the parent order when it is finished and settles
// the delivered schedule, both inside the transition's transaction.
func (s *service) completeDelivery(ctx context.Context, tx *gorm.DB, repository Repository, schedule *models.MealSchedule) error {
	order, err := repository.FindOrderForUpdate(ctx, schedule.OrderID)
	if err != nil {
		return repo.Translate(err, "order not found")
	}
	if _, err := s.promoteOrder(ctx, tx, repository, order); err != nil {
		return err
	}
	if _, err := s.settlement.Settle(ctx, tx, order, schedule); err != nil {
		return err
	}
	return nil
}

func (s *service) UpdateStatusAsVendor(ctx context.Context, input TransitionInput) (*models.MealSchedule, error) {
	if err := validateTransition(input); err != nil {
		return nil, err
	}
	if !vendorTargets.has(input.Target) {
		return nil, pkgerrors.Newf(pkgerrors.CodeForbidden, "vendor cannot set status %s", input.Target)
	}
	return s.simpleTransition(ctx, input, enums.RoleVendor, func(schedule *models.MealSchedule) error {
		if schedule.VendorID != input.ActorID {
			return pkgerrors.New(pkgerrors.CodeNotFound, "schedule not found")
		}
		return nil
	})
}

func (s *service) UpdateStatusAsAdmin(ctx context.Context, input TransitionInput) (*models.MealSchedule, error) {
	if err := validateTransition(input); err != nil {
		return nil, err
	}
	return s.simpleTransition(ctx, input, enums.RoleAdmin, nil)
}

// simpleTransition covers vendor and admin moves, which skip the partner
// table. A request for the current status is a no-op.
func (s *service) simpleTransition(ctx context.Context, input TransitionInput, role enums.Role, authorize func(*models.MealSchedule) error) (*models.MealSchedule, error) {
	var (
		result  *models.MealSchedule
		changed bool
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repository := s.repo.WithTx(tx)
		schedule, err := s.lock(ctx, repository, input.ScheduleID)
		if err != nil {
			return err
		}
		if authorize != nil {
			if err := authorize(schedule); err != nil {
				return err
			}
		}
		if schedule.Status.IsTerminal() {
			return terminalStatus(schedule.Status)
		}
		result = schedule
		if schedule.Status == input.Target {
			return nil
		}

		from := schedule.Status
		if err := s.apply(ctx, repository, schedule, input.Target, nil); err != nil {
			return err
		}
		if input.Target.IsTerminal() {
			order, err := repository.FindOrderForUpdate(ctx, schedule.OrderID)
			if err != nil {
				return repo.Translate(err, "order not found")
			}
			if _, err := s.promoteOrder(ctx, tx, repository, order); err != nil {
				return err
			}
		}
		changed = true
		return s.emitStatusChanged(ctx, tx, schedule, from, input.ActorID, role)
	})
	if err != nil {
		return nil, err
	}
	if changed {
		s.logTransition(ctx, result, role)
	}
	return result, nil
}

// AssignPartner attaches an active delivery partner and forces PREPARED.
func (s *service) AssignPartner(ctx context.Context, input AssignInput) (*models.MealSchedule, error) {
	if input.ScheduleID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "schedule id required")
	}
	if input.PartnerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery partner id required")
	}

	var result *models.MealSchedule
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repository := s.repo.WithTx(tx)
		partner, err := repository.FindPartner(ctx, input.PartnerID)
		if err != nil {
			return repo.Translate(err, "delivery partner not found")
		}
		if !partner.Active {
			return pkgerrors.New(pkgerrors.CodeConflict, "delivery partner is inactive")
		}

		schedule, err := s.lock(ctx, repository, input.ScheduleID)
		if err != nil {
			return err
		}
		if schedule.Status.IsTerminal() {
			return terminalStatus(schedule.Status)
		}

		from := schedule.Status
		partnerID := partner.ID
		if err := s.apply(ctx, repository, schedule, enums.ScheduleStatusPrepared, map[string]any{
			"delivery_partner_id": partnerID,
		}); err != nil {
			return err
		}
		schedule.DeliveryPartnerID = &partnerID

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPartnerAssigned,
			AggregateType: enums.AggregateMealSchedule,
			AggregateID:   schedule.ID,
			Actor:         actorRef(input.ActorID, enums.RoleAdmin),
			Data: payloads.PartnerAssignedEvent{
				ScheduleID:        schedule.ID,
				OrderID:           schedule.OrderID,
				VendorID:          schedule.VendorID,
				DeliveryPartnerID: partnerID,
				ScheduledDate:     FormatDate(schedule.ScheduledDate),
				TimeSlot:          schedule.ScheduledTimeSlot,
			},
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit partner assigned event")
		}
		if from != schedule.Status {
			if err := s.emitStatusChanged(ctx, tx, schedule, from, input.ActorID, enums.RoleAdmin); err != nil {
				return err
			}
		}
		result = schedule
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logTransition(ctx, result, enums.RoleAdmin)
	return result, nil
}

// MarkMissed moves an unstarted schedule to MISSED. It reports false when the
// schedule already left SCHEDULED/CONFIRMED.
func (s *service) MarkMissed(ctx context.Context, scheduleID uuid.UUID) (bool, error) {
	missed := false
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repository := s.repo.WithTx(tx)
		schedule, err := s.lock(ctx, repository, scheduleID)
		if err != nil {
			return err
		}
		if schedule.Status != enums.ScheduleStatusScheduled && schedule.Status != enums.ScheduleStatusConfirmed {
			return nil
		}
		from := schedule.Status
		if err := s.apply(ctx, repository, schedule, enums.ScheduleStatusMissed, nil); err != nil {
			return err
		}
		order, err := repository.FindOrderForUpdate(ctx, schedule.OrderID)
		if err != nil {
			return repo.Translate(err, "order not found")
		}
		if _, err := s.promoteOrder(ctx, tx, repository, order); err != nil {
			return err
		}
		missed = true
		return s.emitStatusChanged(ctx, tx, schedule, from, uuid.Nil, enums.RoleAdmin)
	})
	return missed, err
}

func (s *service) ListOverdue(ctx context.Context, before time.Time, limit int) ([]models.MealSchedule, error) {
	rows, err := s.repo.ListOverdue(ctx, before, missableStatuses, clampLimit(limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list overdue schedules")
	}
	return rows, nil
}

func (s *service) ListForPartner(ctx context.Context, partnerID uuid.UUID, filter ListFilter) ([]models.MealSchedule, error) {
	if partnerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor identity missing")
	}
	filter.Limit = clampLimit(filter.Limit)
	rows, err := s.repo.ListByPartner(ctx, partnerID, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list partner schedules")
	}
	return rows, nil
}

func (s *service) ListForVendor(ctx context.Context, vendorID uuid.UUID, filter ListFilter) ([]models.MealSchedule, error) {
	if vendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor identity missing")
	}
	filter.Limit = clampLimit(filter.Limit)
	rows, err := s.repo.ListByVendor(ctx, vendorID, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list vendor schedules")
	}
	return rows, nil
}

func (s *service) ListForOrder(ctx context.Context, orderID uuid.UUID) ([]models.MealSchedule, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	rows, err := s.repo.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list order schedules")
	}
	return rows, nil
}

func (s *service) lock(ctx context.Context, repository Repository, scheduleID uuid.UUID) (*models.MealSchedule, error) {
	schedule, err := repository.FindForUpdate(ctx, scheduleID)
	if err != nil {
		return nil, repo.Translate(err, "schedule not found")
	}
	return schedule, nil
}

// apply writes target guarded on the status held by schedule and mirrors the
// change onto it.
func (s *service) apply(ctx context.Context, repository Repository, schedule *models.MealSchedule, target enums.ScheduleStatus, extra map[string]any) error {
	updates := map[string]any{"status": target}
	for key, value := range extra {
		updates[key] = value
	}
	var deliveredAt *time.Time
	if target == enums.ScheduleStatusDelivered {
		at := s.now().UTC()
		deliveredAt = &at
		updates["delivered_at"] = at
	}

	ok, err := repository.UpdateGuarded(ctx, schedule.ID, schedule.Status, updates)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update schedule status")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "schedule was modified concurrently")
	}
	schedule.Status = target
	if deliveredAt != nil {
		schedule.DeliveredAt = deliveredAt
	}
	return nil
}

// promoteOrder marks the order DELIVERED once every schedule is terminal and
// at least one of them was delivered.
func (s *service) promoteOrder(ctx context.Context, tx *gorm.DB, repository Repository, order *models.Order) (bool, error) {
	if order.Status == enums.OrderStatusDelivered || order.Status == enums.OrderStatusCancelled {
		return false, nil
	}
	statuses, err := repository.StatusesForOrder(ctx, order.ID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sibling schedules")
	}
	if !OrderComplete(statuses) {
		return false, nil
	}

	promoted, err := repository.UpdateOrderStatus(ctx, order.ID, enums.OrderStatusDelivered)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "promote order")
	}
	if !promoted {
		return false, nil
	}
	order.Status = enums.OrderStatusDelivered

	if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventOrderDelivered,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Data: payloads.OrderDeliveredEvent{
			OrderID:  order.ID,
			UserID:   order.UserID,
			VendorID: order.VendorID,
		},
	}); err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit order delivered event")
	}
	return true, nil
}

// OrderComplete reports whether a set of sibling statuses warrants promoting
// the order to DELIVERED.
func OrderComplete(statuses []enums.ScheduleStatus) bool {
	delivered := false
	for _, status := range statuses {
		if !status.IsTerminal() {
			return false
		}
		if status == enums.ScheduleStatusDelivered {
			delivered = true
		}
	}
	return delivered
}

func (s *service) emitStatusChanged(ctx context.Context, tx *gorm.DB, schedule *models.MealSchedule, from enums.ScheduleStatus, actorID uuid.UUID, role enums.Role) error {
	err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventScheduleStatusChanged,
		AggregateType: enums.AggregateMealSchedule,
		AggregateID:   schedule.ID,
		Actor:         actorRef(actorID, role),
		Data: payloads.ScheduleStatusChangedEvent{
			ScheduleID:        schedule.ID,
			OrderID:           schedule.OrderID,
			UserID:            schedule.UserID,
			VendorID:          schedule.VendorID,
			DeliveryPartnerID: schedule.DeliveryPartnerID,
			ScheduledDate:     FormatDate(schedule.ScheduledDate),
			From:              from,
			To:                schedule.Status,
			ActorRole:         role,
		},
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit schedule status event")
	}
	return nil
}

func actorRef(actorID uuid.UUID, role enums.Role) *outbox.ActorRef {
	if actorID == uuid.Nil {
		return nil
	}
	return &outbox.ActorRef{ID: actorID, Role: string(role)}
}

func (s *service) logTransition(ctx context.Context, schedule *models.MealSchedule, role enums.Role) {
	if s.logg == nil || schedule == nil {
		return
	}
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"schedule_id": schedule.ID.String(),
		"order_id":    schedule.OrderID.String(),
		"status":      schedule.Status,
		"actor_role":  role,
	})
	s.logg.Info(logCtx, "schedule status updated")
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultListLimit
	case limit > maxListLimit:
		return maxListLimit
	default:
		return limit
	}
}
