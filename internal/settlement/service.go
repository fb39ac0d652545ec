package settlement

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/mealdash-backend/internal/wallets"
	"github.com/angelmondragon/mealdash-backend/pkg/db/models"
	"github.com/angelmondragon/mealdash-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/mealdash-backend/pkg/errors"
	"github.com/angelmondragon/mealdash-backend/pkg/logger"
	"github.com/angelmondragon/mealdash-backend/pkg/metrics"
	"github.com/angelmondragon/mealdash-backend/pkg/outbox"
	"github.com/angelmondragon/mealdash-backend/pkg/outbox/payloads"
)

type walletCreditor interface {
	Credit(ctx context.Context, tx *gorm.DB, input wallets.EntryInput) (*models.WalletTransaction, error)
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service settles a delivered schedule into the vendor, partner and admin
// wallets. Settle never opens its own transaction.
type Service interface {
	Settle(ctx context.Context, tx *gorm.DB, order *models.Order, schedule *models.MealSchedule) (*models.Settlement, error)
	ListForOrder(ctx context.Context, orderID uuid.UUID) ([]models.Settlement, error)
}

type ServiceParams struct {
	Repository Repository
	Wallets    walletCreditor
	Outbox     outboxPublisher
	Metrics    *metrics.SettlementMetrics
	Logger     *logger.Logger
}

type service struct {
	repo    Repository
	wallets walletCreditor
	outbox  outboxPublisher
	metrics *metrics.SettlementMetrics
	logg    *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repository == nil {
		return nil, fmt.Errorf("settlement repository required")
	}
	if params.Wallets == nil {
		return nil, fmt.Errorf("wallet service required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{
		repo:    params.Repository,
		wallets: params.Wallets,
		outbox:  params.Outbox,
		metrics: params.Metrics,
		logg:    params.Logger,
	}, nil
}

func (s *service) Settle(ctx context.Context, tx *gorm.DB, order *models.Order, schedule *models.MealSchedule) (*models.Settlement, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "settlement requires a transaction")
	}
	if order == nil || schedule == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order and schedule required")
	}
	if schedule.OrderID != order.ID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "schedule does not belong to order")
	}
	if schedule.DeliveryPartnerID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "schedule has no delivery partner")
	}

	repository := s.repo.WithTx(tx)
	existing, err := repository.FindBySchedule(ctx, schedule.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load settlement")
	}
	if existing != nil {
		return existing, nil
	}

	itemTotal, err := repository.SumOrderItems(ctx, order.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum order items")
	}
	settings, err := repository.LoadSettings(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "platform settings not configured")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load settings")
	}
	split, err := ComputeSplit(itemTotal, settings.VendorCommissionPercent, settings.AdminCommissionPercent, order.DeliveryChargePerUnit)
	if err != nil {
		return nil, err
	}

	orderID := order.ID
	scheduleID := schedule.ID
	description := fmt.Sprintf("settlement for order %s", order.ID)

	if _, err := s.wallets.Credit(ctx, tx, wallets.EntryInput{
		OwnerType:   enums.WalletOwnerVendor,
		OwnerID:     order.VendorID,
		Amount:      split.VendorAmount,
		Description: description,
		OrderID:     &orderID,
		ScheduleID:  &scheduleID,
	}); err != nil {
		return nil, err
	}
	if _, err := s.wallets.Credit(ctx, tx, wallets.EntryInput{
		OwnerType:   enums.WalletOwnerDeliveryPartner,
		OwnerID:     *schedule.DeliveryPartnerID,
		Amount:      split.DeliveryPayout,
		Description: fmt.Sprintf("delivery payout for order %s", order.ID),
		OrderID:     &orderID,
		ScheduleID:  &scheduleID,
	}); err != nil {
		return nil, err
	}

	adminID, err := repository.FirstAdminID(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load admin")
	}
	if adminID != nil {
		if _, err := s.wallets.Credit(ctx, tx, wallets.EntryInput{
			OwnerType:   enums.WalletOwnerAdmin,
			OwnerID:     *adminID,
			Amount:      split.AdminCommission,
			Description: fmt.Sprintf("commission for order %s", order.ID),
			OrderID:     &orderID,
			ScheduleID:  &scheduleID,
		}); err != nil {
			return nil, err
		}
	}

	row := &models.Settlement{
		OrderID:           order.ID,
		ScheduleID:        schedule.ID,
		VendorID:          order.VendorID,
		DeliveryPartnerID: *schedule.DeliveryPartnerID,
		AdminID:           adminID,
		ItemTotal:         split.ItemTotal,
		VendorCommission:  split.VendorCommission,
		VendorAmount:      split.VendorAmount,
		AdminCommission:   split.AdminCommission,
		DeliveryPayout:    split.DeliveryPayout,
	}
	if err := repository.Insert(ctx, row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record settlement")
	}

	if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventSettlementRecorded,
		AggregateType: enums.AggregateSettlement,
		AggregateID:   row.ID,
		Data: payloads.SettlementRecordedEvent{
			SettlementID:      row.ID,
			OrderID:           row.OrderID,
			ScheduleID:        row.ScheduleID,
			VendorID:          row.VendorID,
			DeliveryPartnerID: row.DeliveryPartnerID,
			AdminID:           row.AdminID,
			ItemTotal:         row.ItemTotal,
			VendorAmount:      row.VendorAmount,
			DeliveryPayout:    row.DeliveryPayout,
			AdminCommission:   row.AdminCommission,
		},
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit settlement event")
	}

	s.record(ctx, row)
	return row, nil
}

func (s *service) record(ctx context.Context, row *models.Settlement) {
	s.metrics.IncSettled()
	s.metrics.AddCredited("vendor", row.VendorAmount)
	s.metrics.AddCredited("delivery_partner", row.DeliveryPayout)
	if row.AdminID == nil {
		s.metrics.IncAdminSkipped()
	} else {
		s.metrics.AddCredited("admin", row.AdminCommission)
	}

	if s.logg == nil {
		return
	}
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"settlement_id":   row.ID.String(),
		"order_id":        row.OrderID.String(),
		"schedule_id":     row.ScheduleID.String(),
		"vendor_amount":   row.VendorAmount.StringFixed(2),
		"delivery_payout": row.DeliveryPayout.StringFixed(2),
		"admin_skipped":   row.AdminID == nil,
	})
	s.logg.Info(logCtx, "settlement recorded")
}

func (s *service) ListForOrder(ctx context.Context, orderID uuid.UUID) ([]models.Settlement, error) {
	rows, err := s.repo.ListForOrder(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list settlements")
	}
	return rows, nil
}
