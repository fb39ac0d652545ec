package orders

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
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
	defaultListLimit = 50
	maxListLimit     = 200
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// ScheduleGenerator expands a persisted order item into schedule rows inside tx.
type ScheduleGenerator interface {
	Generate(ctx context.Context, tx *gorm.DB, order *models.Order, item *models.OrderItem) ([]models.MealSchedule, error)
}

// Service assembles orders from carts and exposes order reads.
type Service interface {
	PlaceOrder(ctx context.Context, input PlaceOrderInput) (*models.Order, error)
	GetForUser(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error)
	ListForUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.Order, error)
	ListForVendor(ctx context.Context, vendorID uuid.UUID, status enums.OrderStatus, limit int) ([]models.Order, error)
	CancelOrder(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error)
}

// PlaceOrderInput carries the checkout request. Monetary inputs arrive as
// floats from the payment flow and are checked for finiteness before use.
type PlaceOrderInput struct {
	UserID                uuid.UUID
	AddressID             uuid.UUID
	OrderType             enums.OrderType
	PaymentType           enums.PaymentType
	PaymentID             *string
	FinalAmount           *float64
	DeliveryCharges       float64
	DeliveryChargePerUnit *float64
	Taxes                 float64
	Discount              float64
	StartDate             *time.Time
}

type ServiceParams struct {
	Repository Repository
	TxRunner   txRunner
	Outbox     outboxPublisher
	Generator  ScheduleGenerator
	Logger     *logger.Logger
	Now        func() time.Time
}

type service struct {
	repo      Repository
	tx        txRunner
	outbox    outboxPublisher
	generator ScheduleGenerator
	logg      *logger.Logger
	now       func() time.Time
}

var cancellableStatuses = []enums.ScheduleStatus{
	enums.ScheduleStatusScheduled,
	enums.ScheduleStatusConfirmed,
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repository == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.TxRunner == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if params.Generator == nil {
		return nil, fmt.Errorf("schedule generator required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:      params.Repository,
		tx:        params.TxRunner,
		outbox:    params.Outbox,
		generator: params.Generator,
		logg:      params.Logger,
		now:       now,
	}, nil
}

func money(name string, value float64) (decimal.Decimal, error) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return decimal.Zero, pkgerrors.Newf(pkgerrors.CodeValidation, "%s must be a finite number", name)
	}
	if value < 0 {
		return decimal.Zero, pkgerrors.Newf(pkgerrors.CodeValidation, "%s must not be negative", name)
	}
	return decimal.NewFromFloat(value).Round(2), nil
}

type pricing struct {
	deliveryCharges decimal.Decimal
	perUnit         *decimal.Decimal
	taxes           decimal.Decimal
	discount        decimal.Decimal
	finalAmount     *decimal.Decimal
}

func validatePlaceOrder(input PlaceOrderInput) (pricing, error) {
	var p pricing
	if input.UserID == uuid.Nil {
		return p, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.AddressID == uuid.Nil {
		return p, pkgerrors.New(pkgerrors.CodeValidation, "address id required")
	}
	if !input.OrderType.IsValid() {
		return p, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid order type %q", input.OrderType)
	}
	if !input.PaymentType.IsValid() {
		return p, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid payment type %q", input.PaymentType)
	}

	var err error
	if p.deliveryCharges, err = money("delivery charges", input.DeliveryCharges); err != nil {
		return p, err
	}
	if p.taxes, err = money("taxes", input.Taxes); err != nil {
		return p, err
	}
	if p.discount, err = money("discount", input.Discount); err != nil {
		return p, err
	}
	if input.DeliveryChargePerUnit != nil {
		perUnit, err := money("delivery charge per unit", *input.DeliveryChargePerUnit)
		if err != nil {
			return p, err
		}
		p.perUnit = &perUnit
	}
	if input.FinalAmount != nil {
		final, err := money("total amount", *input.FinalAmount)
		if err != nil {
			return p, err
		}
		p.finalAmount = &final
	}
	return p, nil
}

// PlaceOrder turns the user's cart into an order, its item snapshots and the
// full schedule calendar, then clears the cart. Every write shares one
// transaction.
func (s *service) PlaceOrder(ctx context.Context, input PlaceOrderInput) (*models.Order, error) {
	prices, err := validatePlaceOrder(input)
	if err != nil {
		return nil, err
	}

	var created *models.Order
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repository := s.repo.WithTx(tx)

		cartItems, err := repository.ListCart(ctx, input.UserID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}
		vendorID, subtotal, err := summarizeCart(cartItems)
		if err != nil {
			return err
		}

		address, err := repository.FindAddress(ctx, input.UserID, input.AddressID)
		if err != nil {
			return repo.Translate(err, "address not found")
		}

		days := input.OrderType.DeliveryDays()
		start := s.startDate(input.StartDate)
		perUnit := prices.deliveryCharges.Div(decimal.NewFromInt(int64(days))).Round(2)
		if prices.perUnit != nil {
			perUnit = *prices.perUnit
		}
		total := subtotal
		if prices.finalAmount != nil {
			total = *prices.finalAmount
		}

		order := &models.Order{
			UserID:                input.UserID,
			VendorID:              vendorID,
			OrderType:             input.OrderType,
			Status:                enums.OrderStatusPending,
			PaymentType:           input.PaymentType,
			PaymentID:             input.PaymentID,
			Subtotal:              subtotal,
			DeliveryCharges:       prices.deliveryCharges,
			DeliveryChargePerUnit: perUnit,
			Taxes:                 prices.taxes,
			Discount:              prices.discount,
			TotalAmount:           total,
			AddressLine1:          address.AddressLine1,
			AddressLine2:          address.AddressLine2,
			City:                  address.City,
			State:                 address.State,
			Pincode:               address.Pincode,
			Latitude:              address.Latitude,
			Longitude:             address.Longitude,
			StartDate:             datatypes.Date(start),
			EndDate:               datatypes.Date(start.AddDate(0, 0, days-1)),
		}
		if err := repository.CreateOrder(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}

		scheduleCount := 0
		for _, cartItem := range cartItems {
			item := snapshotItem(order.ID, cartItem)
			if err := repository.CreateItem(ctx, &item); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order item")
			}
			rows, err := s.generator.Generate(ctx, tx, order, &item)
			if err != nil {
				return err
			}
			for _, row := range rows {
				order.TotalMeals += row.Quantity
			}
			scheduleCount += len(rows)
			order.Items = append(order.Items, item)
		}
		if err := repository.UpdateTotalMeals(ctx, order.ID, order.TotalMeals); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order meal count")
		}

		if err := repository.PurgeCart(ctx, input.UserID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{ID: input.UserID, Role: string(enums.RoleUser)},
			Data: payloads.OrderCreatedEvent{
				OrderID:       order.ID,
				UserID:        order.UserID,
				VendorID:      order.VendorID,
				OrderType:     order.OrderType,
				PaymentType:   order.PaymentType,
				TotalAmount:   order.TotalAmount,
				ScheduleCount: scheduleCount,
				StartDate:     formatDate(order.StartDate),
				EndDate:       formatDate(order.EndDate),
			},
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit order created event")
		}

		created = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"order_id":    created.ID.String(),
			"user_id":     created.UserID.String(),
			"vendor_id":   created.VendorID.String(),
			"order_type":  created.OrderType,
			"total_meals": created.TotalMeals,
		})
		s.logg.Info(logCtx, "order placed")
	}
	return created, nil
}

// summarizeCart re-checks the single-vendor rule and totals the lines.
func summarizeCart(items []models.CartItem) (uuid.UUID, decimal.Decimal, error) {
	if len(items) == 0 {
		return uuid.Nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	vendorID := items[0].VendorID
	subtotal := decimal.Zero
	for _, item := range items {
		if item.VendorID != vendorID {
			return uuid.Nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "cart contains meals from more than one vendor")
		}
		if item.Meal == nil {
			return uuid.Nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "cart references a meal that no longer exists").
				WithDetails(map[string]any{"meal_id": item.MealID})
		}
		subtotal = subtotal.Add(item.TotalPrice)
	}
	return vendorID, subtotal.Round(2), nil
}

func snapshotItem(orderID uuid.UUID, cartItem models.CartItem) models.OrderItem {
	item := models.OrderItem{
		OrderID:    orderID,
		MealID:     cartItem.MealID,
		MealTitle:  cartItem.Meal.Title,
		MealImage:  cartItem.Meal.Image,
		MealType:   cartItem.Meal.MealType,
		UnitPrice:  cartItem.UnitPrice,
		Quantity:   cartItem.Quantity,
		TotalPrice: cartItem.TotalPrice,
	}
	for _, option := range cartItem.Options {
		item.Options = append(item.Options, models.OrderItemOption{Name: option.Name, Price: option.Price})
	}
	return item
}

func (s *service) startDate(requested *time.Time) time.Time {
	value := s.now()
	if requested != nil {
		value = *requested
	}
	y, m, d := value.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func formatDate(date datatypes.Date) string {
	return time.Time(date).UTC().Format("2006-01-02")
}

func (s *service) GetForUser(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.repo.FindForUser(ctx, userID, orderID)
	if err != nil {
		return nil, repo.Translate(err, "order not found")
	}
	return order, nil
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.Order, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	rows, err := s.repo.ListForUser(ctx, userID, clampLimit(limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return rows, nil
}

func (s *service) ListForVendor(ctx context.Context, vendorID uuid.UUID, status enums.OrderStatus, limit int) ([]models.Order, error) {
	if vendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "vendor identity missing")
	}
	if status != "" && !status.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid order status %q", status)
	}
	rows, err := s.repo.ListForVendor(ctx, vendorID, status, clampLimit(limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list vendor orders")
	}
	return rows, nil
}

// CancelOrder cancels an order whose kitchen work has not started. Schedules
// that already reached a terminal status are left as they are.
func (s *service) CancelOrder(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var result *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repository := s.repo.WithTx(tx)
		order, err := repository.FindForUpdate(ctx, orderID)
		if err != nil {
			return repo.Translate(err, "order not found")
		}
		if order.UserID != userID {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		if order.Status.IsFinal() {
			return pkgerrors.Newf(pkgerrors.CodeStateConflict, "order is already %s", order.Status)
		}

		statuses, err := repository.ScheduleStatuses(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load schedules")
		}
		for _, status := range statuses {
			if status.IsTerminal() || status == enums.ScheduleStatusScheduled || status == enums.ScheduleStatusConfirmed {
				continue
			}
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order can no longer be cancelled").
				WithDetails(map[string]any{"schedule_status": status})
		}

		canceled, err := repository.CancelSchedules(ctx, order.ID, cancellableStatuses)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel schedules")
		}
		ok, err := repository.UpdateStatus(ctx, order.ID, order.Status, enums.OrderStatusCancelled)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel order")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order was modified concurrently")
		}
		order.Status = enums.OrderStatusCancelled

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCanceled,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{ID: userID, Role: string(enums.RoleUser)},
			Data: payloads.OrderCanceledEvent{
				OrderID:           order.ID,
				UserID:            order.UserID,
				VendorID:          order.VendorID,
				CanceledSchedules: int(canceled),
			},
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit order canceled event")
		}
		result = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
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
