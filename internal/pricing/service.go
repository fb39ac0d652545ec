package pricing

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/mealdash-backend/internal/repo"
	"github.com/angelmondragon/mealdash-backend/pkg/db/models"
	"github.com/angelmondragon/mealdash-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/mealdash-backend/pkg/errors"
	"github.com/angelmondragon/mealdash-backend/pkg/logger"
	"github.com/angelmondragon/mealdash-backend/pkg/maps"
)

// DistanceLookup resolves driving distance between two points.
type DistanceLookup interface {
	Distance(ctx context.Context, origin, destination maps.LatLng) (*maps.Distance, error)
}

// Quote is the delivery price for an order placed against an address.
type Quote struct {
	VendorID        uuid.UUID       `json:"vendor_id"`
	AddressID       uuid.UUID       `json:"address_id"`
	OrderType       enums.OrderType `json:"order_type"`
	DeliveryDays    int             `json:"delivery_days"`
	DistanceKm      *float64        `json:"distance_km,omitempty"`
	DistanceText    string          `json:"distance_text,omitempty"`
	Duration        string          `json:"duration,omitempty"`
	PerUnitCharge   decimal.Decimal `json:"per_unit_charge"`
	DeliveryCharges decimal.Decimal `json:"delivery_charges"`
}

type Service interface {
	QuoteDelivery(ctx context.Context, userID, addressID uuid.UUID, orderType enums.OrderType) (*Quote, error)
}

type ServiceParams struct {
	DB                 *gorm.DB
	Distance           DistanceLookup
	FallbackBaseCharge decimal.Decimal
	Logger             *logger.Logger
}

type service struct {
	base     repo.Base
	distance DistanceLookup
	fallback decimal.Decimal
	logg     *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("database required")
	}
	return &service{
		base:     repo.NewBase(params.DB),
		distance: params.Distance,
		fallback: params.FallbackBaseCharge,
		logg:     params.Logger,
	}, nil
}

// QuoteDelivery prices delivery from the vendor in the user's cart to the
// chosen address. A failed or impossible distance lookup adds nothing on top
// of the base charge.
func (s *service) QuoteDelivery(ctx context.Context, userID, addressID uuid.UUID, orderType enums.OrderType) (*Quote, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if addressID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "address id required")
	}
	if !orderType.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid order type %q", orderType)
	}

	db := s.base.DB(ctx)
	var address models.Address
	if err := db.First(&address, "id = ? AND user_id = ?", addressID, userID).Error; err != nil {
		return nil, repo.Translate(err, "address not found")
	}

	var item models.CartItem
	if err := db.Where("user_id = ?", userID).Order("created_at ASC").First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	var vendor models.Vendor
	if err := db.First(&vendor, "id = ?", item.VendorID).Error; err != nil {
		return nil, repo.Translate(err, "vendor not found")
	}

	base, perKm, err := s.rates(ctx)
	if err != nil {
		return nil, err
	}

	days := orderType.DeliveryDays()
	quote := &Quote{
		VendorID:     vendor.ID,
		AddressID:    address.ID,
		OrderType:    orderType,
		DeliveryDays: days,
	}
	perUnit := base
	if distance := s.lookup(ctx, &vendor, &address); distance != nil {
		km := distance.Kilometers
		quote.DistanceKm = &km
		quote.DistanceText = distance.Text
		quote.Duration = distance.DurationText
		perUnit = base.Add(perKm.Mul(decimal.NewFromFloat(km)))
	}
	quote.PerUnitCharge = perUnit.Round(2)
	quote.DeliveryCharges = quote.PerUnitCharge.Mul(decimal.NewFromInt(int64(days))).Round(2)
	return quote, nil
}

func (s *service) rates(ctx context.Context) (decimal.Decimal, decimal.Decimal, error) {
	var settings models.Settings
	err := s.base.DB(ctx).First(&settings, "id = ?", models.SettingsRowID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return s.fallback, decimal.Zero, nil
		}
		return decimal.Zero, decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load settings")
	}
	return settings.DeliveryBaseCharge, settings.DeliveryChargePerKm, nil
}

func (s *service) lookup(ctx context.Context, vendor *models.Vendor, address *models.Address) *maps.Distance {
	if s.distance == nil {
		return nil
	}
	if vendor.Latitude == nil || vendor.Longitude == nil || address.Latitude == nil || address.Longitude == nil {
		return nil
	}
	origin := maps.LatLng{Latitude: *vendor.Latitude, Longitude: *vendor.Longitude}
	destination := maps.LatLng{Latitude: *address.Latitude, Longitude: *address.Longitude}
	distance, err := s.distance.Distance(ctx, origin, destination)
	if err != nil {
		if s.logg != nil {
			logCtx := s.logg.WithFields(ctx, map[string]any{
				"vendor_id":  vendor.ID.String(),
				"address_id": address.ID.String(),
			})
			s.logg.Warn(logCtx, "distance lookup failed, quoting base charge")
		}
		return nil
	}
	return distance
}
