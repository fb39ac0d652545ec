package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/angelmondragon/mealdash-backend/internal/repo"
	"github.com/angelmondragon/mealdash-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/mealdash-backend/pkg/errors"
	"github.com/angelmondragon/mealdash-backend/pkg/logger"
)

const maxItemQuantity = 20

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes cart mutations. A cart only ever holds meals from one
// vendor: adding a meal from another vendor purges the rest first.
type Service interface {
	AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*View, error)
	UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*View, error)
	RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*View, error)
	Clear(ctx context.Context, userID uuid.UUID) error
	Get(ctx context.Context, userID uuid.UUID) (*View, error)
}

// AddItemInput adds or replaces the cart line for MealID.
type AddItemInput struct {
	MealID       uuid.UUID
	Quantity     int
	OptionIDs    []uuid.UUID
	DeliveryDate *time.Time
}

// View is the cart as returned to the user.
type View struct {
	VendorID  *uuid.UUID        `json:"vendor_id,omitempty"`
	Items     []models.CartItem `json:"items"`
	Subtotal  decimal.Decimal   `json:"subtotal"`
	ItemCount int               `json:"item_count"`
}

type service struct {
	repo Repository
	tx   txRunner
	logg *logger.Logger
}

// NewService builds a cart service backed by the provided stack.
func NewService(repository Repository, tx txRunner, logg *logger.Logger) (Service, error) {
	if repository == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repository, tx: tx, logg: logg}, nil
}

func validateQuantity(quantity int) error {
	if quantity < 1 || quantity > maxItemQuantity {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "quantity must be between 1 and %d", maxItemQuantity)
	}
	return nil
}

func (s *service) AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*View, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.MealID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "meal id required")
	}
	if err := validateQuantity(input.Quantity); err != nil {
		return nil, err
	}

	var view *View
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repository := s.repo.WithTx(tx)
		meal, err := repository.FindMeal(ctx, input.MealID)
		if err != nil {
			return repo.Translate(err, "meal not found")
		}
		if !meal.Active {
			return pkgerrors.New(pkgerrors.CodeConflict, "meal is not available")
		}
		options, err := selectOptions(meal, input.OptionIDs)
		if err != nil {
			return err
		}

		purged, err := repository.DeleteOtherVendors(ctx, userID, meal.VendorID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "purge cart")
		}
		if purged > 0 && s.logg != nil {
			logCtx := s.logg.WithFields(ctx, map[string]any{
				"user_id":   userID.String(),
				"vendor_id": meal.VendorID.String(),
				"purged":    purged,
			})
			s.logg.Info(logCtx, "cart switched vendor")
		}

		item, err := repository.FindItem(ctx, userID, meal.ID)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
			}
			item = &models.CartItem{UserID: userID, MealID: meal.ID}
		}
		unitPrice := meal.Price
		for _, option := range options {
			unitPrice = unitPrice.Add(option.Price)
		}
		item.VendorID = meal.VendorID
		item.Quantity = input.Quantity
		item.UnitPrice = unitPrice.Round(2)
		item.TotalPrice = item.UnitPrice.Mul(decimal.NewFromInt(int64(input.Quantity))).Round(2)
		item.DeliveryDate = toDate(input.DeliveryDate)

		if err := repository.SaveItem(ctx, item); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart item")
		}
		if err := repository.ReplaceOptions(ctx, item.ID, options); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart options")
		}

		view, err = s.load(ctx, repository, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// selectOptions prices the requested options from the meal's own catalog.
func selectOptions(meal *models.Meal, optionIDs []uuid.UUID) ([]models.CartItemOption, error) {
	if len(optionIDs) == 0 {
		return nil, nil
	}
	available := make(map[uuid.UUID]models.MealOption, len(meal.Options))
	for _, option := range meal.Options {
		available[option.ID] = option
	}
	seen := make(map[uuid.UUID]struct{}, len(optionIDs))
	out := make([]models.CartItemOption, 0, len(optionIDs))
	for _, id := range optionIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		option, ok := available[id]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "option does not belong to meal").
				WithDetails(map[string]any{"option_id": id})
		}
		out = append(out, models.CartItemOption{
			MealOptionID: option.ID,
			Name:         option.Name,
			Price:        option.Price.Round(2),
		})
	}
	return out, nil
}

func toDate(value *time.Time) *datatypes.Date {
	if value == nil {
		return nil
	}
	y, m, d := value.UTC().Date()
	date := datatypes.Date(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
	return &date
}

func (s *service) UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*View, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if err := validateQuantity(quantity); err != nil {
		return nil, err
	}

	var view *View
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repository := s.repo.WithTx(tx)
		item, err := repository.FindItemByID(ctx, userID, itemID)
		if err != nil {
			return repo.Translate(err, "cart item not found")
		}
		item.Quantity = quantity
		item.TotalPrice = item.UnitPrice.Mul(decimal.NewFromInt(int64(quantity))).Round(2)
		if err := repository.SaveItem(ctx, item); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
		}
		view, err = s.load(ctx, repository, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

func (s *service) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*View, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	var view *View
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repository := s.repo.WithTx(tx)
		removed, err := repository.DeleteItem(ctx, userID, itemID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove cart item")
		}
		if !removed {
			return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		view, err = s.load(ctx, repository, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

func (s *service) Clear(ctx context.Context, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.repo.WithTx(tx).DeleteForUser(ctx, userID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
		}
		return nil
	})
}

func (s *service) Get(ctx context.Context, userID uuid.UUID) (*View, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	return s.load(ctx, s.repo, userID)
}

func (s *service) load(ctx context.Context, repository Repository, userID uuid.UUID) (*View, error) {
	items, err := repository.ListItems(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return BuildView(items), nil
}

// BuildView totals the cart lines.
func BuildView(items []models.CartItem) *View {
	view := &View{Items: items, Subtotal: decimal.Zero}
	if view.Items == nil {
		view.Items = []models.CartItem{}
	}
	for _, item := range items {
		view.Subtotal = view.Subtotal.Add(item.TotalPrice)
		view.ItemCount += item.Quantity
		if view.VendorID == nil {
			vendorID := item.VendorID
			view.VendorID = &vendorID
		}
	}
	view.Subtotal = view.Subtotal.Round(2)
	return view
}
