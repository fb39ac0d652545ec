package cartdto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type AddItemRequest struct {
	MealID       uuid.UUID   `json:"meal_id" validate:"required"`
	Quantity     int         `json:"quantity" validate:"required,gt=0"`
	OptionIDs    []uuid.UUID `json:"option_ids"`
	DeliveryDate string      `json:"delivery_date"`
}

type UpdateItemRequest struct {
	Quantity int `json:"quantity" validate:"required,gt=0"`
}

type Cart struct {
	VendorID  *uuid.UUID      `json:"vendor_id,omitempty"`
	Items     []CartItem      `json:"items"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	ItemCount int             `json:"item_count"`
}

type CartItem struct {
	ID           uuid.UUID        `json:"id"`
	MealID       uuid.UUID        `json:"meal_id"`
	VendorID     uuid.UUID        `json:"vendor_id"`
	MealTitle    string           `json:"meal_title,omitempty"`
	MealImage    *string          `json:"meal_image,omitempty"`
	MealType     string           `json:"meal_type,omitempty"`
	Quantity     int              `json:"quantity"`
	UnitPrice    decimal.Decimal  `json:"unit_price"`
	TotalPrice   decimal.Decimal  `json:"total_price"`
	DeliveryDate *string          `json:"delivery_date,omitempty"`
	Options      []CartItemOption `json:"options"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

type CartItemOption struct {
	MealOptionID uuid.UUID       `json:"meal_option_id"`
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
}
