package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/mealdash-backend/pkg/db/models"
	"github.com/angelmondragon/mealdash-backend/pkg/enums"
)

const dateLayout = "2006-01-02"

type checkoutRequest struct {
	AddressID             uuid.UUID `json:"address_id" validate:"required"`
	OrderType             string    `json:"order_type" validate:"required,oneof=ONETIME WEEKLY MONTHLY"`
	PaymentType           string    `json:"payment_type" validate:"required,oneof=ONLINE COD"`
	PaymentID             *string   `json:"payment_id"`
	FinalAmount           *float64  `json:"final_amount" validate:"omitempty,gte=0"`
	DeliveryCharges       float64   `json:"delivery_charges" validate:"gte=0"`
	DeliveryChargePerUnit *float64  `json:"delivery_charge_per_unit" validate:"omitempty,gte=0"`
	Taxes                 float64   `json:"taxes" validate:"gte=0"`
	Discount              float64   `json:"discount" validate:"gte=0"`
	StartDate             string    `json:"start_date"`
}

type orderResponse struct {
	ID                    uuid.UUID         `json:"id"`
	UserID                uuid.UUID         `json:"user_id"`
	VendorID              uuid.UUID         `json:"vendor_id"`
	OrderType             enums.OrderType   `json:"order_type"`
	Status                enums.OrderStatus `json:"status"`
	PaymentType           enums.PaymentType `json:"payment_type"`
	PaymentID             *string           `json:"payment_id,omitempty"`
	Subtotal              decimal.Decimal   `json:"subtotal"`
	DeliveryCharges       decimal.Decimal   `json:"delivery_charges"`
	DeliveryChargePerUnit decimal.Decimal   `json:"delivery_charge_per_unit"`
	Taxes                 decimal.Decimal   `json:"taxes"`
	Discount              decimal.Decimal   `json:"discount"`
	TotalAmount           decimal.Decimal   `json:"total_amount"`
	Address               addressSnapshot   `json:"address"`
	StartDate             string            `json:"start_date"`
	EndDate               string            `json:"end_date"`
	TotalMeals            int               `json:"total_meals"`
	Items                 []orderItem       `json:"items,omitempty"`
	CreatedAt             time.Time         `json:"created_at"`
	UpdatedAt             time.Time         `json:"updated_at"`
}

type addressSnapshot struct {
	Line1     string   `json:"line1"`
	Line2     *string  `json:"line2,omitempty"`
	City      string   `json:"city"`
	State     string   `json:"state"`
	Pincode   string   `json:"pincode"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

type orderItem struct {
	ID         uuid.UUID         `json:"id"`
	MealID     uuid.UUID         `json:"meal_id"`
	MealTitle  string            `json:"meal_title"`
	MealImage  *string           `json:"meal_image,omitempty"`
	MealType   string            `json:"meal_type"`
	UnitPrice  decimal.Decimal   `json:"unit_price"`
	Quantity   int               `json:"quantity"`
	TotalPrice decimal.Decimal   `json:"total_price"`
	Options    []orderItemOption `json:"options"`
}

type orderItemOption struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

func newOrderResponse(order *models.Order) orderResponse {
	resp := orderResponse{
		ID:                    order.ID,
		UserID:                order.UserID,
		VendorID:              order.VendorID,
		OrderType:             order.OrderType,
		Status:                order.Status,
		PaymentType:           order.PaymentType,
		PaymentID:             order.PaymentID,
		Subtotal:              order.Subtotal,
		DeliveryCharges:       order.DeliveryCharges,
		DeliveryChargePerUnit: order.DeliveryChargePerUnit,
		Taxes:                 order.Taxes,
		Discount:              order.Discount,
		TotalAmount:           order.TotalAmount,
		Address: addressSnapshot{
			Line1:     order.AddressLine1,
			Line2:     order.AddressLine2,
			City:      order.City,
			State:     order.State,
			Pincode:   order.Pincode,
			Latitude:  order.Latitude,
			Longitude: order.Longitude,
		},
		StartDate:  time.Time(order.StartDate).Format(dateLayout),
		EndDate:    time.Time(order.EndDate).Format(dateLayout),
		TotalMeals: order.TotalMeals,
		CreatedAt:  order.CreatedAt,
		UpdatedAt:  order.UpdatedAt,
	}
	for _, item := range order.Items {
		options := make([]orderItemOption, 0, len(item.Options))
		for _, opt := range item.Options {
			options = append(options, orderItemOption{Name: opt.Name, Price: opt.Price})
		}
		resp.Items = append(resp.Items, orderItem{
			ID:         item.ID,
			MealID:     item.MealID,
			MealTitle:  item.MealTitle,
			MealImage:  item.MealImage,
			MealType:   item.MealType,
			UnitPrice:  item.UnitPrice,
			Quantity:   item.Quantity,
			TotalPrice: item.TotalPrice,
			Options:    options,
		})
	}
	return resp
}

func newOrderList(rows []models.Order) []orderResponse {
	out := make([]orderResponse, 0, len(rows))
	for i := range rows {
		out = append(out, newOrderResponse(&rows[i]))
	}
	return out
}
