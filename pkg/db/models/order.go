package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/angelmondragon/mealdash-backend/pkg/enums"
)

// Order holds the pricing and address snapshot captured at checkout.
type Order struct {
	ID                    uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID                uuid.UUID         `gorm:"column:user_id;type:uuid;not null;index"`
	VendorID              uuid.UUID         `gorm:"column:vendor_id;type:uuid;not null;index"`
	OrderType             enums.OrderType   `gorm:"column:order_type;type:text;not null"`
	Status                enums.OrderStatus `gorm:"column:status;type:text;not null"`
	PaymentType           enums.PaymentType `gorm:"column:payment_type;type:text;not null"`
	PaymentID             *string           `gorm:"column:payment_id"`
	Subtotal              decimal.Decimal   `gorm:"column:subtotal;type:numeric(12,2);not null"`
	DeliveryCharges       decimal.Decimal   `gorm:"column:delivery_charges;type:numeric(12,2);not null"`
	DeliveryChargePerUnit decimal.Decimal   `gorm:"column:delivery_charge_per_unit;type:numeric(12,2);not null"`
	Taxes                 decimal.Decimal   `gorm:"column:taxes;type:numeric(12,2);not null"`
	Discount              decimal.Decimal   `gorm:"column:discount;type:numeric(12,2);not null"`
	TotalAmount           decimal.Decimal   `gorm:"column:total_amount;type:numeric(12,2);not null"`
	AddressLine1          string            `gorm:"column:address_line1;not null"`
	AddressLine2          *string           `gorm:"column:address_line2"`
	City                  string            `gorm:"column:city;not null"`
	State                 string            `gorm:"column:state;not null"`
	Pincode               string            `gorm:"column:pincode;not null"`
	Latitude              *float64          `gorm:"column:latitude"`
	Longitude             *float64          `gorm:"column:longitude"`
	StartDate             datatypes.Date    `gorm:"column:start_date;type:date;not null"`
	EndDate               datatypes.Date    `gorm:"column:end_date;type:date;not null"`
	TotalMeals            int               `gorm:"column:total_meals;not null"`
	CreatedAt             time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time         `gorm:"column:updated_at;autoUpdateTime"`

	Items []OrderItem `gorm:"foreignKey:OrderID"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	assignID(&o.ID)
	return nil
}

// OrderItem is a denormalized copy of the meal as it was at checkout.
type OrderItem struct {
	ID         uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID    uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	MealID     uuid.UUID       `gorm:"column:meal_id;type:uuid;not null"`
	MealTitle  string          `gorm:"column:meal_title;not null"`
	MealImage  *string         `gorm:"column:meal_image"`
	MealType   string          `gorm:"column:meal_type;not null"`
	UnitPrice  decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	Quantity   int             `gorm:"column:quantity;not null"`
	TotalPrice decimal.Decimal `gorm:"column:total_price;type:numeric(12,2);not null"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime"`

	Options []OrderItemOption `gorm:"foreignKey:OrderItemID"`
}

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	assignID(&i.ID)
	return nil
}

// OrderItemOption is a denormalized copy of a selected meal option.
type OrderItemOption struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderItemID uuid.UUID       `gorm:"column:order_item_id;type:uuid;not null;index"`
	Name        string          `gorm:"column:name;not null"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
}

func (o *OrderItemOption) BeforeCreate(*gorm.DB) error {
	assignID(&o.ID)
	return nil
}
