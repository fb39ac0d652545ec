package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is a customer placing orders. Registration lives outside this service.
type User struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string    `gorm:"column:name;not null"`
	Email     string    `gorm:"column:email;not null;uniqueIndex"`
	Phone     *string   `gorm:"column:phone"`
	PushToken *string   `gorm:"column:push_token"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	assignID(&u.ID)
	return nil
}

// Vendor is a kitchen. Meal windows are HH:MM strings and each may be unset.
type Vendor struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name           string    `gorm:"column:name;not null"`
	Active         bool      `gorm:"column:active;not null;default:true"`
	Latitude       *float64  `gorm:"column:latitude"`
	Longitude      *float64  `gorm:"column:longitude"`
	BreakfastStart *string   `gorm:"column:breakfast_start"`
	BreakfastEnd   *string   `gorm:"column:breakfast_end"`
	LunchStart     *string   `gorm:"column:lunch_start"`
	LunchEnd       *string   `gorm:"column:lunch_end"`
	EveningStart   *string   `gorm:"column:evening_start"`
	EveningEnd     *string   `gorm:"column:evening_end"`
	DinnerStart    *string   `gorm:"column:dinner_start"`
	DinnerEnd      *string   `gorm:"column:dinner_end"`
	PushToken      *string   `gorm:"column:push_token"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (v *Vendor) BeforeCreate(*gorm.DB) error {
	assignID(&v.ID)
	return nil
}

// DeliveryPartner is a rider that carries schedules from vendor to user.
type DeliveryPartner struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string    `gorm:"column:name;not null"`
	Phone     *string   `gorm:"column:phone"`
	Active    bool      `gorm:"column:active;not null;default:true"`
	PushToken *string   `gorm:"column:push_token"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (DeliveryPartner) TableName() string { return "delivery_partners" }

func (p *DeliveryPartner) BeforeCreate(*gorm.DB) error {
	assignID(&p.ID)
	return nil
}

// Admin is a platform operator. The earliest admin receives commission credits.
type Admin struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string    `gorm:"column:name;not null"`
	Email     string    `gorm:"column:email;not null;uniqueIndex"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (a *Admin) BeforeCreate(*gorm.DB) error {
	assignID(&a.ID)
	return nil
}

// Address is a saved delivery location owned by a user.
type Address struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID       uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`
	Label        *string   `gorm:"column:label"`
	AddressLine1 string    `gorm:"column:address_line1;not null"`
	AddressLine2 *string   `gorm:"column:address_line2"`
	City         string    `gorm:"column:city;not null"`
	State        string    `gorm:"column:state;not null"`
	Pincode      string    `gorm:"column:pincode;not null"`
	Latitude     *float64  `gorm:"column:latitude"`
	Longitude    *float64  `gorm:"column:longitude"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (a *Address) BeforeCreate(*gorm.DB) error {
	assignID(&a.ID)
	return nil
}

func (Address) TableName() string { return "addresses" }
