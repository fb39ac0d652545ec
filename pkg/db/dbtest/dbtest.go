// Package dbtest opens isolated in-memory SQLite databases with the full schema
// applied, plus small fixture builders shared by repository tests.
package dbtest

import (
	"context"
	"fmt"
	"io"
	"log"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/angelmondragon/mealdash-backend/pkg/db"
	"github.com/angelmondragon/mealdash-backend/pkg/db/models"
	"github.com/angelmondragon/mealdash-backend/pkg/db/schema"
	"github.com/angelmondragon/mealdash-backend/pkg/enums"
)

// New returns a fresh database. Each call gets its own named memory file so
// parallel tests never share rows.
func New(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		NowFunc:                func() time.Time { return time.Now().UTC() },
		Logger: gormlogger.New(
			log.New(io.Discard, "", log.LstdFlags),
			gormlogger.Config{LogLevel: gormlogger.Silent},
		),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := schema.ApplySQLite(context.Background(), conn); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
	return conn
}

// NewClient wraps New in a db.Client for services that need WithTx.
func NewClient(t *testing.T) (*db.Client, *gorm.DB) {
	t.Helper()
	conn := New(t)
	return db.Wrap(conn), conn
}

// Day truncates to a UTC calendar date.
func Day(year int, month time.Month, day int) datatypes.Date {
	return datatypes.Date(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

func mustCreate(t *testing.T, conn *gorm.DB, value any) {
	t.Helper()
	if err := conn.Create(value).Error; err != nil {
		t.Fatalf("create %T: %v", value, err)
	}
}

func CreateUser(t *testing.T, conn *gorm.DB) models.User {
	t.Helper()
	user := models.User{Name: "Test User", Email: uuid.NewString() + "@example.com"}
	mustCreate(t, conn, &user)
	return user
}

// CreateVendor inserts an active vendor. mutate may set meal windows.
func CreateVendor(t *testing.T, conn *gorm.DB, mutate func(*models.Vendor)) models.Vendor {
	t.Helper()
	vendor := models.Vendor{Name: "Kitchen", Active: true}
	if mutate != nil {
		mutate(&vendor)
	}
	mustCreate(t, conn, &vendor)
	return vendor
}

func CreatePartner(t *testing.T, conn *gorm.DB, active bool) models.DeliveryPartner {
	t.Helper()
	partner := models.DeliveryPartner{Name: "Rider", Active: true}
	mustCreate(t, conn, &partner)
	if !active {
		if err := conn.Model(&partner).Update("active", false).Error; err != nil {
			t.Fatalf("deactivate partner: %v", err)
		}
		partner.Active = false
	}
	return partner
}

func CreateAdmin(t *testing.T, conn *gorm.DB) models.Admin {
	t.Helper()
	admin := models.Admin{Name: "Ops", Email: uuid.NewString() + "@example.com"}
	mustCreate(t, conn, &admin)
	return admin
}

func CreateAddress(t *testing.T, conn *gorm.DB, userID uuid.UUID) models.Address {
	t.Helper()
	lat, lng := 12.9716, 77.5946
	address := models.Address{
		UserID:       userID,
		AddressLine1: "12 MG Road",
		City:         "Bengaluru",
		State:        "KA",
		Pincode:      "560001",
		Latitude:     &lat,
		Longitude:    &lng,
	}
	mustCreate(t, conn, &address)
	return address
}

func CreateMeal(t *testing.T, conn *gorm.DB, vendorID uuid.UUID, mealType string, price string) models.Meal {
	t.Helper()
	meal := models.Meal{
		VendorID: vendorID,
		Title:    mealType + " thali",
		MealType: mealType,
		Price:    decimal.RequireFromString(price),
		Active:   true,
	}
	mustCreate(t, conn, &meal)
	return meal
}

func CreateMealOption(t *testing.T, conn *gorm.DB, mealID uuid.UUID, name, price string) models.MealOption {
	t.Helper()
	option := models.MealOption{MealID: mealID, Name: name, Price: decimal.RequireFromString(price)}
	mustCreate(t, conn, &option)
	return option
}

// CreateSettings writes the single settings row.
func CreateSettings(t *testing.T, conn *gorm.DB, vendorPct, adminPct string) models.Settings {
	t.Helper()
	settings := models.Settings{
		ID:                      models.SettingsRowID,
		VendorCommissionPercent: decimal.RequireFromString(vendorPct),
		AdminCommissionPercent:  decimal.RequireFromString(adminPct),
		DeliveryBaseCharge:      decimal.NewFromInt(20),
		DeliveryChargePerKm:     decimal.NewFromInt(5),
		GSTPercent:              decimal.NewFromInt(5),
		PlatformCharge:          decimal.Zero,
	}
	mustCreate(t, conn, &settings)
	return settings
}

// OrderFixture is a persisted order with one item and its schedules.
type OrderFixture struct {
	Order     models.Order
	Item      models.OrderItem
	Schedules []models.MealSchedule
}

// CreateOrder inserts an order with one item worth itemTotal and a schedule row
// per status provided, all dated start.
func CreateOrder(t *testing.T, conn *gorm.DB, userID, vendorID uuid.UUID, itemTotal, perUnit string, statuses ...enums.ScheduleStatus) OrderFixture {
	t.Helper()
	start := Day(2026, time.March, 2)
	total := decimal.RequireFromString(itemTotal)
	order := models.Order{
		UserID:                userID,
		VendorID:              vendorID,
		OrderType:             enums.OrderTypeWeekly,
		Status:                enums.OrderStatusPending,
		PaymentType:           enums.PaymentTypeCOD,
		Subtotal:              total,
		DeliveryCharges:       decimal.Zero,
		DeliveryChargePerUnit: decimal.RequireFromString(perUnit),
		Taxes:                 decimal.Zero,
		Discount:              decimal.Zero,
		TotalAmount:           total,
		AddressLine1:          "12 MG Road",
		City:                  "Bengaluru",
		State:                 "KA",
		Pincode:               "560001",
		StartDate:             start,
		EndDate:               start,
		TotalMeals:            len(statuses),
	}
	mustCreate(t, conn, &order)

	item := models.OrderItem{
		OrderID:    order.ID,
		MealID:     uuid.New(),
		MealTitle:  "Lunch thali",
		MealType:   "LUNCH",
		UnitPrice:  total,
		Quantity:   1,
		TotalPrice: total,
	}
	mustCreate(t, conn, &item)

	fixture := OrderFixture{Order: order, Item: item}
	for _, status := range statuses {
		schedule := models.MealSchedule{
			OrderID:           order.ID,
			OrderItemID:       item.ID,
			UserID:            userID,
			VendorID:          vendorID,
			ScheduledDate:     start,
			ScheduledTimeSlot: "12:00-14:00",
			MealType:          "LUNCH",
			MealTitle:         item.MealTitle,
			Quantity:          1,
			Status:            status,
		}
		mustCreate(t, conn, &schedule)
		fixture.Schedules = append(fixture.Schedules, schedule)
	}
	return fixture
}
