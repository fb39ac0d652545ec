package schedules

import (
	"time"

	"gorm.io/datatypes"

	"github.com/angelmondragon/mealdash-backend/pkg/db/models"
	"github.com/angelmondragon/mealdash-backend/pkg/enums"
)

// BuildSchedules expands one order item into its delivery calendar.
// ONETIME orders get a single row carrying the item quantity. WEEKLY and
// MONTHLY orders get one quantity-1 row per unit per day.
func BuildSchedules(order *models.Order, item *models.OrderItem, windows Windows, start time.Time) []models.MealSchedule {
	if order == nil || item == nil || item.Quantity <= 0 {
		return nil
	}

	slot := ResolveTimeSlot(windows, item.MealType)
	day := truncateDay(start)
	base := models.MealSchedule{
		OrderID:           order.ID,
		OrderItemID:       item.ID,
		UserID:            order.UserID,
		VendorID:          order.VendorID,
		ScheduledTimeSlot: slot,
		MealType:          item.MealType,
		MealTitle:         item.MealTitle,
		MealImage:         item.MealImage,
		Status:            enums.ScheduleStatusScheduled,
	}

	if !order.OrderType.IsSubscription() {
		row := base
		row.ScheduledDate = datatypes.Date(day)
		row.Quantity = item.Quantity
		return []models.MealSchedule{row}
	}

	days := order.OrderType.DeliveryDays()
	rows := make([]models.MealSchedule, 0, days*item.Quantity)
	for offset := 0; offset < days; offset++ {
		date := datatypes.Date(day.AddDate(0, 0, offset))
		for unit := 0; unit < item.Quantity; unit++ {
			row := base
			row.ScheduledDate = date
			row.Quantity = 1
			rows = append(rows, row)
		}
	}
	return rows
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FormatDate renders a schedule date as YYYY-MM-DD.
func FormatDate(date datatypes.Date) string {
	return time.Time(date).UTC().Format("2006-01-02")
}
