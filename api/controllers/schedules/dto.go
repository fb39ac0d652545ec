package schedules

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/mealdash-backend/pkg/db/models"
	"github.com/angelmondragon/mealdash-backend/pkg/enums"
)

type statusRequest struct {
	Status string `json:"status" validate:"required"`
}

type assignRequest struct {
	DeliveryPartnerID uuid.UUID `json:"delivery_partner_id" validate:"required"`
}

type scheduleResponse struct {
	ID                uuid.UUID            `json:"id"`
	OrderID           uuid.UUID            `json:"order_id"`
	OrderItemID       uuid.UUID            `json:"order_item_id"`
	UserID            uuid.UUID            `json:"user_id"`
	VendorID          uuid.UUID            `json:"vendor_id"`
	DeliveryPartnerID *uuid.UUID           `json:"delivery_partner_id,omitempty"`
	ScheduledDate     string               `json:"scheduled_date"`
	ScheduledTimeSlot string               `json:"scheduled_time_slot"`
	MealType          string               `json:"meal_type"`
	MealTitle         string               `json:"meal_title"`
	MealImage         *string              `json:"meal_image,omitempty"`
	Quantity          int                  `json:"quantity"`
	Status            enums.ScheduleStatus `json:"status"`
	DeliveredAt       *time.Time           `json:"delivered_at,omitempty"`
	UpdatedAt         time.Time            `json:"updated_at"`
}

func newScheduleResponse(row *models.MealSchedule) scheduleResponse {
	return scheduleResponse{
		ID:                row.ID,
		OrderID:           row.OrderID,
		OrderItemID:       row.OrderItemID,
		UserID:            row.UserID,
		VendorID:          row.VendorID,
		DeliveryPartnerID: row.DeliveryPartnerID,
		ScheduledDate:     time.Time(row.ScheduledDate).Format("2006-01-02"),
		ScheduledTimeSlot: row.ScheduledTimeSlot,
		MealType:          row.MealType,
		MealTitle:         row.MealTitle,
		MealImage:         row.MealImage,
		Quantity:          row.Quantity,
		Status:            row.Status,
		DeliveredAt:       row.DeliveredAt,
		UpdatedAt:         row.UpdatedAt,
	}
}

func newScheduleList(rows []models.MealSchedule) []scheduleResponse {
	out := make([]scheduleResponse, 0, len(rows))
	for i := range rows {
		out = append(out, newScheduleResponse(&rows[i]))
	}
	return out
}
