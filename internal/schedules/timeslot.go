package schedules

import (
	"strings"

	"github.com/angelmondragon/mealdash-backend/pkg/db/models"
	"github.com/angelmondragon/mealdash-backend/pkg/enums"
)

// Window is a vendor's configured service range for one meal type.
type Window struct {
	Start *string
	End   *string
}

// Windows holds a vendor's per-meal-type service ranges.
type Windows struct {
	Breakfast Window
	Lunch     Window
	Evening   Window
	Dinner    Window
}

var defaultSlots = map[enums.MealType]string{
	enums.MealTypeBreakfast: "08:00-10:00",
	enums.MealTypeLunch:     "12:00-14:00",
	enums.MealTypeEvening:   "16:00-18:00",
	enums.MealTypeDinner:    "19:00-21:00",
}

func WindowsFromVendor(vendor *models.Vendor) Windows {
	if vendor == nil {
		return Windows{}
	}
	return Windows{
		Breakfast: Window{Start: vendor.BreakfastStart, End: vendor.BreakfastEnd},
		Lunch:     Window{Start: vendor.LunchStart, End: vendor.LunchEnd},
		Evening:   Window{Start: vendor.EveningStart, End: vendor.EveningEnd},
		Dinner:    Window{Start: vendor.DinnerStart, End: vendor.DinnerEnd},
	}
}

func (w Windows) forMealType(mealType enums.MealType) Window {
	switch mealType {
	case enums.MealTypeBreakfast:
		return w.Breakfast
	case enums.MealTypeEvening:
		return w.Evening
	case enums.MealTypeDinner:
		return w.Dinner
	default:
		return w.Lunch
	}
}

// ResolveTimeSlot renders "start-end" from the vendor window for mealType,
// falling back to the fixed default range when either bound is unset.
// Unknown meal types use the lunch window.
func ResolveTimeSlot(windows Windows, mealType string) string {
	normalized := enums.NormalizeMealType(mealType)
	window := windows.forMealType(normalized)
	start, end := trimmed(window.Start), trimmed(window.End)
	if start == "" || end == "" {
		return defaultSlots[normalized]
	}
	return start + "-" + end
}

func trimmed(value *string) string {
	if value == nil {
		return ""
	}
	return strings.TrimSpace(*value)
}
