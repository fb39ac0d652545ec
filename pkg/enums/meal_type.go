package enums

import "strings"

// MealType names the time-of-day slot a meal is served in.
type MealType string

const (
	MealTypeBreakfast MealType = "BREAKFAST"
	MealTypeLunch     MealType = "LUNCH"
	MealTypeEvening   MealType = "EVENING"
	MealTypeDinner    MealType = "DINNER"
)

var validMealTypes = []MealType{
	MealTypeBreakfast,
	MealTypeLunch,
	MealTypeEvening,
	MealTypeDinner,
}

// String implements fmt.Stringer.
func (m MealType) String() string {
	return string(m)
}

// IsValid reports whether the value is a known MealType.
func (m MealType) IsValid() bool {
	for _, candidate := range validMealTypes {
		if candidate == m {
			return true
		}
	}
	return false
}

// NormalizeMealType matches free-text catalog values case-insensitively.
// Unknown values resolve to lunch.
func NormalizeMealType(value string) MealType {
	candidate := MealType(strings.ToUpper(strings.TrimSpace(value)))
	if candidate.IsValid() {
		return candidate
	}
	return MealTypeLunch
}
