package seed

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/mealdash-backend/pkg/db/models"
	"github.com/angelmondragon/mealdash-backend/pkg/enums"
	"github.com/angelmondragon/mealdash-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Summary counts upserted rows per table.
type Summary struct {
	Settings  int `json:"settings"`
	Vendors   int `json:"vendors"`
	Meals     int `json:"meals"`
	Options   int `json:"options"`
	Partners  int `json:"partners"`
	Admins    int `json:"admins"`
	Users     int `json:"users"`
	Addresses int `json:"addresses"`
}

type Seeder struct {
	tx   txRunner
	logg *logger.Logger
}

func NewSeeder(tx txRunner, logg *logger.Logger) (*Seeder, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &Seeder{tx: tx, logg: logg}, nil
}

// Apply upserts the fixture in one transaction. Rows keyed by a fixture id
// are updated in place on rerun; rows without an id are inserted fresh.
func (s *Seeder) Apply(ctx context.Context, fixture *Fixture) (Summary, error) {
	var summary Summary
	if fixture == nil {
		return summary, nil
	}
	if err := fixture.Validate(); err != nil {
		return summary, err
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		tx = tx.WithContext(ctx)
		if fixture.Settings != nil {
			if err := upsert(tx, settingsModel(fixture.Settings)); err != nil {
				return fmt.Errorf("settings: %w", err)
			}
			summary.Settings++
		}
		for _, v := range fixture.Vendors {
			vendor := vendorModel(v)
			if err := upsert(tx, &vendor); err != nil {
				return fmt.Errorf("vendor %s: %w", v.Name, err)
			}
			if err := deactivate(tx, &vendor, v.Inactive); err != nil {
				return fmt.Errorf("vendor %s: %w", v.Name, err)
			}
			summary.Vendors++
			for _, m := range v.Meals {
				meal := mealModel(vendor.ID, m)
				if err := upsert(tx, &meal); err != nil {
					return fmt.Errorf("meal %s: %w", m.Title, err)
				}
				if err := deactivate(tx, &meal, m.Inactive); err != nil {
					return fmt.Errorf("meal %s: %w", m.Title, err)
				}
				summary.Meals++
				for _, o := range m.Options {
					option := models.MealOption{ID: o.ID, MealID: meal.ID, Name: o.Name, Price: mustAmount(o.Price)}
					if err := upsert(tx, &option); err != nil {
						return fmt.Errorf("meal option %s: %w", o.Name, err)
					}
					summary.Options++
				}
			}
		}
		for _, p := range fixture.Partners {
			partner := models.DeliveryPartner{ID: p.ID, Name: p.Name, Phone: optional(p.Phone), Active: !p.Inactive}
			if err := upsert(tx, &partner); err != nil {
				return fmt.Errorf("partner %s: %w", p.Name, err)
			}
			if err := deactivate(tx, &partner, p.Inactive); err != nil {
				return fmt.Errorf("partner %s: %w", p.Name, err)
			}
			summary.Partners++
		}
		for _, a := range fixture.Admins {
			admin := models.Admin{ID: a.ID, Name: a.Name, Email: strings.ToLower(a.Email)}
			if err := adoptByEmail(tx, &models.Admin{}, admin.Email, &admin.ID); err != nil {
				return fmt.Errorf("admin %s: %w", a.Email, err)
			}
			if err := upsert(tx, &admin); err != nil {
				return fmt.Errorf("admin %s: %w", a.Email, err)
			}
			summary.Admins++
		}
		for _, u := range fixture.Users {
			user := models.User{ID: u.ID, Name: u.Name, Email: strings.ToLower(u.Email), Phone: optional(u.Phone)}
			if err := adoptByEmail(tx, &models.User{}, user.Email, &user.ID); err != nil {
				return fmt.Errorf("user %s: %w", u.Email, err)
			}
			if err := upsert(tx, &user); err != nil {
				return fmt.Errorf("user %s: %w", u.Email, err)
			}
			summary.Users++
			for _, a := range u.Addresses {
				address := addressModel(user.ID, a)
				if err := upsert(tx, &address); err != nil {
					return fmt.Errorf("address for %s: %w", u.Email, err)
				}
				summary.Addresses++
			}
		}
		return nil
	})
	if err != nil {
		return Summary{}, err
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"vendors":  summary.Vendors,
			"meals":    summary.Meals,
			"partners": summary.Partners,
			"admins":   summary.Admins,
			"users":    summary.Users,
		}), "seed applied")
	}
	return summary, nil
}

func upsert(tx *gorm.DB, value any) error {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(value).Error
}

// deactivate writes active=false explicitly; gorm skips zero values on
// columns with a database default.
func deactivate(tx *gorm.DB, model any, inactive bool) error {
	if !inactive {
		return nil
	}
	return tx.Model(model).Update("active", false).Error
}

// adoptByEmail reuses the id of an existing row with the same email when the
// fixture does not pin one, so reruns update rather than collide.
func adoptByEmail(tx *gorm.DB, model any, email string, id *uuid.UUID) error {
	if *id != uuid.Nil {
		return nil
	}
	var ids []uuid.UUID
	if err := tx.Model(model).Where("email = ?", email).Limit(1).Pluck("id", &ids).Error; err != nil {
		return err
	}
	if len(ids) > 0 {
		*id = ids[0]
	}
	return nil
}

func settingsModel(s *SettingsFixture) *models.Settings {
	return &models.Settings{
		ID:                      models.SettingsRowID,
		VendorCommissionPercent: mustAmount(s.VendorCommissionPercent),
		AdminCommissionPercent:  mustAmount(s.AdminCommissionPercent),
		DeliveryBaseCharge:      mustAmount(s.DeliveryBaseCharge),
		DeliveryChargePerKm:     mustAmount(s.DeliveryChargePerKm),
		GSTPercent:              mustAmount(s.GSTPercent),
		PlatformCharge:          mustAmount(s.PlatformCharge),
	}
}

func vendorModel(v VendorFixture) models.Vendor {
	vendor := models.Vendor{
		ID:        v.ID,
		Name:      v.Name,
		Active:    !v.Inactive,
		Latitude:  v.Latitude,
		Longitude: v.Longitude,
	}
	for slot, w := range v.Windows {
		start, end := optional(w.Start), optional(w.End)
		switch enums.MealType(strings.ToUpper(slot)) {
		case enums.MealTypeBreakfast:
			vendor.BreakfastStart, vendor.BreakfastEnd = start, end
		case enums.MealTypeLunch:
			vendor.LunchStart, vendor.LunchEnd = start, end
		case enums.MealTypeEvening:
			vendor.EveningStart, vendor.EveningEnd = start, end
		case enums.MealTypeDinner:
			vendor.DinnerStart, vendor.DinnerEnd = start, end
		}
	}
	return vendor
}

func mealModel(vendorID uuid.UUID, m MealFixture) models.Meal {
	return models.Meal{
		ID:       m.ID,
		VendorID: vendorID,
		Title:    m.Title,
		Image:    optional(m.Image),
		MealType: enums.NormalizeMealType(m.MealType).String(),
		Price:    mustAmount(m.Price),
		Active:   !m.Inactive,
	}
}

func addressModel(userID uuid.UUID, a AddressFixture) models.Address {
	return models.Address{
		ID:           a.ID,
		UserID:       userID,
		Label:        optional(a.Label),
		AddressLine1: a.AddressLine1,
		AddressLine2: optional(a.AddressLine2),
		City:         a.City,
		State:        a.State,
		Pincode:      a.Pincode,
		Latitude:     a.Latitude,
		Longitude:    a.Longitude,
	}
}

// mustAmount is only called after Validate accepted the value.
func mustAmount(value string) decimal.Decimal {
	amount, _ := parseAmount(value)
	return amount.Round(2)
}

func optional(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
