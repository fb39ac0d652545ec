// Package seed loads YAML catalog fixtures (settings, kitchens, riders,
// operators, users and meals) and upserts them into the database.
package seed

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/angelmondragon/mealdash-backend/pkg/enums"
)

var clockPattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

type Fixture struct {
	Settings *SettingsFixture `yaml:"settings"`
	Vendors  []VendorFixture  `yaml:"vendors"`
	Partners []PartnerFixture `yaml:"partners"`
	Admins   []AdminFixture   `yaml:"admins"`
	Users    []UserFixture    `yaml:"users"`
}

// SettingsFixture holds decimal strings so fixtures never round through float.
type SettingsFixture struct {
	VendorCommissionPercent string `yaml:"vendor_commission_percent"`
	AdminCommissionPercent  string `yaml:"admin_commission_percent"`
	DeliveryBaseCharge      string `yaml:"delivery_base_charge"`
	DeliveryChargePerKm     string `yaml:"delivery_charge_per_km"`
	GSTPercent              string `yaml:"gst_percent"`
	PlatformCharge          string `yaml:"platform_charge"`
}

type Window struct {
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

type VendorFixture struct {
	ID        uuid.UUID         `yaml:"id"`
	Name      string            `yaml:"name"`
	Inactive  bool              `yaml:"inactive"`
	Latitude  *float64          `yaml:"latitude"`
	Longitude *float64          `yaml:"longitude"`
	Windows   map[string]Window `yaml:"windows"`
	Meals     []MealFixture     `yaml:"meals"`
}

type MealFixture struct {
	ID       uuid.UUID       `yaml:"id"`
	Title    string          `yaml:"title"`
	Image    string          `yaml:"image"`
	MealType string          `yaml:"meal_type"`
	Price    string          `yaml:"price"`
	Inactive bool            `yaml:"inactive"`
	Options  []OptionFixture `yaml:"options"`
}

type OptionFixture struct {
	ID    uuid.UUID `yaml:"id"`
	Name  string    `yaml:"name"`
	Price string    `yaml:"price"`
}

type PartnerFixture struct {
	ID       uuid.UUID `yaml:"id"`
	Name     string    `yaml:"name"`
	Phone    string    `yaml:"phone"`
	Inactive bool      `yaml:"inactive"`
}

type AdminFixture struct {
	ID    uuid.UUID `yaml:"id"`
	Name  string    `yaml:"name"`
	Email string    `yaml:"email"`
}

type UserFixture struct {
	ID        uuid.UUID        `yaml:"id"`
	Name      string           `yaml:"name"`
	Email     string           `yaml:"email"`
	Phone     string           `yaml:"phone"`
	Addresses []AddressFixture `yaml:"addresses"`
}

type AddressFixture struct {
	ID           uuid.UUID `yaml:"id"`
	Label        string    `yaml:"label"`
	AddressLine1 string    `yaml:"address_line1"`
	AddressLine2 string    `yaml:"address_line2"`
	City         string    `yaml:"city"`
	State        string    `yaml:"state"`
	Pincode      string    `yaml:"pincode"`
	Latitude     *float64  `yaml:"latitude"`
	Longitude    *float64  `yaml:"longitude"`
}

// LoadFile reads and validates a fixture file.
func LoadFile(path string) (*Fixture, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	return Load(bytes.NewReader(raw))
}

// Load decodes a fixture, rejecting unknown keys, and validates it.
func Load(r io.Reader) (*Fixture, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var fixture Fixture
	if err := dec.Decode(&fixture); err != nil {
		if err == io.EOF {
			return &fixture, nil
		}
		return nil, fmt.Errorf("decode fixture: %w", err)
	}
	if err := fixture.Validate(); err != nil {
		return nil, err
	}
	return &fixture, nil
}

// Validate reports every problem found rather than stopping at the first.
func (f *Fixture) Validate() error {
	var errs error
	if s := f.Settings; s != nil {
		for field, value := range map[string]string{
			"vendor_commission_percent": s.VendorCommissionPercent,
			"admin_commission_percent":  s.AdminCommissionPercent,
			"delivery_base_charge":      s.DeliveryBaseCharge,
			"delivery_charge_per_km":    s.DeliveryChargePerKm,
			"gst_percent":               s.GSTPercent,
			"platform_charge":           s.PlatformCharge,
		} {
			errs = multierr.Append(errs, checkAmount("settings."+field, value))
		}
		vendorPct, errV := parseAmount(s.VendorCommissionPercent)
		adminPct, errA := parseAmount(s.AdminCommissionPercent)
		if errV == nil && errA == nil && vendorPct.Add(adminPct).GreaterThan(decimal.NewFromInt(100)) {
			errs = multierr.Append(errs, fmt.Errorf("settings: commission percents exceed 100"))
		}
	}

	for i, v := range f.Vendors {
		prefix := fmt.Sprintf("vendors[%d]", i)
		if strings.TrimSpace(v.Name) == "" {
			errs = multierr.Append(errs, fmt.Errorf("%s.name is required", prefix))
		}
		for slot, w := range v.Windows {
			if !enums.MealType(strings.ToUpper(slot)).IsValid() {
				errs = multierr.Append(errs, fmt.Errorf("%s.windows: unknown meal slot %q", prefix, slot))
				continue
			}
			if !clockPattern.MatchString(w.Start) || !clockPattern.MatchString(w.End) {
				errs = multierr.Append(errs, fmt.Errorf("%s.windows.%s: times must be HH:MM", prefix, slot))
			}
		}
		for j, m := range v.Meals {
			mealPrefix := fmt.Sprintf("%s.meals[%d]", prefix, j)
			if strings.TrimSpace(m.Title) == "" {
				errs = multierr.Append(errs, fmt.Errorf("%s.title is required", mealPrefix))
			}
			if !enums.MealType(strings.ToUpper(strings.TrimSpace(m.MealType))).IsValid() {
				errs = multierr.Append(errs, fmt.Errorf("%s.meal_type %q is not a meal slot", mealPrefix, m.MealType))
			}
			errs = multierr.Append(errs, checkAmount(mealPrefix+".price", m.Price))
			for k, o := range m.Options {
				optPrefix := fmt.Sprintf("%s.options[%d]", mealPrefix, k)
				if strings.TrimSpace(o.Name) == "" {
					errs = multierr.Append(errs, fmt.Errorf("%s.name is required", optPrefix))
				}
				errs = multierr.Append(errs, checkAmount(optPrefix+".price", o.Price))
			}
		}
	}

	for i, p := range f.Partners {
		if strings.TrimSpace(p.Name) == "" {
			errs = multierr.Append(errs, fmt.Errorf("partners[%d].name is required", i))
		}
	}
	for i, a := range f.Admins {
		if strings.TrimSpace(a.Name) == "" || !strings.Contains(a.Email, "@") {
			errs = multierr.Append(errs, fmt.Errorf("admins[%d]: name and email are required", i))
		}
	}
	for i, u := range f.Users {
		if strings.TrimSpace(u.Name) == "" || !strings.Contains(u.Email, "@") {
			errs = multierr.Append(errs, fmt.Errorf("users[%d]: name and email are required", i))
		}
		for j, a := range u.Addresses {
			if a.AddressLine1 == "" || a.City == "" || a.State == "" || a.Pincode == "" {
				errs = multierr.Append(errs, fmt.Errorf("users[%d].addresses[%d]: line1, city, state and pincode are required", i, j))
			}
		}
	}
	return errs
}

func parseAmount(value string) (decimal.Decimal, error) {
	return decimal.NewFromString(strings.TrimSpace(value))
}

func checkAmount(field, value string) error {
	amount, err := parseAmount(value)
	if err != nil {
		return fmt.Errorf("%s: %q is not a decimal", field, value)
	}
	if amount.IsNegative() {
		return fmt.Errorf("%s must not be negative", field)
	}
	return nil
}
