package settlement

import (
	"github.com/shopspring/decimal"

	pkgerrors "github.com/angelmondragon/mealdash-backend/pkg/errors"
)

var hundred = decimal.NewFromInt(100)

// Split is the money movement for one delivered schedule.
type Split struct {
	ItemTotal        decimal.Decimal `json:"item_total"`
	VendorCommission decimal.Decimal `json:"vendor_commission"`
	VendorAmount     decimal.Decimal `json:"vendor_amount"`
	AdminCommission  decimal.Decimal `json:"admin_commission"`
	DeliveryPayout   decimal.Decimal `json:"delivery_payout"`
}

// ComputeSplit applies both commission percentages to the order item total.
// VendorAmount is derived by subtraction so VendorAmount+VendorCommission
// always equals ItemTotal.
func ComputeSplit(itemTotal, vendorPct, adminPct, deliveryPayout decimal.Decimal) (Split, error) {
	if itemTotal.IsNegative() {
		return Split{}, pkgerrors.New(pkgerrors.CodeValidation, "item total must not be negative")
	}
	if deliveryPayout.IsNegative() {
		return Split{}, pkgerrors.New(pkgerrors.CodeValidation, "delivery payout must not be negative")
	}
	if !validPercent(vendorPct) {
		return Split{}, pkgerrors.Newf(pkgerrors.CodeValidation, "vendor commission percent %s out of range", vendorPct)
	}
	if !validPercent(adminPct) {
		return Split{}, pkgerrors.Newf(pkgerrors.CodeValidation, "admin commission percent %s out of range", adminPct)
	}

	total := itemTotal.Round(2)
	vendorCommission := total.Mul(vendorPct).Div(hundred).Round(2)
	return Split{
		ItemTotal:        total,
		VendorCommission: vendorCommission,
		VendorAmount:     total.Sub(vendorCommission),
		AdminCommission:  total.Mul(adminPct).Div(hundred).Round(2),
		DeliveryPayout:   deliveryPayout.Round(2),
	}, nil
}

func validPercent(pct decimal.Decimal) bool {
	return !pct.IsNegative() && pct.LessThanOrEqual(hundred)
}
