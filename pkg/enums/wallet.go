package enums

import "fmt"

// WalletOwnerType identifies the party table a wallet belongs to.
type WalletOwnerType string

const (
	WalletOwnerVendor          WalletOwnerType = "VENDOR"
	WalletOwnerDeliveryPartner WalletOwnerType = "DELIVERY_PARTNER"
	WalletOwnerAdmin           WalletOwnerType = "ADMIN"
)

var validWalletOwnerTypes = []WalletOwnerType{
	WalletOwnerVendor,
	WalletOwnerDeliveryPartner,
	WalletOwnerAdmin,
}

// String implements fmt.Stringer.
func (w WalletOwnerType) String() string {
	return string(w)
}

// IsValid reports whether the value is a known WalletOwnerType.
func (w WalletOwnerType) IsValid() bool {
	for _, candidate := range validWalletOwnerTypes {
		if candidate == w {
			return true
		}
	}
	return false
}

// ParseWalletOwnerType converts raw input into a WalletOwnerType.
func ParseWalletOwnerType(value string) (WalletOwnerType, error) {
	for _, candidate := range validWalletOwnerTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid wallet owner type %q", value)
}

// WalletTransactionType is the direction of a wallet ledger row.
type WalletTransactionType string

const (
	WalletTransactionCredit WalletTransactionType = "CREDIT"
	WalletTransactionDebit  WalletTransactionType = "DEBIT"
)

var validWalletTransactionTypes = []WalletTransactionType{
	WalletTransactionCredit,
	WalletTransactionDebit,
}

// String implements fmt.Stringer.
func (w WalletTransactionType) String() string {
	return string(w)
}

// IsValid reports whether the value is a known WalletTransactionType.
func (w WalletTransactionType) IsValid() bool {
	for _, candidate := range validWalletTransactionTypes {
		if candidate == w {
			return true
		}
	}
	return false
}
