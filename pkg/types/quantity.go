package types

import "github.com/shopspring/decimal"

// QuantityScale is the number of decimal places every stored quantity keeps.
const QuantityScale = 2

// MinDonationQuantity is the smallest pledge that survives storage.
var MinDonationQuantity = decimal.New(1, -QuantityScale)

// ValidateQuantity rejects negative values and values with more decimal
// places than storage keeps. When positive is set zero is rejected as well.
func ValidateQuantity(field string, qty decimal.Decimal, positive bool) error {
	if qty.IsNegative() {
		return NewValidation("%s must not be negative", field)
	}
	if positive && qty.LessThan(MinDonationQuantity) {
		return NewValidation("%s must be at least %s", field, MinDonationQuantity.StringFixed(QuantityScale))
	}
	if !qty.Equal(qty.Truncate(QuantityScale)) {
		return NewValidation("%s must have at most %d decimal places", field, QuantityScale)
	}
	return nil
}
