package service

import "github.com/shopspring/decimal"

// Price is nights times the nightly rate. Rates carry at most two decimal
// places, so the product is exact in cents.
func Price(nights int, pricePerNight decimal.Decimal) decimal.Decimal {
	return pricePerNight.Mul(decimal.NewFromInt(int64(nights)))
}
