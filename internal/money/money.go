// Package money holds the decimal helpers shared by the aggregation code.
// Amounts stay decimal.Decimal end to end and are converted to float64 only
// when a response DTO is built.
package money

import "github.com/shopspring/decimal"

// Places is the number of fractional digits every amount carries.
const Places = 2

var (
	hundred = decimal.NewFromInt(100)

	// NearLimitRatio is the share of a budget at which spending is flagged.
	NearLimitRatio = decimal.RequireFromString("0.8")
)

// Round rounds d half away from zero to two places.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Places)
}

// Float converts a rounded amount for JSON output.
func Float(d decimal.Decimal) float64 {
	f, _ := Round(d).Float64()
	return f
}

// Percentage returns round(100 * part / whole, 2), or zero when whole is not
// positive.
func Percentage(part, whole decimal.Decimal) decimal.Decimal {
	if !whole.IsPositive() {
		return decimal.Zero
	}
	return Round(part.Mul(hundred).Div(whole))
}

// NearLimit reports whether spent has reached NearLimitRatio of amount.
func NearLimit(spent, amount decimal.Decimal) bool {
	return spent.GreaterThanOrEqual(amount.Mul(NearLimitRatio))
}
