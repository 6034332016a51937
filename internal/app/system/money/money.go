// Package money does currency arithmetic in decimal so that commission and
// revenue sums do not accumulate binary floating-point error. Amounts are
// stored as float64 rounded to cents.
package money

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Commission returns amount * percentage / 100 rounded half-up to cents.
func Commission(amount, percentage float64) float64 {
	d := decimal.NewFromFloat(amount).Mul(decimal.NewFromFloat(percentage)).Div(hundred)
	return d.Round(2).InexactFloat64()
}

// Round rounds an amount to cents.
func Round(amount float64) float64 {
	return decimal.NewFromFloat(amount).Round(2).InexactFloat64()
}

// Sum adds amounts exactly and returns the total rounded to cents.
func Sum(amounts ...float64) float64 {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(decimal.NewFromFloat(a))
	}
	return total.Round(2).InexactFloat64()
}

// Accumulator keeps a running decimal total.
type Accumulator struct {
	total decimal.Decimal
}

// Add adds amount to the running total.
func (a *Accumulator) Add(amount float64) {
	a.total = a.total.Add(decimal.NewFromFloat(amount))
}

// Value returns the total rounded to cents.
func (a *Accumulator) Value() float64 {
	return a.total.Round(2).InexactFloat64()
}

// Percent returns 100 * part / whole, or 0 when whole is not positive.
// The result is not rounded.
func Percent(part, whole float64) float64 {
	if whole <= 0 {
		return 0
	}
	return decimal.NewFromFloat(part).Mul(hundred).Div(decimal.NewFromFloat(whole)).InexactFloat64()
}

// Ratio returns part / whole, or 0 when whole is zero.
func Ratio(part, whole float64) float64 {
	if whole == 0 {
		return 0
	}
	return decimal.NewFromFloat(part).Div(decimal.NewFromFloat(whole)).InexactFloat64()
}
