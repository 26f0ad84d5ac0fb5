package domain

import "github.com/shopspring/decimal"

// Cents is an exact integer price in cents. All price-level matching is
// done on Cents so ladder arithmetic never touches floating point.
type Cents int64

var centsPerDollar = decimal.NewFromInt(100)

// CentsFromDecimal converts a dollar amount to Cents, rounding to the
// nearest cent.
func CentsFromDecimal(d decimal.Decimal) Cents {
	return Cents(d.Mul(centsPerDollar).Round(0).IntPart())
}

// Decimal returns the exact dollar value of c.
func (c Cents) Decimal() decimal.Decimal {
	return decimal.NewFromInt(int64(c)).Div(centsPerDollar)
}

// String formats the value in dollars, e.g. "19990.00".
func (c Cents) String() string {
	return c.Decimal().StringFixed(2)
}
