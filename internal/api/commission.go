package api

import "github.com/shopspring/decimal"

// CommissionCalculator computes the referrer's share of a work credit.
type CommissionCalculator struct {
	Rate decimal.Decimal
}

// Commission returns base * Rate rounded to cents; zero for non-positive input.
func (c CommissionCalculator) Commission(base decimal.Decimal) decimal.Decimal {
	if !base.IsPositive() || !c.Rate.IsPositive() {
		return decimal.Zero
	}
	return base.Mul(c.Rate).Round(2)
}

// InstantFee is the informational fee shown for instant payouts.
func InstantFee(amount, rate decimal.Decimal) decimal.Decimal {
	if !amount.IsPositive() || !rate.IsPositive() {
		return decimal.Zero
	}
	return amount.Mul(rate).Round(2)
}
