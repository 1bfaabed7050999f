package fees

import "github.com/shopspring/decimal"

// Calculator computes transfer fees from a loaded schedule. Calculate is a
// pure function: no I/O, no state, identical input gives identical output.
type Calculator struct {
	schedule *Schedule
}

func NewCalculator(schedule *Schedule) *Calculator {
	return &Calculator{schedule: schedule}
}

func (c *Calculator) ScheduleVersion() string {
	return c.schedule.Version
}

// Calculate returns the fee for moving amount under the given class,
// rounded half-up to 2 decimal places. Non-positive amounts cost nothing;
// the engine rejects them before any mutation anyway.
func (c *Calculator) Calculate(class Class, amount decimal.Decimal) decimal.Decimal {
	if amount.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}

	switch class {
	case ClassInternal:
		return tierFee(c.schedule.Internal, amount)
	case ClassExternal:
		return c.schedule.External.fee(amount)
	case ClassMobileMoney:
		for _, band := range c.schedule.MobileMoney.Bands {
			if band.UpTo != nil && amount.LessThanOrEqual(*band.UpTo) {
				return band.Fee.Round(2)
			}
		}
		return c.schedule.MobileMoney.Overflow.fee(amount)
	case ClassWithdrawal:
		return c.schedule.Withdrawal.fee(amount)
	case ClassSavingsDeposit:
		return decimal.Zero
	}
	return decimal.Zero
}

func tierFee(tiers []Tier, amount decimal.Decimal) decimal.Decimal {
	for _, t := range tiers {
		if t.UpTo == nil || amount.LessThanOrEqual(*t.UpTo) {
			return t.Fee.Round(2)
		}
	}
	return decimal.Zero
}

func (cr ClampedRate) fee(amount decimal.Decimal) decimal.Decimal {
	fee := amount.Mul(cr.Rate).Round(2)
	if fee.LessThan(cr.MinFee) {
		return cr.MinFee
	}
	if fee.GreaterThan(cr.MaxFee) {
		return cr.MaxFee
	}
	return fee
}
