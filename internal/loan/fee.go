package loan

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// FeePolicy prices a finished loan. The late multiplier kicks in once the
// loan runs past LoanPeriodDays; it is a policy switch, not a law, so
// deployments can run the flat per-day variant instead.
type FeePolicy struct {
	DailyRate             decimal.Decimal
	LoanPeriodDays        int
	LateMultiplier        decimal.Decimal
	LateMultiplierEnabled bool
}

// DefaultFeePolicy is $2.00 per day with a 1.5x surcharge after two weeks.
func DefaultFeePolicy() FeePolicy {
	return FeePolicy{
		DailyRate:             decimal.RequireFromString("2.00"),
		LoanPeriodDays:        14,
		LateMultiplier:        decimal.RequireFromString("1.5"),
		LateMultiplierEnabled: true,
	}
}

// DaysRented counts whole days between issue and return, rounding any part of
// a day up. A same-day return still costs one day.
func DaysRented(issueDate, returnDate time.Time) int {
	days := int(math.Ceil(returnDate.Sub(issueDate).Hours() / 24))
	if days < 1 {
		days = 1
	}
	return days
}

// ComputeFee prices the loan: days x daily rate, times the late multiplier
// when the policy has one and the loan ran long.
func (p FeePolicy) ComputeFee(issueDate, returnDate time.Time) decimal.Decimal {
	days := DaysRented(issueDate, returnDate)
	fee := p.DailyRate.Mul(decimal.NewFromInt(int64(days)))
	if p.LateMultiplierEnabled && days > p.LoanPeriodDays {
		fee = fee.Mul(p.LateMultiplier)
	}
	return fee.Round(2)
}
