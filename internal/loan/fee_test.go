package loan

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func date(day int) time.Time {
	return time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC).AddDate(0, 0, day)
}

func TestDaysRented(t *testing.T) {
	t.Run("same day counts as one", func(t *testing.T) {
		assert.Equal(t, 1, DaysRented(date(0), date(0)))
	})

	t.Run("whole days", func(t *testing.T) {
		assert.Equal(t, 14, DaysRented(date(0), date(14)))
	})

	t.Run("partial day rounds up", func(t *testing.T) {
		issued := date(0)
		returned := issued.AddDate(0, 0, 3).Add(2 * time.Hour)
		assert.Equal(t, 4, DaysRented(issued, returned))
	})

	t.Run("return before issue clamps to one", func(t *testing.T) {
		assert.Equal(t, 1, DaysRented(date(5), date(3)))
	})
}

func TestFeePolicy_ComputeFee(t *testing.T) {
	policy := DefaultFeePolicy()

	t.Run("on time", func(t *testing.T) {
		fee := policy.ComputeFee(date(0), date(14))
		assert.True(t, fee.Equal(decimal.RequireFromString("28.00")), "got %s", fee)
	})

	t.Run("late applies multiplier", func(t *testing.T) {
		fee := policy.ComputeFee(date(0), date(15))
		assert.True(t, fee.Equal(decimal.RequireFromString("45.00")), "got %s", fee)
	})

	t.Run("late with multiplier disabled", func(t *testing.T) {
		flat := policy
		flat.LateMultiplierEnabled = false
		fee := flat.ComputeFee(date(0), date(15))
		assert.True(t, fee.Equal(decimal.RequireFromString("30.00")), "got %s", fee)
	})

	t.Run("same day charges one day", func(t *testing.T) {
		fee := policy.ComputeFee(date(0), date(0))
		assert.True(t, fee.Equal(decimal.RequireFromString("2.00")), "got %s", fee)
	})

	t.Run("rounds to cents", func(t *testing.T) {
		odd := FeePolicy{
			DailyRate:             decimal.RequireFromString("1.11"),
			LoanPeriodDays:        14,
			LateMultiplier:        decimal.RequireFromString("1.5"),
			LateMultiplierEnabled: true,
		}
		fee := odd.ComputeFee(date(0), date(15))
		// 15 * 1.11 * 1.5 = 24.975 -> 24.98
		assert.True(t, fee.Equal(decimal.RequireFromString("24.98")), "got %s", fee)
	})
}
