package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "s3cret")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, ":8080", cfg.Addr)
		assert.Equal(t, 3, cfg.LoanLimit)
		assert.Equal(t, "2.00", cfg.FeeDailyRate)
		assert.Equal(t, 14, cfg.FeeLoanPeriodDays)
		assert.Equal(t, "1.5", cfg.FeeLateMultiplier)
		assert.True(t, cfg.FeeLateMultiplierEnabled)
	})

	t.Run("missing secret fails", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "")

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("overrides", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "s3cret")
		t.Setenv("LOAN_LIMIT", "5")
		t.Setenv("FEE_LATE_MULTIPLIER_ENABLED", "false")
		t.Setenv("CORS_ORIGINS", "https://a.example,https://b.example")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, 5, cfg.LoanLimit)
		assert.False(t, cfg.FeeLateMultiplierEnabled)
		assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	})
}
