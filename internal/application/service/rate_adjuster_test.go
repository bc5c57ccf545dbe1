package service

import (
	"errors"
	"testing"

	"github.com/damon-houk/fx-ledger-backfill/internal/apperrors"
	"github.com/damon-houk/fx-ledger-backfill/internal/domain/entity"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestAdjust(t *testing.T) {
	adjuster := NewRateAdjuster(DefaultPrecision)

	t.Run("Rebases and rounds to 8 places", func(t *testing.T) {
		rates := entity.RateSet{
			"HKD": d("7.8"),
			"USD": d("1"),
			"EUR": d("0.9"),
			"CHF": d("0.88"),
			"JPY": d("150.25"),
		}

		result, err := adjuster.Adjust(rates, "HKD", []string{"USD", "EUR", "CHF"})
		require.NoError(t, err)

		assert.True(t, result.Complete())
		assert.Equal(t, "HKD", result.Base)
		assert.Len(t, result.Rates, 3)
		assert.Equal(t, "0.12820513", result.Rates["USD"].StringFixed(8))
		assert.Equal(t, "0.11538462", result.Rates["EUR"].StringFixed(8))
		assert.Equal(t, "0.11282051", result.Rates["CHF"].StringFixed(8))

		// Never includes a currency that was not asked for
		_, ok := result.Rates["JPY"]
		assert.False(t, ok)
	})

	t.Run("Rounds ties half-up", func(t *testing.T) {
		rates := entity.RateSet{
			"HKD": d("2"),
			"CNY": d("0.24691357"),  // 0.123456785
			"SEK": d("0.24691355"),  // 0.123456775
			"NOK": d("0.246913569"), // 0.1234567845
		}

		result, err := adjuster.Adjust(rates, "HKD", []string{"CNY", "SEK", "NOK"})
		require.NoError(t, err)

		assert.Equal(t, "0.12345679", result.Rates["CNY"].StringFixed(8))
		assert.Equal(t, "0.12345678", result.Rates["SEK"].StringFixed(8))
		assert.Equal(t, "0.12345678", result.Rates["NOK"].StringFixed(8))
	})

	t.Run("Matches round(rate / base, 8)", func(t *testing.T) {
		rates := entity.RateSet{
			"HKD": d("7.82545"),
			"DKK": d("6.874201"),
			"NOK": d("10.5921"),
		}

		result, err := adjuster.Adjust(rates, "HKD", []string{"DKK", "NOK"})
		require.NoError(t, err)

		for _, c := range []string{"DKK", "NOK"} {
			want := rates[c].DivRound(rates["HKD"], 40).Round(8)
			assert.True(t, want.Equal(result.Rates[c]), c)
		}
	})

	t.Run("Base currency rebases to one", func(t *testing.T) {
		result, err := adjuster.Adjust(entity.RateSet{"HKD": d("7.8")}, "HKD", []string{"HKD"})
		require.NoError(t, err)
		assert.Equal(t, "1.00000000", result.Rates["HKD"].StringFixed(8))
	})

	t.Run("Missing wanted currencies are reported, not errors", func(t *testing.T) {
		rates := entity.RateSet{"HKD": d("7.8"), "USD": d("1"), "EUR": d("0")}

		result, err := adjuster.Adjust(rates, "HKD", []string{"USD", "EUR", "DKK"})
		require.NoError(t, err)

		assert.False(t, result.Complete())
		assert.Equal(t, []string{"EUR", "DKK"}, result.Missing)
		assert.Len(t, result.Rates, 1)
	})

	t.Run("Missing base rate", func(t *testing.T) {
		_, err := adjuster.Adjust(entity.RateSet{"USD": d("1")}, "HKD", []string{"USD"})
		assert.True(t, errors.Is(err, apperrors.ErrMissingBaseRate))

		_, err = adjuster.Adjust(entity.RateSet{"HKD": d("0"), "USD": d("1")}, "HKD", []string{"USD"})
		assert.True(t, errors.Is(err, apperrors.ErrMissingBaseRate))
	})

	t.Run("Precision is explicit", func(t *testing.T) {
		coarse := NewRateAdjuster(Precision{DivisionScale: 28, Places: 2})
		result, err := coarse.Adjust(entity.RateSet{"HKD": d("7.8"), "USD": d("1")}, "HKD", []string{"USD"})
		require.NoError(t, err)
		assert.Equal(t, "0.13", result.Rates["USD"].String())
		assert.Equal(t, DefaultPrecision, adjuster.Precision())
	})
}
