package pricing

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func requireMoney(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.Truef(t, dec(want).Equal(got), "expected %s got %s", want, got.StringFixed(2))
}

func TestLineTotal(t *testing.T) {
	cases := []struct {
		name     string
		price    string
		qty      int
		discount string
		want     string
	}{
		{name: "no discount", price: "10.00", qty: 2, discount: "0", want: "20.00"},
		{name: "ten percent", price: "5.00", qty: 1, discount: "10", want: "4.50"},
		{name: "full discount", price: "7.25", qty: 3, discount: "100", want: "0"},
		{name: "half cent rounds away from zero", price: "1.00", qty: 1, discount: "0.5", want: "1.00"},
		{name: "fractional percent", price: "3.33", qty: 3, discount: "12.5", want: "8.74"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := LineTotal(dec(tc.price), tc.qty, dec(tc.discount))
			require.NoError(t, err)
			requireMoney(t, tc.want, got)
		})
	}
}

func TestLineTotalRejectsBadInput(t *testing.T) {
	_, err := LineTotal(dec("1"), 0, decimal.Zero)
	require.True(t, errors.Is(err, ErrInvalidQuantity))

	_, err = LineTotal(dec("1"), -3, decimal.Zero)
	require.True(t, errors.Is(err, ErrInvalidQuantity))

	_, err = LineTotal(dec("1"), 1, dec("-0.01"))
	require.True(t, errors.Is(err, ErrInvalidDiscount))

	_, err = LineTotal(dec("1"), 1, dec("100.01"))
	require.True(t, errors.Is(err, ErrInvalidDiscount))
}

func TestTotalsWorkedExample(t *testing.T) {
	engine := NewEngine(dec("0.10"))
	totals, err := engine.Totals([]Line{
		{UnitPrice: dec("10.00"), Quantity: 2, DiscountPercent: decimal.Zero},
		{UnitPrice: dec("5.00"), Quantity: 1, DiscountPercent: dec("10")},
	})
	require.NoError(t, err)
	requireMoney(t, "24.50", totals.Subtotal)
	requireMoney(t, "2.45", totals.Tax)
	requireMoney(t, "26.95", totals.GrandTotal)
	requireMoney(t, "0.50", totals.Discount)
}

func TestTotalsRoundsEachLineBeforeSumming(t *testing.T) {
	// each line is 0.995 before rounding; summing first would give 2.99
	line := Line{UnitPrice: dec("1.00"), Quantity: 1, DiscountPercent: dec("0.5")}
	totals, err := NewEngine(dec("0.10")).Totals([]Line{line, line, line})
	require.NoError(t, err)
	requireMoney(t, "3.00", totals.Subtotal)
	requireMoney(t, "0.30", totals.Tax)
	requireMoney(t, "3.30", totals.GrandTotal)
}

func TestTotalsRoundsTax(t *testing.T) {
	totals, err := NewEngine(dec("0.10")).Totals([]Line{
		{UnitPrice: dec("0.25"), Quantity: 1, DiscountPercent: decimal.Zero},
	})
	require.NoError(t, err)
	requireMoney(t, "0.03", totals.Tax)
	requireMoney(t, "0.28", totals.GrandTotal)
}

func TestTotalsInvariantHolds(t *testing.T) {
	engine := NewEngine(dec("0.0825"))
	lines := []Line{
		{UnitPrice: dec("12.99"), Quantity: 3, DiscountPercent: dec("15")},
		{UnitPrice: dec("0.99"), Quantity: 7, DiscountPercent: dec("33.3")},
		{UnitPrice: dec("149.00"), Quantity: 1, DiscountPercent: dec("5")},
	}
	totals, err := engine.Totals(lines)
	require.NoError(t, err)

	sum := decimal.Zero
	for _, l := range lines {
		lt, err := LineTotal(l.UnitPrice, l.Quantity, l.DiscountPercent)
		require.NoError(t, err)
		sum = sum.Add(lt)
	}
	require.True(t, sum.Equal(totals.Subtotal))
	require.True(t, sum.Add(totals.Tax).Equal(totals.GrandTotal))
}

func TestTotalsEmptyAndInvalid(t *testing.T) {
	engine := NewEngine(DefaultTaxRate)
	totals, err := engine.Totals(nil)
	require.NoError(t, err)
	require.True(t, totals.GrandTotal.IsZero())

	_, err = engine.Totals([]Line{{UnitPrice: dec("1"), Quantity: 0}})
	require.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestClampDiscount(t *testing.T) {
	requireMoney(t, "0", ClampDiscount(dec("-5")))
	requireMoney(t, "100", ClampDiscount(dec("140")))
	requireMoney(t, "12.5", ClampDiscount(dec("12.5")))
}

func TestClampDiscountRoundsToStoredPrecision(t *testing.T) {
	cases := map[string]string{
		"12.345":  "12.35",
		"12.344":  "12.34",
		"99.999":  "100",
		"100.004": "100",
		"-0.004":  "0",
		"0.005":   "0.01",
	}
	for in, want := range cases {
		got := ClampDiscount(dec(in))
		require.Truef(t, dec(want).Equal(got), "clamp(%s): expected %s got %s", in, want, got)
		require.GreaterOrEqualf(t, got.Exponent(), int32(-2), "clamp(%s) kept %s", in, got)
	}

	total, err := LineTotal(dec("100.00"), 1, ClampDiscount(dec("12.345")))
	require.NoError(t, err)
	requireMoney(t, "87.65", total)
}

func TestNewEngineFallsBackOnNegativeRate(t *testing.T) {
	require.True(t, NewEngine(dec("-1")).TaxRate().Equal(DefaultTaxRate))
	require.True(t, NewEngine(decimal.Zero).TaxRate().IsZero())
	require.False(t, NewEngine(decimal.Zero).IsZero())
	require.True(t, Engine{}.IsZero())
}
