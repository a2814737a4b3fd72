package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromString(t *testing.T) {
	a, err := FromString("1234.50")
	require.NoError(t, err)
	assert.Equal(t, Amount(123450), a)

	a, err = FromString("0.01")
	require.NoError(t, err)
	assert.Equal(t, Amount(1), a)

	a, err = FromString("-200")
	require.NoError(t, err)
	assert.Equal(t, Amount(-20000), a)

	_, err = FromString("not-a-number")
	assert.Error(t, err)
}

func TestStringRoundTrip(t *testing.T) {
	assert.Equal(t, "1234.50", Amount(123450).String())
	assert.Equal(t, "0.00", Amount(0).String())
	assert.Equal(t, "-2.00", Amount(-200).String())
}

func TestLine(t *testing.T) {
	// 125.00 x 4
	assert.Equal(t, Amount(50000), Line(Amount(12500), 4))
	assert.Equal(t, Amount(0), Line(Amount(12500), 0))
}

func TestApplyPercent(t *testing.T) {
	// 5% of 1000.00
	got := ApplyPercent(Amount(100000), decimal.NewFromInt(5))
	assert.Equal(t, Amount(5000), got)

	// 7.5% of 99.99 = 7.49925 -> 7.50 after rounding
	rate, err := decimal.NewFromString("7.5")
	require.NoError(t, err)
	got = ApplyPercent(Amount(9999), rate)
	assert.Equal(t, Amount(750), got)

	// zero rate
	assert.Equal(t, Amount(0), ApplyPercent(Amount(9999), decimal.Zero))
}
