package asset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	a, err := Parse("100.00 HVOICE")
	require.NoError(t, err)
	assert.Equal(t, int64(10000), a.Value)
	assert.Equal(t, Symbol{Code: "HVOICE", Precision: 2}, a.Symbol)

	a, err = Parse("-1.00 HVOICE")
	require.NoError(t, err)
	assert.Equal(t, int64(-100), a.Value)

	a, err = Parse("42 SEEDS")
	require.NoError(t, err)
	assert.Equal(t, int64(42), a.Value)
	assert.Equal(t, uint8(0), a.Symbol.Precision)

	a, err = Parse("0.0050 TEST")
	require.NoError(t, err)
	assert.Equal(t, int64(50), a.Value)
	assert.Equal(t, uint8(4), a.Symbol.Precision)
}

func TestParseRejectsMalformed(t *testing.T) {
	for _, s := range []string{
		"100.00",        // no symbol
		"abc HVOICE",    // non-numeric
		"1.0x HVOICE",   // non-numeric fraction
		"100.00 hvoice", // lowercase code
		"100.00 TOOLONGSYM",
		". HVOICE",
		"",
	} {
		_, err := Parse(s)
		assert.ErrorIs(t, err, ErrMalformedAmount, "input %q", s)
	}
}

func TestFormatRoundTrip(t *testing.T) {
	for _, s := range []string{
		"100.00 HVOICE",
		"0.00 HVOICE",
		"-1.00 HVOICE",
		"0.01 HVOICE",
		"31501.00 HVOICE",
		"42 SEEDS",
	} {
		assert.Equal(t, s, MustParse(s).String())
	}
}

func TestAddSub(t *testing.T) {
	a := MustParse("100.00 HVOICE")
	b := MustParse("60.00 HVOICE")

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.Equal(t, "160.00 HVOICE", sum.String())

	diff, err := a.Sub(b)
	require.NoError(t, err)
	assert.Equal(t, "40.00 HVOICE", diff.String())

	_, err = b.Sub(a)
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	clamped, err := b.SubClamped(a)
	require.NoError(t, err)
	assert.True(t, clamped.IsZero())
}

func TestMismatchedAssets(t *testing.T) {
	a := MustParse("1.00 HVOICE")
	b := MustParse("1.0 HVOICE") // same code, different precision
	c := MustParse("1.00 SEEDS")

	_, err := a.Add(b)
	assert.ErrorIs(t, err, ErrMismatchedAsset)
	_, err = a.Sub(c)
	assert.ErrorIs(t, err, ErrMismatchedAsset)
	_, err = a.Cmp(b)
	assert.ErrorIs(t, err, ErrMismatchedAsset)
}

func TestScaleFloors(t *testing.T) {
	a := MustParse("0.99 HVOICE")
	// Half of 99 minor units floors to 49, never rounds up.
	assert.Equal(t, int64(49), a.Scale(1, 2).Value)
	assert.Equal(t, int64(33), a.Scale(1, 3).Value)
	assert.Equal(t, int64(99), a.Scale(1, 1).Value)
}

func TestParseSymbol(t *testing.T) {
	sym, err := ParseSymbol("2,HVOICE")
	require.NoError(t, err)
	assert.Equal(t, Symbol{Code: "HVOICE", Precision: 2}, sym)
	assert.Equal(t, int64(100), sym.Unit())

	_, err = ParseSymbol("HVOICE")
	assert.ErrorIs(t, err, ErrMalformedAmount)
	_, err = ParseSymbol("99,HVOICE")
	assert.ErrorIs(t, err, ErrMalformedAmount)
	_, err = ParseSymbol("2,hvoice")
	assert.ErrorIs(t, err, ErrMalformedAmount)
}
