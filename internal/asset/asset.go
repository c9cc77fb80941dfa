// Package asset implements fixed-point token amounts. Quantities are kept as
// scaled integers (minor units) tagged with a symbol and a precision, so
// arithmetic stays exact under repeated decay. Floating point never appears.
package asset

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// MaxPrecision bounds the number of fractional digits a symbol may declare.
const MaxPrecision = 18

var (
	ErrMismatchedAsset     = errors.New("symbol precision mismatch")
	ErrInsufficientBalance = errors.New("overdrawn balance")
	ErrMalformedAmount     = errors.New("malformed amount")
)

// Symbol is a token code plus its fixed precision. Two amounts are only
// combinable when their symbols are identical, precision included.
type Symbol struct {
	Code      string
	Precision uint8
}

// ParseSymbol parses the "<precision>,<CODE>" form, e.g. "2,HVOICE".
func ParseSymbol(s string) (Symbol, error) {
	comma := strings.IndexByte(s, ',')
	if comma < 0 {
		return Symbol{}, fmt.Errorf("%w: symbol %q missing precision", ErrMalformedAmount, s)
	}
	prec, err := strconv.ParseUint(s[:comma], 10, 8)
	if err != nil || prec > MaxPrecision {
		return Symbol{}, fmt.Errorf("%w: invalid precision in symbol %q", ErrMalformedAmount, s)
	}
	code := s[comma+1:]
	if !validCode(code) {
		return Symbol{}, fmt.Errorf("%w: invalid symbol code %q", ErrMalformedAmount, code)
	}
	return Symbol{Code: code, Precision: uint8(prec)}, nil
}

func validCode(code string) bool {
	if len(code) == 0 || len(code) > 7 {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < 'A' || code[i] > 'Z' {
			return false
		}
	}
	return true
}

// Valid reports whether the symbol has a well-formed code and precision.
func (s Symbol) Valid() bool {
	return validCode(s.Code) && s.Precision <= MaxPrecision
}

func (s Symbol) String() string {
	return fmt.Sprintf("%d,%s", s.Precision, s.Code)
}

// Unit returns one whole display unit expressed in minor units (10^precision).
func (s Symbol) Unit() int64 {
	return pow10(s.Precision)
}

// Amount is a quantity of a single asset in minor units. A balance of
// "100.00 HVOICE" is Amount{Value: 10000, Symbol: {HVOICE, 2}}.
type Amount struct {
	Value  int64
	Symbol Symbol
}

// New builds an amount from minor units.
func New(value int64, sym Symbol) Amount {
	return Amount{Value: value, Symbol: sym}
}

func (a Amount) IsZero() bool     { return a.Value == 0 }
func (a Amount) IsPositive() bool { return a.Value > 0 }
func (a Amount) IsNegative() bool { return a.Value < 0 }

func (a Amount) sameAsset(b Amount) error {
	if a.Symbol != b.Symbol {
		return fmt.Errorf("%w: %s vs %s", ErrMismatchedAsset, a.Symbol, b.Symbol)
	}
	return nil
}

// Add returns a+b, failing when the assets differ.
func (a Amount) Add(b Amount) (Amount, error) {
	if err := a.sameAsset(b); err != nil {
		return Amount{}, err
	}
	a.Value += b.Value
	return a, nil
}

// Sub returns a-b, failing when the assets differ or the result would be
// negative. Decay and reset paths use SubClamped instead.
func (a Amount) Sub(b Amount) (Amount, error) {
	if err := a.sameAsset(b); err != nil {
		return Amount{}, err
	}
	if a.Value < b.Value {
		return Amount{}, ErrInsufficientBalance
	}
	a.Value -= b.Value
	return a, nil
}

// SubClamped returns a-b clamped at zero.
func (a Amount) SubClamped(b Amount) (Amount, error) {
	if err := a.sameAsset(b); err != nil {
		return Amount{}, err
	}
	a.Value -= b.Value
	if a.Value < 0 {
		a.Value = 0
	}
	return a, nil
}

// Scale multiplies by num/den rounding toward negative infinity. Supply
// arithmetic must never round up, so fractional remainders are dropped.
func (a Amount) Scale(num, den int64) Amount {
	a.Value = floorDiv(a.Value*num, den)
	return a
}

// Cmp returns -1, 0 or 1. Comparing different assets is a programming error
// surfaced as ErrMismatchedAsset.
func (a Amount) Cmp(b Amount) (int, error) {
	if err := a.sameAsset(b); err != nil {
		return 0, err
	}
	switch {
	case a.Value < b.Value:
		return -1, nil
	case a.Value > b.Value:
		return 1, nil
	}
	return 0, nil
}

// Parse reads the canonical "<integer>.<fraction> <CODE>" form. The number of
// fractional digits written fixes the precision, so "100.00 HVOICE" and
// "100.0 HVOICE" are different assets.
func Parse(s string) (Amount, error) {
	space := strings.LastIndexByte(s, ' ')
	if space < 0 {
		return Amount{}, fmt.Errorf("%w: %q missing symbol", ErrMalformedAmount, s)
	}
	num, code := s[:space], s[space+1:]
	if !validCode(code) {
		return Amount{}, fmt.Errorf("%w: invalid symbol code %q", ErrMalformedAmount, code)
	}

	neg := false
	if strings.HasPrefix(num, "-") {
		neg = true
		num = num[1:]
	}

	intPart := num
	fracPart := ""
	if dot := strings.IndexByte(num, '.'); dot >= 0 {
		intPart, fracPart = num[:dot], num[dot+1:]
	}
	if intPart == "" || !digitsOnly(intPart) || (fracPart != "" && !digitsOnly(fracPart)) {
		return Amount{}, fmt.Errorf("%w: non-numeric value in %q", ErrMalformedAmount, s)
	}
	if len(fracPart) > MaxPrecision {
		return Amount{}, fmt.Errorf("%w: precision of %q exceeds %d", ErrMalformedAmount, s, MaxPrecision)
	}

	whole, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return Amount{}, fmt.Errorf("%w: %q", ErrMalformedAmount, s)
	}
	prec := uint8(len(fracPart))
	value := whole * pow10(prec)
	if fracPart != "" {
		frac, err := strconv.ParseInt(fracPart, 10, 64)
		if err != nil {
			return Amount{}, fmt.Errorf("%w: %q", ErrMalformedAmount, s)
		}
		value += frac
	}
	if neg {
		value = -value
	}
	return Amount{Value: value, Symbol: Symbol{Code: code, Precision: prec}}, nil
}

// MustParse is Parse for test fixtures and constants; it panics on error.
func MustParse(s string) Amount {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

// String renders the canonical form, e.g. "260.00 HVOICE" or "-1.00 HVOICE".
func (a Amount) String() string {
	unit := a.Symbol.Unit()
	v := a.Value
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	if a.Symbol.Precision == 0 {
		return fmt.Sprintf("%s%d %s", sign, v, a.Symbol.Code)
	}
	return fmt.Sprintf("%s%d.%0*d %s", sign, v/unit, a.Symbol.Precision, v%unit, a.Symbol.Code)
}

func digitsOnly(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func pow10(n uint8) int64 {
	p := int64(1)
	for ; n > 0; n-- {
		p *= 10
	}
	return p
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
