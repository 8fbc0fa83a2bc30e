// Package money provides the fixed-point amount type used by all balance math.
//
// Amounts carry exactly Scale fractional digits (minor units are cents). All
// arithmetic is exact; binary floating point only appears at the boundary in
// FromFloat, which rejects anything that is not within Epsilon of a
// representable amount.
package money

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// Scale is the number of fractional digits an amount may carry.
const Scale = 2

// MaxMinor bounds the magnitude of any stored amount, in minor units. It
// leaves room to add many maximal balances without leaving int64.
const MaxMinor int64 = 1_000_000_000_000_000

// ErrInvalidAmount is returned for non-finite, over-precise or out-of-range
// amounts.
var ErrInvalidAmount = errors.New("invalid amount")

// Max is the largest representable amount.
var Max = FromMinor(MaxMinor)

// Epsilon is the tolerance below which a magnitude is treated as zero.
var Epsilon = decimal.New(1, -5)

// Zero is the zero amount.
var Zero = Money{}

// Money is an exact monetary amount with Scale fractional digits.
// The zero value is a valid zero amount.
type Money struct {
	d decimal.Decimal
}

// New validates d and wraps it.
func New(d decimal.Decimal) (Money, error) {
	if !d.Equal(d.Truncate(Scale)) {
		return Zero, fmt.Errorf("%w: %s has more than %d decimal places", ErrInvalidAmount, d.String(), Scale)
	}
	m := Money{d: d}
	if !m.InRange() {
		return Zero, fmt.Errorf("%w: %s exceeds %s", ErrInvalidAmount, d.String(), Max)
	}
	return m, nil
}

// Parse reads a decimal string such as "12.50".
func Parse(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return New(d)
}

// MustParse is Parse for constants and tests.
func MustParse(s string) Money {
	m, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return m
}

// FromFloat converts a legacy floating point value. Values within Epsilon of a
// representable amount are snapped to it; anything else is rejected.
func FromFloat(f float64) (Money, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Zero, fmt.Errorf("%w: %v is not finite", ErrInvalidAmount, f)
	}
	d := decimal.NewFromFloat(f)
	rounded := d.Round(Scale)
	if d.Sub(rounded).Abs().GreaterThanOrEqual(Epsilon) {
		return Zero, fmt.Errorf("%w: %v has more than %d decimal places", ErrInvalidAmount, f, Scale)
	}
	m := Money{d: rounded}
	if !m.InRange() {
		return Zero, fmt.Errorf("%w: %v exceeds %s", ErrInvalidAmount, f, Max)
	}
	return m, nil
}

// FromMinor builds an amount from minor units (cents).
func FromMinor(units int64) Money {
	return Money{d: decimal.New(units, -Scale)}
}

// Minor returns the amount in minor units. Only meaningful when InRange.
func (m Money) Minor() int64 {
	return m.d.Shift(Scale).IntPart()
}

// InRange reports whether |m| is at most Max.
func (m Money) InRange() bool {
	return m.d.Abs().LessThanOrEqual(Max.d)
}

func (m Money) Add(o Money) Money { return Money{d: m.d.Add(o.d)} }
func (m Money) Sub(o Money) Money { return Money{d: m.d.Sub(o.d)} }
func (m Money) Neg() Money        { return Money{d: m.d.Neg()} }
func (m Money) Abs() Money        { return Money{d: m.d.Abs()} }

// MulInt multiplies by an integer factor.
func (m Money) MulInt(n int) Money {
	return Money{d: m.d.Mul(decimal.NewFromInt(int64(n)))}
}

// Cmp returns -1, 0 or +1.
func (m Money) Cmp(o Money) int { return m.d.Cmp(o.d) }

// Sign returns -1, 0 or +1.
func (m Money) Sign() int { return m.d.Sign() }

func (m Money) IsZero() bool     { return m.d.IsZero() }
func (m Money) IsPositive() bool { return m.d.IsPositive() }
func (m Money) IsNegative() bool { return m.d.IsNegative() }

// Equal reports exact equality.
func (m Money) Equal(o Money) bool { return m.d.Equal(o.d) }

// Min returns the smaller of a and b.
func Min(a, b Money) Money {
	if a.Cmp(b) <= 0 {
		return a
	}
	return b
}

// NearZero reports whether |m| is below Epsilon.
func (m Money) NearZero() bool {
	return m.d.Abs().LessThan(Epsilon)
}

// Snap returns Zero when m is within Epsilon of zero, m otherwise.
func Snap(m Money) Money {
	if m.NearZero() {
		return Zero
	}
	return m
}

// Split divides m into n equal shares truncated to Scale. The remainder is what
// is left after n shares and is always in [0, n) minor units for positive m.
func (m Money) Split(n int) (share, remainder Money, err error) {
	if n <= 0 {
		return Zero, Zero, fmt.Errorf("cannot split into %d parts", n)
	}
	q := m.d.Div(decimal.NewFromInt(int64(n))).Truncate(Scale)
	share = Money{d: q}
	remainder = m.Sub(share.MulInt(n))
	return share, remainder, nil
}

// Sum adds all amounts.
func Sum(amounts ...Money) Money {
	total := Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

// String formats with exactly Scale decimals.
func (m Money) String() string {
	return m.d.StringFixed(Scale)
}

// MarshalJSON encodes the amount as a fixed-point string.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON accepts both JSON strings and numbers.
func (m *Money) UnmarshalJSON(b []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(b); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, string(b))
	}
	v, err := New(d)
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Value stores the amount as minor units.
func (m Money) Value() (driver.Value, error) {
	if !m.InRange() {
		return nil, fmt.Errorf("%w: %s exceeds %s", ErrInvalidAmount, m, Max)
	}
	return m.Minor(), nil
}

// Scan reads minor units written by Value.
func (m *Money) Scan(src any) error {
	switch v := src.(type) {
	case int64:
		*m = FromMinor(v)
	case nil:
		*m = Zero
	default:
		return fmt.Errorf("money: cannot scan %T", src)
	}
	return nil
}
