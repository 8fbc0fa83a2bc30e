package money

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"12.50", 1250, false},
		{"12.5", 1250, false},
		{"100", 10000, false},
		{"-3.01", -301, false},
		{"0.001", 0, true},
		{"abc", 0, true},
		{"", 0, true},
		{"10000000000000.00", MaxMinor, false},
		{"-10000000000000.00", -MaxMinor, false},
		{"10000000000000.01", 0, true},
		{"100000000000000000000.00", 0, true},
		{"1e30", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			m, err := Parse(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidAmount)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, m.Minor())
		})
	}
}

func TestFromFloat(t *testing.T) {
	m, err := FromFloat(0.1 + 0.2)
	require.NoError(t, err)
	assert.Equal(t, "0.30", m.String())

	_, err = FromFloat(1.005)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = FromFloat(math.NaN())
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = FromFloat(math.Inf(1))
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = FromFloat(1e20)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestSplit(t *testing.T) {
	tests := []struct {
		amount    string
		n         int
		share     string
		remainder string
	}{
		{"100", 3, "33.33", "0.01"},
		{"100", 2, "50.00", "0.00"},
		{"0.05", 3, "0.01", "0.02"},
		{"10", 7, "1.42", "0.06"},
	}

	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			share, rem, err := MustParse(tt.amount).Split(tt.n)
			require.NoError(t, err)
			assert.Equal(t, tt.share, share.String())
			assert.Equal(t, tt.remainder, rem.String())
			assert.True(t, share.MulInt(tt.n).Add(rem).Equal(MustParse(tt.amount)))
		})
	}

	_, _, err := MustParse("1").Split(0)
	assert.Error(t, err)
}

func TestArithmetic(t *testing.T) {
	a := MustParse("10.25")
	b := MustParse("0.75")

	assert.Equal(t, "11.00", a.Add(b).String())
	assert.Equal(t, "9.50", a.Sub(b).String())
	assert.Equal(t, "-10.25", a.Neg().String())
	assert.Equal(t, 1, a.Cmp(b))
	assert.Equal(t, "0.75", Min(a, b).String())
	assert.Equal(t, "11.00", Sum(a, b).String())
	assert.True(t, Sum().IsZero())
	assert.True(t, Zero.Equal(FromMinor(0)))
}

func TestSnap(t *testing.T) {
	assert.True(t, Snap(FromMinor(0)).IsZero())
	assert.False(t, Snap(FromMinor(1)).IsZero())
	assert.True(t, Snap(Money{d: Epsilon.Neg().Shift(-1)}).IsZero())
	assert.False(t, Money{d: Epsilon}.NearZero())
}

func TestJSON(t *testing.T) {
	b, err := json.Marshal(MustParse("7.5"))
	require.NoError(t, err)
	assert.Equal(t, `"7.50"`, string(b))

	var fromString, fromNumber Money
	require.NoError(t, json.Unmarshal([]byte(`"19.99"`), &fromString))
	require.NoError(t, json.Unmarshal([]byte(`19.99`), &fromNumber))
	assert.True(t, fromString.Equal(fromNumber))

	var bad Money
	assert.ErrorIs(t, json.Unmarshal([]byte(`"1.999"`), &bad), ErrInvalidAmount)
	assert.ErrorIs(t, json.Unmarshal([]byte(`100000000000000000000`), &bad), ErrInvalidAmount)
}

func TestValueScan(t *testing.T) {
	v, err := MustParse("42.42").Value()
	require.NoError(t, err)
	assert.Equal(t, int64(4242), v)

	// Arithmetic can leave the range; storing the result must fail, not wrap.
	over := Max.Add(MustParse("0.01"))
	assert.False(t, over.InRange())
	_, err = over.Value()
	assert.ErrorIs(t, err, ErrInvalidAmount)

	v, err = Max.Neg().Value()
	require.NoError(t, err)
	assert.Equal(t, -MaxMinor, v)

	var m Money
	require.NoError(t, m.Scan(int64(-199)))
	assert.Equal(t, "-1.99", m.String())
	assert.Error(t, m.Scan("x"))
}
