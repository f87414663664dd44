package core

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestParseMoney(t *testing.T) {
	cases := []struct {
		in       string
		negative bool
		out      int64
		ok       bool
	}{
		{"1", false, 100, true},
		{"1.0", false, 100, true},
		{"1.23", false, 123, true},
		{"1,23", false, 0, false},
		{"1,500", false, 0, false},
		{"1,500.00", true, 0, false},
		{"0", false, 0, true},
		{"0.01", false, 1, true},
		{"1.005", false, 101, true},
		{" 2.50 ", false, 250, true},
		{"-1", false, 0, false},
		{"-1.5", true, -150, true},
		{"abc", false, 0, false},
		{"1.2.3", false, 0, false},
		{"", false, 0, false},
		{"99999999999999999999999", false, 0, false},
		{"10000000000000", false, MaxAmountCents, true},
		{"10000000000000.01", false, 0, false},
		{"-10000000000000.01", true, 0, false},
	}
	for _, tc := range cases {
		got, err := ParseMoney(tc.in, tc.negative)
		if !tc.ok {
			require.ErrorIs(t, err, ErrInvalidNumber, "input %q", tc.in)
			continue
		}
		require.NoError(t, err, "input %q", tc.in)
		require.Equal(t, tc.out, got.Cents, "input %q", tc.in)
	}
}

func TestMoneyJSON(t *testing.T) {
	b, err := json.Marshal(struct {
		A Money `json:"a"`
		B Money `json:"b"`
	}{Money{Cents: 1250}, Money{Cents: -5}})
	require.NoError(t, err)
	require.JSONEq(t, `{"a":12.50,"b":-0.05}`, string(b))

	var v struct {
		A Money `json:"a"`
		B Money `json:"b"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"3.10","b":7}`), &v))
	require.Equal(t, int64(310), v.A.Cents)
	require.Equal(t, int64(700), v.B.Cents)
}

func TestMoneyString(t *testing.T) {
	require.Equal(t, "1.99", Money{Cents: 199}.String())
	require.Equal(t, "-0.05", Money{Cents: -5}.String())
	require.Equal(t, "100.00", Money{Cents: 10000}.String())
}

func TestMoneyFromTotalSaturates(t *testing.T) {
	huge := Money{Cents: MaxAmountCents}.Decimal().Mul(decimal.NewFromInt(100000))
	require.Equal(t, int64(math.MaxInt64), moneyFromTotal(huge).Cents)
	require.Equal(t, int64(math.MinInt64), moneyFromTotal(huge.Neg()).Cents)
	require.Equal(t, int64(250), moneyFromTotal(decimal.RequireFromString("2.5")).Cents)
}
