package core

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSerialRoundTrip(t *testing.T) {
	s := FormatSerial("BILL", 123)
	require.Equal(t, "BILL-000123", s)
	prefix, n, err := ParseSerial(s)
	require.NoError(t, err)
	require.Equal(t, "BILL", prefix)
	require.Equal(t, int64(123), n)

	_, _, err = ParseSerial("BILL-")
	require.Error(t, err)
	_, _, err = ParseSerial("20250101001")
	require.Error(t, err)
	_, _, err = ParseSerial("BILL-000000")
	require.Error(t, err)

	prefix, n, err = ParseSerial("MY-BILL-000042")
	require.NoError(t, err)
	require.Equal(t, "MY-BILL", prefix)
	require.Equal(t, int64(42), n)
}
