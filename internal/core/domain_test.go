package core

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParsePaymentStatus(t *testing.T) {
	for in, want := range map[string]PaymentStatus{
		"PAID": PaymentPaid, "paid": PaymentPaid, "not_paid": PaymentNotPaid, "Not  Paid": PaymentNotPaid,
	} {
		got, err := ParsePaymentStatus(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got)
	}
	_, err := ParsePaymentStatus("pending")
	require.ErrorIs(t, err, ErrInvalidPaymentStatus)
}
