package core

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	DefaultSerialPrefix = "BILL"
	serialDigits        = 6
)

// FormatSerial renders a counter value as PREFIX-000123.
func FormatSerial(prefix string, n int64) string {
	return fmt.Sprintf("%s-%0*d", prefix, serialDigits, n)
}

// ParseSerial splits a serial number into its prefix and counter value.
func ParseSerial(s string) (string, int64, error) {
	i := strings.LastIndexByte(s, '-')
	if i <= 0 || i == len(s)-1 {
		return "", 0, fmt.Errorf("malformed serial number %q", s)
	}
	n, err := strconv.ParseInt(s[i+1:], 10, 64)
	if err != nil || n < 1 {
		return "", 0, fmt.Errorf("malformed serial number %q", s)
	}
	return s[:i], n, nil
}
