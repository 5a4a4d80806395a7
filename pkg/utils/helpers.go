package utils

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ParseDuration safely parses duration string like "5m"
func ParseDuration(d string) time.Duration {
	if d == "" {
		return 5 * time.Minute
	}
	duration, err := time.ParseDuration(d)
	if err != nil {
		return 5 * time.Minute
	}
	return duration
}

// CleanHeader trims whitespace and removes all quotes from a header cell.
func CleanHeader(h string) string {
	h = strings.TrimSpace(h)
	h = strings.TrimPrefix(h, "\ufeff") // byte order mark
	return strings.ReplaceAll(h, `"`, "")
}

// ParseCell reports whether a string cell holds a value. Only an empty cell
// is absent; whitespace is kept, so " Sales " and "Sales" differ.
func ParseCell(s string) (string, bool) {
	return s, s != ""
}

// ParseDecimal parses a numeric cell. Surrounding whitespace and a single
// leading '+' are accepted; anything else non-numeric is an error. A blank
// cell parses to an invalid NullDecimal.
func ParseDecimal(s string) (decimal.NullDecimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(strings.TrimPrefix(s, "+"))
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(d), nil
}
