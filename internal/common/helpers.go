package common

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	SUIDecimals = 9 // SUI has 9 decimals (MIST)
)

// FormatUnits converts a raw on-chain amount (decimal string, as returned by
// the fullnode) to a display string with the given number of decimals.
func FormatUnits(raw string, decimals int) (string, error) {
	value, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return "", fmt.Errorf("invalid amount '%s': %w", raw, err)
	}
	if decimals <= 0 {
		return strconv.FormatUint(value, 10), nil
	}
	return formatWithDecimals(value, decimals), nil
}

// formatWithDecimals converts integer to decimal string by inserting decimal point
// Example: formatWithDecimals(24981836, 9) = "0.024981836"
func formatWithDecimals(value uint64, decimals int) string {
	s := strconv.FormatUint(value, 10)

	// Pad with leading zeros if needed
	if len(s) <= decimals {
		s = strings.Repeat("0", decimals-len(s)+1) + s
	}

	// Insert decimal point
	pos := len(s) - decimals
	return s[:pos] + "." + s[pos:]
}
