package utils

import (
	"strconv"
	"strings"
)

// ParseInt converts string to int with default value
func ParseInt(value string, defaultValue int) int {
	if value == "" {
		return defaultValue
	}

	result, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return result
}

// ParseBool accepts the usual query flag spellings ("1", "true", "yes", "on")
func ParseBool(value string, defaultValue bool) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "":
		return defaultValue
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return defaultValue
	}
}

// FormatAmount renders a money value without trailing zeros, e.g. 10 -> "10", 12.5 -> "12.5"
func FormatAmount(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}
