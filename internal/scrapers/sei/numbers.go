package sei

import (
	"regexp"
	"strconv"
	"strings"
)

// separator matches a single whitespace rune, including the no-break spaces the portal renders
// for &nbsp;. RE2's \s only covers ASCII.
const separator = `[\s\p{Z}\x{FEFF}]`

var (
	intPrefix   = regexp.MustCompile(`^[+-]?\d+`)
	floatPrefix = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)
)

// leadingInt parses the integer the text starts with, ignoring whatever follows it.
// "8,5" gives 8 and text that does not start with a number gives 0.
func leadingInt(text string) int {
	digits := intPrefix.FindString(strings.TrimSpace(text))
	if digits == "" {
		return 0
	}
	value, err := strconv.Atoi(digits)
	if err != nil {
		return 0
	}
	return value
}

// leadingFloat is leadingInt for decimals with a dot separator.
func leadingFloat(text string) float64 {
	number := floatPrefix.FindString(strings.TrimSpace(text))
	if number == "" {
		return 0
	}
	value, err := strconv.ParseFloat(number, 64)
	if err != nil {
		return 0
	}
	return value
}
