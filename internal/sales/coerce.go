package sales

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// numericPattern mirrors the salesops_coerce_int SQL function.
var numericPattern = regexp.MustCompile(`^[-+]?([0-9]+(\.[0-9]*)?|\.[0-9]+)([eE][-+]?[0-9]+)?$`)

// CoerceInt converts numeric-looking text to an integer, truncating any
// fraction. Anything else, including blanks, yields 0.
func CoerceInt(raw string) int64 {
	raw = strings.TrimSpace(raw)
	if raw == "" || !numericPattern.MatchString(raw) {
		return 0
	}
	if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return v
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) >= math.MaxInt64 {
		return 0
	}
	return int64(f)
}
