package main

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// piExprRegex matches expressions like: pi, 2pi, 2*pi, pi/2, 3pi/4, 3*pi/4, -pi, -pi/2, -3*pi/4
var piExprRegex = regexp.MustCompile(`^(-?)(\d*\.?\d*)\s*\*?\s*pi(?:\s*/\s*(\d+\.?\d*))?$`)

// parseParamExpr parses a single parameter expression, supporting plain numbers and pi expressions.
// Returns the parsed float64 value and true on success, or 0 and false on failure.
//
// Supported formats:
//   - Plain numbers: "1.5707", "3.14", "-0.5"
//   - Pi constant: "pi"
//   - Pi fractions: "pi/2", "pi/4", "pi/3"
//   - Coefficients: "2pi", "2*pi", "3pi/4", "3*pi/4"
//   - Negative: "-pi", "-pi/2", "-3*pi/4"
func parseParamExpr(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	// Try plain number first
	if val, err := strconv.ParseFloat(s, 64); err == nil {
		return val, true
	}

	// Try pi expression
	s = strings.ToLower(s)
	if matches := piExprRegex.FindStringSubmatch(s); matches != nil {
		negative := matches[1] == "-"
		coeffStr := matches[2]
		denomStr := matches[3]

		coeff := 1.0
		if coeffStr != "" {
			var err error
			coeff, err = strconv.ParseFloat(coeffStr, 64)
			if err != nil {
				return 0, false
			}
		}

		result := coeff * math.Pi

		if denomStr != "" {
			denom, err := strconv.ParseFloat(denomStr, 64)
			if err != nil || denom == 0 {
				return 0, false
			}
			result /= denom
		}

		if negative {
			result = -result
		}
		return result, true
	}

	return 0, false
}

// formatParam formats a float64 parameter value, using pi notation when possible.
// Recognizes the binary fractions the Fourier arithmetic emits (pi, pi/2,
// pi/4, ..., pi/2^62), their negatives, and a few other common multiples.
func formatParam(val float64) string {
	if val == 0 {
		return "0"
	}
	sign := ""
	abs := val
	if val < 0 {
		sign = "-"
		abs = -val
	}

	// Binary fractions first: these are the only angles phase arithmetic uses.
	for k := 0; k < 63; k++ {
		frac := math.Pi / float64(uint64(1)<<k)
		if math.Abs(abs-frac) <= 1e-12*frac {
			if k == 0 {
				return sign + "pi"
			}
			return fmt.Sprintf("%spi/%d", sign, uint64(1)<<k)
		}
	}

	type piForm struct {
		value   float64
		display string
	}
	piForms := []piForm{
		{2 * math.Pi, "2*pi"},
		{math.Pi / 3, "pi/3"},
		{math.Pi / 6, "pi/6"},
		{3 * math.Pi / 4, "3*pi/4"},
		{3 * math.Pi / 2, "3*pi/2"},
		{2 * math.Pi / 3, "2*pi/3"},
	}
	for _, pf := range piForms {
		if math.Abs(abs-pf.value) < 1e-10 {
			return sign + pf.display
		}
	}

	return fmt.Sprintf("%g", val)
}
