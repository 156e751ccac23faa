package utils

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrEmptyNumber = errors.New("empty number")

// numberPattern is the whole accepted shape once a unit suffix is removed:
// sign, digit groups joined by single separators, optional exponent
var numberPattern = regexp.MustCompile(`^([+-]?[0-9]+(?:[.,][0-9]+)*)(?:[eE]([+-]?[0-9]+))?$`)

// thousandsDot is a lone dot followed by one three digit group ("1.300")
var thousandsDot = regexp.MustCompile(`^[+-]?[1-9][0-9]{0,2}\.[0-9]{3}$`)

// unitSuffixes may trail a number on labels and sheets ("12,4 kg")
var unitSuffixes = []string{"kg/m", "kg", "mm", "pcs", "pc", "un"}

// ParseDecimal parses plant-formatted numbers.
// Accepts "1234.5", "1234,5", "1.234,56", "1,234.56", "12 kg", "1.2e3" and similar.
// When both separators appear, the last one is the decimal separator.
// A lone separator is a decimal separator; repeated separators of one kind are
// thousands and every group after the first must have three digits.
// Anything else (letters, stray signs, broken grouping) is an error.
func ParseDecimal(s string) (decimal.Decimal, error) {
	mantissa, exp, err := splitNumber(s)
	if err != nil {
		return decimal.Zero, err
	}
	return toDecimal(s, mantissa, exp, false)
}

// ParseFloat is ParseDecimal converted to float64
func ParseFloat(s string) (float64, error) {
	d, err := ParseDecimal(s)
	if err != nil {
		return 0, err
	}
	f, _ := d.Float64()
	return f, nil
}

// ParseInt parses a whole number. A lone dot followed by three digits is a
// thousands separator ("1.300" -> 1300); a zero fraction is accepted
// ("1001.0" -> 1001); any other fraction is an error.
func ParseInt(s string) (int64, error) {
	mantissa, exp, err := splitNumber(s)
	if err != nil {
		return 0, err
	}
	d, err := toDecimal(s, mantissa, exp, exp == "" && thousandsDot.MatchString(mantissa))
	if err != nil {
		return 0, err
	}
	if !d.Equal(d.Truncate(0)) {
		return 0, fmt.Errorf("%q is not a whole number", strings.TrimSpace(s))
	}
	return d.IntPart(), nil
}

// splitNumber trims, drops a unit suffix and validates the shape
func splitNumber(s string) (mantissa, exp string, err error) {
	clean := strings.TrimSpace(s)
	if clean == "" {
		return "", "", ErrEmptyNumber
	}
	for _, unit := range unitSuffixes {
		if n := len(clean) - len(unit); n > 0 && strings.EqualFold(clean[n:], unit) {
			clean = strings.TrimSpace(clean[:n])
			break
		}
	}

	m := numberPattern.FindStringSubmatch(clean)
	if m == nil {
		return "", "", fmt.Errorf("%q is not a number", strings.TrimSpace(s))
	}
	return m[1], m[2], nil
}

func toDecimal(orig, mantissa, exp string, loneDotIsThousands bool) (decimal.Decimal, error) {
	normalized, err := normalizeSeparators(mantissa, loneDotIsThousands)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%q: %w", strings.TrimSpace(orig), err)
	}
	if exp != "" {
		normalized += "e" + exp
	}
	return decimal.NewFromString(normalized)
}

// normalizeSeparators rewrites mantissa to plain dot-decimal form
func normalizeSeparators(m string, loneDotIsThousands bool) (string, error) {
	dots := strings.Count(m, ".")
	commas := strings.Count(m, ",")

	switch {
	case dots > 0 && commas > 0:
		decimalSep, groupSep := ",", "."
		if strings.LastIndex(m, ".") > strings.LastIndex(m, ",") {
			decimalSep, groupSep = ".", ","
		}
		if strings.Count(m, decimalSep) > 1 {
			return "", errors.New("mixed separators")
		}
		i := strings.LastIndex(m, decimalSep)
		intPart, frac := m[:i], m[i+1:]
		if err := checkGroups(intPart, groupSep); err != nil {
			return "", err
		}
		return strings.ReplaceAll(intPart, groupSep, "") + "." + frac, nil

	case commas > 1:
		if err := checkGroups(m, ","); err != nil {
			return "", err
		}
		return strings.ReplaceAll(m, ",", ""), nil

	case dots > 1 || (dots == 1 && loneDotIsThousands):
		if err := checkGroups(m, "."); err != nil {
			return "", err
		}
		return strings.ReplaceAll(m, ".", ""), nil

	case commas == 1:
		return strings.Replace(m, ",", ".", 1), nil
	}
	return m, nil
}

// checkGroups requires 1-3 leading digits and three digit groups after each sep
func checkGroups(s, sep string) error {
	parts := strings.Split(strings.TrimLeft(s, "+-"), sep)
	if len(parts[0]) == 0 || len(parts[0]) > 3 {
		return errors.New("bad digit grouping")
	}
	for _, p := range parts[1:] {
		if len(p) != 3 {
			return errors.New("bad digit grouping")
		}
	}
	return nil
}
