package extract

import (
	"strconv"
	"strings"
)

// ParseNumber normalizes a locale-formatted amount ("1.234,56", "1,234.56",
// "1234.56", "$ 1 500", "(300,00)") and parses it. The second return is
// false when the text is not a number; callers leave the field unset.
//
// Separator rules: when both '.' and ',' appear, the last one is the decimal
// mark. A single separator kind repeated is digit grouping. A single
// separator followed by exactly three digits, with a non-zero integer part
// of one to three digits, is grouping ("1.500" is 1500); otherwise decimal.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.NewReplacer("$", "", "€", "", "\u00a0", "", " ", "").Replace(s)
	if s == "" {
		return 0, false
	}

	neg := false
	switch {
	case strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")"):
		neg = true
		s = s[1 : len(s)-1]
	case strings.HasPrefix(s, "-"):
		neg = true
		s = s[1:]
	case strings.HasSuffix(s, "-"):
		neg = true
		s = s[:len(s)-1]
	}
	s = strings.TrimPrefix(s, "+")
	if s == "" || !isDigit(s[0]) || !isDigit(s[len(s)-1]) {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) && s[i] != '.' && s[i] != ',' {
			return 0, false
		}
	}

	canonical, ok := canonicalNumber(s)
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseFloat(canonical, 64)
	if err != nil {
		return 0, false
	}
	if neg && v != 0 {
		v = -v
	}
	return v, true
}

// IsNumeric reports whether tok parses as an amount.
func IsNumeric(tok string) bool {
	_, ok := ParseNumber(tok)
	return ok
}

func canonicalNumber(s string) (string, bool) {
	dots := strings.Count(s, ".")
	commas := strings.Count(s, ",")

	switch {
	case dots == 0 && commas == 0:
		return s, true

	case dots > 0 && commas > 0:
		dec, group := ",", "."
		if strings.LastIndex(s, ".") > strings.LastIndex(s, ",") {
			dec, group = ".", ","
		}
		if strings.Count(s, dec) != 1 {
			return "", false
		}
		i := strings.LastIndex(s, dec)
		intPart, frac := s[:i], s[i+1:]
		if !validGrouping(intPart, group) {
			return "", false
		}
		return strings.ReplaceAll(intPart, group, "") + "." + frac, true
	}

	sep := "."
	if commas > 0 {
		sep = ","
	}
	if dots+commas > 1 {
		if !validGrouping(s, sep) {
			return "", false
		}
		return strings.ReplaceAll(s, sep, ""), true
	}

	i := strings.Index(s, sep)
	intPart, frac := s[:i], s[i+1:]
	if len(frac) == 3 && len(intPart) <= 3 && intPart[0] != '0' {
		return intPart + frac, true
	}
	return intPart + "." + frac, true
}

// validGrouping checks "1.234.567"-style grouping: a 1-3 digit head followed
// by 3-digit groups.
func validGrouping(s, sep string) bool {
	if !strings.Contains(s, sep) {
		return true
	}
	groups := strings.Split(s, sep)
	if len(groups[0]) == 0 || len(groups[0]) > 3 {
		return false
	}
	for _, g := range groups[1:] {
		if len(g) != 3 {
			return false
		}
	}
	return true
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
