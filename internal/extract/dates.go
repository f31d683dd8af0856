package extract

import (
	"regexp"
	"strconv"
)

var (
	numericDateRe = regexp.MustCompile(`\b(\d{1,2})[/\-.](\d{1,2})[/\-.](\d{4}|\d{2})\b`)
	isoDateRe     = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
	longDateRe    = regexp.MustCompile(`(?i)\b(\d{1,2}\s+de\s+)?(enero|febrero|marzo|abril|mayo|junio|julio|agosto|septiembre|setiembre|octubre|noviembre|diciembre)\s+(de\s+|del\s+)?(\d{4})\b`)
)

// findDate returns the first date-looking substring of s, as written, or "".
func findDate(s string) string {
	if m := isoDateRe.FindStringSubmatch(s); m != nil && validDayMonth(m[3], m[2]) {
		return m[0]
	}
	for _, m := range numericDateRe.FindAllStringSubmatch(s, -1) {
		if validDayMonth(m[1], m[2]) {
			return m[0]
		}
	}
	if m := longDateRe.FindString(s); m != "" {
		return m
	}
	return ""
}

func validDayMonth(day, month string) bool {
	d, err := strconv.Atoi(day)
	if err != nil || d < 1 || d > 31 {
		return false
	}
	m, err := strconv.Atoi(month)
	return err == nil && m >= 1 && m <= 12
}
