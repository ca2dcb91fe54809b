package strutil

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	nonAlphaNumRe = regexp.MustCompile(`[^a-zA-Z0-9\s]+`)
	groupingRe    = regexp.MustCompile(`[,'\s\x{00A0}\x{202F}]+`)
)

// RemoveNonAlphaNum removes all special characters in the string
func RemoveNonAlphaNum(s string) string {
	return nonAlphaNumRe.ReplaceAllString(s, "")
}

// RemoveExtraSpaces collapses runs of whitespace into one space and trims the ends.
// For example RemoveExtraSpaces(" Euro \n  Member ") returns "Euro Member"
func RemoveExtraSpaces(s string) string {
	idx := 0

	return strings.TrimFunc(strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			idx++
			if idx > 1 {
				return -1
			}

			return ' '
		} else if idx > 0 {
			idx = 0
		}

		return r
	}, s), unicode.IsSpace)
}

// NumericField prepares a scraped table cell for strconv.ParseFloat: digit grouping
// (commas, apostrophes, regular and narrow no-break spaces) is removed
func NumericField(s string) string {
	return groupingRe.ReplaceAllString(strings.TrimSpace(s), "")
}
