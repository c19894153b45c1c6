package textutil

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// NormalizeName lowercases a name and removes all whitespace from it, it
// is used for loose comparisons of product and site names.
func NormalizeName(name string) string {
	name = strings.ToLower(name)
	name = strings.TrimSpace(name)
	name = whitespaceRegex.ReplaceAllString(name, "")
	return name
}

func MatchName(name string, matchers []string) bool {
	name = NormalizeName(name)
	for _, m := range matchers {
		if strings.Contains(name, NormalizeName(m)) {
			return true
		}
	}
	return false
}

func removeNonPrintable(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) || unicode.IsSpace(r) {
			return r
		}
		return -1
	}, s)
}

// CleanText removes non-printable characters, trims the text and collapses
// runs of whitespace into single spaces.
func CleanText(text string) string {
	text = removeNonPrintable(text)
	text = strings.TrimSpace(text)
	return whitespaceRegex.ReplaceAllString(text, " ")
}

var numberRegex = regexp.MustCompile(`\d+(?:[.,]\d+)?`)

// ExtractNumbers returns every number in the text, a comma is accepted as
// the decimal separator.
func ExtractNumbers(text string) []float64 {
	out := []float64{}
	for _, match := range numberRegex.FindAllString(text, -1) {
		n, err := strconv.ParseFloat(strings.ReplaceAll(match, ",", "."), 64)
		if err != nil {
			continue
		}
		out = append(out, n)
	}
	return out
}

var digitsRegex = regexp.MustCompile(`\d+`)

// FirstInt returns the first run of digits in the text.
func FirstInt(text string) (int, bool) {
	match := digitsRegex.FindString(text)
	if match == "" {
		return 0, false
	}
	n, err := strconv.Atoi(match)
	if err != nil {
		return 0, false
	}
	return n, true
}

// FirstDigits returns the first run of digits in the text as a string,
// leading zeroes included.
func FirstDigits(text string) string {
	return digitsRegex.FindString(text)
}
