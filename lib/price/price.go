package price

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var ErrNoPrice = errors.New("no price found")

var currencyAndSpace = regexp.MustCompile(`[€$£\s\x{00a0}\x{202f}]`)
var amountRegex = regexp.MustCompile(`\d+\.?\d*`)

// Parse extracts a price from text such as "12,99 €", "1.234,56",
// "1,234.56" or "$5". When both separators are present the first one is
// taken as the thousands separator, a lone comma is a decimal separator.
func Parse(text string) (float64, error) {
	cleaned := currencyAndSpace.ReplaceAllString(text, "")

	comma := strings.Index(cleaned, ",")
	dot := strings.Index(cleaned, ".")
	switch {
	case comma >= 0 && dot >= 0 && comma < dot:
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	case comma >= 0 && dot >= 0:
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	case comma >= 0:
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	}

	match := amountRegex.FindString(cleaned)
	if match == "" {
		return 0, fmt.Errorf("%w: %q", ErrNoPrice, text)
	}
	value, err := strconv.ParseFloat(strings.TrimSuffix(match, "."), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrNoPrice, text)
	}
	return value, nil
}

// FromParts joins the euros and cents shown separately on product tiles.
func FromParts(units, cents string) (float64, error) {
	units = strings.TrimRight(currencyAndSpace.ReplaceAllString(units, ""), ",.")
	cents = strings.TrimLeft(currencyAndSpace.ReplaceAllString(cents, ""), ",.")
	if cents == "" {
		return Parse(units)
	}
	return Parse(units + "," + cents)
}

type Format struct {
	Currency           string
	DecimalSeparator   string
	ThousandsSeparator string
}

// French is the format used on the supported shops, ex. "1 234,56 €".
var French = Format{
	Currency:           "€",
	DecimalSeparator:   ",",
	ThousandsSeparator: " ",
}

// Format renders a price with two decimals, grouping thousands.
func (f Format) Format(value float64) string {
	negative := value < 0
	cents := int64(math.Round(math.Abs(value) * 100))
	units := strconv.FormatInt(cents/100, 10)

	var grouped strings.Builder
	for i, r := range units {
		if i > 0 && (len(units)-i)%3 == 0 {
			grouped.WriteString(f.ThousandsSeparator)
		}
		grouped.WriteRune(r)
	}

	out := fmt.Sprintf("%s%s%02d", grouped.String(), f.DecimalSeparator, cents%100)
	if negative {
		out = "-" + out
	}
	if f.Currency != "" {
		out += " " + f.Currency
	}
	return out
}

// Round rounds to cents.
func Round(value float64) float64 {
	return math.Round(value*100) / 100
}

// Equal compares two prices with a tolerance of one cent.
func Equal(a, b float64) bool {
	return math.Abs(a-b) <= 0.01+1e-9
}
