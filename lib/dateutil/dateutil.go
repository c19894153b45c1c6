package dateutil

import (
	"fmt"
	"time"
)

const DefaultLayout = "2006-01-02"

// layouts accepted when the input layout is not known, in order of
// preference. day/month is tried before month/day.
var inputLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"02-01-2006",
	"01/02/2006",
	"2006/01/02",
}

// Parse parses a date in any of the accepted layouts.
func Parse(value string) (time.Time, error) {
	for _, layout := range inputLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format: %q", value)
}

// Reformat converts a date string into `outputLayout` (DefaultLayout
// when empty). An empty `inputLayout` detects the layout.
func Reformat(value, inputLayout, outputLayout string) (string, error) {
	if outputLayout == "" {
		outputLayout = DefaultLayout
	}

	var t time.Time
	var err error
	if inputLayout == "" {
		t, err = Parse(value)
	} else {
		t, err = time.Parse(inputLayout, value)
	}
	if err != nil {
		return "", err
	}
	return t.Format(outputLayout), nil
}

// AddDays shifts a date string by `days` and formats it with `layout`
// (DefaultLayout when empty).
func AddDays(value string, days int, layout string) (string, error) {
	if layout == "" {
		layout = DefaultLayout
	}
	t, err := Parse(value)
	if err != nil {
		return "", err
	}
	return t.AddDate(0, 0, days).Format(layout), nil
}

// Today formats the current date of `now` with `layout` (DefaultLayout
// when empty).
func Today(now time.Time, layout string) string {
	if layout == "" {
		layout = DefaultLayout
	}
	return now.Format(layout)
}
