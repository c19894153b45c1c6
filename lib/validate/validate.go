package validate

import (
	"regexp"
	"strings"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

func Email(email string) bool {
	return emailRegex.MatchString(email)
}

var phoneRegexes = map[string]*regexp.Regexp{
	"+33": regexp.MustCompile(`^\+33[1-9]\d{8}$`),
	"+1":  regexp.MustCompile(`^\+1\d{10}$`),
}

var genericPhoneRegex = regexp.MustCompile(`^\+\d{1,4}\d{8,12}$`)

var phoneSeparators = strings.NewReplacer(" ", "", "-", "", ".", "", "(", "", ")", "")

// Phone validates an international phone number for the given country
// calling code (ex. "+33"), separators are ignored.
func Phone(phone string, countryCode string) bool {
	phone = phoneSeparators.Replace(phone)
	re, ok := phoneRegexes[countryCode]
	if !ok {
		re = genericPhoneRegex
	}
	return re.MatchString(phone)
}
