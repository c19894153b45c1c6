package fakedata

import (
	"fmt"
	"math/rand/v2"
	"strings"

	random "github.com/mazen160/go-random"
)

var emailDomains = []string{"gmail.com", "yahoo.com", "outlook.com"}

var streets = []string{"Rue de la Paix", "Avenue des Champs-Élysées", "Boulevard Haussmann", "Rue de Rivoli", "Rue du Faubourg Saint-Honoré"}

var cities = []string{"Paris", "Lyon", "Marseille", "Toulouse", "Nice", "Nantes", "Strasbourg", "Montpellier", "Bordeaux", "Lille"}

var firstNames = []string{"Camille", "Louis", "Léa", "Hugo", "Chloé", "Lucas", "Manon", "Jules"}

var lastNames = []string{"Martin", "Bernard", "Dubois", "Thomas", "Robert", "Richard", "Petit", "Durand"}

type Address struct {
	Street     string `json:"street"`
	PostalCode string `json:"postal_code"`
	City       string `json:"city"`
	Country    string `json:"country"`
}

type Card struct {
	Owner        string `json:"owner"`
	Number       string `json:"number"`
	Expiry       string `json:"expiry"`
	SecurityCode string `json:"security_code"`
}

// Generator produces random but well-formed identities for filling forms
// on test accounts.
type Generator struct {
	rng *rand.Rand
}

// New creates a Generator, a nil `rng` uses the global source.
func New(rng *rand.Rand) Generator {
	return Generator{rng: rng}
}

func (g Generator) intN(n int) int {
	if g.rng == nil {
		return rand.IntN(n)
	}
	return g.rng.IntN(n)
}

func (g Generator) pick(values []string) string {
	return values[g.intN(len(values))]
}

func (g Generator) digits(n int) string {
	var out strings.Builder
	for i := 0; i < n; i++ {
		out.WriteByte(byte('0' + g.intN(10)))
	}
	return out.String()
}

// String returns a random alphanumeric string.
func (g Generator) String(length int) (string, error) {
	return random.String(length)
}

func (g Generator) Email() (string, error) {
	user, err := random.String(8)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s@%s", strings.ToLower(user), g.pick(emailDomains)), nil
}

// Phone returns a phone number for the calling code, ex. "+33612345678".
func (g Generator) Phone(countryCode string) string {
	if countryCode == "" {
		countryCode = "+33"
	}
	return fmt.Sprintf("%s%d%s", countryCode, 1+g.intN(9), g.digits(8))
}

func (g Generator) Name() (first, last string) {
	return g.pick(firstNames), g.pick(lastNames)
}

func (g Generator) Address() Address {
	return Address{
		Street:     fmt.Sprintf("%d %s", 1+g.intN(100), g.pick(streets)),
		PostalCode: fmt.Sprintf("%05d", 10000+g.intN(85000)),
		City:       g.pick(cities),
		Country:    "France",
	}
}

// Card returns a card whose number passes the luhn check, it is not
// backed by any account.
func (g Generator) Card(owner string) Card {
	number := "4" + g.digits(14)
	number += string(byte('0' + luhnCheckDigit(number)))
	return Card{
		Owner:        owner,
		Number:       number,
		Expiry:       fmt.Sprintf("%02d/%02d", 1+g.intN(12), 25+g.intN(6)),
		SecurityCode: g.digits(3),
	}
}

func luhnCheckDigit(partial string) int {
	sum := 0
	double := true
	for i := len(partial) - 1; i >= 0; i-- {
		d := int(partial[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return (10 - sum%10) % 10
}

// LuhnValid reports whether a card number passes the luhn check.
func LuhnValid(number string) bool {
	if len(number) < 2 {
		return false
	}
	for _, r := range number {
		if r < '0' || r > '9' {
			return false
		}
	}
	return luhnCheckDigit(number[:len(number)-1]) == int(number[len(number)-1]-'0')
}
