package validate

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEmail(t *testing.T) {
	valid := []string{"alice@example.com", "bob.smith+shop@mail.example.fr", "x_y%z@a-b.io"}
	invalid := []string{"", "alice", "alice@", "@example.com", "alice@example", "alice@example.c"}
	for _, v := range valid {
		require.True(t, Email(v), v)
	}
	for _, v := range invalid {
		require.False(t, Email(v), v)
	}
}

func TestPhone(t *testing.T) {
	cases := []struct {
		phone    string
		country  string
		expected bool
	}{
		{phone: "+33612345678", country: "+33", expected: true},
		{phone: "+33 6 12 34 56 78", country: "+33", expected: true},
		{phone: "+33.6.12.34.56.78", country: "+33", expected: true},
		{phone: "+33012345678", country: "+33", expected: false},
		{phone: "0612345678", country: "+33", expected: false},
		{phone: "+1 (415) 555-0100", country: "+1", expected: true},
		{phone: "+1415555010", country: "+1", expected: false},
		{phone: "+44 20 7946 0958", country: "+44", expected: true},
		{phone: "+44 123", country: "+44", expected: false},
	}
	for _, c := range cases {
		require.Equal(t, c.expected, Phone(c.phone, c.country), c.phone)
	}
}
