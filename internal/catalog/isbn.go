package catalog

import (
	"fmt"
	"strings"

	"github.com/MrJamesThe3rd/bookxchange/internal/ledger"
)

var ErrInvalidISBN = fmt.Errorf("invalid isbn: %w", ledger.ErrInvalidInput)

// NormalizeISBN strips dashes and spaces and verifies the check digit of an
// ISBN-10 or ISBN-13. An empty input is returned as is; ISBNs are optional.
func NormalizeISBN(s string) (string, error) {
	clean := strings.Map(func(r rune) rune {
		switch r {
		case '-', ' ':
			return -1
		case 'x':
			return 'X'
		}

		return r
	}, strings.TrimSpace(s))

	switch len(clean) {
	case 0:
		return "", nil
	case 10:
		if !validISBN10(clean) {
			return "", fmt.Errorf("%q: %w", s, ErrInvalidISBN)
		}
	case 13:
		if !validISBN13(clean) {
			return "", fmt.Errorf("%q: %w", s, ErrInvalidISBN)
		}
	default:
		return "", fmt.Errorf("%q must have 10 or 13 digits: %w", s, ErrInvalidISBN)
	}

	return clean, nil
}

func validISBN10(s string) bool {
	sum := 0

	for i, r := range s {
		var d int

		switch {
		case r >= '0' && r <= '9':
			d = int(r - '0')
		case r == 'X' && i == 9:
			d = 10
		default:
			return false
		}

		sum += d * (10 - i)
	}

	return sum%11 == 0
}

func validISBN13(s string) bool {
	sum := 0

	for i, r := range s {
		if r < '0' || r > '9' {
			return false
		}

		d := int(r - '0')
		if i%2 == 1 {
			d *= 3
		}

		sum += d
	}

	return sum%10 == 0
}
