package catalog_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/bookxchange/internal/catalog"
	"github.com/MrJamesThe3rd/bookxchange/internal/ledger"
)

func TestNormalizeISBN(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"Empty", "", ""},
		{"ISBN13", "9780441013593", "9780441013593"},
		{"ISBN13WithDashes", "978-0-441-01359-3", "9780441013593"},
		{"ISBN10", "0441013597", "0441013597"},
		{"ISBN10WithSpaces", "0 441 01359 7", "0441013597"},
		{"ISBN10CheckX", "080442957X", "080442957X"},
		{"ISBN10LowercaseX", "080442957x", "080442957X"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := catalog.NormalizeISBN(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeISBN_Invalid(t *testing.T) {
	for _, in := range []string{
		"12345",
		"9780441013594",  // bad check digit
		"0441013598",     // bad check digit
		"97804410135X3",  // X inside ISBN-13
		"X441013597",     // X not in last position
		"978044101359AB", // wrong length
	} {
		t.Run(in, func(t *testing.T) {
			_, err := catalog.NormalizeISBN(in)
			assert.ErrorIs(t, err, catalog.ErrInvalidISBN)
			assert.ErrorIs(t, err, ledger.ErrInvalidInput)
		})
	}
}
