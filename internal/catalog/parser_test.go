package catalog_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/MrJamesThe3rd/bookxchange/internal/catalog"
	"github.com/MrJamesThe3rd/bookxchange/internal/ledger"
)

func TestParser_Native(t *testing.T) {
	csv := `title;authors;isbn;condition;description;cover_url
Dune;Frank Herbert;978-0-441-01359-3;like new;Spice.;https://covers.example/dune.jpg
Good Omens;Terry Pratchett|Neil Gaiman;;Fair;;
`

	listings, err := catalog.NewParser().Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, listings, 2)

	assert.Equal(t, "Dune", listings[0].Title)
	assert.Equal(t, []string{"Frank Herbert"}, listings[0].Authors)
	assert.Equal(t, "978-0-441-01359-3", listings[0].ISBN)
	assert.Equal(t, ledger.ConditionLikeNew, listings[0].Condition)
	assert.Equal(t, "Spice.", listings[0].Description)
	assert.Equal(t, "https://covers.example/dune.jpg", listings[0].CoverURL)
	assert.Equal(t, 2, listings[0].Line)

	assert.Equal(t, []string{"Terry Pratchett", "Neil Gaiman"}, listings[1].Authors)
	assert.Empty(t, listings[1].ISBN)
	assert.Equal(t, ledger.ConditionFair, listings[1].Condition)
	assert.Equal(t, 3, listings[1].Line)
}

func TestParser_Goodreads(t *testing.T) {
	csv := `Book Id,Title,Author,Additional Authors,ISBN,ISBN13,My Rating
4981,Pride and Prejudice,Jane Austen,,"=""0141439513""","=""9780141439518""",5
5470,1984,George Orwell,"Erich Fromm, Thomas Pynchon","=""""","=""9780451524935""",4
`

	listings, err := catalog.NewParser().Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, listings, 2)

	assert.Equal(t, "Pride and Prejudice", listings[0].Title)
	assert.Equal(t, "9780141439518", listings[0].ISBN)
	assert.Equal(t, ledger.ConditionGood, listings[0].Condition, "defaults when the format has no condition")

	assert.Equal(t, []string{"George Orwell", "Erich Fromm", "Thomas Pynchon"}, listings[1].Authors)
	assert.Equal(t, "9780451524935", listings[1].ISBN)
}

func TestParser_SkipsPreambleAndBlankRows(t *testing.T) {
	csv := `My shelf export;2026-10-01

title;authors;isbn;condition
;;;
Dune;Frank Herbert;0441013597;Good
`

	listings, err := catalog.NewParser().Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, 5, listings[0].Line)
}

func TestParser_UnknownConditionPassesThrough(t *testing.T) {
	csv := "title;authors;isbn;condition\nDune;Frank Herbert;;Mint\n"

	listings, err := catalog.NewParser().Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, ledger.Condition("Mint"), listings[0].Condition)
}

func TestParser_MissingTitle(t *testing.T) {
	csv := "title;authors;isbn;condition\n;Frank Herbert;;Good\n"

	_, err := catalog.NewParser().Parse(strings.NewReader(csv))
	assert.ErrorIs(t, err, ledger.ErrInvalidInput)
	assert.ErrorContains(t, err, "row 2")
}

func TestParser_UnknownFormat(t *testing.T) {
	_, err := catalog.NewParser().Parse(strings.NewReader("Data mov.;Descrição;Montante\n"))
	assert.ErrorIs(t, err, catalog.ErrUnknownFormat)
}

func TestParser_Windows1252(t *testing.T) {
	src := "title;authors;isbn;condition\nCem Anos de Solidão;Gabriel García Márquez;;Good\n"

	encoded, err := charmap.Windows1252.NewEncoder().String(src)
	require.NoError(t, err)

	listings, err := catalog.NewParser().Parse(strings.NewReader(encoded))
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, "Cem Anos de Solidão", listings[0].Title)
	assert.Equal(t, []string{"Gabriel García Márquez"}, listings[0].Authors)
}

func TestParser_UTF16WithBOM(t *testing.T) {
	src := "title;authors;isbn;condition\nLes Misérables;Victor Hugo;;Poor\n"

	encoded, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder().String(src)
	require.NoError(t, err)

	listings, err := catalog.NewParser().Parse(strings.NewReader(encoded))
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, "Les Misérables", listings[0].Title)
	assert.Equal(t, ledger.ConditionPoor, listings[0].Condition)
}

func TestParser_UTF8BOM(t *testing.T) {
	input := append([]byte{0xEF, 0xBB, 0xBF}, []byte("title,authors,isbn,condition\nDune,Frank Herbert,,Good\n")...)

	listings, err := catalog.NewParser().Parse(bytes.NewReader(input))
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, "Dune", listings[0].Title)
}
