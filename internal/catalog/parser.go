package catalog

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/MrJamesThe3rd/bookxchange/internal/ledger"
)

// Listing is one book a seller wants to put up for approval.
type Listing struct {
	SellerID    string
	ISBN        string
	Title       string
	Authors     []string
	Description string
	Condition   ledger.Condition
	CoverURL    string
	// Line is the 1-based source line for imported listings, zero otherwise.
	Line int
}

var ErrUnknownFormat = fmt.Errorf("no matching listings format found: %w", ledger.ErrInvalidInput)

// separators are tried in order until one yields a known header.
var separators = []rune{';', ',', '\t'}

// Parser reads listing spreadsheets exported as CSV. It auto-detects the
// separator and which known layout is in use by matching the header row.
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

func (p *Parser) Parse(r io.Reader) ([]Listing, error) {
	utf8r, err := utf8Reader(r)
	if err != nil {
		return nil, fmt.Errorf("detect encoding: %w", err)
	}

	data, err := io.ReadAll(utf8r)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}

	for _, sep := range separators {
		rows, lines, err := readRows(data, sep)
		if err != nil {
			continue
		}

		profile, cols, headerIdx := detectProfile(rows)
		if profile == nil {
			continue
		}

		return parseRows(profile, cols, rows[headerIdx+1:], lines[headerIdx+1:])
	}

	return nil, ErrUnknownFormat
}

// readRows returns every record with the source line it starts on. Blank
// lines are skipped by the csv reader, so row index and line number differ.
func readRows(data []byte, sep rune) ([][]string, []int, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = sep
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var (
		rows  [][]string
		lines []int
	)

	for {
		row, err := reader.Read()
		if err == io.EOF {
			return rows, lines, nil
		}

		if err != nil {
			return nil, nil, err
		}

		line, _ := reader.FieldPos(0)
		rows = append(rows, row)
		lines = append(lines, line)
	}
}

// colIndex maps column names to their index in the row.
type colIndex map[string]int

// detectProfile scans rows for a header that matches a known profile and
// returns it with its column map and the header row index.
func detectProfile(rows [][]string) (*Profile, colIndex, int) {
	for rowIdx, row := range rows {
		cols := make(colIndex)

		for i, cell := range row {
			if name := strings.TrimSpace(cell); name != "" {
				cols[name] = i
			}
		}

		for i := range profiles {
			if matchesProfile(&profiles[i], cols) {
				return &profiles[i], cols, rowIdx
			}
		}
	}

	return nil, nil, 0
}

func matchesProfile(p *Profile, cols colIndex) bool {
	for _, name := range p.requiredCols() {
		if _, ok := cols[name]; !ok {
			return false
		}
	}

	return true
}

func parseRows(p *Profile, cols colIndex, rows [][]string, lines []int) ([]Listing, error) {
	var out []Listing

	for i, row := range rows {
		line := lines[i]

		if blank(row) {
			continue
		}

		title := cell(row, cols, p.TitleCol)
		if title == "" {
			return nil, fmt.Errorf("row %d: missing title: %w", line, ledger.ErrInvalidInput)
		}

		authors := splitList(cell(row, cols, p.AuthorCol), "|")
		authors = append(authors, splitList(cell(row, cols, p.ExtraAuthorsCol), ",")...)

		out = append(out, Listing{
			ISBN:        unquoteISBN(cell(row, cols, p.ISBNCol)),
			Title:       title,
			Authors:     authors,
			Description: cell(row, cols, p.DescCol),
			Condition:   condition(cell(row, cols, p.ConditionCol)),
			CoverURL:    cell(row, cols, p.CoverCol),
			Line:        line,
		})
	}

	return out, nil
}

// cell returns the trimmed value of the named column, or "" when the profile
// does not have it or the row is short.
func cell(row []string, cols colIndex, name string) string {
	if name == "" {
		return ""
	}

	idx, ok := cols[name]
	if !ok || idx >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[idx])
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}

	return true
}

func splitList(s, sep string) []string {
	var out []string

	for part := range strings.SplitSeq(s, sep) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}

	return out
}

// unquoteISBN strips the ="..." wrapper spreadsheet exports use to keep
// leading zeros.
func unquoteISBN(s string) string {
	s = strings.TrimPrefix(s, "=")
	return strings.Trim(s, `"`)
}

// condition matches case-insensitively and defaults to Good. Unknown values
// are passed through so validation reports them against the row.
func condition(s string) ledger.Condition {
	if s == "" {
		return ledger.ConditionGood
	}

	for _, c := range []ledger.Condition{
		ledger.ConditionNew, ledger.ConditionLikeNew, ledger.ConditionGood, ledger.ConditionFair, ledger.ConditionPoor,
	} {
		if strings.EqualFold(s, string(c)) {
			return c
		}
	}

	return ledger.Condition(s)
}
