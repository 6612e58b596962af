package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/bookxchange/internal/ledger"
)

type stubRecords struct {
	records []*ledger.Record
}

func (s *stubRecords) ListRecords(_ context.Context, f ledger.RecordFilter) ([]*ledger.Record, error) {
	var out []*ledger.Record

	for _, r := range s.records {
		if f.BuyerID != nil && r.BuyerID != *f.BuyerID {
			continue
		}

		if f.SellerID != nil && r.SellerID != *f.SellerID {
			continue
		}

		out = append(out, r)
	}

	return out, nil
}

func record(title, buyer, seller string, price int64, at time.Time, cover string) *ledger.Record {
	fee := (price*5 + 99) / 100

	return &ledger.Record{
		ID:             uuid.New(),
		BookTitle:      title,
		BookCoverURL:   cover,
		BuyerID:        buyer,
		BuyerName:      strings.ToUpper(buyer[:1]) + buyer[1:],
		SellerID:       seller,
		SellerName:     strings.ToUpper(seller[:1]) + seller[1:],
		BasePrice:      price,
		BuyerPaid:      price + fee,
		SellerReceived: price - fee,
		PlatformFee:    2 * fee,
		Source:         ledger.SourcePurchase,
		Timestamp:      at,
	}
}

func day(d int) time.Time {
	return time.Date(2026, 10, d, 12, 0, 0, 0, time.UTC)
}

func TestService_Statement(t *testing.T) {
	repo := &stubRecords{records: []*ledger.Record{
		record("Dune", "ada", "bob", 100, day(3), ""),
		record("Emma", "bob", "ada", 40, day(1), ""),
		record("Ulysses", "bob", "carol", 10, day(2), ""),
		record("Beloved", "ada", "carol", 20, day(9), ""),
	}}

	svc := NewService(repo, nil)

	lines, err := svc.Statement(context.Background(), "ada", Filter{})
	require.NoError(t, err)
	require.Len(t, lines, 3)

	assert.Equal(t, "Emma", lines[0].Record.BookTitle, "oldest first")
	assert.Equal(t, DirectionSold, lines[0].Direction)
	assert.Equal(t, int64(38), lines[0].Delta)

	assert.Equal(t, "Dune", lines[1].Record.BookTitle)
	assert.Equal(t, DirectionBought, lines[1].Direction)
	assert.Equal(t, int64(-105), lines[1].Delta)

	bounded, err := svc.Statement(context.Background(), "ada", Filter{Start: new(day(2)), End: new(day(9))})
	require.NoError(t, err)
	require.Len(t, bounded, 1)
	assert.Equal(t, "Dune", bounded[0].Record.BookTitle)
}

func TestWriteCSV(t *testing.T) {
	dune := record("Dune", "ada", "bob", 100, day(3), "")
	emma := record("Emma", "bob", "ada", 40, day(1), "")

	var buf bytes.Buffer

	require.NoError(t, WriteCSV(&buf, []Line{
		{Record: emma, Direction: DirectionSold, Delta: 38},
		{Record: dune, Direction: DirectionBought, Delta: -105},
	}))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, csvHeader, rows[0])
	assert.Equal(t, []string{"2026-10-01T12:00:00Z", emma.ID.String(), "sold", "Emma", "Bob", "40", "2", "38", "purchase"}, rows[1])
	assert.Equal(t, []string{"2026-10-03T12:00:00Z", dune.ID.String(), "bought", "Dune", "Bob", "100", "5", "-105", "purchase"}, rows[2])
}

func TestSummary(t *testing.T) {
	body := Summary([]Line{
		{Record: record("Emma", "bob", "ada", 40, day(1), ""), Direction: DirectionSold, Delta: 38, CoverPath: "/tmp/x/emma.png"},
		{Record: record("Dune", "ada", "bob", 100, day(3), ""), Direction: DirectionBought, Delta: -105},
	})

	for _, want := range []string{
		"* 2026-10-01 | Emma | sold to Bob | +38 credits | emma.png",
		"* 2026-10-03 | Dune | bought from Bob | -105 credits | no cover",
		"Net: -67 credits over 2 exchanges",
	} {
		assert.Contains(t, body, want)
	}
}

func TestService_DownloadCovers(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/dune.png" {
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write([]byte("png bytes"))

			return
		}

		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	dir := t.TempDir()

	dune := record("Dune Messiah", "ada", "bob", 100, day(3), ts.URL+"/dune.png")
	lines := []Line{
		{Record: dune},
		{Record: record("Gone", "ada", "bob", 10, day(4), ts.URL+"/missing.png")},
		{Record: record("Local", "ada", "bob", 10, day(5), "/placeholder-book.png")},
	}

	require.NoError(t, NewService(&stubRecords{}, nil).DownloadCovers(context.Background(), lines, filepath.Join(dir, "covers")))

	want := "20261003_" + dune.ID.String()[:8] + "_Dune_Messiah.png"
	assert.Equal(t, want, filepath.Base(lines[0].CoverPath))

	content, err := os.ReadFile(lines[0].CoverPath)
	require.NoError(t, err)
	assert.Equal(t, "png bytes", string(content))

	assert.Empty(t, lines[1].CoverPath, "failed downloads are skipped")
	assert.Empty(t, lines[2].CoverPath, "relative urls are not fetched")
}

func TestService_DownloadCoversRejectsOversizedBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(bytes.Repeat([]byte("x"), 64))
	}))
	defer ts.Close()

	dir := filepath.Join(t.TempDir(), "covers")

	svc := NewService(&stubRecords{}, nil)
	svc.maxCover = 16

	lines := []Line{{Record: record("Huge", "ada", "bob", 10, day(3), ts.URL+"/huge.png")}}

	require.NoError(t, svc.DownloadCovers(context.Background(), lines, dir))
	assert.Empty(t, lines[0].CoverPath)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "partial cover is removed")
}
