package export

import (
	"cmp"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/MrJamesThe3rd/bookxchange/internal/ledger"
)

type Direction string

const (
	DirectionBought Direction = "bought"
	DirectionSold   Direction = "sold"
)

// Line is one record on a user's statement, seen from that user's side.
type Line struct {
	Record    *ledger.Record
	Direction Direction
	// Delta is the signed change to the user's balance.
	Delta     int64
	CoverPath string
}

// Filter bounds a statement by record timestamp. Nil bounds are open.
type Filter struct {
	Start *time.Time
	End   *time.Time
}

type RecordLister interface {
	ListRecords(ctx context.Context, filter ledger.RecordFilter) ([]*ledger.Record, error)
}

// MaxCoverBytes caps a single downloaded cover.
const MaxCoverBytes = 5 << 20

// Service builds credit statements from the transaction records.
type Service struct {
	records  RecordLister
	client   *http.Client
	logger   *slog.Logger
	maxCover int64
}

func NewService(records RecordLister, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		records:  records,
		client:   &http.Client{Timeout: 30 * time.Second},
		logger:   logger,
		maxCover: MaxCoverBytes,
	}
}

// Statement returns every purchase and sale of userID inside f, oldest first.
func (s *Service) Statement(ctx context.Context, userID string, f Filter) ([]Line, error) {
	bought, err := s.records.ListRecords(ctx, ledger.RecordFilter{BuyerID: &userID})
	if err != nil {
		return nil, fmt.Errorf("listing purchases: %w", err)
	}

	sold, err := s.records.ListRecords(ctx, ledger.RecordFilter{SellerID: &userID})
	if err != nil {
		return nil, fmt.Errorf("listing sales: %w", err)
	}

	lines := make([]Line, 0, len(bought)+len(sold))

	for _, r := range bought {
		if f.contains(r.Timestamp) {
			lines = append(lines, Line{Record: r, Direction: DirectionBought, Delta: -r.BuyerPaid})
		}
	}

	for _, r := range sold {
		if f.contains(r.Timestamp) {
			lines = append(lines, Line{Record: r, Direction: DirectionSold, Delta: r.SellerReceived})
		}
	}

	slices.SortFunc(lines, func(a, b Line) int {
		return cmp.Or(a.Record.Timestamp.Compare(b.Record.Timestamp), strings.Compare(a.Record.ID.String(), b.Record.ID.String()))
	})

	return lines, nil
}

func (f Filter) contains(t time.Time) bool {
	if f.Start != nil && t.Before(*f.Start) {
		return false
	}

	if f.End != nil && !t.Before(*f.End) {
		return false
	}

	return true
}

var csvHeader = []string{"date", "record_id", "direction", "book", "counterparty", "base_price", "fee", "delta", "source"}

func WriteCSV(w io.Writer, lines []Line) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for _, l := range lines {
		r := l.Record

		counterparty, fee := r.SellerName, r.BuyerPaid-r.BasePrice
		if l.Direction == DirectionSold {
			counterparty, fee = r.BuyerName, r.BasePrice-r.SellerReceived
		}

		row := []string{
			r.Timestamp.UTC().Format(time.RFC3339),
			r.ID.String(),
			string(l.Direction),
			r.BookTitle,
			counterparty,
			strconv.FormatInt(r.BasePrice, 10),
			strconv.FormatInt(fee, 10),
			strconv.FormatInt(l.Delta, 10),
			string(r.Source),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing record %s: %w", r.ID, err)
		}
	}

	cw.Flush()

	return cw.Error()
}

// Summary renders a plain text overview, one line per record plus the net change.
func Summary(lines []Line) string {
	var (
		sb  strings.Builder
		net int64
	)

	for _, l := range lines {
		r := l.Record
		net += l.Delta

		who := "from " + r.SellerName
		if l.Direction == DirectionSold {
			who = "to " + r.BuyerName
		}

		cover := "no cover"
		if l.CoverPath != "" {
			cover = filepath.Base(l.CoverPath)
		}

		fmt.Fprintf(&sb, "* %s | %s | %s %s | %+d credits | %s\n",
			r.Timestamp.Format(time.DateOnly), r.BookTitle, l.Direction, who, l.Delta, cover)
	}

	fmt.Fprintf(&sb, "Net: %+d credits over %d exchanges\n", net, len(lines))

	return sb.String()
}

// DownloadCovers fetches the cover image of every line into dir. Covers are
// decoration: a failed download is logged and the line keeps no CoverPath.
// The URLs are seller supplied, so only operator tooling calls this.
func (s *Service) DownloadCovers(ctx context.Context, lines []Line, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating cover directory: %w", err)
	}

	for i := range lines {
		url := lines[i].Record.BookCoverURL
		if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
			continue
		}

		path, err := s.downloadCover(ctx, lines[i].Record, dir)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}

			s.logger.Warn("failed to download cover", "record_id", lines[i].Record.ID, "error", err)

			continue
		}

		lines[i].CoverPath = path
	}

	return nil
}

func (s *Service) downloadCover(ctx context.Context, r *ledger.Record, dir string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.BookCoverURL, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code %d for url %s", resp.StatusCode, r.BookCoverURL)
	}

	path := filepath.Join(dir, coverFilename(resp, r))

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating file: %w", err)
	}
	defer f.Close()

	n, err := io.Copy(f, io.LimitReader(resp.Body, s.maxCover+1))
	if err != nil {
		return "", fmt.Errorf("writing file: %w", err)
	}

	if n > s.maxCover {
		_ = os.Remove(path)
		return "", fmt.Errorf("cover at %s exceeds %d bytes", r.BookCoverURL, s.maxCover)
	}

	return path, nil
}

// coverFilename is YYYYMMDD_<record id prefix>_Title.ext with the extension
// taken from the response content type.
func coverFilename(resp *http.Response, r *ledger.Record) string {
	ext := ".jpg"

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		if exts, _ := mime.ExtensionsByType(ct); len(exts) > 0 {
			ext = exts[0]
		}
	}

	safeTitle := strings.Map(func(c rune) rune {
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '-' || c == '_' {
			return c
		}

		return '_'
	}, r.BookTitle)

	return fmt.Sprintf("%s_%s_%s%s", r.Timestamp.Format("20060102"), r.ID.String()[:8], safeTitle, ext)
}
