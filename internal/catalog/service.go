package catalog

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/MrJamesThe3rd/bookxchange/internal/ledger"
)

// Submitter puts a single listing up for moderation.
type Submitter interface {
	SubmitListing(ctx context.Context, l Listing) (*ledger.Book, error)
}

// RowError is a listing that could not be submitted.
type RowError struct {
	Line  int
	Title string
	Err   error
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d (%s): %v", e.Line, e.Title, e.Err)
}

type ImportResult struct {
	Created []*ledger.Book
	Failed  []RowError
}

type Service struct {
	parser    *Parser
	submitter Submitter
	logger    *slog.Logger
}

func NewService(submitter Submitter, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		parser:    NewParser(),
		submitter: submitter,
		logger:    logger,
	}
}

// Import parses an upload and submits every row on behalf of sellerID. A row
// that fails validation does not stop the others.
func (s *Service) Import(ctx context.Context, sellerID string, r io.Reader) (*ImportResult, error) {
	listings, err := s.parser.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse listings: %w", err)
	}

	res := &ImportResult{}

	for _, l := range listings {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		l.SellerID = sellerID

		book, err := s.submitter.SubmitListing(ctx, l)
		if err != nil {
			res.Failed = append(res.Failed, RowError{Line: l.Line, Title: l.Title, Err: err})
			continue
		}

		res.Created = append(res.Created, book)
	}

	s.logger.Info("listings imported", "seller_id", sellerID, "created", len(res.Created), "failed", len(res.Failed))

	return res, nil
}
