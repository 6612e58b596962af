package approval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/bookxchange/internal/catalog"
	"github.com/MrJamesThe3rd/bookxchange/internal/ledger"
	"github.com/MrJamesThe3rd/bookxchange/internal/metrics"
)

const unknownAuthor = "Unknown Author"

// Service moderates listings. Approving a listing mints credits for its
// seller; it never debits anyone.
type Service struct {
	runner  *ledger.Runner
	repo    ledger.Repository
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewService(runner *ledger.Runner, logger *slog.Logger, m *metrics.Metrics) *Service {
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		runner:  runner,
		repo:    runner.Repository(),
		logger:  logger,
		metrics: m,
	}
}

// SubmitListing creates a book awaiting moderation, priced at zero.
func (s *Service) SubmitListing(ctx context.Context, l catalog.Listing) (*ledger.Book, error) {
	title := strings.TrimSpace(l.Title)
	if title == "" {
		return nil, fmt.Errorf("title is required: %w", ledger.ErrInvalidInput)
	}

	cond := l.Condition
	if cond == "" {
		cond = ledger.ConditionGood
	}

	cond, err := ledger.ParseCondition(string(cond))
	if err != nil {
		return nil, err
	}

	isbn, err := catalog.NormalizeISBN(l.ISBN)
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.GetAccount(ctx, l.SellerID); err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return nil, fmt.Errorf("seller %s: %w", l.SellerID, ledger.ErrAccountNotFound)
		}

		return nil, fmt.Errorf("getting seller: %w", err)
	}

	authors := l.Authors
	if len(authors) == 0 {
		authors = []string{unknownAuthor}
	}

	book := &ledger.Book{
		ID:             uuid.New(),
		SellerID:       l.SellerID,
		ISBN:           isbn,
		Title:          title,
		Authors:        authors,
		Description:    strings.TrimSpace(l.Description),
		Condition:      cond,
		CoverURL:       strings.TrimSpace(l.CoverURL),
		Status:         ledger.BookAvailable,
		ApprovalStatus: ledger.ApprovalPending,
	}
	if err := s.repo.CreateBook(ctx, book); err != nil {
		return nil, fmt.Errorf("creating book: %w", err)
	}

	s.logger.Info("listing submitted", "book_id", book.ID, "seller_id", book.SellerID)

	return book, nil
}

// ApproveListing prices a pending listing at credits and grants the same
// amount to its seller.
func (s *Service) ApproveListing(ctx context.Context, bookID uuid.UUID, sellerID string, credits int64) (err error) {
	defer func(started time.Time) { s.metrics.ObserveOperation("approve_listing", started, err) }(time.Now())

	if credits <= 0 {
		return fmt.Errorf("approve listing %s: credits must be positive, got %d: %w", bookID, credits, ledger.ErrInvalidInput)
	}

	err = s.runner.Run(ctx, "approve_listing", func(ctx context.Context, tx ledger.Tx) error {
		book, err := lockBook(ctx, tx, bookID)
		if err != nil {
			return err
		}

		if book.SellerID != sellerID {
			return fmt.Errorf("book %s is not listed by %s: %w", book.ID, sellerID, ledger.ErrInvalidInput)
		}

		if err := ledger.TransitionApproval(book, ledger.ApprovalApproved); err != nil {
			return err
		}

		accounts, err := tx.AccountsForUpdate(ctx, sellerID)
		if err != nil {
			if errors.Is(err, ledger.ErrNotFound) {
				return fmt.Errorf("%w: %w", ledger.ErrAccountNotFound, err)
			}

			return err
		}

		seller := accounts[sellerID]
		seller.Credits += credits
		seller.BooksListed++

		book.Credits = credits

		if err := tx.UpdateBook(ctx, book); err != nil {
			return err
		}

		return tx.UpdateAccount(ctx, seller)
	})
	if err != nil {
		return fmt.Errorf("approve listing %s: %w", bookID, err)
	}

	s.metrics.ObserveIssued(credits)
	s.logger.Info("listing approved", "book_id", bookID, "seller_id", sellerID, "credits", credits)

	return nil
}

// RejectListing closes a pending listing. No credits move.
func (s *Service) RejectListing(ctx context.Context, bookID uuid.UUID) (err error) {
	defer func(started time.Time) { s.metrics.ObserveOperation("reject_listing", started, err) }(time.Now())

	err = s.runner.Run(ctx, "reject_listing", func(ctx context.Context, tx ledger.Tx) error {
		book, err := lockBook(ctx, tx, bookID)
		if err != nil {
			return err
		}

		if err := ledger.TransitionApproval(book, ledger.ApprovalRejected); err != nil {
			return err
		}

		return tx.UpdateBook(ctx, book)
	})
	if err != nil {
		return fmt.Errorf("reject listing %s: %w", bookID, err)
	}

	s.logger.Info("listing rejected", "book_id", bookID)

	return nil
}

func lockBook(ctx context.Context, tx ledger.Tx, id uuid.UUID) (*ledger.Book, error) {
	book, err := tx.BookForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return nil, fmt.Errorf("book %s: %w", id, ledger.ErrBookUnavailable)
		}

		return nil, err
	}

	return book, nil
}
