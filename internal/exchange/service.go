package exchange

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/bookxchange/internal/ledger"
	"github.com/MrJamesThe3rd/bookxchange/internal/metrics"
)

// PricePolicy decides which price an accepted request settles at.
type PricePolicy string

const (
	// PriceSnapshot charges the price recorded when the request was created.
	PriceSnapshot PricePolicy = "snapshot"
	// PriceCurrent charges the book's listed price at accept time.
	PriceCurrent PricePolicy = "current"
)

func ParsePricePolicy(s string) (PricePolicy, error) {
	switch p := PricePolicy(s); p {
	case PriceSnapshot, PriceCurrent:
		return p, nil
	}

	return "", fmt.Errorf("unknown price policy %q", s)
}

type Service struct {
	runner  *ledger.Runner
	repo    ledger.Repository
	policy  PricePolicy
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Service)

func WithPricePolicy(p PricePolicy) Option {
	return func(s *Service) { s.policy = p }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func NewService(runner *ledger.Runner, opts ...Option) *Service {
	s := &Service{
		runner: runner,
		repo:   runner.Repository(),
		policy: PriceSnapshot,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Purchase buys an available, approved book at its listed price in a single atomic unit.
func (s *Service) Purchase(ctx context.Context, bookID uuid.UUID, buyerID, buyerName string) (rec *ledger.Record, err error) {
	defer s.observe("purchase", time.Now(), &err)

	err = s.runner.Run(ctx, "purchase", func(ctx context.Context, tx ledger.Tx) error {
		book, err := lockBook(ctx, tx, bookID)
		if err != nil {
			return err
		}

		if !book.Purchasable() {
			return fmt.Errorf("book %s is %s/%s: %w", book.ID, book.Status, book.ApprovalStatus, ledger.ErrBookUnavailable)
		}

		rec, err = s.settle(ctx, tx, settlement{
			book:      book,
			buyerID:   buyerID,
			buyerName: buyerName,
			price:     book.Credits,
			source:    ledger.SourcePurchase,
		})

		return err
	})
	if err != nil {
		return nil, fmt.Errorf("purchase book %s: %w", bookID, err)
	}

	s.metrics.ObserveRecord(rec)

	s.logger.Info("book purchased",
		"book_id", rec.BookID, "buyer_id", rec.BuyerID, "seller_id", rec.SellerID,
		"buyer_paid", rec.BuyerPaid, "platform_fee", rec.PlatformFee)

	return rec, nil
}

// CreateRequest records a purchase request at priceSnapshot. No credits move
// until the owner accepts.
func (s *Service) CreateRequest(ctx context.Context, bookID uuid.UUID, requesterID, requesterName string, priceSnapshot int64) (uuid.UUID, error) {
	if priceSnapshot < 0 {
		return uuid.Nil, fmt.Errorf("negative price snapshot %d: %w", priceSnapshot, ledger.ErrInvalidInput)
	}

	book, err := s.repo.GetBook(ctx, bookID)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return uuid.Nil, fmt.Errorf("book %s: %w", bookID, ledger.ErrBookUnavailable)
		}

		return uuid.Nil, fmt.Errorf("getting book: %w", err)
	}

	if book.SellerID == requesterID {
		return uuid.Nil, fmt.Errorf("cannot request own book: %w", ledger.ErrInvalidInput)
	}

	requester, err := s.account(ctx, requesterID)
	if err != nil {
		return uuid.Nil, err
	}

	owner, err := s.account(ctx, book.SellerID)
	if err != nil {
		return uuid.Nil, err
	}

	if requesterName == "" {
		requesterName = requester.DisplayName
	}

	req := &ledger.ExchangeRequest{
		ID:            uuid.New(),
		BookID:        book.ID,
		BookTitle:     book.Title,
		RequesterID:   requester.ID,
		RequesterName: requesterName,
		OwnerID:       owner.ID,
		OwnerName:     owner.DisplayName,
		Status:        ledger.RequestRequested,
		CreditsCost:   priceSnapshot,
	}
	if err := s.repo.CreateRequest(ctx, req); err != nil {
		return uuid.Nil, fmt.Errorf("creating exchange request: %w", err)
	}

	return req.ID, nil
}

// AcceptRequest settles a pending request. If the book was sold or withdrawn
// in the meantime the request is cancelled, that cancellation is committed,
// and ErrBookUnavailable is returned.
func (s *Service) AcceptRequest(ctx context.Context, requestID uuid.UUID) (rec *ledger.Record, err error) {
	defer s.observe("accept_request", time.Now(), &err)

	var stale bool

	err = s.runner.Run(ctx, "accept_request", func(ctx context.Context, tx ledger.Tx) error {
		rec, stale = nil, false

		req, err := lockRequest(ctx, tx, requestID)
		if err != nil {
			return err
		}

		if req.Status != ledger.RequestRequested {
			return fmt.Errorf("request %s is %s: %w", req.ID, req.Status, ledger.ErrInvalidState)
		}

		book, err := tx.BookForUpdate(ctx, req.BookID)
		if err != nil && !errors.Is(err, ledger.ErrNotFound) {
			return err
		}

		if book == nil || !book.Purchasable() {
			if err := ledger.TransitionRequest(req, ledger.RequestCancelled); err != nil {
				return err
			}

			stale = true

			return tx.UpdateRequestStatus(ctx, req.ID, req.Status)
		}

		price := req.CreditsCost
		if s.policy == PriceCurrent {
			price = book.Credits
		}

		rec, err = s.settle(ctx, tx, settlement{
			book:      book,
			buyerID:   req.RequesterID,
			buyerName: req.RequesterName,
			price:     price,
			source:    ledger.SourceRequest,
			requestID: &req.ID,
		})
		if err != nil {
			return err
		}

		if err := ledger.TransitionRequest(req, ledger.RequestAccepted); err != nil {
			return err
		}

		return tx.UpdateRequestStatus(ctx, req.ID, req.Status)
	})
	if err != nil {
		return nil, fmt.Errorf("accept request %s: %w", requestID, err)
	}

	if stale {
		s.logger.Info("request cancelled, book no longer available", "request_id", requestID)
		return nil, fmt.Errorf("accept request %s: %w", requestID, ledger.ErrBookUnavailable)
	}

	s.metrics.ObserveRecord(rec)
	s.logger.Info("request accepted",
		"request_id", requestID, "book_id", rec.BookID, "buyer_id", rec.BuyerID, "buyer_paid", rec.BuyerPaid)

	return rec, nil
}

// RejectRequest is the owner declining a pending request.
func (s *Service) RejectRequest(ctx context.Context, requestID uuid.UUID) (err error) {
	defer s.observe("reject_request", time.Now(), &err)

	return s.closeRequest(ctx, "reject_request", requestID, ledger.RequestRejected)
}

// CancelRequest is the requester withdrawing a pending request.
func (s *Service) CancelRequest(ctx context.Context, requestID uuid.UUID) (err error) {
	defer s.observe("cancel_request", time.Now(), &err)

	return s.closeRequest(ctx, "cancel_request", requestID, ledger.RequestCancelled)
}

func (s *Service) GetRequest(ctx context.Context, requestID uuid.UUID) (*ledger.ExchangeRequest, error) {
	req, err := s.repo.GetRequest(ctx, requestID)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return nil, fmt.Errorf("request %s: %w", requestID, ledger.ErrRequestNotFound)
		}

		return nil, fmt.Errorf("getting exchange request: %w", err)
	}

	return req, nil
}

func (s *Service) closeRequest(ctx context.Context, op string, requestID uuid.UUID, to ledger.RequestStatus) error {
	err := s.runner.Run(ctx, op, func(ctx context.Context, tx ledger.Tx) error {
		req, err := lockRequest(ctx, tx, requestID)
		if err != nil {
			return err
		}

		if err := ledger.TransitionRequest(req, to); err != nil {
			return err
		}

		return tx.UpdateRequestStatus(ctx, req.ID, req.Status)
	})
	if err != nil {
		return fmt.Errorf("%s %s: %w", op, requestID, err)
	}

	return nil
}

type settlement struct {
	book      *ledger.Book
	buyerID   string
	buyerName string
	price     int64
	source    ledger.Source
	requestID *uuid.UUID
}

// settle moves credits from buyer to seller, marks the book sold and appends
// the record. The caller must already hold the book lock.
func (s *Service) settle(ctx context.Context, tx ledger.Tx, st settlement) (*ledger.Record, error) {
	book := st.book

	if st.buyerID == book.SellerID {
		return nil, fmt.Errorf("buyer owns book %s: %w", book.ID, ledger.ErrInvalidInput)
	}

	accounts, err := tx.AccountsForUpdate(ctx, st.buyerID, book.SellerID)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return nil, fmt.Errorf("%w: %w", ledger.ErrAccountNotFound, err)
		}

		return nil, err
	}

	buyer, seller := accounts[st.buyerID], accounts[book.SellerID]

	fees, err := ledger.ComputeFees(st.price)
	if err != nil {
		return nil, err
	}

	if buyer.Credits < fees.BuyerTotal {
		return nil, &ledger.InsufficientCreditsError{Required: fees.BuyerTotal, Available: buyer.Credits}
	}

	buyer.Credits -= fees.BuyerTotal
	seller.Credits += fees.SellerReceives
	seller.BooksSold++

	if err := tx.UpdateAccount(ctx, buyer); err != nil {
		return nil, err
	}

	if err := tx.UpdateAccount(ctx, seller); err != nil {
		return nil, err
	}

	if err := ledger.TransitionBook(book, ledger.BookSold); err != nil {
		return nil, err
	}

	if err := tx.UpdateBook(ctx, book); err != nil {
		return nil, err
	}

	buyerName := st.buyerName
	if buyerName == "" {
		buyerName = buyer.DisplayName
	}

	rec := &ledger.Record{
		ID:             uuid.New(),
		BookID:         book.ID,
		BookTitle:      book.Title,
		BookCoverURL:   book.CoverURL,
		BuyerID:        buyer.ID,
		BuyerName:      buyerName,
		SellerID:       seller.ID,
		SellerName:     seller.DisplayName,
		BasePrice:      st.price,
		BuyerPaid:      fees.BuyerTotal,
		SellerReceived: fees.SellerReceives,
		PlatformFee:    fees.PlatformRevenue,
		Source:         st.source,
		RequestID:      st.requestID,
	}
	if err := tx.InsertRecord(ctx, rec); err != nil {
		return nil, err
	}

	return rec, nil
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

func lockRequest(ctx context.Context, tx ledger.Tx, id uuid.UUID) (*ledger.ExchangeRequest, error) {
	req, err := tx.RequestForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return nil, fmt.Errorf("request %s: %w", id, ledger.ErrRequestNotFound)
		}

		return nil, err
	}

	return req, nil
}

func (s *Service) account(ctx context.Context, id string) (*ledger.Account, error) {
	a, err := s.repo.GetAccount(ctx, id)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return nil, fmt.Errorf("account %s: %w", id, ledger.ErrAccountNotFound)
		}

		return nil, fmt.Errorf("getting account: %w", err)
	}

	return a, nil
}

func (s *Service) observe(op string, started time.Time, err *error) {
	s.metrics.ObserveOperation(op, started, *err)
}
