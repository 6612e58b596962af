// Package readmodel answers dashboard queries from committed state. Queries
// never fail the caller: store errors are logged and an empty result is
// returned instead.
package readmodel

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/MrJamesThe3rd/bookxchange/internal/ledger"
)

const (
	TransactionsLimit     = 50
	DefaultRecentRecords  = 50
	DefaultRecentRequests = 10
	DefaultAccountsLimit  = 50
	DefaultBrowseLimit    = 100
)

// Side selects which half of a user's activity ListByUser returns.
type Side string

const (
	SideBuyer  Side = "buyer"
	SideSeller Side = "seller"
)

func ParseSide(s string) (Side, error) {
	switch v := Side(s); v {
	case SideBuyer, SideSeller:
		return v, nil
	}

	return "", fmt.Errorf("unknown side %q: %w", s, ledger.ErrInvalidInput)
}

// UserItems is a user's listings when viewed as a seller, or purchases when
// viewed as a buyer. The other field is empty.
type UserItems struct {
	Books   []*ledger.Book
	Records []*ledger.Record
}

type Stats struct {
	Users        int64
	Books        int64
	Transactions int64
	Requests     int64
	Revenue      int64
}

type Exchanges struct {
	Incoming []*ledger.ExchangeRequest
	Outgoing []*ledger.ExchangeRequest
}

type Service struct {
	repo   ledger.Repository
	logger *slog.Logger
}

func NewService(repo ledger.Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{repo: repo, logger: logger}
}

// ListPending returns listings awaiting moderation, newest first.
func (s *Service) ListPending(ctx context.Context) []*ledger.Book {
	books, err := s.repo.ListBooks(ctx, ledger.BookFilter{ApprovalStatus: new(ledger.ApprovalPending)})
	if err != nil {
		s.logger.Warn("failed to list pending books", "error", err)
		return []*ledger.Book{}
	}

	return books
}

// Browse returns the books a buyer can purchase right now.
func (s *Service) Browse(ctx context.Context) []*ledger.Book {
	books, err := s.repo.ListBooks(ctx, ledger.BookFilter{
		Status:         new(ledger.BookAvailable),
		ApprovalStatus: new(ledger.ApprovalApproved),
		Limit:          DefaultBrowseLimit,
	})
	if err != nil {
		s.logger.Warn("failed to browse books", "error", err)
		return []*ledger.Book{}
	}

	return books
}

// Book looks a single listing up. Unlike the list queries a failure is returned.
func (s *Service) Book(ctx context.Context, id uuid.UUID) (*ledger.Book, error) {
	b, err := s.repo.GetBook(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting book %s: %w", id, err)
	}

	return b, nil
}

func (s *Service) ListByUser(ctx context.Context, userID string, side Side) (UserItems, error) {
	switch side {
	case SideSeller:
		books, err := s.repo.ListBooks(ctx, ledger.BookFilter{SellerID: &userID})
		if err != nil {
			s.logger.Warn("failed to list user books", "user_id", userID, "error", err)
			books = []*ledger.Book{}
		}

		return UserItems{Books: books}, nil
	case SideBuyer:
		return UserItems{Records: s.records(ctx, ledger.RecordFilter{BuyerID: &userID}, "purchases")}, nil
	}

	return UserItems{}, fmt.Errorf("unknown side %q: %w", side, ledger.ErrInvalidInput)
}

// Sales returns the records where userID was the seller.
func (s *Service) Sales(ctx context.Context, userID string) []*ledger.Record {
	return s.records(ctx, ledger.RecordFilter{SellerID: &userID}, "sales")
}

// ListTransactions merges a user's purchases and sales, newest first.
func (s *Service) ListTransactions(ctx context.Context, userID string) []*ledger.Record {
	var bought, sold []*ledger.Record

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		bought, err = s.repo.ListRecords(gctx, ledger.RecordFilter{BuyerID: &userID, Limit: TransactionsLimit})

		return err
	})
	g.Go(func() error {
		var err error
		sold, err = s.repo.ListRecords(gctx, ledger.RecordFilter{SellerID: &userID, Limit: TransactionsLimit})

		return err
	})

	if err := g.Wait(); err != nil {
		s.logger.Warn("failed to list transactions", "user_id", userID, "error", err)
		return []*ledger.Record{}
	}

	return mergeRecords(TransactionsLimit, bought, sold)
}

// GetStats counts the platform's entities. Any failing count zeroes the whole
// result.
func (s *Service) GetStats(ctx context.Context) Stats {
	var st Stats

	g, gctx := errgroup.WithContext(ctx)

	count := func(e ledger.Entity, dst *int64) {
		g.Go(func() error {
			n, err := s.repo.Count(gctx, e)
			if err != nil {
				return fmt.Errorf("counting %s: %w", e, err)
			}

			*dst = n

			return nil
		})
	}

	count(ledger.EntityAccounts, &st.Users)
	count(ledger.EntityBooks, &st.Books)
	count(ledger.EntityRecords, &st.Transactions)
	count(ledger.EntityRequests, &st.Requests)

	g.Go(func() error {
		rev, err := s.repo.PlatformRevenue(gctx)
		if err != nil {
			return fmt.Errorf("summing revenue: %w", err)
		}

		st.Revenue = rev

		return nil
	})

	if err := g.Wait(); err != nil {
		s.logger.Warn("failed to compute stats", "error", err)
		return Stats{}
	}

	return st
}

// UserExchanges returns requests addressed to userID and requests userID made.
func (s *Service) UserExchanges(ctx context.Context, userID string) Exchanges {
	var ex Exchanges

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		ex.Incoming, err = s.repo.ListRequests(gctx, ledger.RequestFilter{OwnerID: &userID})

		return err
	})
	g.Go(func() error {
		var err error
		ex.Outgoing, err = s.repo.ListRequests(gctx, ledger.RequestFilter{RequesterID: &userID})

		return err
	})

	if err := g.Wait(); err != nil {
		s.logger.Warn("failed to list exchanges", "user_id", userID, "error", err)
		return Exchanges{Incoming: []*ledger.ExchangeRequest{}, Outgoing: []*ledger.ExchangeRequest{}}
	}

	return ex
}

func (s *Service) RecentTransactions(ctx context.Context, limit int) []*ledger.Record {
	return s.records(ctx, ledger.RecordFilter{Limit: orDefault(limit, DefaultRecentRecords)}, "recent transactions")
}

func (s *Service) RecentRequests(ctx context.Context, limit int) []*ledger.ExchangeRequest {
	reqs, err := s.repo.ListRequests(ctx, ledger.RequestFilter{Limit: orDefault(limit, DefaultRecentRequests)})
	if err != nil {
		s.logger.Warn("failed to list recent requests", "error", err)
		return []*ledger.ExchangeRequest{}
	}

	return reqs
}

func (s *Service) ListAccounts(ctx context.Context, limit int) []*ledger.Account {
	accounts, err := s.repo.ListAccounts(ctx, orDefault(limit, DefaultAccountsLimit))
	if err != nil {
		s.logger.Warn("failed to list accounts", "error", err)
		return []*ledger.Account{}
	}

	return accounts
}

func (s *Service) records(ctx context.Context, f ledger.RecordFilter, what string) []*ledger.Record {
	recs, err := s.repo.ListRecords(ctx, f)
	if err != nil {
		s.logger.Warn("failed to list "+what, "error", err)
		return []*ledger.Record{}
	}

	return recs
}

// mergeRecords de-duplicates by id and sorts newest first.
func mergeRecords(limit int, lists ...[]*ledger.Record) []*ledger.Record {
	seen := make(map[uuid.UUID]struct{})
	out := []*ledger.Record{}

	for _, list := range lists {
		for _, r := range list {
			if _, ok := seen[r.ID]; ok {
				continue
			}

			seen[r.ID] = struct{}{}
			out = append(out, r)
		}
	}

	slices.SortStableFunc(out, func(a, b *ledger.Record) int { return b.Timestamp.Compare(a.Timestamp) })

	if len(out) > limit {
		out = out[:limit]
	}

	return out
}

func orDefault(limit, def int) int {
	if limit <= 0 {
		return def
	}

	return limit
}
