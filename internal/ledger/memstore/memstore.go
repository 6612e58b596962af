// Package memstore is an in-process ledger store. Atomic units are serialized
// by a single lock, so every unit observes a consistent snapshot and commits
// all of its writes or none of them.
package memstore

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/bookxchange/internal/ledger"
)

var errTxDone = errors.New("memstore: transaction already committed or rolled back")

type Store struct {
	unit sync.Mutex // held for the lifetime of a Tx

	mu       sync.RWMutex
	accounts map[string]*ledger.Account
	books    map[uuid.UUID]*ledger.Book
	requests map[uuid.UUID]*ledger.ExchangeRequest
	records  []*ledger.Record
	last     time.Time

	failCommits int
}

func New() *Store {
	return &Store{
		accounts: make(map[string]*ledger.Account),
		books:    make(map[uuid.UUID]*ledger.Book),
		requests: make(map[uuid.UUID]*ledger.ExchangeRequest),
	}
}

// FailNextCommits makes the next n commits report ledger.ErrConflict.
func (s *Store) FailNextCommits(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.failCommits = n
}

// now returns a strictly increasing timestamp. Callers hold s.mu.
func (s *Store) now() time.Time {
	t := time.Now().UTC()
	if !t.After(s.last) {
		t = s.last.Add(time.Microsecond)
	}

	s.last = t

	return t
}

func (s *Store) CreateAccount(_ context.Context, a *ledger.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[a.ID]; ok {
		return fmt.Errorf("creating account %s: %w", a.ID, ledger.ErrAlreadyExists)
	}

	if a.Credits < 0 {
		return fmt.Errorf("creating account: negative credits: %w", ledger.ErrInvalidInput)
	}

	a.CreatedAt = s.now()
	s.accounts[a.ID] = cloneAccount(a)

	return nil
}

func (s *Store) GetAccount(_ context.Context, id string) (*ledger.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.accounts[id]
	if !ok {
		return nil, ledger.ErrNotFound
	}

	return cloneAccount(a), nil
}

func (s *Store) UpdateRole(_ context.Context, id string, role ledger.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[id]
	if !ok {
		return ledger.ErrNotFound
	}

	a.Role = role

	return nil
}

func (s *Store) ListAccounts(_ context.Context, limit int) ([]*ledger.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*ledger.Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		out = append(out, cloneAccount(a))
	}

	slices.SortFunc(out, func(a, b *ledger.Account) int { return b.CreatedAt.Compare(a.CreatedAt) })

	return truncate(out, limit), nil
}

func (s *Store) CreateBook(_ context.Context, b *ledger.Book) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}

	if _, ok := s.books[b.ID]; ok {
		return fmt.Errorf("creating book %s: %w", b.ID, ledger.ErrAlreadyExists)
	}

	b.CreatedAt = s.now()
	b.UpdatedAt = b.CreatedAt
	s.books[b.ID] = cloneBook(b)

	return nil
}

func (s *Store) GetBook(_ context.Context, id uuid.UUID) (*ledger.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.books[id]
	if !ok {
		return nil, ledger.ErrNotFound
	}

	return cloneBook(b), nil
}

func (s *Store) ListBooks(_ context.Context, filter ledger.BookFilter) ([]*ledger.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*ledger.Book

	for _, b := range s.books {
		if filter.SellerID != nil && b.SellerID != *filter.SellerID {
			continue
		}

		if filter.Status != nil && b.Status != *filter.Status {
			continue
		}

		if filter.ApprovalStatus != nil && b.ApprovalStatus != *filter.ApprovalStatus {
			continue
		}

		out = append(out, cloneBook(b))
	}

	slices.SortFunc(out, func(a, b *ledger.Book) int { return b.CreatedAt.Compare(a.CreatedAt) })

	return truncate(out, filter.Limit), nil
}

func (s *Store) CreateRequest(_ context.Context, r *ledger.ExchangeRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}

	r.CreatedAt = s.now()
	r.UpdatedAt = r.CreatedAt
	s.requests[r.ID] = cloneRequest(r)

	return nil
}

func (s *Store) GetRequest(_ context.Context, id uuid.UUID) (*ledger.ExchangeRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.requests[id]
	if !ok {
		return nil, ledger.ErrNotFound
	}

	return cloneRequest(r), nil
}

func (s *Store) ListRequests(_ context.Context, filter ledger.RequestFilter) ([]*ledger.ExchangeRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*ledger.ExchangeRequest

	for _, r := range s.requests {
		if filter.OwnerID != nil && r.OwnerID != *filter.OwnerID {
			continue
		}

		if filter.RequesterID != nil && r.RequesterID != *filter.RequesterID {
			continue
		}

		if filter.BookID != nil && r.BookID != *filter.BookID {
			continue
		}

		if filter.Status != nil && r.Status != *filter.Status {
			continue
		}

		out = append(out, cloneRequest(r))
	}

	slices.SortFunc(out, func(a, b *ledger.ExchangeRequest) int { return b.CreatedAt.Compare(a.CreatedAt) })

	return truncate(out, filter.Limit), nil
}

func (s *Store) ListRecords(_ context.Context, filter ledger.RecordFilter) ([]*ledger.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*ledger.Record

	for i := len(s.records) - 1; i >= 0; i-- {
		r := s.records[i]
		if filter.BuyerID != nil && r.BuyerID != *filter.BuyerID {
			continue
		}

		if filter.SellerID != nil && r.SellerID != *filter.SellerID {
			continue
		}

		c := *r
		out = append(out, &c)
	}

	return truncate(out, filter.Limit), nil
}

func (s *Store) Count(_ context.Context, e ledger.Entity) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	switch e {
	case ledger.EntityAccounts:
		return int64(len(s.accounts)), nil
	case ledger.EntityBooks:
		return int64(len(s.books)), nil
	case ledger.EntityRequests:
		return int64(len(s.requests)), nil
	case ledger.EntityRecords:
		return int64(len(s.records)), nil
	}

	return 0, fmt.Errorf("unknown entity %q", e)
}

func (s *Store) PlatformRevenue(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total int64
	for _, r := range s.records {
		total += r.PlatformFee
	}

	return total, nil
}

func truncate[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}

	return items
}

func cloneAccount(a *ledger.Account) *ledger.Account {
	c := *a
	return &c
}

func cloneBook(b *ledger.Book) *ledger.Book {
	c := *b
	c.Authors = slices.Clone(b.Authors)

	return &c
}

func cloneRequest(r *ledger.ExchangeRequest) *ledger.ExchangeRequest {
	c := *r
	return &c
}

func sortedIDs(ids []string) []string {
	out := slices.Clone(ids)
	slices.Sort(out)

	return slices.Compact(out)
}
