package memstore

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/bookxchange/internal/ledger"
)

// tx stages writes and applies them to the store on Commit. Reads see the
// staged version first.
type tx struct {
	s    *Store
	done bool

	accounts map[string]*ledger.Account
	books    map[uuid.UUID]*ledger.Book
	requests map[uuid.UUID]*ledger.ExchangeRequest
	records  []*ledger.Record
}

func (s *Store) Begin(ctx context.Context) (ledger.Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.unit.Lock()

	return &tx{
		s:        s,
		accounts: make(map[string]*ledger.Account),
		books:    make(map[uuid.UUID]*ledger.Book),
		requests: make(map[uuid.UUID]*ledger.ExchangeRequest),
	}, nil
}

func (t *tx) BookForUpdate(_ context.Context, id uuid.UUID) (*ledger.Book, error) {
	if t.done {
		return nil, errTxDone
	}

	if b, ok := t.books[id]; ok {
		return cloneBook(b), nil
	}

	t.s.mu.RLock()
	defer t.s.mu.RUnlock()

	b, ok := t.s.books[id]
	if !ok {
		return nil, ledger.ErrNotFound
	}

	return cloneBook(b), nil
}

func (t *tx) RequestForUpdate(_ context.Context, id uuid.UUID) (*ledger.ExchangeRequest, error) {
	if t.done {
		return nil, errTxDone
	}

	if r, ok := t.requests[id]; ok {
		return cloneRequest(r), nil
	}

	t.s.mu.RLock()
	defer t.s.mu.RUnlock()

	r, ok := t.s.requests[id]
	if !ok {
		return nil, ledger.ErrNotFound
	}

	return cloneRequest(r), nil
}

func (t *tx) AccountsForUpdate(_ context.Context, ids ...string) (map[string]*ledger.Account, error) {
	if t.done {
		return nil, errTxDone
	}

	t.s.mu.RLock()
	defer t.s.mu.RUnlock()

	out := make(map[string]*ledger.Account, len(ids))

	for _, id := range sortedIDs(ids) {
		if a, ok := t.accounts[id]; ok {
			out[id] = cloneAccount(a)
			continue
		}

		a, ok := t.s.accounts[id]
		if !ok {
			return nil, fmt.Errorf("account %s: %w", id, ledger.ErrNotFound)
		}

		out[id] = cloneAccount(a)
	}

	return out, nil
}

func (t *tx) UpdateAccount(_ context.Context, a *ledger.Account) error {
	if t.done {
		return errTxDone
	}

	if a.Credits < 0 {
		return fmt.Errorf("account %s: credits would become %d: %w", a.ID, a.Credits, ledger.ErrInvalidInput)
	}

	t.accounts[a.ID] = cloneAccount(a)

	return nil
}

func (t *tx) UpdateBook(_ context.Context, b *ledger.Book) error {
	if t.done {
		return errTxDone
	}

	t.books[b.ID] = cloneBook(b)

	return nil
}

func (t *tx) UpdateRequestStatus(ctx context.Context, id uuid.UUID, status ledger.RequestStatus) error {
	r, err := t.RequestForUpdate(ctx, id)
	if err != nil {
		return err
	}

	if status == ledger.RequestAccepted && t.hasAccepted(r.BookID, id) {
		return fmt.Errorf("book %s already has an accepted request: %w", r.BookID, ledger.ErrAlreadyExists)
	}

	r.Status = status
	t.requests[id] = r

	return nil
}

func (t *tx) hasAccepted(bookID, except uuid.UUID) bool {
	for id, r := range t.requests {
		if id != except && r.BookID == bookID && r.Status == ledger.RequestAccepted {
			return true
		}
	}

	t.s.mu.RLock()
	defer t.s.mu.RUnlock()

	for id, r := range t.s.requests {
		if _, staged := t.requests[id]; staged {
			continue
		}

		if id != except && r.BookID == bookID && r.Status == ledger.RequestAccepted {
			return true
		}
	}

	return false
}

func (t *tx) InsertRecord(_ context.Context, r *ledger.Record) error {
	if t.done {
		return errTxDone
	}

	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}

	t.s.mu.Lock()
	r.Timestamp = t.s.now()
	t.s.mu.Unlock()

	c := *r
	t.records = append(t.records, &c)

	return nil
}

func (t *tx) Commit() error {
	if t.done {
		return errTxDone
	}

	t.done = true
	defer t.s.unit.Unlock()

	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	if t.s.failCommits > 0 {
		t.s.failCommits--
		return ledger.ErrConflict
	}

	now := t.s.now()

	// Only balances and counters move through a tx; roles change outside it.
	for id, a := range t.accounts {
		stored, ok := t.s.accounts[id]
		if !ok {
			continue
		}

		stored.Credits = a.Credits
		stored.BooksListed = a.BooksListed
		stored.BooksSold = a.BooksSold
	}

	for id, b := range t.books {
		b.UpdatedAt = now
		t.s.books[id] = b
	}

	for id, r := range t.requests {
		r.UpdatedAt = now
		t.s.requests[id] = r
	}

	t.s.records = append(t.s.records, t.records...)

	return nil
}

func (t *tx) Rollback() error {
	if t.done {
		return nil
	}

	t.done = true
	t.s.unit.Unlock()

	return nil
}
