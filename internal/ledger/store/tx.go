package store

import (
	"context"
	"database/sql"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/bookxchange/internal/ledger"
)

// ledgerTx runs at REPEATABLE READ. Concurrent writers to the same rows either
// block on the FOR UPDATE locks or fail with a serialization error, which
// mapError turns into ledger.ErrConflict.
type ledgerTx struct {
	tx *sql.Tx
}

func (s *Store) Begin(ctx context.Context) (ledger.Tx, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead})
	if err != nil {
		return nil, fmt.Errorf("beginning ledger tx: %w", mapError(err))
	}

	return &ledgerTx{tx: tx}, nil
}

func (t *ledgerTx) Commit() error {
	return mapError(t.tx.Commit())
}

func (t *ledgerTx) Rollback() error { return t.tx.Rollback() }

func (t *ledgerTx) BookForUpdate(ctx context.Context, id uuid.UUID) (*ledger.Book, error) {
	query := `SELECT ` + selectBookColumns + ` FROM books WHERE id = $1 FOR UPDATE`

	b, err := scanBook(t.tx.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("locking book: %w", mapError(err))
	}

	return b, nil
}

func (t *ledgerTx) RequestForUpdate(ctx context.Context, id uuid.UUID) (*ledger.ExchangeRequest, error) {
	query := `SELECT ` + selectRequestColumns + ` FROM exchange_requests WHERE id = $1 FOR UPDATE`

	r, err := scanRequest(t.tx.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("locking exchange request: %w", mapError(err))
	}

	return r, nil
}

func (t *ledgerTx) AccountsForUpdate(ctx context.Context, ids ...string) (map[string]*ledger.Account, error) {
	sorted := slices.Clone(ids)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	query := `SELECT ` + selectAccountColumns + ` FROM users WHERE id = $1 FOR UPDATE`
	out := make(map[string]*ledger.Account, len(sorted))

	// One row at a time in id order so two units touching the same pair of
	// accounts always queue on the same lock first.
	for _, id := range sorted {
		a, err := scanAccount(t.tx.QueryRowContext(ctx, query, id))
		if err != nil {
			return nil, fmt.Errorf("locking account %s: %w", id, mapError(err))
		}

		out[id] = a
	}

	return out, nil
}

func (t *ledgerTx) UpdateAccount(ctx context.Context, a *ledger.Account) error {
	query := `
		UPDATE users
		SET credits = $1, books_listed = $2, books_sold = $3
		WHERE id = $4
	`

	if _, err := t.tx.ExecContext(ctx, query, a.Credits, a.BooksListed, a.BooksSold, a.ID); err != nil {
		return fmt.Errorf("updating account: %w", mapError(err))
	}

	return nil
}

func (t *ledgerTx) UpdateBook(ctx context.Context, b *ledger.Book) error {
	query := `
		UPDATE books
		SET credits = $1, status = $2, approval_status = $3, updated_at = NOW()
		WHERE id = $4
		RETURNING updated_at
	`

	if err := t.tx.QueryRowContext(ctx, query, b.Credits, b.Status, b.ApprovalStatus, b.ID).Scan(&b.UpdatedAt); err != nil {
		return fmt.Errorf("updating book: %w", mapError(err))
	}

	return nil
}

func (t *ledgerTx) UpdateRequestStatus(ctx context.Context, id uuid.UUID, status ledger.RequestStatus) error {
	query := `UPDATE exchange_requests SET status = $1, updated_at = NOW() WHERE id = $2`

	if _, err := t.tx.ExecContext(ctx, query, status, id); err != nil {
		return fmt.Errorf("updating exchange request: %w", mapError(err))
	}

	return nil
}

func (t *ledgerTx) InsertRecord(ctx context.Context, r *ledger.Record) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}

	query := `
		INSERT INTO transactions (id, book_id, book_title, book_cover_url, buyer_id, buyer_name,
			seller_id, seller_name, base_price, buyer_paid, seller_received, platform_fee, source, request_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING created_at
	`

	err := t.tx.QueryRowContext(ctx, query,
		r.ID, r.BookID, r.BookTitle, r.BookCoverURL, r.BuyerID, r.BuyerName,
		r.SellerID, r.SellerName, r.BasePrice, r.BuyerPaid, r.SellerReceived, r.PlatformFee,
		r.Source, r.RequestID,
	).Scan(&r.Timestamp)
	if err != nil {
		return fmt.Errorf("inserting transaction: %w", mapError(err))
	}

	return nil
}
