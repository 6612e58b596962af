package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/MrJamesThe3rd/bookxchange/internal/ledger"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

const selectAccountColumns = `id, display_name, role, credits, books_listed, books_sold, created_at`

func scanAccount(s scanner) (*ledger.Account, error) {
	var a ledger.Account

	var role string

	if err := s.Scan(&a.ID, &a.DisplayName, &role, &a.Credits, &a.BooksListed, &a.BooksSold, &a.CreatedAt); err != nil {
		return nil, err
	}

	r, err := ledger.ParseRole(role)
	if err != nil {
		return nil, err
	}

	a.Role = r

	return &a, nil
}

const selectBookColumns = `
	id, seller_id, isbn, title, authors, description, condition, cover_url,
	credits, status, approval_status, created_at, updated_at
`

// scanBook reads a book row. Column order follows selectBookColumns.
func scanBook(s scanner) (*ledger.Book, error) {
	var b ledger.Book

	var authors []byte

	var condition, status, approval string

	if err := s.Scan(
		&b.ID, &b.SellerID, &b.ISBN, &b.Title, &authors, &b.Description, &condition, &b.CoverURL,
		&b.Credits, &status, &approval, &b.CreatedAt, &b.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(authors, &b.Authors); err != nil {
		return nil, fmt.Errorf("decoding authors: %w", err)
	}

	var err error

	if b.Status, err = ledger.ParseBookStatus(status); err != nil {
		return nil, err
	}

	if b.ApprovalStatus, err = ledger.ParseApprovalStatus(approval); err != nil {
		return nil, err
	}

	b.Condition = ledger.Condition(condition)

	return &b, nil
}

const selectRequestColumns = `
	id, book_id, book_title, requester_id, requester_name, owner_id, owner_name,
	status, credits_cost, created_at, updated_at
`

func scanRequest(s scanner) (*ledger.ExchangeRequest, error) {
	var r ledger.ExchangeRequest

	var status string

	if err := s.Scan(
		&r.ID, &r.BookID, &r.BookTitle, &r.RequesterID, &r.RequesterName, &r.OwnerID, &r.OwnerName,
		&status, &r.CreditsCost, &r.CreatedAt, &r.UpdatedAt,
	); err != nil {
		return nil, err
	}

	st, err := ledger.ParseRequestStatus(status)
	if err != nil {
		return nil, err
	}

	r.Status = st

	return &r, nil
}

const selectRecordColumns = `
	id, book_id, book_title, book_cover_url, buyer_id, buyer_name, seller_id, seller_name,
	base_price, buyer_paid, seller_received, platform_fee, source, request_id, created_at
`

func scanRecord(s scanner) (*ledger.Record, error) {
	var r ledger.Record

	var source string

	if err := s.Scan(
		&r.ID, &r.BookID, &r.BookTitle, &r.BookCoverURL, &r.BuyerID, &r.BuyerName, &r.SellerID, &r.SellerName,
		&r.BasePrice, &r.BuyerPaid, &r.SellerReceived, &r.PlatformFee, &source, &r.RequestID, &r.Timestamp,
	); err != nil {
		return nil, err
	}

	r.Source = ledger.Source(source)

	return &r, nil
}

// mapError translates driver errors into ledger errors. Serialization failures
// and deadlocks become ErrConflict so the runner can retry the unit.
func mapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return ledger.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case "40001", "40P01":
		return fmt.Errorf("%s: %w", pgErr.Message, ledger.ErrConflict)
	case "23505":
		return fmt.Errorf("%s: %w", pgErr.ConstraintName, ledger.ErrAlreadyExists)
	case "23514":
		return fmt.Errorf("%s: %w", pgErr.ConstraintName, ledger.ErrInvalidInput)
	case "23503":
		return fmt.Errorf("%s: %w", pgErr.ConstraintName, ledger.ErrNotFound)
	}

	return err
}

func (s *Store) CreateAccount(ctx context.Context, a *ledger.Account) error {
	query := `
		INSERT INTO users (id, display_name, role, credits, books_listed, books_sold, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING created_at
	`

	err := s.db.QueryRowContext(ctx, query,
		a.ID, a.DisplayName, a.Role, a.Credits, a.BooksListed, a.BooksSold,
	).Scan(&a.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating account: %w", mapError(err))
	}

	return nil
}

func (s *Store) GetAccount(ctx context.Context, id string) (*ledger.Account, error) {
	query := `SELECT ` + selectAccountColumns + ` FROM users WHERE id = $1`

	a, err := scanAccount(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ledger.ErrNotFound
		}

		return nil, fmt.Errorf("getting account: %w", err)
	}

	return a, nil
}

func (s *Store) UpdateRole(ctx context.Context, id string, role ledger.Role) error {
	res, err := s.db.ExecContext(ctx, `UPDATE users SET role = $1 WHERE id = $2`, role, id)
	if err != nil {
		return fmt.Errorf("updating role: %w", mapError(err))
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating role: %w", err)
	}

	if n == 0 {
		return ledger.ErrNotFound
	}

	return nil
}

func (s *Store) ListAccounts(ctx context.Context, limit int) ([]*ledger.Account, error) {
	query := `SELECT ` + selectAccountColumns + ` FROM users ORDER BY created_at DESC`

	var args []any
	if limit > 0 {
		query += ` LIMIT $1`

		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing accounts: %w", err)
	}
	defer rows.Close()

	var out []*ledger.Account

	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning account: %w", err)
		}

		out = append(out, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating accounts: %w", err)
	}

	return out, nil
}

func (s *Store) CreateBook(ctx context.Context, b *ledger.Book) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}

	authors, err := json.Marshal(nonNil(b.Authors))
	if err != nil {
		return fmt.Errorf("encoding authors: %w", err)
	}

	query := `
		INSERT INTO books (id, seller_id, isbn, title, authors, description, condition, cover_url,
			credits, status, approval_status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
		RETURNING created_at, updated_at
	`

	err = s.db.QueryRowContext(ctx, query,
		b.ID, b.SellerID, b.ISBN, b.Title, authors, b.Description, b.Condition, b.CoverURL,
		b.Credits, b.Status, b.ApprovalStatus,
	).Scan(&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("creating book: %w", mapError(err))
	}

	return nil
}

func (s *Store) GetBook(ctx context.Context, id uuid.UUID) (*ledger.Book, error) {
	query := `SELECT ` + selectBookColumns + ` FROM books WHERE id = $1`

	b, err := scanBook(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ledger.ErrNotFound
		}

		return nil, fmt.Errorf("getting book: %w", err)
	}

	return b, nil
}

func (s *Store) ListBooks(ctx context.Context, filter ledger.BookFilter) ([]*ledger.Book, error) {
	query := `SELECT ` + selectBookColumns + ` FROM books WHERE TRUE`

	var args []any

	argIdx := 1

	if filter.SellerID != nil {
		query += fmt.Sprintf(" AND seller_id = $%d", argIdx)

		args = append(args, *filter.SellerID)
		argIdx++
	}

	if filter.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argIdx)

		args = append(args, *filter.Status)
		argIdx++
	}

	if filter.ApprovalStatus != nil {
		query += fmt.Sprintf(" AND approval_status = $%d", argIdx)

		args = append(args, *filter.ApprovalStatus)
		argIdx++
	}

	query += " ORDER BY created_at DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)

		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing books: %w", err)
	}
	defer rows.Close()

	var out []*ledger.Book

	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning book: %w", err)
		}

		out = append(out, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating books: %w", err)
	}

	return out, nil
}

func (s *Store) CreateRequest(ctx context.Context, r *ledger.ExchangeRequest) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}

	query := `
		INSERT INTO exchange_requests (id, book_id, book_title, requester_id, requester_name,
			owner_id, owner_name, status, credits_cost, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
		RETURNING created_at, updated_at
	`

	err := s.db.QueryRowContext(ctx, query,
		r.ID, r.BookID, r.BookTitle, r.RequesterID, r.RequesterName,
		r.OwnerID, r.OwnerName, r.Status, r.CreditsCost,
	).Scan(&r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return fmt.Errorf("creating exchange request: %w", mapError(err))
	}

	return nil
}

func (s *Store) GetRequest(ctx context.Context, id uuid.UUID) (*ledger.ExchangeRequest, error) {
	query := `SELECT ` + selectRequestColumns + ` FROM exchange_requests WHERE id = $1`

	r, err := scanRequest(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ledger.ErrNotFound
		}

		return nil, fmt.Errorf("getting exchange request: %w", err)
	}

	return r, nil
}

func (s *Store) ListRequests(ctx context.Context, filter ledger.RequestFilter) ([]*ledger.ExchangeRequest, error) {
	query := `SELECT ` + selectRequestColumns + ` FROM exchange_requests WHERE TRUE`

	var args []any

	argIdx := 1

	if filter.OwnerID != nil {
		query += fmt.Sprintf(" AND owner_id = $%d", argIdx)

		args = append(args, *filter.OwnerID)
		argIdx++
	}

	if filter.RequesterID != nil {
		query += fmt.Sprintf(" AND requester_id = $%d", argIdx)

		args = append(args, *filter.RequesterID)
		argIdx++
	}

	if filter.BookID != nil {
		query += fmt.Sprintf(" AND book_id = $%d", argIdx)

		args = append(args, *filter.BookID)
		argIdx++
	}

	if filter.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argIdx)

		args = append(args, *filter.Status)
		argIdx++
	}

	query += " ORDER BY created_at DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)

		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing exchange requests: %w", err)
	}
	defer rows.Close()

	var out []*ledger.ExchangeRequest

	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning exchange request: %w", err)
		}

		out = append(out, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating exchange requests: %w", err)
	}

	return out, nil
}

func (s *Store) ListRecords(ctx context.Context, filter ledger.RecordFilter) ([]*ledger.Record, error) {
	query := `SELECT ` + selectRecordColumns + ` FROM transactions WHERE TRUE`

	var args []any

	argIdx := 1

	if filter.BuyerID != nil {
		query += fmt.Sprintf(" AND buyer_id = $%d", argIdx)

		args = append(args, *filter.BuyerID)
		argIdx++
	}

	if filter.SellerID != nil {
		query += fmt.Sprintf(" AND seller_id = $%d", argIdx)

		args = append(args, *filter.SellerID)
		argIdx++
	}

	query += " ORDER BY created_at DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)

		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}
	defer rows.Close()

	var out []*ledger.Record

	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}

		out = append(out, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating transactions: %w", err)
	}

	return out, nil
}

var countQueries = map[ledger.Entity]string{
	ledger.EntityAccounts: `SELECT COUNT(*) FROM users`,
	ledger.EntityBooks:    `SELECT COUNT(*) FROM books`,
	ledger.EntityRequests: `SELECT COUNT(*) FROM exchange_requests`,
	ledger.EntityRecords:  `SELECT COUNT(*) FROM transactions`,
}

func (s *Store) Count(ctx context.Context, e ledger.Entity) (int64, error) {
	query, ok := countQueries[e]
	if !ok {
		return 0, fmt.Errorf("unknown entity %q", e)
	}

	var n int64
	if err := s.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting %s: %w", e, err)
	}

	return n, nil
}

func (s *Store) PlatformRevenue(ctx context.Context) (int64, error) {
	var total int64
	if err := s.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(platform_fee), 0) FROM transactions`).Scan(&total); err != nil {
		return 0, fmt.Errorf("summing platform fees: %w", err)
	}

	return total, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}

	return s
}
