package ledger

import (
	"context"

	"github.com/google/uuid"
)

//go:generate mockgen -source=repository.go -destination=repository_mock.go -package=ledger
type Repository interface {
	// Begin opens an atomic unit. Every balance, status or record write goes through it.
	Begin(ctx context.Context) (Tx, error)

	CreateAccount(ctx context.Context, a *Account) error
	GetAccount(ctx context.Context, id string) (*Account, error)
	UpdateRole(ctx context.Context, id string, role Role) error
	ListAccounts(ctx context.Context, limit int) ([]*Account, error)

	CreateBook(ctx context.Context, b *Book) error
	GetBook(ctx context.Context, id uuid.UUID) (*Book, error)
	ListBooks(ctx context.Context, filter BookFilter) ([]*Book, error)

	CreateRequest(ctx context.Context, r *ExchangeRequest) error
	GetRequest(ctx context.Context, id uuid.UUID) (*ExchangeRequest, error)
	ListRequests(ctx context.Context, filter RequestFilter) ([]*ExchangeRequest, error)

	ListRecords(ctx context.Context, filter RecordFilter) ([]*Record, error)

	Count(ctx context.Context, e Entity) (int64, error)
	PlatformRevenue(ctx context.Context) (int64, error)
}

// Tx is one atomic unit against the store. Rows returned by the ForUpdate
// methods stay locked until Commit or Rollback.
type Tx interface {
	BookForUpdate(ctx context.Context, id uuid.UUID) (*Book, error)
	RequestForUpdate(ctx context.Context, id uuid.UUID) (*ExchangeRequest, error)
	// AccountsForUpdate locks the given accounts in ascending id order. A missing
	// account fails the whole call with ErrNotFound.
	AccountsForUpdate(ctx context.Context, ids ...string) (map[string]*Account, error)

	UpdateAccount(ctx context.Context, a *Account) error
	UpdateBook(ctx context.Context, b *Book) error
	UpdateRequestStatus(ctx context.Context, id uuid.UUID, status RequestStatus) error
	InsertRecord(ctx context.Context, r *Record) error

	Commit() error
	Rollback() error
}

// Entity names a countable collection for dashboard statistics.
type Entity string

const (
	EntityAccounts Entity = "accounts"
	EntityBooks    Entity = "books"
	EntityRequests Entity = "requests"
	EntityRecords  Entity = "records"
)

// BookFilter selects books. Nil fields match everything. Results are newest first.
type BookFilter struct {
	SellerID       *string
	Status         *BookStatus
	ApprovalStatus *ApprovalStatus
	Limit          int
}

// RequestFilter selects exchange requests, newest first.
type RequestFilter struct {
	OwnerID     *string
	RequesterID *string
	BookID      *uuid.UUID
	Status      *RequestStatus
	Limit       int
}

// RecordFilter selects transaction records, newest first.
type RecordFilter struct {
	BuyerID  *string
	SellerID *string
	Limit    int
}
