package ledger

import (
	"time"

	"github.com/google/uuid"
)

// Role is the authorization role of an account.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Condition describes the physical condition a seller declares for a book.
type Condition string

const (
	ConditionNew     Condition = "New"
	ConditionLikeNew Condition = "Like New"
	ConditionGood    Condition = "Good"
	ConditionFair    Condition = "Fair"
	ConditionPoor    Condition = "Poor"
)

// Account is a user's credit wallet. ID is the opaque identity id issued by the
// identity provider.
type Account struct {
	ID          string
	DisplayName string
	Role        Role
	Credits     int64
	BooksListed int64
	BooksSold   int64
	CreatedAt   time.Time
}

// Book is a listed used book.
type Book struct {
	ID             uuid.UUID
	SellerID       string
	ISBN           string
	Title          string
	Authors        []string
	Description    string
	Condition      Condition
	CoverURL       string
	Credits        int64 // listed price, zero until approved
	Status         BookStatus
	ApprovalStatus ApprovalStatus
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Purchasable reports whether the book can be bought right now.
func (b *Book) Purchasable() bool {
	return b.Status == BookAvailable && b.ApprovalStatus == ApprovalApproved
}

// ExchangeRequest is a negotiated purchase awaiting the owner's decision.
type ExchangeRequest struct {
	ID            uuid.UUID
	BookID        uuid.UUID
	BookTitle     string
	RequesterID   string
	RequesterName string
	OwnerID       string
	OwnerName     string
	Status        RequestStatus
	CreditsCost   int64 // price snapshot taken when the request was created
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Source tells which flow produced a Record.
type Source string

const (
	SourcePurchase Source = "purchase"
	SourceRequest  Source = "request"
)

// Record is the immutable proof of a completed exchange.
type Record struct {
	ID             uuid.UUID
	BookID         uuid.UUID
	BookTitle      string
	BookCoverURL   string
	BuyerID        string
	BuyerName      string
	SellerID       string
	SellerName     string
	BasePrice      int64
	BuyerPaid      int64
	SellerReceived int64
	PlatformFee    int64
	Source         Source
	RequestID      *uuid.UUID
	Timestamp      time.Time // assigned by the store on insert
}
