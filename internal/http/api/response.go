package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/bookxchange/internal/ledger"
)

type AccountResponse struct {
	ID          string      `json:"id"`
	DisplayName string      `json:"display_name"`
	Role        ledger.Role `json:"role"`
	Credits     int64       `json:"credits"`
	BooksListed int64       `json:"books_listed"`
	BooksSold   int64       `json:"books_sold"`
	CreatedAt   time.Time   `json:"created_at"`
}

type BookResponse struct {
	ID             uuid.UUID             `json:"id"`
	SellerID       string                `json:"seller_id"`
	ISBN           string                `json:"isbn,omitempty"`
	Title          string                `json:"title"`
	Authors        []string              `json:"authors"`
	Description    string                `json:"description,omitempty"`
	Condition      ledger.Condition      `json:"condition"`
	CoverURL       string                `json:"cover_url,omitempty"`
	Credits        int64                 `json:"credits"`
	Status         ledger.BookStatus     `json:"status"`
	ApprovalStatus ledger.ApprovalStatus `json:"approval_status"`
	CreatedAt      time.Time             `json:"created_at"`
	UpdatedAt      time.Time             `json:"updated_at"`
}

type RequestResponse struct {
	ID            uuid.UUID            `json:"id"`
	BookID        uuid.UUID            `json:"book_id"`
	BookTitle     string               `json:"book_title"`
	RequesterID   string               `json:"requester_id"`
	RequesterName string               `json:"requester_name"`
	OwnerID       string               `json:"owner_id"`
	OwnerName     string               `json:"owner_name"`
	Status        ledger.RequestStatus `json:"status"`
	CreditsCost   int64                `json:"credits_cost"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

type RecordResponse struct {
	ID             uuid.UUID     `json:"id"`
	BookID         uuid.UUID     `json:"book_id"`
	BookTitle      string        `json:"book_title"`
	BookCoverURL   string        `json:"book_cover_url,omitempty"`
	BuyerID        string        `json:"buyer_id"`
	BuyerName      string        `json:"buyer_name"`
	SellerID       string        `json:"seller_id"`
	SellerName     string        `json:"seller_name"`
	BasePrice      int64         `json:"base_price"`
	BuyerPaid      int64         `json:"buyer_paid"`
	SellerReceived int64         `json:"seller_received"`
	PlatformFee    int64         `json:"platform_fee"`
	Source         ledger.Source `json:"source"`
	RequestID      *uuid.UUID    `json:"request_id,omitempty"`
	Timestamp      time.Time     `json:"timestamp"`
}

func ToAccount(a *ledger.Account) AccountResponse {
	return AccountResponse{
		ID:          a.ID,
		DisplayName: a.DisplayName,
		Role:        a.Role,
		Credits:     a.Credits,
		BooksListed: a.BooksListed,
		BooksSold:   a.BooksSold,
		CreatedAt:   a.CreatedAt,
	}
}

func ToBook(b *ledger.Book) BookResponse {
	authors := b.Authors
	if authors == nil {
		authors = []string{}
	}

	return BookResponse{
		ID:             b.ID,
		SellerID:       b.SellerID,
		ISBN:           b.ISBN,
		Title:          b.Title,
		Authors:        authors,
		Description:    b.Description,
		Condition:      b.Condition,
		CoverURL:       b.CoverURL,
		Credits:        b.Credits,
		Status:         b.Status,
		ApprovalStatus: b.ApprovalStatus,
		CreatedAt:      b.CreatedAt,
		UpdatedAt:      b.UpdatedAt,
	}
}

func ToRequest(r *ledger.ExchangeRequest) RequestResponse {
	return RequestResponse{
		ID:            r.ID,
		BookID:        r.BookID,
		BookTitle:     r.BookTitle,
		RequesterID:   r.RequesterID,
		RequesterName: r.RequesterName,
		OwnerID:       r.OwnerID,
		OwnerName:     r.OwnerName,
		Status:        r.Status,
		CreditsCost:   r.CreditsCost,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

func ToRecord(r *ledger.Record) RecordResponse {
	return RecordResponse{
		ID:             r.ID,
		BookID:         r.BookID,
		BookTitle:      r.BookTitle,
		BookCoverURL:   r.BookCoverURL,
		BuyerID:        r.BuyerID,
		BuyerName:      r.BuyerName,
		SellerID:       r.SellerID,
		SellerName:     r.SellerName,
		BasePrice:      r.BasePrice,
		BuyerPaid:      r.BuyerPaid,
		SellerReceived: r.SellerReceived,
		PlatformFee:    r.PlatformFee,
		Source:         r.Source,
		RequestID:      r.RequestID,
		Timestamp:      r.Timestamp,
	}
}

// List converts a slice, never returning nil so empty lists encode as [].
func List[T, R any](items []T, conv func(T) R) []R {
	out := make([]R, len(items))
	for i, it := range items {
		out[i] = conv(it)
	}

	return out
}
