package ledger

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrAccountNotFound     = errors.New("account not found")
	ErrBookUnavailable     = errors.New("book unavailable")
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrRequestNotFound     = errors.New("exchange request not found")
	ErrInvalidState        = errors.New("invalid state")
	ErrConflict            = errors.New("concurrent modification conflict")

	// ErrNotFound and ErrAlreadyExists are returned by stores. Services translate
	// them into the more specific errors above where the entity is known.
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
)

// InsufficientCreditsError carries the amounts behind a failed debit.
type InsufficientCreditsError struct {
	Required  int64
	Available int64
}

func (e *InsufficientCreditsError) Error() string {
	return fmt.Sprintf("insufficient credits: %d required, %d available", e.Required, e.Available)
}

func (e *InsufficientCreditsError) Unwrap() error {
	return ErrInsufficientCredits
}

func (e *InsufficientCreditsError) Shortfall() int64 {
	return e.Required - e.Available
}

// Kind is the closed set of failure categories callers branch on.
type Kind int

const (
	KindInternal Kind = iota
	KindInvalidInput
	KindNotFound
	KindAccountNotFound
	KindBookUnavailable
	KindInsufficientCredits
	KindRequestNotFound
	KindInvalidState
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindNotFound:
		return "not_found"
	case KindAccountNotFound:
		return "account_not_found"
	case KindBookUnavailable:
		return "book_unavailable"
	case KindInsufficientCredits:
		return "insufficient_credits"
	case KindRequestNotFound:
		return "request_not_found"
	case KindInvalidState:
		return "invalid_state"
	case KindConflict:
		return "conflict"
	}

	return "internal"
}

var kinds = []struct {
	err  error
	kind Kind
}{
	{ErrInsufficientCredits, KindInsufficientCredits},
	{ErrAccountNotFound, KindAccountNotFound},
	{ErrBookUnavailable, KindBookUnavailable},
	{ErrRequestNotFound, KindRequestNotFound},
	{ErrInvalidState, KindInvalidState},
	{ErrConflict, KindConflict},
	{ErrInvalidInput, KindInvalidInput},
	{ErrNotFound, KindNotFound},
	{ErrAlreadyExists, KindInvalidInput},
}

// KindOf classifies err. Errors outside the taxonomy are KindInternal.
func KindOf(err error) Kind {
	if err == nil {
		return KindInternal
	}

	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}

	return KindInternal
}
