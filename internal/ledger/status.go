package ledger

import "fmt"

// BookStatus is the availability of a book. sold is terminal.
type BookStatus string

const (
	BookAvailable BookStatus = "available"
	BookSold      BookStatus = "sold"
)

// ApprovalStatus is the moderation state of a listing. approved and rejected are terminal.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// RequestStatus is the lifecycle state of an exchange request. Everything but requested is terminal.
type RequestStatus string

const (
	RequestRequested RequestStatus = "requested"
	RequestAccepted  RequestStatus = "accepted"
	RequestRejected  RequestStatus = "rejected"
	RequestCancelled RequestStatus = "cancelled"
)

var bookTransitions = map[BookStatus][]BookStatus{
	BookAvailable: {BookSold},
}

var approvalTransitions = map[ApprovalStatus][]ApprovalStatus{
	ApprovalPending: {ApprovalApproved, ApprovalRejected},
}

var requestTransitions = map[RequestStatus][]RequestStatus{
	RequestRequested: {RequestAccepted, RequestRejected, RequestCancelled},
}

func allowed[S comparable](table map[S][]S, from, to S) bool {
	for _, s := range table[from] {
		if s == to {
			return true
		}
	}

	return false
}

func (s BookStatus) CanTransition(to BookStatus) bool {
	return allowed(bookTransitions, s, to)
}

func (s ApprovalStatus) CanTransition(to ApprovalStatus) bool {
	return allowed(approvalTransitions, s, to)
}

func (s RequestStatus) CanTransition(to RequestStatus) bool {
	return allowed(requestTransitions, s, to)
}

// Terminal reports whether no further transition is possible.
func (s RequestStatus) Terminal() bool {
	return len(requestTransitions[s]) == 0
}

// TransitionBook moves b to the given status or fails with ErrInvalidState.
func TransitionBook(b *Book, to BookStatus) error {
	if !b.Status.CanTransition(to) {
		return fmt.Errorf("book %s: %s -> %s: %w", b.ID, b.Status, to, ErrInvalidState)
	}

	b.Status = to

	return nil
}

// TransitionApproval moves b to the given approval status or fails with ErrInvalidState.
func TransitionApproval(b *Book, to ApprovalStatus) error {
	if !b.ApprovalStatus.CanTransition(to) {
		return fmt.Errorf("book %s: %s -> %s: %w", b.ID, b.ApprovalStatus, to, ErrInvalidState)
	}

	b.ApprovalStatus = to

	return nil
}

// TransitionRequest moves r to the given status or fails with ErrInvalidState.
func TransitionRequest(r *ExchangeRequest, to RequestStatus) error {
	if !r.Status.CanTransition(to) {
		return fmt.Errorf("request %s: %s -> %s: %w", r.ID, r.Status, to, ErrInvalidState)
	}

	r.Status = to

	return nil
}

func ParseBookStatus(s string) (BookStatus, error) {
	switch v := BookStatus(s); v {
	case BookAvailable, BookSold:
		return v, nil
	}

	return "", fmt.Errorf("unknown book status %q", s)
}

func ParseApprovalStatus(s string) (ApprovalStatus, error) {
	switch v := ApprovalStatus(s); v {
	case ApprovalPending, ApprovalApproved, ApprovalRejected:
		return v, nil
	}

	return "", fmt.Errorf("unknown approval status %q", s)
}

func ParseRequestStatus(s string) (RequestStatus, error) {
	switch v := RequestStatus(s); v {
	case RequestRequested, RequestAccepted, RequestRejected, RequestCancelled:
		return v, nil
	}

	return "", fmt.Errorf("unknown request status %q", s)
}

func ParseRole(s string) (Role, error) {
	switch v := Role(s); v {
	case RoleUser, RoleAdmin:
		return v, nil
	}

	return "", fmt.Errorf("unknown role %q: %w", s, ErrInvalidInput)
}

func ParseCondition(s string) (Condition, error) {
	switch v := Condition(s); v {
	case ConditionNew, ConditionLikeNew, ConditionGood, ConditionFair, ConditionPoor:
		return v, nil
	}

	return "", fmt.Errorf("unknown condition %q: %w", s, ErrInvalidInput)
}
