package ledger_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/bookxchange/internal/ledger"
)

func TestRequestStatus_CanTransition(t *testing.T) {
	tests := []struct {
		from ledger.RequestStatus
		to   ledger.RequestStatus
		want bool
	}{
		{ledger.RequestRequested, ledger.RequestAccepted, true},
		{ledger.RequestRequested, ledger.RequestRejected, true},
		{ledger.RequestRequested, ledger.RequestCancelled, true},
		{ledger.RequestAccepted, ledger.RequestCancelled, false},
		{ledger.RequestRejected, ledger.RequestAccepted, false},
		{ledger.RequestCancelled, ledger.RequestRequested, false},
		{ledger.RequestRequested, ledger.RequestRequested, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransition(tt.to))
		})
	}
}

func TestTransitionBook_SoldIsTerminal(t *testing.T) {
	b := &ledger.Book{ID: uuid.New(), Status: ledger.BookAvailable}

	require.NoError(t, ledger.TransitionBook(b, ledger.BookSold))
	assert.Equal(t, ledger.BookSold, b.Status)

	err := ledger.TransitionBook(b, ledger.BookSold)
	assert.ErrorIs(t, err, ledger.ErrInvalidState)

	err = ledger.TransitionBook(b, ledger.BookAvailable)
	assert.ErrorIs(t, err, ledger.ErrInvalidState)
}

func TestTransitionApproval(t *testing.T) {
	b := &ledger.Book{ID: uuid.New(), ApprovalStatus: ledger.ApprovalPending}

	require.NoError(t, ledger.TransitionApproval(b, ledger.ApprovalRejected))

	err := ledger.TransitionApproval(b, ledger.ApprovalApproved)
	assert.ErrorIs(t, err, ledger.ErrInvalidState)
	assert.Equal(t, ledger.ApprovalRejected, b.ApprovalStatus)
}

func TestBook_Purchasable(t *testing.T) {
	b := ledger.Book{Status: ledger.BookAvailable, ApprovalStatus: ledger.ApprovalPending}
	assert.False(t, b.Purchasable())

	b.ApprovalStatus = ledger.ApprovalApproved
	assert.True(t, b.Purchasable())

	b.Status = ledger.BookSold
	assert.False(t, b.Purchasable())
}

func TestParse_RejectsUnknownValues(t *testing.T) {
	_, err := ledger.ParseBookStatus("reserved")
	assert.Error(t, err)

	_, err = ledger.ParseApprovalStatus("maybe")
	assert.Error(t, err)

	_, err = ledger.ParseRequestStatus("pending")
	assert.Error(t, err)

	_, err = ledger.ParseRole("root")
	assert.ErrorIs(t, err, ledger.ErrInvalidInput)

	c, err := ledger.ParseCondition("Like New")
	require.NoError(t, err)
	assert.Equal(t, ledger.ConditionLikeNew, c)
}
