package readmodel_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/bookxchange/internal/approval"
	"github.com/MrJamesThe3rd/bookxchange/internal/catalog"
	"github.com/MrJamesThe3rd/bookxchange/internal/exchange"
	"github.com/MrJamesThe3rd/bookxchange/internal/ledger"
	"github.com/MrJamesThe3rd/bookxchange/internal/ledger/memstore"
	"github.com/MrJamesThe3rd/bookxchange/internal/readmodel"
)

// market seeds three accounts and trades between them:
// alice sells Dune to bob, bob sells Emma to alice, carol has one pending listing.
func market(t *testing.T) (*memstore.Store, *readmodel.Service) {
	t.Helper()

	ctx := context.Background()
	store := memstore.New()
	runner := ledger.NewRunner(store, ledger.WithBackoff(0))
	approvals := approval.NewService(runner, nil, nil)
	engine := exchange.NewService(runner)

	for _, id := range []string{"alice", "bob", "carol"} {
		require.NoError(t, store.CreateAccount(ctx, &ledger.Account{ID: id, DisplayName: id, Role: ledger.RoleUser, Credits: 100}))
	}

	list := func(seller, title string, price int64) *ledger.Book {
		b, err := approvals.SubmitListing(ctx, catalog.Listing{SellerID: seller, Title: title})
		require.NoError(t, err)

		if price > 0 {
			require.NoError(t, approvals.ApproveListing(ctx, b.ID, seller, price))
		}

		return b
	}

	dune := list("alice", "Dune", 20)
	emma := list("bob", "Emma", 40)
	list("alice", "Ulysses", 10)
	list("carol", "Beloved", 0)

	_, err := engine.Purchase(ctx, dune.ID, "bob", "")
	require.NoError(t, err)

	reqID, err := engine.CreateRequest(ctx, emma.ID, "alice", "", 40)
	require.NoError(t, err)

	_, err = engine.AcceptRequest(ctx, reqID)
	require.NoError(t, err)

	_, err = engine.CreateRequest(ctx, emma.ID, "carol", "", 40)
	require.NoError(t, err)

	return store, readmodel.NewService(store, nil)
}

func TestService_ListPending(t *testing.T) {
	_, svc := market(t)

	pending := svc.ListPending(context.Background())
	require.Len(t, pending, 1)
	assert.Equal(t, "Beloved", pending[0].Title)
}

func TestService_Browse(t *testing.T) {
	_, svc := market(t)

	books := svc.Browse(context.Background())
	require.Len(t, books, 1)
	assert.Equal(t, "Ulysses", books[0].Title)
}

func TestService_ListByUser(t *testing.T) {
	_, svc := market(t)

	seller, err := svc.ListByUser(context.Background(), "alice", readmodel.SideSeller)
	require.NoError(t, err)
	require.Len(t, seller.Books, 2)
	assert.Equal(t, "Ulysses", seller.Books[0].Title, "newest first")
	assert.Equal(t, "Dune", seller.Books[1].Title)
	assert.Empty(t, seller.Records)

	buyer, err := svc.ListByUser(context.Background(), "alice", readmodel.SideBuyer)
	require.NoError(t, err)
	require.Len(t, buyer.Records, 1)
	assert.Equal(t, "Emma", buyer.Records[0].BookTitle)

	_, err = svc.ListByUser(context.Background(), "alice", "lender")
	assert.ErrorIs(t, err, ledger.ErrInvalidInput)
}

func TestService_ListTransactions(t *testing.T) {
	_, svc := market(t)

	recs := svc.ListTransactions(context.Background(), "alice")
	require.Len(t, recs, 2)

	assert.Equal(t, "Emma", recs[0].BookTitle)
	assert.Equal(t, "Dune", recs[1].BookTitle)
	assert.True(t, recs[0].Timestamp.After(recs[1].Timestamp))

	assert.Len(t, svc.Sales(context.Background(), "alice"), 1)
	assert.Empty(t, svc.ListTransactions(context.Background(), "carol"))
}

func TestService_GetStats(t *testing.T) {
	_, svc := market(t)

	st := svc.GetStats(context.Background())
	assert.Equal(t, readmodel.Stats{
		Users:        3,
		Books:        4,
		Transactions: 2,
		Requests:     2,
		Revenue:      2 + 4,
	}, st)
}

func TestService_UserExchanges(t *testing.T) {
	_, svc := market(t)

	bob := svc.UserExchanges(context.Background(), "bob")
	assert.Len(t, bob.Incoming, 2)
	assert.Empty(t, bob.Outgoing)

	carol := svc.UserExchanges(context.Background(), "carol")
	assert.Empty(t, carol.Incoming)
	require.Len(t, carol.Outgoing, 1)
	assert.Equal(t, ledger.RequestRequested, carol.Outgoing[0].Status)
}

func TestService_AdminLists(t *testing.T) {
	_, svc := market(t)

	assert.Len(t, svc.RecentTransactions(context.Background(), 0), 2)
	assert.Len(t, svc.RecentTransactions(context.Background(), 1), 1)
	assert.Len(t, svc.RecentRequests(context.Background(), 0), 2)
	assert.Len(t, svc.ListAccounts(context.Background(), 2), 2)
	assert.Len(t, svc.ListAccounts(context.Background(), 0), 3)
}

func TestService_DegradesOnStoreFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	boom := errors.New("connection refused")

	repo := ledger.NewMockRepository(ctrl)
	repo.EXPECT().ListBooks(gomock.Any(), gomock.Any()).Return(nil, boom).AnyTimes()
	repo.EXPECT().ListRecords(gomock.Any(), gomock.Any()).Return(nil, boom).AnyTimes()
	repo.EXPECT().ListRequests(gomock.Any(), gomock.Any()).Return(nil, boom).AnyTimes()
	repo.EXPECT().ListAccounts(gomock.Any(), gomock.Any()).Return(nil, boom).AnyTimes()
	repo.EXPECT().Count(gomock.Any(), gomock.Any()).Return(int64(9), nil).AnyTimes()
	repo.EXPECT().PlatformRevenue(gomock.Any()).Return(int64(0), boom).AnyTimes()

	svc := readmodel.NewService(repo, nil)
	ctx := context.Background()

	assert.NotNil(t, svc.ListPending(ctx))
	assert.Empty(t, svc.ListPending(ctx))
	assert.Empty(t, svc.Browse(ctx))
	assert.Empty(t, svc.ListTransactions(ctx, "alice"))
	assert.Empty(t, svc.Sales(ctx, "alice"))
	assert.Empty(t, svc.RecentRequests(ctx, 0))
	assert.Empty(t, svc.ListAccounts(ctx, 0))
	assert.Equal(t, readmodel.Stats{}, svc.GetStats(ctx), "one failing aggregate zeroes the rest")

	ex := svc.UserExchanges(ctx, "alice")
	assert.NotNil(t, ex.Incoming)
	assert.Empty(t, ex.Outgoing)

	items, err := svc.ListByUser(ctx, "alice", readmodel.SideSeller)
	require.NoError(t, err)
	assert.Empty(t, items.Books)
}
