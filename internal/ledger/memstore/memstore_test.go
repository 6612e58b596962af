package memstore_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/bookxchange/internal/ledger"
	"github.com/MrJamesThe3rd/bookxchange/internal/ledger/memstore"
)

func TestTx_CommitKeepsRoleChangedOutsideUnit(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()

	require.NoError(t, s.CreateAccount(ctx, &ledger.Account{ID: "ada", DisplayName: "Ada", Role: ledger.RoleUser}))

	tx, err := s.Begin(ctx)
	require.NoError(t, err)

	accs, err := tx.AccountsForUpdate(ctx, "ada")
	require.NoError(t, err)

	accs["ada"].Credits = 50
	accs["ada"].BooksSold = 1
	require.NoError(t, tx.UpdateAccount(ctx, accs["ada"]))

	require.NoError(t, s.UpdateRole(ctx, "ada", ledger.RoleAdmin))
	require.NoError(t, tx.Commit())

	got, err := s.GetAccount(ctx, "ada")
	require.NoError(t, err)
	assert.Equal(t, ledger.RoleAdmin, got.Role)
	assert.Equal(t, int64(50), got.Credits)
	assert.Equal(t, int64(1), got.BooksSold)
}

func TestTx_RollbackDiscardsStagedAccount(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()

	require.NoError(t, s.CreateAccount(ctx, &ledger.Account{ID: "ada", DisplayName: "Ada", Role: ledger.RoleUser, Credits: 10}))

	tx, err := s.Begin(ctx)
	require.NoError(t, err)

	accs, err := tx.AccountsForUpdate(ctx, "ada")
	require.NoError(t, err)

	accs["ada"].Credits = 0
	require.NoError(t, tx.UpdateAccount(ctx, accs["ada"]))
	require.NoError(t, tx.Rollback())

	got, err := s.GetAccount(ctx, "ada")
	require.NoError(t, err)
	assert.Equal(t, int64(10), got.Credits)
}
