package ledger_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/bookxchange/internal/ledger"
)

func TestComputeFees(t *testing.T) {
	tests := []struct {
		name  string
		price int64
		want  ledger.Fees
	}{
		{
			name:  "Hundred",
			price: 100,
			want:  ledger.Fees{BuyerFee: 5, SellerFee: 5, BuyerTotal: 105, SellerReceives: 95, PlatformRevenue: 10},
		},
		{
			name:  "OneRoundsUp",
			price: 1,
			want:  ledger.Fees{BuyerFee: 1, SellerFee: 1, BuyerTotal: 2, SellerReceives: 0, PlatformRevenue: 2},
		},
		{
			name:  "Zero",
			price: 0,
			want:  ledger.Fees{},
		},
		{
			name:  "FractionalFee",
			price: 30,
			want:  ledger.Fees{BuyerFee: 2, SellerFee: 2, BuyerTotal: 32, SellerReceives: 28, PlatformRevenue: 4},
		},
		{
			name:  "ExactMultiple",
			price: 40,
			want:  ledger.Fees{BuyerFee: 2, SellerFee: 2, BuyerTotal: 42, SellerReceives: 38, PlatformRevenue: 4},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ledger.ComputeFees(tt.price)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestComputeFees_Negative(t *testing.T) {
	_, err := ledger.ComputeFees(-1)
	assert.ErrorIs(t, err, ledger.ErrInvalidInput)
}

func TestComputeFees_Conserves(t *testing.T) {
	for price := int64(0); price <= 1000; price++ {
		f, err := ledger.ComputeFees(price)
		require.NoError(t, err)

		assert.Equal(t, f.BuyerTotal, f.SellerReceives+f.PlatformRevenue, "price %d", price)
		assert.GreaterOrEqual(t, f.SellerReceives, int64(0), "price %d", price)
	}
}
