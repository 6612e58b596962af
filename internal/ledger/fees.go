package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// feeRate is charged to each side of an exchange.
var feeRate = decimal.New(5, -2)

// Fees is the breakdown of a single exchange at a given base price.
type Fees struct {
	BuyerFee        int64
	SellerFee       int64
	BuyerTotal      int64
	SellerReceives  int64
	PlatformRevenue int64
}

// ComputeFees splits a base price into what the buyer pays, what the seller
// receives and what the platform keeps. Each side's fee is rounded up to a whole credit.
func ComputeFees(basePrice int64) (Fees, error) {
	if basePrice < 0 {
		return Fees{}, fmt.Errorf("negative price %d: %w", basePrice, ErrInvalidInput)
	}

	fee := decimal.NewFromInt(basePrice).Mul(feeRate).Ceil().IntPart()

	return Fees{
		BuyerFee:        fee,
		SellerFee:       fee,
		BuyerTotal:      basePrice + fee,
		SellerReceives:  basePrice - fee,
		PlatformRevenue: 2 * fee,
	}, nil
}
