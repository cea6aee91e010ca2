package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func liveAuction(now time.Time) *Auction {
	return &Auction{
		ID:            uuid.New(),
		Title:         "Vintage camera",
		Category:      CategoryCollectibles,
		StartingPrice: decimal.NewFromInt(100),
		CurrentPrice:  decimal.NewFromInt(150),
		StartTime:     now.Add(-time.Hour),
		EndTime:       now.Add(time.Hour),
		SellerID:      uuid.New(),
		Status:        StatusLive,
	}
}

func TestValidateBid(t *testing.T) {
	now := time.Now()
	bidder := uuid.New()

	tests := []struct {
		name          string
		mutate        func(a *Auction)
		bidder        func(a *Auction) uuid.UUID
		amount        decimal.Decimal
		expectedError error
	}{
		{
			name:   "accepted",
			amount: decimal.NewFromInt(160),
		},
		{
			name:          "not_started",
			mutate:        func(a *Auction) { a.StartTime = now.Add(time.Minute); a.Status = StatusUpcoming },
			amount:        decimal.NewFromInt(160),
			expectedError: ErrAuctionNotStarted,
		},
		{
			name:          "already_ended_by_time",
			mutate:        func(a *Auction) { a.EndTime = now.Add(-time.Minute) },
			amount:        decimal.NewFromInt(160),
			expectedError: ErrAuctionEnded,
		},
		{
			name:          "already_ended_by_frozen_status",
			mutate:        func(a *Auction) { a.Status = StatusEnded },
			amount:        decimal.NewFromInt(160),
			expectedError: ErrAuctionEnded,
		},
		{
			name:          "seller_self_bid",
			bidder:        func(a *Auction) uuid.UUID { return a.SellerID },
			amount:        decimal.NewFromInt(160),
			expectedError: ErrSelfBid,
		},
		{
			name:          "zero_amount",
			amount:        decimal.Zero,
			expectedError: ErrInvalidAmount,
		},
		{
			name:          "negative_amount",
			amount:        decimal.NewFromInt(-10),
			expectedError: ErrInvalidAmount,
		},
		{
			name:          "equal_to_current_price",
			amount:        decimal.NewFromInt(150),
			expectedError: ErrBidTooLow,
		},
		{
			name:          "below_current_price",
			amount:        decimal.NewFromFloat(149.99),
			expectedError: ErrBidTooLow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := liveAuction(now)
			if tt.mutate != nil {
				tt.mutate(a)
			}
			who := bidder
			if tt.bidder != nil {
				who = tt.bidder(a)
			}
			err := ValidateBid(a, who, tt.amount, now)
			if tt.expectedError != nil {
				require.ErrorIs(t, err, tt.expectedError)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestValidateBid_NilAuction(t *testing.T) {
	err := ValidateBid(nil, uuid.New(), decimal.NewFromInt(10), time.Now())
	require.ErrorIs(t, err, ErrAuctionNotFound)
}

// The first failing check wins: an ended auction rejects with already_ended
// even when the amount would also be too low.
func TestValidateBid_CheckOrder(t *testing.T) {
	now := time.Now()
	a := liveAuction(now)
	a.EndTime = now.Add(-time.Minute)

	err := ValidateBid(a, a.SellerID, decimal.Zero, now)
	require.ErrorIs(t, err, ErrAuctionEnded)
}

func TestValidateBid_TooLowCarriesCurrentPrice(t *testing.T) {
	now := time.Now()
	a := liveAuction(now)

	err := ValidateBid(a, uuid.New(), decimal.NewFromInt(120), now)

	var bidErr *BidError
	require.True(t, errors.As(err, &bidErr))
	require.Equal(t, ReasonTooLow, bidErr.Reason)
	require.True(t, bidErr.CurrentPrice.Equal(a.CurrentPrice))
	require.Contains(t, bidErr.Error(), "150.00")
}
