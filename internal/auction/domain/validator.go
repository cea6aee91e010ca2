package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ValidateBid decides accept/reject for a proposed bid against an auction
// snapshot. Pure: no side effects on rejection, and acceptance (nil) is only
// provisional — the snapshot may be stale, so the ledger re-runs this check
// against the freshly locked row before committing.
//
// Checks run in a fixed order; the first failure wins.
func ValidateBid(a *Auction, bidderID uuid.UUID, amount decimal.Decimal, now time.Time) error {
	if a == nil {
		return ErrAuctionNotFound
	}
	if now.Before(a.StartTime) {
		return ErrAuctionNotStarted
	}
	if a.HasEnded(now) {
		return ErrAuctionEnded
	}
	if bidderID == a.SellerID {
		return ErrSelfBid
	}
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if amount.LessThanOrEqual(a.CurrentPrice) {
		return NewBidTooLow(a.CurrentPrice)
	}
	return nil
}
