package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Bid is an immutable, timestamped offer on an auction. Bids are append-only:
// never updated, never deleted while the auction exists.
type Bid struct {
	ID        uuid.UUID
	AuctionID uuid.UUID
	BidderID  uuid.UUID
	Amount    decimal.Decimal
	CreatedAt time.Time

	// BidderName is denormalized from the users table on read paths, empty
	// otherwise.
	BidderName string
}

// NewBid creates a new Bid instance.
func NewBid(auctionID, bidderID uuid.UUID, amount decimal.Decimal, createdAt time.Time) *Bid {
	return &Bid{
		ID:        uuid.New(),
		AuctionID: auctionID,
		BidderID:  bidderID,
		Amount:    amount,
		CreatedAt: createdAt,
	}
}

// Favorite is a (user, auction) pair, unique per pair, toggled on and off.
type Favorite struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	AuctionID uuid.UUID
	CreatedAt time.Time
}
