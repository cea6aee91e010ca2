package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// AuctionRepository owns persisted auction state. Methods taking a pgx.Tx run
// inside a transaction owned by the calling use case; the rest use the pool.
type AuctionRepository interface {
	Create(ctx context.Context, a *Auction) error
	GetByID(ctx context.Context, id uuid.UUID) (*Auction, error)
	// GetByIDForUpdate re-reads the auction row holding a row-level write
	// lock for the remainder of the transaction. Lock acquisition respects
	// the transaction's lock_timeout; timeouts surface as ErrConflict.
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*Auction, error)
	// UpdateCurrentPrice writes the new derived price inside the bid-commit
	// transaction.
	UpdateCurrentPrice(ctx context.Context, tx pgx.Tx, id uuid.UUID, price decimal.Decimal) error
	List(ctx context.Context) ([]*Auction, error)
	ListByStatus(ctx context.Context, status Status) ([]*Auction, error)
	// ListSchedulable returns all upcoming and live auctions, used to rebuild
	// scheduler timers from persisted state.
	ListSchedulable(ctx context.Context) ([]*Auction, error)
	// DueStarts / DueEnds return ids of auctions whose stored status is stale
	// relative to now.
	DueStarts(ctx context.Context, now time.Time) ([]uuid.UUID, error)
	DueEnds(ctx context.Context, now time.Time) ([]uuid.UUID, error)
	// MarkLive flips upcoming -> live iff the stored status is still
	// upcoming and the start time has passed. Returns nil when another
	// evaluation already transitioned the row (idempotent no-op).
	MarkLive(ctx context.Context, id uuid.UUID, now time.Time) (*Auction, error)
	// MarkEnded flips the status to ended together with the winner and final
	// price in a single guarded statement. Returns nil when the row is
	// already ended.
	MarkEnded(ctx context.Context, tx pgx.Tx, id uuid.UUID, winnerID *uuid.UUID, finalPrice decimal.Decimal) (*Auction, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// AddViews increments the monotonic view counter by n.
	AddViews(ctx context.Context, id uuid.UUID, n int64) error
}

// BidRepository is the append-only bid ledger.
type BidRepository interface {
	Insert(ctx context.Context, tx pgx.Tx, bid *Bid) error
	ListByAuction(ctx context.Context, auctionID uuid.UUID) ([]*Bid, error)
	// WinningBid returns the highest bid (earliest timestamp on ties) inside
	// the end-transition transaction, or nil when the auction has no bids.
	WinningBid(ctx context.Context, tx pgx.Tx, auctionID uuid.UUID) (*Bid, error)
}

// FavoriteRepository toggles (user, auction) favorite pairs.
type FavoriteRepository interface {
	// Toggle flips the favorite state and reports the resulting state.
	Toggle(ctx context.Context, userID, auctionID uuid.UUID) (bool, error)
}
