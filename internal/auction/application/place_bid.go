package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/auctionhall/engine/internal/auction/application/events"
	"github.com/auctionhall/engine/internal/auction/domain"
	"github.com/auctionhall/engine/internal/shared/logger"
	userdomain "github.com/auctionhall/engine/internal/user/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

// TxBeginner starts transactions. Satisfied by *pgxpool.Pool.
type TxBeginner interface {
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

// pgLockNotAvailable is the SQLSTATE raised when lock_timeout expires while
// waiting for the auction row lock.
const pgLockNotAvailable = "55P03"

// PlaceBidDTO carries the data needed to place a bid.
type PlaceBidDTO struct {
	AuctionID uuid.UUID
	BidderID  uuid.UUID
	Amount    decimal.Decimal
}

// PlaceBidResult is returned to the bidding API layer: the committed bid and
// the auction as updated by it.
type PlaceBidResult struct {
	Bid     *domain.Bid
	Auction *domain.Auction
}

// PlaceBidUseCase commits bids. The commit path is the system's primary
// concurrency hazard: many callers may bid on the same auction at once, and
// the scheduler may be ending it concurrently. Every commit therefore
// re-reads the auction row under a row-level write lock and re-runs
// validation against that fresh row, so at most one bid wins the race to
// become the new current price and accepted amounts are strictly increasing.
type PlaceBidUseCase struct {
	auctionRepo domain.AuctionRepository
	bidRepo     domain.BidRepository
	userRepo    userdomain.UserRepository
	txer        TxBeginner
	broadcaster events.Broadcaster
	lockTimeout time.Duration
}

func NewPlaceBidUseCase(auctionRepo domain.AuctionRepository, bidRepo domain.BidRepository,
	userRepo userdomain.UserRepository, txer TxBeginner, broadcaster events.Broadcaster,
	lockTimeout time.Duration) *PlaceBidUseCase {

	return &PlaceBidUseCase{
		auctionRepo: auctionRepo,
		bidRepo:     bidRepo,
		userRepo:    userRepo,
		txer:        txer,
		broadcaster: broadcaster,
		lockTimeout: lockTimeout,
	}
}

func (uc *PlaceBidUseCase) Execute(ctx context.Context, cmd PlaceBidDTO) (*PlaceBidResult, error) {
	// Validate against the current snapshot first. Cheap rejection without
	// touching the row lock; acceptance here is provisional only.
	snapshot, err := uc.auctionRepo.GetByID(ctx, cmd.AuctionID)
	if err != nil {
		return nil, err
	}
	if err := domain.ValidateBid(snapshot, cmd.BidderID, cmd.Amount, time.Now()); err != nil {
		return nil, err
	}

	tx, err := uc.txer.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("place bid: failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) // no-op once committed

	if err := setLockTimeout(ctx, tx, uc.lockTimeout); err != nil {
		return nil, fmt.Errorf("place bid: failed to set lock timeout: %w", err)
	}

	// Re-read under the row lock. A concurrent bid or end transition holding
	// the lock serializes us behind it; if we cannot get the lock in time the
	// caller gets a retryable conflict instead of hanging.
	auction, err := uc.auctionRepo.GetByIDForUpdate(ctx, tx, cmd.AuctionID)
	if err != nil {
		if isLockTimeout(err) {
			log.Warn("Bid lock acquisition timed out",
				zap.String("auctionID", cmd.AuctionID.String()),
				zap.String("bidderID", cmd.BidderID.String()),
			)
			return nil, domain.NewConflict(snapshot.CurrentPrice)
		}
		return nil, fmt.Errorf("place bid: failed to lock auction %s: %w", cmd.AuctionID, err)
	}

	// Re-validation under lock: the snapshot may be stale by now. The loser
	// of a race gets the fresh rejection reason, typically TooLow with the
	// winner's price.
	if err := domain.ValidateBid(auction, cmd.BidderID, cmd.Amount, time.Now()); err != nil {
		return nil, err
	}

	bid := domain.NewBid(cmd.AuctionID, cmd.BidderID, cmd.Amount, time.Now())
	if err := uc.bidRepo.Insert(ctx, tx, bid); err != nil {
		return nil, fmt.Errorf("place bid: failed to insert bid for auction %s: %w", cmd.AuctionID, err)
	}
	if err := uc.auctionRepo.UpdateCurrentPrice(ctx, tx, auction.ID, cmd.Amount); err != nil {
		return nil, fmt.Errorf("place bid: failed to update current price for auction %s: %w", cmd.AuctionID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("place bid: failed to commit transaction: %w", err)
	}

	auction.CurrentPrice = cmd.Amount

	log.Info("Bid placed",
		zap.String("auctionID", auction.ID.String()),
		zap.String("bidID", bid.ID.String()),
		zap.String("bidderID", bid.BidderID.String()),
		zap.String("amount", bid.Amount.StringFixed(2)),
	)

	uc.publishBidAccepted(ctx, auction, bid)

	return &PlaceBidResult{Bid: bid, Auction: auction}, nil
}

// publishBidAccepted notifies observers of the new price. Best-effort: a
// failed bidder lookup only degrades the payload, never the commit.
func (uc *PlaceBidUseCase) publishBidAccepted(ctx context.Context, auction *domain.Auction, bid *domain.Bid) {
	bidder := events.BidderInfo{ID: bid.BidderID}
	if u, err := uc.userRepo.GetByID(ctx, bid.BidderID); err == nil {
		bidder.Name = u.FullName
	}

	uc.broadcaster.Publish(auction.ID, events.KindBidAccepted, events.BidAccepted{
		AuctionID:    auction.ID,
		BidID:        bid.ID,
		Bidder:       bidder,
		Amount:       bid.Amount,
		CurrentPrice: auction.CurrentPrice,
		Status:       string(auction.Status),
		Timestamp:    bid.CreatedAt,
	})
}

func setLockTimeout(ctx context.Context, tx pgx.Tx, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	_, err := tx.Exec(ctx, "SELECT set_config('lock_timeout', $1, true)",
		fmt.Sprintf("%dms", d.Milliseconds()))
	return err
}

func isLockTimeout(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgLockNotAvailable
}
