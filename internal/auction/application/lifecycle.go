package application

import (
	"context"
	"fmt"
	"time"

	"github.com/auctionhall/engine/internal/auction/application/events"
	"github.com/auctionhall/engine/internal/auction/domain"
	userdomain "github.com/auctionhall/engine/internal/user/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// LifecycleUseCase drives auctions through upcoming -> live -> ended. Every
// transition is status-guarded and idempotent: concurrent evaluations of the
// same auction result in exactly one transition, the rest are no-ops.
type LifecycleUseCase struct {
	auctionRepo domain.AuctionRepository
	bidRepo     domain.BidRepository
	userRepo    userdomain.UserRepository
	txer        TxBeginner
	broadcaster events.Broadcaster
	lockTimeout time.Duration
}

func NewLifecycleUseCase(auctionRepo domain.AuctionRepository, bidRepo domain.BidRepository,
	userRepo userdomain.UserRepository, txer TxBeginner, broadcaster events.Broadcaster,
	lockTimeout time.Duration) *LifecycleUseCase {

	return &LifecycleUseCase{
		auctionRepo: auctionRepo,
		bidRepo:     bidRepo,
		userRepo:    userRepo,
		txer:        txer,
		broadcaster: broadcaster,
		lockTimeout: lockTimeout,
	}
}

// StartAuction flips an upcoming auction to live once its start time has
// passed. Returns nil without error when another evaluation already did it.
func (uc *LifecycleUseCase) StartAuction(ctx context.Context, id uuid.UUID) (*domain.Auction, error) {
	auction, err := uc.auctionRepo.MarkLive(ctx, id, time.Now())
	if err != nil {
		return nil, fmt.Errorf("lifecycle: failed to start auction %s: %w", id, err)
	}
	if auction == nil {
		return nil, nil
	}

	log.Info("Auction started",
		zap.String("auctionID", auction.ID.String()),
		zap.Time("endTime", auction.EndTime),
	)

	now := time.Now()
	uc.broadcaster.Publish(auction.ID, events.KindAuctionStarted, events.AuctionStarted{
		AuctionID:    auction.ID,
		Title:        auction.Title,
		Status:       string(auction.Status),
		StartTime:    auction.StartTime,
		CurrentPrice: auction.CurrentPrice,
		Timestamp:    now,
	})
	uc.broadcaster.Publish(auction.ID, events.KindStatusChanged, events.StatusChanged{
		AuctionID: auction.ID,
		Status:    string(auction.Status),
		Timestamp: now,
	})

	return auction, nil
}

// EndAuction resolves the winner and commits it atomically with the ended
// status. The auction row is locked for the whole resolution, so an in-flight
// bid either commits before the end is visible or gets rejected by its own
// re-validation. Ending an already-ended auction is a no-op that returns the
// stored result, which also makes this the manual-correction path for admin
// tooling.
func (uc *LifecycleUseCase) EndAuction(ctx context.Context, id uuid.UUID) (*domain.Auction, error) {
	tx, err := uc.txer.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("lifecycle: failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) // no-op once committed

	if err := setLockTimeout(ctx, tx, uc.lockTimeout); err != nil {
		return nil, fmt.Errorf("lifecycle: failed to set lock timeout: %w", err)
	}

	auction, err := uc.auctionRepo.GetByIDForUpdate(ctx, tx, id)
	if err != nil {
		return nil, fmt.Errorf("lifecycle: failed to lock auction %s: %w", id, err)
	}
	if auction.Status == domain.StatusEnded {
		// Already resolved, repeated attempts are no-ops.
		return auction, nil
	}
	if time.Now().Before(auction.EndTime) {
		return nil, fmt.Errorf("lifecycle: auction %s: %w", id, domain.ErrAuctionStillLive)
	}

	winningBid, err := uc.bidRepo.WinningBid(ctx, tx, id)
	if err != nil {
		return nil, fmt.Errorf("lifecycle: failed to load winning bid for auction %s: %w", id, err)
	}

	// No bids: no winner, price stays where it was.
	finalPrice := auction.CurrentPrice
	var winnerID *uuid.UUID
	if winningBid != nil {
		finalPrice = winningBid.Amount
		winnerID = &winningBid.BidderID
	}

	ended, err := uc.auctionRepo.MarkEnded(ctx, tx, id, winnerID, finalPrice)
	if err != nil {
		return nil, fmt.Errorf("lifecycle: failed to end auction %s: %w", id, err)
	}
	if ended == nil {
		// Lost a race we should not be able to lose while holding the lock;
		// treat as a no-op.
		return nil, nil
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("lifecycle: failed to commit end of auction %s: %w", id, err)
	}

	log.Info("Auction ended",
		zap.String("auctionID", ended.ID.String()),
		zap.String("finalPrice", ended.CurrentPrice.StringFixed(2)),
		zap.Bool("hasWinner", winnerID != nil),
	)

	uc.publishAuctionEnded(ctx, ended, winningBid)

	return ended, nil
}

// SweepOnce re-evaluates all auctions against now and transitions every stale
// one. Failures are isolated per auction: one bad row is logged and skipped,
// the rest of the sweep continues.
func (uc *LifecycleUseCase) SweepOnce(ctx context.Context, now time.Time) (started, ended int, err error) {
	startIDs, err := uc.auctionRepo.DueStarts(ctx, now)
	if err != nil {
		return 0, 0, fmt.Errorf("lifecycle: failed to query due starts: %w", err)
	}
	for _, id := range startIDs {
		if _, err := uc.StartAuction(ctx, id); err != nil {
			log.Error("Sweep failed to start auction",
				zap.String("auctionID", id.String()),
				zap.Error(err),
			)
			continue
		}
		started++
	}

	endIDs, err := uc.auctionRepo.DueEnds(ctx, now)
	if err != nil {
		return started, 0, fmt.Errorf("lifecycle: failed to query due ends: %w", err)
	}
	for _, id := range endIDs {
		if _, err := uc.EndAuction(ctx, id); err != nil {
			log.Error("Sweep failed to end auction",
				zap.String("auctionID", id.String()),
				zap.Error(err),
			)
			continue
		}
		ended++
	}

	return started, ended, nil
}

// Schedulable returns all auctions with a pending transition, for rebuilding
// scheduler timers from persisted state.
func (uc *LifecycleUseCase) Schedulable(ctx context.Context) ([]*domain.Auction, error) {
	return uc.auctionRepo.ListSchedulable(ctx)
}

func (uc *LifecycleUseCase) publishAuctionEnded(ctx context.Context, auction *domain.Auction, winningBid *domain.Bid) {
	var winner *events.WinningBid
	if winningBid != nil {
		info := events.BidderInfo{ID: winningBid.BidderID}
		if u, err := uc.userRepo.GetByID(ctx, winningBid.BidderID); err == nil {
			info.Name = u.FullName
		}
		winner = &events.WinningBid{Amount: winningBid.Amount, Bidder: info}
	}

	now := time.Now()
	uc.broadcaster.Publish(auction.ID, events.KindAuctionEnded, events.AuctionEnded{
		AuctionID:    auction.ID,
		Title:        auction.Title,
		Status:       string(auction.Status),
		WinningBid:   winner,
		CurrentPrice: auction.CurrentPrice,
		EndTime:      auction.EndTime,
		Timestamp:    now,
	})
	uc.broadcaster.Publish(auction.ID, events.KindStatusChanged, events.StatusChanged{
		AuctionID: auction.ID,
		Status:    string(auction.Status),
		Timestamp: now,
	})
}
