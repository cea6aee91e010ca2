package application

import (
	"context"
	"fmt"
	"time"

	"github.com/auctionhall/engine/internal/auction/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Tracker arms and cancels scheduler timers for an auction. Implemented by
// the scheduler; a no-op implementation is fine for tooling.
type Tracker interface {
	Track(a *domain.Auction)
	Cancel(id uuid.UUID)
}

// ViewCounter records auction page views. Counts are flushed to the ledger
// out of band and must never block or fail a read.
type ViewCounter interface {
	Bump(auctionID uuid.UUID)
}

// CreateAuctionDTO carries seller input for a new listing.
type CreateAuctionDTO struct {
	Title         string
	Description   string
	Image         string
	Category      string
	StartingPrice decimal.Decimal
	StartTime     time.Time
	EndTime       time.Time
	SellerID      uuid.UUID
}

// ManageAuctionsUseCase covers listing CRUD around the lifecycle core:
// creation (which arms timers), snapshot reads (which count views), deletion
// (which cancels timers and cascades to bids and favorites), favorites, and
// the bid history read path.
type ManageAuctionsUseCase struct {
	auctionRepo  domain.AuctionRepository
	bidRepo      domain.BidRepository
	favoriteRepo domain.FavoriteRepository
	tracker      Tracker
	views        ViewCounter
}

func NewManageAuctionsUseCase(auctionRepo domain.AuctionRepository, bidRepo domain.BidRepository,
	favoriteRepo domain.FavoriteRepository, tracker Tracker, views ViewCounter) *ManageAuctionsUseCase {

	return &ManageAuctionsUseCase{
		auctionRepo:  auctionRepo,
		bidRepo:      bidRepo,
		favoriteRepo: favoriteRepo,
		tracker:      tracker,
		views:        views,
	}
}

// CreateAuction validates listing input, persists the auction with its
// computed initial status, and arms scheduler timers for it.
func (uc *ManageAuctionsUseCase) CreateAuction(ctx context.Context, cmd CreateAuctionDTO) (*domain.Auction, error) {
	category, err := domain.ParseCategory(cmd.Category)
	if err != nil {
		return nil, err
	}

	auction, err := domain.NewAuction(cmd.Title, cmd.Description, cmd.Image, category,
		cmd.StartingPrice, cmd.StartTime, cmd.EndTime, cmd.SellerID, time.Now())
	if err != nil {
		return nil, err
	}

	if err := uc.auctionRepo.Create(ctx, auction); err != nil {
		return nil, fmt.Errorf("create auction: %w", err)
	}

	uc.tracker.Track(auction)

	log.Info("Auction created",
		zap.String("auctionID", auction.ID.String()),
		zap.String("sellerID", auction.SellerID.String()),
		zap.String("status", string(auction.Status)),
	)

	return auction, nil
}

// GetAuction returns the auction snapshot and bumps its view counter.
func (uc *ManageAuctionsUseCase) GetAuction(ctx context.Context, id uuid.UUID) (*domain.Auction, error) {
	auction, err := uc.auctionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	uc.views.Bump(id)
	return auction, nil
}

// ListAuctions returns all auctions, or those in the given status.
func (uc *ManageAuctionsUseCase) ListAuctions(ctx context.Context, status string) ([]*domain.Auction, error) {
	if status == "" {
		return uc.auctionRepo.List(ctx)
	}
	switch s := domain.Status(status); s {
	case domain.StatusUpcoming, domain.StatusLive, domain.StatusEnded:
		return uc.auctionRepo.ListByStatus(ctx, s)
	default:
		return nil, fmt.Errorf("list auctions: unknown status %q", status)
	}
}

// DeleteAuction removes an auction (cascading to bids and favorites) and
// cancels any pending scheduler timer so it cannot fire against a removed
// auction. Only the seller may delete through this path; admin tooling passes
// the seller id it read from the row.
func (uc *ManageAuctionsUseCase) DeleteAuction(ctx context.Context, id, requesterID uuid.UUID) error {
	auction, err := uc.auctionRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if auction.SellerID != requesterID {
		return domain.ErrNotSeller
	}

	if err := uc.auctionRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete auction %s: %w", id, err)
	}
	uc.tracker.Cancel(id)

	log.Info("Auction deleted", zap.String("auctionID", id.String()))
	return nil
}

// ListBids returns the auction's bid history, highest amount first.
func (uc *ManageAuctionsUseCase) ListBids(ctx context.Context, auctionID uuid.UUID) ([]*domain.Bid, error) {
	if _, err := uc.auctionRepo.GetByID(ctx, auctionID); err != nil {
		return nil, err
	}
	return uc.bidRepo.ListByAuction(ctx, auctionID)
}

// ToggleFavorite flips the (user, auction) favorite and reports the new state.
func (uc *ManageAuctionsUseCase) ToggleFavorite(ctx context.Context, userID, auctionID uuid.UUID) (bool, error) {
	if _, err := uc.auctionRepo.GetByID(ctx, auctionID); err != nil {
		return false, err
	}
	return uc.favoriteRepo.Toggle(ctx, userID, auctionID)
}
