package application

import (
	"context"

	"github.com/auctionhall/engine/internal/auction/domain"
	"github.com/google/uuid"
)

// AuctionService is the application interface of the auction module, exposing
// the use cases to the outer layers (HTTP, websocket, scheduler, admin
// tooling).
type AuctionService interface {
	PlaceBid(ctx context.Context, cmd PlaceBidDTO) (*PlaceBidResult, error)
	CreateAuction(ctx context.Context, cmd CreateAuctionDTO) (*domain.Auction, error)
	GetAuction(ctx context.Context, id uuid.UUID) (*domain.Auction, error)
	ListAuctions(ctx context.Context, status string) ([]*domain.Auction, error)
	DeleteAuction(ctx context.Context, id, requesterID uuid.UUID) error
	ListBids(ctx context.Context, auctionID uuid.UUID) ([]*domain.Bid, error)
	ToggleFavorite(ctx context.Context, userID, auctionID uuid.UUID) (bool, error)
	// ResolveWinner is the admin correction path. It reuses the same atomic
	// end transition the scheduler uses, never an ad-hoc computation.
	ResolveWinner(ctx context.Context, auctionID uuid.UUID) (*domain.Auction, error)
}

type auctionService struct {
	placeBidUC  *PlaceBidUseCase
	manageUC    *ManageAuctionsUseCase
	lifecycleUC *LifecycleUseCase
}

func NewAuctionService(placeBidUC *PlaceBidUseCase, manageUC *ManageAuctionsUseCase,
	lifecycleUC *LifecycleUseCase) AuctionService {

	return &auctionService{
		placeBidUC:  placeBidUC,
		manageUC:    manageUC,
		lifecycleUC: lifecycleUC,
	}
}

func (s *auctionService) PlaceBid(ctx context.Context, cmd PlaceBidDTO) (*PlaceBidResult, error) {
	return s.placeBidUC.Execute(ctx, cmd)
}

func (s *auctionService) CreateAuction(ctx context.Context, cmd CreateAuctionDTO) (*domain.Auction, error) {
	return s.manageUC.CreateAuction(ctx, cmd)
}

func (s *auctionService) GetAuction(ctx context.Context, id uuid.UUID) (*domain.Auction, error) {
	return s.manageUC.GetAuction(ctx, id)
}

func (s *auctionService) ListAuctions(ctx context.Context, status string) ([]*domain.Auction, error) {
	return s.manageUC.ListAuctions(ctx, status)
}

func (s *auctionService) DeleteAuction(ctx context.Context, id, requesterID uuid.UUID) error {
	return s.manageUC.DeleteAuction(ctx, id, requesterID)
}

func (s *auctionService) ListBids(ctx context.Context, auctionID uuid.UUID) ([]*domain.Bid, error) {
	return s.manageUC.ListBids(ctx, auctionID)
}

func (s *auctionService) ToggleFavorite(ctx context.Context, userID, auctionID uuid.UUID) (bool, error) {
	return s.manageUC.ToggleFavorite(ctx, userID, auctionID)
}

func (s *auctionService) ResolveWinner(ctx context.Context, auctionID uuid.UUID) (*domain.Auction, error) {
	return s.lifecycleUC.EndAuction(ctx, auctionID)
}
