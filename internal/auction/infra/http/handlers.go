package http

import (
	"errors"
	"time"

	"github.com/auctionhall/engine/internal/auction/application"
	"github.com/auctionhall/engine/internal/auction/domain"
	"github.com/auctionhall/engine/internal/shared/logger"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

// AuctionHandler exposes the auction use cases over REST. Identity arrives
// pre-resolved in the X-User-ID header; authentication itself happens
// upstream of this service.
type AuctionHandler struct {
	svc application.AuctionService
}

func NewAuctionHandler(svc application.AuctionService) *AuctionHandler {
	return &AuctionHandler{svc: svc}
}

type createAuctionRequest struct {
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	Image         string          `json:"image"`
	Category      string          `json:"category"`
	StartingPrice decimal.Decimal `json:"starting_price"`
	StartTime     time.Time       `json:"start_time"`
	EndTime       time.Time       `json:"end_time"`
}

type placeBidRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type auctionResponse struct {
	ID            uuid.UUID       `json:"id"`
	Title         string          `json:"title"`
	Description   string          `json:"description,omitempty"`
	Image         string          `json:"image,omitempty"`
	Category      string          `json:"category"`
	StartingPrice decimal.Decimal `json:"starting_price"`
	CurrentPrice  decimal.Decimal `json:"current_price"`
	StartTime     time.Time       `json:"start_time"`
	EndTime       time.Time       `json:"end_time"`
	SellerID      uuid.UUID       `json:"seller_id"`
	WinnerID      *uuid.UUID      `json:"winner_id,omitempty"`
	Status        string          `json:"status"`
	Views         int64           `json:"views"`
}

type bidResponse struct {
	ID         uuid.UUID       `json:"id"`
	AuctionID  uuid.UUID       `json:"auction_id"`
	BidderID   uuid.UUID       `json:"bidder_id"`
	BidderName string          `json:"bidder_name,omitempty"`
	Amount     decimal.Decimal `json:"amount"`
	CreatedAt  time.Time       `json:"created_at"`
}

// rejectionResponse carries the typed reason and, where applicable, the
// current price so the client can immediately offer a corrected retry.
type rejectionResponse struct {
	Reason       string  `json:"reason"`
	Message      string  `json:"message"`
	CurrentPrice *string `json:"current_price,omitempty"`
}

func toAuctionResponse(a *domain.Auction) auctionResponse {
	return auctionResponse{
		ID:            a.ID,
		Title:         a.Title,
		Description:   a.Description,
		Image:         a.Image,
		Category:      string(a.Category),
		StartingPrice: a.StartingPrice,
		CurrentPrice:  a.CurrentPrice,
		StartTime:     a.StartTime,
		EndTime:       a.EndTime,
		SellerID:      a.SellerID,
		WinnerID:      a.WinnerID,
		Status:        string(a.Status),
		Views:         a.Views,
	}
}

func toBidResponse(b *domain.Bid) bidResponse {
	return bidResponse{
		ID:         b.ID,
		AuctionID:  b.AuctionID,
		BidderID:   b.BidderID,
		BidderName: b.BidderName,
		Amount:     b.Amount,
		CreatedAt:  b.CreatedAt,
	}
}

// RegisterRoutes mounts the REST API on the fiber app.
func (h *AuctionHandler) RegisterRoutes(app *fiber.App) {
	api := app.Group("/api")
	api.Get("/auctions", h.ListAuctions)
	api.Post("/auctions", h.CreateAuction)
	api.Get("/auctions/:id", h.GetAuction)
	api.Delete("/auctions/:id", h.DeleteAuction)
	api.Post("/auctions/:id/bids", h.PlaceBid)
	api.Get("/auctions/:id/bids", h.ListBids)
	api.Post("/auctions/:id/favorite", h.ToggleFavorite)
	api.Post("/admin/auctions/:id/resolve", h.ResolveWinner)
}

func (h *AuctionHandler) CreateAuction(c *fiber.Ctx) error {
	sellerID, err := callerID(c)
	if err != nil {
		return err
	}

	var req createAuctionRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	auction, err := h.svc.CreateAuction(c.Context(), application.CreateAuctionDTO{
		Title:         req.Title,
		Description:   req.Description,
		Image:         req.Image,
		Category:      req.Category,
		StartingPrice: req.StartingPrice,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
		SellerID:      sellerID,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrMissingTitle),
			errors.Is(err, domain.ErrInvalidStartingPrice),
			errors.Is(err, domain.ErrInvalidSchedule),
			errors.Is(err, domain.ErrInvalidCategory):
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		log.Error("Failed to create auction", zap.Error(err))
		return fiber.ErrInternalServerError
	}

	return c.Status(fiber.StatusCreated).JSON(toAuctionResponse(auction))
}

func (h *AuctionHandler) GetAuction(c *fiber.Ctx) error {
	id, err := auctionID(c)
	if err != nil {
		return err
	}

	auction, err := h.svc.GetAuction(c.Context(), id)
	if err != nil {
		return h.serviceError(c, err)
	}
	return c.JSON(toAuctionResponse(auction))
}

func (h *AuctionHandler) ListAuctions(c *fiber.Ctx) error {
	auctions, err := h.svc.ListAuctions(c.Context(), c.Query("status"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	out := make([]auctionResponse, 0, len(auctions))
	for _, a := range auctions {
		out = append(out, toAuctionResponse(a))
	}
	return c.JSON(out)
}

func (h *AuctionHandler) DeleteAuction(c *fiber.Ctx) error {
	id, err := auctionID(c)
	if err != nil {
		return err
	}
	requesterID, err := callerID(c)
	if err != nil {
		return err
	}

	if err := h.svc.DeleteAuction(c.Context(), id, requesterID); err != nil {
		if errors.Is(err, domain.ErrNotSeller) {
			return fiber.NewError(fiber.StatusForbidden, err.Error())
		}
		return h.serviceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *AuctionHandler) PlaceBid(c *fiber.Ctx) error {
	id, err := auctionID(c)
	if err != nil {
		return err
	}
	bidderID, err := callerID(c)
	if err != nil {
		return err
	}

	var req placeBidRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.svc.PlaceBid(c.Context(), application.PlaceBidDTO{
		AuctionID: id,
		BidderID:  bidderID,
		Amount:    req.Amount,
	})
	if err != nil {
		var bidErr *domain.BidError
		if errors.As(err, &bidErr) {
			return writeRejection(c, bidErr)
		}
		log.Error("Failed to place bid",
			zap.String("auctionID", id.String()),
			zap.Error(err),
		)
		return fiber.ErrInternalServerError
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"bid":     toBidResponse(result.Bid),
		"auction": toAuctionResponse(result.Auction),
	})
}

func (h *AuctionHandler) ListBids(c *fiber.Ctx) error {
	id, err := auctionID(c)
	if err != nil {
		return err
	}

	bids, err := h.svc.ListBids(c.Context(), id)
	if err != nil {
		return h.serviceError(c, err)
	}

	out := make([]bidResponse, 0, len(bids))
	for _, b := range bids {
		out = append(out, toBidResponse(b))
	}
	return c.JSON(out)
}

func (h *AuctionHandler) ToggleFavorite(c *fiber.Ctx) error {
	id, err := auctionID(c)
	if err != nil {
		return err
	}
	userID, err := callerID(c)
	if err != nil {
		return err
	}

	favorited, err := h.svc.ToggleFavorite(c.Context(), userID, id)
	if err != nil {
		return h.serviceError(c, err)
	}
	return c.JSON(fiber.Map{"favorited": favorited})
}

// ResolveWinner is the manual correction endpoint for admin tooling. It goes
// through the same atomic resolver as the scheduler.
func (h *AuctionHandler) ResolveWinner(c *fiber.Ctx) error {
	id, err := auctionID(c)
	if err != nil {
		return err
	}

	auction, err := h.svc.ResolveWinner(c.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrAuctionStillLive) {
			return fiber.NewError(fiber.StatusConflict, domain.ErrAuctionStillLive.Error())
		}
		return h.serviceError(c, err)
	}
	if auction == nil {
		return c.SendStatus(fiber.StatusNoContent)
	}
	return c.JSON(toAuctionResponse(auction))
}

func (h *AuctionHandler) serviceError(c *fiber.Ctx, err error) error {
	if errors.Is(err, domain.ErrAuctionNotFound) {
		return fiber.NewError(fiber.StatusNotFound, domain.ErrAuctionNotFound.Error())
	}
	log.Error("Request failed", zap.String("path", c.Path()), zap.Error(err))
	return fiber.ErrInternalServerError
}

func writeRejection(c *fiber.Ctx, bidErr *domain.BidError) error {
	status := fiber.StatusBadRequest
	switch bidErr.Reason {
	case domain.ReasonNotFound:
		status = fiber.StatusNotFound
	case domain.ReasonConflict:
		status = fiber.StatusConflict
	}

	resp := rejectionResponse{
		Reason:  string(bidErr.Reason),
		Message: bidErr.Error(),
	}
	if bidErr.Reason == domain.ReasonTooLow || bidErr.Reason == domain.ReasonConflict {
		price := bidErr.CurrentPrice.StringFixed(2)
		resp.CurrentPrice = &price
	}
	return c.Status(status).JSON(resp)
}

func auctionID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "invalid auction id")
	}
	return id, nil
}

func callerID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Get("X-User-ID"))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "missing or invalid X-User-ID header")
	}
	return id, nil
}
