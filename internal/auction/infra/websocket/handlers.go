package websocket

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/auctionhall/engine/internal/auction/application"
	"github.com/auctionhall/engine/internal/auction/domain"
	"github.com/auctionhall/engine/internal/shared/logger"
	sharedws "github.com/auctionhall/engine/internal/shared/websocket"
	"github.com/gofiber/fiber/v2"
	fiberws "github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

// AuctionWSHandler handles ws connections and inbound messages for the
// auction module. Connecting to /ws/auctions/:id subscribes the client to
// that auction's event group; disconnecting unsubscribes it. There is no
// replay: a reconnecting client reconciles via the initial-state push.
type AuctionWSHandler struct {
	svc application.AuctionService
	hub *sharedws.Hub
	ctx context.Context
}

func NewAuctionWSHandler(ctx context.Context, svc application.AuctionService, hub *sharedws.Hub) *AuctionWSHandler {
	return &AuctionWSHandler{svc: svc, hub: hub, ctx: ctx}
}

// RegisterRoutes mounts the websocket endpoint on the fiber app.
func (h *AuctionWSHandler) RegisterRoutes(app *fiber.App) {
	app.Use("/ws", func(c *fiber.Ctx) error {
		if fiberws.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/auctions/:id", fiberws.New(h.handleConnection))
}

func (h *AuctionWSHandler) handleConnection(conn *fiberws.Conn) {
	auctionID, err := uuid.Parse(conn.Params("id"))
	if err != nil {
		_ = conn.Close()
		return
	}

	auction, err := h.svc.GetAuction(h.ctx, auctionID)
	if err != nil {
		log.Warn("WS connection for unknown auction",
			zap.String("auctionID", auctionID.String()),
			zap.Error(err),
		)
		_ = conn.Close()
		return
	}

	client := &sharedws.Client{
		Hub:       h.hub,
		Conn:      conn,
		Send:      make(chan []byte, 16),
		AuctionID: auctionID.String(),
		ID:        uuid.NewString(),
	}
	h.hub.RegisterClient(client)
	h.sendInitialState(client, auction)

	go client.WritePump(h.ctx)
	// ReadPump blocks until the connection closes, keeping the fiber ws
	// handler alive for the lifetime of the socket.
	client.ReadPump(h.ctx)
}

// ListenForMessages consumes the hub inbound channel and dispatches each
// message. Runs as a single goroutine started from main.
func (h *AuctionWSHandler) ListenForMessages(ctx context.Context) {
	log.Info("Auction WS handler listening for inbound messages")
	for {
		select {
		case <-ctx.Done():
			log.Info("Auction WS handler stopped")
			return
		case msg := <-h.hub.InboundMessages:
			go h.processMessage(ctx, msg.Client, msg.Data)
		}
	}
}

func (h *AuctionWSHandler) processMessage(ctx context.Context, client *sharedws.Client, data []byte) {
	var baseMsg BaseMessage
	if err := json.Unmarshal(data, &baseMsg); err != nil {
		h.sendError(client, nil, "invalid message format")
		return
	}
	switch baseMsg.Type {
	case MessageTypeClientBid:
		h.handleClientBid(ctx, client, data)
	default:
		h.sendError(client, nil, "unknown message type")
	}
}

func (h *AuctionWSHandler) handleClientBid(ctx context.Context, client *sharedws.Client, data []byte) {
	var bidMsg ClientBidMessage
	if err := json.Unmarshal(data, &bidMsg); err != nil {
		h.sendError(client, nil, "invalid bid message format")
		return
	}

	auctionID, err := uuid.Parse(client.AuctionID)
	if err != nil {
		h.sendError(client, nil, "invalid auction id")
		return
	}

	_, err = h.svc.PlaceBid(ctx, application.PlaceBidDTO{
		AuctionID: auctionID,
		BidderID:  bidMsg.Payload.UserID,
		Amount:    bidMsg.Payload.Amount,
	})
	if err != nil {
		var bidErr *domain.BidError
		if errors.As(err, &bidErr) {
			h.sendError(client, bidErr, bidErr.Error())
			return
		}
		log.Error("WS bid failed",
			zap.String("auctionID", client.AuctionID),
			zap.Error(err),
		)
		h.sendError(client, nil, "failed to place bid")
		return
	}
	// Success needs no direct reply: the accepted bid reaches this client
	// through the broadcast like every other observer.
}

func (h *AuctionWSHandler) sendInitialState(client *sharedws.Client, auction *domain.Auction) {
	msg := ServerInitialStateMessage{
		BaseMessage: BaseMessage{Type: MessageTypeServerInitialState},
	}
	msg.Payload.AuctionID = auction.ID
	msg.Payload.Title = auction.Title
	msg.Payload.Description = auction.Description
	msg.Payload.Category = string(auction.Category)
	msg.Payload.StartingPrice = auction.StartingPrice
	msg.Payload.CurrentPrice = auction.CurrentPrice
	msg.Payload.StartTime = auction.StartTime
	msg.Payload.EndTime = auction.EndTime
	msg.Payload.Status = string(auction.Status)
	msg.Payload.WinnerID = auction.WinnerID

	data, err := json.Marshal(msg)
	if err != nil {
		log.Error("Failed to marshal initial state", zap.Error(err))
		return
	}
	select {
	case client.Send <- data:
	default:
		log.Warn("Client send channel full, dropped initial state",
			zap.String("clientID", client.ID),
		)
	}
}

func (h *AuctionWSHandler) sendError(client *sharedws.Client, bidErr *domain.BidError, message string) {
	errMsg := ServerErrorMessage{
		BaseMessage: BaseMessage{Type: MessageTypeServerError},
	}
	errMsg.Payload.Error = message
	if bidErr != nil {
		errMsg.Payload.Reason = string(bidErr.Reason)
		if bidErr.Reason == domain.ReasonTooLow || bidErr.Reason == domain.ReasonConflict {
			errMsg.Payload.CurrentPrice = bidErr.CurrentPrice.StringFixed(2)
		}
	}

	data, err := json.Marshal(errMsg)
	if err != nil {
		log.Error("Failed to marshal error message", zap.Error(err))
		return
	}
	select {
	case client.Send <- data:
	default:
		log.Warn("Client send channel full or closed, could not send error",
			zap.String("clientID", client.ID),
		)
	}
}
