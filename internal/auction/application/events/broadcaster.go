package events

import (
	"encoding/json"

	"github.com/auctionhall/engine/internal/shared/logger"
	"github.com/auctionhall/engine/internal/shared/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

// Broadcaster publishes events to all observers of an auction. Delivery is
// fire-and-forget: failures are logged and dropped, never returned, so a
// broadcast problem can not fail the commit that triggered it.
type Broadcaster interface {
	Publish(auctionID uuid.UUID, kind Kind, payload any)
}

// HubBroadcaster fans events out through the shared websocket hub, scoped to
// the auction's client group.
type HubBroadcaster struct {
	hub *websocket.Hub
}

func NewHubBroadcaster(hub *websocket.Hub) *HubBroadcaster {
	return &HubBroadcaster{hub: hub}
}

func (b *HubBroadcaster) Publish(auctionID uuid.UUID, kind Kind, payload any) {
	data, err := json.Marshal(Envelope{Type: kind, Payload: payload})
	if err != nil {
		log.Error("Failed to marshal event, dropping",
			zap.String("auctionID", auctionID.String()),
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
		return
	}
	b.hub.BroadcastToAuction(auctionID.String(), data)
}

// NopBroadcaster discards every event. Used in tests and tooling that runs
// the use cases without a realtime layer.
type NopBroadcaster struct{}

func (NopBroadcaster) Publish(uuid.UUID, Kind, any) {}
