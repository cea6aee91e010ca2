package websocket

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MessageType identifies a ws message. Outbound lifecycle/bid events use the
// event kinds from the events package; the types here cover the rest of the
// conversation.
type MessageType string

const (
	MessageTypeClientBid          MessageType = "client_bid"
	MessageTypeServerError        MessageType = "server_error"
	MessageTypeServerInitialState MessageType = "server_initial_state"
)

// BaseMessage is the envelope shared by all ws messages.
type BaseMessage struct {
	Type MessageType `json:"type"`
}

// ClientBidMessage is an inbound bid over the socket. The auction is implied
// by the connection; the payload carries the already-resolved bidder id.
type ClientBidMessage struct {
	BaseMessage
	Payload struct {
		UserID uuid.UUID       `json:"user_id"`
		Amount decimal.Decimal `json:"amount"`
	} `json:"payload"`
}

// ServerErrorMessage reports a rejection or failure to one client. Reason and
// current price mirror the REST rejection body.
type ServerErrorMessage struct {
	BaseMessage
	Payload struct {
		Reason       string `json:"reason,omitempty"`
		Error        string `json:"error"`
		CurrentPrice string `json:"current_price,omitempty"`
	} `json:"payload"`
}

// ServerInitialStateMessage is pushed to a client right after it connects, so
// reconnecting observers reconcile missed events with a full snapshot.
type ServerInitialStateMessage struct {
	BaseMessage
	Payload struct {
		AuctionID     uuid.UUID       `json:"auction_id"`
		Title         string          `json:"title"`
		Description   string          `json:"description,omitempty"`
		Category      string          `json:"category"`
		StartingPrice decimal.Decimal `json:"starting_price"`
		CurrentPrice  decimal.Decimal `json:"current_price"`
		StartTime     time.Time       `json:"start_time"`
		EndTime       time.Time       `json:"end_time"`
		Status        string          `json:"status"`
		WinnerID      *uuid.UUID      `json:"winner_id,omitempty"`
	} `json:"payload"`
}
