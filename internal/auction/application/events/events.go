package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Kind identifies a lifecycle or bidding event. Kinds double as the websocket
// message type on the wire.
type Kind string

const (
	KindBidAccepted    Kind = "bid_accepted"
	KindAuctionStarted Kind = "auction_started"
	KindAuctionEnded   Kind = "auction_ended"
	KindStatusChanged  Kind = "status_changed"
)

// Envelope is the wire format for every published event.
type Envelope struct {
	Type    Kind `json:"type"`
	Payload any  `json:"payload"`
}

// BidderInfo identifies the bidder in event payloads.
type BidderInfo struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name,omitempty"`
}

// BidAccepted is published after a bid commits, carrying the new price.
type BidAccepted struct {
	AuctionID    uuid.UUID       `json:"auction_id"`
	BidID        uuid.UUID       `json:"bid_id"`
	Bidder       BidderInfo      `json:"bidder"`
	Amount       decimal.Decimal `json:"amount"`
	CurrentPrice decimal.Decimal `json:"current_price"`
	Status       string          `json:"status"`
	Timestamp    time.Time       `json:"timestamp"`
}

// AuctionStarted is published when an auction transitions to live.
type AuctionStarted struct {
	AuctionID    uuid.UUID       `json:"auction_id"`
	Title        string          `json:"title"`
	Status       string          `json:"status"`
	StartTime    time.Time       `json:"start_time"`
	CurrentPrice decimal.Decimal `json:"current_price"`
	Timestamp    time.Time       `json:"timestamp"`
}

// WinningBid describes the resolved winner, nil when the auction ended
// without bids.
type WinningBid struct {
	Amount decimal.Decimal `json:"amount"`
	Bidder BidderInfo      `json:"bidder"`
}

// AuctionEnded is published when an auction transitions to ended.
type AuctionEnded struct {
	AuctionID    uuid.UUID       `json:"auction_id"`
	Title        string          `json:"title"`
	Status       string          `json:"status"`
	WinningBid   *WinningBid     `json:"winning_bid"`
	CurrentPrice decimal.Decimal `json:"current_price"`
	EndTime      time.Time       `json:"end_time"`
	Timestamp    time.Time       `json:"timestamp"`
}

// StatusChanged is the generic transition notification.
type StatusChanged struct {
	AuctionID uuid.UUID `json:"auction_id"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}
