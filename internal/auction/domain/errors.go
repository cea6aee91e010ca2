package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Listing input errors.
var (
	ErrMissingTitle         = errors.New("auction title is required")
	ErrInvalidStartingPrice = errors.New("starting price must be positive")
	ErrInvalidSchedule      = errors.New("end time must be after start time")
	ErrInvalidCategory      = errors.New("invalid auction category")
	ErrAuctionStillLive     = errors.New("auction has not reached its end time")
	ErrNotSeller            = errors.New("only the seller can modify this auction")
)

// RejectReason identifies why a bid was rejected. Callers branch on the
// reason, never on the message text.
type RejectReason string

const (
	ReasonNotFound      RejectReason = "not_found"
	ReasonNotStarted    RejectReason = "not_started"
	ReasonAlreadyEnded  RejectReason = "already_ended"
	ReasonSelfBid       RejectReason = "self_bid"
	ReasonInvalidAmount RejectReason = "invalid_amount"
	ReasonTooLow        RejectReason = "too_low"
	ReasonConflict      RejectReason = "conflict"
)

// BidError is a typed bid rejection. For ReasonTooLow and ReasonConflict,
// CurrentPrice carries the price the client must exceed on retry.
type BidError struct {
	Reason       RejectReason
	CurrentPrice decimal.Decimal
}

func (e *BidError) Error() string {
	switch e.Reason {
	case ReasonNotFound:
		return "auction not found"
	case ReasonNotStarted:
		return "auction has not started yet"
	case ReasonAlreadyEnded:
		return "auction has already ended"
	case ReasonSelfBid:
		return "you cannot bid on your own auction"
	case ReasonInvalidAmount:
		return "bid amount must be a positive number"
	case ReasonTooLow:
		return fmt.Sprintf("bid must be higher than %s", e.CurrentPrice.StringFixed(2))
	case ReasonConflict:
		return "auction was updated concurrently, please retry"
	default:
		return string(e.Reason)
	}
}

// Is matches two BidErrors by reason, so errors.Is works against the
// sentinels below regardless of the attached price.
func (e *BidError) Is(target error) bool {
	t, ok := target.(*BidError)
	return ok && t.Reason == e.Reason
}

// Sentinels for the fixed rejection reasons.
var (
	ErrAuctionNotFound   = &BidError{Reason: ReasonNotFound}
	ErrAuctionNotStarted = &BidError{Reason: ReasonNotStarted}
	ErrAuctionEnded      = &BidError{Reason: ReasonAlreadyEnded}
	ErrSelfBid           = &BidError{Reason: ReasonSelfBid}
	ErrInvalidAmount     = &BidError{Reason: ReasonInvalidAmount}
	ErrBidTooLow         = &BidError{Reason: ReasonTooLow}
	ErrConflict          = &BidError{Reason: ReasonConflict}
)

// NewBidTooLow builds a TooLow rejection carrying the price to beat.
func NewBidTooLow(currentPrice decimal.Decimal) *BidError {
	return &BidError{Reason: ReasonTooLow, CurrentPrice: currentPrice}
}

// NewConflict builds a retryable conflict rejection carrying the price
// observed when the conflict was detected.
func NewConflict(currentPrice decimal.Decimal) *BidError {
	return &BidError{Reason: ReasonConflict, CurrentPrice: currentPrice}
}
