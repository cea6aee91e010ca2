package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status represents the lifecycle state of an auction. Transitions only move
// forward: upcoming -> live -> ended, and ended is terminal.
type Status string

const (
	StatusUpcoming Status = "upcoming"
	StatusLive     Status = "live"
	StatusEnded    Status = "ended"
)

// Category is the closed set of auction categories.
type Category string

const (
	CategoryElectronics  Category = "Electronics"
	CategoryCollectibles Category = "Collectibles"
	CategoryFashion      Category = "Fashion"
	CategoryHome         Category = "Home"
	CategorySports       Category = "Sports"
	CategoryToys         Category = "Toys"
	CategoryOther        Category = "Other"
)

// ParseCategory validates a raw category string against the closed set.
func ParseCategory(raw string) (Category, error) {
	switch c := Category(raw); c {
	case CategoryElectronics, CategoryCollectibles, CategoryFashion,
		CategoryHome, CategorySports, CategoryToys, CategoryOther:
		return c, nil
	default:
		return "", ErrInvalidCategory
	}
}

// Auction is a timed sell listing. CurrentPrice is strictly derived from the
// bids table: it equals the starting price until the first accepted bid, then
// always the highest accepted bid amount.
type Auction struct {
	ID            uuid.UUID
	Title         string
	Description   string
	Image         string
	Category      Category
	StartingPrice decimal.Decimal
	CurrentPrice  decimal.Decimal
	StartTime     time.Time
	EndTime       time.Time
	SellerID      uuid.UUID
	WinnerID      *uuid.UUID
	Status        Status
	Views         int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewAuction validates listing input and builds an Auction with its initial
// status computed from the timestamps: live if the start time has already
// passed, upcoming otherwise.
func NewAuction(title, description, image string, category Category,
	startingPrice decimal.Decimal, startTime, endTime time.Time, sellerID uuid.UUID, now time.Time) (*Auction, error) {

	if title == "" {
		return nil, ErrMissingTitle
	}
	if !startingPrice.IsPositive() {
		return nil, ErrInvalidStartingPrice
	}
	if !endTime.After(startTime) {
		return nil, ErrInvalidSchedule
	}

	return &Auction{
		ID:            uuid.New(),
		Title:         title,
		Description:   description,
		Image:         image,
		Category:      category,
		StartingPrice: startingPrice,
		CurrentPrice:  startingPrice,
		StartTime:     startTime,
		EndTime:       endTime,
		SellerID:      sellerID,
		Status:        StatusAt(startTime, endTime, now),
	}, nil
}

// StatusAt computes the lifecycle status for a schedule at a given instant.
// Deterministic: same inputs always yield the same status. The stored status
// additionally freezes at ended; callers must never write a status computed
// here over a stored 'ended'.
func StatusAt(startTime, endTime, now time.Time) Status {
	switch {
	case now.Before(startTime):
		return StatusUpcoming
	case now.Before(endTime):
		return StatusLive
	default:
		return StatusEnded
	}
}

// HasEnded reports whether the auction's end time has passed or its stored
// status already froze at ended.
func (a *Auction) HasEnded(now time.Time) bool {
	return a.Status == StatusEnded || !now.Before(a.EndTime)
}
