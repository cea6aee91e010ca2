package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/auctionhall/engine/internal/auction/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const auctionColumns = `id, title, COALESCE(description, ''), COALESCE(image, ''), views, category,
	starting_price, current_price, start_time, end_time, seller_id, winner_id, status, created_at, updated_at`

// AuctionRepository implements domain.AuctionRepository on PostgreSQL. The
// status-guarded UPDATE predicates are what make transitions idempotent under
// concurrent sweeps: the second attempt matches zero rows.
type AuctionRepository struct {
	pool *pgxpool.Pool
}

func NewAuctionRepository(pool *pgxpool.Pool) *AuctionRepository {
	return &AuctionRepository{pool: pool}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAuction(row rowScanner) (*domain.Auction, error) {
	a := &domain.Auction{}
	err := row.Scan(
		&a.ID,
		&a.Title,
		&a.Description,
		&a.Image,
		&a.Views,
		&a.Category,
		&a.StartingPrice,
		&a.CurrentPrice,
		&a.StartTime,
		&a.EndTime,
		&a.SellerID,
		&a.WinnerID,
		&a.Status,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func collectAuctions(rows pgx.Rows) ([]*domain.Auction, error) {
	defer rows.Close()
	var auctions []*domain.Auction
	for rows.Next() {
		a, err := scanAuction(rows)
		if err != nil {
			return nil, err
		}
		auctions = append(auctions, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return auctions, nil
}

func (r *AuctionRepository) Create(ctx context.Context, a *domain.Auction) error {
	query := `
        INSERT INTO auctions (id, title, description, image, category, starting_price, current_price,
            start_time, end_time, seller_id, status)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
    `
	_, err := r.pool.Exec(ctx, query,
		a.ID,
		a.Title,
		a.Description,
		a.Image,
		a.Category,
		a.StartingPrice,
		a.CurrentPrice,
		a.StartTime,
		a.EndTime,
		a.SellerID,
		a.Status,
	)
	return err
}

func (r *AuctionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Auction, error) {
	query := `SELECT ` + auctionColumns + ` FROM auctions WHERE id = $1`

	a, err := scanAuction(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAuctionNotFound
		}
		return nil, err
	}
	return a, nil
}

// GetByIDForUpdate re-reads the auction row holding its row-level write lock
// for the rest of the transaction. Bid commits and end transitions both come
// through here, so one always serializes behind the other.
func (r *AuctionRepository) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Auction, error) {
	query := `SELECT ` + auctionColumns + ` FROM auctions WHERE id = $1 FOR UPDATE`

	a, err := scanAuction(tx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAuctionNotFound
		}
		return nil, err
	}
	return a, nil
}

func (r *AuctionRepository) UpdateCurrentPrice(ctx context.Context, tx pgx.Tx, id uuid.UUID, price decimal.Decimal) error {
	_, err := tx.Exec(ctx,
		`UPDATE auctions SET current_price = $2, updated_at = NOW() WHERE id = $1`,
		id, price)
	return err
}

func (r *AuctionRepository) List(ctx context.Context) ([]*domain.Auction, error) {
	query := `SELECT ` + auctionColumns + ` FROM auctions ORDER BY end_time ASC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	return collectAuctions(rows)
}

func (r *AuctionRepository) ListByStatus(ctx context.Context, status domain.Status) ([]*domain.Auction, error) {
	query := `SELECT ` + auctionColumns + ` FROM auctions WHERE status = $1 ORDER BY end_time ASC`
	rows, err := r.pool.Query(ctx, query, status)
	if err != nil {
		return nil, err
	}
	return collectAuctions(rows)
}

func (r *AuctionRepository) ListSchedulable(ctx context.Context) ([]*domain.Auction, error) {
	query := `SELECT ` + auctionColumns + ` FROM auctions WHERE status IN ('upcoming', 'live') ORDER BY end_time ASC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	return collectAuctions(rows)
}

func (r *AuctionRepository) DueStarts(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	return r.collectIDs(ctx,
		`SELECT id FROM auctions WHERE status = 'upcoming' AND start_time <= $1`, now)
}

// DueEnds also catches auctions still marked upcoming whose end time passed
// while the process was down; they end directly without a live phase.
func (r *AuctionRepository) DueEnds(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	return r.collectIDs(ctx,
		`SELECT id FROM auctions WHERE status IN ('upcoming', 'live') AND end_time <= $1`, now)
}

func (r *AuctionRepository) collectIDs(ctx context.Context, query string, args ...any) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

// MarkLive flips upcoming -> live. The predicate carries the status guard so
// a concurrent evaluation matches zero rows and returns nil.
func (r *AuctionRepository) MarkLive(ctx context.Context, id uuid.UUID, now time.Time) (*domain.Auction, error) {
	query := `
        UPDATE auctions SET status = 'live', updated_at = NOW()
        WHERE id = $1 AND status = 'upcoming' AND start_time <= $2
        RETURNING ` + auctionColumns

	a, err := scanAuction(r.pool.QueryRow(ctx, query, id, now))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return a, nil
}

// MarkEnded commits winner, final price and the terminal status in one
// statement. The status guard freezes 'ended': the write never reverts or
// repeats even under concurrent resolution attempts.
func (r *AuctionRepository) MarkEnded(ctx context.Context, tx pgx.Tx, id uuid.UUID, winnerID *uuid.UUID, finalPrice decimal.Decimal) (*domain.Auction, error) {
	query := `
        UPDATE auctions SET status = 'ended', winner_id = $2, current_price = $3, updated_at = NOW()
        WHERE id = $1 AND status <> 'ended'
        RETURNING ` + auctionColumns

	a, err := scanAuction(tx.QueryRow(ctx, query, id, winnerID, finalPrice))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return a, nil
}

func (r *AuctionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM auctions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAuctionNotFound
	}
	return nil
}

func (r *AuctionRepository) AddViews(ctx context.Context, id uuid.UUID, n int64) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE auctions SET views = views + $2 WHERE id = $1`, id, n)
	return err
}
