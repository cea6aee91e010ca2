package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// FavoriteRepository implements domain.FavoriteRepository.
type FavoriteRepository struct {
	pool *pgxpool.Pool
}

func NewFavoriteRepository(pool *pgxpool.Pool) *FavoriteRepository {
	return &FavoriteRepository{pool: pool}
}

// Toggle removes the pair if present, inserts it otherwise, and reports the
// resulting state. The unique (user_id, auction_id) constraint keeps the pair
// single even if two toggles race; the loser's insert fails and is reported
// as already-favorited.
func (r *FavoriteRepository) Toggle(ctx context.Context, userID, auctionID uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM favorites WHERE user_id = $1 AND auction_id = $2`, userID, auctionID)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() > 0 {
		return false, nil
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO favorites (user_id, auction_id) VALUES ($1, $2)
         ON CONFLICT (user_id, auction_id) DO NOTHING`, userID, auctionID)
	if err != nil {
		return false, err
	}
	return true, nil
}
