package views

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/auctionhall/engine/internal/shared/logger"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

// Store is the slice of the ledger the flushers write to.
type Store interface {
	AddViews(ctx context.Context, id uuid.UUID, n int64) error
}

// Counter buffers view counts and flushes them to the ledger out of band.
// Bump never blocks the read path and flush failures only delay counts, they
// never lose the monotonic floor already persisted.
type Counter interface {
	Bump(auctionID uuid.UUID)
	Run(ctx context.Context)
}

// MemoryCounter keeps counts in process. Counts buffered between flushes are
// lost on crash, acceptable for a best-effort popularity signal.
type MemoryCounter struct {
	store    Store
	interval time.Duration

	mu     sync.Mutex
	counts map[uuid.UUID]int64
}

func NewMemoryCounter(store Store, flushInterval time.Duration) *MemoryCounter {
	return &MemoryCounter{
		store:    store,
		interval: flushInterval,
		counts:   make(map[uuid.UUID]int64),
	}
}

func (c *MemoryCounter) Bump(auctionID uuid.UUID) {
	c.mu.Lock()
	c.counts[auctionID]++
	c.mu.Unlock()
}

// Run flushes on the interval until ctx is cancelled, then flushes one last
// time.
func (c *MemoryCounter) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.flush(context.Background())
			return
		case <-ticker.C:
			c.flush(ctx)
		}
	}
}

func (c *MemoryCounter) flush(ctx context.Context) {
	c.mu.Lock()
	pending := c.counts
	c.counts = make(map[uuid.UUID]int64)
	c.mu.Unlock()

	for id, n := range pending {
		if err := c.store.AddViews(ctx, id, n); err != nil {
			log.Error("Failed to flush view counts",
				zap.String("auctionID", id.String()),
				zap.Int64("count", n),
				zap.Error(err),
			)
			// Re-buffer so the next flush retries.
			c.mu.Lock()
			c.counts[id] += n
			c.mu.Unlock()
		}
	}
}

const redisViewsKey = "auctionhall:views"

// RedisCounter buffers counts in a Redis hash, surviving process restarts
// and shared across instances, and flushes them to the ledger on an interval.
type RedisCounter struct {
	client   *redis.Client
	store    Store
	interval time.Duration
}

func NewRedisCounter(ctx context.Context, opts *redis.Options, store Store, flushInterval time.Duration) (*RedisCounter, error) {
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return &RedisCounter{
		client:   client,
		store:    store,
		interval: flushInterval,
	}, nil
}

func (c *RedisCounter) Bump(auctionID uuid.UUID) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := c.client.HIncrBy(ctx, redisViewsKey, auctionID.String(), 1).Err(); err != nil {
		log.Warn("Failed to buffer view count",
			zap.String("auctionID", auctionID.String()),
			zap.Error(err),
		)
	}
}

func (c *RedisCounter) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.flush(context.Background())
			_ = c.client.Close()
			return
		case <-ticker.C:
			c.flush(ctx)
		}
	}
}

func (c *RedisCounter) flush(ctx context.Context) {
	counts, err := c.client.HGetAll(ctx, redisViewsKey).Result()
	if err != nil {
		log.Error("Failed to read buffered view counts", zap.Error(err))
		return
	}
	if len(counts) == 0 {
		return
	}

	for field, raw := range counts {
		id, err := uuid.Parse(field)
		if err != nil {
			// Junk field, drop it so it does not wedge the flush forever.
			_ = c.client.HDel(ctx, redisViewsKey, field).Err()
			continue
		}
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n <= 0 {
			_ = c.client.HDel(ctx, redisViewsKey, field).Err()
			continue
		}
		if err := c.store.AddViews(ctx, id, n); err != nil {
			log.Error("Failed to flush view counts",
				zap.String("auctionID", field),
				zap.Error(err),
			)
			continue
		}
		// Decrement by what we persisted; concurrent bumps since HGetAll
		// stay buffered for the next flush.
		if err := c.client.HIncrBy(ctx, redisViewsKey, field, -n).Err(); err != nil {
			log.Warn("Failed to clear flushed view counts",
				zap.String("auctionID", field),
				zap.Error(err),
			)
		}
	}
}
