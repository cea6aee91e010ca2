package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/auctionhall/engine/internal/auction/domain"
	"github.com/auctionhall/engine/internal/shared/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

// Lifecycle is the slice of the application layer the scheduler drives.
type Lifecycle interface {
	StartAuction(ctx context.Context, id uuid.UUID) (*domain.Auction, error)
	EndAuction(ctx context.Context, id uuid.UUID) (*domain.Auction, error)
	SweepOnce(ctx context.Context, now time.Time) (started, ended int, err error)
	Schedulable(ctx context.Context) ([]*domain.Auction, error)
}

// timerPair holds the armed one-shot timers for one auction.
type timerPair struct {
	start *time.Timer
	end   *time.Timer
}

// Scheduler drives lifecycle transitions two ways at once: per-auction
// one-shot timers give sub-interval latency, and a periodic sweep re-evaluates
// everything against the ledger. The timers are a cache, not a source of
// truth — on restart they are rebuilt from persisted auctions, and the sweep
// catches anything a lost or late timer missed. All paths funnel into the same
// status-guarded transitions, so double firing is a no-op.
type Scheduler struct {
	lifecycle Lifecycle
	interval  time.Duration

	mu     sync.Mutex
	timers map[uuid.UUID]*timerPair
	ctx    context.Context
}

func New(lifecycle Lifecycle, sweepInterval time.Duration) *Scheduler {
	return &Scheduler{
		lifecycle: lifecycle,
		interval:  sweepInterval,
		timers:    make(map[uuid.UUID]*timerPair),
		ctx:       context.Background(),
	}
}

// Start runs the catch-up sweep, rebuilds timers from persisted upcoming and
// live auctions, and launches the periodic sweep loop. Blocks only for the
// initial catch-up; the loop runs until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	// Catch-up: resolve transitions missed while the process was down.
	started, ended, err := s.lifecycle.SweepOnce(ctx, time.Now())
	if err != nil {
		return err
	}
	log.Info("Scheduler catch-up sweep complete",
		zap.Int("started", started),
		zap.Int("ended", ended),
	)

	auctions, err := s.lifecycle.Schedulable(ctx)
	if err != nil {
		return err
	}
	for _, a := range auctions {
		s.Track(a)
	}
	log.Info("Scheduler timers armed", zap.Int("auctions", len(auctions)))

	go s.sweepLoop(ctx)
	return nil
}

func (s *Scheduler) sweepLoop(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("Scheduler sweep loop stopped")
			s.cancelAll()
			return
		case now := <-ticker.C:
			started, ended, err := s.lifecycle.SweepOnce(ctx, now)
			if err != nil {
				// Per-auction failures are already isolated inside the
				// sweep; an error here means the due queries failed.
				log.Error("Scheduler sweep failed", zap.Error(err))
				continue
			}
			if started > 0 || ended > 0 {
				log.Info("Scheduler sweep transitioned auctions",
					zap.Int("started", started),
					zap.Int("ended", ended),
				)
			}
		}
	}
}

// Track arms one-shot timers for the auction's pending transitions. Safe to
// call again for the same auction; existing timers are replaced.
func (s *Scheduler) Track(a *domain.Auction) {
	if a.Status == domain.StatusEnded {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.timers[a.ID]; ok {
		stopPair(old)
	}

	id := a.ID
	now := time.Now()
	pair := &timerPair{}

	if a.Status == domain.StatusUpcoming {
		pair.start = time.AfterFunc(delayUntil(a.StartTime, now), func() {
			s.fireStart(id)
		})
	}
	pair.end = time.AfterFunc(delayUntil(a.EndTime, now), func() {
		s.fireEnd(id)
	})

	s.timers[id] = pair
}

// Cancel stops and forgets the auction's timers, so a deleted auction cannot
// have a transition fired against it.
func (s *Scheduler) Cancel(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if pair, ok := s.timers[id]; ok {
		stopPair(pair)
		delete(s.timers, id)
	}
}

func (s *Scheduler) fireStart(id uuid.UUID) {
	ctx := s.runCtx()
	if ctx.Err() != nil {
		return
	}
	if _, err := s.lifecycle.StartAuction(ctx, id); err != nil {
		log.Error("Timer failed to start auction",
			zap.String("auctionID", id.String()),
			zap.Error(err),
		)
	}
}

func (s *Scheduler) fireEnd(id uuid.UUID) {
	ctx := s.runCtx()
	if ctx.Err() != nil {
		return
	}
	if _, err := s.lifecycle.EndAuction(ctx, id); err != nil {
		log.Error("Timer failed to end auction",
			zap.String("auctionID", id.String()),
			zap.Error(err),
		)
	}
	s.Cancel(id)
}

func (s *Scheduler) runCtx() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctx
}

func (s *Scheduler) cancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, pair := range s.timers {
		stopPair(pair)
		delete(s.timers, id)
	}
}

func stopPair(p *timerPair) {
	if p.start != nil {
		p.start.Stop()
	}
	if p.end != nil {
		p.end.Stop()
	}
}

func delayUntil(t, now time.Time) time.Duration {
	d := t.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}
