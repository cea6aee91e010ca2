package application

import (
	"context"
	"sync"
	"time"

	"github.com/auctionhall/engine/internal/auction/application/events"
	"github.com/auctionhall/engine/internal/auction/domain"
	userdomain "github.com/auctionhall/engine/internal/user/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// fakeTx satisfies pgx.Tx for use cases that own transactions. Commit and
// Rollback release the store's transaction mutex exactly once, so concurrent
// transactions serialize the way row locks do in Postgres.
type fakeTx struct {
	release func()
}

func (t *fakeTx) Commit(ctx context.Context) error   { t.release(); return nil }
func (t *fakeTx) Rollback(ctx context.Context) error { t.release(); return nil }

func (t *fakeTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }
func (t *fakeTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}
func (t *fakeTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, pgx.ErrNoRows
}
func (t *fakeTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }
func (t *fakeTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *fakeTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *fakeTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *fakeTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *fakeTx) Conn() *pgx.Conn { return nil }

// memStore is an in-memory stand-in for the pool and the auction/bid
// repositories. BeginTx takes a mutex held until Commit/Rollback, which gives
// transactions the same mutual exclusion the row lock gives the real store.
type memStore struct {
	txMu   sync.Mutex
	dataMu sync.Mutex

	auctions map[uuid.UUID]*domain.Auction
	bids     []*domain.Bid

	winningBidErr  map[uuid.UUID]error
	markEndedCalls int
}

func newMemStore() *memStore {
	return &memStore{
		auctions:      make(map[uuid.UUID]*domain.Auction),
		winningBidErr: make(map[uuid.UUID]error),
	}
}

func (s *memStore) put(a *domain.Auction) {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	cp := *a
	s.auctions[a.ID] = &cp
}

func (s *memStore) BeginTx(ctx context.Context, _ pgx.TxOptions) (pgx.Tx, error) {
	s.txMu.Lock()
	return &fakeTx{release: sync.OnceFunc(s.txMu.Unlock)}, nil
}

func (s *memStore) Create(ctx context.Context, a *domain.Auction) error {
	s.put(a)
	return nil
}

func (s *memStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Auction, error) {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	a, ok := s.auctions[id]
	if !ok {
		return nil, domain.ErrAuctionNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *memStore) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Auction, error) {
	return s.GetByID(ctx, id)
}

func (s *memStore) UpdateCurrentPrice(ctx context.Context, tx pgx.Tx, id uuid.UUID, price decimal.Decimal) error {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	if a, ok := s.auctions[id]; ok {
		a.CurrentPrice = price
	}
	return nil
}

func (s *memStore) List(ctx context.Context) ([]*domain.Auction, error) {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	out := make([]*domain.Auction, 0, len(s.auctions))
	for _, a := range s.auctions {
		cp := *a
		out = append(out, &cp)
	}
	return out, nil
}

func (s *memStore) ListByStatus(ctx context.Context, status domain.Status) ([]*domain.Auction, error) {
	all, _ := s.List(ctx)
	out := all[:0]
	for _, a := range all {
		if a.Status == status {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *memStore) ListSchedulable(ctx context.Context) ([]*domain.Auction, error) {
	all, _ := s.List(ctx)
	out := all[:0]
	for _, a := range all {
		if a.Status != domain.StatusEnded {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *memStore) DueStarts(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	var ids []uuid.UUID
	for _, a := range s.auctions {
		if a.Status == domain.StatusUpcoming && !now.Before(a.StartTime) {
			ids = append(ids, a.ID)
		}
	}
	return ids, nil
}

func (s *memStore) DueEnds(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	var ids []uuid.UUID
	for _, a := range s.auctions {
		if a.Status != domain.StatusEnded && !now.Before(a.EndTime) {
			ids = append(ids, a.ID)
		}
	}
	return ids, nil
}

func (s *memStore) MarkLive(ctx context.Context, id uuid.UUID, now time.Time) (*domain.Auction, error) {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	a, ok := s.auctions[id]
	if !ok || a.Status != domain.StatusUpcoming || now.Before(a.StartTime) {
		return nil, nil
	}
	a.Status = domain.StatusLive
	cp := *a
	return &cp, nil
}

func (s *memStore) MarkEnded(ctx context.Context, tx pgx.Tx, id uuid.UUID, winnerID *uuid.UUID, finalPrice decimal.Decimal) (*domain.Auction, error) {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	s.markEndedCalls++
	a, ok := s.auctions[id]
	if !ok || a.Status == domain.StatusEnded {
		return nil, nil
	}
	a.Status = domain.StatusEnded
	a.WinnerID = winnerID
	a.CurrentPrice = finalPrice
	cp := *a
	return &cp, nil
}

func (s *memStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	if _, ok := s.auctions[id]; !ok {
		return domain.ErrAuctionNotFound
	}
	delete(s.auctions, id)
	return nil
}

func (s *memStore) AddViews(ctx context.Context, id uuid.UUID, n int64) error {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	if a, ok := s.auctions[id]; ok {
		a.Views += n
	}
	return nil
}

func (s *memStore) Insert(ctx context.Context, tx pgx.Tx, bid *domain.Bid) error {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	cp := *bid
	s.bids = append(s.bids, &cp)
	return nil
}

func (s *memStore) ListByAuction(ctx context.Context, auctionID uuid.UUID) ([]*domain.Bid, error) {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	var out []*domain.Bid
	for _, b := range s.bids {
		if b.AuctionID == auctionID {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *memStore) WinningBid(ctx context.Context, tx pgx.Tx, auctionID uuid.UUID) (*domain.Bid, error) {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	if err, ok := s.winningBidErr[auctionID]; ok {
		return nil, err
	}
	var candidates []*domain.Bid
	for _, b := range s.bids {
		if b.AuctionID == auctionID {
			candidates = append(candidates, b)
		}
	}
	return domain.PickWinner(candidates), nil
}

func (s *memStore) acceptedBids(auctionID uuid.UUID) []*domain.Bid {
	bids, _ := s.ListByAuction(context.Background(), auctionID)
	return bids
}

type fakeUserRepo struct {
	users map[uuid.UUID]*userdomain.User
}

func newFakeUserRepo(users ...*userdomain.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[uuid.UUID]*userdomain.User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*userdomain.User, error) {
	if u, ok := r.users[id]; ok {
		return u, nil
	}
	return nil, userdomain.ErrUserNotFound
}

type publishedEvent struct {
	auctionID uuid.UUID
	kind      events.Kind
	payload   any
}

// recordingBroadcaster captures published events for assertions.
type recordingBroadcaster struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (b *recordingBroadcaster) Publish(auctionID uuid.UUID, kind events.Kind, payload any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, publishedEvent{auctionID: auctionID, kind: kind, payload: payload})
}

func (b *recordingBroadcaster) kinds() []events.Kind {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]events.Kind, len(b.events))
	for i, e := range b.events {
		out[i] = e.kind
	}
	return out
}
