package views

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type recordingStore struct {
	mu     sync.Mutex
	counts map[uuid.UUID]int64
	err    error
}

func newRecordingStore() *recordingStore {
	return &recordingStore{counts: make(map[uuid.UUID]int64)}
}

func (s *recordingStore) AddViews(ctx context.Context, id uuid.UUID, n int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.counts[id] += n
	return nil
}

func (s *recordingStore) count(id uuid.UUID) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[id]
}

func (s *recordingStore) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// drain runs the counter against an already-cancelled context, which performs
// exactly the final flush and returns.
func drain(c *MemoryCounter) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c.Run(ctx)
}

func TestMemoryCounter_FlushAggregatesBumps(t *testing.T) {
	store := newRecordingStore()
	c := NewMemoryCounter(store, time.Hour)

	a := uuid.New()
	b := uuid.New()
	for i := 0; i < 3; i++ {
		c.Bump(a)
	}
	c.Bump(b)

	drain(c)
	require.Equal(t, int64(3), store.count(a))
	require.Equal(t, int64(1), store.count(b))

	// Flushed counts are not re-sent.
	drain(c)
	require.Equal(t, int64(3), store.count(a))
}

func TestMemoryCounter_RebuffersOnFlushFailure(t *testing.T) {
	store := newRecordingStore()
	c := NewMemoryCounter(store, time.Hour)

	a := uuid.New()
	c.Bump(a)
	c.Bump(a)

	store.fail(errors.New("storage unavailable"))
	drain(c)
	require.Zero(t, store.count(a))

	// Counts survive the failed flush and land once storage recovers.
	store.fail(nil)
	c.Bump(a)
	drain(c)
	require.Equal(t, int64(3), store.count(a))
}

func TestMemoryCounter_PeriodicFlush(t *testing.T) {
	store := newRecordingStore()
	c := NewMemoryCounter(store, 20*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx)

	a := uuid.New()
	c.Bump(a)

	require.Eventually(t, func() bool {
		return store.count(a) == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestMemoryCounter_ConcurrentBumps(t *testing.T) {
	store := newRecordingStore()
	c := NewMemoryCounter(store, time.Hour)
	a := uuid.New()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Bump(a)
		}()
	}
	wg.Wait()

	drain(c)
	require.Equal(t, int64(50), store.count(a))
}
