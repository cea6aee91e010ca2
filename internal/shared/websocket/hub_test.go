package websocket

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testClient(hub *Hub, auctionID, id string) *Client {
	return &Client{
		Hub:       hub,
		Send:      make(chan []byte, 16),
		AuctionID: auctionID,
		ID:        id,
	}
}

func receive(t *testing.T, c *Client) []byte {
	t.Helper()
	select {
	case msg := <-c.Send:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for broadcast")
		return nil
	}
}

func TestHub_BroadcastScopedToAuction(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	watcherA1 := testClient(hub, "auction-a", "c1")
	watcherA2 := testClient(hub, "auction-a", "c2")
	watcherB := testClient(hub, "auction-b", "c3")
	hub.register <- watcherA1
	hub.register <- watcherA2
	hub.register <- watcherB

	hub.BroadcastToAuction("auction-a", []byte(`{"type":"bid_accepted"}`))

	require.JSONEq(t, `{"type":"bid_accepted"}`, string(receive(t, watcherA1)))
	require.JSONEq(t, `{"type":"bid_accepted"}`, string(receive(t, watcherA2)))

	select {
	case msg := <-watcherB.Send:
		t.Fatalf("observer of another auction received %q", msg)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestHub_UnregisterClosesSendChannel(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	client := testClient(hub, "auction-a", "c1")
	hub.register <- client
	hub.unregister <- client

	select {
	case _, open := <-client.Send:
		require.False(t, open)
	case <-time.After(2 * time.Second):
		t.Fatal("send channel was not closed")
	}

	// Broadcasts after unregister go nowhere and do not panic.
	hub.BroadcastToAuction("auction-a", []byte("late"))
}

func TestHub_DropsSlowClient(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	slow := &Client{Hub: hub, Send: make(chan []byte), AuctionID: "auction-a", ID: "slow"}
	healthy := testClient(hub, "auction-a", "healthy")
	hub.register <- slow
	hub.register <- healthy

	// The slow client's unbuffered channel has no reader; the hub must drop
	// it and keep delivering to the healthy one.
	hub.BroadcastToAuction("auction-a", []byte("first"))
	require.Equal(t, "first", string(receive(t, healthy)))

	hub.BroadcastToAuction("auction-a", []byte("second"))
	require.Equal(t, "second", string(receive(t, healthy)))

	select {
	case _, open := <-slow.Send:
		require.False(t, open)
	case <-time.After(2 * time.Second):
		t.Fatal("slow client was not dropped")
	}
}
