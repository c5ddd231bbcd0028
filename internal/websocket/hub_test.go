package websocket

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/typing-racer/internal/domain"
)

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	hub := NewHub(nil, logger)
	go hub.Run()
	t.Cleanup(hub.Stop)
	return hub
}

func waitForConnections(t *testing.T, hub *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for hub.GetTotalConnections() != want {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d connections, have %d", want, hub.GetTotalConnections())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestBroadcastLeaderboardReachesClients(t *testing.T) {
	hub := newTestHub(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	client := NewClient(hub, nil, logger)
	hub.Register(client)
	waitForConnections(t, hub, 1)

	entries := []domain.RankedRecord{
		{ScoreRecord: domain.ScoreRecord{ID: "a", Name: "alice", WPM: 80}, Score: 80, Rank: 1},
	}
	hub.BroadcastLeaderboard(domain.FilterDaily, entries)

	select {
	case data := <-client.send:
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("decoding broadcast: %v", err)
		}
		if msg.Type != MessageTypeLeaderboardUpdate {
			t.Fatalf("expected leaderboard_update, got %q", msg.Type)
		}
		var got []domain.RankedRecord
		if err := json.Unmarshal(msg.Data, &got); err != nil {
			t.Fatalf("decoding entries: %v", err)
		}
		if len(got) != 1 || got[0].Name != "alice" || got[0].Rank != 1 {
			t.Fatalf("unexpected entries: %+v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("broadcast never reached the client")
	}
}

func TestRegisterUnregisterAfterStop(t *testing.T) {
	// A connection tearing down after shutdown must not block its goroutine
	// on the stopped hub loop.
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	hub := NewHub(nil, logger)
	go hub.Run()

	client := NewClient(hub, nil, logger)
	hub.Register(client)
	waitForConnections(t, hub, 1)

	hub.Stop()

	done := make(chan struct{})
	go func() {
		hub.Unregister(client)
		hub.Register(NewClient(hub, nil, logger))
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("register/unregister blocked after Stop")
	}
}

func TestUnregisterClosesSend(t *testing.T) {
	hub := newTestHub(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	client := NewClient(hub, nil, logger)
	hub.Register(client)
	waitForConnections(t, hub, 1)

	hub.Unregister(client)
	waitForConnections(t, hub, 0)

	select {
	case _, ok := <-client.send:
		if ok {
			t.Fatal("expected closed send channel")
		}
	case <-time.After(time.Second):
		t.Fatal("send channel not closed")
	}
}
