package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/typing-racer/internal/config"
	"github.com/typing-racer/internal/domain"
)

// memStore is an in-memory Store with the same windowing semantics as the
// SQL-backed implementations.
type memStore struct {
	records []domain.ScoreRecord
	daily   map[string]domain.DailyStats
}

func newMemStore() *memStore {
	return &memStore{daily: make(map[string]domain.DailyStats)}
}

func (m *memStore) InsertScore(_ context.Context, rec domain.ScoreRecord) error {
	m.records = append(m.records, rec)
	return nil
}

func (m *memStore) ListScoresSince(_ context.Context, since time.Time) ([]domain.ScoreRecord, error) {
	var out []domain.ScoreRecord
	for _, rec := range m.records {
		if !rec.Timestamp.Before(since) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (m *memStore) DeleteScoresBefore(_ context.Context, cutoff time.Time) (int64, error) {
	var kept []domain.ScoreRecord
	var removed int64
	for _, rec := range m.records {
		if rec.Timestamp.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, rec)
	}
	m.records = kept
	return removed, nil
}

func (m *memStore) UpsertDailyStats(_ context.Context, stats domain.DailyStats) error {
	m.daily[stats.Date] = stats
	return nil
}

func (m *memStore) GlobalStats(_ context.Context, todayStart time.Time) (*domain.GlobalStats, error) {
	stats := &domain.GlobalStats{TotalRaces: len(m.records)}
	players := map[string]struct{}{}
	for _, rec := range m.records {
		players[rec.Name] = struct{}{}
		if rec.WPM > stats.HighestWPM {
			stats.HighestWPM = rec.WPM
		}
		if !rec.Timestamp.Before(todayStart) {
			stats.TodayRaces++
		}
	}
	stats.TotalPlayers = len(players)
	return stats, nil
}

type captureBroadcaster struct {
	filter  domain.Filter
	entries []domain.RankedRecord
	calls   int
}

func (b *captureBroadcaster) BroadcastLeaderboard(filter domain.Filter, entries []domain.RankedRecord) {
	b.filter = filter
	b.entries = entries
	b.calls++
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(store *memStore, limit int) (*LeaderboardService, *captureBroadcaster) {
	svc := NewLeaderboardService(store, nil, &config.LeaderboardConfig{Limit: limit}, discardLogger())
	b := &captureBroadcaster{}
	svc.SetBroadcaster(b)
	return svc, b
}

func fixedNow() time.Time {
	return time.Date(2026, time.September, 1, 15, 0, 0, 0, time.UTC)
}

func TestSubmitPersistsAndBroadcasts(t *testing.T) {
	store := newMemStore()
	svc, b := newTestService(store, 50)
	svc.now = fixedNow

	result, err := svc.Submit(context.Background(), domain.Submission{
		Name:       "alice",
		WPM:        50,
		Accuracy:   100,
		Time:       60,
		Difficulty: domain.DifficultyMedium,
	})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if result.ID == "" {
		t.Error("expected a generated id")
	}
	if result.Score != 60 {
		t.Errorf("expected weighted score 60, got %v", result.Score)
	}

	if len(store.records) != 1 {
		t.Fatalf("expected 1 persisted record, got %d", len(store.records))
	}
	if !store.records[0].Timestamp.Equal(fixedNow()) {
		t.Errorf("zero submission timestamp should be filled with now, got %v", store.records[0].Timestamp)
	}

	if b.calls != 1 || b.filter != domain.FilterDaily {
		t.Fatalf("expected one daily broadcast, got %d calls for %q", b.calls, b.filter)
	}
	if len(b.entries) != 1 || b.entries[0].Rank != 1 {
		t.Fatalf("broadcast entries wrong: %+v", b.entries)
	}

	stats, ok := store.daily["2026-09-01"]
	if !ok {
		t.Fatal("daily stats not upserted")
	}
	if stats.TotalRaces != 1 || stats.HighestWPM != 50 || stats.TotalPlayers != 1 {
		t.Errorf("daily stats wrong: %+v", stats)
	}
}

func TestSubmitRejectionPersistsNothing(t *testing.T) {
	store := newMemStore()
	svc, b := newTestService(store, 50)

	_, err := svc.Submit(context.Background(), domain.Submission{
		Name:       "bob",
		WPM:        500,
		Accuracy:   100,
		Time:       60,
		Difficulty: domain.DifficultyMedium,
	})
	if !errors.Is(err, domain.ErrInvalidSubmission) {
		t.Fatalf("expected ErrInvalidSubmission, got %v", err)
	}
	if len(store.records) != 0 {
		t.Fatal("rejected submission must not be persisted")
	}
	if b.calls != 0 {
		t.Fatal("rejected submission must not broadcast")
	}
}

func TestQueryWindowsAndLimit(t *testing.T) {
	store := newMemStore()
	svc, _ := newTestService(store, 2)
	svc.now = fixedNow

	add := func(name string, wpm int, ts time.Time) {
		store.records = append(store.records, domain.ScoreRecord{
			ID: name, Name: name, WPM: wpm, Accuracy: 100,
			Difficulty: domain.DifficultyEasy, Timestamp: ts,
		})
	}
	add("today-fast", 90, fixedNow().Add(-time.Hour))
	add("today-slow", 40, fixedNow().Add(-2*time.Hour))
	add("today-mid", 60, fixedNow().Add(-3*time.Hour))
	add("yesterday", 120, fixedNow().Add(-24*time.Hour))

	daily, err := svc.Query(context.Background(), domain.FilterDaily)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(daily) != 2 {
		t.Fatalf("limit 2 should cap the board, got %d entries", len(daily))
	}
	if daily[0].ID != "today-fast" || daily[1].ID != "today-mid" {
		t.Fatalf("unexpected daily order: %s, %s", daily[0].ID, daily[1].ID)
	}
	for _, e := range daily {
		if e.ID == "yesterday" {
			t.Fatal("daily board must exclude yesterday's records")
		}
	}

	alltime, err := svc.Query(context.Background(), domain.FilterAllTime)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if alltime[0].ID != "yesterday" {
		t.Fatalf("alltime board should include yesterday's 120 wpm first, got %s", alltime[0].ID)
	}
}

func TestQueryDefaultsAndRejects(t *testing.T) {
	svc, _ := newTestService(newMemStore(), 50)

	if _, err := svc.Query(context.Background(), ""); err != nil {
		t.Fatalf("empty filter should default to daily, got %v", err)
	}
	_, err := svc.Query(context.Background(), "monthly")
	if !errors.Is(err, domain.ErrInvalidFilter) {
		t.Fatalf("expected ErrInvalidFilter, got %v", err)
	}
}

func TestPurgeBoundary(t *testing.T) {
	store := newMemStore()
	svc, _ := newTestService(store, 50)
	svc.now = fixedNow

	cutoff := fixedNow().AddDate(0, 0, -RetentionDays)
	store.records = append(store.records,
		domain.ScoreRecord{ID: "ancient", Timestamp: cutoff.Add(-time.Second)},
		domain.ScoreRecord{ID: "boundary", Timestamp: cutoff},
		domain.ScoreRecord{ID: "fresh", Timestamp: fixedNow()},
	)

	removed, err := svc.Purge(context.Background())
	if err != nil {
		t.Fatalf("purge failed: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed record, got %d", removed)
	}
	for _, rec := range store.records {
		if rec.ID == "ancient" {
			t.Fatal("record past retention still present")
		}
	}
	if len(store.records) != 2 {
		t.Fatalf("boundary record must be kept, have %d records", len(store.records))
	}
}

func TestStats(t *testing.T) {
	store := newMemStore()
	svc, _ := newTestService(store, 50)
	svc.now = fixedNow

	store.records = append(store.records,
		domain.ScoreRecord{Name: "alice", WPM: 80, Timestamp: fixedNow().Add(-time.Hour)},
		domain.ScoreRecord{Name: "bob", WPM: 60, Timestamp: fixedNow().Add(-48 * time.Hour)},
	)

	stats, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if stats.TotalRaces != 2 || stats.TodayRaces != 1 || stats.HighestWPM != 80 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}
