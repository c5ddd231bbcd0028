package sqlite

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/typing-racer/internal/domain"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := Open(filepath.Join(t.TempDir(), "scores.db"), logger)
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func record(id string, wpm int, ts time.Time) domain.ScoreRecord {
	return domain.ScoreRecord{
		ID:         id,
		Name:       "racer-" + id,
		WPM:        wpm,
		Accuracy:   95,
		Time:       42.5,
		Difficulty: domain.DifficultyMedium,
		Timestamp:  ts,
	}
}

func TestInsertAndListSince(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, time.September, 1, 10, 0, 0, 0, time.UTC)

	for i, ts := range []time.Time{base, base.Add(time.Hour), base.Add(-time.Hour)} {
		if err := store.InsertScore(ctx, record(string(rune('a'+i)), 50+i, ts)); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	records, err := store.ListScoresSince(ctx, base)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records at or after base, got %d", len(records))
	}
	// Newest first.
	if records[0].ID != "b" || records[1].ID != "a" {
		t.Fatalf("unexpected order: %s, %s", records[0].ID, records[1].ID)
	}
	if !records[1].Timestamp.Equal(base) {
		t.Fatalf("boundary record must be included, timestamp %v", records[1].Timestamp)
	}
	if records[0].Difficulty != domain.DifficultyMedium || records[0].Time != 42.5 {
		t.Fatalf("round trip lost fields: %+v", records[0])
	}
}

func TestListSinceSubSecondOrdering(t *testing.T) {
	// Stored timestamps compare as strings, so sub-second values must not
	// break the windowing.
	store := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, time.September, 1, 10, 0, 0, 0, time.UTC)

	if err := store.InsertScore(ctx, record("frac", 50, base.Add(500*time.Millisecond))); err != nil {
		t.Fatalf("insert: %v", err)
	}
	records, err := store.ListScoresSince(ctx, base.Add(time.Second))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("record at +0.5s listed for window starting +1s")
	}
	records, err = store.ListScoresSince(ctx, base)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("record at +0.5s missing for window starting at base")
	}
}

func TestDeleteScoresBefore(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	cutoff := time.Date(2026, time.August, 2, 0, 0, 0, 0, time.UTC)

	store.InsertScore(ctx, record("old", 50, cutoff.Add(-time.Minute)))
	store.InsertScore(ctx, record("edge", 50, cutoff))
	store.InsertScore(ctx, record("new", 50, cutoff.Add(time.Minute)))

	removed, err := store.DeleteScoresBefore(ctx, cutoff)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}

	records, err := store.ListScoresSince(ctx, time.Time{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected edge and new to survive, got %d records", len(records))
	}
}

func TestUpsertDailyStats(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	stats := domain.DailyStats{Date: "2026-09-01", TotalRaces: 1, AverageWPM: 50, HighestWPM: 50, TotalPlayers: 1}
	if err := store.UpsertDailyStats(ctx, stats); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	stats.TotalRaces = 5
	stats.HighestWPM = 90
	if err := store.UpsertDailyStats(ctx, stats); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	var races, highest int
	err := store.db.QueryRow(`SELECT total_races, highest_wpm FROM daily_stats WHERE date = ?`, "2026-09-01").
		Scan(&races, &highest)
	if err != nil {
		t.Fatalf("reading stats row: %v", err)
	}
	if races != 5 || highest != 90 {
		t.Fatalf("upsert did not replace: races %d, highest %d", races, highest)
	}
}

func TestGlobalStats(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	today := time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC)

	store.InsertScore(ctx, record("a", 80, today.Add(2*time.Hour)))
	store.InsertScore(ctx, record("b", 60, today.Add(-10*time.Hour)))

	stats, err := store.GlobalStats(ctx, today)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalRaces != 2 || stats.HighestWPM != 80 || stats.TodayRaces != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if stats.TotalPlayers != 2 {
		t.Fatalf("expected 2 distinct players, got %d", stats.TotalPlayers)
	}
	if len(stats.Difficulties) != 1 || stats.Difficulties[0].Races != 2 {
		t.Fatalf("unexpected difficulty breakdown: %+v", stats.Difficulties)
	}
}
