package domain

import (
	"errors"
	"testing"
	"time"
)

func validSubmission() Submission {
	return Submission{
		Name:       "racer",
		WPM:        50,
		Accuracy:   100,
		Time:       60,
		Difficulty: DifficultyMedium,
	}
}

func TestValidateAccepts(t *testing.T) {
	if err := validSubmission().Validate(); err != nil {
		t.Fatalf("expected valid submission, got %v", err)
	}
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]func(*Submission){
		"empty name":         func(s *Submission) { s.Name = "" },
		"long name":          func(s *Submission) { s.Name = "abcdefghijklmnopqrstu" },
		"negative wpm":       func(s *Submission) { s.WPM = -1 },
		"wpm too high":       func(s *Submission) { s.WPM = 500 },
		"accuracy too high":  func(s *Submission) { s.Accuracy = 101 },
		"time too short":     func(s *Submission) { s.Time = 0.5 },
		"time too long":      func(s *Submission) { s.Time = 601 },
		"unknown difficulty": func(s *Submission) { s.Difficulty = "impossible" },
		"implausible timing": func(s *Submission) { s.WPM = 300; s.Time = 1 },
	}
	for name, mutate := range cases {
		s := validSubmission()
		mutate(&s)
		err := s.Validate()
		if err == nil {
			t.Errorf("%s: expected rejection", name)
			continue
		}
		if !errors.Is(err, ErrInvalidSubmission) {
			t.Errorf("%s: error %v does not wrap ErrInvalidSubmission", name, err)
		}
	}
}

func TestWeightedScore(t *testing.T) {
	rec := ScoreRecord{WPM: 50, Accuracy: 100, Difficulty: DifficultyMedium}
	if got := rec.WeightedScore(); got != 60 {
		t.Fatalf("expected score 60, got %v", got)
	}
	rec.Difficulty = "mystery"
	if got := rec.WeightedScore(); got != 50 {
		t.Fatalf("unknown difficulty should weigh 1.0, got %v", got)
	}
}

func TestRankOrdering(t *testing.T) {
	records := []ScoreRecord{
		{ID: "low", WPM: 40, Accuracy: 90, Difficulty: DifficultyEasy},
		{ID: "high", WPM: 60, Accuracy: 100, Difficulty: DifficultyHard},
		{ID: "mid", WPM: 50, Accuracy: 100, Difficulty: DifficultyMedium},
	}
	ranked := Rank(records)
	want := []string{"high", "mid", "low"}
	for i, id := range want {
		if ranked[i].ID != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, ranked[i].ID)
		}
		if ranked[i].Rank != i+1 {
			t.Fatalf("position %d: expected rank %d, got %d", i, i+1, ranked[i].Rank)
		}
	}
}

func TestRankTieBreaks(t *testing.T) {
	// Equal weighted scores: 60*1.0 == 50*1.2*... construct exact ties.
	records := []ScoreRecord{
		{ID: "lower-wpm", WPM: 50, Accuracy: 100, Difficulty: DifficultyEasy},  // 50
		{ID: "higher-wpm", WPM: 100, Accuracy: 50, Difficulty: DifficultyEasy}, // 50
	}
	ranked := Rank(records)
	if ranked[0].ID != "higher-wpm" {
		t.Fatalf("tie should break on wpm, got %s first", ranked[0].ID)
	}

	records = []ScoreRecord{
		{ID: "first", WPM: 50, Accuracy: 100, Difficulty: DifficultyEasy},
		{ID: "second", WPM: 50, Accuracy: 100, Difficulty: DifficultyEasy},
	}
	ranked = Rank(records)
	if ranked[0].ID != "first" || ranked[1].ID != "second" {
		t.Fatalf("full tie should preserve input order, got %s then %s", ranked[0].ID, ranked[1].ID)
	}
}

func TestComputeDailyStats(t *testing.T) {
	records := []ScoreRecord{
		{Name: "alice", WPM: 40},
		{Name: "alice", WPM: 60},
		{Name: "bob", WPM: 80},
	}
	stats := ComputeDailyStats("2026-09-01", records)
	if stats.TotalRaces != 3 {
		t.Errorf("expected 3 races, got %d", stats.TotalRaces)
	}
	if stats.AverageWPM != 60 {
		t.Errorf("expected average 60, got %v", stats.AverageWPM)
	}
	if stats.HighestWPM != 80 {
		t.Errorf("expected highest 80, got %d", stats.HighestWPM)
	}
	if stats.TotalPlayers != 2 {
		t.Errorf("expected 2 distinct players, got %d", stats.TotalPlayers)
	}
}

func TestWindowStart(t *testing.T) {
	// A Wednesday afternoon.
	now := time.Date(2026, time.September, 2, 15, 30, 0, 0, time.UTC)

	daily := FilterDaily.WindowStart(now)
	if !daily.Equal(time.Date(2026, time.September, 2, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("daily window start: %v", daily)
	}

	weekly := FilterWeekly.WindowStart(now)
	if !weekly.Equal(time.Date(2026, time.August, 31, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("weekly window should start Monday, got %v", weekly)
	}

	// A Sunday still belongs to the week begun the previous Monday.
	sunday := time.Date(2026, time.September, 6, 23, 0, 0, 0, time.UTC)
	weekly = FilterWeekly.WindowStart(sunday)
	if !weekly.Equal(time.Date(2026, time.August, 31, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("sunday weekly window should start previous Monday, got %v", weekly)
	}

	alltime := FilterAllTime.WindowStart(now)
	if !alltime.Equal(time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("alltime window start: %v", alltime)
	}
}

func TestFilterValid(t *testing.T) {
	for _, f := range []Filter{FilterDaily, FilterWeekly, FilterAllTime} {
		if !f.Valid() {
			t.Errorf("%s should be valid", f)
		}
	}
	if Filter("monthly").Valid() {
		t.Error("monthly should be invalid")
	}
}
