package domain

import (
	"fmt"
	"sort"
	"time"
)

// Difficulty identifies one of the fixed text difficulty levels.
type Difficulty string

const (
	DifficultyEasy      Difficulty = "easy"
	DifficultyMedium    Difficulty = "medium"
	DifficultyHard      Difficulty = "hard"
	DifficultyExpert    Difficulty = "expert"
	DifficultyNightmare Difficulty = "nightmare"
)

// Difficulties lists all known levels in ascending order.
var Difficulties = []Difficulty{
	DifficultyEasy,
	DifficultyMedium,
	DifficultyHard,
	DifficultyExpert,
	DifficultyNightmare,
}

// Known reports whether d is one of the five supported levels.
func (d Difficulty) Known() bool {
	for _, known := range Difficulties {
		if d == known {
			return true
		}
	}
	return false
}

// Multiplier returns the leaderboard weighting factor for the level.
// Unknown levels weigh 1.0.
func (d Difficulty) Multiplier() float64 {
	switch d {
	case DifficultyEasy:
		return 1.0
	case DifficultyMedium:
		return 1.2
	case DifficultyHard:
		return 1.5
	case DifficultyExpert:
		return 2.0
	case DifficultyNightmare:
		return 3.0
	default:
		return 1.0
	}
}

// Submission is a finished race result as reported by a client.
type Submission struct {
	Name       string     `json:"name"`
	WPM        int        `json:"wpm"`
	Accuracy   int        `json:"accuracy"`
	Time       float64    `json:"time"`
	Difficulty Difficulty `json:"difficulty"`
	Timestamp  time.Time  `json:"timestamp"`
}

// Validate checks shape, ranges and timing plausibility. It returns a
// descriptive error wrapping ErrInvalidSubmission, or nil.
func (s Submission) Validate() error {
	if len(s.Name) < 1 || len(s.Name) > 20 {
		return fmt.Errorf("%w: name must be 1-20 characters", ErrInvalidSubmission)
	}
	if s.WPM < 0 || s.WPM > 300 {
		return fmt.Errorf("%w: wpm %d out of range 0-300", ErrInvalidSubmission, s.WPM)
	}
	if s.Accuracy < 0 || s.Accuracy > 100 {
		return fmt.Errorf("%w: accuracy %d out of range 0-100", ErrInvalidSubmission, s.Accuracy)
	}
	if s.Time < 1 || s.Time > 600 {
		return fmt.Errorf("%w: time %.1fs out of range 1-600s", ErrInvalidSubmission, s.Time)
	}
	if !s.Difficulty.Known() {
		return fmt.Errorf("%w: unknown difficulty %q", ErrInvalidSubmission, s.Difficulty)
	}
	// Plausibility: a claimed WPM implies a minimum race duration.
	var expectedTime float64
	if s.WPM > 0 {
		expectedTime = (60 / float64(s.WPM)) * 10
	}
	if s.Time < expectedTime*0.3 {
		return fmt.Errorf("%w: time %.1fs implausible for %d wpm", ErrInvalidSubmission, s.Time, s.WPM)
	}
	return nil
}

// ScoreRecord is a persisted, validated race result. Records are immutable
// once stored; only the retention policy removes them.
type ScoreRecord struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	WPM        int        `json:"wpm"`
	Accuracy   int        `json:"accuracy"`
	Time       float64    `json:"time"`
	Difficulty Difficulty `json:"difficulty"`
	Timestamp  time.Time  `json:"timestamp"`
}

// WeightedScore is the ranking score: wpm scaled by accuracy and the
// difficulty multiplier.
func (r ScoreRecord) WeightedScore() float64 {
	return float64(r.WPM) * (float64(r.Accuracy) / 100) * r.Difficulty.Multiplier()
}

// RankedRecord is a ScoreRecord with its computed score and 1-based rank.
type RankedRecord struct {
	ScoreRecord
	Score float64 `json:"score"`
	Rank  int     `json:"rank"`
}

// Rank orders records by weighted score descending, ties broken by wpm then
// accuracy descending. The sort is stable so identical inputs always produce
// identical output.
func Rank(records []ScoreRecord) []RankedRecord {
	ranked := make([]RankedRecord, len(records))
	for i, rec := range records {
		ranked[i] = RankedRecord{ScoreRecord: rec, Score: rec.WeightedScore()}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		if ranked[i].WPM != ranked[j].WPM {
			return ranked[i].WPM > ranked[j].WPM
		}
		return ranked[i].Accuracy > ranked[j].Accuracy
	})
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}

// SubmitResult is returned for an accepted submission.
type SubmitResult struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

// DailyStats aggregates one day's score records. It is recomputed in full
// from the day's records on every submission.
type DailyStats struct {
	Date         string  `json:"date"`
	TotalRaces   int     `json:"total_races"`
	AverageWPM   float64 `json:"average_wpm"`
	HighestWPM   int     `json:"highest_wpm"`
	TotalPlayers int     `json:"total_players"`
}

// ComputeDailyStats aggregates records into a DailyStats for the given date.
func ComputeDailyStats(date string, records []ScoreRecord) DailyStats {
	stats := DailyStats{Date: date, TotalRaces: len(records)}
	players := make(map[string]struct{})
	sum := 0
	for _, rec := range records {
		sum += rec.WPM
		if rec.WPM > stats.HighestWPM {
			stats.HighestWPM = rec.WPM
		}
		players[rec.Name] = struct{}{}
	}
	if len(records) > 0 {
		stats.AverageWPM = float64(sum) / float64(len(records))
	}
	stats.TotalPlayers = len(players)
	return stats
}

// DifficultyStats summarizes the records of one difficulty level.
type DifficultyStats struct {
	Difficulty Difficulty `json:"difficulty"`
	Races      int        `json:"races"`
	AverageWPM float64    `json:"average_wpm"`
	HighestWPM int        `json:"highest_wpm"`
}

// GlobalStats is the aggregate view served by the stats endpoint.
type GlobalStats struct {
	TotalRaces   int               `json:"total_races"`
	AverageWPM   float64           `json:"average_wpm"`
	HighestWPM   int               `json:"highest_wpm"`
	TotalPlayers int               `json:"total_players"`
	TodayRaces   int               `json:"today_races"`
	Difficulties []DifficultyStats `json:"difficulties"`
}
