// Package sqlite provides an embedded score store for single-node
// deployments, matching the postgres repository behavior.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver.

	"github.com/typing-racer/internal/domain"
)

// Store wraps SQLite access for score data.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	store := &Store{db: db, logger: logger}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// timeLayout is fixed-width so lexicographic comparison of stored
// timestamps matches chronological order.
const timeLayout = "2006-01-02T15:04:05.000Z"

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS scores (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			wpm INTEGER NOT NULL,
			accuracy INTEGER NOT NULL,
			time REAL NOT NULL,
			difficulty TEXT NOT NULL,
			timestamp TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS daily_stats (
			date TEXT PRIMARY KEY,
			total_races INTEGER NOT NULL DEFAULT 0,
			average_wpm REAL NOT NULL DEFAULT 0,
			highest_wpm INTEGER NOT NULL DEFAULT 0,
			total_players INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE INDEX IF NOT EXISTS idx_scores_timestamp ON scores(timestamp);`,
		`CREATE INDEX IF NOT EXISTS idx_scores_wpm ON scores(wpm);`,
		`CREATE INDEX IF NOT EXISTS idx_scores_difficulty ON scores(difficulty);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertScore persists a validated score record.
func (s *Store) InsertScore(ctx context.Context, rec domain.ScoreRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO scores (id, name, wpm, accuracy, time, difficulty, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.Name,
		rec.WPM,
		rec.Accuracy,
		rec.Time,
		string(rec.Difficulty),
		rec.Timestamp.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("inserting score: %w", err)
	}
	return nil
}

// ListScoresSince returns all records with timestamp at or after since.
func (s *Store) ListScoresSince(ctx context.Context, since time.Time) ([]domain.ScoreRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, wpm, accuracy, time, difficulty, timestamp
		 FROM scores
		 WHERE timestamp >= ?
		 ORDER BY timestamp DESC`,
		since.UTC().Format(timeLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("listing scores: %w", err)
	}
	defer rows.Close()

	var records []domain.ScoreRecord
	for rows.Next() {
		var rec domain.ScoreRecord
		var difficulty, timestamp string
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.WPM, &rec.Accuracy, &rec.Time, &difficulty, &timestamp); err != nil {
			return nil, fmt.Errorf("scanning score: %w", err)
		}
		rec.Difficulty = domain.Difficulty(difficulty)
		parsed, err := time.Parse(timeLayout, timestamp)
		if err != nil {
			return nil, fmt.Errorf("parsing timestamp: %w", err)
		}
		rec.Timestamp = parsed
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating scores: %w", err)
	}
	return records, nil
}

// DeleteScoresBefore removes records strictly older than cutoff.
func (s *Store) DeleteScoresBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM scores WHERE timestamp < ?`,
		cutoff.UTC().Format(timeLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("deleting old scores: %w", err)
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting deleted scores: %w", err)
	}
	return removed, nil
}

// UpsertDailyStats replaces the aggregate row for the given date.
func (s *Store) UpsertDailyStats(ctx context.Context, stats domain.DailyStats) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO daily_stats (date, total_races, average_wpm, highest_wpm, total_players)
		 VALUES (?, ?, ?, ?, ?)`,
		stats.Date,
		stats.TotalRaces,
		stats.AverageWPM,
		stats.HighestWPM,
		stats.TotalPlayers,
	)
	if err != nil {
		return fmt.Errorf("upserting daily stats: %w", err)
	}
	return nil
}

// GlobalStats computes the aggregate view across all records.
func (s *Store) GlobalStats(ctx context.Context, todayStart time.Time) (*domain.GlobalStats, error) {
	stats := &domain.GlobalStats{}

	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        COALESCE(AVG(wpm), 0),
		        COALESCE(MAX(wpm), 0),
		        COUNT(DISTINCT name)
		 FROM scores`,
	).Scan(&stats.TotalRaces, &stats.AverageWPM, &stats.HighestWPM, &stats.TotalPlayers)
	if err != nil {
		return nil, fmt.Errorf("aggregating scores: %w", err)
	}

	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM scores WHERE timestamp >= ?`,
		todayStart.UTC().Format(timeLayout),
	).Scan(&stats.TodayRaces)
	if err != nil {
		return nil, fmt.Errorf("counting today's races: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT difficulty, COUNT(*), AVG(wpm), MAX(wpm)
		 FROM scores
		 GROUP BY difficulty
		 ORDER BY difficulty`,
	)
	if err != nil {
		return nil, fmt.Errorf("aggregating difficulties: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ds domain.DifficultyStats
		var difficulty string
		if err := rows.Scan(&difficulty, &ds.Races, &ds.AverageWPM, &ds.HighestWPM); err != nil {
			return nil, fmt.Errorf("scanning difficulty stats: %w", err)
		}
		ds.Difficulty = domain.Difficulty(difficulty)
		stats.Difficulties = append(stats.Difficulties, ds)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating difficulty stats: %w", err)
	}

	return stats, nil
}
