package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/typing-racer/internal/config"
	"github.com/typing-racer/internal/domain"
)

// Repository provides PostgreSQL-based score persistence
type Repository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewRepository creates a new PostgreSQL repository
func NewRepository(cfg *config.PostgresConfig, logger *slog.Logger) (*Repository, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConnections)
	poolConfig.MinConns = int32(cfg.MinConnections)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	return &Repository{
		pool:   pool,
		logger: logger,
	}, nil
}

// Close closes the database connection pool
func (r *Repository) Close() {
	r.pool.Close()
}

// RunMigrations executes database migrations
func (r *Repository) RunMigrations(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS scores (
			id VARCHAR(36) PRIMARY KEY,
			name VARCHAR(20) NOT NULL,
			wpm INT NOT NULL,
			accuracy INT NOT NULL,
			time DOUBLE PRECISION NOT NULL,
			difficulty VARCHAR(20) NOT NULL,
			timestamp TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS daily_stats (
			date DATE PRIMARY KEY,
			total_races INT NOT NULL DEFAULT 0,
			average_wpm DOUBLE PRECISION NOT NULL DEFAULT 0,
			highest_wpm INT NOT NULL DEFAULT 0,
			total_players INT NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_scores_timestamp ON scores(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_scores_wpm ON scores(wpm)`,
		`CREATE INDEX IF NOT EXISTS idx_scores_difficulty ON scores(difficulty)`,
	}

	for _, migration := range migrations {
		_, err := r.pool.Exec(ctx, migration)
		if err != nil {
			return fmt.Errorf("executing migration: %w", err)
		}
	}

	r.logger.Info("database migrations completed")
	return nil
}

// InsertScore persists a validated score record
func (r *Repository) InsertScore(ctx context.Context, rec domain.ScoreRecord) error {
	query := `
		INSERT INTO scores (id, name, wpm, accuracy, time, difficulty, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.pool.Exec(ctx, query,
		rec.ID,
		rec.Name,
		rec.WPM,
		rec.Accuracy,
		rec.Time,
		string(rec.Difficulty),
		rec.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("inserting score: %w", err)
	}
	return nil
}

// ListScoresSince returns all records with timestamp at or after since
func (r *Repository) ListScoresSince(ctx context.Context, since time.Time) ([]domain.ScoreRecord, error) {
	query := `
		SELECT id, name, wpm, accuracy, time, difficulty, timestamp
		FROM scores
		WHERE timestamp >= $1
		ORDER BY timestamp DESC
	`
	rows, err := r.pool.Query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("listing scores: %w", err)
	}
	defer rows.Close()

	var records []domain.ScoreRecord
	for rows.Next() {
		var rec domain.ScoreRecord
		var difficulty string
		err := rows.Scan(
			&rec.ID,
			&rec.Name,
			&rec.WPM,
			&rec.Accuracy,
			&rec.Time,
			&difficulty,
			&rec.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning score: %w", err)
		}
		rec.Difficulty = domain.Difficulty(difficulty)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating scores: %w", err)
	}
	return records, nil
}

// DeleteScoresBefore removes records strictly older than cutoff
func (r *Repository) DeleteScoresBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.pool.Exec(ctx, `DELETE FROM scores WHERE timestamp < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("deleting old scores: %w", err)
	}
	return result.RowsAffected(), nil
}

// UpsertDailyStats replaces the aggregate row for the given date
func (r *Repository) UpsertDailyStats(ctx context.Context, stats domain.DailyStats) error {
	query := `
		INSERT INTO daily_stats (date, total_races, average_wpm, highest_wpm, total_players)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (date)
		DO UPDATE SET total_races = $2, average_wpm = $3, highest_wpm = $4, total_players = $5
	`
	_, err := r.pool.Exec(ctx, query,
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

// GlobalStats computes the aggregate view across all records
func (r *Repository) GlobalStats(ctx context.Context, todayStart time.Time) (*domain.GlobalStats, error) {
	stats := &domain.GlobalStats{}

	query := `
		SELECT COUNT(*),
		       COALESCE(AVG(wpm), 0),
		       COALESCE(MAX(wpm), 0),
		       COUNT(DISTINCT name)
		FROM scores
	`
	err := r.pool.QueryRow(ctx, query).Scan(
		&stats.TotalRaces,
		&stats.AverageWPM,
		&stats.HighestWPM,
		&stats.TotalPlayers,
	)
	if err != nil {
		return nil, fmt.Errorf("aggregating scores: %w", err)
	}

	err = r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM scores WHERE timestamp >= $1`, todayStart).Scan(&stats.TodayRaces)
	if err != nil {
		return nil, fmt.Errorf("counting today's races: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT difficulty, COUNT(*), AVG(wpm), MAX(wpm)
		FROM scores
		GROUP BY difficulty
		ORDER BY difficulty
	`)
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
