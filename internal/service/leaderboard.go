// Package service holds the leaderboard business logic: validation, scoring,
// ranking, daily aggregation and retention.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/typing-racer/internal/config"
	"github.com/typing-racer/internal/domain"
)

// Store persists score records and daily aggregates. Implemented by the
// postgres and sqlite repositories.
type Store interface {
	InsertScore(ctx context.Context, rec domain.ScoreRecord) error
	ListScoresSince(ctx context.Context, since time.Time) ([]domain.ScoreRecord, error)
	DeleteScoresBefore(ctx context.Context, cutoff time.Time) (int64, error)
	UpsertDailyStats(ctx context.Context, stats domain.DailyStats) error
	GlobalStats(ctx context.Context, todayStart time.Time) (*domain.GlobalStats, error)
}

// Broadcaster fans a refreshed leaderboard out to connected clients.
// Delivery is best effort; a slow subscriber never fails a submit.
type Broadcaster interface {
	BroadcastLeaderboard(filter domain.Filter, entries []domain.RankedRecord)
}

// Cache holds ranked leaderboard views keyed by filter. Cache errors are
// soft: the service falls back to the store.
type Cache interface {
	GetLeaderboard(ctx context.Context, filter domain.Filter) ([]domain.RankedRecord, error)
	SetLeaderboard(ctx context.Context, filter domain.Filter, entries []domain.RankedRecord) error
	Invalidate(ctx context.Context) error
}

// LeaderboardService validates and ranks submitted race results.
type LeaderboardService struct {
	store       Store
	cache       Cache
	broadcaster Broadcaster
	config      *config.LeaderboardConfig
	logger      *slog.Logger
	now         func() time.Time
}

// NewLeaderboardService creates the service. cache may be nil.
func NewLeaderboardService(store Store, cache Cache, cfg *config.LeaderboardConfig, logger *slog.Logger) *LeaderboardService {
	return &LeaderboardService{
		store:  store,
		cache:  cache,
		config: cfg,
		logger: logger,
		now:    time.Now,
	}
}

// SetBroadcaster wires the websocket hub for submit-time fan-out.
func (s *LeaderboardService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// Submit validates a race result, persists it, refreshes the daily
// aggregate and broadcasts the updated daily board. On any validation
// failure nothing is persisted.
func (s *LeaderboardService) Submit(ctx context.Context, sub domain.Submission) (*domain.SubmitResult, error) {
	if err := sub.Validate(); err != nil {
		return nil, err
	}

	now := s.now()
	rec := domain.ScoreRecord{
		ID:         uuid.New().String(),
		Name:       sub.Name,
		WPM:        sub.WPM,
		Accuracy:   sub.Accuracy,
		Time:       sub.Time,
		Difficulty: sub.Difficulty,
		Timestamp:  sub.Timestamp,
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = now
	}

	if err := s.store.InsertScore(ctx, rec); err != nil {
		return nil, fmt.Errorf("persisting score: %w", err)
	}

	if err := s.refreshDailyStats(ctx, now); err != nil {
		// The record is already durable; the aggregate is repaired by the
		// next submission.
		s.logger.Warn("failed to refresh daily stats", "error", err)
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx); err != nil {
			s.logger.Warn("failed to invalidate leaderboard cache", "error", err)
		}
	}

	s.broadcastDaily(ctx)

	return &domain.SubmitResult{ID: rec.ID, Score: rec.WeightedScore()}, nil
}

// Query returns the ranked leaderboard for the filter window: weighted score
// descending, ties by wpm then accuracy, capped at the configured limit.
func (s *LeaderboardService) Query(ctx context.Context, filter domain.Filter) ([]domain.RankedRecord, error) {
	if filter == "" {
		filter = domain.FilterDaily
	}
	if !filter.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidFilter, filter)
	}

	if s.cache != nil {
		if entries, err := s.cache.GetLeaderboard(ctx, filter); err == nil && entries != nil {
			return entries, nil
		}
	}

	records, err := s.store.ListScoresSince(ctx, filter.WindowStart(s.now()))
	if err != nil {
		return nil, fmt.Errorf("listing scores: %w", err)
	}

	ranked := domain.Rank(records)
	if limit := s.config.Limit; limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}

	if s.cache != nil {
		if err := s.cache.SetLeaderboard(ctx, filter, ranked); err != nil {
			s.logger.Warn("failed to cache leaderboard", "error", err)
		}
	}
	return ranked, nil
}

// Stats returns the global aggregate view for the stats endpoint.
func (s *LeaderboardService) Stats(ctx context.Context) (*domain.GlobalStats, error) {
	todayStart := domain.FilterDaily.WindowStart(s.now())
	stats, err := s.store.GlobalStats(ctx, todayStart)
	if err != nil {
		return nil, fmt.Errorf("computing stats: %w", err)
	}
	return stats, nil
}

// RetentionDays is how long score records are kept. A record exactly at the
// boundary is kept; only strictly older ones are purged.
const RetentionDays = 30

// Purge removes records older than the retention window. Idempotent and safe
// to run concurrently with submits and queries.
func (s *LeaderboardService) Purge(ctx context.Context) (int64, error) {
	cutoff := s.now().AddDate(0, 0, -RetentionDays)
	removed, err := s.store.DeleteScoresBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purging old scores: %w", err)
	}
	if removed > 0 && s.cache != nil {
		if err := s.cache.Invalidate(ctx); err != nil {
			s.logger.Warn("failed to invalidate leaderboard cache after purge", "error", err)
		}
	}
	return removed, nil
}

// refreshDailyStats recomputes today's aggregate from scratch over the day's
// records and upserts it.
func (s *LeaderboardService) refreshDailyStats(ctx context.Context, now time.Time) error {
	dayStart := domain.FilterDaily.WindowStart(now)
	records, err := s.store.ListScoresSince(ctx, dayStart)
	if err != nil {
		return err
	}
	stats := domain.ComputeDailyStats(dayStart.Format("2006-01-02"), records)
	return s.store.UpsertDailyStats(ctx, stats)
}

// broadcastDaily pushes a fresh daily board to every connected client.
func (s *LeaderboardService) broadcastDaily(ctx context.Context) {
	if s.broadcaster == nil {
		return
	}
	entries, err := s.Query(ctx, domain.FilterDaily)
	if err != nil {
		s.logger.Warn("failed to build broadcast leaderboard", "error", err)
		return
	}
	s.broadcaster.BroadcastLeaderboard(domain.FilterDaily, entries)
}
