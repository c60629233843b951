package service

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"

	"hectoclash/internal/cache"
	"hectoclash/internal/metrics"
	"hectoclash/internal/model"
	"hectoclash/internal/repository"
)

const (
	defaultLeaderboardLimit = 10
	maxLeaderboardLimit     = 100
)

// PlayerOutcome is what the persistence collaborator records for one
// participant of a finished session.
type PlayerOutcome struct {
	UserID      string
	Username    string
	Won         bool
	RatingDelta int
	Score       int
	Answers     []model.AnswerRecord
	TotalTimeMs int64
}

type Outcome struct {
	SessionID string
	Players   []PlayerOutcome
}

// OutcomeSink receives finished sessions.
type OutcomeSink interface {
	Submit(o Outcome)
}

type StatsConfig struct {
	Timeout    time.Duration
	MaxRetries uint64
}

// StatsService writes session outcomes to Mongo off the game path and
// serves the read side (leaderboard, per-user stats and history).
type StatsService struct {
	users       repository.UserRepo
	results     repository.ResultRepo
	leaderboard cache.LeaderboardCache
	metrics     *metrics.Recorder
	cfg         StatsConfig

	newBackOff func() backoff.BackOff
	wg         sync.WaitGroup
}

func NewStatsService(users repository.UserRepo, results repository.ResultRepo, rec *metrics.Recorder, cfg StatsConfig) *StatsService {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	return &StatsService{
		users:   users,
		results: results,
		metrics: rec,
		cfg:     cfg,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 100 * time.Millisecond
			return b
		},
	}
}

// SetLeaderboardCache puts a cache in front of the leaderboard query. The
// cached snapshot is dropped whenever an outcome has been recorded.
func (s *StatsService) SetLeaderboardCache(c cache.LeaderboardCache) {
	s.leaderboard = c
}

// Submit records o in the background. Failures are logged and counted;
// they never reach the players.
func (s *StatsService) Submit(o Outcome) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Timeout)
		defer cancel()

		for _, p := range o.Players {
			s.record(ctx, o.SessionID, p)
		}
		if s.leaderboard != nil {
			if err := s.leaderboard.Invalidate(ctx); err != nil {
				log.Warn().Err(err).Str("session", o.SessionID).Msg("failed to invalidate leaderboard cache")
			}
		}
	}()
}

func (s *StatsService) record(ctx context.Context, sessionID string, p PlayerOutcome) {
	s.retry(ctx, "set_username", p.UserID, func() error {
		return s.users.SetUsername(ctx, p.UserID, p.Username)
	})
	s.retry(ctx, "games_played", p.UserID, func() error {
		return s.users.IncrementGamesPlayed(ctx, p.UserID)
	})
	if p.Won {
		s.retry(ctx, "games_won", p.UserID, func() error {
			return s.users.IncrementGamesWon(ctx, p.UserID)
		})
	}
	if p.RatingDelta != 0 {
		s.retry(ctx, "rating", p.UserID, func() error {
			return s.users.AdjustRating(ctx, p.UserID, p.RatingDelta)
		})
	}
	s.retry(ctx, "result", p.UserID, func() error {
		return s.results.Create(ctx, &model.GameRecord{
			UserID:      p.UserID,
			SessionID:   sessionID,
			Answers:     p.Answers,
			TotalScore:  p.Score,
			TotalTimeMs: p.TotalTimeMs,
			CreatedAt:   time.Now(),
		})
	})
}

func (s *StatsService) retry(ctx context.Context, op, userID string, fn func() error) {
	b := backoff.WithContext(backoff.WithMaxRetries(s.newBackOff(), s.cfg.MaxRetries), ctx)
	if err := backoff.Retry(fn, b); err != nil {
		log.Error().Err(err).Str("op", op).Str("player", userID).Msg("failed to persist game outcome")
		s.metrics.RecordPersistenceFailure(op)
	}
}

// Wait blocks until pending submissions finish or ctx is done.
func (s *StatsService) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Leaderboard returns users by rating. limit 0 means the default.
func (s *StatsService) Leaderboard(ctx context.Context, limit int) ([]model.UserStats, error) {
	if limit == 0 {
		limit = defaultLeaderboardLimit
	}
	if limit < 0 || limit > maxLeaderboardLimit {
		return nil, newError(ErrInvalid, "limit must be between 1 and 100")
	}
	if s.leaderboard == nil {
		return s.users.TopByRating(ctx, int64(limit))
	}

	top, ok, err := s.leaderboard.Top(ctx, limit)
	if err != nil {
		log.Warn().Err(err).Msg("leaderboard cache read failed")
	} else if ok {
		return top, nil
	}

	all, err := s.users.TopByRating(ctx, maxLeaderboardLimit)
	if err != nil {
		return nil, err
	}
	if err := s.leaderboard.Replace(ctx, all); err != nil {
		log.Warn().Err(err).Msg("leaderboard cache write failed")
	}
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

// UserStats returns the counters for userID; unknown users have played
// nothing yet.
func (s *StatsService) UserStats(ctx context.Context, userID string) (*model.UserStats, error) {
	stats, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if stats == nil {
		return &model.UserStats{ID: userID}, nil
	}
	return stats, nil
}

func (s *StatsService) History(ctx context.Context, userID string, limit int) ([]model.GameRecord, error) {
	if limit == 0 {
		limit = defaultLeaderboardLimit
	}
	if limit < 0 || limit > maxLeaderboardLimit {
		return nil, newError(ErrInvalid, "limit must be between 1 and 100")
	}
	return s.results.ListByUser(ctx, userID, int64(limit))
}
