package service

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"

	"hectoclash/internal/cache"
	"hectoclash/internal/hectoc"
	"hectoclash/internal/metrics"
	"hectoclash/internal/model"
)

const maxPuzzlesPerRequest = 10

// PuzzleConfig fixes the shape of generated puzzles.
type PuzzleConfig struct {
	Target         int
	DigitCount     int
	PuzzlesPerGame int
	SolveTimeout   time.Duration
}

// PuzzleService generates, stores and checks puzzles. It also builds the
// question sets matches are played with.
type PuzzleService struct {
	generator *hectoc.Generator
	store     cache.PuzzleCache
	metrics   *metrics.Recorder
	cfg       PuzzleConfig
	offset    func(n int) int
}

func NewPuzzleService(generator *hectoc.Generator, store cache.PuzzleCache, rec *metrics.Recorder, cfg PuzzleConfig) *PuzzleService {
	if cfg.Target == 0 {
		cfg.Target = hectoc.DefaultTarget
	}
	if cfg.DigitCount == 0 {
		cfg.DigitCount = hectoc.DefaultDigitCount
	}
	if cfg.PuzzlesPerGame == 0 {
		cfg.PuzzlesPerGame = 3
	}
	if cfg.SolveTimeout == 0 {
		cfg.SolveTimeout = 2 * time.Second
	}
	return &PuzzleService{
		generator: generator,
		store:     store,
		metrics:   rec,
		cfg:       cfg,
		offset:    rand.Intn,
	}
}

// RequestPuzzles generates count puzzles of the given difficulty and
// stores them. A store failure is logged; the puzzles are still returned.
func (s *PuzzleService) RequestPuzzles(ctx context.Context, difficulty string, count int) ([]model.Puzzle, error) {
	d, ok := model.ParseDifficulty(difficulty)
	if !ok {
		return nil, ErrInvalidDifficulty
	}
	if count <= 0 || count > maxPuzzlesPerRequest {
		return nil, ErrInvalidCount
	}

	start := time.Now()
	puzzles, err := s.generator.Generate(ctx, hectoc.GenerateRequest{
		Count:      count,
		Difficulty: d,
		Target:     s.cfg.Target,
		DigitCount: s.cfg.DigitCount,
		Offset:     s.offset(1 << 16),
	})
	if err != nil {
		return nil, err
	}
	s.metrics.RecordPuzzlesGenerated(string(d), len(puzzles), time.Since(start))

	if err := s.store.PutPuzzles(ctx, puzzles); err != nil {
		log.Warn().Err(err).Int("count", len(puzzles)).Msg("failed to store puzzles")
	}
	return puzzles, nil
}

// Verify checks a solution against user-supplied digits. target 0 means
// the configured target.
func (s *PuzzleService) Verify(digits []int, solution string, target int) (model.VerificationResult, error) {
	if len(digits) != s.cfg.DigitCount {
		return model.VerificationResult{}, ErrInvalidDigits
	}
	for _, d := range digits {
		if d < 0 || d > 9 {
			return model.VerificationResult{}, ErrInvalidDigits
		}
	}
	if solution == "" {
		return model.VerificationResult{}, ErrEmptySolution
	}
	if target == 0 {
		target = s.cfg.Target
	}

	res := hectoc.Verify(solution, digits, target)
	s.metrics.RecordVerification(res.IsValid)
	return res, nil
}

// Solution returns the stored witness for a puzzle id.
func (s *PuzzleService) Solution(ctx context.Context, puzzleID string) (*model.Solution, error) {
	sol, err := s.store.GetSolution(ctx, puzzleID)
	if err != nil {
		return nil, err
	}
	if sol == nil {
		return nil, ErrSolutionNotFound
	}
	return sol, nil
}

// Puzzle returns a stored puzzle.
func (s *PuzzleService) Puzzle(ctx context.Context, puzzleID string) (*model.Puzzle, error) {
	p, err := s.store.GetPuzzle(ctx, puzzleID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrPuzzleNotFound
	}
	return p, nil
}

// Solve searches for a solution to arbitrary digits. At most the
// configured digit count is accepted and the search is bounded by
// SolveTimeout.
func (s *PuzzleService) Solve(ctx context.Context, digits []int, target int, difficulty string) (string, error) {
	if len(digits) > s.cfg.DigitCount {
		return "", ErrInvalidDigits
	}
	if target == 0 {
		target = s.cfg.Target
	}
	d, ok := model.ParseDifficulty(difficulty)
	if !ok {
		d = model.DifficultyDifficult
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.SolveTimeout)
	defer cancel()

	expr, found, err := hectoc.Solve(ctx, digits, target, d)
	if errors.Is(err, hectoc.ErrInvalidRequest) {
		return "", ErrInvalidDigits
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "", ErrSolveTimeout
	}
	if err != nil {
		return "", err
	}
	if !found {
		return "", ErrSolutionNotFound
	}
	return expr, nil
}

// NewQuestionSet builds the questions for one match.
func (s *PuzzleService) NewQuestionSet(ctx context.Context, gameType model.GameType, d model.Difficulty) ([]model.Question, error) {
	switch gameType {
	case model.GameTypeHectoc:
		puzzles, err := s.RequestPuzzles(ctx, string(d), s.cfg.PuzzlesPerGame)
		if err != nil {
			return nil, err
		}
		if len(puzzles) == 0 {
			return nil, ErrNoPuzzles
		}
		questions := make([]model.Question, len(puzzles))
		for i, p := range puzzles {
			questions[i] = model.QuestionFromPuzzle(p)
		}
		return questions, nil
	case model.GameTypeMathChallenge:
		return mathQuestions(d), nil
	}
	return nil, ErrInvalidGameType
}

// CheckAnswer verifies an answer to a match question.
func CheckAnswer(q model.Question, answer string) model.VerificationResult {
	if q.Answer != nil {
		return checkArithmetic(q, answer)
	}
	return hectoc.Verify(answer, q.Digits, q.Target)
}
