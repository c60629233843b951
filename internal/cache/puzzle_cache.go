package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"hectoclash/internal/model"
)

// DefaultPuzzleTTL keeps generated puzzles around long enough for
// "show solution" requests well after a match.
const DefaultPuzzleTTL = 30 * 24 * time.Hour

// PuzzleCache stores generated puzzles and their witness solutions.
// Missing keys read as (nil, nil).
type PuzzleCache interface {
	PutPuzzle(ctx context.Context, puzzle *model.Puzzle) error
	PutPuzzles(ctx context.Context, puzzles []model.Puzzle) error
	GetPuzzle(ctx context.Context, id string) (*model.Puzzle, error)
	GetSolution(ctx context.Context, id string) (*model.Solution, error)
}

type puzzleCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewPuzzleCache creates a puzzle cache; a non-positive ttl uses DefaultPuzzleTTL.
func NewPuzzleCache(client *redis.Client, ttl time.Duration) PuzzleCache {
	if ttl <= 0 {
		ttl = DefaultPuzzleTTL
	}
	return &puzzleCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *puzzleCache) puzzleKey(id string) string {
	return fmt.Sprintf("puzzle:%s", id)
}

func (c *puzzleCache) solutionKey(id string) string {
	return fmt.Sprintf("solution:%s", id)
}

func (c *puzzleCache) PutPuzzle(ctx context.Context, puzzle *model.Puzzle) error {
	return c.PutPuzzles(ctx, []model.Puzzle{*puzzle})
}

func (c *puzzleCache) PutPuzzles(ctx context.Context, puzzles []model.Puzzle) error {
	if len(puzzles) == 0 {
		return nil
	}
	_, err := c.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i := range puzzles {
			p := &puzzles[i]
			data, err := json.Marshal(p)
			if err != nil {
				return err
			}
			sol, err := json.Marshal(model.Solution{Solution: p.Solution})
			if err != nil {
				return err
			}
			pipe.Set(ctx, c.puzzleKey(p.ID), data, c.ttl)
			pipe.Set(ctx, c.solutionKey(p.ID), sol, c.ttl)
		}
		return nil
	})
	return err
}

func (c *puzzleCache) GetPuzzle(ctx context.Context, id string) (*model.Puzzle, error) {
	data, err := c.client.Get(ctx, c.puzzleKey(id)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var p model.Puzzle
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetSolution reads the solution key and falls back to the stored puzzle.
func (c *puzzleCache) GetSolution(ctx context.Context, id string) (*model.Solution, error) {
	data, err := c.client.Get(ctx, c.solutionKey(id)).Result()
	if err != nil && err != redis.Nil {
		return nil, err
	}
	if err == nil {
		var sol model.Solution
		if err := json.Unmarshal([]byte(data), &sol); err != nil {
			return nil, err
		}
		return &sol, nil
	}

	p, err := c.GetPuzzle(ctx, id)
	if err != nil || p == nil {
		return nil, err
	}
	return &model.Solution{Solution: p.Solution}, nil
}
