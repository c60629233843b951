package service

import (
	"math"

	"hectoclash/internal/model"
)

// ScoringPolicy holds the tunable constants for points and ratings.
type ScoringPolicy struct {
	BaseScore map[model.GameType]map[model.Difficulty]int
	BonusCap  float64

	WinnerRating      int
	LoserRating       int
	AbandonWinRating  int
	AbandonLossRating int
}

func DefaultScoringPolicy() ScoringPolicy {
	return ScoringPolicy{
		BaseScore: map[model.GameType]map[model.Difficulty]int{
			model.GameTypeHectoc: {
				model.DifficultyEasy:      20,
				model.DifficultyModerate:  40,
				model.DifficultyDifficult: 60,
			},
			model.GameTypeMathChallenge: {
				model.DifficultyEasy:      10,
				model.DifficultyModerate:  20,
				model.DifficultyDifficult: 30,
			},
		},
		BonusCap:          5,
		WinnerRating:      10,
		LoserRating:       -5,
		AbandonWinRating:  5,
		AbandonLossRating: -10,
	}
}

// Points is the score for a correct answer given after elapsedMs.
func (p ScoringPolicy) Points(gt model.GameType, d model.Difficulty, elapsedMs int64) int {
	base := float64(p.BaseScore[gt][d])
	bonus := math.Max(0, p.BonusCap-float64(elapsedMs)/1000)
	return int(math.Round(base + bonus))
}
