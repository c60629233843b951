package model

import "strings"

// Difficulty selects operator sets, shape libraries and scoring.
type Difficulty string

const (
	DifficultyEasy      Difficulty = "easy"
	DifficultyModerate  Difficulty = "moderate"
	DifficultyDifficult Difficulty = "difficult"
)

// ParseDifficulty accepts the canonical names plus the EASY/MEDIUM/HARD
// aliases used by the lobby clients.
func ParseDifficulty(s string) (Difficulty, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "easy":
		return DifficultyEasy, true
	case "moderate", "medium":
		return DifficultyModerate, true
	case "difficult", "hard":
		return DifficultyDifficult, true
	}
	return "", false
}

// GameType identifies the kind of questions a match is played with.
type GameType string

const (
	GameTypeHectoc        GameType = "HECTOC_GAME"
	GameTypeMathChallenge GameType = "MATH_CHALLENGE"
)

func ParseGameType(s string) (GameType, bool) {
	switch GameType(strings.ToUpper(strings.TrimSpace(s))) {
	case GameTypeHectoc, "HECTOC":
		return GameTypeHectoc, true
	case GameTypeMathChallenge:
		return GameTypeMathChallenge, true
	}
	return "", false
}
