package model

import (
	"strconv"
	"strings"
)

// Question is one item of a match's question set. For Hectoc questions
// Digits and Target are set; for arithmetic challenges Answer holds the
// expected integer and is never sent to clients.
type Question struct {
	ID       string `json:"questionId"`
	Prompt   string `json:"question"`
	Digits   []int  `json:"digits,omitempty"`
	Target   int    `json:"target,omitempty"`
	Solution string `json:"-"`
	Answer   *int   `json:"-"`
}

// QuestionFromPuzzle builds the match question for a Hectoc puzzle.
func QuestionFromPuzzle(p Puzzle) Question {
	digits := make([]string, len(p.Digits))
	for i, d := range p.Digits {
		digits[i] = strconv.Itoa(d)
	}
	return Question{
		ID:       p.ID,
		Prompt:   "Make " + strconv.Itoa(p.Target) + " using these digits: " + strings.Join(digits, ", "),
		Digits:   p.Digits,
		Target:   p.Target,
		Solution: p.Solution,
	}
}
