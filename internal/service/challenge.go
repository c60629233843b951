package service

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"hectoclash/internal/model"
)

var mathQuestionCount = map[model.Difficulty]int{
	model.DifficultyEasy:      5,
	model.DifficultyModerate:  8,
	model.DifficultyDifficult: 10,
}

// mathQuestions builds integer arithmetic questions; every division is exact.
func mathQuestions(d model.Difficulty) []model.Question {
	n := mathQuestionCount[d]
	out := make([]model.Question, n)
	for i := range out {
		a, b, op, answer := arithmetic(d)
		out[i] = model.Question{
			ID:     uuid.NewString(),
			Prompt: fmt.Sprintf("What is %d %s %d?", a, op, b),
			Answer: &answer,
		}
	}
	return out
}

func arithmetic(d model.Difficulty) (a, b int, op string, answer int) {
	switch d {
	case model.DifficultyEasy:
		a, b = rand.Intn(20)+1, rand.Intn(20)+1
		if rand.Intn(2) == 0 {
			return a, b, "+", a + b
		}
		if a < b {
			a, b = b, a
		}
		return a, b, "-", a - b
	case model.DifficultyModerate:
		a, b = rand.Intn(12)+2, rand.Intn(12)+2
		if rand.Intn(2) == 0 {
			return a, b, "×", a * b
		}
		a, b = rand.Intn(90)+10, rand.Intn(90)+10
		return a, b, "+", a + b
	default:
		b = rand.Intn(11) + 2
		q := rand.Intn(20) + 2
		if rand.Intn(2) == 0 {
			return b * q, b, "÷", q
		}
		a = rand.Intn(30) + 11
		return a, b, "×", a * b
	}
}

func checkArithmetic(q model.Question, answer string) model.VerificationResult {
	v, err := strconv.Atoi(strings.TrimSpace(answer))
	if err != nil {
		return model.VerificationResult{Reason: "Answer must be a whole number"}
	}
	f := float64(v)
	if v != *q.Answer {
		return model.VerificationResult{Result: &f, Reason: "Incorrect answer"}
	}
	return model.VerificationResult{IsValid: true, Result: &f}
}
