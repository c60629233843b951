package model

// Puzzle is a fixed-order digit sequence with one known solution.
type Puzzle struct {
	ID         string     `json:"questionId" bson:"_id"`
	Digits     []int      `json:"digits" bson:"digits"`
	Solution   string     `json:"solution" bson:"solution"`
	Difficulty Difficulty `json:"difficulty" bson:"difficulty"`
	Target     int        `json:"target" bson:"target"`
}

// PublicPuzzle is a Puzzle without its witness expression.
type PublicPuzzle struct {
	ID         string     `json:"questionId"`
	Digits     []int      `json:"digits"`
	Difficulty Difficulty `json:"difficulty"`
	Target     int        `json:"target"`
}

func (p *Puzzle) Public() PublicPuzzle {
	return PublicPuzzle{
		ID:         p.ID,
		Digits:     p.Digits,
		Difficulty: p.Difficulty,
		Target:     p.Target,
	}
}

// Solution is the stored witness for a puzzle id.
type Solution struct {
	Solution string `json:"solution"`
}

// VerificationResult reports whether an expression solves a puzzle.
// Reason is set exactly when IsValid is false.
type VerificationResult struct {
	IsValid bool     `json:"isValid"`
	Result  *float64 `json:"result,omitempty"`
	Reason  string   `json:"reason,omitempty"`
}
