package hectoc

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/google/uuid"

	"hectoclash/internal/model"
)

const (
	DefaultTarget     = 100
	DefaultDigitCount = 6
	maxDigitCount     = 10

	maxExhaustiveDigits = 6

	// assignments tried between context checks
	ctxCheckInterval = 512
)

var ErrInvalidRequest = errors.New("invalid generate request")

// GenerateRequest describes a batch of puzzles. Offset rotates the
// combination the search starts from; the order from there is fixed.
type GenerateRequest struct {
	Count      int
	Difficulty model.Difficulty
	Target     int
	DigitCount int
	Offset     int
}

// Generator searches digit permutations for expressions that hit a target.
// It holds no state between calls and is safe for concurrent use.
type Generator struct {
	newID func() string
}

func NewGenerator() *Generator {
	return &Generator{newID: uuid.NewString}
}

// Generate returns up to req.Count puzzles. Fewer are returned when the
// search space is exhausted. On context cancellation the puzzles found so
// far are returned together with the context error.
func (g *Generator) Generate(ctx context.Context, req GenerateRequest) ([]model.Puzzle, error) {
	if req.DigitCount == 0 {
		req.DigitCount = DefaultDigitCount
	}
	if req.Target == 0 {
		req.Target = DefaultTarget
	}
	if req.Count <= 0 {
		return nil, fmt.Errorf("%w: count must be positive", ErrInvalidRequest)
	}
	if req.DigitCount < 2 || req.DigitCount > maxDigitCount {
		return nil, fmt.Errorf("%w: digit count must be between 2 and %d", ErrInvalidRequest, maxDigitCount)
	}
	if _, ok := model.ParseDifficulty(string(req.Difficulty)); !ok {
		return nil, fmt.Errorf("%w: unknown difficulty %q", ErrInvalidRequest, req.Difficulty)
	}

	s := newSearch(req.Difficulty, req.Target, req.DigitCount)
	combos := combinations(10, req.DigitCount)
	start := req.Offset % len(combos)
	if start < 0 {
		start += len(combos)
	}

	puzzles := make([]model.Puzzle, 0, req.Count)
	for i := 0; i < len(combos) && len(puzzles) < req.Count; i++ {
		if err := ctx.Err(); err != nil {
			return puzzles, err
		}
		digits, expr, ok := s.combination(ctx, combos[(start+i)%len(combos)])
		if !ok {
			continue
		}
		puzzles = append(puzzles, model.Puzzle{
			ID:         g.newID(),
			Digits:     digits,
			Solution:   expr,
			Difficulty: req.Difficulty,
			Target:     req.Target,
		})
	}

	switch req.Difficulty {
	case model.DifficultyEasy:
		sort.SliceStable(puzzles, func(i, j int) bool {
			return Complexity(puzzles[i].Solution) < Complexity(puzzles[j].Solution)
		})
	case model.DifficultyDifficult:
		sort.SliceStable(puzzles, func(i, j int) bool {
			return Complexity(puzzles[i].Solution) > Complexity(puzzles[j].Solution)
		})
	}
	return puzzles, nil
}

// Solve looks for an expression over digits, in the given order, that
// evaluates to target. It tries every shape of the difficulty's library
// with the difficulty's operators.
func Solve(ctx context.Context, digits []int, target int, d model.Difficulty) (string, bool, error) {
	if len(digits) < 2 || len(digits) > maxDigitCount {
		return "", false, fmt.Errorf("%w: digit count must be between 2 and %d", ErrInvalidRequest, maxDigitCount)
	}
	for _, v := range digits {
		if v < 0 || v > 9 {
			return "", false, fmt.Errorf("%w: %d is not a digit", ErrInvalidRequest, v)
		}
	}
	if _, ok := model.ParseDifficulty(string(d)); !ok {
		d = model.DifficultyDifficult
	}

	s := newSearch(d, target, len(digits))
	expr, ok, err := s.permutation(ctx, digits)
	if ok || err != nil {
		return expr, ok, err
	}
	if len(digits) > maxExhaustiveDigits {
		return "", false, nil
	}

	// Every binary bracketing with every operator, exponent included.
	full := &search{ops: []byte("+-*/^"), templates: bracketings(len(digits)), target: float64(target)}
	return full.permutation(ctx, digits)
}

type search struct {
	ops       []byte
	templates []string
	target    float64
	buf       []byte
}

func newSearch(d model.Difficulty, target, n int) *search {
	return &search{
		ops:       operatorsFor(d),
		templates: templates(shapesFor(d), n),
		target:    float64(target),
	}
}

// combination walks the permutations of combo in lexicographic order and
// returns the first one that has a solution.
func (s *search) combination(ctx context.Context, combo []int) ([]int, string, bool) {
	perm := append([]int(nil), combo...)
	for {
		if ctx.Err() != nil {
			return nil, "", false
		}
		expr, ok, err := s.permutation(ctx, perm)
		if err != nil {
			return nil, "", false
		}
		if ok {
			return append([]int(nil), perm...), expr, true
		}
		if !nextPermutation(perm) {
			return nil, "", false
		}
	}
}

// permutation tries each template in order, and within a template every
// operator assignment with the leftmost slot varying slowest. It stops with
// the context error once ctx is done.
func (s *search) permutation(ctx context.Context, digits []int) (string, bool, error) {
	slots := len(digits) - 1
	choice := make([]int, slots)
	tried := 0
	for _, tmpl := range s.templates {
		if err := ctx.Err(); err != nil {
			return "", false, err
		}
		for i := range choice {
			choice[i] = 0
		}
		for {
			tried++
			if tried%ctxCheckInterval == 0 {
				if err := ctx.Err(); err != nil {
					return "", false, err
				}
			}
			expr := s.fill(tmpl, digits, choice)
			if v, err := Evaluate(expr); err == nil && math.Abs(v-s.target) < Epsilon {
				return expr, true, nil
			}
			if !s.advance(choice) {
				break
			}
		}
	}
	return "", false, nil
}

func (s *search) fill(tmpl string, digits []int, choice []int) string {
	s.buf = s.buf[:0]
	d, o := 0, 0
	for i := 0; i < len(tmpl); i++ {
		switch tmpl[i] {
		case digitSlot:
			s.buf = append(s.buf, byte('0'+digits[d]))
			d++
		case opSlot:
			s.buf = append(s.buf, s.ops[choice[o]])
			o++
		default:
			s.buf = append(s.buf, tmpl[i])
		}
	}
	return string(s.buf)
}

func (s *search) advance(choice []int) bool {
	for i := len(choice) - 1; i >= 0; i-- {
		choice[i]++
		if choice[i] < len(s.ops) {
			return true
		}
		choice[i] = 0
	}
	return false
}

// combinations lists the k-subsets of 0..n-1 in ascending lexicographic order.
func combinations(n, k int) [][]int {
	var out [][]int
	cur := make([]int, k)
	for i := range cur {
		cur[i] = i
	}
	for {
		out = append(out, append([]int(nil), cur...))
		i := k - 1
		for i >= 0 && cur[i] == n-k+i {
			i--
		}
		if i < 0 {
			return out
		}
		cur[i]++
		for j := i + 1; j < k; j++ {
			cur[j] = cur[j-1] + 1
		}
	}
}

// nextPermutation rearranges p into the next lexicographic permutation and
// reports false once p is the last one.
func nextPermutation(p []int) bool {
	i := len(p) - 2
	for i >= 0 && p[i] >= p[i+1] {
		i--
	}
	if i < 0 {
		return false
	}
	j := len(p) - 1
	for p[j] <= p[i] {
		j--
	}
	p[i], p[j] = p[j], p[i]
	for l, r := i+1, len(p)-1; l < r; l, r = l+1, r-1 {
		p[l], p[r] = p[r], p[l]
	}
	return true
}
