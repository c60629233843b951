package hectoc

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hectoclash/internal/model"
)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("p%d", n)
	}
}

func TestGenerateWitnessesAreValid(t *testing.T) {
	for _, d := range []model.Difficulty{model.DifficultyEasy, model.DifficultyModerate, model.DifficultyDifficult} {
		t.Run(string(d), func(t *testing.T) {
			g := NewGenerator()
			puzzles, err := g.Generate(context.Background(), GenerateRequest{Count: 2, Difficulty: d, Target: 100})
			require.NoError(t, err)
			require.NotEmpty(t, puzzles)
			assert.LessOrEqual(t, len(puzzles), 2)

			for _, p := range puzzles {
				assert.NotEmpty(t, p.ID)
				assert.Len(t, p.Digits, DefaultDigitCount)
				assert.Equal(t, d, p.Difficulty)
				assert.Equal(t, 100, p.Target)

				v, err := Evaluate(p.Solution)
				require.NoError(t, err, p.Solution)
				assert.InDelta(t, 100, v, Epsilon, p.Solution)
				assert.Equal(t, p.Digits, ExtractDigits(p.Solution))
				assert.True(t, Verify(p.Solution, p.Digits, p.Target).IsValid)
			}
		})
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	req := GenerateRequest{Count: 3, Difficulty: model.DifficultyEasy, Target: 100}

	a := &Generator{newID: sequentialIDs()}
	b := &Generator{newID: sequentialIDs()}
	first, err := a.Generate(context.Background(), req)
	require.NoError(t, err)
	second, err := b.Generate(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestGenerateUsesEachCombinationOnce(t *testing.T) {
	g := NewGenerator()
	puzzles, err := g.Generate(context.Background(), GenerateRequest{Count: 3, Difficulty: model.DifficultyEasy})
	require.NoError(t, err)

	seen := map[string]bool{}
	for _, p := range puzzles {
		sorted := append([]int(nil), p.Digits...)
		for i := range sorted {
			for j := i + 1; j < len(sorted); j++ {
				if sorted[j] < sorted[i] {
					sorted[i], sorted[j] = sorted[j], sorted[i]
				}
			}
		}
		key := fmt.Sprint(sorted)
		assert.False(t, seen[key], "combination %s reused", key)
		seen[key] = true
	}
}

func TestGenerateEasyUsesEasyOperators(t *testing.T) {
	g := NewGenerator()
	puzzles, err := g.Generate(context.Background(), GenerateRequest{Count: 3, Difficulty: model.DifficultyEasy})
	require.NoError(t, err)
	for _, p := range puzzles {
		assert.False(t, strings.ContainsAny(p.Solution, "/^"), p.Solution)
	}
	for i := 1; i < len(puzzles); i++ {
		assert.LessOrEqual(t, Complexity(puzzles[i-1].Solution), Complexity(puzzles[i].Solution))
	}
}

func TestGenerateOffsetRotatesStart(t *testing.T) {
	g := &Generator{newID: sequentialIDs()}
	canonical, err := g.Generate(context.Background(), GenerateRequest{Count: 1, Difficulty: model.DifficultyEasy})
	require.NoError(t, err)
	wrapped, err := g.Generate(context.Background(), GenerateRequest{Count: 1, Difficulty: model.DifficultyEasy, Offset: len(combinations(10, 6))})
	require.NoError(t, err)

	require.Len(t, canonical, 1)
	require.Len(t, wrapped, 1)
	assert.Equal(t, canonical[0].Digits, wrapped[0].Digits)
}

func TestGenerateRejectsBadRequests(t *testing.T) {
	g := NewGenerator()
	tests := []GenerateRequest{
		{Count: 0, Difficulty: model.DifficultyEasy},
		{Count: 1, Difficulty: "impossible"},
		{Count: 1, Difficulty: model.DifficultyEasy, DigitCount: 11},
		{Count: 1, Difficulty: model.DifficultyEasy, DigitCount: 1},
	}
	for _, req := range tests {
		_, err := g.Generate(context.Background(), req)
		assert.ErrorIs(t, err, ErrInvalidRequest)
	}
}

func TestGenerateHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	puzzles, err := NewGenerator().Generate(ctx, GenerateRequest{Count: 3, Difficulty: model.DifficultyEasy})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, puzzles)
}

func TestSolve(t *testing.T) {
	expr, ok, err := Solve(context.Background(), []int{1, 2, 3, 4, 5, 6}, 100, model.DifficultyDifficult)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, Verify(expr, []int{1, 2, 3, 4, 5, 6}, 100).IsValid, expr)

	_, ok, err = Solve(context.Background(), []int{0, 0}, 100, model.DifficultyEasy)
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = Solve(context.Background(), []int{1, 12}, 100, model.DifficultyEasy)
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestSolveStopsAtDeadline(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, ok, err := Solve(ctx, []int{0, 0, 0, 0, 0, 0, 0, 0, 0, 0}, 7, model.DifficultyDifficult)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, ok)
	assert.Less(t, time.Since(start), time.Second)
}

func TestCombinations(t *testing.T) {
	combos := combinations(4, 2)
	assert.Equal(t, [][]int{{0, 1}, {0, 2}, {0, 3}, {1, 2}, {1, 3}, {2, 3}}, combos)
	assert.Len(t, combinations(10, 6), 210)
}

func TestNextPermutation(t *testing.T) {
	p := []int{1, 2, 3}
	var seen [][]int
	for {
		seen = append(seen, append([]int(nil), p...))
		if !nextPermutation(p) {
			break
		}
	}
	assert.Equal(t, [][]int{{1, 2, 3}, {1, 3, 2}, {2, 1, 3}, {2, 3, 1}, {3, 1, 2}, {3, 2, 1}}, seen)
}

func TestTemplates(t *testing.T) {
	tmpls := templates(easyShapes, 6)
	require.NotEmpty(t, tmpls)
	assert.Equal(t, "#?#?#?#?#?#", tmpls[0])
	assert.Equal(t, "(#?#)?#?#?#?#", tmpls[1])

	nested, ok := render(shape{{0, 3}, {0, 2}}, 6)
	require.True(t, ok)
	assert.Equal(t, "((#?#)?#)?#?#?#", nested)

	_, ok = render(shape{{3, 6}}, 4)
	assert.False(t, ok)

	for _, tmpl := range templates(difficultShapes, 4) {
		assert.Equal(t, 4, strings.Count(tmpl, "#"), tmpl)
	}
}

func TestShapeLibrariesRunSimpleToComplex(t *testing.T) {
	for _, shapes := range [][]shape{easyShapes, moderateShapes, difficultShapes} {
		require.NotEmpty(t, shapes)
		assert.Empty(t, shapes[0])
	}
	assert.Equal(t, moderateShapes, difficultShapes[:len(moderateShapes)])
	assert.Equal(t, easyShapes, moderateShapes[:len(easyShapes)])

	tmpls := templates(difficultShapes, 6)
	assert.Equal(t, "#?#?#?#?#?#", tmpls[0])
	assert.Equal(t, "((#?#)?#)?#?#?#", tmpls[len(templates(moderateShapes, 6))])
}

func TestComplexity(t *testing.T) {
	assert.InDelta(t, 5.0, Complexity("1+2+3+4+5+6"), 1e-9)
	// two '+', one '*', one pair of parens at depth 1: 2 + 2 + 1.5 + 3
	assert.InDelta(t, 8.5, Complexity("(1+2)*3+4"), 1e-9)
	// one '-', one '/', two nested pairs at depth 2: 1.5 + 2.5 + 3 + 6
	assert.InDelta(t, 13.0, Complexity("((1-2)/3)"), 1e-9)
}

func TestBracketings(t *testing.T) {
	assert.Equal(t, []string{"#?(#?#)", "(#?#)?#"}, bracketings(3))
	assert.Len(t, bracketings(6), 42)
}
