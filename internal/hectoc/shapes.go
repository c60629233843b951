package hectoc

import (
	"strings"

	"hectoclash/internal/model"
)

const (
	digitSlot = '#'
	opSlot    = '?'
)

// group wraps the digit slots [start, end) in parentheses.
type group struct{ start, end int }

// shape is a parenthesization pattern; groups must nest, never overlap.
type shape []group

var easyShapes = []shape{
	{},
	{{0, 2}},
	{{0, 3}},
	{{3, 6}},
	{{0, 2}, {2, 4}},
	{{0, 3}, {3, 6}},
}

var moderateShapes = append(append([]shape{}, easyShapes...),
	shape{{1, 3}},
	shape{{2, 5}},
	shape{{0, 4}},
	shape{{2, 6}},
	shape{{1, 5}},
	shape{{0, 2}, {2, 4}, {4, 6}},
)

var difficultShapes = append(append([]shape{}, moderateShapes...),
	shape{{0, 3}, {0, 2}},
	shape{{0, 4}, {1, 3}},
	shape{{1, 5}, {2, 4}},
	shape{{2, 6}, {3, 5}},
	shape{{0, 2}, {2, 6}, {3, 5}},
	shape{{0, 4}, {0, 2}, {4, 6}},
	shape{{0, 5}, {1, 4}, {2, 4}},
)

func shapesFor(d model.Difficulty) []shape {
	switch d {
	case model.DifficultyEasy:
		return easyShapes
	case model.DifficultyModerate:
		return moderateShapes
	default:
		return difficultShapes
	}
}

func operatorsFor(d model.Difficulty) []byte {
	if d == model.DifficultyEasy {
		return []byte("+-*")
	}
	return []byte("+-*/")
}

// templates renders the shapes usable with n digits, in declaration order,
// skipping shapes that do not fit and duplicates. A template uses '#' for
// digit slots and '?' for operator slots, e.g. "(#?#)?#".
func templates(shapes []shape, n int) []string {
	seen := make(map[string]bool, len(shapes))
	out := make([]string, 0, len(shapes))
	for _, s := range shapes {
		t, ok := render(s, n)
		if !ok || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

func render(s shape, n int) (string, bool) {
	opens := make([]int, n)
	closes := make([]int, n)
	for _, g := range s {
		if g.start < 0 || g.end > n || g.end-g.start < 2 || (g.start == 0 && g.end == n) {
			return "", false
		}
		opens[g.start]++
		closes[g.end-1]++
	}

	var b strings.Builder
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteByte(opSlot)
		}
		b.WriteString(strings.Repeat("(", opens[i]))
		b.WriteByte(digitSlot)
		b.WriteString(strings.Repeat(")", closes[i]))
	}
	return b.String(), true
}

// Complexity scores an expression by its operators, parentheses and nesting.
func Complexity(expr string) float64 {
	var score float64
	depth, maxDepth := 0, 0
	for i := 0; i < len(expr); i++ {
		switch expr[i] {
		case '+':
			score += 1
		case '-':
			score += 1.5
		case '*':
			score += 2
		case '/':
			score += 2.5
		case '^':
			score += 3
		case '(':
			score += 1.5
			depth++
			if depth > maxDepth {
				maxDepth = depth
			}
		case ')':
			depth--
		}
	}
	return score + 3*float64(maxDepth)
}

// bracketings renders every full binary bracketing of n digit slots, with
// the outermost level left bare.
func bracketings(n int) []string {
	var build func(n int, wrap bool) []string
	build = func(n int, wrap bool) []string {
		if n == 1 {
			return []string{string(digitSlot)}
		}
		var out []string
		for k := 1; k < n; k++ {
			for _, l := range build(k, true) {
				for _, r := range build(n-k, true) {
					t := l + string(opSlot) + r
					if wrap {
						t = "(" + t + ")"
					}
					out = append(out, t)
				}
			}
		}
		return out
	}
	return build(n, false)
}
