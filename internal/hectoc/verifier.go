package hectoc

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"hectoclash/internal/model"
)

var glyphs = strings.NewReplacer(
	"×", "*",
	"✕", "*",
	"·", "*",
	"÷", "/",
	"**", "^",
)

// Normalize strips whitespace and maps alternate operator glyphs to the
// evaluator's operators.
func Normalize(expr string) string {
	stripped := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, expr)
	return glyphs.Replace(stripped)
}

// ExtractDigits returns the digit characters of expr in order.
func ExtractDigits(expr string) []int {
	digits := make([]int, 0, 8)
	for i := 0; i < len(expr); i++ {
		if isDigit(expr[i]) {
			digits = append(digits, int(expr[i]-'0'))
		}
	}
	return digits
}

// Verify checks that expression uses exactly the given digits in order and
// evaluates to target. It never panics on arbitrary input.
func Verify(expression string, digits []int, target int) model.VerificationResult {
	norm := Normalize(expression)
	found := ExtractDigits(norm)

	if len(found) != len(digits) {
		return invalid(fmt.Sprintf("Expression contains %d digits, but should contain %d", len(found), len(digits)))
	}
	for i := range digits {
		if found[i] != digits[i] {
			return invalid(fmt.Sprintf("Digit at position %d should be %d, but found %d", i+1, digits[i], found[i]))
		}
	}

	v, err := Evaluate(norm)
	if err != nil {
		var evalErr *EvalError
		if errors.As(err, &evalErr) {
			return invalid("Invalid expression: " + evalErr.Error())
		}
		return invalid("Invalid expression")
	}
	if math.Abs(v-float64(target)) >= Epsilon {
		return invalid(fmt.Sprintf("Expression evaluates to %s, not the target value of %d", formatNumber(v), target))
	}
	return model.VerificationResult{IsValid: true, Result: &v}
}

func invalid(reason string) model.VerificationResult {
	return model.VerificationResult{IsValid: false, Reason: reason}
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
