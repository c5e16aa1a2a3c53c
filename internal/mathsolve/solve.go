// Package mathsolve evaluates mathematical expressions for the
// ancillary solve endpoint. It is a thin call-through to an expression
// engine, not part of the exam pipeline.
package mathsolve

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"

	"github.com/lecturelab/examgen/internal/model"
)

// Solution holds an evaluated expression and its result.
type Solution struct {
	Problem  string `json:"problem"`
	Solution any    `json:"solution"`
}

// Solve evaluates a single arithmetic expression. Caret exponent
// notation is rewritten to ** before compilation.
func Solve(expression string) (Solution, error) {
	problem := strings.TrimSpace(strings.ReplaceAll(expression, "^", "**"))
	if problem == "" {
		return Solution{}, model.Errf(model.KindInvalidSubmission, "expression is empty")
	}

	out, err := expr.Eval(problem, map[string]any{})
	if err != nil {
		return Solution{}, model.E(model.KindInvalidSubmission, fmt.Sprintf("could not solve %q", problem), err)
	}
	return Solution{Problem: problem, Solution: out}, nil
}
