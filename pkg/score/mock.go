package score

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"

	"github.com/ormasoftchile/kprep/pkg/bank"
)

// EvaluateMocks returns the output blocks of every mock rule whose
// condition holds for the answer.
//
// Rule conditions are expr-lang boolean expressions over a small env:
//
//	answer      : the full answer block, lowercased
//	has("...")  : case-insensitive containment in the answer
//
// The helper is named has rather than contains: contains is a reserved
// expr-lang operator and cannot be called as a function.
//
// Example: has("kubectl get nodes") && !has("grep -i ready")
func EvaluateMocks(answer string, rules []bank.MockRule) ([]string, error) {
	if len(rules) == 0 {
		return nil, nil
	}

	lower := strings.ToLower(answer)
	env := map[string]any{
		"answer": lower,
		"has": func(sub string) bool {
			return strings.Contains(lower, strings.ToLower(sub))
		},
	}

	var outputs []string
	for i, rule := range rules {
		program, err := expr.Compile(rule.When, expr.Env(env), expr.AsBool())
		if err != nil {
			return outputs, fmt.Errorf("compile mock rule %d: %w", i, err)
		}
		out, err := expr.Run(program, env)
		if err != nil {
			return outputs, fmt.Errorf("eval mock rule %d: %w", i, err)
		}
		if fired, ok := out.(bool); ok && fired {
			outputs = append(outputs, rule.Output)
		}
	}
	return outputs, nil
}
