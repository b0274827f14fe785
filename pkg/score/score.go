// Package score evaluates a finalized answer: checklist matching,
// mock-output rules, and a line diff against the reference answer.
package score

import (
	"strings"
)

// Match tests each checklist item for case-insensitive containment in the
// answer block. Items need not appear in order and matches do not consume
// text. Checklist order is preserved within both returned lists.
func Match(block string, checklist []string) (found, missing []string) {
	lower := strings.ToLower(block)
	for _, item := range checklist {
		if strings.Contains(lower, strings.ToLower(item)) {
			found = append(found, item)
		} else {
			missing = append(missing, item)
		}
	}
	return found, missing
}

// Result is the scored outcome of one question.
type Result struct {
	QuestionID string
	Found      []string
	Missing    []string
	Forced     int  // lines kept despite a failed probe
	Answered   bool // false when the session ended before this question
}

// Percent returns the checklist completion as 0–100.
func (r *Result) Percent() int {
	total := len(r.Found) + len(r.Missing)
	if total == 0 {
		return 0
	}
	return 100 * len(r.Found) / total
}
