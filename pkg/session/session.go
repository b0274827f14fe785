package session

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/ormasoftchile/kprep/pkg/bank"
	"github.com/ormasoftchile/kprep/pkg/render"
	"github.com/ormasoftchile/kprep/pkg/score"
)

// Session drives one full pass over the selected questions of a bank:
// prompt, collect, score, report, and a final summary.
type Session struct {
	bank      *bank.Bank
	collector *Collector
	renderer  *render.Renderer
	output    io.Writer
	selected  []int // indices into bank.Questions
}

// New builds a session over every question in the bank.
func New(b *bank.Bank, c *Collector, r *render.Renderer, out io.Writer) *Session {
	selected := make([]int, len(b.Questions))
	for i := range selected {
		selected[i] = i
	}
	return &Session{bank: b, collector: c, renderer: r, output: out, selected: selected}
}

// Select restricts the session to the questions with the given IDs, in the
// order they appear in the bank. Unknown IDs are an error.
func (s *Session) Select(ids []string) error {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		if s.bank.ByID(id) == nil {
			return fmt.Errorf("no question with id %q", id)
		}
		want[id] = true
	}
	var selected []int
	for i, q := range s.bank.Questions {
		if want[q.ID] {
			selected = append(selected, i)
		}
	}
	s.selected = selected
	return nil
}

// Run executes the session. Ending early (^C/EOF) is not an error: the
// remaining questions are reported as not answered.
func (s *Session) Run(ctx context.Context) ([]*score.Result, error) {
	results := make([]*score.Result, 0, len(s.selected))
	ended := false

	for n, idx := range s.selected {
		q := &s.bank.Questions[idx]
		if ended {
			results = append(results, &score.Result{QuestionID: q.ID, Missing: q.Checklist})
			continue
		}

		s.renderer.Question(n, len(s.selected), q)

		answer, err := s.collector.Collect(ctx, fmt.Sprintf("%s> ", q.ID))
		if err != nil {
			if errors.Is(err, ErrEnded) {
				ended = true
			} else {
				return results, err
			}
		}

		results = append(results, s.scoreAnswer(q, answer))
	}

	s.renderer.Summary(results)
	return results, nil
}

// scoreAnswer evaluates one finalized answer and prints the per-question
// report: mock outputs first, then the checklist split, the reference
// answer with notes, and the diff.
func (s *Session) scoreAnswer(q *bank.Question, answer *Answer) *score.Result {
	block := answer.Block()

	mocks, err := score.EvaluateMocks(block, q.Mocks)
	if err != nil {
		// A broken rule must not kill the question; report and move on.
		fmt.Fprintf(s.output, "[warn] mock rules: %v\n", err)
	}
	for _, m := range mocks {
		s.renderer.MockOutput(m)
	}

	found, missing := score.Match(block, q.Checklist)
	res := &score.Result{
		QuestionID: q.ID,
		Found:      found,
		Missing:    missing,
		Forced:     answer.ForcedCount(),
		Answered:   true,
	}

	s.renderer.Checklist(res)
	s.renderer.Reference(q)
	if block != "" {
		s.renderer.Diff(score.ReferenceDiff(q.Reference, block))
	}
	return res
}
