// Package session runs the interactive answer-collection loop: one question
// at a time, one command line at a time, probing each line before it is
// committed to the answer.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"

	"github.com/ormasoftchile/kprep/pkg/command"
	"github.com/ormasoftchile/kprep/pkg/probe"
)

// ErrEnded signals that the user ended the session (^C or EOF) rather than
// finishing the current question with a blank line.
var ErrEnded = errors.New("session ended by user")

// Line is one command kept in an answer, with its acceptance provenance.
type Line struct {
	Text   string
	Forced bool // kept by the user after the probe rejected it
}

// Answer is the ordered buffer of kept lines for one question.
type Answer struct {
	Lines []Line
}

// Block joins the kept lines into the newline-separated text the checklist
// matcher runs against.
func (a *Answer) Block() string {
	texts := make([]string, len(a.Lines))
	for i, l := range a.Lines {
		texts[i] = l.Text
	}
	return strings.Join(texts, "\n")
}

// ForcedCount returns how many lines were kept despite a rejection.
func (a *Answer) ForcedCount() int {
	n := 0
	for _, l := range a.Lines {
		if l.Forced {
			n++
		}
	}
	return n
}

// Decision is the outcome of processing one input line.
type Decision int

const (
	// DecisionKeep: probe accepted (or was skipped/indeterminate); append.
	DecisionKeep Decision = iota
	// DecisionForced: probe rejected, user declined the retry; append.
	DecisionForced
	// DecisionDiscard: help line, or rejected line the user will retype.
	DecisionDiscard
	// DecisionBlank: blank line; finalize the answer.
	DecisionBlank
)

// Collector reads successive lines for one question and assembles the
// answer buffer. It owns no cross-question state: a fresh Answer is built
// per Collect call and the alias table behind the normalizer is read-only.
type Collector struct {
	normalizer *command.Normalizer
	prober     *probe.Prober
	help       *probe.HelpDispatcher
	reader     LineReader
	output     io.Writer
	noProbe    bool
}

// NewCollector wires a collector from its collaborators.
func NewCollector(n *command.Normalizer, p *probe.Prober, h *probe.HelpDispatcher, r LineReader, out io.Writer, noProbe bool) *Collector {
	return &Collector{
		normalizer: n,
		prober:     p,
		help:       h,
		reader:     r,
		output:     out,
		noProbe:    noProbe,
	}
}

// Collect runs the read-probe-append loop until a blank line finalizes the
// answer. The returned error is nil for a normal finalize and ErrEnded when
// the user left with ^C/EOF; in both cases the answer gathered so far is
// returned.
func (c *Collector) Collect(ctx context.Context, prompt string) (*Answer, error) {
	answer := &Answer{}

	for {
		c.reader.SetPrompt(prompt)
		raw, err := c.reader.ReadLine()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
				return answer, ErrEnded
			}
			return answer, fmt.Errorf("read line: %w", err)
		}

		decision, line, err := c.processLine(ctx, raw)
		switch decision {
		case DecisionBlank:
			return answer, nil
		case DecisionKeep:
			answer.Lines = append(answer.Lines, Line{Text: line})
		case DecisionForced:
			answer.Lines = append(answer.Lines, Line{Text: line, Forced: true})
		case DecisionDiscard:
			// help shown or user retypes; nothing stored
		}
		if err != nil {
			return answer, err
		}
	}
}

// processLine normalizes and routes one raw input line. A non-nil error
// means the user bailed out of the retry dialog; the decision still says
// what to do with the line.
func (c *Collector) processLine(ctx context.Context, raw string) (Decision, string, error) {
	line := strings.TrimSpace(raw)
	if line == "" {
		return DecisionBlank, "", nil
	}

	line = c.normalizer.Normalize(line)

	if probe.IsHelpRequest(line) {
		c.help.Run(ctx, line)
		return DecisionDiscard, "", nil
	}

	if c.noProbe {
		return DecisionKeep, line, nil
	}

	rep := c.prober.Probe(ctx, line)
	if rep.Outcome.Keep() {
		return DecisionKeep, line, nil
	}

	fmt.Fprintf(c.output, "That looks like a syntax or usage error.\n")
	retry, err := c.askRetry()
	if err != nil {
		return DecisionDiscard, "", ErrEnded
	}
	if retry {
		return DecisionDiscard, "", nil
	}
	return DecisionForced, line, nil
}

// askRetry runs the two-state retry sub-dialog. Anything starting with "y"
// means re-enter; everything else keeps the rejected line.
func (c *Collector) askRetry() (bool, error) {
	c.reader.SetPrompt("Re-enter this command? (y/n) ")
	answer, err := c.reader.ReadLine()
	if err != nil {
		return false, err
	}
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(answer)), "y"), nil
}
