// Package render owns the terminal presentation of the trainer: question
// prompts, probe reports, checklist results and the session summary.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/ormasoftchile/kprep/pkg/bank"
	"github.com/ormasoftchile/kprep/pkg/score"
)

var (
	colorGreen  = lipgloss.Color("42")
	colorRed    = lipgloss.Color("196")
	colorYellow = lipgloss.Color("214")
	colorCyan   = lipgloss.Color("51")
	colorDim    = lipgloss.Color("240")
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	foundStyle   = lipgloss.NewStyle().Foreground(colorGreen)
	missingStyle = lipgloss.NewStyle().Foreground(colorRed)
	warnStyle    = lipgloss.NewStyle().Foreground(colorYellow)
	dimStyle     = lipgloss.NewStyle().Foreground(colorDim)
)

// Renderer writes styled report sections to a single output stream.
type Renderer struct {
	out io.Writer
}

// New creates a renderer over the given writer.
func New(out io.Writer) *Renderer {
	return &Renderer{out: out}
}

// Question prints the question header and its prompt as rendered markdown.
func (r *Renderer) Question(index, total int, q *bank.Question) {
	fmt.Fprintf(r.out, "\n%s\n", headerStyle.Render(fmt.Sprintf("── Question %d/%d (%s) ──", index+1, total, q.ID)))
	fmt.Fprintf(r.out, "%s\n\n", Markdown(q.Prompt))
	fmt.Fprintf(r.out, "%s\n", dimStyle.Render("Enter your commands one per line. --help runs inline help. Blank line finishes."))
}

// Checklist prints the found/missing split for one scored answer.
func (r *Renderer) Checklist(res *score.Result) {
	fmt.Fprintf(r.out, "\n%s\n", headerStyle.Render("Checklist"))
	for _, item := range res.Found {
		fmt.Fprintf(r.out, "  %s %s\n", foundStyle.Render("✓"), item)
	}
	for _, item := range res.Missing {
		fmt.Fprintf(r.out, "  %s %s\n", missingStyle.Render("✗"), item)
	}
	fmt.Fprintf(r.out, "  %d/%d covered (%d%%)\n", len(res.Found), len(res.Found)+len(res.Missing), res.Percent())
	if res.Forced > 0 {
		fmt.Fprintf(r.out, "  %s\n", warnStyle.Render(fmt.Sprintf("%d command(s) kept despite failed validation", res.Forced)))
	}
}

// MockOutput prints a simulated partial-output block before the reference
// answer, flagged so the user knows it is not real cluster output.
func (r *Renderer) MockOutput(block string) {
	fmt.Fprintf(r.out, "\n%s\n%s\n", warnStyle.Render("[mock output]"), strings.TrimRight(block, "\n"))
}

// Reference prints the reference answer and notes as rendered markdown.
func (r *Renderer) Reference(q *bank.Question) {
	fmt.Fprintf(r.out, "\n%s\n", headerStyle.Render("Reference answer"))
	fmt.Fprintf(r.out, "%s\n", Markdown("```\n"+strings.TrimRight(q.Reference, "\n")+"\n```"))
	for _, note := range q.Notes {
		fmt.Fprintf(r.out, "  %s %s\n", warnStyle.Render("note:"), note)
	}
}

// Diff prints the answer-vs-reference line diff. Context lines are dimmed;
// reference lines the user missed show as "-", their own additions as "+".
func (r *Renderer) Diff(lines []score.DiffLine) {
	if len(lines) == 0 {
		return
	}
	fmt.Fprintf(r.out, "\n%s\n", headerStyle.Render("Against the reference"))
	for _, l := range lines {
		switch l.Type {
		case score.LineRemoved:
			fmt.Fprintf(r.out, "  %s\n", missingStyle.Render("- "+l.Text))
		case score.LineAdded:
			fmt.Fprintf(r.out, "  %s\n", foundStyle.Render("+ "+l.Text))
		default:
			fmt.Fprintf(r.out, "  %s\n", dimStyle.Render("  "+l.Text))
		}
	}
}

// Summary prints the final per-question score table.
func (r *Renderer) Summary(results []*score.Result) {
	fmt.Fprintf(r.out, "\n%s\n", headerStyle.Render("── Session summary ──"))

	idWidth := len("question")
	for _, res := range results {
		if w := runewidth.StringWidth(res.QuestionID); w > idWidth {
			idWidth = w
		}
	}

	fmt.Fprintf(r.out, "  %s  %s\n", runewidth.FillRight("question", idWidth), "score")
	totalFound, totalItems, totalForced := 0, 0, 0
	for _, res := range results {
		id := runewidth.FillRight(res.QuestionID, idWidth)
		if !res.Answered {
			fmt.Fprintf(r.out, "  %s  %s\n", id, dimStyle.Render("not answered"))
			continue
		}
		line := fmt.Sprintf("%d/%d (%d%%)", len(res.Found), len(res.Found)+len(res.Missing), res.Percent())
		if res.Forced > 0 {
			line += warnStyle.Render(fmt.Sprintf("  %d forced", res.Forced))
		}
		fmt.Fprintf(r.out, "  %s  %s\n", id, line)
		totalFound += len(res.Found)
		totalItems += len(res.Found) + len(res.Missing)
		totalForced += res.Forced
	}

	if totalItems > 0 {
		fmt.Fprintf(r.out, "\n  overall: %d/%d checklist items (%d%%)\n", totalFound, totalItems, 100*totalFound/totalItems)
	}
	if totalForced > 0 {
		fmt.Fprintf(r.out, "  %s\n", warnStyle.Render(fmt.Sprintf("you kept %d command(s) that failed validation", totalForced)))
	}
}
