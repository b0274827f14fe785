package score

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// DiffLine is one line of the answer-vs-reference comparison.
type DiffLine struct {
	Type string // context, added, removed
	Text string
}

const (
	LineContext = "context"
	LineAdded   = "added"   // present in the answer, not the reference
	LineRemoved = "removed" // present in the reference, missing from the answer
)

// ReferenceDiff computes a line-level diff from the reference answer to the
// user's answer block. "removed" lines are reference content the user did
// not produce; "added" lines are the user's own additions.
func ReferenceDiff(reference, answer string) []DiffLine {
	dmp := diffmatchpatch.New()
	refChars, ansChars, lineArray := dmp.DiffLinesToChars(reference, answer)
	diffs := dmp.DiffMain(refChars, ansChars, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	var lines []DiffLine
	for _, d := range diffs {
		chunk := strings.Split(d.Text, "\n")
		if len(chunk) > 0 && chunk[len(chunk)-1] == "" {
			chunk = chunk[:len(chunk)-1]
		}
		for _, text := range chunk {
			switch d.Type {
			case diffmatchpatch.DiffEqual:
				lines = append(lines, DiffLine{Type: LineContext, Text: text})
			case diffmatchpatch.DiffDelete:
				lines = append(lines, DiffLine{Type: LineRemoved, Text: text})
			case diffmatchpatch.DiffInsert:
				lines = append(lines, DiffLine{Type: LineAdded, Text: text})
			}
		}
	}
	return lines
}
