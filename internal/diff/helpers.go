package diff

import (
	"bytes"
	"fmt"
)

// Hunk is a contiguous section of changes with surrounding context, the
// unit textual diff output is rendered from.
type Hunk struct {
	OldStart int
	OldLines int
	NewStart int
	NewLines int
	Lines    []Op
}

// buildHunks groups non-equal ops into hunks and attaches up to
// contextLines equal lines on each side. Hunks whose context would overlap
// are merged.
func (e *Engine) buildHunks(ops []Op) []Hunk {
	var ranges [][2]int

	i := 0
	for i < len(ops) {
		if ops[i].Type == Equal {
			i++
			continue
		}
		start := i
		for i < len(ops) && ops[i].Type != Equal {
			i++
		}
		lo := max(0, start-e.contextLines)
		hi := min(len(ops), i+e.contextLines)
		if n := len(ranges); n > 0 && lo <= ranges[n-1][1] {
			ranges[n-1][1] = hi
		} else {
			ranges = append(ranges, [2]int{lo, hi})
		}
	}

	var hunks []Hunk
	for _, r := range ranges {
		hunk := Hunk{Lines: ops[r[0]:r[1]]}
		for _, op := range hunk.Lines {
			if op.OldIndex > 0 {
				if hunk.OldStart == 0 {
					hunk.OldStart = op.OldIndex
				}
				hunk.OldLines++
			}
			if op.NewIndex > 0 {
				if hunk.NewStart == 0 {
					hunk.NewStart = op.NewIndex
				}
				hunk.NewLines++
			}
		}
		hunks = append(hunks, hunk)
	}

	return hunks
}

// Format renders the diff in a unified-style textual form.
func (r *Result) Format() string {
	var buf bytes.Buffer

	for _, hunk := range r.Hunks {
		fmt.Fprintf(&buf, "@@ -%d,%d +%d,%d @@\n",
			hunk.OldStart, hunk.OldLines,
			hunk.NewStart, hunk.NewLines)

		for _, op := range hunk.Lines {
			switch op.Type {
			case Add:
				buf.WriteString("+ ")
			case Remove:
				buf.WriteString("- ")
			default:
				buf.WriteString("  ")
			}
			buf.WriteString(op.Text)
			buf.WriteString("\n")
		}
	}

	return buf.String()
}
