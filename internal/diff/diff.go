// Package diff implements the LCS-based line differ. Cost is
// O(|old|*|new|) in time and space, which is the dominant cost center of the
// whole engine: very large files degrade quadratically, so callers bound
// input size through the MaxFileLines ceiling.
package diff

import (
	"encoding/json"
	"strings"

	"minigit/internal/commit"
	"minigit/internal/errors"
)

// OpType classifies one line of a diff.
type OpType int

const (
	Equal OpType = iota
	Add
	Remove
)

func (t OpType) String() string {
	switch t {
	case Add:
		return "add"
	case Remove:
		return "remove"
	default:
		return "equal"
	}
}

// MarshalJSON emits the op name, keeping diff records readable for display
// collaborators.
func (t OpType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// Op is a single classified line. Indices are 1-based line numbers in the
// old and new sequences; 0 means the line is absent on that side.
type Op struct {
	Type     OpType `json:"op"`
	Text     string `json:"text"`
	OldIndex int    `json:"old_index,omitempty"`
	NewIndex int    `json:"new_index,omitempty"`
}

// Result is a complete diff: the ordered op sequence, hunks for display,
// and the aggregate counts.
type Result struct {
	Ops   []Op
	Hunks []Hunk
	Stats commit.ChangesSummary
}

// Engine computes line diffs. The zero MaxFileLines disables the ceiling.
type Engine struct {
	contextLines int
	maxFileLines int
}

func NewEngine(contextLines, maxFileLines int) *Engine {
	return &Engine{
		contextLines: contextLines,
		maxFileLines: maxFileLines,
	}
}

// SplitLines turns raw content into the line sequence the differ operates
// on. Empty content is an empty sequence; a single trailing newline does not
// produce a trailing empty line.
func SplitLines(content []byte) []string {
	if len(content) == 0 {
		return nil
	}
	return strings.Split(strings.TrimSuffix(string(content), "\n"), "\n")
}

// Diff computes the line diff between two file contents.
func (e *Engine) Diff(oldContent, newContent []byte) (*Result, error) {
	oldLines := SplitLines(oldContent)
	newLines := SplitLines(newContent)

	if e.maxFileLines > 0 && (len(oldLines) > e.maxFileLines || len(newLines) > e.maxFileLines) {
		return nil, errors.Validation("file exceeds diff line ceiling", map[string]int{
			"old_lines": len(oldLines),
			"new_lines": len(newLines),
			"ceiling":   e.maxFileLines,
		})
	}

	table := computeTable(oldLines, newLines)
	ops := backtrack(table, oldLines, newLines)

	result := &Result{
		Ops:   ops,
		Stats: aggregate(ops),
	}
	result.Hunks = e.buildHunks(ops)
	return result, nil
}

// computeTable fills the LCS length table: table[i][j] is the length of the
// longest common subsequence of old[0:i] and new[0:j].
func computeTable(oldLines, newLines []string) [][]int {
	table := make([][]int, len(oldLines)+1)
	for i := range table {
		table[i] = make([]int, len(newLines)+1)
	}

	for i := 1; i <= len(oldLines); i++ {
		for j := 1; j <= len(newLines); j++ {
			if oldLines[i-1] == newLines[j-1] {
				table[i][j] = table[i-1][j-1] + 1
			} else {
				table[i][j] = max(table[i-1][j], table[i][j-1])
			}
		}
	}

	return table
}

// backtrack walks the table from the corner to the origin and emits the op
// sequence in forward order. When neither neighbor is strictly larger the
// new-side line is taken as an addition, which keeps diffs deterministic for
// inputs with multiple LCS solutions.
func backtrack(table [][]int, oldLines, newLines []string) []Op {
	ops := make([]Op, 0, len(oldLines)+len(newLines))

	i, j := len(oldLines), len(newLines)
	for i > 0 || j > 0 {
		switch {
		case i > 0 && j > 0 && oldLines[i-1] == newLines[j-1]:
			ops = append(ops, Op{Type: Equal, Text: oldLines[i-1], OldIndex: i, NewIndex: j})
			i--
			j--
		case j > 0 && (i == 0 || table[i][j-1] >= table[i-1][j]):
			ops = append(ops, Op{Type: Add, Text: newLines[j-1], NewIndex: j})
			j--
		default:
			ops = append(ops, Op{Type: Remove, Text: oldLines[i-1], OldIndex: i})
			i--
		}
	}

	for l, r := 0, len(ops)-1; l < r; l, r = l+1, r-1 {
		ops[l], ops[r] = ops[r], ops[l]
	}
	return ops
}

// aggregate applies the paired-replace policy: within each maximal run of
// non-equal ops, a removal paired with an addition counts as one
// modification and leaves both raw counts. The remainder of the run counts
// as plain deletions or additions.
func aggregate(ops []Op) commit.ChangesSummary {
	var stats commit.ChangesSummary

	i := 0
	for i < len(ops) {
		if ops[i].Type == Equal {
			i++
			continue
		}
		removes, adds := 0, 0
		for i < len(ops) && ops[i].Type != Equal {
			if ops[i].Type == Remove {
				removes++
			} else {
				adds++
			}
			i++
		}
		paired := min(removes, adds)
		stats.Modifications += paired
		stats.Deletions += removes - paired
		stats.Additions += adds - paired
	}

	return stats
}
