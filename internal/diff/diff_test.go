package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minigit/internal/commit"
	"minigit/internal/errors"
)

func TestSplitLines(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{name: "empty", content: "", want: nil},
		{name: "no trailing newline", content: "a\nb", want: []string{"a", "b"}},
		{name: "trailing newline", content: "a\nb\n", want: []string{"a", "b"}},
		{name: "blank line kept", content: "a\n\nb\n", want: []string{"a", "", "b"}},
		{name: "single newline", content: "\n", want: []string{""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitLines([]byte(tt.content)))
		})
	}
}

func TestDiff_Replace(t *testing.T) {
	e := NewEngine(3, 0)

	result, err := e.Diff([]byte("a\nb\nc\n"), []byte("a\nx\nc\n"))
	require.NoError(t, err)

	want := []Op{
		{Type: Equal, Text: "a", OldIndex: 1, NewIndex: 1},
		{Type: Remove, Text: "b", OldIndex: 2},
		{Type: Add, Text: "x", NewIndex: 2},
		{Type: Equal, Text: "c", OldIndex: 3, NewIndex: 3},
	}
	assert.Equal(t, want, result.Ops)

	// Paired-replace policy: the remove/add pair at one slot is a single
	// modification.
	assert.Equal(t, commit.ChangesSummary{Modifications: 1}, result.Stats)
}

func TestDiff_Stats(t *testing.T) {
	tests := []struct {
		name string
		old  string
		new  string
		want commit.ChangesSummary
	}{
		{
			name: "identical",
			old:  "a\nb\n",
			new:  "a\nb\n",
			want: commit.ChangesSummary{},
		},
		{
			name: "brand new file",
			old:  "",
			new:  "a\nb\nc\n",
			want: commit.ChangesSummary{Additions: 3},
		},
		{
			name: "deleted file",
			old:  "a\nb\n",
			new:  "",
			want: commit.ChangesSummary{Deletions: 2},
		},
		{
			name: "full replace pairs up",
			old:  "a\nb\n",
			new:  "x\ny\n",
			want: commit.ChangesSummary{Modifications: 2},
		},
		{
			name: "replace with surplus additions",
			old:  "a\nold\nz\n",
			new:  "a\nnew1\nnew2\nz\n",
			want: commit.ChangesSummary{Additions: 1, Modifications: 1},
		},
		{
			name: "append at end",
			old:  "a\n",
			new:  "a\nb\n",
			want: commit.ChangesSummary{Additions: 1},
		},
	}

	e := NewEngine(3, 0)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := e.Diff([]byte(tt.old), []byte(tt.new))
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.Stats)
		})
	}
}

func TestDiff_TieBreakDeterministic(t *testing.T) {
	e := NewEngine(3, 0)

	// old and new share only one line and allow multiple LCS backtraces;
	// the tie-break toward additions pins the output down.
	first, err := e.Diff([]byte("a\nb\n"), []byte("b\na\n"))
	require.NoError(t, err)

	want := []Op{
		{Type: Remove, Text: "a", OldIndex: 1},
		{Type: Equal, Text: "b", OldIndex: 2, NewIndex: 1},
		{Type: Add, Text: "a", NewIndex: 2},
	}
	assert.Equal(t, want, first.Ops)

	for i := 0; i < 5; i++ {
		again, err := e.Diff([]byte("a\nb\n"), []byte("b\na\n"))
		require.NoError(t, err)
		assert.Equal(t, first.Ops, again.Ops)
	}
}

func TestDiff_LineCeiling(t *testing.T) {
	e := NewEngine(3, 2)

	_, err := e.Diff([]byte("a\nb\nc\n"), []byte("a\n"))
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))

	_, err = e.Diff([]byte("a\n"), []byte("a\nb\n"))
	require.NoError(t, err)
}

func TestDiff_EmptyBothSides(t *testing.T) {
	e := NewEngine(3, 0)

	result, err := e.Diff(nil, nil)
	require.NoError(t, err)
	assert.Empty(t, result.Ops)
	assert.Empty(t, result.Hunks)
	assert.Equal(t, commit.ChangesSummary{}, result.Stats)
}

func TestDiff_Hunks(t *testing.T) {
	e := NewEngine(1, 0)

	result, err := e.Diff(
		[]byte("a\nb\nc\nd\ne\nf\n"),
		[]byte("a\nb\nc\nx\ne\nf\n"),
	)
	require.NoError(t, err)
	require.Len(t, result.Hunks, 1)

	hunk := result.Hunks[0]
	assert.Equal(t, 3, hunk.OldStart)
	assert.Equal(t, 3, hunk.OldLines)
	assert.Equal(t, 3, hunk.NewStart)
	assert.Equal(t, 3, hunk.NewLines)

	assert.Equal(t, "@@ -3,3 +3,3 @@\n  c\n- d\n+ x\n  e\n", result.Format())
}

func TestDiff_HunksMerge(t *testing.T) {
	e := NewEngine(2, 0)

	// Two changes two lines apart: their context windows overlap, so they
	// collapse into one hunk.
	result, err := e.Diff(
		[]byte("a\nb\nc\nd\ne\n"),
		[]byte("x\nb\nc\ny\ne\n"),
	)
	require.NoError(t, err)
	assert.Len(t, result.Hunks, 1)
}
