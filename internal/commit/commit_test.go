package commit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minigit/internal/hashing"
)

func TestNewSnapshot(t *testing.T) {
	content := []byte("line1\nline2\n")
	snap := NewSnapshot(map[string][]byte{
		"b.txt": []byte("bbb\n"),
		"a.txt": content,
	})

	require.Len(t, snap, 2)
	entry := snap["a.txt"]
	assert.Equal(t, "a.txt", entry.Name)
	assert.Equal(t, hashing.HashContent(content), entry.ContentHash)
	assert.Equal(t, len(content), entry.Size)
	assert.Equal(t, content, entry.Content)

	t.Run("caller mutation cannot reach the snapshot", func(t *testing.T) {
		content[0] = '#'
		assert.NotEqual(t, content[0], snap["a.txt"].Content[0])
	})

	t.Run("names are sorted", func(t *testing.T) {
		assert.Equal(t, []string{"a.txt", "b.txt"}, snap.Names())
	})

	t.Run("digests follow name order", func(t *testing.T) {
		digests := snap.FileDigests()
		require.Len(t, digests, 2)
		assert.Equal(t, "a.txt", digests[0].Name)
		assert.Equal(t, "b.txt", digests[1].Name)
	})
}

func TestSnapshot_Contents(t *testing.T) {
	snap := NewSnapshot(map[string][]byte{"a.txt": []byte("x\n")})

	files := snap.Contents()
	assert.Equal(t, map[string][]byte{"a.txt": []byte("x\n")}, files)

	// Each call hands out fresh copies.
	files["a.txt"][0] = '#'
	again := snap.Contents()
	assert.Equal(t, []byte("x\n"), again["a.txt"])
}

func TestChangesSummary_Add(t *testing.T) {
	total := ChangesSummary{Additions: 1}
	total.Add(ChangesSummary{Additions: 2, Deletions: 3, Modifications: 4})
	assert.Equal(t, ChangesSummary{Additions: 3, Deletions: 3, Modifications: 4}, total)
}

func TestCommit_Equivalent(t *testing.T) {
	base := func() *Commit {
		snap := NewSnapshot(map[string][]byte{"a.txt": []byte("x\n")})
		return &Commit{
			Hash:     hashing.CommitDigest("msg", "alice", nil, snap.FileDigests()),
			Message:  "msg",
			Author:   "alice",
			Snapshot: snap,
		}
	}

	a, b := base(), base()
	assert.True(t, a.Equivalent(b))

	b.Message = "other"
	assert.False(t, a.Equivalent(b))

	c := base()
	c.Snapshot["a.txt"] = FileEntry{
		Name:        "a.txt",
		ContentHash: c.Snapshot["a.txt"].ContentHash,
		Content:     []byte("y\n"),
	}
	assert.False(t, a.Equivalent(c))
}
