package graph

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minigit/internal/commit"
	"minigit/internal/errors"
	"minigit/internal/hashing"
)

func makeCommit(t *testing.T, message string, parents ...hashing.Hash) *commit.Commit {
	t.Helper()
	snapshot := commit.NewSnapshot(map[string][]byte{
		"a.txt": []byte(message + "\n"),
	})
	return &commit.Commit{
		Hash:      hashing.CommitDigest(message, "tester", parents, snapshot.FileDigests()),
		Message:   message,
		Author:    "tester",
		Timestamp: time.Now().UTC(),
		Parents:   parents,
		Snapshot:  snapshot,
	}
}

func TestGraph_Add(t *testing.T) {
	g := New()

	root := makeCommit(t, "root")
	require.NoError(t, g.Add(root))

	child := makeCommit(t, "child", root.Hash)
	require.NoError(t, g.Add(child))
	assert.Equal(t, 2, g.Len())

	t.Run("missing parent", func(t *testing.T) {
		orphan := makeCommit(t, "orphan", hashing.HashContent([]byte("nowhere")))
		err := g.Add(orphan)
		require.Error(t, err)
		assert.True(t, errors.IsValidation(err))
		assert.Equal(t, 2, g.Len())
	})

	t.Run("equivalent duplicate is a no-op", func(t *testing.T) {
		dup := makeCommit(t, "child", root.Hash)
		require.Equal(t, child.Hash, dup.Hash)
		require.NoError(t, g.Add(dup))
		assert.Equal(t, 2, g.Len())
	})

	t.Run("duplicate hash with different content conflicts", func(t *testing.T) {
		bad := makeCommit(t, "impostor", root.Hash)
		bad.Hash = child.Hash
		err := g.Add(bad)
		require.Error(t, err)
		assert.True(t, errors.IsConflict(err))
	})
}

func TestGraph_Get(t *testing.T) {
	g := New()
	root := makeCommit(t, "root")
	require.NoError(t, g.Add(root))

	got, err := g.Get(root.Hash)
	require.NoError(t, err)
	assert.Equal(t, root, got)

	_, err = g.Get(hashing.HashContent([]byte("missing")))
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestGraph_History(t *testing.T) {
	g := New()

	c1 := makeCommit(t, "first")
	require.NoError(t, g.Add(c1))
	c2 := makeCommit(t, "second", c1.Hash)
	require.NoError(t, g.Add(c2))
	c3 := makeCommit(t, "third", c2.Hash)
	require.NoError(t, g.Add(c3))

	history, err := g.History(c3.Hash)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, []*commit.Commit{c3, c2, c1}, history)
	assert.True(t, history[len(history)-1].IsRoot())

	t.Run("walk terminates within commit count", func(t *testing.T) {
		assert.LessOrEqual(t, len(history), g.Len())
	})

	t.Run("unknown head", func(t *testing.T) {
		_, err := g.History(hashing.HashContent([]byte("missing")))
		require.Error(t, err)
		assert.True(t, errors.IsNotFound(err))
	})
}

func TestGraph_View(t *testing.T) {
	g := New()

	c1 := makeCommit(t, "first")
	require.NoError(t, g.Add(c1))
	c2 := makeCommit(t, "second", c1.Hash)
	require.NoError(t, g.Add(c2))

	view := g.View()
	assert.Equal(t, 2, view.TotalCommits)
	require.Len(t, view.Nodes, 2)
	assert.Equal(t, c1.Hash, view.Nodes[0].Hash)
	assert.Equal(t, "first", view.Nodes[0].Message)
	assert.Equal(t, 1, view.Nodes[0].FileCount)

	require.Len(t, view.Edges, 1)
	assert.Equal(t, Edge{From: c1.Hash, To: c2.Hash}, view.Edges[0])
}

func TestLoad(t *testing.T) {
	c1 := makeCommit(t, "first")
	c2 := makeCommit(t, "second", c1.Hash)
	c3 := makeCommit(t, "third", c2.Hash)

	t.Run("children before parents", func(t *testing.T) {
		g, err := Load([]*commit.Commit{c3, c2, c1})
		require.NoError(t, err)
		assert.Equal(t, 3, g.Len())

		history, err := g.History(c3.Hash)
		require.NoError(t, err)
		assert.Len(t, history, 3)
	})

	t.Run("dangling parent", func(t *testing.T) {
		_, err := Load([]*commit.Commit{c3, c2})
		require.Error(t, err)
		assert.True(t, errors.IsValidation(err))
	})

	t.Run("empty", func(t *testing.T) {
		g, err := Load(nil)
		require.NoError(t, err)
		assert.Equal(t, 0, g.Len())
	})
}

func TestGraph_LongChainTerminates(t *testing.T) {
	g := New()

	var parents []hashing.Hash
	var head hashing.Hash
	for i := 0; i < 100; i++ {
		c := makeCommit(t, fmt.Sprintf("commit %d", i), parents...)
		require.NoError(t, g.Add(c))
		parents = []hashing.Hash{c.Hash}
		head = c.Hash
	}

	history, err := g.History(head)
	require.NoError(t, err)
	assert.Len(t, history, 100)
	assert.True(t, history[99].IsRoot())
}
