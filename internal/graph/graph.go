// Package graph maintains the append-only commit DAG. Acyclicity is
// structural: an edge is only ever added from an existing node to a
// brand-new node, so no operation can introduce a cycle.
package graph

import (
	"fmt"
	"sync"
	"time"

	"minigit/internal/commit"
	"minigit/internal/errors"
	"minigit/internal/hashing"
)

// Graph is the in-memory node and edge set. Commits are never mutated after
// insertion, so reads are safe concurrently with appends.
type Graph struct {
	mu    sync.RWMutex
	nodes map[hashing.Hash]*commit.Commit
	order []hashing.Hash
}

func New() *Graph {
	return &Graph{
		nodes: make(map[hashing.Hash]*commit.Commit),
	}
}

// Add appends a commit node. Every parent must already exist. Re-adding an
// equivalent commit is a no-op; a duplicate hash with different content is
// an integrity fault and reported as a conflict.
func (g *Graph) Add(c *commit.Commit) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if existing, ok := g.nodes[c.Hash]; ok {
		if existing.Equivalent(c) {
			return nil
		}
		return errors.Conflict(fmt.Sprintf("commit %s already exists with different content", c.Hash.Short()))
	}

	for _, parent := range c.Parents {
		if _, ok := g.nodes[parent]; !ok {
			return errors.Validation(fmt.Sprintf("parent commit not found: %s", parent), nil)
		}
	}

	g.nodes[c.Hash] = c
	g.order = append(g.order, c.Hash)
	return nil
}

// Get returns the commit for a hash.
func (g *Graph) Get(hash hashing.Hash) (*commit.Commit, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	c, ok := g.nodes[hash]
	if !ok {
		return nil, errors.NotFound(fmt.Sprintf("commit not found: %s", hash))
	}
	return c, nil
}

// Has reports whether a commit exists.
func (g *Graph) Has(hash hashing.Hash) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.nodes[hash]
	return ok
}

// Len returns the number of commits in the graph.
func (g *Graph) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

// History walks first-parent links from head back to the root and returns
// the commits newest to oldest. Parents are a list throughout so that merge
// commits can be introduced later without restructuring the walk.
func (g *Graph) History(head hashing.Hash) ([]*commit.Commit, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	c, ok := g.nodes[head]
	if !ok {
		return nil, errors.NotFound(fmt.Sprintf("commit not found: %s", head))
	}

	var history []*commit.Commit
	seen := make(map[hashing.Hash]bool)
	for c != nil {
		if seen[c.Hash] {
			break
		}
		seen[c.Hash] = true
		history = append(history, c)

		if len(c.Parents) == 0 {
			break
		}
		c = g.nodes[c.Parents[0]]
	}

	return history, nil
}

// Node is the rendering-agnostic projection of one commit.
type Node struct {
	Hash      hashing.Hash          `json:"hash"`
	Message   string                `json:"message"`
	Author    string                `json:"author"`
	Timestamp time.Time             `json:"timestamp"`
	Changes   commit.ChangesSummary `json:"changes_summary"`
	FileCount int                   `json:"file_count"`
}

// Edge is one parent-to-child link.
type Edge struct {
	From hashing.Hash `json:"from"`
	To   hashing.Hash `json:"to"`
}

// View is the graph projection handed to visualization collaborators.
type View struct {
	Nodes        []Node `json:"nodes"`
	Edges        []Edge `json:"edges"`
	TotalCommits int    `json:"total_commits"`
}

// View projects the node and edge set in insertion order.
func (g *Graph) View() *View {
	g.mu.RLock()
	defer g.mu.RUnlock()

	view := &View{
		Nodes: make([]Node, 0, len(g.order)),
	}
	for _, hash := range g.order {
		c := g.nodes[hash]
		view.Nodes = append(view.Nodes, Node{
			Hash:      c.Hash,
			Message:   c.Message,
			Author:    c.Author,
			Timestamp: c.Timestamp,
			Changes:   c.Changes,
			FileCount: len(c.Snapshot),
		})
		for _, parent := range c.Parents {
			view.Edges = append(view.Edges, Edge{From: parent, To: c.Hash})
		}
	}
	view.TotalCommits = len(view.Nodes)
	return view
}

// Load rebuilds a graph from unordered persisted commits, inserting parents
// before children. A commit whose parent never appears is a dangling
// reference and rejected.
func Load(commits []*commit.Commit) (*Graph, error) {
	g := New()
	pending := make([]*commit.Commit, len(commits))
	copy(pending, commits)

	for len(pending) > 0 {
		progress := false
		remaining := pending[:0]
		for _, c := range pending {
			ready := true
			for _, parent := range c.Parents {
				if !g.Has(parent) {
					ready = false
					break
				}
			}
			if !ready {
				remaining = append(remaining, c)
				continue
			}
			if err := g.Add(c); err != nil {
				return nil, err
			}
			progress = true
		}
		if !progress {
			return nil, errors.Validation("commit set contains dangling parent references", nil)
		}
		pending = remaining
	}

	return g, nil
}
