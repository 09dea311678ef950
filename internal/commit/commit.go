// Package commit defines the immutable history records: file snapshot
// entries, snapshots, and commit objects.
package commit

import (
	"bytes"
	"sort"
	"time"

	"minigit/internal/hashing"
)

// FileEntry is one file captured by a snapshot. It is owned exclusively by
// the commit that contains it and never mutated after creation.
type FileEntry struct {
	Name        string       `json:"name"`
	ContentHash hashing.Hash `json:"content_hash"`
	Size        int          `json:"size"`
	Content     []byte       `json:"content"`
}

// Snapshot maps file name to its captured entry: the complete file set at
// one point in history. Insertion order is irrelevant.
type Snapshot map[string]FileEntry

// NewSnapshot hashes a file-content map into a snapshot. Contents are copied
// so later mutation by the caller cannot reach into history.
func NewSnapshot(files map[string][]byte) Snapshot {
	snap := make(Snapshot, len(files))
	for name, content := range files {
		owned := make([]byte, len(content))
		copy(owned, content)
		snap[name] = FileEntry{
			Name:        name,
			ContentHash: hashing.HashContent(owned),
			Size:        len(owned),
			Content:     owned,
		}
	}
	return snap
}

// Names returns the file names in sorted order.
func (s Snapshot) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FileDigests returns the (name, contentHash) pairs the commit digest is
// computed over, sorted by name.
func (s Snapshot) FileDigests() []hashing.FileDigest {
	digests := make([]hashing.FileDigest, 0, len(s))
	for _, name := range s.Names() {
		digests = append(digests, hashing.FileDigest{Name: name, Hash: s[name].ContentHash})
	}
	return digests
}

// Contents materializes the snapshot back into a file-content map. Each call
// returns fresh copies.
func (s Snapshot) Contents() map[string][]byte {
	files := make(map[string][]byte, len(s))
	for name, entry := range s {
		content := make([]byte, len(entry.Content))
		copy(content, entry.Content)
		files[name] = content
	}
	return files
}

// ChangesSummary aggregates line-level change counts for a commit relative
// to its parent.
type ChangesSummary struct {
	Additions     int `json:"additions"`
	Deletions     int `json:"deletions"`
	Modifications int `json:"modifications"`
}

// Add accumulates another summary field-wise.
func (c *ChangesSummary) Add(other ChangesSummary) {
	c.Additions += other.Additions
	c.Deletions += other.Deletions
	c.Modifications += other.Modifications
}

// Commit is one node of the history DAG. Immutable once constructed; Hash is
// derived from the other fields, never assigned by the caller.
type Commit struct {
	Hash      hashing.Hash   `json:"hash"`
	Message   string         `json:"message"`
	Author    string         `json:"author"`
	Timestamp time.Time      `json:"timestamp"`
	Parents   []hashing.Hash `json:"parents"`
	Snapshot  Snapshot       `json:"snapshot"`
	Changes   ChangesSummary `json:"changes_summary"`
}

// GetID keys the commit in generic storage.
func (c *Commit) GetID() string { return string(c.Hash) }

// IsRoot reports whether the commit has no parents.
func (c *Commit) IsRoot() bool { return len(c.Parents) == 0 }

// Equivalent reports whether two commits carry identical content. Two
// commits with equal hashes must be equivalent if the hasher is correct;
// the graph treats a non-equivalent duplicate as an integrity fault.
func (c *Commit) Equivalent(other *Commit) bool {
	if c.Hash != other.Hash || c.Message != other.Message || c.Author != other.Author {
		return false
	}
	if len(c.Parents) != len(other.Parents) {
		return false
	}
	for i, p := range c.Parents {
		if other.Parents[i] != p {
			return false
		}
	}
	if len(c.Snapshot) != len(other.Snapshot) {
		return false
	}
	for name, entry := range c.Snapshot {
		o, ok := other.Snapshot[name]
		if !ok || o.ContentHash != entry.ContentHash || !bytes.Equal(o.Content, entry.Content) {
			return false
		}
	}
	return true
}
