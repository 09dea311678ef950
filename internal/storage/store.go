// Package storage is the persistence collaborator: a commits table keyed by
// hash, one head pointer per branch, and the repository metadata record. The
// engine reads and writes through these contracts and owns nothing on disk.
package storage

import (
	"time"

	"minigit/internal/commit"
	"minigit/internal/hashing"
)

// Meta is the repository metadata record.
type Meta struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	DefaultBranch string    `json:"default_branch"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// CommitStore persists immutable commit records keyed by hash.
type CommitStore interface {
	PutCommit(c *commit.Commit) error
	GetCommit(hash hashing.Hash) (*commit.Commit, error)
	ListCommits() ([]*commit.Commit, error)
}

// HeadStore tracks one head pointer per branch. Head returns the zero Hash
// for a branch with no commits yet. AdvanceHead has compare-and-swap
// semantics: it applies only if the stored head still equals old, and
// reports a conflict otherwise.
type HeadStore interface {
	Head(branch string) (hashing.Hash, error)
	AdvanceHead(branch string, old, new hashing.Hash) error
}

// MetaStore persists the repository metadata record.
type MetaStore interface {
	SaveMeta(m *Meta) error
	LoadMeta() (*Meta, error)
}

// Store is the full persistence contract the repository is wired against.
type Store interface {
	CommitStore
	HeadStore
	MetaStore
}
