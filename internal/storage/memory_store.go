package storage

import (
	"fmt"
	"sync"

	"minigit/internal/commit"
	"minigit/internal/errors"
	"minigit/internal/hashing"
)

// MemoryStore implements Store in memory, for tests and embedded use.
// Commits are immutable so pointers are shared, not copied.
type MemoryStore struct {
	mu      sync.RWMutex
	commits map[hashing.Hash]*commit.Commit
	heads   map[string]hashing.Hash
	meta    *Meta
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		commits: make(map[hashing.Hash]*commit.Commit),
		heads:   make(map[string]hashing.Hash),
	}
}

func (s *MemoryStore) PutCommit(c *commit.Commit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commits[c.Hash] = c
	return nil
}

func (s *MemoryStore) GetCommit(hash hashing.Hash) (*commit.Commit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.commits[hash]
	if !ok {
		return nil, errors.NotFound(fmt.Sprintf("commit not found: %s", hash))
	}
	return c, nil
}

func (s *MemoryStore) ListCommits() ([]*commit.Commit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	commits := make([]*commit.Commit, 0, len(s.commits))
	for _, c := range s.commits {
		commits = append(commits, c)
	}
	return commits, nil
}

func (s *MemoryStore) Head(branch string) (hashing.Hash, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.heads[branch], nil
}

func (s *MemoryStore) AdvanceHead(branch string, old, new hashing.Hash) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if current := s.heads[branch]; current != old {
		return errors.Conflict(fmt.Sprintf(
			"head of branch %q moved: expected %s, found %s", branch, old.Short(), current.Short()))
	}
	s.heads[branch] = new
	return nil
}

func (s *MemoryStore) SaveMeta(m *Meta) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.meta = m
	return nil
}

func (s *MemoryStore) LoadMeta() (*Meta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.meta == nil {
		return nil, errors.NotFound("repository metadata not found")
	}
	return s.meta, nil
}
