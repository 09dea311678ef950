package storage

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/klauspost/compress/zstd"

	"minigit/internal/commit"
	"minigit/internal/errors"
	"minigit/internal/hashing"
)

const (
	commitKeyPrefix = "commit:"
	headKeyPrefix   = "head:"
	metaKey         = "repo:meta"

	// Payloads below this size are stored uncompressed.
	compressMinSize = 1024
)

// zstd frame magic, used to tell compressed payloads from plain JSON.
var zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}

// BadgerStore implements Store on BadgerDB. Commit payloads are JSON,
// zstd-compressed above a size threshold, with an LRU cache in front of
// reads. Head advancement is a compare-and-swap inside one transaction.
type BadgerStore struct {
	db    *badger.DB
	cache *lru.Cache[hashing.Hash, *commit.Commit]
	enc   *zstd.Encoder
	dec   *zstd.Decoder
}

func NewBadgerStore(db *badger.DB, cacheSize int) (*BadgerStore, error) {
	if cacheSize <= 0 {
		cacheSize = 128
	}
	cache, err := lru.New[hashing.Hash, *commit.Commit](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating commit cache: %w", err)
	}

	enc, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedDefault),
		zstd.WithEncoderConcurrency(1),
	)
	if err != nil {
		return nil, fmt.Errorf("creating encoder: %w", err)
	}

	dec, err := zstd.NewReader(nil,
		zstd.WithDecoderConcurrency(1),
	)
	if err != nil {
		return nil, fmt.Errorf("creating decoder: %w", err)
	}

	return &BadgerStore{
		db:    db,
		cache: cache,
		enc:   enc,
		dec:   dec,
	}, nil
}

func commitKey(hash hashing.Hash) []byte {
	return []byte(commitKeyPrefix + string(hash))
}

func headKey(branch string) []byte {
	return []byte(headKeyPrefix + branch)
}

func (s *BadgerStore) encode(data []byte) []byte {
	if len(data) < compressMinSize {
		return data
	}
	return s.enc.EncodeAll(data, nil)
}

func (s *BadgerStore) decode(data []byte) ([]byte, error) {
	if len(data) > 4 && bytes.Equal(data[:4], zstdMagic) {
		return s.dec.DecodeAll(data, nil)
	}
	return data, nil
}

func (s *BadgerStore) PutCommit(c *commit.Commit) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling commit: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(commitKey(c.Hash), s.encode(data))
	})
	if err != nil {
		return fmt.Errorf("storing commit %s: %w", c.Hash.Short(), err)
	}

	s.cache.Add(c.Hash, c)
	return nil
}

func (s *BadgerStore) GetCommit(hash hashing.Hash) (*commit.Commit, error) {
	if c, ok := s.cache.Get(hash); ok {
		return c, nil
	}

	var c commit.Commit
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(commitKey(hash))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			data, err := s.decode(val)
			if err != nil {
				return err
			}
			return json.Unmarshal(data, &c)
		})
	})
	if err == badger.ErrKeyNotFound {
		return nil, errors.NotFound(fmt.Sprintf("commit not found: %s", hash))
	}
	if err != nil {
		return nil, fmt.Errorf("reading commit %s: %w", hash.Short(), err)
	}

	s.cache.Add(hash, &c)
	return &c, nil
}

func (s *BadgerStore) ListCommits() ([]*commit.Commit, error) {
	var commits []*commit.Commit

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(commitKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				data, err := s.decode(val)
				if err != nil {
					return err
				}
				var c commit.Commit
				if err := json.Unmarshal(data, &c); err != nil {
					return err
				}
				commits = append(commits, &c)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing commits: %w", err)
	}

	return commits, nil
}

func (s *BadgerStore) Head(branch string) (hashing.Hash, error) {
	var head hashing.Hash
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(headKey(branch))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			head = hashing.Hash(val)
			return nil
		})
	})
	if err == badger.ErrKeyNotFound {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading head for branch %q: %w", branch, err)
	}
	return head, nil
}

func (s *BadgerStore) AdvanceHead(branch string, old, new hashing.Hash) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		var current hashing.Hash
		item, err := txn.Get(headKey(branch))
		if err == nil {
			err = item.Value(func(val []byte) error {
				current = hashing.Hash(val)
				return nil
			})
			if err != nil {
				return err
			}
		} else if err != badger.ErrKeyNotFound {
			return err
		}

		if current != old {
			return errors.Conflict(fmt.Sprintf(
				"head of branch %q moved: expected %s, found %s", branch, old.Short(), current.Short()))
		}
		return txn.Set(headKey(branch), []byte(new))
	})
	if err != nil {
		if errors.IsConflict(err) {
			return err
		}
		return fmt.Errorf("advancing head for branch %q: %w", branch, err)
	}
	return nil
}

func (s *BadgerStore) SaveMeta(m *Meta) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshaling repo meta: %w", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(metaKey), data)
	})
	if err != nil {
		return fmt.Errorf("storing repo meta: %w", err)
	}
	return nil
}

func (s *BadgerStore) LoadMeta() (*Meta, error) {
	var m Meta
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(metaKey))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &m)
		})
	})
	if err == badger.ErrKeyNotFound {
		return nil, errors.NotFound("repository metadata not found")
	}
	if err != nil {
		return nil, fmt.Errorf("reading repo meta: %w", err)
	}
	return &m, nil
}
