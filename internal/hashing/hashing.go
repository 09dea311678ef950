// Package hashing provides the content digests everything above it is built
// on: per-file content hashes and commit identity hashes.
package hashing

import (
	"crypto/sha1"
	"encoding/hex"
	"sort"
	"strconv"
)

// Hash is a 40-character hexadecimal SHA-1 digest. Identical bytes always
// produce the identical hash; there is no salt and no time dependence.
type Hash string

const hexLen = sha1.Size * 2

func (h Hash) String() string { return string(h) }

// Short returns the abbreviated form used in log and graph output.
func (h Hash) Short() string {
	if len(h) < 8 {
		return string(h)
	}
	return string(h[:8])
}

// Valid reports whether h is a well-formed lowercase hex digest.
func (h Hash) Valid() bool {
	if len(h) != hexLen {
		return false
	}
	for _, c := range h {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// HashContent digests raw bytes. Empty input is valid and hashes like any
// other byte sequence.
func HashContent(content []byte) Hash {
	sum := sha1.Sum(content)
	return Hash(hex.EncodeToString(sum[:]))
}

// FileDigest is one (fileName, contentHash) pair of a snapshot, the unit the
// commit digest is computed over.
type FileDigest struct {
	Name string
	Hash Hash
}

// CommitDigest computes a commit's identity hash over the canonical
// concatenation of message, author, the ordered parent hashes, and the
// file digests sorted by name. Sorting makes the digest independent of map
// iteration order: two snapshots with identical content always produce the
// identical commit hash. The timestamp is deliberately excluded so that
// holding message, author, parents, and content fixed reproduces the hash.
func CommitDigest(message, author string, parents []Hash, files []FileDigest) Hash {
	sorted := make([]FileDigest, len(files))
	copy(sorted, files)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	h := sha1.New()
	writeField := func(s string) {
		// Length-prefixed fields keep the concatenation unambiguous.
		h.Write([]byte(strconv.Itoa(len(s))))
		h.Write([]byte{':'})
		h.Write([]byte(s))
	}

	writeField(message)
	writeField(author)
	for _, p := range parents {
		writeField(string(p))
	}
	for _, f := range sorted {
		writeField(f.Name)
		writeField(string(f.Hash))
	}

	return Hash(hex.EncodeToString(h.Sum(nil)))
}
