// Package repository orchestrates the engine: the commit path (snapshot,
// diff against the parent, digest, append) and the read paths (checkout,
// history, per-file diffs, graph projection).
package repository

import (
	"bytes"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"minigit/internal/commit"
	"minigit/internal/diff"
	"minigit/internal/errors"
	"minigit/internal/graph"
	"minigit/internal/hashing"
	"minigit/internal/storage"
)

const DefaultBranch = "main"

// DefaultAuthor is recorded when the caller supplies none.
const DefaultAuthor = "Anonymous"

// Options configures a repository.
type Options struct {
	Name          string
	DefaultBranch string
	ContextLines  int
	// MaxFileLines bounds the quadratic diff cost; commits touching a file
	// beyond the ceiling are rejected. Zero disables the bound.
	MaxFileLines int
	Logger       *zap.Logger
}

func (o *Options) withDefaults() {
	if o.DefaultBranch == "" {
		o.DefaultBranch = DefaultBranch
	}
	if o.ContextLines == 0 {
		o.ContextLines = 3
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
}

// Repository is one versioned history: a commit DAG plus a branch head,
// backed by an injected store. Diff and checkout are pure reads over
// immutable commits and safe to run concurrently with in-flight commit
// operations; the append step itself is serialized.
type Repository struct {
	meta   *storage.Meta
	store  storage.Store
	graph  *graph.Graph
	differ *diff.Engine
	logger *zap.Logger
	branch string

	// mu serializes the compare-and-advance append step.
	mu sync.Mutex
}

// Init creates repository metadata in an empty store.
func Init(store storage.Store, opts Options) (*Repository, error) {
	opts.withDefaults()

	if _, err := store.LoadMeta(); err == nil {
		return nil, errors.Validation("repository already initialized", nil)
	} else if !errors.IsNotFound(err) {
		return nil, err
	}

	now := time.Now().UTC()
	meta := &storage.Meta{
		ID:            uuid.New().String(),
		Name:          opts.Name,
		DefaultBranch: opts.DefaultBranch,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := store.SaveMeta(meta); err != nil {
		return nil, fmt.Errorf("saving repository metadata: %w", err)
	}

	opts.Logger.Info("initialized repository",
		zap.String("id", meta.ID),
		zap.String("name", meta.Name),
		zap.String("branch", meta.DefaultBranch))

	return newRepository(meta, store, graph.New(), opts), nil
}

// Open loads an existing repository, rebuilding the commit graph from the
// store.
func Open(store storage.Store, opts Options) (*Repository, error) {
	opts.withDefaults()

	meta, err := store.LoadMeta()
	if err != nil {
		return nil, err
	}

	commits, err := store.ListCommits()
	if err != nil {
		return nil, err
	}
	g, err := graph.Load(commits)
	if err != nil {
		return nil, fmt.Errorf("rebuilding commit graph: %w", err)
	}

	opts.Logger.Debug("opened repository",
		zap.String("id", meta.ID),
		zap.Int("commits", g.Len()))

	return newRepository(meta, store, g, opts), nil
}

func newRepository(meta *storage.Meta, store storage.Store, g *graph.Graph, opts Options) *Repository {
	return &Repository{
		meta:   meta,
		store:  store,
		graph:  g,
		differ: diff.NewEngine(opts.ContextLines, opts.MaxFileLines),
		logger: opts.Logger,
		branch: meta.DefaultBranch,
	}
}

// Meta returns a copy of the repository metadata.
func (r *Repository) Meta() storage.Meta { return *r.meta }

// Branch returns the branch the repository commits to.
func (r *Repository) Branch() string { return r.branch }

// Head returns the current branch head, zero when the branch has no
// commits.
func (r *Repository) Head() (hashing.Hash, error) {
	return r.store.Head(r.branch)
}

// Commit snapshots the supplied file-content map against the current branch
// head. Equivalent to CommitAt with the head as parent.
func (r *Repository) Commit(files map[string][]byte, message, author string) (*commit.Commit, error) {
	head, err := r.store.Head(r.branch)
	if err != nil {
		return nil, err
	}
	return r.CommitAt(files, message, author, head)
}

// CommitAt builds a commit with the given parent and appends it. The parent
// is captured up front and re-checked against the branch head at apply time;
// if the head moved in between nothing is mutated and a conflict is
// reported, leaving the retry decision to the caller.
func (r *Repository) CommitAt(files map[string][]byte, message, author string, parent hashing.Hash) (*commit.Commit, error) {
	if message == "" {
		return nil, errors.Validation("commit message must not be empty", nil)
	}
	if len(files) == 0 {
		return nil, errors.Validation("nothing to commit: file set is empty", nil)
	}
	if author == "" {
		author = DefaultAuthor
	}

	parentSnapshot := commit.Snapshot{}
	var parents []hashing.Hash
	if parent != "" {
		parentCommit, err := r.graph.Get(parent)
		if err != nil {
			return nil, err
		}
		parentSnapshot = parentCommit.Snapshot
		parents = []hashing.Hash{parent}
	}

	snapshot := commit.NewSnapshot(files)

	changes, err := r.diffSnapshots(parentSnapshot, snapshot)
	if err != nil {
		return nil, err
	}

	c := &commit.Commit{
		Hash:      hashing.CommitDigest(message, author, parents, snapshot.FileDigests()),
		Message:   message,
		Author:    author,
		Timestamp: time.Now().UTC(),
		Parents:   parents,
		Snapshot:  snapshot,
		Changes:   changes,
	}

	if err := r.append(c, parent); err != nil {
		return nil, err
	}

	r.logger.Info("created commit",
		zap.String("hash", c.Hash.Short()),
		zap.String("branch", r.branch),
		zap.Int("files", len(snapshot)),
		zap.Int("additions", changes.Additions),
		zap.Int("deletions", changes.Deletions),
		zap.Int("modifications", changes.Modifications))

	return c, nil
}

// append applies the graph mutation and head advance, or fails without
// observable effect.
func (r *Repository) append(c *commit.Commit, parent hashing.Hash) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	head, err := r.store.Head(r.branch)
	if err != nil {
		return err
	}
	if head != parent {
		return errors.Conflict(fmt.Sprintf(
			"head of branch %q moved: expected %s, found %s", r.branch, parent.Short(), head.Short()))
	}

	if err := r.store.PutCommit(c); err != nil {
		return err
	}
	if err := r.graph.Add(c); err != nil {
		return err
	}
	if err := r.store.AdvanceHead(r.branch, parent, c.Hash); err != nil {
		return err
	}

	r.meta.UpdatedAt = time.Now().UTC()
	if err := r.store.SaveMeta(r.meta); err != nil {
		r.logger.Warn("updating repository metadata", zap.Error(err))
	}
	return nil
}

// diffSnapshots sums per-file diffs over the union of both snapshots into
// one changes summary. A file missing on one side diffs against an empty
// line sequence: a brand-new file contributes all its lines as additions, a
// deleted file all its lines as deletions.
func (r *Repository) diffSnapshots(old, new commit.Snapshot) (commit.ChangesSummary, error) {
	var total commit.ChangesSummary

	for _, name := range unionNames(old, new) {
		oldEntry, inOld := old[name]
		newEntry, inNew := new[name]
		if inOld && inNew && oldEntry.ContentHash == newEntry.ContentHash {
			continue
		}
		result, err := r.differ.Diff(oldEntry.Content, newEntry.Content)
		if err != nil {
			return commit.ChangesSummary{}, err
		}
		total.Add(result.Stats)
	}

	return total, nil
}

// Checkout returns the file contents recorded by a commit, verbatim. Every
// entry is re-hashed against the digest stored at commit time as a defense
// against storage corruption upstream.
func (r *Repository) Checkout(hash hashing.Hash) (map[string][]byte, error) {
	c, err := r.store.GetCommit(hash)
	if err != nil {
		return nil, err
	}

	for name, entry := range c.Snapshot {
		if got := hashing.HashContent(entry.Content); got != entry.ContentHash {
			return nil, errors.HashMismatch(
				fmt.Sprintf("content of %q does not match its recorded hash", name),
				map[string]string{
					"file":     name,
					"expected": string(entry.ContentHash),
					"actual":   string(got),
				})
		}
	}

	return c.Snapshot.Contents(), nil
}

// GetCommit returns one commit by hash.
func (r *Repository) GetCommit(hash hashing.Hash) (*commit.Commit, error) {
	return r.graph.Get(hash)
}

// History walks parent links from head back to the root, newest first.
func (r *Repository) History(head hashing.Hash) ([]*commit.Commit, error) {
	return r.graph.History(head)
}

// Log returns the history of the current branch head, empty when the branch
// has no commits.
func (r *Repository) Log() ([]*commit.Commit, error) {
	head, err := r.store.Head(r.branch)
	if err != nil {
		return nil, err
	}
	if head == "" {
		return nil, nil
	}
	return r.graph.History(head)
}

// GraphView projects the commit DAG for visualization collaborators.
func (r *Repository) GraphView() *graph.View {
	return r.graph.View()
}

// FileDiff is one file's line diff between two commits.
type FileDiff struct {
	Name   string
	Result *diff.Result
}

// DiffCommits diffs two commits file by file over the union of their
// snapshots, returning the per-file diffs of every changed file and the
// aggregate summary.
func (r *Repository) DiffCommits(oldHash, newHash hashing.Hash) ([]FileDiff, commit.ChangesSummary, error) {
	oldCommit, err := r.graph.Get(oldHash)
	if err != nil {
		return nil, commit.ChangesSummary{}, err
	}
	newCommit, err := r.graph.Get(newHash)
	if err != nil {
		return nil, commit.ChangesSummary{}, err
	}

	var diffs []FileDiff
	var total commit.ChangesSummary
	for _, name := range unionNames(oldCommit.Snapshot, newCommit.Snapshot) {
		oldEntry := oldCommit.Snapshot[name]
		newEntry := newCommit.Snapshot[name]
		if bytes.Equal(oldEntry.Content, newEntry.Content) {
			continue
		}
		result, err := r.differ.Diff(oldEntry.Content, newEntry.Content)
		if err != nil {
			return nil, commit.ChangesSummary{}, err
		}
		diffs = append(diffs, FileDiff{Name: name, Result: result})
		total.Add(result.Stats)
	}

	return diffs, total, nil
}

func unionNames(old, new commit.Snapshot) []string {
	union := make(map[string]struct{}, len(old)+len(new))
	for name := range old {
		union[name] = struct{}{}
	}
	for name := range new {
		union[name] = struct{}{}
	}
	names := make([]string, 0, len(union))
	for name := range union {
		names = append(names, name)
	}
	// Deterministic order for per-file diff output and summary accumulation.
	sort.Strings(names)
	return names
}
