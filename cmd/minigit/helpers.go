package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"go.uber.org/zap"

	"minigit/internal/commit"
	"minigit/internal/errors"
	"minigit/internal/hashing"
)

// resolve turns a full or abbreviated commit hash into the unique hash it
// names.
func (s *session) resolve(arg string) (hashing.Hash, error) {
	if h := hashing.Hash(arg); h.Valid() {
		return h, nil
	}
	if len(arg) < 4 {
		return "", errors.Validation(fmt.Sprintf("ambiguous commit reference %q: use at least 4 characters", arg), nil)
	}

	var matches []hashing.Hash
	for _, node := range s.repo.GraphView().Nodes {
		if strings.HasPrefix(string(node.Hash), arg) {
			matches = append(matches, node.Hash)
		}
	}
	switch len(matches) {
	case 0:
		return "", errors.NotFound(fmt.Sprintf("no commit matches %q", arg))
	case 1:
		return matches[0], nil
	default:
		return "", errors.Validation(fmt.Sprintf("commit reference %q is ambiguous (%d matches)", arg, len(matches)), nil)
	}
}

func printColoredDiff(diff string) {
	added := color.New(color.FgGreen)
	removed := color.New(color.FgRed)
	header := color.New(color.FgCyan)

	for _, line := range strings.Split(diff, "\n") {
		if len(line) == 0 {
			fmt.Println()
			continue
		}
		switch {
		case strings.HasPrefix(line, "@@"):
			header.Println(line)
		case strings.HasPrefix(line, "+"):
			added.Println(line)
		case strings.HasPrefix(line, "-"):
			removed.Println(line)
		default:
			fmt.Println(line)
		}
	}
}

// treeChanged reports whether the working tree differs from the current
// branch head's snapshot.
func (s *session) treeChanged(files map[string][]byte) bool {
	head, err := s.repo.Head()
	if err != nil || head == "" {
		return true
	}
	headCommit, err := s.repo.GetCommit(head)
	if err != nil {
		return true
	}

	snapshot := commit.NewSnapshot(files)
	if len(snapshot) != len(headCommit.Snapshot) {
		return true
	}
	for name, entry := range snapshot {
		if headCommit.Snapshot[name].ContentHash != entry.ContentHash {
			return true
		}
	}
	return false
}

// runWatch auto-commits the working tree whenever changes settle. A head
// that moved underneath (another commit racing in) is retried once against
// the new head.
func runWatch(s *session, debounce time.Duration, author string) error {
	log := s.log.Named("watch")

	commitOnce := func() {
		files, err := s.ws.Snapshot()
		if err != nil {
			log.Error("reading working directory", zap.Error(err))
			return
		}
		if len(files) == 0 || !s.treeChanged(files) {
			return
		}

		message := fmt.Sprintf("autosave %s", time.Now().Format(time.RFC3339))
		c, err := s.repo.Commit(files, message, author)
		if errors.IsConflict(err) {
			c, err = s.repo.Commit(files, message, author)
		}
		if err != nil {
			log.Error("auto-commit failed", zap.Error(err))
			return
		}

		fmt.Printf("autosaved %s (+%d -%d ~%d)\n",
			c.Hash.Short(), c.Changes.Additions, c.Changes.Deletions, c.Changes.Modifications)
	}

	watcher, err := s.ws.Watch(debounce, commitOnce, log)
	if err != nil {
		return err
	}
	defer watcher.Close()

	fmt.Printf("Watching %s (debounce %s, Ctrl-C to stop)\n", s.ws.Root(), debounce)
	select {}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
