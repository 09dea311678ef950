package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"minigit/internal/config"
	"minigit/internal/errors"
	"minigit/internal/logging"
	"minigit/internal/repository"
	"minigit/internal/storage"
	"minigit/internal/workspace"
)

var rootCmd = &cobra.Command{
	Use:   "minigit",
	Short: "minigit is a miniature content-addressed version control engine",
	Long: `minigit turns a working directory into an immutable, content-addressed
history: every commit captures a full snapshot, records line-level change
counts against its parent, and joins an append-only commit DAG that can be
diffed, walked, and checked out at any point.`,
}

// session bundles everything a command needs against one repository.
type session struct {
	repo *repository.Repository
	ws   *workspace.Workspace
	db   *badger.DB
	log  *logging.Logger
}

func (s *session) Close() {
	s.log.Sync()
	s.db.Close()
}

func openDB(root string) (*badger.DB, error) {
	dbPath := filepath.Join(root, workspace.RepoDir, "db")
	if _, err := os.Stat(dbPath); err != nil {
		return nil, fmt.Errorf("not a minigit repository (run \"minigit init\"): %w", err)
	}

	opts := badger.DefaultOptions(dbPath).WithLoggingLevel(badger.WARNING)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return db, nil
}

func openSession() (*session, error) {
	root, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting current directory: %w", err)
	}

	cfg, err := config.Load(filepath.Join(root, workspace.RepoDir, "config.json"))
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	log, err := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}

	db, err := openDB(root)
	if err != nil {
		return nil, err
	}

	store, err := storage.NewBadgerStore(db, cfg.Cache.Size)
	if err != nil {
		db.Close()
		return nil, err
	}

	repo, err := repository.Open(store, repository.Options{
		ContextLines: cfg.Diff.ContextLines,
		MaxFileLines: cfg.Diff.MaxFileLines,
		Logger:       log.Named("repository"),
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("opening repository: %w", err)
	}

	return &session{
		repo: repo,
		ws:   workspace.New(root),
		db:   db,
		log:  log,
	}, nil
}

func init() {
	var initName string
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new minigit repository",
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("getting current directory: %w", err)
			}

			dbPath := filepath.Join(root, workspace.RepoDir, "db")
			if err := os.MkdirAll(dbPath, 0755); err != nil {
				return fmt.Errorf("creating repository directory: %w", err)
			}

			db, err := badger.Open(badger.DefaultOptions(dbPath).WithLoggingLevel(badger.WARNING))
			if err != nil {
				return fmt.Errorf("opening database: %w", err)
			}
			defer db.Close()

			store, err := storage.NewBadgerStore(db, 0)
			if err != nil {
				return err
			}

			name := initName
			if name == "" {
				name = filepath.Base(root)
			}
			repo, err := repository.Init(store, repository.Options{Name: name})
			if err != nil {
				return fmt.Errorf("initializing repository: %w", err)
			}

			meta := repo.Meta()
			fmt.Printf("Initialized empty minigit repository %q in %s\n", meta.Name, root)
			return nil
		},
	}
	initCmd.Flags().StringVar(&initName, "name", "", "repository name (defaults to the directory name)")

	var commitMessage, commitAuthor string
	commitCmd := &cobra.Command{
		Use:   "commit",
		Short: "Record a snapshot of the working directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			defer s.Close()

			files, err := s.ws.Snapshot()
			if err != nil {
				return fmt.Errorf("reading working directory: %w", err)
			}

			c, err := s.repo.Commit(files, commitMessage, commitAuthor)
			if err != nil {
				if errors.IsConflict(err) {
					return fmt.Errorf("%w (the branch head moved; re-run commit to retry against the new head)", err)
				}
				return err
			}

			green := color.New(color.FgGreen).SprintFunc()
			fmt.Printf("[%s %s] %s\n", s.repo.Branch(), green(c.Hash.Short()), c.Message)
			fmt.Printf(" %d file(s), +%d -%d ~%d\n",
				len(c.Snapshot), c.Changes.Additions, c.Changes.Deletions, c.Changes.Modifications)
			return nil
		},
	}
	commitCmd.Flags().StringVarP(&commitMessage, "message", "m", "", "commit message (required)")
	commitCmd.Flags().StringVarP(&commitAuthor, "author", "a", "", "commit author")
	commitCmd.MarkFlagRequired("message")

	logCmd := &cobra.Command{
		Use:   "log",
		Short: "Show commit history, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			defer s.Close()

			history, err := s.repo.Log()
			if err != nil {
				return err
			}
			if len(history) == 0 {
				fmt.Println("No commits yet")
				return nil
			}

			yellow := color.New(color.FgYellow).SprintFunc()
			for _, c := range history {
				fmt.Printf("%s %s\n", yellow(c.Hash.Short()), c.Message)
				fmt.Printf("  author: %s  date: %s  +%d -%d ~%d\n",
					c.Author, c.Timestamp.Local().Format(time.RFC1123),
					c.Changes.Additions, c.Changes.Deletions, c.Changes.Modifications)
			}
			return nil
		},
	}

	showCmd := &cobra.Command{
		Use:   "show <hash>",
		Short: "Show one commit in full",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			defer s.Close()

			hash, err := s.resolve(args[0])
			if err != nil {
				return err
			}
			c, err := s.repo.GetCommit(hash)
			if err != nil {
				return err
			}

			yellow := color.New(color.FgYellow).SprintFunc()
			fmt.Printf("commit %s\n", yellow(c.Hash))
			fmt.Printf("Author: %s\n", c.Author)
			fmt.Printf("Date:   %s\n", c.Timestamp.Local().Format(time.RFC1123))
			for _, p := range c.Parents {
				fmt.Printf("Parent: %s\n", p)
			}
			fmt.Printf("\n    %s\n\n", c.Message)
			for _, name := range c.Snapshot.Names() {
				entry := c.Snapshot[name]
				fmt.Printf("  %s  %s (%d bytes)\n", entry.ContentHash.Short(), name, entry.Size)
			}
			return nil
		},
	}

	diffCmd := &cobra.Command{
		Use:   "diff <old> <new>",
		Short: "Show line-level changes between two commits",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			defer s.Close()

			oldHash, err := s.resolve(args[0])
			if err != nil {
				return err
			}
			newHash, err := s.resolve(args[1])
			if err != nil {
				return err
			}
			diffs, total, err := s.repo.DiffCommits(oldHash, newHash)
			if err != nil {
				return err
			}
			if len(diffs) == 0 {
				fmt.Println("No changes")
				return nil
			}

			header := color.New(color.FgCyan)
			for _, fd := range diffs {
				header.Printf("--- %s\n", fd.Name)
				printColoredDiff(fd.Result.Format())
			}
			fmt.Printf("%d file(s) changed, +%d -%d ~%d\n",
				len(diffs), total.Additions, total.Deletions, total.Modifications)
			return nil
		},
	}

	var checkoutOut string
	checkoutCmd := &cobra.Command{
		Use:   "checkout <hash>",
		Short: "Materialize a commit's snapshot into a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			defer s.Close()

			hash, err := s.resolve(args[0])
			if err != nil {
				return err
			}
			files, err := s.repo.Checkout(hash)
			if err != nil {
				return err
			}

			dir := checkoutOut
			if dir == "" {
				dir = s.ws.Root()
			}
			if err := s.ws.Restore(files, dir); err != nil {
				return fmt.Errorf("restoring files: %w", err)
			}

			fmt.Printf("Checked out %d file(s) from %s into %s\n", len(files), args[0], dir)
			return nil
		},
	}
	checkoutCmd.Flags().StringVar(&checkoutOut, "out", "", "target directory (defaults to the working directory)")

	graphCmd := &cobra.Command{
		Use:   "graph",
		Short: "Print the commit DAG as nodes and edges",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			defer s.Close()

			view := s.repo.GraphView()
			yellow := color.New(color.FgYellow).SprintFunc()
			fmt.Printf("%d commit(s)\n", view.TotalCommits)
			for _, node := range view.Nodes {
				fmt.Printf("* %s %s (%s, %d files)\n",
					yellow(node.Hash.Short()), node.Message, node.Author, node.FileCount)
			}
			for _, edge := range view.Edges {
				fmt.Printf("  %s -> %s\n", edge.From.Short(), edge.To.Short())
			}
			return nil
		},
	}

	var watchDebounce time.Duration
	var watchAuthor string
	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the working directory and commit automatically on change",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			defer s.Close()

			return runWatch(s, watchDebounce, watchAuthor)
		},
	}
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 2*time.Second, "how long changes must settle before an auto-commit")
	watchCmd.Flags().StringVarP(&watchAuthor, "author", "a", "autosave", "author recorded on auto-commits")

	rootCmd.AddCommand(initCmd, commitCmd, logCmd, showCmd, diffCmd, checkoutCmd, graphCmd, watchCmd)
}
