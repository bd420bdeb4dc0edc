package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"igcomments/pkg/auth"
	"igcomments/pkg/checkpoint"
	"igcomments/pkg/config"
	"igcomments/pkg/instagram"
	"igcomments/pkg/logger"
	"igcomments/pkg/ratelimit"
	"igcomments/pkg/retry"
	"igcomments/pkg/scraper"
	"igcomments/pkg/storage"
	"igcomments/pkg/ui"
)

var (
	// Collect command flags
	postRef       string
	sourceName    string
	maxPasses     int
	saveEveryPass bool
	responseFiles []string
	backendName   string
	storePath     string
	useLock       bool
	accountName   string
	resumeCollect bool
	forceRestart  bool
)

var collectCmd = &cobra.Command{
	Use:   "collect [post-url|shortcode]",
	Short: "Collect new comments of a post into the saved collection",
	Long: `Run collection passes against one post and merge every new commenter into the
saved collection. Usernames already present are never added again, and records
keep the order in which they were first seen.

The collection is saved when the run ends, including when a pass fails or the
run is interrupted with Ctrl+C.

Credentials for the graphql and html sources come from (in order):
  - --account, a stored account (see 'igcomments auth login')
  - session_id and csrf_token in the config file or IGCOMMENTS_* variables
  - the most recently stored account`,
	Example: `  # Collect from a post URL into comments.json
  igcomments collect https://www.instagram.com/p/C0dE123/

  # Ten passes, saving after each one, into SQLite
  igcomments collect C0dE123 --max-passes 10 --save-every-pass --backend sqlite --store comments.db

  # Continue paging from the last saved cursor
  igcomments collect C0dE123 --resume

  # Merge previously captured GraphQL responses
  igcomments collect --source file --response-files page1.json,page2.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCollect,
}

func init() {
	rootCmd.AddCommand(collectCmd)

	collectCmd.Flags().StringVarP(&postRef, "post", "p", "", "post URL or shortcode")
	collectCmd.Flags().StringVar(&sourceName, "source", "", "comment source (graphql, html, file)")
	collectCmd.Flags().IntVar(&maxPasses, "max-passes", 0, "maximum number of passes")
	collectCmd.Flags().BoolVar(&saveEveryPass, "save-every-pass", false, "save the collection after every pass")
	collectCmd.Flags().StringSliceVar(&responseFiles, "response-files", nil, "saved GraphQL responses for the file source")
	addStorageFlags(collectCmd)
	collectCmd.Flags().BoolVar(&useLock, "lock", false, "hold an exclusive lock on the store while collecting")
	collectCmd.Flags().StringVarP(&accountName, "account", "a", "", "use a specific stored account")
	collectCmd.Flags().BoolVar(&resumeCollect, "resume", false, "resume from the last checkpointed cursor")
	collectCmd.Flags().BoolVar(&forceRestart, "force-restart", false, "delete the checkpoint and start from the first page")
}

// addStorageFlags registers the flags selecting the collection store
func addStorageFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&backendName, "backend", "", "storage backend (json, sqlite, mongo)")
	cmd.Flags().StringVar(&storePath, "store", "", "path of the JSON file or SQLite database")
}

func collectFlags(args []string) map[string]interface{} {
	flags := map[string]interface{}{
		"post":            postRef,
		"source":          sourceName,
		"max-passes":      maxPasses,
		"save-every-pass": saveEveryPass,
		"response-files":  responseFiles,
		"backend":         backendName,
		"store":           storePath,
		"lock":            useLock,
	}
	if len(args) == 1 {
		flags["post"] = args[0]
	}
	return flags
}

func runCollect(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(collectFlags(args))
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	log := logger.GetLogger()

	shortcode, err := resolveShortcode(cfg)
	if err != nil {
		return err
	}
	if err := prepareCredentials(cfg, accountName, log); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if shortcode != "" {
		ui.PrintInfo("Post", shortcode)
	}
	ui.PrintInfo("Source", cfg.Collect.Source)
	ui.PrintInfo("Store", describeStore(cfg.Storage))

	result, err := runCollection(ctx, cfg, collectRun{
		Shortcode:    shortcode,
		Resume:       resumeCollect,
		ForceRestart: forceRestart,
		OnPass: func(p scraper.PassStats) {
			ui.PrintPass(p.Pass, cfg.Collect.MaxPasses, p.Fetched, p.Added, p.Total)
		},
	}, log)
	if result != nil {
		printResult(result)
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			ui.PrintWarning("Interrupted, collected records were saved")
			return nil
		}
		return err
	}
	return nil
}

// collectRun describes one collection run
type collectRun struct {
	Shortcode     string
	Resume        bool
	ForceRestart  bool
	CheckpointDir string
	OnPass        func(scraper.PassStats)
}

// runCollection wires storage, checkpoint, source and pacing from cfg and
// runs one session
func runCollection(ctx context.Context, cfg *config.Config, run collectRun, log logger.Logger) (*scraper.Result, error) {
	store, err := storage.Open(ctx, cfg.Storage, log)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.WithError(err).Warn("Failed to close store")
		}
	}()

	var (
		checkpoints *checkpoint.Manager
		cp          *checkpoint.Checkpoint
	)
	if run.Shortcode != "" {
		checkpoints, cp, err = prepareCheckpoint(run, log)
		if err != nil {
			return nil, err
		}
	}

	source, err := newSource(cfg, run.Shortcode, cp, log)
	if err != nil {
		return nil, err
	}

	opts := scraper.Options{
		Shortcode:     run.Shortcode,
		MaxPasses:     cfg.Collect.MaxPasses,
		SaveEveryPass: cfg.Collect.SaveEveryPass,
		Pacer:         ratelimit.NewPacer(cfg.RateLimit, cfg.Collect.PassDelayMin, cfg.Collect.PassDelayMax),
		Retry:         retry.FromSettings(cfg.Retry, log),
		Checkpoints:   checkpoints,
		Checkpoint:    cp,
		OnPass:        run.OnPass,
	}
	if cfg.Storage.Lock {
		opts.Lock = storage.NewLock(storage.LockTarget(cfg.Storage), cfg.Storage.LockTimeout)
	}

	return scraper.NewSession(source, store, opts, log).Run(ctx)
}

// prepareCheckpoint returns the checkpoint the run continues from. Without
// resume, or when the saved run already reached the last page, a fresh one is
// created.
func prepareCheckpoint(run collectRun, log logger.Logger) (*checkpoint.Manager, *checkpoint.Checkpoint, error) {
	var (
		mgr *checkpoint.Manager
		err error
	)
	if run.CheckpointDir != "" {
		mgr, err = checkpoint.NewManagerAt(run.CheckpointDir, run.Shortcode, log)
	} else {
		mgr, err = checkpoint.NewManager(run.Shortcode, log)
	}
	if err != nil {
		return nil, nil, err
	}

	if run.ForceRestart {
		if err := mgr.Delete(); err != nil {
			return nil, nil, err
		}
	}

	if run.Resume && !run.ForceRestart {
		cp, err := mgr.Load()
		if err != nil {
			log.WithError(err).Warn("Ignoring unreadable checkpoint")
		}
		if cp != nil && !cp.Done {
			log.InfoWithFields("Resuming from checkpoint", map[string]interface{}{
				"cursor": cp.EndCursor,
				"passes": cp.PassesCompleted,
			})
			return mgr, cp, nil
		}
	}

	cp, err := mgr.Create(run.Shortcode)
	if err != nil {
		return nil, nil, err
	}
	return mgr, cp, nil
}

// newSource builds the batch source named by cfg.Collect.Source
func newSource(cfg *config.Config, shortcode string, cp *checkpoint.Checkpoint, log logger.Logger) (scraper.BatchSource, error) {
	switch cfg.Collect.Source {
	case "graphql":
		if shortcode == "" {
			return nil, errors.New("the graphql source needs a post URL or shortcode")
		}
		var cursor string
		if cp != nil {
			cursor = cp.EndCursor
		}
		client := instagram.NewClientFromConfig(cfg.Instagram, log)
		return scraper.NewGraphQLSource(client, shortcode, cursor, cfg.Collect.PageSize, log), nil
	case "html":
		if shortcode == "" {
			return nil, errors.New("the html source needs a post URL or shortcode")
		}
		postURL := instagram.GetPostURL(shortcode)
		if cfg.Instagram.BaseURL != "" {
			postURL = strings.TrimRight(cfg.Instagram.BaseURL, "/") + "/p/" + shortcode + "/"
		}
		client := instagram.NewClientFromConfig(cfg.Instagram, log)
		return scraper.NewHTMLSource(postURL, client.Headers(), instagram.SelectorsFromConfig(cfg.Collect.HTML), cfg.Instagram.Timeout, log), nil
	case "file":
		if len(cfg.Collect.ResponseFiles) == 0 {
			return nil, errors.New("the file source needs --response-files")
		}
		return scraper.NewResponseFileSource(cfg.Collect.ResponseFiles, log), nil
	default:
		return nil, fmt.Errorf("unknown source %q", cfg.Collect.Source)
	}
}

// resolveShortcode returns the configured shortcode, or the one in the post
// URL. The file source may run without a post.
func resolveShortcode(cfg *config.Config) (string, error) {
	ref := cfg.Target.Shortcode
	if ref == "" {
		ref = cfg.Target.PostURL
	}
	if ref == "" {
		if cfg.Collect.Source == "file" {
			return "", nil
		}
		return "", errors.New("no post given; pass a post URL or shortcode")
	}
	return instagram.ParseShortcode(ref)
}

// prepareCredentials fills the Instagram session from the credential stores
// when the source needs one
func prepareCredentials(cfg *config.Config, account string, log logger.Logger) error {
	if cfg.Collect.Source == "file" {
		return nil
	}

	if account == "" && cfg.ValidateCredentials() == nil {
		log.Debug("Using credentials from configuration")
		return nil
	}

	mgr, err := auth.NewManager(log)
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	stored, err := mgr.RetrieveDefault(account)
	switch {
	case err == nil:
		if account != "" {
			cfg.Instagram.SessionID = ""
			cfg.Instagram.CSRFToken = ""
		}
		stored.ApplyTo(&cfg.Instagram)
		log.WithField("account", stored.Username).Info("Using stored credentials")
	case account != "":
		return fmt.Errorf("account %s: %w (see 'igcomments auth list')", account, err)
	}

	if cfg.Collect.Source == "graphql" {
		if err := cfg.ValidateCredentials(); err != nil {
			return fmt.Errorf("%w\nrun 'igcomments auth login' to store a session", err)
		}
	}
	return nil
}

func describeStore(cfg config.StorageConfig) string {
	switch cfg.Backend {
	case "mongo":
		return fmt.Sprintf("mongo %s.%s", cfg.Database, cfg.Collection)
	case "sqlite":
		return "sqlite " + cfg.Path
	default:
		return cfg.Path
	}
}

func printResult(r *scraper.Result) {
	ui.PrintSuccess(fmt.Sprintf("%d new, %d total after %d pass(es)", r.Added, r.Total, r.Passes))
	if r.Done {
		ui.PrintInfo("Status", "reached the last page")
	}
}
