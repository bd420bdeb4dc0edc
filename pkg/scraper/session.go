package scraper

import (
	"context"
	"errors"
	"fmt"

	"igcomments/pkg/checkpoint"
	"igcomments/pkg/comments"
	"igcomments/pkg/logger"
	"igcomments/pkg/retry"
	"igcomments/pkg/storage"
)

// Options controls a collection session
type Options struct {
	// Shortcode identifies the post in logs and checkpoints
	Shortcode string
	// MaxPasses bounds the number of batches pulled; 0 means one pass
	MaxPasses int
	// SaveEveryPass persists the collection after each merge
	SaveEveryPass bool

	Pacer       Pacer
	Retry       *retry.Config
	Lock        *storage.Lock
	Checkpoints *checkpoint.Manager
	Checkpoint  *checkpoint.Checkpoint

	// OnPass is called after every merged pass
	OnPass func(PassStats)
}

// PassStats describes one completed pass
type PassStats struct {
	Pass    int
	Fetched int
	Added   int
	Total   int
	Done    bool
}

// Result summarizes a finished session
type Result struct {
	Passes  int
	Added   int
	Total   int
	Initial int
	Done    bool
}

// Session runs repeated passes of one source against one store
type Session struct {
	source BatchSource
	store  comments.Store
	opts   Options
	logger logger.Logger

	collection *comments.Collection

	// last merged batch not yet written to the checkpoint
	pending       Batch
	pendingPasses int
}

// NewSession creates a session
func NewSession(source BatchSource, store comments.Store, opts Options, log logger.Logger) *Session {
	if log == nil {
		log = logger.GetLogger()
	}
	if opts.MaxPasses <= 0 {
		opts.MaxPasses = 1
	}
	if opts.Retry == nil {
		opts.Retry = retry.DefaultConfig()
		opts.Retry.Logger = log
	}
	return &Session{
		source: source,
		store:  store,
		opts:   opts,
		logger: log.WithField("shortcode", opts.Shortcode),
	}
}

// Collection returns the collection of the last run, or nil before Run
func (s *Session) Collection() *comments.Collection {
	return s.collection
}

// Run loads the stored collection, merges batches until the source is done or
// MaxPasses is reached, and saves the result. When a pass fails or ctx is
// cancelled the records gathered so far are saved before the error is
// returned.
func (s *Session) Run(ctx context.Context) (*Result, error) {
	if s.opts.Lock != nil {
		if err := s.opts.Lock.Acquire(ctx); err != nil {
			return nil, err
		}
		defer func() {
			if err := s.opts.Lock.Release(); err != nil {
				s.logger.WithError(err).Warn("Failed to release storage lock")
			}
		}()
	}

	logger.LogComponentStart(s.logger, "session", map[string]interface{}{
		"max_passes":      s.opts.MaxPasses,
		"save_every_pass": s.opts.SaveEveryPass,
	})

	c := comments.Load(ctx, s.store, s.logger)
	s.collection = c
	s.pendingPasses = 0
	result := &Result{Initial: c.Len()}

	runErr := s.runPasses(ctx, c, result)
	result.Total = c.Len()

	saveFailed := errors.Is(runErr, errSaveFailed)
	if !saveFailed {
		// The final save must happen even when ctx was cancelled
		if err := comments.Save(context.WithoutCancel(ctx), s.store, c); err != nil {
			runErr = errors.Join(runErr, fmt.Errorf("save collection: %w", err))
			saveFailed = true
		} else {
			s.recordCheckpoint(c.Len())
		}
	}

	if runErr != nil {
		s.logger.WithError(runErr).WarnWithFields("Session stopped early", map[string]interface{}{
			"passes": result.Passes,
			"total":  result.Total,
			"saved":  !saveFailed,
		})
		logger.LogComponentStop(s.logger, "session", "error")
		return result, runErr
	}

	s.logger.InfoWithFields("Session finished", map[string]interface{}{
		"passes": result.Passes,
		"added":  result.Added,
		"total":  result.Total,
		"done":   result.Done,
	})
	logger.LogComponentStop(s.logger, "session", "completed")
	return result, nil
}

var errSaveFailed = errors.New("save failed")

func (s *Session) runPasses(ctx context.Context, c *comments.Collection, result *Result) error {
	for pass := 1; pass <= s.opts.MaxPasses; pass++ {
		if s.opts.Pacer != nil {
			delay, err := s.opts.Pacer.Wait(ctx, pass)
			if err != nil {
				return err
			}
			if delay > 0 {
				s.logger.DebugWithFields("Waited before pass", map[string]interface{}{
					"pass":     pass,
					"delay_ms": delay.Milliseconds(),
				})
			}
		}

		batch, err := retry.DoWithResult(ctx, s.source.NextBatch, s.opts.Retry)
		if err != nil {
			return fmt.Errorf("pass %d: %w", pass, err)
		}

		added := c.Merge(batch.Records)
		result.Passes = pass
		result.Added += added
		result.Done = batch.Done

		logger.LogPass(s.logger, s.opts.Shortcode, pass, len(batch.Records), added, c.Len())
		if s.opts.OnPass != nil {
			s.opts.OnPass(PassStats{
				Pass:    pass,
				Fetched: len(batch.Records),
				Added:   added,
				Total:   c.Len(),
				Done:    batch.Done,
			})
		}

		s.pending = batch
		s.pendingPasses++

		if s.opts.SaveEveryPass {
			if err := comments.Save(ctx, s.store, c); err != nil {
				return fmt.Errorf("%w after pass %d: %w", errSaveFailed, pass, err)
			}
			s.recordCheckpoint(c.Len())
		}

		if batch.Done {
			return nil
		}
	}
	return nil
}

// recordCheckpoint advances the checkpoint to the last merged batch. It must
// only run once the collection holding that batch has been saved.
func (s *Session) recordCheckpoint(total int) {
	if s.opts.Checkpoints == nil || s.opts.Checkpoint == nil || s.pendingPasses == 0 {
		return
	}
	cp := s.opts.Checkpoint
	if err := s.opts.Checkpoints.AdvanceProgress(cp, s.pending.Cursor, total, s.pending.Done, s.pendingPasses); err != nil {
		s.logger.WithError(err).Warn("Failed to update checkpoint")
		return
	}
	s.pendingPasses = 0
}
