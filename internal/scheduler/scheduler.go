// Package scheduler runs collection sessions on a cron schedule. A tick that
// fires while the previous run is still going is skipped.
package scheduler

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"igcomments/pkg/logger"
)

// Job is one scheduled unit of work
type Job func(ctx context.Context) error

// Scheduler triggers a Job on a cron schedule
type Scheduler struct {
	expr     string
	schedule cron.Schedule
	location *time.Location
	cron     *cron.Cron
	job      Job
	logger   logger.Logger

	running atomic.Bool
	runs    atomic.Int64
	skipped atomic.Int64
}

// New parses expr (five fields or a descriptor such as @hourly or @every 30m)
// and creates a scheduler evaluating it in loc
func New(expr string, loc *time.Location, job Job, log logger.Logger) (*Scheduler, error) {
	if job == nil {
		return nil, fmt.Errorf("scheduler job is required")
	}
	if log == nil {
		log = logger.GetLogger()
	}
	if loc == nil {
		loc = time.Local
	}

	schedule, err := cron.ParseStandard(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", expr, err)
	}

	log = log.WithField("component", "scheduler")
	cl := cronLogger{log: log}
	return &Scheduler{
		expr:     expr,
		schedule: schedule,
		location: loc,
		cron:     cron.New(cron.WithLocation(loc), cron.WithLogger(cl), cron.WithChain(cron.Recover(cl))),
		job:      job,
		logger:   log,
	}, nil
}

// Next returns the first activation after t
func (s *Scheduler) Next(t time.Time) time.Time {
	return s.schedule.Next(t.In(s.location))
}

// Runs returns the number of started runs
func (s *Scheduler) Runs() int64 { return s.runs.Load() }

// Skipped returns the number of ticks dropped because a run was in progress
func (s *Scheduler) Skipped() int64 { return s.skipped.Load() }

// Run blocks until ctx is done, triggering the job on every tick. With
// immediately set the job also runs once before the first tick. In-flight
// runs are waited for before Run returns.
func (s *Scheduler) Run(ctx context.Context, immediately bool) error {
	logger.LogComponentStart(s.logger, "scheduler", map[string]interface{}{
		"schedule": s.expr,
		"location": s.location.String(),
	})

	if immediately {
		s.Trigger(ctx)
	}

	s.cron.Schedule(s.schedule, cron.FuncJob(func() { s.Trigger(ctx) }))
	s.cron.Start()
	if ctx.Err() == nil {
		s.logger.InfoWithFields("Next collection scheduled", map[string]interface{}{
			"at": s.Next(time.Now()).Format(time.RFC3339),
		})
	}

	<-ctx.Done()
	<-s.cron.Stop().Done()

	logger.LogComponentStop(s.logger, "scheduler", "context done")
	return nil
}

// Trigger runs the job now unless a run is already in progress. It reports
// whether the job ran.
func (s *Scheduler) Trigger(ctx context.Context) bool {
	if !s.running.CompareAndSwap(false, true) {
		s.skipped.Add(1)
		s.logger.Warn("Previous collection still running, skipping tick")
		return false
	}
	defer s.running.Store(false)

	run := s.runs.Add(1)
	start := time.Now()
	err := s.job(ctx)
	fields := map[string]interface{}{
		"run":      run,
		"duration": time.Since(start).String(),
	}
	if err != nil {
		s.logger.WithError(err).ErrorWithFields("Scheduled collection failed", fields)
	} else {
		s.logger.InfoWithFields("Scheduled collection finished", fields)
	}
	return true
}

// cronLogger routes cron's own messages into the application logger
type cronLogger struct {
	log logger.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.log.DebugWithFields("cron: "+msg, kvFields(keysAndValues))
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.log.WithError(err).ErrorWithFields("cron: "+msg, kvFields(keysAndValues))
}

func kvFields(kv []interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		fields[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return fields
}
