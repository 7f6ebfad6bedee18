// Package scheduler runs the job classes on their cron cadences and on
// operator triggers. A job class never runs concurrently with itself; a
// trigger that finds it running is dropped.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fincoval/creditsync/internal/config"
	"github.com/fincoval/creditsync/internal/logging"
	"github.com/fincoval/creditsync/internal/reconcile"
	"github.com/fincoval/creditsync/internal/timex"
	"github.com/robfig/cron/v3"
)

type JobClass string

const (
	TokenRefresh   JobClass = "token-refresh"
	InboundSync    JobClass = "inbound-sync"
	OutboundExport JobClass = "outbound-export"
	SnapshotSync   JobClass = "snapshot-sync"
	ActionSync     JobClass = "action-sync"
)

var (
	ErrUnknownJob = errors.New("unknown job class")
	ErrJobRunning = errors.New("job class already running")
)

// Job is one job class. Passes run in order; Func, when set, runs instead.
type Job struct {
	Class  JobClass
	Spec   string
	Passes []reconcile.Pass
	Func   func(ctx context.Context) error
}

// Runner runs a single engine pass.
type Runner interface {
	Run(ctx context.Context, p reconcile.Pass) (*reconcile.Summary, error)
}

// Observer is told about job lifecycle events.
type Observer interface {
	JobStarted(job string)
	JobFinished(job string, elapsed time.Duration, failed bool)
	JobDropped(job string)
}

// DefaultJobs maps the schedule configuration to the five job classes.
// refresh backs the token-refresh class.
func DefaultJobs(cfg config.ScheduleConfig, refresh func(ctx context.Context) error) []Job {
	return []Job{
		{Class: TokenRefresh, Spec: cfg.TokenRefresh, Func: refresh},
		{Class: InboundSync, Spec: cfg.InboundSync, Passes: []reconcile.Pass{
			reconcile.ClientsPull, reconcile.CreditsPull, reconcile.PaymentsPull}},
		{Class: OutboundExport, Spec: cfg.OutboundExport, Passes: []reconcile.Pass{
			reconcile.ClientsPush, reconcile.CreditsPush, reconcile.PaymentsPush}},
		{Class: SnapshotSync, Spec: cfg.SnapshotSync, Passes: []reconcile.Pass{
			reconcile.InstallmentsPull, reconcile.InstallmentsPush}},
		{Class: ActionSync, Spec: cfg.ActionSync, Passes: []reconcile.Pass{
			reconcile.ActionsPull, reconcile.ActionsPush}},
	}
}

type Scheduler struct {
	cron       *cron.Cron
	jobs       map[JobClass]Job
	order      []JobClass
	runner     Runner
	state      *StateStore
	observers  []Observer
	logger     logging.Logger
	runOnStart bool
	now        func() time.Time

	mu  sync.Mutex
	ctx context.Context
	wg  sync.WaitGroup
}

func New(cfg config.ScheduleConfig, jobs []Job, runner Runner, logger logging.Logger) (*Scheduler, error) {
	loc, err := timex.LoadZone(cfg.TimeZone)
	if err != nil {
		return nil, err
	}

	logger = logger.With("module", "scheduler")
	s := &Scheduler{
		cron:       cron.New(cron.WithLocation(loc), cron.WithLogger(cronLogger{logger})),
		jobs:       make(map[JobClass]Job, len(jobs)),
		runner:     runner,
		logger:     logger,
		runOnStart: cfg.RunOnStart,
		now:        time.Now,
		ctx:        context.Background(),
	}
	for _, j := range jobs {
		s.jobs[j.Class] = j
		s.order = append(s.order, j.Class)
	}
	s.state = NewStateStore(s.order...)
	return s, nil
}

func (s *Scheduler) AddObserver(o Observer) {
	s.observers = append(s.observers, o)
}

func (s *Scheduler) Classes() []JobClass {
	return append([]JobClass(nil), s.order...)
}

func (s *Scheduler) States() map[JobClass]JobState {
	return s.state.Snapshot()
}

// Start registers every job with a cron spec and starts the cron loop.
// Jobs triggered later run on ctx.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	for _, class := range s.order {
		job := s.jobs[class]
		if job.Spec == "" {
			continue
		}
		if _, err := s.cron.AddFunc(job.Spec, func() { s.fire(class) }); err != nil {
			return fmt.Errorf("schedule %s %q: %w", class, job.Spec, err)
		}
	}
	s.cron.Start()
	s.logger.Info(ctx, "scheduler started", "jobs", len(s.order))

	if s.runOnStart {
		for _, class := range s.order {
			s.fire(class)
		}
	}
	return nil
}

// Stop halts the cadences and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.wg.Wait()
}

func (s *Scheduler) fire(class JobClass) {
	if err := s.Trigger(class); err != nil && !errors.Is(err, ErrJobRunning) {
		s.logger.Error(s.rootContext(), "trigger failed", "job", class, "error", err)
	}
}

func (s *Scheduler) rootContext() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctx
}

// Trigger starts class in the background. It returns ErrJobRunning when the
// class is already running; that trigger is dropped, not queued.
func (s *Scheduler) Trigger(class JobClass) error {
	job, err := s.admit(class)
	if err != nil {
		return err
	}
	ctx := s.rootContext()
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.execute(ctx, job)
	}()
	return nil
}

// RunNow runs class synchronously through the same guard as Trigger.
func (s *Scheduler) RunNow(ctx context.Context, class JobClass) ([]*reconcile.Summary, error) {
	job, err := s.admit(class)
	if err != nil {
		return nil, err
	}
	return s.execute(ctx, job)
}

func (s *Scheduler) admit(class JobClass) (Job, error) {
	job, ok := s.jobs[class]
	if !ok {
		return Job{}, fmt.Errorf("%w: %q", ErrUnknownJob, class)
	}
	if !s.state.TryStart(class, s.now()) {
		n := s.state.Drop(class)
		s.logger.Warn(s.rootContext(), "trigger dropped, job still running", "job", class, "dropped", n)
		for _, o := range s.observers {
			o.JobDropped(string(class))
		}
		return Job{}, fmt.Errorf("%w: %s", ErrJobRunning, class)
	}
	return job, nil
}

// execute runs the passes of job in order. A failed pass does not stop the
// passes after it.
func (s *Scheduler) execute(ctx context.Context, job Job) ([]*reconcile.Summary, error) {
	started := s.now()
	for _, o := range s.observers {
		o.JobStarted(string(job.Class))
	}
	s.logger.Info(ctx, "job started", "job", job.Class)

	var summaries []*reconcile.Summary
	var errs []error
	failed := false

	if job.Func != nil {
		if err := job.Func(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	for _, p := range job.Passes {
		sum, err := s.runner.Run(ctx, p)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p, err))
			continue
		}
		summaries = append(summaries, sum)
		if sum.Failed() {
			failed = true
		}
	}

	err := errors.Join(errs...)
	if err != nil {
		failed = true
		s.logger.Error(ctx, "job failed", "job", job.Class, "error", err)
	}

	finished := s.now()
	s.state.Finish(job.Class, finished, summaries, err)
	for _, o := range s.observers {
		o.JobFinished(string(job.Class), finished.Sub(started), failed)
	}
	s.logger.Info(ctx, "job finished", "job", job.Class, "failed", failed, "elapsed", finished.Sub(started))
	return summaries, err
}

// cronLogger routes cron's own messages into the structured logger.
type cronLogger struct {
	l logging.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Debug(context.Background(), "cron: "+msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Error(context.Background(), "cron: "+msg, append(keysAndValues, "error", err)...)
}
