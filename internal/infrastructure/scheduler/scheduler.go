package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// JobStatus represents the outcome of the last run of a job
type JobStatus string

const (
	JobStatusPending JobStatus = "PENDING"
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusSuccess JobStatus = "SUCCESS"
	JobStatusFailed  JobStatus = "FAILED"
)

// Job is a task run on a fixed interval
type Job struct {
	Name       string
	Interval   time.Duration
	Timeout    time.Duration
	RunOnStart bool
	Run        func(ctx context.Context) error
}

// JobState is a snapshot of a registered job
type JobState struct {
	Name      string        `json:"name"`
	Interval  time.Duration `json:"interval"`
	Status    JobStatus     `json:"status"`
	Runs      int           `json:"runs"`
	Failures  int           `json:"failures"`
	LastRunAt *time.Time    `json:"last_run_at,omitempty"`
	LastError string        `json:"last_error,omitempty"`
}

type jobEntry struct {
	job     Job
	running bool
	state   JobState
}

// Scheduler runs registered jobs on their intervals. Each job has its own
// goroutine and never overlaps with itself.
type Scheduler struct {
	logger *zap.Logger

	mu        sync.Mutex
	jobs      map[string]*jobEntry
	order     []string
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	isRunning bool
}

// NewScheduler creates a scheduler with no jobs
func NewScheduler(logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		logger: logger,
		jobs:   make(map[string]*jobEntry),
	}
}

// Register adds a job. Jobs must be registered before Start.
func (s *Scheduler) Register(job Job) error {
	if job.Name == "" || job.Run == nil || job.Interval <= 0 {
		return fmt.Errorf("%w: job needs a name, a run function and a positive interval", ErrInvalidConfig)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return fmt.Errorf("%w: cannot register %q while running", ErrInvalidConfig, job.Name)
	}
	if _, exists := s.jobs[job.Name]; exists {
		return fmt.Errorf("%w: duplicate job %q", ErrInvalidConfig, job.Name)
	}
	s.jobs[job.Name] = &jobEntry{
		job:   job,
		state: JobState{Name: job.Name, Interval: job.Interval, Status: JobStatusPending},
	}
	s.order = append(s.order, job.Name)
	return nil
}

// Start launches one loop per registered job
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return nil
	}
	s.isRunning = true
	s.ctx, s.cancel = context.WithCancel(ctx)

	for _, name := range s.order {
		entry := s.jobs[name]
		s.wg.Add(1)
		go s.loop(s.ctx, entry)
	}

	s.logger.Info("Scheduler started", zap.Strings("jobs", s.order))
	return nil
}

// Stop cancels all loops and waits for in-flight runs to finish
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	cancel := s.cancel
	s.mu.Unlock()

	cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Scheduler stop timed out")
		return ctx.Err()
	}
}

// Trigger runs a job immediately and waits for it
func (s *Scheduler) Trigger(ctx context.Context, name string) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	entry, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return ErrJobNotFound
	}
	return s.execute(ctx, entry)
}

// Status returns a snapshot of every job in registration order
func (s *Scheduler) Status() []JobState {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]JobState, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.jobs[name].state)
	}
	return out
}

func (s *Scheduler) loop(ctx context.Context, entry *jobEntry) {
	defer s.wg.Done()

	if entry.job.RunOnStart {
		_ = s.execute(ctx, entry)
	}

	ticker := time.NewTicker(entry.job.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = s.execute(ctx, entry)
		}
	}
}

func (s *Scheduler) execute(ctx context.Context, entry *jobEntry) error {
	s.mu.Lock()
	if entry.running {
		s.mu.Unlock()
		return ErrJobAlreadyRunning
	}
	entry.running = true
	entry.state.Status = JobStatusRunning
	s.mu.Unlock()

	runCtx := ctx
	if entry.job.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, entry.job.Timeout)
		defer cancel()
	}

	start := time.Now()
	err := entry.job.Run(runCtx)

	s.mu.Lock()
	entry.running = false
	entry.state.Runs++
	entry.state.LastRunAt = &start
	if err != nil {
		entry.state.Status = JobStatusFailed
		entry.state.Failures++
		entry.state.LastError = err.Error()
	} else {
		entry.state.Status = JobStatusSuccess
		entry.state.LastError = ""
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("Job failed",
			zap.String("job", entry.job.Name),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		return err
	}
	s.logger.Debug("Job completed",
		zap.String("job", entry.job.Name),
		zap.Duration("duration", time.Since(start)),
	)
	return nil
}
