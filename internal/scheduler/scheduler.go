// Package scheduler runs recurring maintenance jobs, such as expiring stale
// delivery obligations, on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/anstrom/scanbridge/internal/logging"
)

// JobFunc is the work of a scheduled job.
type JobFunc func(ctx context.Context) error

// Scheduler manages named jobs on a cron runner.
type Scheduler struct {
	cron    *cron.Cron
	jobs    map[string]*ScheduledJob
	logger  *logging.Logger
	mu      sync.RWMutex
	running bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// ScheduledJob represents a scheduled job wrapper.
type ScheduledJob struct {
	Name     string
	Schedule string
	CronID   cron.EntryID
	LastRun  time.Time
	LastErr  error
	NextRun  time.Time
	Running  bool
	Runs     int

	fn JobFunc
}

// NewScheduler creates a new job scheduler.
func NewScheduler(logger *logging.Logger) *Scheduler {
	if logger == nil {
		logger = logging.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		cron:   cron.New(),
		jobs:   make(map[string]*ScheduledJob),
		logger: logger.WithComponent("scheduler"),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start begins the scheduler.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler is already running")
	}

	s.cron.Start()
	s.running = true

	s.logger.Info("Scheduler started", "jobs", len(s.jobs))
	return nil
}

// Stop stops the scheduler and waits for running jobs to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	<-s.cron.Stop().Done()
	s.cancel()

	s.logger.Info("Scheduler stopped")
}

// AddJob registers fn under name with a standard five-field cron expression
// or a descriptor such as "@every 1h".
func (s *Scheduler) AddJob(name, cronExpr string, fn JobFunc) error {
	schedule, err := cron.ParseStandard(cronExpr)
	if err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %q already scheduled", name)
	}

	job := &ScheduledJob{
		Name:     name,
		Schedule: cronExpr,
		NextRun:  schedule.Next(time.Now()),
		fn:       fn,
	}
	job.CronID = s.cron.Schedule(schedule, cron.FuncJob(func() { s.execute(name) }))
	s.jobs[name] = job

	s.logger.Info("Added scheduled job", "job", name, "schedule", cronExpr)
	return nil
}

// RunNow executes a job immediately, outside its schedule.
func (s *Scheduler) RunNow(name string) error {
	s.mu.RLock()
	_, exists := s.jobs[name]
	s.mu.RUnlock()
	if !exists {
		return fmt.Errorf("job not found")
	}
	return s.execute(name)
}

// GetJobs returns a snapshot of all jobs ordered by name.
func (s *Scheduler) GetJobs() []ScheduledJob {
	s.mu.RLock()
	defer s.mu.RUnlock()

	jobs := make([]ScheduledJob, 0, len(s.jobs))
	for _, job := range s.jobs {
		snapshot := *job
		snapshot.fn = nil
		if entry := s.cron.Entry(job.CronID); entry.Valid() && !entry.Next.IsZero() {
			snapshot.NextRun = entry.Next
		}
		jobs = append(jobs, snapshot)
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].Name < jobs[j].Name })
	return jobs
}

// execute runs a job unless a previous run of it is still in progress.
func (s *Scheduler) execute(name string) error {
	job, ok := s.prepareJobExecution(name)
	if !ok {
		return nil
	}

	start := time.Now()
	err := job.fn(s.ctx)

	s.mu.Lock()
	job.Running = false
	job.LastErr = err
	job.Runs++
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("Scheduled job failed", "job", name, "error", err, "duration", time.Since(start))
		return err
	}
	s.logger.Debug("Scheduled job completed", "job", name, "duration", time.Since(start))
	return nil
}

// prepareJobExecution marks the job running and reports whether it should run.
func (s *Scheduler) prepareJobExecution(name string) (*ScheduledJob, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, exists := s.jobs[name]
	if !exists {
		return nil, false
	}
	if job.Running {
		s.logger.Warn("Scheduled job is already running, skipping", "job", name)
		return nil, false
	}

	job.Running = true
	job.LastRun = time.Now()
	return job, true
}
