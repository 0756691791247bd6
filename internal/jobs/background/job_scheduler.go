package background

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// ErrUnknownJob is returned for names that were never registered
var ErrUnknownJob = errors.New("unknown job")

// Task is one unit of background work
type Task interface {
	Run(ctx context.Context) error
}

// JobSpec schedules a task on a fixed interval
type JobSpec struct {
	Name     string
	Interval time.Duration
	Timeout  time.Duration
	Task     Task
}

// JobStatus describes a registered job
type JobStatus struct {
	Name    string    `json:"name"`
	LastRun time.Time `json:"lastRun"`
	NextRun time.Time `json:"nextRun"`
}

// JobScheduler runs maintenance jobs inside the API process
type JobScheduler struct {
	scheduler gocron.Scheduler
	ctx       context.Context
	cancel    context.CancelFunc
	jobs      map[string]gocron.Job
	mu        sync.RWMutex
}

// NewJobScheduler creates a scheduler with the given jobs registered. Jobs do
// not run until Start is called.
func NewJobScheduler(specs ...JobSpec) (*JobScheduler, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	js := &JobScheduler{
		scheduler: scheduler,
		ctx:       ctx,
		cancel:    cancel,
		jobs:      make(map[string]gocron.Job),
	}

	for _, spec := range specs {
		if err := js.AddJob(spec); err != nil {
			cancel()
			return nil, err
		}
	}
	log.Printf("Registered %d background jobs", len(js.jobs))
	return js, nil
}

// Start starts the job scheduler
func (js *JobScheduler) Start() {
	log.Printf("Starting background job scheduler")
	js.scheduler.Start()
}

// Stop cancels running jobs and waits for them to return
func (js *JobScheduler) Stop() error {
	log.Printf("Stopping background job scheduler")
	js.cancel()
	return js.scheduler.Shutdown()
}

// AddJob registers a job. A job is never run concurrently with itself.
func (js *JobScheduler) AddJob(spec JobSpec) error {
	if spec.Name == "" || spec.Task == nil || spec.Interval <= 0 {
		return fmt.Errorf("invalid job spec %q", spec.Name)
	}

	js.mu.Lock()
	defer js.mu.Unlock()

	if _, exists := js.jobs[spec.Name]; exists {
		return fmt.Errorf("job %q already registered", spec.Name)
	}

	job, err := js.scheduler.NewJob(
		gocron.DurationJob(spec.Interval),
		gocron.NewTask(js.run, js.ctx, spec),
		gocron.WithName(spec.Name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to create job %s: %w", spec.Name, err)
	}

	js.jobs[spec.Name] = job
	return nil
}

// RunNow triggers a job outside of its schedule
func (js *JobScheduler) RunNow(name string) error {
	js.mu.RLock()
	job, exists := js.jobs[name]
	js.mu.RUnlock()

	if !exists {
		return ErrUnknownJob
	}
	return job.RunNow()
}

// GetJobStatus returns the registered jobs ordered by name
func (js *JobScheduler) GetJobStatus() []JobStatus {
	js.mu.RLock()
	defer js.mu.RUnlock()

	status := make([]JobStatus, 0, len(js.jobs))
	for name, job := range js.jobs {
		s := JobStatus{Name: name}
		if last, err := job.LastRun(); err == nil {
			s.LastRun = last
		}
		if next, err := job.NextRun(); err == nil {
			s.NextRun = next
		}
		status = append(status, s)
	}
	sort.Slice(status, func(i, j int) bool { return status[i].Name < status[j].Name })
	return status
}

func (js *JobScheduler) run(ctx context.Context, spec JobSpec) {
	if spec.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, spec.Timeout)
		defer cancel()
	}

	start := time.Now()
	if err := spec.Task.Run(ctx); err != nil {
		log.Printf("Job %s failed after %s: %v", spec.Name, time.Since(start).Round(time.Millisecond), err)
		return
	}
	log.Printf("Job %s completed in %s", spec.Name, time.Since(start).Round(time.Millisecond))
}
