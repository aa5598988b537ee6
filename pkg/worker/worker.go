// Package worker consumes collection jobs one at a time per lane,
// applies the shared rate-limit and retry policy, and translates run
// failures into job-level retry decisions.
package worker

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/lisanmuaddib/collector-go/pkg/collector"
	"github.com/lisanmuaddib/collector-go/pkg/interfaces/vk"
)

// MaxConcurrency caps the number of lanes. The bottleneck is the
// external API's rate limit, not local compute, so the pool stays small.
const MaxConcurrency = 2

// TaskRunner is the slice of the collection service the pool invokes.
type TaskRunner interface {
	Run(ctx context.Context, taskID uint) error
}

// Config holds the pool settings.
type Config struct {
	Concurrency int
	Backoff     BackoffPolicy
	Logger      *logrus.Logger
}

func (c *Config) Validate() error {
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1")
	}
	if c.Concurrency > MaxConcurrency {
		return fmt.Errorf("concurrency must not exceed %d", MaxConcurrency)
	}
	if c.Backoff.MaxAttempts < 1 {
		return fmt.Errorf("backoff max attempts must be at least 1")
	}
	if c.Logger == nil {
		c.Logger = logrus.New()
	}
	return nil
}

// Pool runs collection jobs from a queue across a fixed set of lanes.
// Each job executes sequentially inside its lane; operators can pause,
// resume, and stop the pool without corrupting in-flight tasks.
type Pool struct {
	config Config
	queue  *Queue
	runner TaskRunner
	logger *logrus.Logger

	mu     sync.Mutex
	paused bool
	resume chan struct{}
	quit   chan struct{}
	wg     sync.WaitGroup
}

// NewPool creates a worker pool over a queue and a task runner.
func NewPool(config Config, queue *Queue, runner TaskRunner) (*Pool, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if queue == nil {
		return nil, fmt.Errorf("queue is required")
	}
	if runner == nil {
		return nil, fmt.Errorf("task runner is required")
	}

	return &Pool{
		config: config,
		queue:  queue,
		runner: runner,
		logger: config.Logger,
		quit:   make(chan struct{}),
	}, nil
}

// Run starts all lanes and blocks until the context is canceled, Stop
// is called, or the queue closes.
func (p *Pool) Run(ctx context.Context) error {
	p.logger.WithField("concurrency", p.config.Concurrency).Info("Starting worker pool")

	for lane := 0; lane < p.config.Concurrency; lane++ {
		p.wg.Add(1)
		go func(lane int) {
			defer p.wg.Done()
			p.runLane(ctx, lane)
		}(lane)
	}

	p.wg.Wait()
	p.logger.Info("Worker pool drained")

	if err := ctx.Err(); err != nil {
		return err
	}
	return nil
}

// Stop stops picking up new jobs and waits for in-flight work to
// complete naturally.
func (p *Pool) Stop() {
	p.mu.Lock()
	select {
	case <-p.quit:
	default:
		close(p.quit)
	}
	p.mu.Unlock()

	p.wg.Wait()
}

// Pause stops lanes from picking up new jobs. In-flight jobs finish.
func (p *Pool) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.paused {
		p.paused = true
		p.resume = make(chan struct{})
		p.logger.Info("Worker pool paused")
	}
}

// Resume lets paused lanes pick up jobs again.
func (p *Pool) Resume() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.paused {
		p.paused = false
		close(p.resume)
		p.logger.Info("Worker pool resumed")
	}
}

func (p *Pool) runLane(ctx context.Context, lane int) {
	log := p.logger.WithField("lane", lane)

	for {
		if err := p.waitWhilePaused(ctx); err != nil {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-p.quit:
			return
		case job, ok := <-p.queue.Jobs():
			if !ok {
				return
			}
			p.handle(ctx, log, job)
		}
	}
}

func (p *Pool) waitWhilePaused(ctx context.Context) error {
	for {
		p.mu.Lock()
		if !p.paused {
			p.mu.Unlock()
			return nil
		}
		resume := p.resume
		p.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.quit:
			return fmt.Errorf("pool stopped")
		case <-resume:
		}
	}
}

func (p *Pool) handle(ctx context.Context, log *logrus.Entry, job Job) {
	job.Attempts++

	jobLog := log.WithFields(logrus.Fields{
		"job_id":   job.ID,
		"task_id":  job.TaskID,
		"attempts": job.Attempts,
	})
	jobLog.Info("Processing collection job")

	err := p.runner.Run(ctx, job.TaskID)
	if err == nil {
		jobLog.Info("Collection job finished")
		return
	}

	if !IsTransient(err) {
		// The service already recorded the task failure before
		// re-throwing; nothing left to persist here.
		jobLog.WithError(err).Error("Collection job failed permanently")
		return
	}

	if p.config.Backoff.Exhausted(job.Attempts) {
		jobLog.WithError(err).Error("Collection job failed, retry attempts exhausted")
		return
	}

	delay := p.config.Backoff.Delay(job.Attempts)
	jobLog.WithError(err).WithField("delay", delay.String()).Warn("Collection job failed, retrying")
	p.queue.Requeue(job, delay)
}

// IsTransient classifies a run error as worth a job-level retry.
// Not-found errors are fatal; network and timeout conditions, storage
// unavailability, and rate-limit signals are transient.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, collector.ErrTaskNotFound) {
		return false
	}
	if errors.Is(err, vk.ErrRateLimited) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
