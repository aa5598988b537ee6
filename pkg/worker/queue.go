package worker

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Job is the payload delivered to the worker pool. It carries only the
// task id; the source list and all other configuration are read from
// the task record itself so payload and state cannot diverge.
type Job struct {
	// ID correlates log lines across redeliveries, nothing more
	ID     string `json:"id"`
	TaskID uint   `json:"task_id"`
	// Attempts counts deliveries so far
	Attempts int `json:"attempts"`
}

// Queue is an in-memory job queue with delayed redelivery. It stands in
// for whatever broker the deployment provides; the worker contract only
// needs Enqueue, a delivery channel, and Requeue with a delay.
type Queue struct {
	mu     sync.Mutex
	jobs   chan Job
	closed bool
	logger *logrus.Logger
}

// NewQueue creates a queue with the given buffer size.
func NewQueue(size int, logger *logrus.Logger) *Queue {
	if logger == nil {
		logger = logrus.New()
	}

	return &Queue{
		jobs:   make(chan Job, size),
		logger: logger,
	}
}

// Enqueue submits a new collection job for a task.
func (q *Queue) Enqueue(taskID uint) (Job, error) {
	job := Job{
		ID:     uuid.NewString(),
		TaskID: taskID,
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return Job{}, fmt.Errorf("queue is closed")
	}

	select {
	case q.jobs <- job:
	default:
		return Job{}, fmt.Errorf("queue is full")
	}

	q.logger.WithFields(logrus.Fields{
		"job_id":  job.ID,
		"task_id": taskID,
	}).Debug("Enqueued collection job")

	return job, nil
}

// Requeue redelivers a job after the given delay, preserving its id and
// attempt count. A job requeued into a closed queue is dropped.
func (q *Queue) Requeue(job Job, delay time.Duration) {
	q.logger.WithFields(logrus.Fields{
		"job_id":   job.ID,
		"task_id":  job.TaskID,
		"attempts": job.Attempts,
		"delay":    delay.String(),
	}).Info("Scheduling job redelivery")

	time.AfterFunc(delay, func() {
		q.mu.Lock()
		defer q.mu.Unlock()
		if q.closed {
			q.logger.WithField("job_id", job.ID).Warn("Queue closed, dropping redelivery")
			return
		}

		select {
		case q.jobs <- job:
		default:
			q.logger.WithField("job_id", job.ID).Warn("Queue full, dropping redelivery")
		}
	})
}

// Jobs exposes the delivery channel consumed by the pool.
func (q *Queue) Jobs() <-chan Job {
	return q.jobs
}

// Close stops deliveries. Pending delayed redeliveries are dropped.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.jobs)
}
