// Package collector implements the three-phase collection pipeline:
// source validation, wall listing, and comment listing, with per-task
// state machine, metrics checkpointing, and error aggregation.
package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/lisanmuaddib/collector-go/pkg/db/models"
)

// MaxPostsPerSource bounds the detail-fetch fan-out per group. Only the
// first MaxPostsPerSource wall posts of a source are stored and walked.
const MaxPostsPerSource = 10

// Service orchestrates one collection task at a time from pending to a
// terminal state. It is the only mutator of task records.
type Service struct {
	api    ContentAPI
	store  ResultStore
	logger *logrus.Logger
}

// NewService creates a collection service with its two collaborators.
func NewService(api ContentAPI, store ResultStore, logger *logrus.Logger) (*Service, error) {
	if api == nil {
		return nil, fmt.Errorf("content api is required")
	}
	if store == nil {
		return nil, fmt.Errorf("result store is required")
	}
	if logger == nil {
		logger = logrus.New()
	}

	return &Service{
		api:    api,
		store:  store,
		logger: logger,
	}, nil
}

// taskRun carries the mutable counters of one in-flight run. The run is
// single-threaded; checkpoints write absolute values.
type taskRun struct {
	task              *models.CollectionTask
	sourcesProcessed  int
	postsCollected    int
	commentsCollected int
	errors            []string
}

func (r *taskRun) addError(format string, args ...interface{}) {
	r.errors = append(r.errors, fmt.Sprintf(format, args...))
}

// Run executes the full collection pipeline for one task.
//
// Per-source and per-item failures are aggregated into the task's error
// list and never abort the run. Anything systemic (storage outage,
// context cancellation) is recorded as a general error, forces the
// failed state, and is returned so the worker can decide on a job-level
// retry.
func (s *Service) Run(ctx context.Context, taskID uint) error {
	log := s.logger.WithField("task_id", taskID)

	task, err := s.store.GetTaskByID(ctx, taskID)
	if err != nil {
		return fmt.Errorf("failed to load task %d: %w", taskID, err)
	}
	if task.Status.IsTerminal() {
		log.WithField("status", task.Status).Warn("Task already in terminal state, nothing to do")
		return nil
	}

	startFields := map[string]interface{}{
		"status": models.StatusProcessing,
	}
	if task.StartedAt == nil {
		startFields["started_at"] = time.Now().UTC()
	}
	if err := s.store.UpdateTask(ctx, taskID, startFields); err != nil {
		return fmt.Errorf("failed to start task %d: %w", taskID, err)
	}

	log.WithField("sources_count", len(task.Sources)).Info("Task collection started")

	run := &taskRun{
		task:              task,
		sourcesProcessed:  task.SourcesProcessed,
		postsCollected:    task.PostsCollected,
		commentsCollected: task.CommentsCollected,
		errors:            append([]string{}, task.Errors...),
	}

	if err := s.collect(ctx, run); err != nil {
		run.addError("General error in run: %v", err)
		log.WithError(err).Error("Task collection aborted by general error")

		if finErr := s.finish(ctx, taskID, run, models.StatusFailed); finErr != nil {
			log.WithError(finErr).Error("Failed to record task failure")
		}
		return err
	}

	status := models.StatusCompleted
	if len(run.errors) > 0 {
		status = models.StatusFailed
	}
	if err := s.finish(ctx, taskID, run, status); err != nil {
		return fmt.Errorf("failed to finish task %d: %w", taskID, err)
	}

	log.WithFields(logrus.Fields{
		"status":             status,
		"posts_collected":    run.postsCollected,
		"comments_collected": run.commentsCollected,
		"errors_count":       len(run.errors),
	}).Info("Task collection finished")

	return nil
}

// collect walks every source in submitted order. Returned errors are
// systemic by definition; per-source failures stay inside the run.
func (s *Service) collect(ctx context.Context, run *taskRun) error {
	taskID := run.task.ID
	log := s.logger.WithField("task_id", taskID)

	for _, source := range run.task.Sources {
		if err := ctx.Err(); err != nil {
			return err
		}

		groupID, err := NormalizeGroupID(source)
		if err != nil {
			run.addError("Error processing source %s: %v", source, err)
			run.sourcesProcessed++
			if err := s.checkpoint(ctx, run); err != nil {
				return err
			}
			continue
		}

		srcLog := log.WithField("group_id", groupID)

		posts, err := s.api.ListWallPosts(ctx, groupID)
		if err != nil {
			srcLog.WithError(err).Warn("Failed to list wall posts for source")
			run.addError("Error processing source %s: %v", source, err)
			run.sourcesProcessed++
			if err := s.checkpoint(ctx, run); err != nil {
				return err
			}
			continue
		}

		if len(posts) > MaxPostsPerSource {
			posts = posts[:MaxPostsPerSource]
		}

		if err := s.store.UpsertPosts(ctx, taskID, posts); err != nil {
			return fmt.Errorf("failed to upsert posts for group %d: %w", groupID, err)
		}

		commentsCollected := 0
		for _, post := range posts {
			comments, err := s.api.ListComments(ctx, groupID, post.ID)
			if err != nil {
				srcLog.WithError(err).WithField("post_id", post.ID).Warn("Failed to list comments for post")
				run.addError("Error getting details for source %s, item %d: %v", source, post.ID, err)
				continue
			}

			if err := s.store.UpsertComments(ctx, post.ID, comments); err != nil {
				return fmt.Errorf("failed to upsert comments for post %d: %w", post.ID, err)
			}
			commentsCollected += len(comments)
		}

		run.postsCollected += len(posts)
		run.commentsCollected += commentsCollected
		run.sourcesProcessed++

		if err := s.checkpoint(ctx, run); err != nil {
			return err
		}

		srcLog.WithFields(logrus.Fields{
			"posts":    len(posts),
			"comments": commentsCollected,
		}).Debug("Source processed")
	}

	return nil
}

// checkpoint persists the run counters so progress is observable by
// concurrent status reads.
func (s *Service) checkpoint(ctx context.Context, run *taskRun) error {
	err := s.store.UpdateTask(ctx, run.task.ID, map[string]interface{}{
		"sources_processed":  run.sourcesProcessed,
		"posts_collected":    run.postsCollected,
		"comments_collected": run.commentsCollected,
		"errors":             pq.StringArray(run.errors),
	})
	if err != nil {
		return fmt.Errorf("failed to checkpoint task %d metrics: %w", run.task.ID, err)
	}
	return nil
}

// finish moves the task to a terminal state exactly once.
func (s *Service) finish(ctx context.Context, taskID uint, run *taskRun, status models.TaskStatus) error {
	return s.store.UpdateTask(ctx, taskID, map[string]interface{}{
		"status":             status,
		"finished_at":        time.Now().UTC(),
		"sources_processed":  run.sourcesProcessed,
		"posts_collected":    run.postsCollected,
		"comments_collected": run.commentsCollected,
		"errors":             pq.StringArray(run.errors),
	})
}
