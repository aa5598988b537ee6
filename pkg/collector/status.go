package collector

import (
	"context"
	"fmt"

	"github.com/lisanmuaddib/collector-go/pkg/db/models"
	"github.com/lisanmuaddib/collector-go/pkg/progress"
)

// TaskStatus is the read model returned to status queries.
type TaskStatus struct {
	TaskID   uint              `json:"task_id"`
	Status   models.TaskStatus `json:"status"`
	Progress progress.Snapshot `json:"progress"`
	Errors   []string          `json:"errors"`
	Sources  []string          `json:"sources"`
}

// GetStatus returns the current state of a task with an on-demand
// progress snapshot computed from its checkpointed counters.
func (s *Service) GetStatus(ctx context.Context, taskID uint) (*TaskStatus, error) {
	task, err := s.store.GetTaskByID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to load task %d: %w", taskID, err)
	}

	metrics := estimateMetrics(task)
	if warnings := progress.ValidateMetrics(metrics); len(warnings) > 0 {
		for _, w := range warnings {
			s.logger.WithField("task_id", taskID).WithField("warning", w).Warn("Suspicious progress counters")
		}
	}

	return &TaskStatus{
		TaskID:   task.ID,
		Status:   task.Status,
		Progress: progress.Calculate(metrics),
		Errors:   task.Errors,
		Sources:  task.Sources,
	}, nil
}

// estimateMetrics derives calculator input from a task record. Post and
// comment totals are unknowable up front (the API is the only party who
// knows them), so mid-run totals are estimated by scaling collected
// counts by the share of sources already walked. Terminal tasks always
// report every phase complete.
func estimateMetrics(task *models.CollectionTask) progress.Metrics {
	m := progress.Metrics{
		GroupsTotal:       len(task.Sources),
		GroupsProcessed:   task.SourcesProcessed,
		PostsProcessed:    task.PostsCollected,
		CommentsProcessed: task.CommentsCollected,
	}

	if task.Status.IsTerminal() {
		m.GroupsTotal = maxInt(len(task.Sources), 1)
		m.GroupsProcessed = m.GroupsTotal
		m.PostsTotal = maxInt(task.PostsCollected, 1)
		m.PostsProcessed = m.PostsTotal
		m.CommentsTotal = maxInt(task.CommentsCollected, 1)
		m.CommentsProcessed = m.CommentsTotal
		return m
	}

	if task.SourcesProcessed > 0 && len(task.Sources) > 0 {
		scale := float64(len(task.Sources)) / float64(task.SourcesProcessed)
		m.PostsTotal = int(float64(task.PostsCollected) * scale)
		m.CommentsTotal = int(float64(task.CommentsCollected) * scale)
	}

	return m
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
