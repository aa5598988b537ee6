package models

import (
	"time"

	"github.com/lib/pq"
)

// TaskStatus is the lifecycle state of a collection task. Transitions
// are monotonic: pending -> processing -> completed|failed.
type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusProcessing TaskStatus = "processing"
	StatusCompleted  TaskStatus = "completed"
	StatusFailed     TaskStatus = "failed"
)

// IsTerminal reports whether the status is absorbing.
func (s TaskStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CollectionTask represents the database model for one batch collection job.
type CollectionTask struct {
	ID     uint       `gorm:"primaryKey;column:id"`
	Status TaskStatus `gorm:"column:status;type:task_status;not null;default:'pending'"`

	// Sources is the ordered list of group identifiers as submitted,
	// before normalization
	Sources pq.StringArray `gorm:"column:sources;type:text[]"`

	// Metrics; append/increment only, checkpointed after each source
	SourcesProcessed  int            `gorm:"column:sources_processed;not null;default:0"`
	PostsCollected    int            `gorm:"column:posts_collected;not null;default:0"`
	CommentsCollected int            `gorm:"column:comments_collected;not null;default:0"`
	Errors            pq.StringArray `gorm:"column:errors;type:text[]"`

	StartedAt  *time.Time `gorm:"column:started_at"`
	FinishedAt *time.Time `gorm:"column:finished_at"`
	CreatedAt  time.Time  `gorm:"column:created_at;not null;default:CURRENT_TIMESTAMP"`
}

// TableName specifies the table name for the CollectionTask model
func (CollectionTask) TableName() string {
	return "collection_tasks"
}
