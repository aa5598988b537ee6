// Package storage implements the pipeline's ResultStore contract on
// top of GORM/Postgres. All content writes are natural-key upserts so
// concurrent attempts to record the same item converge to one row.
package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/lisanmuaddib/collector-go/pkg/collector"
	"github.com/lisanmuaddib/collector-go/pkg/db/models"
	"github.com/lisanmuaddib/collector-go/pkg/interfaces/vk"
)

// Store is the GORM-backed ResultStore.
type Store struct {
	mu     sync.Mutex
	logger *logrus.Logger
	db     *gorm.DB
}

// NewStore creates a Store over an established database connection.
func NewStore(logger *logrus.Logger, db *gorm.DB) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if logger == nil {
		logger = logrus.New()
	}

	return &Store{
		logger: logger,
		db:     db,
	}, nil
}

// CreateTask records a new pending task for the given source list.
func (s *Store) CreateTask(ctx context.Context, sources []string) (*models.CollectionTask, error) {
	task := &models.CollectionTask{
		Status:  models.StatusPending,
		Sources: pq.StringArray(sources),
		Errors:  pq.StringArray{},
	}

	if err := s.db.WithContext(ctx).Create(task).Error; err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"task_id":       task.ID,
		"sources_count": len(sources),
	}).Info("Created collection task")

	return task, nil
}

// GetTaskByID loads one task record.
func (s *Store) GetTaskByID(ctx context.Context, id uint) (*models.CollectionTask, error) {
	var task models.CollectionTask
	err := s.db.WithContext(ctx).First(&task, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("task %d: %w", id, collector.ErrTaskNotFound)
		}
		return nil, fmt.Errorf("failed to load task %d: %w", id, err)
	}
	return &task, nil
}

// UpdateTask applies a partial field update to one task record.
func (s *Store) UpdateTask(ctx context.Context, id uint, fields map[string]interface{}) error {
	result := s.db.WithContext(ctx).
		Model(&models.CollectionTask{}).
		Where("id = ?", id).
		Updates(fields)

	if result.Error != nil {
		return fmt.Errorf("failed to update task %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("task %d: %w", id, collector.ErrTaskNotFound)
	}

	return nil
}

// UpsertPosts bulk-writes wall posts keyed by (task_id, vk_post_id).
// On conflict the content, counters, and timestamp fields are refreshed.
func (s *Store) UpsertPosts(ctx context.Context, taskID uint, posts []vk.WallPost) error {
	if len(posts) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	rows := make([]models.Post, 0, len(posts))
	for _, p := range posts {
		rows = append(rows, models.Post{
			TaskID:      taskID,
			VKPostID:    p.ID,
			GroupID:     p.GroupID,
			OwnerID:     p.OwnerID,
			Text:        p.Text,
			Likes:       p.Likes,
			PostedAt:    p.Date,
			CollectedAt: now,
			UpdatedAt:   now,
		})
	}

	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "task_id"}, {Name: "vk_post_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"owner_id", "text", "likes", "posted_at", "updated_at",
			}),
		}).
		Create(&rows)

	if result.Error != nil {
		return fmt.Errorf("failed to upsert posts: %w", result.Error)
	}

	s.logger.WithFields(logrus.Fields{
		"task_id":     taskID,
		"posts_count": len(posts),
	}).Debug("Upserted wall posts")

	return nil
}

// UpsertComments bulk-writes comments keyed by (vk_post_id, vk_comment_id).
func (s *Store) UpsertComments(ctx context.Context, postID int64, comments []vk.Comment) error {
	if len(comments) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	rows := make([]models.Comment, 0, len(comments))
	for _, c := range comments {
		vkPostID := c.PostID
		if vkPostID == 0 {
			vkPostID = postID
		}
		rows = append(rows, models.Comment{
			VKPostID:    vkPostID,
			VKCommentID: c.ID,
			FromID:      c.FromID,
			Text:        c.Text,
			Likes:       c.Likes,
			PostedAt:    c.Date,
			CollectedAt: now,
			UpdatedAt:   now,
		})
	}

	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "vk_post_id"}, {Name: "vk_comment_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"from_id", "text", "likes", "posted_at", "updated_at",
			}),
		}).
		Create(&rows)

	if result.Error != nil {
		return fmt.Errorf("failed to upsert comments: %w", result.Error)
	}

	s.logger.WithFields(logrus.Fields{
		"post_id":        postID,
		"comments_count": len(comments),
	}).Debug("Upserted comments")

	return nil
}
