package collector

import (
	"context"
	"errors"

	"github.com/lisanmuaddib/collector-go/pkg/db/models"
	"github.com/lisanmuaddib/collector-go/pkg/interfaces/vk"
)

// ErrTaskNotFound is returned by ResultStore when a task id matches no
// row. Fatal to the calling operation; never retried by the service.
var ErrTaskNotFound = errors.New("collection task not found")

// ContentAPI is the slice of the VK client the collection pipeline
// consumes. Implemented by *vk.Client; faked in tests.
type ContentAPI interface {
	// ListWallPosts fetches the first page of wall posts for a group
	ListWallPosts(ctx context.Context, groupID int64) ([]vk.WallPost, error)
	// ListComments fetches every comment page under one wall post
	ListComments(ctx context.Context, groupID, postID int64) ([]vk.Comment, error)
}

// ResultStore is the persistence contract for tasks and collected
// content. All content writes are idempotent upserts by natural key.
type ResultStore interface {
	CreateTask(ctx context.Context, sources []string) (*models.CollectionTask, error)
	GetTaskByID(ctx context.Context, id uint) (*models.CollectionTask, error)
	// UpdateTask applies a partial update; returns ErrTaskNotFound when
	// no row matches
	UpdateTask(ctx context.Context, id uint, fields map[string]interface{}) error
	UpsertPosts(ctx context.Context, taskID uint, posts []vk.WallPost) error
	UpsertComments(ctx context.Context, postID int64, comments []vk.Comment) error
}
