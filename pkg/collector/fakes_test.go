package collector_test

import (
	"context"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/lisanmuaddib/collector-go/pkg/collector"
	"github.com/lisanmuaddib/collector-go/pkg/db/models"
	"github.com/lisanmuaddib/collector-go/pkg/interfaces/vk"
)

// fakeAPI serves scripted wall posts and comments per group/post.
type fakeAPI struct {
	posts       map[int64][]vk.WallPost
	postsErr    map[int64]error
	comments    map[int64][]vk.Comment
	commentsErr map[int64]error

	wallCalls    []int64
	commentCalls []int64
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		posts:       make(map[int64][]vk.WallPost),
		postsErr:    make(map[int64]error),
		comments:    make(map[int64][]vk.Comment),
		commentsErr: make(map[int64]error),
	}
}

func (f *fakeAPI) ListWallPosts(ctx context.Context, groupID int64) ([]vk.WallPost, error) {
	f.wallCalls = append(f.wallCalls, groupID)
	if err := f.postsErr[groupID]; err != nil {
		return nil, err
	}
	return f.posts[groupID], nil
}

func (f *fakeAPI) ListComments(ctx context.Context, groupID, postID int64) ([]vk.Comment, error) {
	f.commentCalls = append(f.commentCalls, postID)
	if err := f.commentsErr[postID]; err != nil {
		return nil, err
	}
	return f.comments[postID], nil
}

// fakeStore keeps task records and upserted rows in memory, applying
// partial updates the way the real store does.
type fakeStore struct {
	tasks            map[uint]*models.CollectionTask
	upsertedPosts    map[uint][]vk.WallPost
	upsertedComments map[int64][]vk.Comment

	upsertPostsErr    error
	upsertCommentsErr error
	updateErr         error
}

func newFakeStore(tasks ...*models.CollectionTask) *fakeStore {
	s := &fakeStore{
		tasks:            make(map[uint]*models.CollectionTask),
		upsertedPosts:    make(map[uint][]vk.WallPost),
		upsertedComments: make(map[int64][]vk.Comment),
	}
	for _, t := range tasks {
		s.tasks[t.ID] = t
	}
	return s
}

func (s *fakeStore) CreateTask(ctx context.Context, sources []string) (*models.CollectionTask, error) {
	task := &models.CollectionTask{
		ID:      uint(len(s.tasks) + 1),
		Status:  models.StatusPending,
		Sources: pq.StringArray(sources),
	}
	s.tasks[task.ID] = task
	return task, nil
}

func (s *fakeStore) GetTaskByID(ctx context.Context, id uint) (*models.CollectionTask, error) {
	task, ok := s.tasks[id]
	if !ok {
		return nil, fmt.Errorf("task %d: %w", id, collector.ErrTaskNotFound)
	}
	copied := *task
	return &copied, nil
}

func (s *fakeStore) UpdateTask(ctx context.Context, id uint, fields map[string]interface{}) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	task, ok := s.tasks[id]
	if !ok {
		return fmt.Errorf("task %d: %w", id, collector.ErrTaskNotFound)
	}

	for key, value := range fields {
		switch key {
		case "status":
			task.Status = value.(models.TaskStatus)
		case "started_at":
			t := value.(time.Time)
			task.StartedAt = &t
		case "finished_at":
			t := value.(time.Time)
			task.FinishedAt = &t
		case "sources_processed":
			task.SourcesProcessed = value.(int)
		case "posts_collected":
			task.PostsCollected = value.(int)
		case "comments_collected":
			task.CommentsCollected = value.(int)
		case "errors":
			task.Errors = value.(pq.StringArray)
		}
	}
	return nil
}

func (s *fakeStore) UpsertPosts(ctx context.Context, taskID uint, posts []vk.WallPost) error {
	if s.upsertPostsErr != nil {
		return s.upsertPostsErr
	}
	s.upsertedPosts[taskID] = append(s.upsertedPosts[taskID], posts...)
	return nil
}

func (s *fakeStore) UpsertComments(ctx context.Context, postID int64, comments []vk.Comment) error {
	if s.upsertCommentsErr != nil {
		return s.upsertCommentsErr
	}
	s.upsertedComments[postID] = append(s.upsertedComments[postID], comments...)
	return nil
}
