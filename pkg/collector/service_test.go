package collector_test

import (
	"context"
	"errors"
	"time"

	"github.com/lib/pq"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"

	"github.com/lisanmuaddib/collector-go/pkg/collector"
	"github.com/lisanmuaddib/collector-go/pkg/db/models"
	"github.com/lisanmuaddib/collector-go/pkg/interfaces/vk"
)

func newTask(id uint, sources ...string) *models.CollectionTask {
	return &models.CollectionTask{
		ID:      id,
		Status:  models.StatusPending,
		Sources: pq.StringArray(sources),
	}
}

func wallPost(id, groupID int64) vk.WallPost {
	return vk.WallPost{
		ID:      id,
		OwnerID: -groupID,
		GroupID: groupID,
		Text:    "post",
		Likes:   1,
		Date:    time.Unix(1700000000, 0).UTC(),
	}
}

func makeComments(postID int64, n int) []vk.Comment {
	comments := make([]vk.Comment, 0, n)
	for i := 0; i < n; i++ {
		comments = append(comments, vk.Comment{
			ID:     int64(i + 1),
			PostID: postID,
			Text:   "comment",
		})
	}
	return comments
}

var _ = Describe("Service.Run", func() {
	var (
		api     *fakeAPI
		store   *fakeStore
		service *collector.Service
		ctx     context.Context
		logger  *logrus.Logger
	)

	BeforeEach(func() {
		api = newFakeAPI()
		logger = logrus.New()
		logger.SetLevel(logrus.PanicLevel)
		ctx = context.Background()
	})

	newService := func() {
		var err error
		service, err = collector.NewService(api, store, logger)
		Expect(err).NotTo(HaveOccurred())
	}

	It("collects posts and comments across sources and completes", func() {
		store = newFakeStore(newTask(1, "111", "222"))
		api.posts[111] = []vk.WallPost{wallPost(1, 111), wallPost(2, 111)}
		api.comments[1] = makeComments(1, 3)
		api.comments[2] = makeComments(2, 1)
		newService()

		Expect(service.Run(ctx, 1)).To(Succeed())

		task := store.tasks[1]
		Expect(task.Status).To(Equal(models.StatusCompleted))
		Expect(task.PostsCollected).To(Equal(2))
		Expect(task.CommentsCollected).To(Equal(4))
		Expect(task.Errors).To(BeEmpty())
		Expect(task.StartedAt).NotTo(BeNil())
		Expect(task.FinishedAt).NotTo(BeNil())
		Expect(store.upsertedPosts[1]).To(HaveLen(2))
		Expect(store.upsertedComments[1]).To(HaveLen(3))
		Expect(store.upsertedComments[2]).To(HaveLen(1))
	})

	It("completes immediately for an empty source list", func() {
		store = newFakeStore(newTask(1))
		newService()

		Expect(service.Run(ctx, 1)).To(Succeed())

		task := store.tasks[1]
		Expect(task.Status).To(Equal(models.StatusCompleted))
		Expect(task.PostsCollected).To(BeZero())
		Expect(task.CommentsCollected).To(BeZero())
		Expect(task.FinishedAt).NotTo(BeNil())
	})

	It("records a source failure and fails the task without throwing", func() {
		store = newFakeStore(newTask(1, "111"))
		api.postsErr[111] = errors.New("timeout")
		newService()

		Expect(service.Run(ctx, 1)).To(Succeed())

		task := store.tasks[1]
		Expect(task.Status).To(Equal(models.StatusFailed))
		Expect(task.Errors).To(ConsistOf("Error processing source 111: timeout"))
	})

	It("isolates a failing source from a succeeding one", func() {
		store = newFakeStore(newTask(1, "111", "222"))
		api.postsErr[111] = errors.New("timeout")
		api.posts[222] = []vk.WallPost{wallPost(7, 222)}
		newService()

		Expect(service.Run(ctx, 1)).To(Succeed())

		task := store.tasks[1]
		Expect(task.Status).To(Equal(models.StatusFailed))
		Expect(task.PostsCollected).To(Equal(1))
		Expect(store.upsertedPosts[1]).To(HaveLen(1))
		Expect(store.upsertedPosts[1][0].ID).To(Equal(int64(7)))
	})

	It("caps the number of posts walked per source", func() {
		store = newFakeStore(newTask(1, "111"))
		posts := make([]vk.WallPost, 0, 15)
		for i := 1; i <= 15; i++ {
			posts = append(posts, wallPost(int64(i), 111))
		}
		api.posts[111] = posts
		newService()

		Expect(service.Run(ctx, 1)).To(Succeed())

		Expect(store.upsertedPosts[1]).To(HaveLen(collector.MaxPostsPerSource))
		Expect(api.commentCalls).To(HaveLen(collector.MaxPostsPerSource))
		Expect(store.tasks[1].PostsCollected).To(Equal(collector.MaxPostsPerSource))
	})

	It("normalizes negative and positive identifiers to the same group", func() {
		store = newFakeStore(newTask(1, "-12345", "12345"))
		newService()

		Expect(service.Run(ctx, 1)).To(Succeed())

		Expect(api.wallCalls).To(Equal([]int64{12345, 12345}))
	})

	It("records an unparseable identifier and keeps going", func() {
		store = newFakeStore(newTask(1, "not-a-group", "222"))
		api.posts[222] = []vk.WallPost{wallPost(3, 222)}
		newService()

		Expect(service.Run(ctx, 1)).To(Succeed())

		task := store.tasks[1]
		Expect(task.Status).To(Equal(models.StatusFailed))
		Expect(task.Errors).To(HaveLen(1))
		Expect(task.Errors[0]).To(HavePrefix("Error processing source not-a-group:"))
		Expect(task.PostsCollected).To(Equal(1))
	})

	It("records a comment-fetch failure per item without aborting the source", func() {
		store = newFakeStore(newTask(1, "111"))
		api.posts[111] = []vk.WallPost{wallPost(5, 111), wallPost(6, 111)}
		api.commentsErr[5] = errors.New("boom")
		api.comments[6] = makeComments(6, 2)
		newService()

		Expect(service.Run(ctx, 1)).To(Succeed())

		task := store.tasks[1]
		Expect(task.Status).To(Equal(models.StatusFailed))
		Expect(task.Errors).To(ConsistOf("Error getting details for source 111, item 5: boom"))
		Expect(task.PostsCollected).To(Equal(2))
		Expect(task.CommentsCollected).To(Equal(2))
	})

	It("fails immediately when the task does not exist", func() {
		store = newFakeStore()
		newService()

		err := service.Run(ctx, 42)
		Expect(err).To(MatchError(collector.ErrTaskNotFound))
	})

	It("treats a storage outage as a general error and re-throws it", func() {
		store = newFakeStore(newTask(1, "111"))
		api.posts[111] = []vk.WallPost{wallPost(1, 111)}
		store.upsertPostsErr = errors.New("connection reset")
		newService()

		err := service.Run(ctx, 1)
		Expect(err).To(HaveOccurred())

		task := store.tasks[1]
		Expect(task.Status).To(Equal(models.StatusFailed))
		Expect(task.FinishedAt).NotTo(BeNil())
		Expect(task.Errors).To(HaveLen(1))
		Expect(task.Errors[0]).To(HavePrefix("General error in run:"))
	})

	It("leaves terminal tasks untouched", func() {
		task := newTask(1, "111")
		task.Status = models.StatusCompleted
		store = newFakeStore(task)
		newService()

		Expect(service.Run(ctx, 1)).To(Succeed())

		Expect(api.wallCalls).To(BeEmpty())
		Expect(store.tasks[1].Status).To(Equal(models.StatusCompleted))
	})

	It("checkpoints metrics after each source", func() {
		store = newFakeStore(newTask(1, "111", "222"))
		api.posts[111] = []vk.WallPost{wallPost(1, 111)}
		api.posts[222] = []vk.WallPost{wallPost(2, 222)}
		newService()

		Expect(service.Run(ctx, 1)).To(Succeed())

		Expect(store.tasks[1].SourcesProcessed).To(Equal(2))
	})
})

var _ = Describe("Service.GetStatus", func() {
	var (
		store  *fakeStore
		logger *logrus.Logger
	)

	BeforeEach(func() {
		logger = logrus.New()
		logger.SetLevel(logrus.PanicLevel)
	})

	It("returns full progress for a completed task", func() {
		task := newTask(1, "111", "222")
		task.Status = models.StatusCompleted
		task.SourcesProcessed = 2
		task.PostsCollected = 5
		task.CommentsCollected = 12
		store = newFakeStore(task)

		service, err := collector.NewService(newFakeAPI(), store, logger)
		Expect(err).NotTo(HaveOccurred())

		status, err := service.GetStatus(context.Background(), 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(status.Status).To(Equal(models.StatusCompleted))
		Expect(status.Progress.Percentage).To(Equal(100))
		Expect(status.Sources).To(Equal([]string{"111", "222"}))
	})

	It("reports partial progress mid-run", func() {
		task := newTask(1, "111", "222", "333", "444")
		task.Status = models.StatusProcessing
		task.SourcesProcessed = 1
		task.PostsCollected = 3
		task.CommentsCollected = 8
		store = newFakeStore(task)

		service, err := collector.NewService(newFakeAPI(), store, logger)
		Expect(err).NotTo(HaveOccurred())

		status, err := service.GetStatus(context.Background(), 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(status.Progress.Percentage).To(BeNumerically(">", 0))
		Expect(status.Progress.Percentage).To(BeNumerically("<", 100))
	})

	It("propagates not-found", func() {
		store = newFakeStore()
		service, err := collector.NewService(newFakeAPI(), store, logger)
		Expect(err).NotTo(HaveOccurred())

		_, err = service.GetStatus(context.Background(), 9)
		Expect(err).To(MatchError(collector.ErrTaskNotFound))
	})
})
