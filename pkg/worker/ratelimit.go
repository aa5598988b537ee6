package worker

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/lisanmuaddib/collector-go/pkg/collector"
	"github.com/lisanmuaddib/collector-go/pkg/interfaces/vk"
)

// RateLimitedAPI decorates a ContentAPI with a shared token-bucket
// limiter. Every concurrently running job goes through the same
// limiter, so the calls-per-minute cap holds system-wide regardless of
// pool size.
type RateLimitedAPI struct {
	api     collector.ContentAPI
	limiter *rate.Limiter
}

// NewRateLimitedAPI wraps an API client with the given limiter.
func NewRateLimitedAPI(api collector.ContentAPI, limiter *rate.Limiter) *RateLimitedAPI {
	return &RateLimitedAPI{
		api:     api,
		limiter: limiter,
	}
}

// NewCallsPerMinuteLimiter builds the shared limiter for a
// calls-per-minute budget with burst 1, the conservative shape used
// against the external API.
func NewCallsPerMinuteLimiter(callsPerMinute int) *rate.Limiter {
	interval := rate.Limit(float64(callsPerMinute) / 60.0)
	return rate.NewLimiter(interval, 1)
}

func (r *RateLimitedAPI) ListWallPosts(ctx context.Context, groupID int64) ([]vk.WallPost, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return r.api.ListWallPosts(ctx, groupID)
}

func (r *RateLimitedAPI) ListComments(ctx context.Context, groupID, postID int64) ([]vk.Comment, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return r.api.ListComments(ctx, groupID, postID)
}
