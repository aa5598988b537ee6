package vk

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/sirupsen/logrus"
)

// ListWallPosts fetches the first page of wall posts for a community.
//
// groupID is the canonical positive community identifier; the wire
// convention of negative owner_id for communities is applied here, once.
// Only the first page is fetched: the pipeline bounds per-source work
// deliberately, so callers wanting deeper history must page themselves.
func (c *Client) ListWallPosts(ctx context.Context, groupID int64) ([]WallPost, error) {
	log := c.logger.WithFields(logrus.Fields{
		"method":   "ListWallPosts",
		"group_id": groupID,
	})

	params := url.Values{}
	params.Set("owner_id", strconv.FormatInt(-groupID, 10))
	params.Set("count", strconv.Itoa(c.config.WallPageSize))

	body, err := c.requestWithRetry(ctx, c.config.WallEndpoint, params)
	if err != nil {
		return nil, fmt.Errorf("wall.get failed for group %d: %w", groupID, err)
	}

	payloads, total, err := decodeList[wallPostPayload](body)
	if err != nil {
		return nil, fmt.Errorf("wall.get decode failed for group %d: %w", groupID, err)
	}

	posts := make([]WallPost, 0, len(payloads))
	for _, p := range payloads {
		posts = append(posts, p.normalize(groupID))
	}

	log.WithFields(logrus.Fields{
		"fetched": len(posts),
		"total":   total,
	}).Debug("Fetched wall posts")

	return posts, nil
}
