package vk

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/sirupsen/logrus"
)

// ListComments fetches every page of the comment thread under one wall
// post, accumulating all pages into a single slice. Pagination stops
// when a page comes back shorter than the page size.
func (c *Client) ListComments(ctx context.Context, groupID, postID int64) ([]Comment, error) {
	log := c.logger.WithFields(logrus.Fields{
		"method":   "ListComments",
		"group_id": groupID,
		"post_id":  postID,
	})

	var comments []Comment
	offset := 0

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		params := url.Values{}
		params.Set("owner_id", strconv.FormatInt(-groupID, 10))
		params.Set("post_id", strconv.FormatInt(postID, 10))
		params.Set("count", strconv.Itoa(c.config.CommentsPageSize))
		params.Set("offset", strconv.Itoa(offset))

		body, err := c.requestWithRetry(ctx, c.config.CommentsEndpoint, params)
		if err != nil {
			return nil, fmt.Errorf("wall.getComments failed for post %d: %w", postID, err)
		}

		payloads, total, err := decodeList[commentPayload](body)
		if err != nil {
			return nil, fmt.Errorf("wall.getComments decode failed for post %d: %w", postID, err)
		}

		for _, p := range payloads {
			comments = append(comments, p.normalize(postID))
		}

		log.WithFields(logrus.Fields{
			"page_size": len(payloads),
			"offset":    offset,
			"total":     total,
		}).Debug("Fetched comment page")

		if len(payloads) < c.config.CommentsPageSize {
			break
		}
		offset += len(payloads)
	}

	log.WithField("comments_count", len(comments)).Debug("Fetched all comments")
	return comments, nil
}
