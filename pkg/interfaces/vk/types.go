// Package vk provides a client for the VK wall API used by the
// collection pipeline: group wall listings and their comment threads.
package vk

import "time"

// WallPost is one normalized top-level wall entry belonging to a group.
type WallPost struct {
	ID      int64
	OwnerID int64
	// GroupID is the canonical positive community identifier
	GroupID int64
	Text    string
	Likes   int
	Date    time.Time
}

// Comment is one normalized reply attached to a wall post.
type Comment struct {
	ID     int64
	PostID int64
	FromID int64
	Text   string
	Likes  int
	Date   time.Time
}

// wallPostPayload mirrors the wall.get item wire shape.
type wallPostPayload struct {
	ID      int64  `json:"id"`
	OwnerID int64  `json:"owner_id"`
	FromID  int64  `json:"from_id"`
	Text    string `json:"text"`
	// Date is epoch seconds on the wire
	Date  int64 `json:"date"`
	Likes struct {
		Count int `json:"count"`
	} `json:"likes"`
}

// commentPayload mirrors the wall.getComments item wire shape.
type commentPayload struct {
	ID     int64  `json:"id"`
	FromID int64  `json:"from_id"`
	PostID int64  `json:"post_id"`
	Text   string `json:"text"`
	Date   int64  `json:"date"`
	Likes  struct {
		Count int `json:"count"`
	} `json:"likes"`
}

// listResponse is the generic VK success envelope for list methods.
type listResponse[T any] struct {
	Response struct {
		Count int `json:"count"`
		Items []T `json:"items"`
	} `json:"response"`
	Error *apiErrorPayload `json:"error,omitempty"`
}

func (p wallPostPayload) normalize(groupID int64) WallPost {
	return WallPost{
		ID:      p.ID,
		OwnerID: p.OwnerID,
		GroupID: groupID,
		Text:    p.Text,
		Likes:   p.Likes.Count,
		Date:    time.Unix(p.Date, 0).UTC(),
	}
}

func (p commentPayload) normalize(postID int64) Comment {
	id := p.PostID
	if id == 0 {
		id = postID
	}
	return Comment{
		ID:     p.ID,
		PostID: id,
		FromID: p.FromID,
		Text:   p.Text,
		Likes:  p.Likes.Count,
		Date:   time.Unix(p.Date, 0).UTC(),
	}
}
