package models

import (
	"time"
)

// Comment represents the database model for one collected comment.
// The natural key is (vk_post_id, vk_comment_id).
type Comment struct {
	ID          uint  `gorm:"primaryKey;column:id"`
	VKPostID    int64 `gorm:"column:vk_post_id;not null;uniqueIndex:idx_comments_post_comment"`
	VKCommentID int64 `gorm:"column:vk_comment_id;not null;uniqueIndex:idx_comments_post_comment"`

	FromID int64  `gorm:"column:from_id;not null"`
	Text   string `gorm:"column:text"`
	Likes  int    `gorm:"column:likes;not null;default:0"`

	PostedAt    time.Time `gorm:"column:posted_at"`
	CollectedAt time.Time `gorm:"column:collected_at;not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time `gorm:"column:updated_at;not null"`
}

// TableName specifies the table name for the Comment model
func (Comment) TableName() string {
	return "comments"
}
