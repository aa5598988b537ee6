package models

import (
	"time"
)

// Post represents the database model for one collected wall post.
// The natural key is (task_id, vk_post_id); concurrent writes for the
// same key converge on the latest values.
type Post struct {
	ID       uint  `gorm:"primaryKey;column:id"`
	TaskID   uint  `gorm:"column:task_id;not null;uniqueIndex:idx_posts_task_vk_post"`
	VKPostID int64 `gorm:"column:vk_post_id;not null;uniqueIndex:idx_posts_task_vk_post"`

	GroupID int64  `gorm:"column:group_id;not null"`
	OwnerID int64  `gorm:"column:owner_id;not null"`
	Text    string `gorm:"column:text"`
	Likes   int    `gorm:"column:likes;not null;default:0"`

	PostedAt    time.Time `gorm:"column:posted_at"`
	CollectedAt time.Time `gorm:"column:collected_at;not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time `gorm:"column:updated_at;not null"`
}

// TableName specifies the table name for the Post model
func (Post) TableName() string {
	return "posts"
}
