package models

import "time"

// Comment is a reply to a post. Same redaction-on-delete semantics as Post.
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `json:"timestamp"`

	PostID   uint `gorm:"index;not null" json:"-"`
	AuthorID uint `gorm:"index;not null" json:"-"`

	Author User `json:"author"`
}
