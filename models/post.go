package models

import "time"

// Post is a forum entry scoped to a course, category, and semester.
// Content is sanitized HTML. Posts are never physically deleted; owner
// deletion rewrites the content to RedactedContent and reassigns the author
// to the sentinel account.
type Post struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	Title      string     `gorm:"size:255;not null" json:"title"`
	Content    string     `gorm:"type:text;not null" json:"content"`
	CreatedAt  time.Time  `json:"timestamp"`
	IsArchived bool       `gorm:"not null;default:false" json:"is_archived"`
	DueDate    *time.Time `json:"due_date"`

	AuthorID   uint `gorm:"index;not null" json:"-"`
	CourseID   uint `gorm:"index;not null" json:"-"`
	CategoryID uint `gorm:"index;not null" json:"-"`
	SemesterID uint `gorm:"not null" json:"-"`

	Author   User      `json:"author"`
	Course   Course    `json:"course"`
	Category Category  `json:"category"`
	Semester Semester  `json:"semester"`
	Comments []Comment `json:"comments"`
	Cheers   []User    `gorm:"many2many:user_post_cheers" json:"cheers"`
}
