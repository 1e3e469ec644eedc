package models

import "time"

// RedactedContent replaces the body of posts and comments whose author asked
// for removal. Rows are never physically deleted; see the account deletion task.
const RedactedContent = "[removed]"

// User represents a registered account. Passwords are stored as bcrypt hashes only.
// Accounts start unverified and cannot authenticate until the emailed
// verification token is exchanged.
type User struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Email      string    `gorm:"size:128;not null;uniqueIndex" json:"email"`
	Password   string    `gorm:"size:256;not null" json:"-"`
	IsVerified bool      `gorm:"not null;default:false" json:"-"`
	CreatedAt  time.Time `json:"created_at"`

	Courses []Course `gorm:"many2many:user_courses" json:"-"`
}
