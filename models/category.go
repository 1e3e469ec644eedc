package models

// Category is admin-seeded reference data grouping posts (Exam, Lecture, ...).
type Category struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:32;not null" json:"name"`
}
