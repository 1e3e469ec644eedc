package models

// Semester is admin-seeded reference data. The current semester is the row
// with the highest id.
type Semester struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	Year   int    `gorm:"not null" json:"year"`
	Season string `gorm:"size:16;not null" json:"season"`
}
