package models

// Course is admin-seeded reference data identifying a university course.
type Course struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	Name         string `gorm:"size:128;not null" json:"name"`
	OfferingUnit string `gorm:"size:8;not null" json:"offering_unit"`
	Subject      string `gorm:"size:8;not null" json:"subject"`
	CourseNumber string `gorm:"size:8;not null" json:"course_number"`
}
