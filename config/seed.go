package config

import (
	"gorm.io/gorm"

	"github.com/ScarletStudies/api/models"
)

// SeedReferenceData populates empty reference tables with the bootstrap
// catalog: courses, categories, and a starting semester. Tables that already
// hold rows are left alone, so running it against a live database is a no-op.
func SeedReferenceData(db *gorm.DB) error {
	if err := seedEmpty(db, &models.Category{}, []models.Category{
		{Name: "Exam"},
		{Name: "Lecture"},
		{Name: "Recitation"},
		{Name: "Homework"},
	}); err != nil {
		return err
	}

	if err := seedEmpty(db, &models.Semester{}, []models.Semester{
		{Year: 2018, Season: "spring"},
	}); err != nil {
		return err
	}

	return seedEmpty(db, &models.Course{}, []models.Course{
		{Name: "Programming I", OfferingUnit: "21", Subject: "98", CourseNumber: "101"},
		{Name: "Programming II", OfferingUnit: "21", Subject: "98", CourseNumber: "102"},
		{Name: "Linear Algebra", OfferingUnit: "21", Subject: "640", CourseNumber: "350"},
		{Name: "Calc I", OfferingUnit: "21", Subject: "640", CourseNumber: "135"},
		{Name: "Calc II", OfferingUnit: "21", Subject: "640", CourseNumber: "136"},
		{Name: "Calc III", OfferingUnit: "21", Subject: "640", CourseNumber: "235"},
		{Name: "Foundations of Modern Math", OfferingUnit: "21", Subject: "640", CourseNumber: "238"},
		{Name: "Elementary Differential Equations", OfferingUnit: "21", Subject: "640", CourseNumber: "314"},
		{Name: "Probability and Statistics", OfferingUnit: "21", Subject: "640", CourseNumber: "327"},
		{Name: "Topology I", OfferingUnit: "21", Subject: "640", CourseNumber: "441"},
		{Name: "Theory of Numbers", OfferingUnit: "21", Subject: "640", CourseNumber: "456"},
		{Name: "Numerical Analysis", OfferingUnit: "21", Subject: "640", CourseNumber: "473"},
	})
}

func seedEmpty(db *gorm.DB, model interface{}, rows interface{}) error {
	var count int64
	if err := db.Model(model).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	return db.Create(rows).Error
}
