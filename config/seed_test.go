package config

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ScarletStudies/api/models"
)

func newSeedTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.Course{}, &models.Category{},
		&models.Semester{}, &models.Post{}, &models.Comment{},
	))
	return db
}

func TestSeedReferenceData(t *testing.T) {
	db := newSeedTestDB(t)

	require.NoError(t, SeedReferenceData(db))

	var categories []models.Category
	require.NoError(t, db.Order("id").Find(&categories).Error)
	require.Len(t, categories, 4)
	assert.Equal(t, "Exam", categories[0].Name)
	assert.Equal(t, "Homework", categories[3].Name)

	var courseCount int64
	require.NoError(t, db.Model(&models.Course{}).Count(&courseCount).Error)
	assert.EqualValues(t, 12, courseCount)

	var semester models.Semester
	require.NoError(t, db.Order("id DESC").First(&semester).Error)
	assert.Equal(t, 2018, semester.Year)
}

func TestSeedReferenceDataIsIdempotent(t *testing.T) {
	db := newSeedTestDB(t)

	require.NoError(t, SeedReferenceData(db))
	require.NoError(t, SeedReferenceData(db))

	var categoryCount, courseCount, semesterCount int64
	require.NoError(t, db.Model(&models.Category{}).Count(&categoryCount).Error)
	require.NoError(t, db.Model(&models.Course{}).Count(&courseCount).Error)
	require.NoError(t, db.Model(&models.Semester{}).Count(&semesterCount).Error)
	assert.EqualValues(t, 4, categoryCount)
	assert.EqualValues(t, 12, courseCount)
	assert.EqualValues(t, 1, semesterCount)
}

func TestSeedReferenceDataKeepsExistingRows(t *testing.T) {
	db := newSeedTestDB(t)

	require.NoError(t, db.Create(&models.Course{
		Name: "Data Structures", OfferingUnit: "01", Subject: "198", CourseNumber: "112",
	}).Error)

	require.NoError(t, SeedReferenceData(db))

	// a populated table is left alone; empty ones are still filled
	var courses []models.Course
	require.NoError(t, db.Find(&courses).Error)
	require.Len(t, courses, 1)
	assert.Equal(t, "Data Structures", courses[0].Name)

	var categoryCount int64
	require.NoError(t, db.Model(&models.Category{}).Count(&categoryCount).Error)
	assert.EqualValues(t, 4, categoryCount)
}
