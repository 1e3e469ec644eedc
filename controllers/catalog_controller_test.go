package controllers_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ScarletStudies/api/models"
)

func TestListCoursesPublic(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/courses", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var data struct {
		Courses []models.Course `json:"courses"`
	}
	env.decode(w, &data)
	require.Len(t, data.Courses, 2)
	// ordered by name
	assert.Equal(t, "Data Structures", data.Courses[0].Name)
	assert.Equal(t, "Linear Algebra", data.Courses[1].Name)
}

func TestListCoursesQuery(t *testing.T) {
	env := newTestEnv(t)

	var data struct {
		Courses []models.Course `json:"courses"`
	}

	w := env.do(http.MethodGet, "/courses?query=Linear", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	env.decode(w, &data)
	require.Len(t, data.Courses, 1)
	assert.Equal(t, "Linear Algebra", data.Courses[0].Name)

	// subject numbers match too
	w = env.do(http.MethodGet, "/courses?query=198", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	env.decode(w, &data)
	require.Len(t, data.Courses, 1)
	assert.Equal(t, "Data Structures", data.Courses[0].Name)
}

func TestListCoursesLimit(t *testing.T) {
	env := newTestEnv(t)

	var data struct {
		Courses []models.Course `json:"courses"`
	}
	w := env.do(http.MethodGet, "/courses?limit=1", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	env.decode(w, &data)
	assert.Len(t, data.Courses, 1)

	w = env.do(http.MethodGet, "/courses?limit=0", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetCourse(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, fmt.Sprintf("/courses/%d", env.courses[0].ID), nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var data struct {
		Course models.Course `json:"course"`
	}
	env.decode(w, &data)
	assert.Equal(t, env.courses[0].Name, data.Course.Name)

	w = env.do(http.MethodGet, "/courses/999", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListCategories(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/categories", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var data struct {
		Categories []models.Category `json:"categories"`
	}
	env.decode(w, &data)
	require.Len(t, data.Categories, 2)
	assert.Equal(t, "Exam", data.Categories[0].Name)
}

func TestListSemestersNewestFirst(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/semesters", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var data struct {
		Semesters []models.Semester `json:"semesters"`
	}
	env.decode(w, &data)
	require.Len(t, data.Semesters, 2)
	assert.Equal(t, 2024, data.Semesters[0].Year)
	assert.Equal(t, 2023, data.Semesters[1].Year)
}

func TestCurrentSemester(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/semesters/current", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var data struct {
		Semester models.Semester `json:"semester"`
	}
	env.decode(w, &data)
	assert.Equal(t, 2024, data.Semester.Year)
	assert.Equal(t, "spring", data.Semester.Season)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
}
