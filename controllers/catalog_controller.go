package controllers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ScarletStudies/api/apperrors"
	"github.com/ScarletStudies/api/models"
	"github.com/ScarletStudies/api/utils"
)

// catalogCacheTTL bounds staleness for cached reference data. Courses,
// categories, and semesters only change on admin reseed.
const catalogCacheTTL = time.Hour

// CatalogController serves the immutable reference data: courses, categories,
// and semesters.
type CatalogController struct {
	db    *gorm.DB
	cache *utils.Cache
}

// NewCatalogController creates a CatalogController. cache may be nil.
func NewCatalogController(db *gorm.DB, cache *utils.Cache) *CatalogController {
	return &CatalogController{db: db, cache: cache}
}

// ListCourses returns courses, optionally filtered by a substring query over
// name, subject, and course number.
func (c *CatalogController) ListCourses(ctx *gin.Context) {
	query := ctx.Query("query")
	limit := 100
	if v := ctx.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			utils.ErrorFrom(ctx, apperrors.Validation("limit %q is not a positive integer", v))
			return
		}
		limit = n
	}

	cacheKey := fmt.Sprintf("cache:courses:query=%s:limit=%d", query, limit)
	if b, ok := c.cache.GetBytes(ctx.Request.Context(), cacheKey); ok {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}

	q := c.db.Order("name")
	if query != "" {
		pattern := "%" + query + "%"
		q = q.Where(
			c.db.Where("name LIKE ?", pattern).
				Or("subject LIKE ?", pattern).
				Or("course_number LIKE ?", pattern),
		)
	}

	courses := []models.Course{}
	if err := q.Limit(limit).Find(&courses).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50050, "failed to list courses")
		return
	}

	payload := gin.H{"courses": courses}
	c.cache.SetJSON(ctx.Request.Context(), cacheKey, utils.JSONResponse{Code: 0, Message: "success", Data: payload}, catalogCacheTTL)
	utils.Success(ctx, payload)
}

// GetCourse returns a single course by id.
func (c *CatalogController) GetCourse(ctx *gin.Context) {
	var course models.Course
	if err := c.db.First(&course, ctx.Param("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.ErrorFrom(ctx, apperrors.NotFound("course %s doesn't exist", ctx.Param("id")))
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50051, "failed to load course")
		return
	}
	utils.Success(ctx, gin.H{"course": course})
}

// ListCategories returns all categories.
func (c *CatalogController) ListCategories(ctx *gin.Context) {
	const cacheKey = "cache:categories"
	if b, ok := c.cache.GetBytes(ctx.Request.Context(), cacheKey); ok {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}

	categories := []models.Category{}
	if err := c.db.Order("id").Find(&categories).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50052, "failed to list categories")
		return
	}

	payload := gin.H{"categories": categories}
	c.cache.SetJSON(ctx.Request.Context(), cacheKey, utils.JSONResponse{Code: 0, Message: "success", Data: payload}, catalogCacheTTL)
	utils.Success(ctx, payload)
}

// ListSemesters returns semesters newest first.
func (c *CatalogController) ListSemesters(ctx *gin.Context) {
	semesters := []models.Semester{}
	if err := c.db.Order("id DESC").Find(&semesters).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50053, "failed to list semesters")
		return
	}
	utils.Success(ctx, gin.H{"semesters": semesters})
}

// CurrentSemester returns the most recently created semester.
func (c *CatalogController) CurrentSemester(ctx *gin.Context) {
	var semester models.Semester
	if err := c.db.Order("id DESC").First(&semester).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.ErrorFrom(ctx, apperrors.NotFound("no semester configured"))
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50054, "failed to load semester")
		return
	}
	utils.Success(ctx, gin.H{"semester": semester})
}
