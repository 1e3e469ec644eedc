package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ScarletStudies/api/apperrors"
	"github.com/ScarletStudies/api/config"
	"github.com/ScarletStudies/api/middleware"
	"github.com/ScarletStudies/api/models"
	"github.com/ScarletStudies/api/utils"
)

// PageSize is the fixed number of posts per result page.
const PageSize = 20

const dateLayout = "2006-01-02"

// PostController serves post retrieval, creation, comments, and cheers.
type PostController struct {
	db  *gorm.DB
	cfg config.Config
}

// NewPostController creates a PostController.
func NewPostController(db *gorm.DB, cfg config.Config) *PostController {
	return &PostController{db: db, cfg: cfg}
}

// postFilters carries the parsed multi-dimensional query for ListPosts.
type postFilters struct {
	courseIDs   []uint
	categoryIDs []uint
	query       string
	startDate   *time.Time
	endDate     *time.Time
	sort        string
	page        int
}

func parsePostFilters(ctx *gin.Context) (*postFilters, error) {
	f := &postFilters{sort: "time", page: 1}

	var err error
	if f.courseIDs, err = parseIDList(ctx.QueryArray("courses[]"), "courses[]"); err != nil {
		return nil, err
	}
	if f.categoryIDs, err = parseIDList(ctx.QueryArray("categories[]"), "categories[]"); err != nil {
		return nil, err
	}

	f.query = ctx.Query("query")

	if v := ctx.Query("start_date"); v != "" {
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			return nil, apperrors.Validation("start_date %q is not a valid date", v)
		}
		f.startDate = &t
	}
	if v := ctx.Query("end_date"); v != "" {
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			return nil, apperrors.Validation("end_date %q is not a valid date", v)
		}
		f.endDate = &t
	}

	if v := ctx.Query("sort"); v != "" {
		if v != "time" && v != "activity" {
			return nil, apperrors.Validation("sort %q is not one of time, activity", v)
		}
		f.sort = v
	}

	if v := ctx.Query("page"); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page < 1 {
			return nil, apperrors.Validation("page %q is not a positive integer", v)
		}
		f.page = page
	}

	return f, nil
}

func parseIDList(raw []string, param string) ([]uint, error) {
	ids := make([]uint, 0, len(raw))
	for _, s := range raw {
		id, err := strconv.ParseUint(s, 10, 32)
		if err != nil {
			return nil, apperrors.Validation("%s value %q is not an integer id", param, s)
		}
		ids = append(ids, uint(id))
	}
	return ids, nil
}

// apply adds the conjunctive filter conditions to a posts query.
func (f *postFilters) apply(db *gorm.DB, q *gorm.DB) *gorm.DB {
	if len(f.courseIDs) > 0 {
		q = q.Where("posts.course_id IN ?", f.courseIDs)
	}
	if len(f.categoryIDs) > 0 {
		q = q.Where("posts.category_id IN ?", f.categoryIDs)
	}
	if f.query != "" {
		pattern := "%" + f.query + "%"
		q = q.Where(db.Where("posts.title LIKE ?", pattern).Or("posts.content LIKE ?", pattern))
	}
	if f.endDate != nil {
		q = q.Where("posts.due_date < ?", *f.endDate)
	}
	if f.startDate != nil {
		// inclusive start expressed as strictly-after the previous day
		q = q.Where("posts.due_date > ?", f.startDate.AddDate(0, 0, -1))
	}
	return q
}

// ListPosts filters, sorts, and paginates posts.
//
// Sorting by activity ranks each post by its latest comment timestamp, or its
// own timestamp when it has none, newest first; ties break on post id
// descending.
func (p *PostController) ListPosts(ctx *gin.Context) {
	filters, err := parsePostFilters(ctx)
	if err != nil {
		utils.ErrorFrom(ctx, err)
		return
	}

	var total int64
	countQ := filters.apply(p.db, p.db.Model(&models.Post{}))
	if err := countQ.Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50060, "failed to count posts")
		return
	}

	listQ := filters.apply(p.db, p.db.Model(&models.Post{}))
	switch filters.sort {
	case "activity":
		listQ = listQ.
			Select("posts.*").
			Joins("LEFT JOIN comments ON comments.post_id = posts.id").
			Group("posts.id").
			Order("MAX(COALESCE(comments.created_at, posts.created_at)) DESC").
			Order("posts.id DESC")
	default:
		listQ = listQ.Order("posts.created_at DESC").Order("posts.id DESC")
	}

	var posts []models.Post
	err = listQ.
		Preload("Author").
		Preload("Course").
		Preload("Category").
		Preload("Semester").
		Preload("Comments", commentOrder).
		Preload("Comments.Author").
		Preload("Cheers").
		Offset((filters.page - 1) * PageSize).
		Limit(PageSize).
		Find(&posts).Error
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50061, "failed to list posts")
		return
	}

	utils.Success(ctx, gin.H{
		"items":     posts,
		"total":     total,
		"page":      filters.page,
		"page_size": PageSize,
	})
}

// GetPost returns a single post with comments and cheers.
func (p *PostController) GetPost(ctx *gin.Context) {
	post, err := p.loadPost(ctx.Param("id"))
	if err != nil {
		utils.ErrorFrom(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"post": post})
}

// CreatePost creates a post in the current semester authored by the requester.
func (p *PostController) CreatePost(ctx *gin.Context) {
	var req struct {
		Title      string `json:"title" binding:"required,min=1"`
		Content    string `json:"content" binding:"required"`
		DueDate    string `json:"due_date"`
		CategoryID uint   `json:"category_id" binding:"required"`
		CourseID   uint   `json:"course_id" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40140, "unauthorized")
		return
	}

	var dueDate *time.Time
	if req.DueDate != "" {
		t, err := time.Parse(dateLayout, req.DueDate)
		if err != nil {
			utils.ErrorFrom(ctx, apperrors.Validation("due_date %q is not a valid date", req.DueDate))
			return
		}
		dueDate = &t
	}

	var count int64
	if err := p.db.Model(&models.Category{}).Where("id = ?", req.CategoryID).Count(&count).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50072, "failed to validate category")
		return
	}
	if count == 0 {
		utils.ErrorFrom(ctx, apperrors.Validation("category %d is invalid", req.CategoryID))
		return
	}
	if err := p.db.Model(&models.Course{}).Where("id = ?", req.CourseID).Count(&count).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50073, "failed to validate course")
		return
	}
	if count == 0 {
		utils.ErrorFrom(ctx, apperrors.Validation("course %d is invalid", req.CourseID))
		return
	}

	var semester models.Semester
	if err := p.db.Order("id DESC").First(&semester).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50062, "no semester configured")
		return
	}

	post := models.Post{
		Title:      req.Title,
		Content:    utils.Sanitize(req.Content),
		DueDate:    dueDate,
		AuthorID:   userID,
		CourseID:   req.CourseID,
		CategoryID: req.CategoryID,
		SemesterID: semester.ID,
	}
	if err := p.db.Create(&post).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50063, "failed to create post")
		return
	}

	created, err := p.loadPost(strconv.Itoa(int(post.ID)))
	if err != nil {
		utils.ErrorFrom(ctx, err)
		return
	}
	utils.Created(ctx, gin.H{"post": created})
}

// DeletePost redacts a post the requester authored: the row stays, its content
// becomes the redaction marker, and authorship moves to the sentinel account.
func (p *PostController) DeletePost(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40141, "unauthorized")
		return
	}

	var post models.Post
	if err := p.db.First(&post, ctx.Param("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.ErrorFrom(ctx, apperrors.NotFound("post %s doesn't exist", ctx.Param("id")))
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50066, "failed to load post")
		return
	}

	if post.AuthorID != userID {
		utils.ErrorFrom(ctx, apperrors.Authorization("you can only delete your own posts"))
		return
	}

	if err := p.redact(&models.Post{}, post.ID); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50067, "failed to delete post")
		return
	}
	utils.Success(ctx, gin.H{"message": "post deleted"})
}

// CreateComment appends a comment to a post and returns the updated post.
func (p *PostController) CreateComment(ctx *gin.Context) {
	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40022, "invalid request payload")
		return
	}

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40144, "unauthorized")
		return
	}

	var post models.Post
	if err := p.db.First(&post, ctx.Param("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.ErrorFrom(ctx, apperrors.NotFound("post %s doesn't exist", ctx.Param("id")))
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50064, "failed to load post")
		return
	}
	if post.IsArchived {
		utils.ErrorFrom(ctx, apperrors.Validation("post %d is archived and cannot be commented on", post.ID))
		return
	}

	comment := models.Comment{
		PostID:   post.ID,
		AuthorID: userID,
		Content:  utils.Sanitize(req.Content),
	}
	if err := p.db.Create(&comment).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50065, "failed to create comment")
		return
	}

	updated, err := p.loadPost(ctx.Param("id"))
	if err != nil {
		utils.ErrorFrom(ctx, err)
		return
	}
	utils.Created(ctx, gin.H{"post": updated})
}

// DeleteComment redacts a comment the requester authored.
func (p *PostController) DeleteComment(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40142, "unauthorized")
		return
	}

	var comment models.Comment
	err := p.db.Where("post_id = ?", ctx.Param("id")).First(&comment, ctx.Param("cid")).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.ErrorFrom(ctx, apperrors.NotFound("comment %s doesn't exist", ctx.Param("cid")))
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50070, "failed to load comment")
		return
	}

	if comment.AuthorID != userID {
		utils.ErrorFrom(ctx, apperrors.Authorization("you can only delete your own comments"))
		return
	}

	if err := p.redact(&models.Comment{}, comment.ID); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50071, "failed to delete comment")
		return
	}
	utils.Success(ctx, gin.H{"message": "comment deleted"})
}

// Cheer adds the requester to the post's cheering set. Cheering twice is a
// no-op; there is no way to take a cheer back.
func (p *PostController) Cheer(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40143, "unauthorized")
		return
	}

	var post models.Post
	if err := p.db.First(&post, ctx.Param("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.ErrorFrom(ctx, apperrors.NotFound("post %s doesn't exist", ctx.Param("id")))
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50068, "failed to load post")
		return
	}

	err := p.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Table("user_post_cheers").
			Where("user_id = ? AND post_id = ?", userID, post.ID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}
		return tx.Exec("INSERT INTO user_post_cheers (user_id, post_id) VALUES (?, ?)", userID, post.ID).Error
	})
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50069, "failed to cheer post")
		return
	}

	updated, err := p.loadPost(ctx.Param("id"))
	if err != nil {
		utils.ErrorFrom(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"post": updated})
}

// redact rewrites a post or comment in place: content becomes the marker and
// authorship moves to the sentinel account.
func (p *PostController) redact(model interface{}, id uint) error {
	return p.db.Transaction(func(tx *gorm.DB) error {
		var sentinel models.User
		if err := tx.Where("email = ?", p.cfg.SentinelEmail).First(&sentinel).Error; err != nil {
			return err
		}
		return tx.Model(model).Where("id = ?", id).Updates(map[string]interface{}{
			"content":   models.RedactedContent,
			"author_id": sentinel.ID,
		}).Error
	})
}

func (p *PostController) loadPost(id string) (*models.Post, error) {
	var post models.Post
	err := p.db.
		Preload("Author").
		Preload("Course").
		Preload("Category").
		Preload("Semester").
		Preload("Comments", commentOrder).
		Preload("Comments.Author").
		Preload("Cheers").
		First(&post, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.NotFound("post %s doesn't exist", id)
		}
		return nil, err
	}
	return &post, nil
}

func commentOrder(db *gorm.DB) *gorm.DB {
	return db.Order("comments.created_at ASC").Order("comments.id ASC")
}

func getUserID(ctx *gin.Context) (uint, bool) {
	value, exists := ctx.Get(middleware.ContextUserIDKey)
	if !exists {
		return 0, false
	}
	id, ok := value.(uint)
	return id, ok
}
