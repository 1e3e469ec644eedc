package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/ScarletStudies/api/config"
	"github.com/ScarletStudies/api/models"
	"github.com/ScarletStudies/api/routes"
	"github.com/ScarletStudies/api/tasks"
	"github.com/ScarletStudies/api/tokens"
	"github.com/ScarletStudies/api/utils"
)

// recordingMailer captures outgoing mail for assertions.
type recordingMailer struct {
	sent []sentMail
}

type sentMail struct {
	To      string
	Subject string
	Body    string
}

func (m *recordingMailer) Send(to, subject, body string) error {
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

// fakeQueue records enqueued jobs instead of touching Redis.
type fakeQueue struct {
	jobs []tasks.Job
}

func (q *fakeQueue) Enqueue(_ context.Context, job tasks.Job) error {
	q.jobs = append(q.jobs, job)
	return nil
}

func (q *fakeQueue) lastJob(t *testing.T) tasks.Job {
	t.Helper()
	require.NotEmpty(t, q.jobs)
	return q.jobs[len(q.jobs)-1]
}

type testEnv struct {
	t        *testing.T
	db       *gorm.DB
	cfg      config.Config
	tokens   *tokens.Manager
	queue    *fakeQueue
	router   *gin.Engine
	sentinel models.User
	courses  []models.Course
	cats     []models.Category
	sems     []models.Semester
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.Course{}, &models.Category{},
		&models.Semester{}, &models.Post{}, &models.Comment{},
	))

	cfg := config.Config{
		GinMode:            "test",
		JWTSecret:          "test-secret",
		EmailDomain:        "@scarletmail.rutgers.edu",
		SentinelEmail:      "deleted@scarletstudies.org",
		SiteBaseURL:        "https://app.test",
		LogLevel:           "error",
		RateLimitPerMinute: 10000,
		AllowedOrigins:     []string{"*"},
	}

	sentinel, err := config.EnsureSentinel(db, cfg)
	require.NoError(t, err)

	env := &testEnv{
		t:        t,
		db:       db,
		cfg:      cfg,
		tokens:   tokens.NewManager(cfg.JWTSecret),
		queue:    &fakeQueue{},
		sentinel: *sentinel,
	}

	env.courses = []models.Course{
		{Name: "Data Structures", OfferingUnit: "01", Subject: "198", CourseNumber: "112"},
		{Name: "Linear Algebra", OfferingUnit: "01", Subject: "640", CourseNumber: "250"},
	}
	for i := range env.courses {
		require.NoError(t, db.Create(&env.courses[i]).Error)
	}

	env.cats = []models.Category{{Name: "Exam"}, {Name: "Lecture"}}
	for i := range env.cats {
		require.NoError(t, db.Create(&env.cats[i]).Error)
	}

	env.sems = []models.Semester{
		{Year: 2023, Season: "fall"},
		{Year: 2024, Season: "spring"},
	}
	for i := range env.sems {
		require.NoError(t, db.Create(&env.sems[i]).Error)
	}

	env.router = routes.SetupRouter(cfg, db, env.tokens, env.queue, nil)
	return env
}

// createUser inserts a user directly and returns it with a session token.
func (e *testEnv) createUser(email, password string, verified bool) (models.User, string) {
	e.t.Helper()

	hash, err := utils.HashPassword(password)
	require.NoError(e.t, err)

	user := models.User{Email: email, Password: hash, IsVerified: verified}
	require.NoError(e.t, e.db.Create(&user).Error)

	token, err := e.tokens.Issue(user.ID, user.Email)
	require.NoError(e.t, err)
	return user, token
}

type postParams struct {
	Title     string
	Content   string
	AuthorID  uint
	CourseID  uint
	CatID     uint
	CreatedAt time.Time
	DueDate   *time.Time
	Archived  bool
}

func (e *testEnv) createPost(p postParams) models.Post {
	e.t.Helper()

	if p.CourseID == 0 {
		p.CourseID = e.courses[0].ID
	}
	if p.CatID == 0 {
		p.CatID = e.cats[0].ID
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	post := models.Post{
		Title:      p.Title,
		Content:    p.Content,
		CreatedAt:  p.CreatedAt,
		IsArchived: p.Archived,
		DueDate:    p.DueDate,
		AuthorID:   p.AuthorID,
		CourseID:   p.CourseID,
		CategoryID: p.CatID,
		SemesterID: e.sems[len(e.sems)-1].ID,
	}
	require.NoError(e.t, e.db.Create(&post).Error)
	return post
}

func (e *testEnv) createComment(postID, authorID uint, content string, createdAt time.Time) models.Comment {
	e.t.Helper()
	comment := models.Comment{PostID: postID, AuthorID: authorID, Content: content, CreatedAt: createdAt}
	require.NoError(e.t, e.db.Create(&comment).Error)
	return comment
}

// do performs a request against the router and returns the recorder.
func (e *testEnv) do(method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	e.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(e.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// decode unpacks the response envelope; out may be nil to skip the payload.
func (e *testEnv) decode(w *httptest.ResponseRecorder, out interface{}) envelope {
	e.t.Helper()

	var env envelope
	require.NoError(e.t, json.Unmarshal(w.Body.Bytes(), &env), "body: %s", w.Body.String())
	if out != nil {
		require.NoError(e.t, json.Unmarshal(env.Data, out), "data: %s", string(env.Data))
	}
	return env
}

// postPage mirrors the ListPosts payload.
type postPage struct {
	Items    []models.Post `json:"items"`
	Total    int64         `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
}

func (e *testEnv) listPosts(query, token string) (postPage, *httptest.ResponseRecorder) {
	e.t.Helper()

	path := "/posts"
	if query != "" {
		path += "?" + query
	}
	w := e.do(http.MethodGet, path, nil, token)
	require.Equal(e.t, http.StatusOK, w.Code, "body: %s", w.Body.String())

	var page postPage
	e.decode(w, &page)
	return page, w
}
