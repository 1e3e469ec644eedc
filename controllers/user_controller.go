package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ScarletStudies/api/apperrors"
	"github.com/ScarletStudies/api/config"
	"github.com/ScarletStudies/api/models"
	"github.com/ScarletStudies/api/tasks"
	"github.com/ScarletStudies/api/tokens"
	"github.com/ScarletStudies/api/utils"
)

// Password length bounds enforced at registration and password change.
const (
	PasswordMinLength = 10
	PasswordMaxLength = 32
)

// UserController handles the account lifecycle: registration, verification,
// login, password management, deletion, and course enrollment.
type UserController struct {
	db     *gorm.DB
	cfg    config.Config
	tokens *tokens.Manager
	queue  tasks.Queue
}

// NewUserController creates a UserController.
func NewUserController(db *gorm.DB, cfg config.Config, tm *tokens.Manager, queue tasks.Queue) *UserController {
	return &UserController{db: db, cfg: cfg, tokens: tm, queue: queue}
}

type credentialsRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type emailRequest struct {
	Email string `json:"email" binding:"required"`
}

type tokenRequest struct {
	Token string `json:"token" binding:"required"`
}

// Register creates an unverified account and queues the verification email.
// The caller cannot authenticate until the account is verified.
func (u *UserController) Register(ctx *gin.Context) {
	var req credentialsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40010, "invalid request payload")
		return
	}

	email := strings.TrimSpace(strings.ToLower(req.Email))
	if !strings.HasSuffix(email, u.cfg.EmailDomain) {
		utils.ErrorFrom(ctx, apperrors.Validation("email must end with %s", u.cfg.EmailDomain))
		return
	}
	if err := validatePassword(req.Password); err != nil {
		utils.ErrorFrom(ctx, err)
		return
	}

	var count int64
	if err := u.db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50010, "failed to check email")
		return
	}
	if count > 0 {
		utils.ErrorFrom(ctx, apperrors.Validation("email %s is already registered", email))
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50011, "failed to hash password")
		return
	}

	user := models.User{Email: email, Password: hash}
	if err := u.db.Create(&user).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50012, "failed to create user")
		return
	}

	if !u.enqueue(ctx, tasks.TypeVerificationEmail, tasks.EmailPayload{Email: email}) {
		return
	}
	utils.Created(ctx, gin.H{"email": email})
}

// ResendVerification queues another verification email for an unverified account.
func (u *UserController) ResendVerification(ctx *gin.Context) {
	var req emailRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40011, "invalid request payload")
		return
	}

	email := strings.TrimSpace(strings.ToLower(req.Email))
	var user models.User
	if err := u.db.Where("email = ?", email).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.ErrorFrom(ctx, apperrors.Validation("email %s is not registered", email))
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50013, "failed to load user")
		return
	}
	if user.IsVerified {
		utils.ErrorFrom(ctx, apperrors.Validation("account is already verified"))
		return
	}

	if !u.enqueue(ctx, tasks.TypeVerificationEmail, tasks.EmailPayload{Email: email}) {
		return
	}
	utils.Success(ctx, gin.H{"email": email})
}

// Verify exchanges an emailed verification token for a verified account and a
// session token.
func (u *UserController) Verify(ctx *gin.Context) {
	var req tokenRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40012, "invalid request payload")
		return
	}

	userID, err := u.tokens.VerifyVerification(req.Token)
	if err != nil {
		utils.ErrorFrom(ctx, apperrors.Authentication("invalid or expired verification token"))
		return
	}

	var user models.User
	if err := u.db.First(&user, userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.ErrorFrom(ctx, apperrors.Authentication("invalid or expired verification token"))
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50014, "failed to load user")
		return
	}

	if !user.IsVerified {
		if err := u.db.Model(&user).Update("is_verified", true).Error; err != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50015, "failed to verify user")
			return
		}
	}

	u.respondWithSession(ctx, &user)
}

// Login authenticates with email and password.
func (u *UserController) Login(ctx *gin.Context) {
	var req credentialsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40013, "invalid request payload")
		return
	}

	email := strings.TrimSpace(strings.ToLower(req.Email))
	var user models.User
	if err := u.db.Where("email = ?", email).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.ErrorFrom(ctx, apperrors.Authentication("invalid email or password"))
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50016, "failed to load user")
		return
	}
	if !utils.CheckPassword(user.Password, req.Password) {
		utils.ErrorFrom(ctx, apperrors.Authentication("invalid email or password"))
		return
	}
	if !user.IsVerified {
		utils.ErrorFrom(ctx, apperrors.Validation("account is not verified, check your email for the verification link"))
		return
	}

	u.respondWithSession(ctx, &user)
}

// MagicLogin authenticates with a signed token delivered out-of-band (the
// password reset email). It does not change verification state.
func (u *UserController) MagicLogin(ctx *gin.Context) {
	var req tokenRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40014, "invalid request payload")
		return
	}

	claims, err := u.tokens.Verify(req.Token)
	if err != nil {
		utils.ErrorFrom(ctx, apperrors.Authentication("invalid or expired token"))
		return
	}

	var user models.User
	if err := u.db.First(&user, claims.UserID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.ErrorFrom(ctx, apperrors.Authentication("invalid or expired token"))
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50017, "failed to load user")
		return
	}
	if !user.IsVerified {
		utils.ErrorFrom(ctx, apperrors.Validation("account is not verified, check your email for the verification link"))
		return
	}

	u.respondWithSession(ctx, &user)
}

// Refresh exchanges a session token for a fresh one. Tokens younger than the
// refresh floor or older than the refresh window are rejected.
func (u *UserController) Refresh(ctx *gin.Context) {
	var req tokenRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40015, "invalid request payload")
		return
	}

	fresh, err := u.tokens.Refresh(req.Token)
	if err != nil {
		utils.ErrorFrom(ctx, apperrors.Authentication("token cannot be refreshed: %v", err))
		return
	}

	claims, err := u.tokens.Verify(fresh)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50018, "failed to issue token")
		return
	}
	utils.Success(ctx, gin.H{"jwt": fresh, "email": claims.Email})
}

// ChangePassword replaces the stored credential after re-verifying the old one.
func (u *UserController) ChangePassword(ctx *gin.Context) {
	var req struct {
		OldPassword string `json:"old_password" binding:"required"`
		NewPassword string `json:"new_password" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40016, "invalid request payload")
		return
	}

	user, ok := u.currentUser(ctx)
	if !ok {
		return
	}
	if !utils.CheckPassword(user.Password, req.OldPassword) {
		utils.ErrorFrom(ctx, apperrors.Authentication("current password is incorrect"))
		return
	}
	if err := validatePassword(req.NewPassword); err != nil {
		utils.ErrorFrom(ctx, err)
		return
	}

	hash, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50019, "failed to hash password")
		return
	}
	if err := u.db.Model(user).Update("password", hash).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50020, "failed to update password")
		return
	}
	utils.Success(ctx, gin.H{"email": user.Email})
}

// ForgotPassword queues a magic-login email for a password reset.
func (u *UserController) ForgotPassword(ctx *gin.Context) {
	var req emailRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40017, "invalid request payload")
		return
	}

	email := strings.TrimSpace(strings.ToLower(req.Email))
	var count int64
	if err := u.db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50021, "failed to load user")
		return
	}
	if count == 0 {
		utils.ErrorFrom(ctx, apperrors.Validation("email %s is not registered", email))
		return
	}

	if !u.enqueue(ctx, tasks.TypePasswordResetEmail, tasks.EmailPayload{Email: email}) {
		return
	}
	utils.Success(ctx, gin.H{"email": email})
}

// Remove re-verifies the password and queues the asynchronous account
// deletion job. The account still exists when this call returns; the worker
// reassigns content to the sentinel account and removes the user row.
func (u *UserController) Remove(ctx *gin.Context) {
	var req struct {
		Password      string `json:"password" binding:"required"`
		RemoveContent bool   `json:"remove_content"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40018, "invalid request payload")
		return
	}

	user, ok := u.currentUser(ctx)
	if !ok {
		return
	}
	if !utils.CheckPassword(user.Password, req.Password) {
		utils.ErrorFrom(ctx, apperrors.Authentication("password is incorrect"))
		return
	}
	if user.Email == u.cfg.SentinelEmail {
		utils.ErrorFrom(ctx, apperrors.Authorization("this account cannot be deleted"))
		return
	}

	payload := tasks.DeletionPayload{UserID: user.ID, RemoveContent: req.RemoveContent}
	if !u.enqueue(ctx, tasks.TypeAccountDeletion, payload) {
		return
	}
	utils.Success(ctx, gin.H{"message": "account deletion scheduled"})
}

// ListCourses returns the requester's enrolled courses ordered by name.
func (u *UserController) ListCourses(ctx *gin.Context) {
	user, ok := u.currentUser(ctx)
	if !ok {
		return
	}
	courses, err := u.enrolledCourses(user)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50030, "failed to list courses")
		return
	}
	utils.Success(ctx, gin.H{"courses": courses})
}

// AddCourse enrolls the requester in a course. Enrolling twice is a no-op.
func (u *UserController) AddCourse(ctx *gin.Context) {
	user, ok := u.currentUser(ctx)
	if !ok {
		return
	}

	var course models.Course
	if err := u.db.First(&course, ctx.Param("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.ErrorFrom(ctx, apperrors.NotFound("course %s doesn't exist", ctx.Param("id")))
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50031, "failed to load course")
		return
	}

	err := u.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Table("user_courses").
			Where("user_id = ? AND course_id = ?", user.ID, course.ID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}
		return tx.Exec("INSERT INTO user_courses (user_id, course_id) VALUES (?, ?)", user.ID, course.ID).Error
	})
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50032, "failed to add course")
		return
	}

	courses, err := u.enrolledCourses(user)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50030, "failed to list courses")
		return
	}
	utils.Success(ctx, gin.H{"courses": courses})
}

// RemoveCourse drops the requester from a course. Dropping a course the
// requester is not enrolled in is a no-op.
func (u *UserController) RemoveCourse(ctx *gin.Context) {
	user, ok := u.currentUser(ctx)
	if !ok {
		return
	}

	var course models.Course
	if err := u.db.First(&course, ctx.Param("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.ErrorFrom(ctx, apperrors.NotFound("course %s doesn't exist", ctx.Param("id")))
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50031, "failed to load course")
		return
	}

	if err := u.db.Exec("DELETE FROM user_courses WHERE user_id = ? AND course_id = ?", user.ID, course.ID).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50033, "failed to remove course")
		return
	}

	courses, err := u.enrolledCourses(user)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50030, "failed to list courses")
		return
	}
	utils.Success(ctx, gin.H{"courses": courses})
}

func (u *UserController) enrolledCourses(user *models.User) ([]models.Course, error) {
	courses := []models.Course{}
	err := u.db.
		Joins("JOIN user_courses uc ON uc.course_id = courses.id").
		Where("uc.user_id = ?", user.ID).
		Order("courses.name").
		Find(&courses).Error
	if err != nil {
		return nil, err
	}
	return courses, nil
}

func (u *UserController) currentUser(ctx *gin.Context) (*models.User, bool) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return nil, false
	}
	var user models.User
	if err := u.db.First(&user, userID).Error; err != nil {
		utils.Error(ctx, http.StatusUnauthorized, 40111, "unauthorized")
		return nil, false
	}
	return &user, true
}

func (u *UserController) respondWithSession(ctx *gin.Context, user *models.User) {
	token, err := u.tokens.Issue(user.ID, user.Email)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50018, "failed to issue token")
		return
	}
	utils.Success(ctx, gin.H{"jwt": token, "email": user.Email})
}

func (u *UserController) enqueue(ctx *gin.Context, jobType string, payload interface{}) bool {
	job, err := tasks.NewJob(jobType, payload)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50040, "failed to build job")
		return false
	}
	if err := u.queue.Enqueue(ctx.Request.Context(), job); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50041, "failed to enqueue job")
		return false
	}
	return true
}

func validatePassword(password string) error {
	if len(password) < PasswordMinLength || len(password) > PasswordMaxLength {
		return apperrors.Validation("password must be between %d and %d characters", PasswordMinLength, PasswordMaxLength)
	}
	return nil
}
