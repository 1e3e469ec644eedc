package tasks

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ScarletStudies/api/models"
	"github.com/ScarletStudies/api/tokens"
	"github.com/ScarletStudies/api/utils"
)

// Handlers executes background jobs. Every handler tolerates re-delivery:
// the queue guarantees at-least-once, not exactly-once.
type Handlers struct {
	db            *gorm.DB
	mailer        utils.Mailer
	tokens        *tokens.Manager
	logger        *zap.Logger
	baseURL       string
	sentinelEmail string
}

// NewHandlers wires job handlers to their collaborators.
func NewHandlers(db *gorm.DB, mailer utils.Mailer, tm *tokens.Manager, logger *zap.Logger, baseURL, sentinelEmail string) *Handlers {
	return &Handlers{
		db:            db,
		mailer:        mailer,
		tokens:        tm,
		logger:        logger,
		baseURL:       baseURL,
		sentinelEmail: sentinelEmail,
	}
}

// Handle dispatches a job to its handler.
func (h *Handlers) Handle(ctx context.Context, job Job) error {
	switch job.Type {
	case TypeVerificationEmail:
		var p EmailPayload
		if err := json.Unmarshal(job.Payload, &p); err != nil {
			return err
		}
		return h.verificationEmail(p.Email)
	case TypePasswordResetEmail:
		var p EmailPayload
		if err := json.Unmarshal(job.Payload, &p); err != nil {
			return err
		}
		return h.passwordResetEmail(p.Email)
	case TypeAccountDeletion:
		var p DeletionPayload
		if err := json.Unmarshal(job.Payload, &p); err != nil {
			return err
		}
		return h.deleteAccount(p)
	default:
		return fmt.Errorf("unknown job type %q", job.Type)
	}
}

func (h *Handlers) verificationEmail(email string) error {
	var user models.User
	if err := h.db.Where("email = ?", email).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			// account can be gone by the time the job runs
			h.logger.Info("skipping verification email for missing user", zap.String("email", email))
			return nil
		}
		return err
	}

	token, err := h.tokens.IssueVerification(user.ID)
	if err != nil {
		return err
	}

	verifyURL := fmt.Sprintf("%s/user/verify/%s", h.baseURL, token)
	body := fmt.Sprintf("Please verify your account. You will not be able to log in until you do. %s", verifyURL)
	return h.mailer.Send(user.Email, "Verify Your Scarlet Studies Account", body)
}

func (h *Handlers) passwordResetEmail(email string) error {
	var user models.User
	if err := h.db.Where("email = ?", email).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			h.logger.Info("skipping reset email for missing user", zap.String("email", email))
			return nil
		}
		return err
	}

	// magic login token: same shape as a session token, delivered out-of-band
	token, err := h.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return err
	}

	resetURL := fmt.Sprintf("%s/user/forgot/%s", h.baseURL, token)
	body := fmt.Sprintf("Follow this link to sign in and choose a new password. %s", resetURL)
	return h.mailer.Send(user.Email, "Reset Your Scarlet Studies Password", body)
}

// deleteAccount reassigns every post and comment by the user to the sentinel
// account, optionally redacts their content, and removes the user row, all in
// one transaction. Rerunning after the user row is gone is a completed no-op.
func (h *Handlers) deleteAccount(p DeletionPayload) error {
	var email string

	err := h.db.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, p.UserID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				h.logger.Info("deletion already completed", zap.Uint("user_id", p.UserID))
				return nil
			}
			return err
		}
		if user.Email == h.sentinelEmail {
			return fmt.Errorf("refusing to delete sentinel account")
		}
		email = user.Email

		var sentinel models.User
		if err := tx.Where("email = ?", h.sentinelEmail).First(&sentinel).Error; err != nil {
			return fmt.Errorf("sentinel account missing: %w", err)
		}

		postUpdates := map[string]interface{}{"author_id": sentinel.ID}
		commentUpdates := map[string]interface{}{"author_id": sentinel.ID}
		if p.RemoveContent {
			postUpdates["content"] = models.RedactedContent
			commentUpdates["content"] = models.RedactedContent
		}

		if err := tx.Model(&models.Post{}).Where("author_id = ?", user.ID).Updates(postUpdates).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Comment{}).Where("author_id = ?", user.ID).Updates(commentUpdates).Error; err != nil {
			return err
		}

		if err := tx.Exec("DELETE FROM user_courses WHERE user_id = ?", user.ID).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM user_post_cheers WHERE user_id = ?", user.ID).Error; err != nil {
			return err
		}

		return tx.Delete(&user).Error
	})
	if err != nil {
		return err
	}

	if email == "" {
		// rerun against an already-deleted user: no email either
		return nil
	}

	body := "Your Scarlet Studies account has been deleted. Thank you for being part of the community."
	if err := h.mailer.Send(email, "Your Scarlet Studies Account Has Been Deleted", body); err != nil {
		// the account is gone either way; a failed goodbye is not a job failure
		h.logger.Warn("deletion confirmation email failed", zap.String("email", email), zap.Error(err))
	}
	return nil
}
