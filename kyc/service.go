// Package kyc implements the identity-verification workflow: one case per
// user moving through pending → submitted → verified/rejected, with an
// append-only status history and per-document review state.
package kyc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-kit/log"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/amotaal/galla-gold-next-sub003/models"
)

// Actor is the resolved caller identity performing an operation. The
// authentication collaborator supplies it; this package only checks the
// role on review actions.
type Actor struct {
	ID   string
	Role string
}

// CaseInput is the personal-info and identity-document block captured
// when a case is opened.
type CaseInput struct {
	FirstName        string
	LastName         string
	DateOfBirth      *time.Time
	Nationality      string
	Address          string
	City             string
	Country          string
	Phone            string
	IDType           models.DocumentType
	IDIssuingCountry string
	IDNumber         string
	IDIssuedAt       *time.Time
	IDExpiresAt      *time.Time
}

// DocumentInput describes an uploaded file.
type DocumentInput struct {
	Type     models.DocumentType
	FileURL  string
	FileName string
	FileSize int64
	MimeType string
}

// Service owns KYC case lifecycle and review queries. All mutations are
// applied in a transaction with a version check so two concurrent
// reviewer actions cannot both win silently.
type Service struct {
	db     *gorm.DB
	logger log.Logger
	now    func() time.Time
}

// NewService returns a Service over db.
func NewService(db *gorm.DB, logger log.Logger) *Service {
	return &Service{
		db:     db,
		logger: logger,
		now:    time.Now,
	}
}

// CreateCase opens the verification case for a user. The initial pending
// status is recorded as the first history entry here, explicitly; there
// are no persistence-layer hooks doing it behind the scenes.
func (s *Service) CreateCase(ctx context.Context, userID uint, input CaseInput) (*models.KYCCase, error) {
	now := s.now()
	kycCase := &models.KYCCase{
		UserID:           userID,
		Status:           models.KYCStatusPending,
		FirstName:        input.FirstName,
		LastName:         input.LastName,
		DateOfBirth:      input.DateOfBirth,
		Nationality:      input.Nationality,
		Address:          input.Address,
		City:             input.City,
		Country:          input.Country,
		Phone:            input.Phone,
		IDType:           input.IDType,
		IDIssuingCountry: input.IDIssuingCountry,
		IDNumber:         input.IDNumber,
		IDIssuedAt:       input.IDIssuedAt,
		IDExpiresAt:      input.IDExpiresAt,
		RiskLevel:        models.RiskLevelLow,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.KYCCase{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrCaseExists
		}
		if err := tx.Create(kycCase).Error; err != nil {
			return err
		}
		return tx.Create(&models.KYCHistoryEntry{
			ID:        uuid.New(),
			CaseID:    kycCase.ID,
			Status:    models.KYCStatusPending,
			ChangedAt: now,
			Actor:     fmt.Sprintf("user:%d", userID),
			Note:      "case created",
		}).Error
	})
	if err != nil {
		return nil, err
	}

	s.logger.Log("msg", "kyc case created", "user_id", userID, "case_id", kycCase.ID)
	return s.CaseByUser(ctx, userID)
}

// CaseByUser loads a user's case with documents and ordered history.
func (s *Service) CaseByUser(ctx context.Context, userID uint) (*models.KYCCase, error) {
	var kycCase models.KYCCase
	err := s.db.WithContext(ctx).
		Preload("Documents").
		Preload("History", func(db *gorm.DB) *gorm.DB {
			return db.Order("changed_at ASC")
		}).
		Where("user_id = ?", userID).
		First(&kycCase).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: user %d", ErrNotFound, userID)
	}
	if err != nil {
		return nil, err
	}
	return &kycCase, nil
}

// Submit moves the case to submitted. Resubmission is always permitted,
// including from verified or rejected; it clears the reviewer stamps and
// expiry but never truncates history.
func (s *Service) Submit(ctx context.Context, userID uint) (*models.KYCCase, error) {
	now := s.now()
	return s.transition(ctx, userID, models.KYCStatusSubmitted,
		fmt.Sprintf("user:%d", userID), "documents submitted for review",
		map[string]interface{}{
			"status":           models.KYCStatusSubmitted,
			"submitted_at":     now,
			"reviewed_at":      nil,
			"reviewed_by":      "",
			"verified_at":      nil,
			"rejected_at":      nil,
			"rejection_reason": "",
			"expires_at":       nil,
		})
}

// Approve marks the case verified for the next 365 days. Only
// admin-equivalent roles may approve.
func (s *Service) Approve(ctx context.Context, actor Actor, userID uint, notes string) (*models.KYCCase, error) {
	if !models.IsAdminEquivalent(actor.Role) {
		return nil, fmt.Errorf("%w: %s", ErrUnauthorized, actor.Role)
	}

	now := s.now()
	expiresAt := now.Add(models.VerificationValidity)
	note := "approved"
	if notes != "" {
		note = notes
	}
	return s.transition(ctx, userID, models.KYCStatusVerified, actor.ID, note,
		map[string]interface{}{
			"status":           models.KYCStatusVerified,
			"verified_at":      now,
			"reviewed_at":      now,
			"reviewed_by":      actor.ID,
			"rejected_at":      nil,
			"rejection_reason": "",
			"expires_at":       expiresAt,
		})
}

// Reject marks the case rejected with a reason. Only admin-equivalent
// roles may reject.
func (s *Service) Reject(ctx context.Context, actor Actor, userID uint, reason string) (*models.KYCCase, error) {
	if !models.IsAdminEquivalent(actor.Role) {
		return nil, fmt.Errorf("%w: %s", ErrUnauthorized, actor.Role)
	}

	now := s.now()
	return s.transition(ctx, userID, models.KYCStatusRejected, actor.ID, reason,
		map[string]interface{}{
			"status":           models.KYCStatusRejected,
			"rejected_at":      now,
			"reviewed_at":      now,
			"reviewed_by":      actor.ID,
			"verified_at":      nil,
			"rejection_reason": reason,
			"expires_at":       nil,
		})
}

func (s *Service) transition(ctx context.Context, userID uint, status models.KYCStatus, actor, note string, fields map[string]interface{}) (*models.KYCCase, error) {
	kycCase, err := s.CaseByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, kycCase, status, actor, note, fields)
}

// apply writes a status change and its history entry atomically. The
// version check rejects the loser of two concurrent reviewer actions with
// ErrConcurrencyConflict instead of silently overwriting.
func (s *Service) apply(ctx context.Context, kycCase *models.KYCCase, status models.KYCStatus, actor, note string, fields map[string]interface{}) (*models.KYCCase, error) {
	fields["version"] = kycCase.Version + 1
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.KYCCase{}).
			Where("id = ? AND version = ?", kycCase.ID, kycCase.Version).
			Updates(fields)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: case %d", ErrConcurrencyConflict, kycCase.ID)
		}
		return tx.Create(&models.KYCHistoryEntry{
			ID:        uuid.New(),
			CaseID:    kycCase.ID,
			Status:    status,
			ChangedAt: s.now(),
			Actor:     actor,
			Note:      note,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	s.logger.Log("msg", "kyc status changed", "user_id", kycCase.UserID, "status", status, "actor", actor)
	return s.CaseByUser(ctx, kycCase.UserID)
}

// AddDocument attaches an upload to the case. A document of the same type
// supersedes the prior one, and the new upload always starts back at
// pending review regardless of how the old one was decided. Superseded
// rows are soft-deleted, never physically removed.
func (s *Service) AddDocument(ctx context.Context, userID uint, input DocumentInput) (*models.KYCCase, error) {
	kycCase, err := s.CaseByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("case_id = ? AND type = ?", kycCase.ID, input.Type).
			Delete(&models.KYCDocument{}).Error; err != nil {
			return err
		}
		return tx.Create(&models.KYCDocument{
			ID:         uuid.New(),
			CaseID:     kycCase.ID,
			Type:       input.Type,
			FileURL:    input.FileURL,
			FileName:   input.FileName,
			FileSize:   input.FileSize,
			MimeType:   input.MimeType,
			UploadedAt: s.now(),
			Verified:   false,
			Status:     models.DocumentStatusPending,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	return s.CaseByUser(ctx, userID)
}

// RemoveDocument deletes the document of the given type if present; it is
// a no-op otherwise.
func (s *Service) RemoveDocument(ctx context.Context, userID uint, docType models.DocumentType) (*models.KYCCase, error) {
	kycCase, err := s.CaseByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).
		Where("case_id = ? AND type = ?", kycCase.ID, docType).
		Delete(&models.KYCDocument{}).Error; err != nil {
		return nil, err
	}

	return s.CaseByUser(ctx, userID)
}

// ReviewDocument records an admin decision on a single document.
func (s *Service) ReviewDocument(ctx context.Context, actor Actor, userID uint, docType models.DocumentType, approved bool, reason string) (*models.KYCCase, error) {
	if !models.IsAdminEquivalent(actor.Role) {
		return nil, fmt.Errorf("%w: %s", ErrUnauthorized, actor.Role)
	}

	kycCase, err := s.CaseByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	doc := kycCase.DocumentOfType(docType)
	if doc == nil {
		return nil, fmt.Errorf("%w: no %s document on case %d", ErrNotFound, docType, kycCase.ID)
	}

	status := models.DocumentStatusApproved
	if !approved {
		status = models.DocumentStatusRejected
	}
	err = s.db.WithContext(ctx).Model(&models.KYCDocument{}).
		Where("id = ?", doc.ID).
		Updates(map[string]interface{}{
			"verified":         approved,
			"status":           status,
			"rejection_reason": reason,
		}).Error
	if err != nil {
		return nil, err
	}

	return s.CaseByUser(ctx, userID)
}

// PendingReviews lists cases awaiting a reviewer, oldest submission first.
func (s *Service) PendingReviews(ctx context.Context) ([]models.KYCCase, error) {
	var cases []models.KYCCase
	err := s.db.WithContext(ctx).
		Preload("Documents").
		Where("status = ?", models.KYCStatusSubmitted).
		Order("submitted_at ASC").
		Find(&cases).Error
	return cases, err
}

// Expiring lists verified cases whose expiry falls within the next
// daysWindow days, soonest first. Already expired cases are included so
// renewal chasing covers lapsed users too.
func (s *Service) Expiring(ctx context.Context, daysWindow int) ([]models.KYCCase, error) {
	cutoff := s.now().Add(time.Duration(daysWindow) * 24 * time.Hour)
	var cases []models.KYCCase
	err := s.db.WithContext(ctx).
		Where("status = ? AND expires_at IS NOT NULL AND expires_at <= ?", models.KYCStatusVerified, cutoff).
		Order("expires_at ASC").
		Find(&cases).Error
	return cases, err
}
