package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// KYCStatus is the lifecycle state of a verification case.
type KYCStatus string

const (
	KYCStatusNone      KYCStatus = "none"
	KYCStatusPending   KYCStatus = "pending"
	KYCStatusSubmitted KYCStatus = "submitted"
	KYCStatusVerified  KYCStatus = "verified"
	KYCStatusRejected  KYCStatus = "rejected"
)

// DocumentType identifies an uploaded KYC document. A case holds at most
// one document per type; re-uploading a type supersedes the prior entry.
type DocumentType string

const (
	DocumentTypePassport       DocumentType = "passport"
	DocumentTypeNationalID     DocumentType = "national_id"
	DocumentTypeDriversLicense DocumentType = "drivers_license"
	DocumentTypeProofOfAddress DocumentType = "proof_of_address"
	DocumentTypeSelfie         DocumentType = "selfie"
)

// DocumentStatus is the per-document review state.
type DocumentStatus string

const (
	DocumentStatusPending  DocumentStatus = "pending"
	DocumentStatusApproved DocumentStatus = "approved"
	DocumentStatusRejected DocumentStatus = "rejected"
)

// RiskLevel is the assessed risk of a case.
type RiskLevel string

const (
	RiskLevelLow    RiskLevel = "low"
	RiskLevelMedium RiskLevel = "medium"
	RiskLevelHigh   RiskLevel = "high"
)

const (
	// VerificationValidity is how long an approval remains valid.
	VerificationValidity = 365 * 24 * time.Hour
	// RenewalWindow is how close to expiry a case starts needing renewal.
	RenewalWindow = 30 * 24 * time.Hour
)

// KYCCase is the single verification case for a user.
type KYCCase struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	UserID uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	Status KYCStatus `gorm:"size:20;default:'pending'" json:"status"`

	// Personal information block.
	FirstName   string     `gorm:"size:100" json:"first_name"`
	LastName    string     `gorm:"size:100" json:"last_name"`
	DateOfBirth *time.Time `json:"date_of_birth"`
	Nationality string     `gorm:"size:2" json:"nationality"`
	Address     string     `gorm:"size:500" json:"address"`
	City        string     `gorm:"size:100" json:"city"`
	Country     string     `gorm:"size:2" json:"country"`
	Phone       string     `gorm:"size:30" json:"phone,omitempty"`

	// Identity document metadata.
	IDType           DocumentType `gorm:"size:30" json:"id_type"`
	IDIssuingCountry string       `gorm:"size:2" json:"id_issuing_country"`
	IDNumber         string       `gorm:"size:64" json:"id_number"`
	IDIssuedAt       *time.Time   `json:"id_issued_at"`
	IDExpiresAt      *time.Time   `json:"id_expires_at"`

	Documents []KYCDocument     `gorm:"foreignKey:CaseID" json:"documents"`
	History   []KYCHistoryEntry `gorm:"foreignKey:CaseID" json:"history"`

	RiskLevel RiskLevel `gorm:"size:10;default:'low'" json:"risk_level"`
	RiskNotes string    `gorm:"type:text" json:"risk_notes"`

	NeedsManualReview bool `gorm:"default:false" json:"needs_manual_review"`

	SubmittedAt     *time.Time `json:"submitted_at"`
	ReviewedAt      *time.Time `json:"reviewed_at"`
	ReviewedBy      string     `gorm:"size:64" json:"reviewed_by"`
	VerifiedAt      *time.Time `json:"verified_at"`
	RejectedAt      *time.Time `json:"rejected_at"`
	RejectionReason string     `gorm:"type:text" json:"rejection_reason"`
	ExpiresAt       *time.Time `json:"expires_at"`

	// Version guards concurrent reviewer actions; saves are rejected
	// when the loaded version no longer matches.
	Version int64 `gorm:"default:0" json:"-"`
}

func (KYCCase) TableName() string {
	return "kyc_cases"
}

// IsExpired reports whether the verification has lapsed. A case with no
// expiry on record is never expired.
func (c *KYCCase) IsExpired() bool {
	return c.IsExpiredAt(time.Now())
}

// IsExpiredAt is IsExpired against an explicit clock.
func (c *KYCCase) IsExpiredAt(now time.Time) bool {
	return c.ExpiresAt != nil && now.After(*c.ExpiresAt)
}

// NeedsRenewal reports whether the case is verified, not yet expired, and
// within 30 days (inclusive) of expiry. At the expiry instant itself the
// case still needs renewal; one instant later IsExpired takes over.
func (c *KYCCase) NeedsRenewal() bool {
	return c.NeedsRenewalAt(time.Now())
}

// NeedsRenewalAt is NeedsRenewal against an explicit clock.
func (c *KYCCase) NeedsRenewalAt(now time.Time) bool {
	if c.Status != KYCStatusVerified || c.ExpiresAt == nil || c.IsExpiredAt(now) {
		return false
	}
	return c.ExpiresAt.Sub(now) <= RenewalWindow
}

// DocumentOfType returns the case's document of the given type, or nil.
func (c *KYCCase) DocumentOfType(t DocumentType) *KYCDocument {
	for i := range c.Documents {
		if c.Documents[i].Type == t {
			return &c.Documents[i]
		}
	}
	return nil
}

// KYCDocument is one uploaded file attached to a case. Documents are never
// physically deleted on re-upload; the superseded row is removed from the
// case and the new upload always starts back at pending review.
type KYCDocument struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	CaseID uint         `gorm:"index;not null" json:"case_id"`
	Type   DocumentType `gorm:"size:30;not null" json:"type"`

	FileURL  string `gorm:"size:500;not null" json:"file_url"`
	FileName string `gorm:"size:255" json:"file_name"`
	FileSize int64  `json:"file_size"`
	MimeType string `gorm:"size:100" json:"mime_type"`

	UploadedAt      time.Time      `json:"uploaded_at"`
	Verified        bool           `gorm:"default:false" json:"verified"`
	Status          DocumentStatus `gorm:"size:20;default:'pending'" json:"status"`
	RejectionReason string         `gorm:"type:text" json:"rejection_reason,omitempty"`
}

func (KYCDocument) TableName() string {
	return "kyc_documents"
}

// KYCHistoryEntry is one line of a case's append-only audit trail. Every
// status transition is recorded here, including the implicit initial one.
type KYCHistoryEntry struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CaseID    uint      `gorm:"index;not null" json:"case_id"`
	Status    KYCStatus `gorm:"size:20;not null" json:"status"`
	ChangedAt time.Time `gorm:"not null" json:"changed_at"`
	Actor     string    `gorm:"size:64;not null" json:"actor"`
	Note      string    `gorm:"type:text" json:"note"`
}

func (KYCHistoryEntry) TableName() string {
	return "kyc_history"
}
