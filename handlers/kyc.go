package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/amotaal/galla-gold-next-sub003/kyc"
	"github.com/amotaal/galla-gold-next-sub003/middleware"
	"github.com/amotaal/galla-gold-next-sub003/models"
)

var kycReviewsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "gold_kyc_reviews_total",
	Help: "KYC review decisions",
}, []string{"decision"})

type KYCHandler struct {
	service *kyc.Service
}

func NewKYCHandler(service *kyc.Service) *KYCHandler {
	return &KYCHandler{service: service}
}

// caseResponse adds the derived renewal flags to a case payload.
func caseResponse(kycCase *models.KYCCase) gin.H {
	return gin.H{
		"case":          kycCase,
		"needs_renewal": kycCase.NeedsRenewal(),
		"is_expired":    kycCase.IsExpired(),
	}
}

// GetMine returns the authenticated user's case.
func (h *KYCHandler) GetMine(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	kycCase, err := h.service.CaseByUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, caseResponse(kycCase))
}

type CreateCaseRequest struct {
	FirstName        string     `json:"first_name" binding:"required"`
	LastName         string     `json:"last_name" binding:"required"`
	DateOfBirth      *time.Time `json:"date_of_birth"`
	Nationality      string     `json:"nationality" binding:"required,len=2"`
	Address          string     `json:"address" binding:"required"`
	City             string     `json:"city"`
	Country          string     `json:"country" binding:"required,len=2"`
	Phone            string     `json:"phone"`
	IDType           string     `json:"id_type" binding:"required"`
	IDIssuingCountry string     `json:"id_issuing_country" binding:"required,len=2"`
	IDNumber         string     `json:"id_number" binding:"required"`
	IDIssuedAt       *time.Time `json:"id_issued_at"`
	IDExpiresAt      *time.Time `json:"id_expires_at"`
}

// Create opens the user's verification case.
func (h *KYCHandler) Create(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req CreateCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	kycCase, err := h.service.CreateCase(c.Request.Context(), userID, kyc.CaseInput{
		FirstName:        req.FirstName,
		LastName:         req.LastName,
		DateOfBirth:      req.DateOfBirth,
		Nationality:      req.Nationality,
		Address:          req.Address,
		City:             req.City,
		Country:          req.Country,
		Phone:            req.Phone,
		IDType:           models.DocumentType(req.IDType),
		IDIssuingCountry: req.IDIssuingCountry,
		IDNumber:         req.IDNumber,
		IDIssuedAt:       req.IDIssuedAt,
		IDExpiresAt:      req.IDExpiresAt,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, caseResponse(kycCase))
}

// Submit sends the case for review. Resubmission is always permitted.
func (h *KYCHandler) Submit(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	kycCase, err := h.service.Submit(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, caseResponse(kycCase))
}

type AddDocumentRequest struct {
	Type     string `json:"type" binding:"required"`
	FileURL  string `json:"file_url" binding:"required"`
	FileName string `json:"file_name"`
	FileSize int64  `json:"file_size"`
	MimeType string `json:"mime_type"`
}

// AddDocument uploads a document, superseding any prior one of its type.
func (h *KYCHandler) AddDocument(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req AddDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	kycCase, err := h.service.AddDocument(c.Request.Context(), userID, kyc.DocumentInput{
		Type:     models.DocumentType(req.Type),
		FileURL:  req.FileURL,
		FileName: req.FileName,
		FileSize: req.FileSize,
		MimeType: req.MimeType,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, caseResponse(kycCase))
}

// RemoveDocument deletes the user's document of the given type.
func (h *KYCHandler) RemoveDocument(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	kycCase, err := h.service.RemoveDocument(c.Request.Context(), userID, models.DocumentType(c.Param("type")))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, caseResponse(kycCase))
}

// Pending lists cases awaiting review.
func (h *KYCHandler) Pending(c *gin.Context) {
	cases, err := h.service.PendingReviews(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cases": cases})
}

// Expiring lists verified cases expiring within the given window.
func (h *KYCHandler) Expiring(c *gin.Context) {
	days, err := strconv.Atoi(c.DefaultQuery("days", "30"))
	if err != nil || days < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid days parameter"})
		return
	}

	cases, err := h.service.Expiring(c.Request.Context(), days)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cases": cases})
}

func adminTarget(c *gin.Context) (kyc.Actor, uint, bool) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return kyc.Actor{}, 0, false
	}
	userID, err := strconv.ParseUint(c.Param("userID"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return kyc.Actor{}, 0, false
	}
	return actor, uint(userID), true
}

type ApproveRequest struct {
	Notes string `json:"notes"`
}

// Approve verifies a user's case for the next 365 days.
func (h *KYCHandler) Approve(c *gin.Context) {
	actor, userID, ok := adminTarget(c)
	if !ok {
		return
	}

	var req ApproveRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	kycCase, err := h.service.Approve(c.Request.Context(), actor, userID, req.Notes)
	if err != nil {
		respondError(c, err)
		return
	}
	kycReviewsTotal.WithLabelValues("approved").Inc()
	c.JSON(http.StatusOK, caseResponse(kycCase))
}

type RejectRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// Reject declines a user's case with a reason.
func (h *KYCHandler) Reject(c *gin.Context) {
	actor, userID, ok := adminTarget(c)
	if !ok {
		return
	}

	var req RejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	kycCase, err := h.service.Reject(c.Request.Context(), actor, userID, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	kycReviewsTotal.WithLabelValues("rejected").Inc()
	c.JSON(http.StatusOK, caseResponse(kycCase))
}

type ReviewDocumentRequest struct {
	Approved bool   `json:"approved"`
	Reason   string `json:"reason"`
}

// ReviewDocument records a decision on a single uploaded document.
func (h *KYCHandler) ReviewDocument(c *gin.Context) {
	actor, userID, ok := adminTarget(c)
	if !ok {
		return
	}

	var req ReviewDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	kycCase, err := h.service.ReviewDocument(c.Request.Context(), actor, userID,
		models.DocumentType(c.Param("type")), req.Approved, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, caseResponse(kycCase))
}
