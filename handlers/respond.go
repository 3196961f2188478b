package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/amotaal/galla-gold-next-sub003/kyc"
	"github.com/amotaal/galla-gold-next-sub003/pricing"
	"github.com/amotaal/galla-gold-next-sub003/rates"
)

// respondError maps core errors to HTTP status codes with a stable code
// field, so trading and admin UIs can show the specific failure instead
// of a generic message.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, rates.ErrInvalidCurrency):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "InvalidCurrency"})
	case errors.Is(err, pricing.ErrInvalidAmount):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "InvalidAmount"})
	case errors.Is(err, pricing.ErrInvalidDeliveryType):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "InvalidDeliveryType"})
	case errors.Is(err, rates.ErrRateUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error(), "code": "RateUnavailable"})
	case errors.Is(err, kyc.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "code": "NotFound"})
	case errors.Is(err, kyc.ErrCaseExists):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "CaseExists"})
	case errors.Is(err, kyc.ErrConcurrencyConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "ConcurrencyConflict"})
	case errors.Is(err, kyc.ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error(), "code": "Unauthorized"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
