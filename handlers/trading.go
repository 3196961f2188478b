package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/amotaal/galla-gold-next-sub003/kyc"
	"github.com/amotaal/galla-gold-next-sub003/middleware"
	"github.com/amotaal/galla-gold-next-sub003/models"
	"github.com/amotaal/galla-gold-next-sub003/pricing"
	"github.com/amotaal/galla-gold-next-sub003/rates"
)

var quotesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "gold_quotes_total",
	Help: "Gold quotes served",
}, []string{"side"})

type TradingHandler struct {
	db        *gorm.DB
	engine    *pricing.Engine
	converter *rates.Converter
	kyc       *kyc.Service
}

func NewTradingHandler(db *gorm.DB, engine *pricing.Engine, converter *rates.Converter, kycService *kyc.Service) *TradingHandler {
	return &TradingHandler{
		db:        db,
		engine:    engine,
		converter: converter,
		kyc:       kycService,
	}
}

func currencyParam(c *gin.Context) rates.Currency {
	return rates.Currency(c.DefaultQuery("currency", string(rates.USD)))
}

// GetPrice returns the current price per gram in the requested currency.
func (h *TradingHandler) GetPrice(c *gin.Context) {
	currency := currencyParam(c)
	price, err := h.engine.PricePerGram(c.Request.Context(), currency)
	if err != nil {
		respondError(c, err)
		return
	}

	formatted, _ := rates.FormatCurrency(price, currency)
	c.JSON(http.StatusOK, gin.H{
		"price_per_gram": price,
		"formatted":      formatted,
		"currency":       currency,
	})
}

// ListCurrencies returns the supported currency set with display metadata.
func (h *TradingHandler) ListCurrencies(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"currencies": rates.Supported()})
}

type QuoteRequest struct {
	Grams    float64 `json:"grams" binding:"required"`
	Currency string  `json:"currency" binding:"required"`
}

// QuoteBuy prices a purchase without executing it.
func (h *TradingHandler) QuoteBuy(c *gin.Context) {
	h.respondQuote(c, "buy", h.engine.QuoteBuy)
}

// QuoteSell prices a sale without executing it.
func (h *TradingHandler) QuoteSell(c *gin.Context) {
	h.respondQuote(c, "sell", h.engine.QuoteSell)
}

func (h *TradingHandler) respondQuote(c *gin.Context, side string, quote func(context.Context, decimal.Decimal, rates.Currency) (pricing.GoldQuote, error)) {
	var req QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	q, err := quote(c.Request.Context(), decimal.NewFromFloat(req.Grams), rates.Currency(req.Currency))
	if err != nil {
		respondError(c, err)
		return
	}
	quotesTotal.WithLabelValues(side).Inc()
	c.JSON(http.StatusOK, q)
}

type DeliveryQuoteRequest struct {
	Grams        float64 `json:"grams" binding:"required"`
	DeliveryType string  `json:"delivery_type" binding:"required"`
	Currency     string  `json:"currency" binding:"required"`
}

// QuoteDelivery prices physical delivery of a gram amount.
func (h *TradingHandler) QuoteDelivery(c *gin.Context) {
	var req DeliveryQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	q, err := h.engine.QuoteDelivery(c.Request.Context(),
		decimal.NewFromFloat(req.Grams),
		pricing.DeliveryType(req.DeliveryType),
		rates.Currency(req.Currency))
	if err != nil {
		respondError(c, err)
		return
	}
	quotesTotal.WithLabelValues("delivery").Inc()
	c.JSON(http.StatusOK, q)
}

// Buy executes a purchase at the currently quoted price: the transaction
// is recorded and the holding adjusted in one database transaction.
// Trading requires a verified, unexpired KYC case.
func (h *TradingHandler) Buy(c *gin.Context) {
	h.trade(c, models.TransactionTypeBuy)
}

// Sell executes a sale at the currently quoted price.
func (h *TradingHandler) Sell(c *gin.Context) {
	h.trade(c, models.TransactionTypeSell)
}

func (h *TradingHandler) trade(c *gin.Context, tradeType models.TransactionType) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.requireVerifiedKYC(c.Request.Context(), userID); err != nil {
		respondError(c, err)
		return
	}

	grams := decimal.NewFromFloat(req.Grams)
	currency := rates.Currency(req.Currency)

	var quote pricing.GoldQuote
	var err error
	if tradeType == models.TransactionTypeBuy {
		quote, err = h.engine.QuoteBuy(c.Request.Context(), grams, currency)
	} else {
		quote, err = h.engine.QuoteSell(c.Request.Context(), grams, currency)
	}
	if err != nil {
		respondError(c, err)
		return
	}

	transaction := models.Transaction{
		UserID:       userID,
		Type:         tradeType,
		Grams:        quote.Grams,
		PricePerGram: quote.PricePerGram,
		Subtotal:     quote.Subtotal,
		Fee:          quote.Fee,
		Total:        quote.Total,
		Currency:     string(quote.Currency),
		Status:       "completed",
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		var holding models.Holding
		result := tx.Where("user_id = ?", userID).First(&holding)
		if result.Error != nil {
			if result.Error != gorm.ErrRecordNotFound {
				return result.Error
			}
			holding = models.Holding{UserID: userID, Grams: decimal.Zero}
			if err := tx.Create(&holding).Error; err != nil {
				return err
			}
		}

		newGrams := holding.Grams.Add(quote.Grams)
		if tradeType == models.TransactionTypeSell {
			newGrams = holding.Grams.Sub(quote.Grams)
			if newGrams.Sign() < 0 {
				return errInsufficientHoldings
			}
		}

		if err := tx.Model(&holding).Update("grams", newGrams).Error; err != nil {
			return err
		}
		return tx.Create(&transaction).Error
	})
	if err != nil {
		if err == errInsufficientHoldings {
			c.JSON(http.StatusBadRequest, gin.H{"error": "insufficient gold holdings", "code": "InsufficientHoldings"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to execute trade"})
		return
	}

	c.JSON(http.StatusCreated, transaction)
}

func (h *TradingHandler) requireVerifiedKYC(ctx context.Context, userID uint) error {
	kycCase, err := h.kyc.CaseByUser(ctx, userID)
	if err != nil {
		return err
	}
	if kycCase.Status != models.KYCStatusVerified || kycCase.IsExpired() {
		return kyc.ErrUnauthorized
	}
	return nil
}

// Portfolio returns the user's holding and its current value.
func (h *TradingHandler) Portfolio(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	currency := currencyParam(c)

	var holding models.Holding
	if err := h.db.Where("user_id = ?", userID).First(&holding).Error; err != nil {
		if err != gorm.ErrRecordNotFound {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch holdings"})
			return
		}
		holding = models.Holding{UserID: userID, Grams: decimal.Zero}
	}

	price, err := h.engine.PricePerGram(c.Request.Context(), currency)
	if err != nil {
		respondError(c, err)
		return
	}
	value := holding.Grams.Mul(price).Round(2)
	formatted, _ := rates.FormatCurrency(value, currency)

	c.JSON(http.StatusOK, gin.H{
		"grams":           holding.Grams,
		"grams_formatted": rates.FormatGold(holding.Grams),
		"price_per_gram":  price,
		"value":           value,
		"value_formatted": formatted,
		"currency":        currency,
	})
}

// Transactions lists the user's trades, newest first.
func (h *TradingHandler) Transactions(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var transactions []models.Transaction
	if err := h.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&transactions).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch transactions"})
		return
	}
	c.JSON(http.StatusOK, transactions)
}
