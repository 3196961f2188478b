package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-kit/log"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/amotaal/galla-gold-next-sub003/config"
	"github.com/amotaal/galla-gold-next-sub003/kyc"
	"github.com/amotaal/galla-gold-next-sub003/models"
	"github.com/amotaal/galla-gold-next-sub003/pricing"
	"github.com/amotaal/galla-gold-next-sub003/rates"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.KYCCase{},
		&models.KYCDocument{},
		&models.KYCHistoryEntry{},
		&models.Holding{},
		&models.Transaction{},
	))
	return db
}

func testFees() config.FeeSchedule {
	return config.FeeSchedule{
		BuyFeePercent:  decimal.RequireFromString("2"),
		SellFeePercent: decimal.RequireFromString("1.5"),
		DeliveryCost: config.DeliveryCosts{
			Standard: decimal.RequireFromString("25"),
			Express:  decimal.RequireFromString("40"),
			Insured:  decimal.RequireFromString("60"),
		},
	}
}

// fakeAuth stands in for the JWT middleware in handler tests.
func fakeAuth(userID uint, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("userID", userID)
		c.Set("role", role)
		c.Next()
	}
}

func newTestTradingHandler(t *testing.T) (*TradingHandler, *kyc.Service, *gorm.DB) {
	db := setupTestDB(t)
	converter := rates.NewConverter(rates.NewStaticProvider())
	engine := pricing.NewEngine(pricing.NewStaticSpotSource(decimal.RequireFromString("2000")), converter, testFees())
	kycService := kyc.NewService(db, log.NewNopLogger())
	return NewTradingHandler(db, engine, converter, kycService), kycService, db
}

func postJSON(router *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	raw, _ := json.Marshal(body)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, path, bytes.NewBuffer(raw))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func TestGetPrice(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, _, _ := newTestTradingHandler(t)

	router := gin.New()
	router.GET("/gold/price", handler.GetPrice)

	t.Run("default currency", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/gold/price", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"64.3"`)
		assert.Contains(t, w.Body.String(), "USD")
	})

	t.Run("invalid currency", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/gold/price?currency=XAU", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "InvalidCurrency")
	})
}

func TestQuoteEndpoints(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, _, _ := newTestTradingHandler(t)

	router := gin.New()
	router.POST("/gold/quote/buy", handler.QuoteBuy)
	router.POST("/gold/quote/sell", handler.QuoteSell)
	router.POST("/gold/quote/delivery", handler.QuoteDelivery)

	t.Run("buy quote", func(t *testing.T) {
		w := postJSON(router, "/gold/quote/buy", QuoteRequest{Grams: 10, Currency: "USD"})
		require.Equal(t, http.StatusOK, w.Code)

		var quote pricing.GoldQuote
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &quote))
		assert.True(t, quote.Total.Equal(quote.Subtotal.Add(quote.Fee)))
		assert.Equal(t, rates.USD, quote.Currency)
	})

	t.Run("sell quote", func(t *testing.T) {
		w := postJSON(router, "/gold/quote/sell", QuoteRequest{Grams: 10, Currency: "EUR"})
		require.Equal(t, http.StatusOK, w.Code)

		var quote pricing.GoldQuote
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &quote))
		assert.True(t, quote.Total.Equal(quote.Subtotal.Sub(quote.Fee)))
	})

	t.Run("negative grams", func(t *testing.T) {
		w := postJSON(router, "/gold/quote/buy", QuoteRequest{Grams: -5, Currency: "USD"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "InvalidAmount")
	})

	t.Run("invalid currency", func(t *testing.T) {
		w := postJSON(router, "/gold/quote/buy", QuoteRequest{Grams: 5, Currency: "DOGE"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "InvalidCurrency")
	})

	t.Run("delivery surcharge", func(t *testing.T) {
		w := postJSON(router, "/gold/quote/delivery", DeliveryQuoteRequest{
			Grams: 150, DeliveryType: "standard", Currency: "USD",
		})
		require.Equal(t, http.StatusOK, w.Code)

		var quote pricing.DeliveryQuote
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &quote))
		assert.True(t, quote.BaseCost.Equal(decimal.RequireFromString("35")))
	})

	t.Run("unknown delivery type", func(t *testing.T) {
		w := postJSON(router, "/gold/quote/delivery", DeliveryQuoteRequest{
			Grams: 10, DeliveryType: "drone", Currency: "USD",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "InvalidDeliveryType")
	})
}

func verifyUser(t *testing.T, kycService *kyc.Service, userID uint) {
	t.Helper()
	_, err := kycService.CreateCase(context.Background(), userID, kyc.CaseInput{
		FirstName: "Test", LastName: "User", Nationality: "US",
		Address: "1 Main St", Country: "US",
		IDType: models.DocumentTypePassport, IDIssuingCountry: "US", IDNumber: "X1",
	})
	require.NoError(t, err)
	_, err = kycService.Submit(context.Background(), userID)
	require.NoError(t, err)
	_, err = kycService.Approve(context.Background(), kyc.Actor{ID: "admin1", Role: models.RoleAdmin}, userID, "")
	require.NoError(t, err)
}

func TestTradeExecution(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, kycService, db := newTestTradingHandler(t)

	router := gin.New()
	router.Use(fakeAuth(1, models.RoleUser))
	router.POST("/gold/buy", handler.Buy)
	router.POST("/gold/sell", handler.Sell)
	router.GET("/portfolio", handler.Portfolio)
	router.GET("/transactions", handler.Transactions)

	t.Run("trading requires verified kyc", func(t *testing.T) {
		w := postJSON(router, "/gold/buy", QuoteRequest{Grams: 5, Currency: "USD"})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	verifyUser(t, kycService, 1)

	t.Run("buy updates holdings", func(t *testing.T) {
		w := postJSON(router, "/gold/buy", QuoteRequest{Grams: 5, Currency: "USD"})
		require.Equal(t, http.StatusCreated, w.Code)

		var holding models.Holding
		require.NoError(t, db.Where("user_id = ?", 1).First(&holding).Error)
		assert.True(t, holding.Grams.Equal(decimal.NewFromInt(5)))

		var transaction models.Transaction
		require.NoError(t, db.Where("user_id = ?", 1).First(&transaction).Error)
		assert.Equal(t, models.TransactionTypeBuy, transaction.Type)
		assert.True(t, transaction.Total.Equal(transaction.Subtotal.Add(transaction.Fee)))
	})

	t.Run("sell beyond holdings is rejected", func(t *testing.T) {
		w := postJSON(router, "/gold/sell", QuoteRequest{Grams: 50, Currency: "USD"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "InsufficientHoldings")
	})

	t.Run("sell reduces holdings", func(t *testing.T) {
		w := postJSON(router, "/gold/sell", QuoteRequest{Grams: 2, Currency: "USD"})
		require.Equal(t, http.StatusCreated, w.Code)

		var holding models.Holding
		require.NoError(t, db.Where("user_id = ?", 1).First(&holding).Error)
		assert.True(t, holding.Grams.Equal(decimal.NewFromInt(3)))
	})

	t.Run("portfolio values holdings", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/portfolio?currency=USD", nil)
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var body map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		var value decimal.Decimal
		require.NoError(t, json.Unmarshal(body["value"], &value))
		// 3g at 64.30/g
		assert.True(t, value.Equal(decimal.RequireFromString("192.90")), "got %s", value)
	})

	t.Run("transactions are listed", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/transactions", nil)
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var transactions []models.Transaction
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &transactions))
		assert.Len(t, transactions, 2)
	})
}
