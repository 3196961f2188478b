package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/amotaal/galla-gold-next-sub003/models"
)

type Config struct {
	Port             string
	DatabaseURL      string
	JWTSecret        string
	JWTRefreshSecret string

	// RateFeedURL is the exchange-rate feed endpoint. Empty means the
	// built-in static rate table is used.
	RateFeedURL  string
	RateCacheTTL time.Duration

	// SpotFeedURL is the gold spot price feed (USD per troy ounce).
	// Empty means the static development price.
	SpotFeedURL string

	Fees FeeSchedule
}

// FeeSchedule holds the trading and delivery fee policy. Buy and sell
// percentages are configured independently.
type FeeSchedule struct {
	BuyFeePercent  decimal.Decimal
	SellFeePercent decimal.Decimal
	DeliveryCost   DeliveryCosts
}

// DeliveryCosts are base USD fees per delivery type.
type DeliveryCosts struct {
	Standard decimal.Decimal
	Express  decimal.Decimal
	Insured  decimal.Decimal
}

func LoadConfig() (*Config, error) {
	godotenv.Load()

	ttl, err := time.ParseDuration(getEnvOrDefault("RATE_CACHE_TTL", "1h"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_CACHE_TTL: %w", err)
	}

	fees, err := loadFees()
	if err != nil {
		return nil, err
	}

	return &Config{
		Port:             os.Getenv("PORT"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		JWTSecret:        os.Getenv("JWT_SECRET"),
		JWTRefreshSecret: os.Getenv("JWT_REFRESH_SECRET"),
		RateFeedURL:      os.Getenv("RATE_FEED_URL"),
		RateCacheTTL:     ttl,
		SpotFeedURL:      os.Getenv("SPOT_FEED_URL"),
		Fees:             fees,
	}, nil
}

func loadFees() (FeeSchedule, error) {
	buy, err := decimalEnv("BUY_FEE_PERCENT", "2")
	if err != nil {
		return FeeSchedule{}, err
	}
	sell, err := decimalEnv("SELL_FEE_PERCENT", "1.5")
	if err != nil {
		return FeeSchedule{}, err
	}
	standard, err := decimalEnv("DELIVERY_COST_STANDARD", "25")
	if err != nil {
		return FeeSchedule{}, err
	}
	express, err := decimalEnv("DELIVERY_COST_EXPRESS", "40")
	if err != nil {
		return FeeSchedule{}, err
	}
	insured, err := decimalEnv("DELIVERY_COST_INSURED", "60")
	if err != nil {
		return FeeSchedule{}, err
	}

	return FeeSchedule{
		BuyFeePercent:  buy,
		SellFeePercent: sell,
		DeliveryCost: DeliveryCosts{
			Standard: standard,
			Express:  express,
			Insured:  insured,
		},
	}, nil
}

func InitDB(cfg *Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.KYCCase{},
		&models.KYCDocument{},
		&models.KYCHistoryEntry{},
		&models.Holding{},
		&models.Transaction{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}

func decimalEnv(key, defaultValue string) (decimal.Decimal, error) {
	raw := getEnvOrDefault(key, defaultValue)
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
