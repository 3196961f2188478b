package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TransactionType distinguishes trade directions.
type TransactionType string

const (
	TransactionTypeBuy  TransactionType = "buy"
	TransactionTypeSell TransactionType = "sell"
)

// Holding is a user's gold position in grams.
type Holding struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	DeletedAt gorm.DeletedAt  `gorm:"index" json:"-"`
	UserID    uint            `gorm:"uniqueIndex;not null" json:"user_id"`
	Grams     decimal.Decimal `gorm:"type:decimal(20,6);not null" json:"grams"`
}

func (Holding) TableName() string {
	return "holdings"
}

// Transaction records one executed trade at the prices quoted at
// execution time.
type Transaction struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	DeletedAt    gorm.DeletedAt  `gorm:"index" json:"-"`
	UserID       uint            `gorm:"index;not null" json:"user_id"`
	Type         TransactionType `gorm:"size:10;not null" json:"type"`
	Grams        decimal.Decimal `gorm:"type:decimal(20,6);not null" json:"grams"`
	PricePerGram decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"price_per_gram"`
	Subtotal     decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"subtotal"`
	Fee          decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"fee"`
	Total        decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"total"`
	Currency     string          `gorm:"size:10;not null" json:"currency"`
	Status       string          `gorm:"size:20;default:'completed'" json:"status"`
	Notes        string          `gorm:"type:text" json:"notes"`
}

func (Transaction) TableName() string {
	return "transactions"
}
