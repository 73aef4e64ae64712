package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Wallet holds a customer's point balance with one merchant. The balance is
// maintained as the running sum of non-canceled transaction deltas; it is
// never recomputed from history.
type Wallet struct {
	ID         string         `gorm:"type:char(36);primaryKey" json:"id"`
	CustomerID string         `gorm:"type:char(36);not null;uniqueIndex:idx_wallets_owner_type" json:"customer_id"`
	MerchantID string         `gorm:"type:char(36);not null;uniqueIndex:idx_wallets_owner_type" json:"merchant_id"`
	Type       string         `gorm:"size:20;not null;default:'POINTS';uniqueIndex:idx_wallets_owner_type" json:"type"`
	Balance    int64          `gorm:"not null;default:0" json:"balance"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Wallet) TableName() string { return "wallets" }

func (w *Wallet) BeforeCreate(*gorm.DB) error {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	return nil
}
