package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Receipt records a committed purchase. A receipt is a valid purchase for
// referral purposes while its total is positive, it has not been canceled and
// no active REFUND transaction shares its order id.
type Receipt struct {
	ID         string     `gorm:"type:char(36);primaryKey" json:"id"`
	MerchantID string     `gorm:"type:char(36);not null;index:idx_receipts_merchant_customer" json:"merchant_id"`
	CustomerID string     `gorm:"type:char(36);not null;index:idx_receipts_merchant_customer" json:"customer_id"`
	OrderID    string     `gorm:"size:191;not null;index" json:"order_id"`
	Total      int64      `gorm:"not null" json:"total"`
	OutletID   *string    `gorm:"type:char(36)" json:"outlet_id"`
	StaffID    *string    `gorm:"type:char(36)" json:"staff_id"`
	DeviceID   *string    `gorm:"type:char(36)" json:"device_id"`
	CanceledAt *time.Time `json:"canceled_at"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func (Receipt) TableName() string { return "receipts" }

func (r *Receipt) BeforeCreate(*gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}
