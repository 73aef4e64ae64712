package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TransactionMeta is the small fixed set of metadata keys the settlement
// engine reads and writes. It is persisted as a JSON column but deliberately
// modeled as a struct rather than a free-form map.
type TransactionMeta struct {
	Source                string `json:"source,omitempty"`
	ReferralLevel         int    `json:"referralLevel,omitempty"`
	ReceiptID             string `json:"receiptId,omitempty"`
	BuyerID               string `json:"buyerId,omitempty"`
	OriginalOrderID       string `json:"originalOrderId,omitempty"`
	OriginalTransactionID string `json:"originalTransactionId,omitempty"`
}

func (m TransactionMeta) Value() (driver.Value, error) {
	b, err := json.Marshal(m)
	return string(b), err
}

func (m *TransactionMeta) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*m = TransactionMeta{}
		return nil
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	}
	return errors.New("unsupported source type for TransactionMeta")
}

// Transaction is the append-only reward/rollback record. Positive amounts are
// credits, negative amounts debits. Rows are never mutated after creation
// except to mark them canceled; reversals are separate compensating rows.
type Transaction struct {
	ID         string          `gorm:"type:char(36);primaryKey" json:"id"`
	CustomerID string          `gorm:"type:char(36);not null;index" json:"customer_id"`
	MerchantID string          `gorm:"type:char(36);not null;index:idx_transactions_merchant_order" json:"merchant_id"`
	Type       string          `gorm:"size:20;not null;index" json:"type"` // REFERRAL, REFUND
	Amount     int64           `gorm:"not null" json:"amount"`
	OrderID    string          `gorm:"size:191;not null;index:idx_transactions_merchant_order" json:"order_id"` // idempotency key
	OutletID   *string         `gorm:"type:char(36)" json:"outlet_id"`
	StaffID    *string         `gorm:"type:char(36)" json:"staff_id"`
	DeviceID   *string         `gorm:"type:char(36)" json:"device_id"`
	Metadata   TransactionMeta `gorm:"type:json" json:"metadata"`
	CanceledAt *time.Time      `json:"canceled_at"`
	CreatedAt  time.Time       `json:"created_at"`
}

func (Transaction) TableName() string { return "transactions" }

func (t *Transaction) BeforeCreate(*gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}
