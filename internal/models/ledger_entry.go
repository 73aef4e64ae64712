package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LedgerMeta tags a ledger entry with its settlement mode and kind.
type LedgerMeta struct {
	Mode  string `json:"mode,omitempty"`
	Level int    `json:"level,omitempty"`
	Kind  string `json:"kind,omitempty"`
}

func (m LedgerMeta) Value() (driver.Value, error) {
	b, err := json.Marshal(m)
	return string(b), err
}

func (m *LedgerMeta) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*m = LedgerMeta{}
		return nil
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	}
	return errors.New("unsupported source type for LedgerMeta")
}

// LedgerEntry is the double-entry mirror of a wallet mutation, written for
// accounting reconciliation when ledger accounting is enabled. Debit and
// credit name the two accounts the amount moves between.
type LedgerEntry struct {
	ID         string     `gorm:"type:char(36);primaryKey" json:"id"`
	MerchantID string     `gorm:"type:char(36);not null;index" json:"merchant_id"`
	CustomerID string     `gorm:"type:char(36);not null;index" json:"customer_id"`
	Debit      string     `gorm:"size:30;not null" json:"debit"`
	Credit     string     `gorm:"size:30;not null" json:"credit"`
	Amount     int64      `gorm:"not null" json:"amount"`
	OrderID    string     `gorm:"size:191;index" json:"order_id"`
	OutletID   *string    `gorm:"type:char(36)" json:"outlet_id"`
	StaffID    *string    `gorm:"type:char(36)" json:"staff_id"`
	DeviceID   *string    `gorm:"type:char(36)" json:"device_id"`
	Meta       LedgerMeta `gorm:"type:json" json:"meta"`
	CreatedAt  time.Time  `json:"created_at"`
}

func (LedgerEntry) TableName() string { return "ledger_entries" }

func (e *LedgerEntry) BeforeCreate(*gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}
