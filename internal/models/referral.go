package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Referral is a directed referrer -> referee edge under a program. A referee
// has at most one active edge per program. The edge graph is written at invite
// acceptance and is not validated for cycles, so any walk over it must be
// bounded by configuration.
type Referral struct {
	ID             string         `gorm:"type:char(36);primaryKey" json:"id"`
	ProgramID      string         `gorm:"type:char(36);not null;index:idx_referrals_program_referee" json:"program_id"`
	ReferrerID     string         `gorm:"type:char(36);not null;index" json:"referrer_id"`
	RefereeID      string         `gorm:"type:char(36);not null;index:idx_referrals_program_referee" json:"referee_id"`
	Status         string         `gorm:"size:20;not null;default:'ACTIVATED';index" json:"status"` // ACTIVATED, COMPLETED
	PurchaseAmount *int64         `json:"purchase_amount"`                                          // amount of the purchase that completed the edge
	CompletedAt    *time.Time     `json:"completed_at"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`

	Program ReferralProgram `gorm:"foreignKey:ProgramID" json:"-"`
}

func (Referral) TableName() string { return "referrals" }

func (r *Referral) BeforeCreate(*gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}
