package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LevelReward configures the payout for one level of a multi-level program.
type LevelReward struct {
	Level   int             `json:"level"`
	Reward  decimal.Decimal `json:"reward"`
	Enabled bool            `json:"enabled"`
}

// LevelRewards is stored as a JSON column, mirroring the portal's program
// editor payload.
type LevelRewards []LevelReward

func (l LevelRewards) Value() (driver.Value, error) {
	if len(l) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	return string(b), err
}

func (l *LevelRewards) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	}
	return errors.New("unsupported source type for LevelRewards")
}

// ReferralProgram is a merchant-scoped referral configuration. The settlement
// engine treats the active program as authoritative for grants and the most
// recently created one as authoritative for rollback policy.
type ReferralProgram struct {
	ID                string          `gorm:"type:char(36);primaryKey" json:"id"`
	MerchantID        string          `gorm:"type:char(36);not null;index" json:"merchant_id"`
	Status            string          `gorm:"size:20;not null;default:'ACTIVE'" json:"status"`
	IsActive          bool            `gorm:"not null" json:"is_active"`
	RewardTrigger     string          `gorm:"size:10;not null;default:'first'" json:"reward_trigger"` // first, all
	RewardType        string          `gorm:"size:10;not null;default:'FIXED'" json:"reward_type"`    // FIXED, PERCENT
	ReferrerReward    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"referrer_reward"`
	MinPurchaseAmount decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"min_purchase_amount"`
	MultiLevel        bool            `gorm:"not null;default:false" json:"multi_level"`
	LevelRewards      LevelRewards    `gorm:"type:json" json:"level_rewards"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
	DeletedAt         gorm.DeletedAt  `gorm:"index" json:"-"`
}

func (ReferralProgram) TableName() string { return "referral_programs" }

func (p *ReferralProgram) BeforeCreate(*gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
