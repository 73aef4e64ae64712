package service

import (
	"strings"

	"github.com/shopspring/decimal"

	"loyka/internal/domain"
	"loyka/internal/models"
)

// RewardPoints converts a program rule into an integral point amount for one
// level. PERCENT rules take the floor of the percentage of the purchase;
// anything else is treated as FIXED and floored directly. Never negative.
func RewardPoints(rewardType string, ruleValue decimal.Decimal, purchaseAmount int64) int64 {
	if rewardType == domain.RewardTypePercent {
		if ruleValue.IsNegative() {
			return 0
		}
		return decimal.NewFromInt(purchaseAmount).
			Mul(ruleValue).
			Div(decimal.NewFromInt(100)).
			Floor().
			IntPart()
	}
	points := ruleValue.Floor().IntPart()
	if points < 0 {
		return 0
	}
	return points
}

// programTrigger normalizes the reward trigger, defaulting to first.
func programTrigger(p *models.ReferralProgram) string {
	t := strings.ToLower(strings.TrimSpace(p.RewardTrigger))
	if t == "" {
		return domain.RewardTriggerFirst
	}
	return t
}

// programRewardType normalizes the reward type, defaulting to FIXED.
func programRewardType(p *models.ReferralProgram) string {
	rt := strings.ToUpper(strings.TrimSpace(p.RewardType))
	if rt == "" {
		return domain.RewardTypeFixed
	}
	return rt
}

func levelConfig(p *models.ReferralProgram, level int) *models.LevelReward {
	for i := range p.LevelRewards {
		if p.LevelRewards[i].Level == level {
			return &p.LevelRewards[i]
		}
	}
	return nil
}

// levelEnabled reports whether a level pays out. Level 1 is always payable;
// higher levels need multi-level mode plus an explicitly enabled config entry.
func levelEnabled(p *models.ReferralProgram, level int) bool {
	if level == 1 {
		return true
	}
	if !p.MultiLevel {
		return false
	}
	cfg := levelConfig(p, level)
	return cfg != nil && cfg.Enabled
}

// rewardValueForLevel resolves the rule value for a level. The program-wide
// referrer reward backs level 1 when no per-level entry exists.
func rewardValueForLevel(p *models.ReferralProgram, level int) decimal.Decimal {
	if cfg := levelConfig(p, level); cfg != nil {
		return cfg.Reward
	}
	if level == 1 {
		return p.ReferrerReward
	}
	return decimal.Zero
}

// programMaxLevels caps the chain walk. The referral graph may be cyclic or
// self-referential, so the walk is bounded by configuration, never by graph
// termination alone.
func programMaxLevels(p *models.ReferralProgram) int {
	if !p.MultiLevel {
		return 1
	}
	max := 1
	for _, lr := range p.LevelRewards {
		if lr.Level > max {
			max = lr.Level
		}
	}
	return max
}
