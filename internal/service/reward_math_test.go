package service_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"loyka/internal/domain"
	"loyka/internal/service"
)

func TestRewardPoints(t *testing.T) {
	cases := []struct {
		name       string
		rewardType string
		ruleValue  decimal.Decimal
		purchase   int64
		want       int64
	}{
		{"percent of purchase is floored", domain.RewardTypePercent, decimal.NewFromInt(10), 999, 99},
		{"percent exact", domain.RewardTypePercent, decimal.NewFromInt(10), 1000, 100},
		{"fractional percent", domain.RewardTypePercent, decimal.NewFromFloat(2.5), 1000, 25},
		{"negative percent clamps to zero", domain.RewardTypePercent, decimal.NewFromInt(-5), 1000, 0},
		{"percent of zero purchase", domain.RewardTypePercent, decimal.NewFromInt(10), 0, 0},
		{"fixed value", domain.RewardTypeFixed, decimal.NewFromInt(50), 150, 50},
		{"fixed value is floored", domain.RewardTypeFixed, decimal.NewFromFloat(49.9), 150, 49},
		{"negative fixed clamps to zero", domain.RewardTypeFixed, decimal.NewFromInt(-50), 150, 0},
		{"unknown type treated as fixed", "BONUS", decimal.NewFromInt(7), 150, 7},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, service.RewardPoints(tc.rewardType, tc.ruleValue, tc.purchase))
		})
	}
}
