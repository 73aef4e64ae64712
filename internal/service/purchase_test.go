package service_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loyka/internal/domain"
	"loyka/internal/metrics"
	"loyka/internal/models"
	"loyka/internal/repository"
	"loyka/internal/service"
)

func TestPurchaseService_CommitAndRefund_EndToEnd(t *testing.T) {
	db := newTestDB(t)
	program := seedProgram(t, db, nil) // FIXED 50, trigger first, min purchase 100
	edge := seedEdge(t, db, program.ID, "referrer", "buyer")

	svc := service.NewPurchaseService(db, metrics.Noop{}, true)

	receipt, err := svc.CommitPurchase(service.CommitInput{
		MerchantID: merchant,
		CustomerID: "buyer",
		OrderID:    "order-1",
		Total:      150,
	})
	require.NoError(t, err)
	require.NotEmpty(t, receipt.ID)

	assert.EqualValues(t, 50, walletBalance(t, db, "referrer"))
	var reward models.Transaction
	require.NoError(t, db.Where("order_id = ?", "referral_reward_"+receipt.ID+"_L1").First(&reward).Error)
	assert.EqualValues(t, 50, reward.Amount)
	assert.Equal(t, domain.ReferralStatusCompleted, reloadEdge(t, db, edge.ID).Status)

	require.NoError(t, svc.RefundPurchase(service.RefundInput{
		MerchantID: merchant,
		ReceiptID:  receipt.ID,
	}))

	assert.EqualValues(t, 0, walletBalance(t, db, "referrer"))
	var rollback models.Transaction
	require.NoError(t, db.Where("order_id = ?", "referral_rollback_"+receipt.ID+"_L1").First(&rollback).Error)
	assert.EqualValues(t, -50, rollback.Amount)
	assert.Equal(t, domain.ReferralStatusActivated, reloadEdge(t, db, edge.ID).Status)

	var refunded models.Receipt
	require.NoError(t, db.First(&refunded, "id = ?", receipt.ID).Error)
	assert.NotNil(t, refunded.CanceledAt)
	var refundTxn models.Transaction
	require.NoError(t, db.Where("merchant_id = ? AND type = ? AND order_id = ?",
		merchant, domain.TxnTypeRefund, "order-1").First(&refundTxn).Error)
	assert.EqualValues(t, -150, refundTxn.Amount)
}

func TestPurchaseService_RefundIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	program := seedProgram(t, db, nil)
	seedEdge(t, db, program.ID, "referrer", "buyer")

	svc := service.NewPurchaseService(db, metrics.Noop{}, false)

	receipt, err := svc.CommitPurchase(service.CommitInput{
		MerchantID: merchant, CustomerID: "buyer", OrderID: "order-1", Total: 150,
	})
	require.NoError(t, err)

	require.NoError(t, svc.RefundPurchase(service.RefundInput{MerchantID: merchant, ReceiptID: receipt.ID}))
	// A repeat refund is a no-op: the canceled receipt holds the lock and no
	// second REFUND transaction may be recorded against the order.
	require.NoError(t, svc.RefundPurchase(service.RefundInput{MerchantID: merchant, ReceiptID: receipt.ID}))

	var refunds int64
	require.NoError(t, db.Model(&models.Transaction{}).
		Where("merchant_id = ? AND type = ? AND order_id = ?", merchant, domain.TxnTypeRefund, "order-1").
		Count(&refunds).Error)
	assert.EqualValues(t, 1, refunds)

	var rollbacks int64
	require.NoError(t, db.Model(&models.Transaction{}).
		Where("order_id = ?", "referral_rollback_"+receipt.ID+"_L1").Count(&rollbacks).Error)
	assert.EqualValues(t, 1, rollbacks)
	assert.EqualValues(t, 0, walletBalance(t, db, "referrer"))
}

func TestPurchaseService_RefundSkipsRollbackWhenOtherReceiptQualifies(t *testing.T) {
	db := newTestDB(t)
	program := seedProgram(t, db, nil)
	edge := seedEdge(t, db, program.ID, "referrer", "buyer")

	svc := service.NewPurchaseService(db, metrics.Noop{}, false)

	first, err := svc.CommitPurchase(service.CommitInput{
		MerchantID: merchant, CustomerID: "buyer", OrderID: "order-1", Total: 150,
	})
	require.NoError(t, err)
	_, err = svc.CommitPurchase(service.CommitInput{
		MerchantID: merchant, CustomerID: "buyer", OrderID: "order-2", Total: 120,
	})
	require.NoError(t, err)

	// The second receipt still qualifies, so refunding the first must not claw
	// the reward back or reopen the edge.
	require.NoError(t, svc.RefundPurchase(service.RefundInput{MerchantID: merchant, ReceiptID: first.ID}))

	assert.EqualValues(t, 50, walletBalance(t, db, "referrer"))
	var n int64
	require.NoError(t, db.Model(&models.Transaction{}).
		Where("order_id = ?", "referral_rollback_"+first.ID+"_L1").Count(&n).Error)
	assert.Zero(t, n)
	assert.Equal(t, domain.ReferralStatusCompleted, reloadEdge(t, db, edge.ID).Status)
}

func TestPurchaseService_RefundOnlyQualifyingReceiptRollsBack(t *testing.T) {
	db := newTestDB(t)
	program := seedProgram(t, db, nil)
	edge := seedEdge(t, db, program.ID, "referrer", "buyer")

	svc := service.NewPurchaseService(db, metrics.Noop{}, false)

	qualifying, err := svc.CommitPurchase(service.CommitInput{
		MerchantID: merchant, CustomerID: "buyer", OrderID: "order-1", Total: 150,
	})
	require.NoError(t, err)
	// A second receipt below the program minimum does not protect the reward.
	_, err = svc.CommitPurchase(service.CommitInput{
		MerchantID: merchant, CustomerID: "buyer", OrderID: "order-2", Total: 80,
	})
	require.NoError(t, err)

	require.NoError(t, svc.RefundPurchase(service.RefundInput{MerchantID: merchant, ReceiptID: qualifying.ID}))

	assert.EqualValues(t, 0, walletBalance(t, db, "referrer"))
	assert.Equal(t, domain.ReferralStatusActivated, reloadEdge(t, db, edge.ID).Status)
}

func TestPurchaseService_InvalidInput(t *testing.T) {
	db := newTestDB(t)
	svc := service.NewPurchaseService(db, metrics.Noop{}, false)

	_, err := svc.CommitPurchase(service.CommitInput{CustomerID: "buyer", OrderID: "o", Total: 100})
	assert.Error(t, err)

	err = svc.RefundPurchase(service.RefundInput{MerchantID: merchant, ReceiptID: "missing"})
	assert.ErrorIs(t, err, service.ErrReceiptNotFound)
}

func TestWalletBalanceConservation(t *testing.T) {
	db := newTestDB(t)
	program := seedProgram(t, db, func(p *models.ReferralProgram) {
		p.RewardTrigger = domain.RewardTriggerAll
		p.RewardType = domain.RewardTypePercent // 50 percent, from the seed default
	})
	seedEdge(t, db, program.ID, "referrer", "buyer")

	svc := service.NewPurchaseService(db, metrics.Noop{}, false)

	var receipts []*models.Receipt
	for i, total := range []int64{100, 150, 999} {
		r, err := svc.CommitPurchase(service.CommitInput{
			MerchantID: merchant,
			CustomerID: "buyer",
			OrderID:    fmt.Sprintf("order-%d", i+1),
			Total:      total,
		})
		require.NoError(t, err)
		receipts = append(receipts, r)
	}
	require.NoError(t, svc.RefundPurchase(service.RefundInput{MerchantID: merchant, ReceiptID: receipts[1].ID}))

	// The balance always equals the sum of non-canceled transaction deltas.
	store := repository.NewStore(db)
	sum, err := store.Transactions.ActiveAmountsByCustomer(merchant, "referrer")
	require.NoError(t, err)
	assert.Equal(t, walletBalance(t, db, "referrer"), sum)
	// 50% of 100, 150 and 999 floored, minus the refunded 75.
	assert.EqualValues(t, 50+499, sum)
}
