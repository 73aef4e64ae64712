package service

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"loyka/internal/domain"
	"loyka/internal/metrics"
	"loyka/internal/models"
	"loyka/internal/repository"
)

// SettlementService grants referral rewards on purchase commits and reverses
// them on refunds. It always runs inside the caller's database transaction:
// construct it over a tx-bound Store and let returned errors abort the
// enclosing transaction. It never opens a transaction or commits on its own.
type SettlementService struct {
	store         *repository.Store
	metrics       metrics.Recorder
	ledgerEnabled bool
}

func NewSettlementService(store *repository.Store, rec metrics.Recorder, ledgerEnabled bool) *SettlementService {
	if rec == nil {
		rec = metrics.Noop{}
	}
	return &SettlementService{store: store, metrics: rec, ledgerEnabled: ledgerEnabled}
}

// RewardInput identifies the committed purchase being settled.
type RewardInput struct {
	MerchantID     string
	BuyerID        string
	PurchaseAmount int64
	ReceiptID      string
	OrderID        string
	OutletID       *string
	StaffID        *string
	DeviceID       *string
}

// RefundReceipt identifies the receipt being refunded.
type RefundReceipt struct {
	ID         string
	OrderID    string
	CustomerID string
	OutletID   *string
	StaffID    *string
}

func rewardOrderID(receiptID string, level int) string {
	return fmt.Sprintf("%s%s_L%d", domain.RewardOrderPrefix, receiptID, level)
}

// ApplyReferralRewards walks the buyer's referral chain and credits each
// eligible upstream referrer for the purchase. Every skip condition is a
// silent no-op: settlement must never fail a purchase for business reasons,
// only for store errors.
func (s *SettlementService) ApplyReferralRewards(in RewardInput) error {
	program, err := s.store.Referrals.ActiveProgram(in.MerchantID)
	if err != nil {
		return err
	}
	if program == nil {
		return nil
	}
	if decimal.NewFromInt(in.PurchaseAmount).LessThan(program.MinPurchaseAmount) {
		return nil // purchase does not qualify
	}

	direct, err := s.store.Referrals.EdgeByReferee(program.ID, in.BuyerID)
	if err != nil {
		return err
	}
	if direct == nil {
		return nil // buyer was not referred under the active program
	}

	triggerAll := programTrigger(program) == domain.RewardTriggerAll
	canFirstPayout := direct.Status == domain.ReferralStatusActivated
	if !triggerAll && !canFirstPayout {
		return nil // first-purchase reward already fired
	}

	maxLevels := programMaxLevels(program)
	current := direct
	for level := 1; level <= maxLevels && current != nil; level++ {
		if levelEnabled(program, level) {
			points := RewardPoints(programRewardType(program), rewardValueForLevel(program, level), in.PurchaseAmount)
			if points > 0 {
				if err := s.grantLevelReward(program, current.ReferrerID, level, points, in); err != nil {
					return err
				}
			}
		}
		if !program.MultiLevel {
			break
		}
		parent, err := s.store.Referrals.EdgeByReferee(program.ID, current.ReferrerID)
		if err != nil {
			return err
		}
		if parent == nil {
			break
		}
		current = parent
	}

	if !triggerAll && direct.Status == domain.ReferralStatusActivated {
		if err := s.store.Referrals.CompleteEdge(direct.ID, in.PurchaseAmount, time.Now()); err != nil {
			return err
		}
	}
	return nil
}

// grantLevelReward credits one referrer for one level: wallet increment,
// reward transaction, and the ledger mirror when accounting is enabled. The
// deterministic order id makes retried settlements of the same receipt a
// per-level no-op.
func (s *SettlementService) grantLevelReward(program *models.ReferralProgram, referrerID string, level int, points int64, in RewardInput) error {
	orderID := rewardOrderID(in.ReceiptID, level)
	exists, err := s.store.Transactions.ExistsByOrderID(in.MerchantID, orderID)
	if err != nil {
		return err
	}
	if exists {
		return nil // reward already granted for this receipt and level
	}

	wallet, err := s.store.Wallets.PointsWallet(referrerID, in.MerchantID)
	if err != nil {
		return err
	}
	if wallet == nil {
		wallet, err = s.store.Wallets.CreatePointsWallet(referrerID, in.MerchantID)
		if err != nil {
			return err
		}
	}
	if err := s.store.Wallets.AddToBalance(wallet.ID, points); err != nil {
		return err
	}

	if err := s.store.Transactions.Create(&models.Transaction{
		CustomerID: referrerID,
		MerchantID: in.MerchantID,
		Type:       domain.TxnTypeReferral,
		Amount:     points,
		OrderID:    orderID,
		OutletID:   in.OutletID,
		StaffID:    in.StaffID,
		DeviceID:   in.DeviceID,
		Metadata: models.TransactionMeta{
			Source:        domain.TxnSourceReferralBonus,
			ReferralLevel: level,
			ReceiptID:     in.ReceiptID,
			BuyerID:       in.BuyerID,
		},
	}); err != nil {
		return err
	}

	if s.ledgerEnabled {
		if err := s.store.Ledger.Create(&models.LedgerEntry{
			MerchantID: in.MerchantID,
			CustomerID: referrerID,
			Debit:      domain.LedgerAccountMerchantLiability,
			Credit:     domain.LedgerAccountCustomerBalance,
			Amount:     points,
			OrderID:    in.OrderID,
			OutletID:   in.OutletID,
			StaffID:    in.StaffID,
			DeviceID:   in.DeviceID,
			Meta:       models.LedgerMeta{Mode: domain.LedgerModeReferral, Level: level},
		}); err != nil {
			return err
		}
		s.metrics.IncLedgerEntries(metrics.OpEarn)
		s.metrics.AddLedgerAmount(metrics.OpEarn, points)
	}
	return nil
}

// RollbackReferralRewards reverses the rewards granted for a refunded receipt
// with compensating transactions, then re-evaluates the buyer's referral
// state. Under the first trigger the rollback is skipped entirely when the
// buyer still holds another qualifying receipt: the referrer's reward remains
// earned by that purchase.
func (s *SettlementService) RollbackReferralRewards(merchantID string, rcpt RefundReceipt) error {
	rewards, err := s.store.Transactions.ActiveReferralByOrderPrefix(merchantID, domain.RewardOrderPrefix+rcpt.ID)
	if err != nil {
		return err
	}

	program, err := s.store.Referrals.LatestProgram(merchantID)
	if err != nil {
		return err
	}

	skipRollback := false
	if program != nil && programTrigger(program) != domain.RewardTriggerAll {
		minTotal := program.MinPurchaseAmount.Round(0).IntPart()
		if minTotal < 0 {
			minTotal = 0
		}
		ok, err := s.store.Receipts.HasOtherValidReceipt(merchantID, rcpt.CustomerID, rcpt.ID, minTotal)
		if err != nil {
			return err
		}
		skipRollback = ok
	}

	if len(rewards) == 0 && !skipRollback {
		// Recovery path for rewards written without the exact receipt linkage.
		rewards, err = s.loadRewardsForCustomer(merchantID, rcpt.CustomerID, program)
		if err != nil {
			return err
		}
	}

	if len(rewards) == 0 || skipRollback {
		return nil
	}

	for i := range rewards {
		if err := s.rollbackReward(merchantID, rcpt, &rewards[i]); err != nil {
			return err
		}
	}

	return s.ReopenReferralAfterRefund(merchantID, rcpt.CustomerID)
}

// rollbackReward emits the compensating entries for one reward transaction.
// The rollback order id is derived from the reward's, so applying the same
// rollback twice is a no-op.
func (s *SettlementService) rollbackReward(merchantID string, rcpt RefundReceipt, reward *models.Transaction) error {
	amount := reward.Amount
	if amount < 0 {
		amount = -amount
	}
	if amount == 0 {
		return nil
	}

	rollbackOrderID := domain.RollbackOrderPrefix + reward.ID
	if strings.HasPrefix(reward.OrderID, domain.RewardOrderPrefix) {
		rollbackOrderID = domain.RollbackOrderPrefix + strings.TrimPrefix(reward.OrderID, domain.RewardOrderPrefix)
	}
	exists, err := s.store.Transactions.ExistsByOrderID(merchantID, rollbackOrderID)
	if err != nil {
		return err
	}
	if exists {
		return nil // rollback already applied
	}

	wallet, err := s.store.Wallets.PointsWallet(reward.CustomerID, merchantID)
	if err != nil {
		return err
	}
	if wallet == nil {
		// The reward was never credited through this path; nothing to claw back.
		log.Printf("[settlement] no points wallet for customer %s, skipping rollback of %s", reward.CustomerID, reward.OrderID)
		return nil
	}
	if err := s.store.Wallets.AddToBalance(wallet.ID, -amount); err != nil {
		return err
	}

	outletID := firstNonNil(reward.OutletID, rcpt.OutletID)
	staffID := firstNonNil(reward.StaffID, rcpt.StaffID)

	if err := s.store.Transactions.Create(&models.Transaction{
		CustomerID: reward.CustomerID,
		MerchantID: merchantID,
		Type:       domain.TxnTypeReferral,
		Amount:     -amount,
		OrderID:    rollbackOrderID,
		OutletID:   outletID,
		StaffID:    staffID,
		Metadata: models.TransactionMeta{
			Source:                domain.TxnSourceReferralRollback,
			OriginalOrderID:       reward.OrderID,
			OriginalTransactionID: reward.ID,
			ReceiptID:             rcpt.ID,
			BuyerID:               strings.TrimSpace(reward.Metadata.BuyerID),
		},
	}); err != nil {
		return err
	}

	if s.ledgerEnabled {
		if err := s.store.Ledger.Create(&models.LedgerEntry{
			MerchantID: merchantID,
			CustomerID: reward.CustomerID,
			Debit:      domain.LedgerAccountCustomerBalance,
			Credit:     domain.LedgerAccountMerchantLiability,
			Amount:     amount,
			OrderID:    rcpt.OrderID,
			OutletID:   outletID,
			StaffID:    staffID,
			Meta:       models.LedgerMeta{Mode: domain.LedgerModeReferral, Kind: domain.LedgerKindRollback},
		}); err != nil {
			return err
		}
		s.metrics.IncLedgerEntries(metrics.OpReferralRollback)
		s.metrics.AddLedgerAmount(metrics.OpReferralRollback, amount)
	}
	return nil
}

// loadRewardsForCustomer recovers reward transactions for receipts that lack
// the exact receipt linkage: it enumerates the buyer's receipts and probes the
// reward key space level by level. The probe depth follows the program's
// configured level cap when that exceeds the historical default of five.
func (s *SettlementService) loadRewardsForCustomer(merchantID, customerID string, program *models.ReferralProgram) ([]models.Transaction, error) {
	receiptIDs, err := s.store.Receipts.IDsForCustomer(merchantID, customerID)
	if err != nil || len(receiptIDs) == 0 {
		return nil, err
	}
	levels := domain.FallbackScanLevels
	if program != nil {
		if ml := programMaxLevels(program); ml > levels {
			levels = ml
		}
	}
	orderIDs := make([]string, 0, len(receiptIDs)*levels)
	for _, rid := range receiptIDs {
		for level := 1; level <= levels; level++ {
			orderIDs = append(orderIDs, rewardOrderID(rid, level))
		}
	}
	return s.store.Transactions.ActiveReferralByOrderIDs(merchantID, orderIDs)
}

// ReopenReferralAfterRefund resets the buyer's most recently completed edge so
// a future qualifying purchase can fire the first-purchase reward again. Under
// the all trigger completion state carries no meaning and is left alone.
func (s *SettlementService) ReopenReferralAfterRefund(merchantID, customerID string) error {
	edge, err := s.store.Referrals.LatestCompletedEdge(merchantID, customerID)
	if err != nil {
		return err
	}
	if edge == nil {
		return nil
	}
	if programTrigger(&edge.Program) == domain.RewardTriggerAll {
		return nil
	}
	return s.store.Referrals.ReopenEdge(edge.ID)
}

func firstNonNil(vals ...*string) *string {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}
