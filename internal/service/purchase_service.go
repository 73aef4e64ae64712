package service

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"loyka/internal/domain"
	"loyka/internal/metrics"
	"loyka/internal/models"
	"loyka/internal/repository"
)

var ErrReceiptNotFound = errors.New("receipt not found")

// PurchaseService owns the receipt commit and refund transactions that wrap
// the settlement engine. Each public method opens exactly one database
// transaction; settlement runs inside it and its errors roll the whole
// operation back.
type PurchaseService struct {
	store         *repository.Store
	metrics       metrics.Recorder
	ledgerEnabled bool
	validate      *validator.Validate
}

func NewPurchaseService(db *gorm.DB, rec metrics.Recorder, ledgerEnabled bool) *PurchaseService {
	if rec == nil {
		rec = metrics.Noop{}
	}
	return &PurchaseService{
		store:         repository.NewStore(db),
		metrics:       rec,
		ledgerEnabled: ledgerEnabled,
		validate:      validator.New(),
	}
}

// CommitInput describes a finished purchase to record and settle.
type CommitInput struct {
	MerchantID string `validate:"required"`
	CustomerID string `validate:"required"`
	OrderID    string `validate:"required"`
	Total      int64  `validate:"gte=0"`
	OutletID   *string
	StaffID    *string
	DeviceID   *string
}

// CommitPurchase records the receipt and applies referral rewards atomically.
func (s *PurchaseService) CommitPurchase(in CommitInput) (*models.Receipt, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}
	receipt := &models.Receipt{
		MerchantID: in.MerchantID,
		CustomerID: in.CustomerID,
		OrderID:    in.OrderID,
		Total:      in.Total,
		OutletID:   in.OutletID,
		StaffID:    in.StaffID,
		DeviceID:   in.DeviceID,
	}
	err := s.store.DB().Transaction(func(tx *gorm.DB) error {
		store := s.store.WithTx(tx)
		if err := store.Receipts.Create(receipt); err != nil {
			return err
		}
		settle := NewSettlementService(store, s.metrics, s.ledgerEnabled)
		return settle.ApplyReferralRewards(RewardInput{
			MerchantID:     in.MerchantID,
			BuyerID:        in.CustomerID,
			PurchaseAmount: in.Total,
			ReceiptID:      receipt.ID,
			OrderID:        in.OrderID,
			OutletID:       in.OutletID,
			StaffID:        in.StaffID,
			DeviceID:       in.DeviceID,
		})
	})
	if err != nil {
		return nil, err
	}
	return receipt, nil
}

// RefundInput identifies the receipt being refunded.
type RefundInput struct {
	MerchantID string `validate:"required"`
	ReceiptID  string `validate:"required"`
	OutletID   *string
	StaffID    *string
}

// RefundPurchase voids the receipt, records the refund transaction against its
// order id, and rolls back attributable referral rewards atomically.
func (s *PurchaseService) RefundPurchase(in RefundInput) error {
	if err := s.validate.Struct(in); err != nil {
		return err
	}
	return s.store.DB().Transaction(func(tx *gorm.DB) error {
		store := s.store.WithTx(tx)
		receipt, err := store.Receipts.GetByID(in.ReceiptID, in.MerchantID)
		if err != nil {
			return err
		}
		if receipt == nil {
			return ErrReceiptNotFound
		}

		// A refund already on the books, or a receipt voided by a concurrent
		// call, means this refund was handled; re-recording it would double
		// the negative entry.
		refunded, err := store.Transactions.HasActiveRefund(in.MerchantID, receipt.OrderID)
		if err != nil {
			return err
		}
		if refunded || receipt.CanceledAt != nil {
			return nil
		}
		canceled, err := store.Receipts.Cancel(receipt.ID, time.Now())
		if err != nil {
			return err
		}
		if !canceled {
			return nil
		}
		outletID := firstNonNil(in.OutletID, receipt.OutletID)
		staffID := firstNonNil(in.StaffID, receipt.StaffID)
		if err := store.Transactions.Create(&models.Transaction{
			CustomerID: receipt.CustomerID,
			MerchantID: in.MerchantID,
			Type:       domain.TxnTypeRefund,
			Amount:     -receipt.Total,
			OrderID:    receipt.OrderID,
			OutletID:   outletID,
			StaffID:    staffID,
			Metadata:   models.TransactionMeta{ReceiptID: receipt.ID},
		}); err != nil {
			return err
		}

		settle := NewSettlementService(store, s.metrics, s.ledgerEnabled)
		return settle.RollbackReferralRewards(in.MerchantID, RefundReceipt{
			ID:         receipt.ID,
			OrderID:    receipt.OrderID,
			CustomerID: receipt.CustomerID,
			OutletID:   outletID,
			StaffID:    staffID,
		})
	})
}
