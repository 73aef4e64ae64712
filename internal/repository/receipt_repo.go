package repository

import (
	"errors"
	"time"

	"loyka/internal/domain"
	"loyka/internal/models"

	"gorm.io/gorm"
)

type ReceiptRepository struct {
	db *gorm.DB
}

func NewReceiptRepository(db *gorm.DB) *ReceiptRepository {
	return &ReceiptRepository{db: db}
}

func (r *ReceiptRepository) Create(receipt *models.Receipt) error {
	return r.db.Create(receipt).Error
}

func (r *ReceiptRepository) GetByID(id, merchantID string) (*models.Receipt, error) {
	var rcpt models.Receipt
	err := r.db.Where("id = ? AND merchant_id = ?", id, merchantID).First(&rcpt).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rcpt, nil
}

// Cancel voids a receipt. Voiding is recorded, never deleted. The boolean
// reports whether this call did the voiding; false means the receipt was
// already canceled, which callers treat as a lock against double refunds.
func (r *ReceiptRepository) Cancel(id string, at time.Time) (bool, error) {
	res := r.db.Model(&models.Receipt{}).
		Where("id = ? AND canceled_at IS NULL", id).
		Update("canceled_at", at)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// IDsForCustomer lists the customer's receipt ids with the merchant.
func (r *ReceiptRepository) IDsForCustomer(merchantID, customerID string) ([]string, error) {
	var ids []string
	err := r.db.Model(&models.Receipt{}).
		Where("merchant_id = ? AND customer_id = ?", merchantID, customerID).
		Pluck("id", &ids).Error
	return ids, err
}

// HasOtherValidReceipt reports whether the customer holds another valid,
// non-refunded receipt at or above the minimum total. Valid means a positive
// total, not canceled, and no active REFUND transaction sharing the order id.
func (r *ReceiptRepository) HasOtherValidReceipt(merchantID, customerID, excludeReceiptID string, minTotal int64) (bool, error) {
	var n int64
	err := r.db.Model(&models.Receipt{}).
		Where("merchant_id = ? AND customer_id = ? AND id <> ?", merchantID, customerID, excludeReceiptID).
		Where("total > 0 AND total >= ? AND canceled_at IS NULL", minTotal).
		Where("NOT EXISTS (SELECT 1 FROM transactions t WHERE t.merchant_id = receipts.merchant_id AND t.order_id = receipts.order_id AND t.type = ? AND t.canceled_at IS NULL)",
			domain.TxnTypeRefund).
		Count(&n).Error
	return n > 0, err
}
