package repository

import (
	"strings"

	"loyka/internal/domain"
	"loyka/internal/models"

	"gorm.io/gorm"
)

type TransactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) Create(txn *models.Transaction) error {
	return r.db.Create(txn).Error
}

// ExistsByOrderID reports whether any transaction with the given idempotency
// key was already recorded for the merchant.
func (r *TransactionRepository) ExistsByOrderID(merchantID, orderID string) (bool, error) {
	var n int64
	err := r.db.Model(&models.Transaction{}).
		Where("merchant_id = ? AND order_id = ?", merchantID, orderID).
		Count(&n).Error
	return n > 0, err
}

// HasActiveRefund reports whether a non-canceled REFUND transaction was
// already recorded against the order.
func (r *TransactionRepository) HasActiveRefund(merchantID, orderID string) (bool, error) {
	var n int64
	err := r.db.Model(&models.Transaction{}).
		Where("merchant_id = ? AND order_id = ? AND type = ? AND canceled_at IS NULL",
			merchantID, orderID, domain.TxnTypeRefund).
		Count(&n).Error
	return n > 0, err
}

// ActiveReferralByOrderPrefix returns the non-canceled REFERRAL transactions
// whose order id starts with the given prefix.
func (r *TransactionRepository) ActiveReferralByOrderPrefix(merchantID, prefix string) ([]models.Transaction, error) {
	var list []models.Transaction
	err := r.db.
		Where("merchant_id = ? AND type = ? AND canceled_at IS NULL", merchantID, domain.TxnTypeReferral).
		Where("order_id LIKE ? ESCAPE '|'", escapeLike(prefix)+"%").
		Find(&list).Error
	return list, err
}

// ActiveReferralByOrderIDs returns the non-canceled REFERRAL transactions
// matching any of the given order ids.
func (r *TransactionRepository) ActiveReferralByOrderIDs(merchantID string, orderIDs []string) ([]models.Transaction, error) {
	if len(orderIDs) == 0 {
		return nil, nil
	}
	var list []models.Transaction
	err := r.db.
		Where("merchant_id = ? AND type = ? AND canceled_at IS NULL", merchantID, domain.TxnTypeReferral).
		Where("order_id IN ?", orderIDs).
		Find(&list).Error
	return list, err
}

// ActiveAmountsByCustomer sums the non-canceled transaction deltas recorded
// against a customer's history with the merchant.
func (r *TransactionRepository) ActiveAmountsByCustomer(merchantID, customerID string) (int64, error) {
	var total int64
	err := r.db.Model(&models.Transaction{}).
		Where("merchant_id = ? AND customer_id = ? AND canceled_at IS NULL", merchantID, customerID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	return total, err
}

// escapeLike neutralizes LIKE wildcards so idempotency-key prefixes containing
// underscores match literally. The pipe escape character behaves the same in
// MySQL and SQLite.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, "|", "||")
	s = strings.ReplaceAll(s, "%", "|%")
	s = strings.ReplaceAll(s, "_", "|_")
	return s
}
