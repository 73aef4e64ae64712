package repository

import (
	"errors"

	"loyka/internal/domain"
	"loyka/internal/models"

	"gorm.io/gorm"
)

type WalletRepository struct {
	db *gorm.DB
}

func NewWalletRepository(db *gorm.DB) *WalletRepository {
	return &WalletRepository{db: db}
}

// PointsWallet returns the customer's POINTS wallet with the merchant, or nil
// if none was ever created.
func (r *WalletRepository) PointsWallet(customerID, merchantID string) (*models.Wallet, error) {
	var w models.Wallet
	err := r.db.Where("customer_id = ? AND merchant_id = ? AND type = ?",
		customerID, merchantID, domain.WalletTypePoints).First(&w).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// CreatePointsWallet lazily creates an empty POINTS wallet.
func (r *WalletRepository) CreatePointsWallet(customerID, merchantID string) (*models.Wallet, error) {
	w := &models.Wallet{
		CustomerID: customerID,
		MerchantID: merchantID,
		Type:       domain.WalletTypePoints,
		Balance:    0,
	}
	if err := r.db.Create(w).Error; err != nil {
		return nil, err
	}
	return w, nil
}

// AddToBalance applies a signed delta to a wallet balance. The increment runs
// in SQL so concurrent settlements against the same wallet serialize on the
// row instead of losing updates.
func (r *WalletRepository) AddToBalance(walletID string, delta int64) error {
	return r.db.Model(&models.Wallet{}).
		Where("id = ?", walletID).
		UpdateColumn("balance", gorm.Expr("balance + ?", delta)).Error
}
