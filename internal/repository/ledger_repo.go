package repository

import (
	"loyka/internal/models"

	"gorm.io/gorm"
)

type LedgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

func (r *LedgerRepository) Create(entry *models.LedgerEntry) error {
	return r.db.Create(entry).Error
}

// EntriesByOrderID returns the ledger mirror rows for an order, newest last.
func (r *LedgerRepository) EntriesByOrderID(merchantID, orderID string) ([]models.LedgerEntry, error) {
	var list []models.LedgerEntry
	err := r.db.Where("merchant_id = ? AND order_id = ?", merchantID, orderID).
		Order("created_at ASC").Find(&list).Error
	return list, err
}
