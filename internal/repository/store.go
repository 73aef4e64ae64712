package repository

import "gorm.io/gorm"

// Store bundles the repositories the settlement engine touches, all bound to
// the same *gorm.DB handle. The engine must share the caller's transaction,
// so callers running inside db.Transaction rebind with WithTx before handing
// the store to a service.
type Store struct {
	db *gorm.DB

	Referrals    *ReferralRepository
	Wallets      *WalletRepository
	Transactions *TransactionRepository
	Ledger       *LedgerRepository
	Receipts     *ReceiptRepository
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:           db,
		Referrals:    NewReferralRepository(db),
		Wallets:      NewWalletRepository(db),
		Transactions: NewTransactionRepository(db),
		Ledger:       NewLedgerRepository(db),
		Receipts:     NewReceiptRepository(db),
	}
}

// WithTx returns a store bound to the given transaction handle.
func (s *Store) WithTx(tx *gorm.DB) *Store {
	return NewStore(tx)
}

func (s *Store) DB() *gorm.DB {
	return s.db
}
