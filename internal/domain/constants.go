package domain

// Referral program configuration
const (
	ProgramStatusActive = "ACTIVE"

	RewardTriggerFirst = "first"
	RewardTriggerAll   = "all"

	RewardTypeFixed   = "FIXED"
	RewardTypePercent = "PERCENT"
)

// Referral edge lifecycle
const (
	ReferralStatusActivated = "ACTIVATED"
	ReferralStatusCompleted = "COMPLETED"
)

const (
	WalletTypePoints = "POINTS"
)

const (
	TxnTypeReferral = "REFERRAL"
	TxnTypeRefund   = "REFUND"
)

// Transaction metadata provenance markers
const (
	TxnSourceReferralBonus    = "REFERRAL_BONUS"
	TxnSourceReferralRollback = "REFERRAL_ROLLBACK"
)

// Double-entry ledger accounts
const (
	LedgerAccountMerchantLiability = "MERCHANT_LIABILITY"
	LedgerAccountCustomerBalance   = "CUSTOMER_BALANCE"
)

const (
	LedgerModeReferral = "REFERRAL"
	LedgerKindRollback = "rollback"
)

// Idempotency key prefixes for referral settlement transactions. A reward is
// keyed referral_reward_{receiptID}_L{level}; its compensation swaps the prefix.
const (
	RewardOrderPrefix   = "referral_reward_"
	RollbackOrderPrefix = "referral_rollback_"
)

// FallbackScanLevels bounds the historical reward scan on refund when no
// program configuration is available to derive the real level cap.
const FallbackScanLevels = 5
