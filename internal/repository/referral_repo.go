package repository

import (
	"errors"
	"time"

	"loyka/internal/domain"
	"loyka/internal/models"

	"gorm.io/gorm"
)

type ReferralRepository struct {
	db *gorm.DB
}

func NewReferralRepository(db *gorm.DB) *ReferralRepository {
	return &ReferralRepository{db: db}
}

// ActiveProgram returns the merchant's active and enabled referral program,
// or nil if the merchant runs none.
func (r *ReferralRepository) ActiveProgram(merchantID string) (*models.ReferralProgram, error) {
	var p models.ReferralProgram
	err := r.db.Where("merchant_id = ? AND status = ? AND is_active = ?",
		merchantID, domain.ProgramStatusActive, true).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// LatestProgram returns the merchant's most recently created program
// regardless of status. Rollback policy is read from this program even when a
// different one granted the original reward.
func (r *ReferralRepository) LatestProgram(merchantID string) (*models.ReferralProgram, error) {
	var p models.ReferralProgram
	err := r.db.Where("merchant_id = ?", merchantID).
		Order("created_at DESC").First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// EdgeByReferee returns the referral edge pointing at the given referee under
// a program, or nil if the referee was not invited.
func (r *ReferralRepository) EdgeByReferee(programID, refereeID string) (*models.Referral, error) {
	var e models.Referral
	err := r.db.Where("program_id = ? AND referee_id = ?", programID, refereeID).First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// CompleteEdge marks an edge COMPLETED and records the purchase that fired the
// first-purchase reward.
func (r *ReferralRepository) CompleteEdge(id string, purchaseAmount int64, at time.Time) error {
	return r.db.Model(&models.Referral{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":          domain.ReferralStatusCompleted,
			"completed_at":    at,
			"purchase_amount": purchaseAmount,
		}).Error
}

// ReopenEdge resets a completed edge back to ACTIVATED, clearing its
// completion provenance so a future qualifying purchase can re-fire the
// first-purchase reward.
func (r *ReferralRepository) ReopenEdge(id string) error {
	return r.db.Model(&models.Referral{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":          domain.ReferralStatusActivated,
			"completed_at":    nil,
			"purchase_amount": nil,
		}).Error
}

// LatestCompletedEdge returns the referee's most recently completed edge under
// any of the merchant's programs, with the owning program preloaded.
func (r *ReferralRepository) LatestCompletedEdge(merchantID, refereeID string) (*models.Referral, error) {
	var e models.Referral
	err := r.db.
		Joins("JOIN referral_programs ON referral_programs.id = referrals.program_id AND referral_programs.deleted_at IS NULL").
		Where("referral_programs.merchant_id = ? AND referrals.referee_id = ? AND referrals.status = ?",
			merchantID, refereeID, domain.ReferralStatusCompleted).
		Order("referrals.completed_at DESC").
		Preload("Program").
		First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}
