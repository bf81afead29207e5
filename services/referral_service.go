package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/HSouheill/resellhub_backend/models"
	"github.com/HSouheill/resellhub_backend/repositories"
	"github.com/HSouheill/resellhub_backend/utils"
)

const maxCodeAttempts = 5

// ReferralService issues staff codes and attributes partners and sales to them
type ReferralService struct {
	referrals repositories.StaffReferralRepository
	accounts  repositories.AccountInfoRepository
}

func NewReferralService(referrals repositories.StaffReferralRepository, accounts repositories.AccountInfoRepository) *ReferralService {
	return &ReferralService{referrals: referrals, accounts: accounts}
}

// Create issues a new staff referral record with a unique code
func (s *ReferralService) Create(ctx context.Context, req models.CreateStaffReferralRequest) (*models.StaffReferral, error) {
	if _, err := s.referrals.FindByEmail(ctx, req.Email); err == nil {
		return nil, repositories.ErrDuplicate
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, err
	}

	now := time.Now()
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := utils.GenerateStaffReferralCode()
		if err != nil {
			return nil, fmt.Errorf("generate referral code: %w", err)
		}
		ref := &models.StaffReferral{
			Code:      code,
			Name:      req.Name,
			Email:     req.Email,
			Phone:     req.Phone,
			CreatedAt: now,
			UpdatedAt: now,
		}
		err = s.referrals.Create(ctx, ref)
		if err == nil {
			return ref, nil
		}
		if !errors.Is(err, repositories.ErrDuplicate) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("could not allocate a unique referral code")
}

// AttributeSignup counts a new partner against a staff code.
// Unknown codes are ignored so sign-up never fails on a typo.
func (s *ReferralService) AttributeSignup(ctx context.Context, code string) (string, bool) {
	code = utils.NormalizeCode(code)
	if code == "" {
		return "", false
	}
	if err := s.referrals.IncrementPartners(ctx, code); err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			log.Printf("Failed to attribute sign-up to %s: %v", code, err)
		}
		return "", false
	}
	return code, true
}

// AttributeSale adds a paid amount to the staff code that referred the partner
func (s *ReferralService) AttributeSale(ctx context.Context, partnerID string, amount float64) {
	if amount <= 0 || partnerID == "" {
		return
	}
	info, err := s.accounts.FindByUID(ctx, partnerID)
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			log.Printf("Sales attribution lookup for %s failed: %v", partnerID, err)
		}
		return
	}
	if info.ReferralCode == "" {
		return
	}
	if err := s.referrals.AddSales(ctx, info.ReferralCode, amount); err != nil {
		log.Printf("Failed to add sales to %s: %v", info.ReferralCode, err)
	}
}
