package services

import (
	"context"
	"fmt"

	"github.com/HSouheill/resellhub_backend/config"
	"github.com/HSouheill/resellhub_backend/models"
	"github.com/HSouheill/resellhub_backend/repositories"
)

// SnapshotService answers the initial snapshot a realtime subscriber receives
type SnapshotService struct {
	orders    repositories.OrderRepository
	accounts  repositories.AccountInfoRepository
	referrals repositories.StaffReferralRepository
	coupons   repositories.CouponRepository
	expenses  repositories.ExpenseRepository
	plans     repositories.PlanRepository
}

func NewSnapshotService(
	orders repositories.OrderRepository,
	accounts repositories.AccountInfoRepository,
	referrals repositories.StaffReferralRepository,
	coupons repositories.CouponRepository,
	expenses repositories.ExpenseRepository,
	plans repositories.PlanRepository,
) *SnapshotService {
	return &SnapshotService{
		orders:    orders,
		accounts:  accounts,
		referrals: referrals,
		coupons:   coupons,
		expenses:  expenses,
		plans:     plans,
	}
}

func (s *SnapshotService) Snapshot(ctx context.Context, collection, userID, userType string) (interface{}, error) {
	partner := userType == models.UserTypePartner

	switch collection {
	case config.CollectionOrders:
		filter := models.OrderFilter{}
		if partner {
			filter.PartnerID = userID
		}
		return s.orders.List(ctx, filter)
	case config.CollectionAccountInfo:
		if partner {
			info, err := s.accounts.FindByUID(ctx, userID)
			if err != nil {
				return nil, err
			}
			return []models.AccountInfo{*info}, nil
		}
		return s.accounts.List(ctx, models.DateRange{})
	case config.CollectionStaffReferrals:
		return s.referrals.List(ctx)
	case config.CollectionCoupons:
		return s.coupons.List(ctx)
	case config.CollectionExpenses:
		return s.expenses.List(ctx, models.DateRange{})
	case config.CollectionPlans:
		return s.plans.List(ctx, partner)
	case config.CollectionPayments:
		// payments are streamed only; history is served by the payment endpoints
		return []models.PaymentTransaction{}, nil
	}
	return nil, fmt.Errorf("no snapshot for %s", collection)
}
