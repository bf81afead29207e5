package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/HSouheill/resellhub_backend/models"
	"github.com/HSouheill/resellhub_backend/repositories"
)

// DashboardService loads the collections a dashboard needs and reduces them
type DashboardService struct {
	orders    repositories.OrderRepository
	expenses  repositories.ExpenseRepository
	accounts  repositories.AccountInfoRepository
	plans     repositories.PlanRepository
	referrals repositories.StaffReferralRepository
	cache     *MetricsCache
	now       func() time.Time
}

func NewDashboardService(
	orders repositories.OrderRepository,
	expenses repositories.ExpenseRepository,
	accounts repositories.AccountInfoRepository,
	plans repositories.PlanRepository,
	referrals repositories.StaffReferralRepository,
	cache *MetricsCache,
) *DashboardService {
	return &DashboardService{
		orders:    orders,
		expenses:  expenses,
		accounts:  accounts,
		plans:     plans,
		referrals: referrals,
		cache:     cache,
		now:       time.Now,
	}
}

// AdminMetrics returns the admin summary for r, served from cache when possible
func (s *DashboardService) AdminMetrics(ctx context.Context, r models.DateRange) (*models.DashboardMetrics, error) {
	cacheKey := "admin:" + rangeKey(r)
	var cached models.DashboardMetrics
	if s.cache.Get(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	var (
		orders   []models.Order
		expenses []models.Expense
		partners []models.AccountInfo
		plans    []models.Plan
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		orders, err = s.orders.List(gctx, models.OrderFilter{From: r.From, To: r.To})
		return err
	})
	g.Go(func() (err error) {
		expenses, err = s.expenses.List(gctx, r)
		return err
	})
	g.Go(func() (err error) {
		partners, err = s.accounts.List(gctx, r)
		return err
	})
	g.Go(func() (err error) {
		plans, err = s.plans.List(gctx, false)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load dashboard data: %w", err)
	}

	m := ComputeDashboardMetrics(orders, expenses, partners, plans, r, s.now())
	s.cache.Set(ctx, cacheKey, m)
	return &m, nil
}

// PartnerSummary reduces one partner's orders
func (s *DashboardService) PartnerSummary(ctx context.Context, partnerID string, r models.DateRange) (*models.PartnerSummary, error) {
	orders, err := s.orders.List(ctx, models.OrderFilter{PartnerID: partnerID, From: r.From, To: r.To})
	if err != nil {
		return nil, err
	}
	summary := ComputePartnerSummary(partnerID, orders, r)
	return &summary, nil
}

// StaffSummary returns the referral leaderboard
func (s *DashboardService) StaffSummary(ctx context.Context) (*models.StaffSummary, error) {
	var cached models.StaffSummary
	if s.cache.Get(ctx, "staff", &cached) {
		return &cached, nil
	}
	refs, err := s.referrals.List(ctx)
	if err != nil {
		return nil, err
	}
	summary := ComputeStaffSummary(refs)
	s.cache.Set(ctx, "staff", summary)
	return &summary, nil
}

// Invalidate drops cached summaries after a write
func (s *DashboardService) Invalidate(ctx context.Context) {
	s.cache.Invalidate(ctx)
}

func rangeKey(r models.DateRange) string {
	format := func(t time.Time) string {
		if t.IsZero() {
			return "-"
		}
		// minute resolution keeps rolling ranges cacheable
		return t.UTC().Truncate(time.Minute).Format("200601021504")
	}
	return format(r.From) + "_" + format(r.To)
}
