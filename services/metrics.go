package services

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/HSouheill/resellhub_backend/models"
)

// Status buckets of the dashboard taxonomy
const (
	StatusCompleted  = "completed"
	StatusInProgress = "in-progress"
	StatusPending    = "pending"
	StatusCancelled  = "cancelled"
)

// Chart granularities
const (
	GranularityDay   = "day"
	GranularityMonth = "month"
)

// monthlyThreshold is the span above which the chart switches to month buckets
const monthlyThreshold = 62 * 24 * time.Hour

var (
	cancelledMarkers  = []string{"cancel"}
	completedMarkers  = []string{"complet", "deliver", "done"}
	inProgressMarkers = []string{"progress", "processing", "working"}
)

// ClassifyStatus maps a free-text order status onto the fixed taxonomy.
// Cancellation markers win over completion markers so "cancelled after delivery" is cancelled.
func ClassifyStatus(status string) string {
	s := strings.ToLower(strings.TrimSpace(status))
	switch {
	case containsAny(s, cancelledMarkers):
		return StatusCancelled
	case containsAny(s, completedMarkers):
		return StatusCompleted
	case containsAny(s, inProgressMarkers):
		return StatusInProgress
	default:
		return StatusPending
	}
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

func addStatus(b *models.StatusBreakdown, status string) {
	switch ClassifyStatus(status) {
	case StatusCompleted:
		b.Completed++
	case StatusInProgress:
		b.InProgress++
	case StatusCancelled:
		b.Cancelled++
	default:
		b.Pending++
	}
}

// PlanFees builds a case-insensitive lookup of plan name to flat fee
func PlanFees(plans []models.Plan) map[string]float64 {
	fees := make(map[string]float64, len(plans))
	for _, p := range plans {
		fees[strings.ToLower(strings.TrimSpace(p.Name))] = p.Price.Float()
	}
	return fees
}

// ComputeDashboardMetrics reduces the in-memory collections into the admin summary for r
func ComputeDashboardMetrics(orders []models.Order, expenses []models.Expense, partners []models.AccountInfo, plans []models.Plan, r models.DateRange, now time.Time) models.DashboardMetrics {
	m := models.DashboardMetrics{
		Range:              r,
		ExpensesByCategory: map[string]float64{},
		PartnersByPlan:     map[string]int{},
		GeneratedAt:        now,
	}

	fees := PlanFees(plans)
	granularity := chooseGranularity(r, orders, expenses, partners, now)
	m.Granularity = granularity
	buckets := map[string]*models.ChartPoint{}
	bucket := func(t time.Time) *models.ChartPoint {
		start, label := bucketStart(t, granularity)
		p, ok := buckets[label]
		if !ok {
			p = &models.ChartPoint{Label: label, Start: start}
			buckets[label] = p
		}
		return p
	}

	for _, o := range orders {
		if !r.Contains(o.CreatedAt) {
			continue
		}
		paid := nonNegative(o.PaidAmount.Float())
		client := nonNegative(o.ClientPrice.Float())
		admin := nonNegative(o.AdminPrice.Float())

		m.OrderCount++
		m.OrderRevenue += paid
		m.AdminMargin += client - admin
		if client > paid {
			m.PendingCollection += client - paid
		}
		addStatus(&m.Status, o.Status)

		p := bucket(o.CreatedAt)
		p.Revenue += paid
		p.Orders++
	}

	for _, pr := range partners {
		if !r.Contains(pr.JoinedAt) {
			continue
		}
		m.PartnerCount++
		planKey := strings.ToLower(strings.TrimSpace(pr.Plan))
		if planKey == "" {
			planKey = "none"
		}
		m.PartnersByPlan[planKey]++
		fee := fees[planKey]
		m.PlanRevenue += fee
		if fee > 0 {
			bucket(pr.JoinedAt).Revenue += fee
		}
	}

	for _, e := range expenses {
		if !r.Contains(e.CreatedAt) {
			continue
		}
		amount := nonNegative(e.Amount.Float())
		m.ExpenseCount++
		m.Expenses += amount
		category := strings.TrimSpace(e.Category)
		if category == "" {
			category = "uncategorized"
		}
		m.ExpensesByCategory[category] += amount
		bucket(e.CreatedAt).Expenses += amount
	}

	m.Revenue = m.OrderRevenue + m.PlanRevenue
	m.Profit = m.Revenue - m.Expenses
	if m.OrderCount > 0 {
		m.AverageOrderValue = m.OrderRevenue / float64(m.OrderCount)
	}

	m.Series = make([]models.ChartPoint, 0, len(buckets))
	for _, p := range buckets {
		p.Profit = p.Revenue - p.Expenses
		m.Series = append(m.Series, *p)
	}
	sort.Slice(m.Series, func(i, j int) bool { return m.Series[i].Start.Before(m.Series[j].Start) })

	return m
}

// ComputePartnerSummary reduces one partner's orders
func ComputePartnerSummary(partnerID string, orders []models.Order, r models.DateRange) models.PartnerSummary {
	s := models.PartnerSummary{PartnerID: partnerID, Range: r}
	for _, o := range orders {
		if o.PartnerID != partnerID || !r.Contains(o.CreatedAt) {
			continue
		}
		client := nonNegative(o.ClientPrice.Float())
		paid := nonNegative(o.PaidAmount.Float())
		admin := nonNegative(o.AdminPrice.Float())

		s.OrderCount++
		s.TotalBilled += client
		s.TotalPaid += paid
		if client > paid {
			s.PendingCollection += client - paid
		}
		if ClassifyStatus(o.Status) != StatusCancelled {
			s.Earnings += client - admin
		}
		addStatus(&s.Status, o.Status)
	}
	return s
}

// ComputeStaffSummary ranks staff referral records by sales
func ComputeStaffSummary(refs []models.StaffReferral) models.StaffSummary {
	s := models.StaffSummary{Leaderboard: make([]models.StaffReferral, len(refs))}
	copy(s.Leaderboard, refs)
	for _, r := range refs {
		s.TotalPartners += r.PartnerCount
		s.TotalSales += nonNegative(r.TotalSales.Float())
	}
	sort.SliceStable(s.Leaderboard, func(i, j int) bool {
		if s.Leaderboard[i].TotalSales == s.Leaderboard[j].TotalSales {
			return s.Leaderboard[i].PartnerCount > s.Leaderboard[j].PartnerCount
		}
		return s.Leaderboard[i].TotalSales > s.Leaderboard[j].TotalSales
	})
	return s
}

func nonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

// chooseGranularity uses the range span, or the data span when the range is open
func chooseGranularity(r models.DateRange, orders []models.Order, expenses []models.Expense, partners []models.AccountInfo, now time.Time) string {
	from, to := r.From, r.To
	if to.IsZero() {
		to = now
	}
	if from.IsZero() {
		earliest := to
		for _, o := range orders {
			if o.CreatedAt.Before(earliest) && !o.CreatedAt.IsZero() {
				earliest = o.CreatedAt
			}
		}
		for _, e := range expenses {
			if e.CreatedAt.Before(earliest) && !e.CreatedAt.IsZero() {
				earliest = e.CreatedAt
			}
		}
		for _, p := range partners {
			if p.JoinedAt.Before(earliest) && !p.JoinedAt.IsZero() {
				earliest = p.JoinedAt
			}
		}
		from = earliest
	}
	if to.Sub(from) > monthlyThreshold {
		return GranularityMonth
	}
	return GranularityDay
}

func bucketStart(t time.Time, granularity string) (time.Time, string) {
	t = t.UTC()
	if granularity == GranularityMonth {
		start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
		return start, start.Format("2006-01")
	}
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.Format("2006-01-02")
}

// ResolveDateRange turns a named range or explicit bounds into a DateRange.
// Explicit bounds win over the name; a date-only "to" covers the whole day.
func ResolveDateRange(name, from, to string, now time.Time) (models.DateRange, error) {
	now = now.UTC()
	var r models.DateRange

	if from != "" || to != "" {
		if from != "" {
			t, _, err := parseBound(from)
			if err != nil {
				return r, fmt.Errorf("invalid from: %w", err)
			}
			r.From = t
		}
		if to != "" {
			t, dateOnly, err := parseBound(to)
			if err != nil {
				return r, fmt.Errorf("invalid to: %w", err)
			}
			if dateOnly {
				t = t.Add(24*time.Hour - time.Nanosecond)
			}
			r.To = t
		}
		if !r.From.IsZero() && !r.To.IsZero() && r.To.Before(r.From) {
			return r, fmt.Errorf("to is before from")
		}
		return r, nil
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	switch strings.ToLower(name) {
	case "", "30d":
		r.From = today.AddDate(0, 0, -29)
	case "all":
		return r, nil
	case "today":
		r.From = today
	case "7d":
		r.From = today.AddDate(0, 0, -6)
	case "90d":
		r.From = today.AddDate(0, 0, -89)
	case "this_month":
		r.From = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	case "this_year":
		r.From = time.Date(now.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
	default:
		return r, fmt.Errorf("unknown range %q", name)
	}
	r.To = now
	return r, nil
}

func parseBound(s string) (time.Time, bool, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), false, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, false, err
	}
	return t, true, nil
}
