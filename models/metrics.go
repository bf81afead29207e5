package models

import "time"

// DateRange is inclusive on both ends; a zero bound is open
type DateRange struct {
	From time.Time `json:"from,omitempty"`
	To   time.Time `json:"to,omitempty"`
}

// Contains reports whether t falls inside the range
func (r DateRange) Contains(t time.Time) bool {
	if !r.From.IsZero() && t.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && t.After(r.To) {
		return false
	}
	return true
}

// StatusBreakdown buckets orders into the fixed status taxonomy
type StatusBreakdown struct {
	Completed  int `json:"completed"`
	InProgress int `json:"inProgress"`
	Pending    int `json:"pending"`
	Cancelled  int `json:"cancelled"`
}

// ChartPoint is one bucket of the revenue/expense series
type ChartPoint struct {
	Label    string    `json:"label"`
	Start    time.Time `json:"start"`
	Revenue  float64   `json:"revenue"`
	Expenses float64   `json:"expenses"`
	Profit   float64   `json:"profit"`
	Orders   int       `json:"orders"`
}

// DashboardMetrics is the admin dashboard summary for one date range
type DashboardMetrics struct {
	Range              DateRange          `json:"range"`
	Revenue            float64            `json:"revenue"`
	OrderRevenue       float64            `json:"orderRevenue"`
	PlanRevenue        float64            `json:"planRevenue"`
	Expenses           float64            `json:"expenses"`
	Profit             float64            `json:"profit"`
	AdminMargin        float64            `json:"adminMargin"`
	PendingCollection  float64            `json:"pendingCollection"`
	AverageOrderValue  float64            `json:"averageOrderValue"`
	OrderCount         int                `json:"orderCount"`
	PartnerCount       int                `json:"partnerCount"`
	ExpenseCount       int                `json:"expenseCount"`
	Status             StatusBreakdown    `json:"status"`
	ExpensesByCategory map[string]float64 `json:"expensesByCategory"`
	PartnersByPlan     map[string]int     `json:"partnersByPlan"`
	Granularity        string             `json:"granularity"`
	Series             []ChartPoint       `json:"series"`
	GeneratedAt        time.Time          `json:"generatedAt"`
}

// PartnerSummary is what a partner sees about their own book of orders
type PartnerSummary struct {
	PartnerID         string          `json:"partnerId"`
	Range             DateRange       `json:"range"`
	OrderCount        int             `json:"orderCount"`
	TotalBilled       float64         `json:"totalBilled"`
	TotalPaid         float64         `json:"totalPaid"`
	PendingCollection float64         `json:"pendingCollection"`
	Earnings          float64         `json:"earnings"`
	Status            StatusBreakdown `json:"status"`
}

// StaffSummary ranks staff referral codes
type StaffSummary struct {
	TotalPartners int             `json:"totalPartners"`
	TotalSales    float64         `json:"totalSales"`
	Leaderboard   []StaffReferral `json:"leaderboard"`
}
