package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/HSouheill/resellhub_backend/config"
	"github.com/HSouheill/resellhub_backend/repositories"
	"github.com/HSouheill/resellhub_backend/services"
)

func metricsCmd() *cobra.Command {
	var (
		rangeName string
		from      string
		to        string
		asJSON    bool
	)
	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Print the admin dashboard metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := services.ResolveDateRange(rangeName, from, to, time.Now())
			if err != nil {
				return err
			}

			cfg := config.Load()
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()

			client := config.ConnectDB(cfg)
			defer client.Disconnect(context.Background())
			db := client.Database(cfg.DBName)

			dashboard := services.NewDashboardService(
				repositories.NewOrderRepository(db),
				repositories.NewExpenseRepository(db),
				repositories.NewAccountInfoRepository(db),
				repositories.NewPlanRepository(db),
				repositories.NewStaffReferralRepository(db),
				nil,
			)
			m, err := dashboard.AdminMetrics(ctx, r)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(m)
			}

			fmt.Println("Dashboard Metrics")
			fmt.Println(strings.Repeat("=", 40))
			fmt.Printf("  Range:      %s .. %s\n", formatBound(m.Range.From), formatBound(m.Range.To))
			fmt.Printf("  Revenue:    %.2f (orders %.2f, plans %.2f)\n", m.Revenue, m.OrderRevenue, m.PlanRevenue)
			fmt.Printf("  Expenses:   %.2f\n", m.Expenses)
			fmt.Printf("  Profit:     %.2f\n", m.Profit)
			fmt.Printf("  Orders:     %d (completed %d, in progress %d, pending %d, cancelled %d)\n",
				m.OrderCount, m.Status.Completed, m.Status.InProgress, m.Status.Pending, m.Status.Cancelled)
			fmt.Printf("  Partners:   %d\n", m.PartnerCount)
			fmt.Printf("\nSeries (%s):\n", m.Granularity)
			for _, p := range m.Series {
				fmt.Printf("  %-10s revenue %10.2f  expenses %10.2f  profit %10.2f\n", p.Label, p.Revenue, p.Expenses, p.Profit)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&rangeName, "range", "r", "", "Named range (today, 7d, 30d, 90d, this_month, this_year, all)")
	cmd.Flags().StringVar(&from, "from", "", "Start date (YYYY-MM-DD or RFC3339)")
	cmd.Flags().StringVar(&to, "to", "", "End date (YYYY-MM-DD or RFC3339)")
	cmd.Flags().BoolVarP(&asJSON, "json", "j", false, "Output as JSON")

	return cmd
}

func formatBound(t time.Time) string {
	if t.IsZero() {
		return "open"
	}
	return t.Format("2006-01-02")
}
