package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/HSouheill/resellhub_backend/middleware"
	"github.com/HSouheill/resellhub_backend/models"
)

// RegisterAdminRoutes sets up all admin-related routes
func RegisterAdminRoutes(e *echo.Echo, ctrl Controllers, auth echo.MiddlewareFunc) {
	// Protected routes (require admin authentication)
	admin := e.Group("/api/admin")
	admin.Use(auth)
	admin.Use(middleware.RequireUserType(models.UserTypeAdmin))

	// Dashboard
	admin.GET("/dashboard/metrics", ctrl.Dashboard.GetMetrics)
	admin.GET("/dashboard/staff", ctrl.Dashboard.GetStaffSummary)
	admin.GET("/partners/:uid/summary", ctrl.Dashboard.GetPartnerSummary)

	// Orders
	admin.POST("/orders", ctrl.Order.CreateOrder)
	admin.GET("/orders", ctrl.Order.ListOrders)
	admin.GET("/orders/:id", ctrl.Order.GetOrder)
	admin.PUT("/orders/:id/status", ctrl.Order.UpdateStatus)
	admin.PUT("/orders/:id/pricing", ctrl.Order.UpdatePricing)
	admin.POST("/orders/:id/verify-payment", ctrl.Order.VerifyPayment)

	// Partners
	admin.GET("/partners", ctrl.Partner.ListPartners)
	admin.GET("/partners/:uid", ctrl.Partner.GetPartner)

	// Staff referral codes
	admin.POST("/referrals", ctrl.Referral.CreateReferral)
	admin.GET("/referrals", ctrl.Referral.ListReferrals)
	admin.GET("/referrals/:code", ctrl.Referral.GetReferral)
	admin.GET("/referrals/:code/qr", ctrl.Referral.GetReferralQR)

	// Expenses
	admin.POST("/expenses", ctrl.Expense.CreateExpense)
	admin.GET("/expenses", ctrl.Expense.ListExpenses)

	// Coupons
	admin.POST("/coupons", ctrl.Coupon.CreateCoupon)
	admin.GET("/coupons", ctrl.Coupon.ListCoupons)
	admin.PUT("/coupons/:code/active", ctrl.Coupon.SetCouponActive)
	admin.GET("/coupons/:code/qr", ctrl.Coupon.GetCouponQR)

	// Plans
	admin.POST("/plans", ctrl.Plan.CreatePlan)
	admin.PUT("/plans/:id", ctrl.Plan.UpdatePlan)
	admin.GET("/plans", ctrl.Plan.ListPlans)
}
