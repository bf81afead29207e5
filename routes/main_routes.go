package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/HSouheill/resellhub_backend/controllers"
)

// Controllers bundles every handler the API exposes
type Controllers struct {
	Auth      *controllers.AuthController
	Order     *controllers.OrderController
	Partner   *controllers.PartnerController
	Referral  *controllers.ReferralController
	Expense   *controllers.ExpenseController
	Coupon    *controllers.CouponController
	Plan      *controllers.PlanController
	Dashboard *controllers.DashboardController
	Payment   *controllers.PaymentController
	Realtime  *controllers.RealtimeController
}

// SetupRoutes configures all API routes by calling individual route registration functions.
// auth is the JWT middleware every protected group runs first.
func SetupRoutes(e *echo.Echo, ctrl Controllers, auth echo.MiddlewareFunc, uploadDir string) {
	RegisterAuthRoutes(e, ctrl, auth)
	RegisterPartnerRoutes(e, ctrl, auth)
	RegisterPaymentRoutes(e, ctrl, auth)
	RegisterSalesRoutes(e, ctrl, auth)
	RegisterAdminRoutes(e, ctrl, auth)
	RegisterFileRoutes(e, uploadDir)
}
