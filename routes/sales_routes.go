package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/HSouheill/resellhub_backend/middleware"
	"github.com/HSouheill/resellhub_backend/models"
)

// RegisterSalesRoutes sets up the staff (salesperson) routes
func RegisterSalesRoutes(e *echo.Echo, ctrl Controllers, auth echo.MiddlewareFunc) {
	staff := e.Group("/api/staff")
	staff.Use(auth)
	staff.Use(middleware.RequireUserType(models.UserTypeStaff, models.UserTypeAdmin))

	staff.GET("/referral", ctrl.Referral.GetMyReferral)
	staff.GET("/referral/qr", ctrl.Referral.GetMyReferralQR)
	staff.GET("/summary", ctrl.Dashboard.GetStaffSummary)
	staff.GET("/orders", ctrl.Order.ListOrders)
	staff.GET("/orders/:id", ctrl.Order.GetOrder)
}
