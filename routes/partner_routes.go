package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/HSouheill/resellhub_backend/middleware"
	"github.com/HSouheill/resellhub_backend/models"
)

// RegisterPartnerRoutes sets up routes partners use to manage their profile and orders
func RegisterPartnerRoutes(e *echo.Echo, ctrl Controllers, auth echo.MiddlewareFunc) {
	partner := e.Group("/api/partner")
	partner.Use(auth)
	partner.Use(middleware.RequireUserType(models.UserTypePartner))

	partner.POST("/signup", ctrl.Partner.CompleteSignup)
	partner.GET("/profile", ctrl.Partner.GetProfile)
	partner.PUT("/profile", ctrl.Partner.UpdateProfile)
	partner.GET("/summary", ctrl.Partner.GetSummary)

	partner.POST("/orders", ctrl.Order.CreateOrder)
	partner.GET("/orders", ctrl.Order.ListOrders)
	partner.GET("/orders/:id", ctrl.Order.GetOrder)
	partner.POST("/orders/:id/payment-proof", ctrl.Order.UploadPaymentProof)
}

// RegisterPaymentRoutes sets up gateway checkout and the server-to-server callback
func RegisterPaymentRoutes(e *echo.Echo, ctrl Controllers, auth echo.MiddlewareFunc) {
	// Called by the gateway, authenticated by the X-VERIFY signature
	e.POST("/api/payments/callback", ctrl.Payment.Callback)

	payments := e.Group("/api/payments")
	payments.Use(auth)
	payments.Use(middleware.RequireUserType(models.UserTypePartner, models.UserTypeAdmin))
	payments.POST("/checkout", ctrl.Payment.Checkout)
	payments.GET("/:txnId/status", ctrl.Payment.GetStatus)
}
