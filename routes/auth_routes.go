package routes

import (
	"github.com/labstack/echo/v4"
)

// RegisterAuthRoutes sets up authentication, public catalogue and realtime routes
func RegisterAuthRoutes(e *echo.Echo, ctrl Controllers, auth echo.MiddlewareFunc) {
	// Public authentication routes
	e.POST("/api/auth/session", ctrl.Auth.Session)
	e.POST("/api/auth/login", ctrl.Auth.Login)

	// Public plan catalogue and coupon check used by the sign-up form
	e.GET("/api/plans", ctrl.Plan.ListActivePlans)
	e.POST("/api/coupons/validate", ctrl.Coupon.ValidateCoupon)

	r := e.Group("/api")
	r.Use(auth)
	r.POST("/auth/logout", ctrl.Auth.Logout)
	r.GET("/auth/me", ctrl.Auth.Me)
	r.GET("/ws", ctrl.Realtime.Connect)
}
