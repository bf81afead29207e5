package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"firebase.google.com/go/v4/auth"
	"firebase.google.com/go/v4/messaging"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/HSouheill/resellhub_backend/config"
	"github.com/HSouheill/resellhub_backend/controllers"
	"github.com/HSouheill/resellhub_backend/middleware"
	"github.com/HSouheill/resellhub_backend/repositories"
	"github.com/HSouheill/resellhub_backend/routes"
	"github.com/HSouheill/resellhub_backend/services"
	"github.com/HSouheill/resellhub_backend/utils"
	"github.com/HSouheill/resellhub_backend/websocket"
)

// CustomValidator is a custom validator for Echo
type CustomValidator struct {
	validator *validator.Validate
}

// Validate validates the request body
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to database
	client := config.ConnectDB(cfg)
	db := client.Database(cfg.DBName)

	// Redis is optional; without it metrics are computed on every request
	redisClient := config.ConnectRedis()
	metricsCache := services.NewMetricsCache(redisClient)

	// Firebase powers partner sign-in and push notifications
	var (
		verifier services.IDTokenVerifier
		push     services.PushSender
	)
	if app := config.InitFirebase(); app != nil {
		if authClient, err := app.Auth(ctx); err != nil {
			log.Printf("Firebase auth unavailable: %v", err)
		} else {
			verifier = authClient
		}
		if msgClient, err := app.Messaging(ctx); err != nil {
			log.Printf("Firebase messaging unavailable: %v", err)
		} else {
			push = msgClient
		}
	}

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	orderRepo := repositories.NewOrderRepository(db)
	accountRepo := repositories.NewAccountInfoRepository(db)
	referralRepo := repositories.NewStaffReferralRepository(db)
	expenseRepo := repositories.NewExpenseRepository(db)
	couponRepo := repositories.NewCouponRepository(db)
	planRepo := repositories.NewPlanRepository(db)
	paymentRepo := repositories.NewPaymentRepository(db)

	// Initialize services
	issueToken := func(userID, email, userType string) (string, time.Time, error) {
		return middleware.GenerateJWT(cfg.JWTSecret, userID, email, userType)
	}
	authService := services.NewAuthService(verifier, userRepo, issueToken)
	referralService := services.NewReferralService(referralRepo, accountRepo)
	couponService := services.NewCouponService(couponRepo, planRepo)
	dashboardService := services.NewDashboardService(orderRepo, expenseRepo, accountRepo, planRepo, referralRepo, metricsCache)
	notifier := services.NewOrderNotifier(push, accountRepo, cfg.SMTP)
	gateway := services.NewPhonePeService(cfg.PhonePe)
	paymentService := services.NewPaymentService(gateway, paymentRepo, orderRepo, referralService, cfg.PhonePe.RedirectURL, cfg.PhonePe.CallbackURL)
	snapshotService := services.NewSnapshotService(orderRepo, accountRepo, referralRepo, couponRepo, expenseRepo, planRepo)

	// Realtime fan-out of collection changes
	wsHub := websocket.NewHub()
	go wsHub.Run(ctx)
	changeFeed := services.NewChangeFeed(db, wsHub, metricsCache)
	go changeFeed.Run(ctx, services.WatchedCollections)

	if err := utils.InitializeStorage(cfg.UploadDir); err != nil {
		log.Fatalf("Failed to prepare upload directory: %v", err)
	}

	// Create a new Echo instance
	e := echo.New()
	e.HideBanner = true
	e.Validator = &CustomValidator{validator: validator.New()}

	origins := middleware.AllowedOrigins(cfg.PublicSiteURL)
	rateLimiter := middleware.NewRateLimiter(middleware.DefaultEndpointLimits())
	go rateLimiter.Cleanup(ctx)
	go middleware.CleanupBlacklist(ctx)

	// Middleware
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(middleware.CORS(origins))
	e.Use(rateLimiter.RateLimit())
	e.Use(middleware.SecurityHeaders(middleware.SecurityConfig{
		ConnectDomains: append([]string{cfg.PhonePe.Host}, origins...),
		HSTS:           !cfg.IsDevelopment(),
	}))
	e.Use(httpsRedirect())

	e.Match([]string{http.MethodGet, http.MethodHead}, "/api/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":    "healthy",
			"database":  "connected",
			"cache":     redisClient != nil,
			"wsClients": wsHub.ClientCount(),
		})
	})

	routes.SetupRoutes(e, routes.Controllers{
		Auth:      controllers.NewAuthController(authService),
		Order:     controllers.NewOrderController(orderRepo, accountRepo, referralService, notifier, metricsCache, cfg.UploadDir),
		Partner:   controllers.NewPartnerController(accountRepo, planRepo, referralService, couponService, dashboardService, metricsCache),
		Referral:  controllers.NewReferralController(referralRepo, accountRepo, referralService, userRepo, cfg.PublicSiteURL),
		Expense:   controllers.NewExpenseController(expenseRepo, metricsCache),
		Coupon:    controllers.NewCouponController(couponRepo, couponService, cfg.PublicSiteURL),
		Plan:      controllers.NewPlanController(planRepo, metricsCache),
		Dashboard: controllers.NewDashboardController(dashboardService),
		Payment:   controllers.NewPaymentController(paymentService, metricsCache),
		Realtime:  controllers.NewRealtimeController(wsHub, snapshotService, origins),
	}, middleware.JWTMiddleware(cfg.JWTSecret, userRepo), cfg.UploadDir)

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			e.Logger.Fatal(err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	if redisClient != nil {
		redisClient.Close()
	}
	if err := client.Disconnect(shutdownCtx); err != nil {
		log.Printf("MongoDB disconnect error: %v", err)
	}
}

func httpsRedirect() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Header.Get("X-Forwarded-Proto") == "http" {
				return c.Redirect(http.StatusMovedPermanently, "https://"+c.Request().Host+c.Request().RequestURI)
			}
			return next(c)
		}
	}
}

var (
	_ services.IDTokenVerifier = (*auth.Client)(nil)
	_ services.PushSender      = (*messaging.Client)(nil)
)
