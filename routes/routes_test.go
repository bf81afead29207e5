package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HSouheill/resellhub_backend/controllers"
	"github.com/HSouheill/resellhub_backend/middleware"
	"github.com/HSouheill/resellhub_backend/models"
	"github.com/HSouheill/resellhub_backend/repositories"
	"github.com/HSouheill/resellhub_backend/repositories/inmem"
	"github.com/HSouheill/resellhub_backend/services"
	"github.com/HSouheill/resellhub_backend/websocket"
)

const jwtSecret = "routes-test-secret"

type testValidator struct {
	validator *validator.Validate
}

func (v *testValidator) Validate(i interface{}) error {
	return v.validator.Struct(i)
}

// fakeVerifier accepts ID tokens of the form "uid:<uid>"
type fakeVerifier struct{}

func (fakeVerifier) VerifyIDToken(_ context.Context, idToken string) (*auth.Token, error) {
	uid := strings.TrimPrefix(idToken, "uid:")
	if uid == idToken || uid == "" {
		return nil, errors.New("token signature invalid")
	}
	return &auth.Token{UID: uid, Claims: map[string]interface{}{
		"email": uid + "@example.com",
		"name":  "Partner " + uid,
	}}, nil
}

// stubGateway completes any callback signed "ok"; the response body is the transaction id
type stubGateway struct{}

func (stubGateway) Pay(_ context.Context, req models.PhonePePayRequest) (string, error) {
	return "https://pay.example/" + req.MerchantTransactionID, nil
}

func (stubGateway) Status(_ context.Context, txnID string) (*models.PaymentStatusData, error) {
	return &models.PaymentStatusData{MerchantTransactionID: txnID, State: models.PaymentStatusPending}, nil
}

func (stubGateway) VerifyCallback(xVerify, response string) (*models.PaymentStatusData, error) {
	if xVerify != "ok" {
		return nil, services.ErrInvalidSignature
	}
	return &models.PaymentStatusData{MerchantTransactionID: response, State: models.PaymentStatusCompleted, Code: "PAYMENT_SUCCESS"}, nil
}

func (stubGateway) MerchantID() string { return "MERCHANT" }

type recordingNotifier struct {
	orders chan *models.Order
}

func (n *recordingNotifier) OrderStatusChanged(_ context.Context, order *models.Order) {
	n.orders <- order
}

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type apiServer struct {
	t         *testing.T
	e         *echo.Echo
	auth      *services.AuthService
	referrals repositories.StaffReferralRepository
	notifier  *recordingNotifier
	uploadDir string
}

func newAPIServer(t *testing.T) *apiServer {
	ctx := context.Background()
	db := inmem.Open()
	users := inmem.NewUserRepository(db)
	orders := inmem.NewOrderRepository(db)
	accounts := inmem.NewAccountInfoRepository(db)
	referrals := inmem.NewStaffReferralRepository(db)
	expenses := inmem.NewExpenseRepository(db)
	coupons := inmem.NewCouponRepository(db)
	plans := inmem.NewPlanRepository(db)
	payments := inmem.NewPaymentRepository(db)

	require.NoError(t, plans.Create(ctx, &models.Plan{Name: "Gold", Price: 499, IsActive: true}))
	require.NoError(t, plans.Create(ctx, &models.Plan{Name: "Legacy", Price: 99}))

	issue := func(userID, email, userType string) (string, time.Time, error) {
		return middleware.GenerateJWT(jwtSecret, userID, email, userType)
	}
	authService := services.NewAuthService(fakeVerifier{}, users, issue)
	referralService := services.NewReferralService(referrals, accounts)
	couponService := services.NewCouponService(coupons, plans)
	dashboardService := services.NewDashboardService(orders, expenses, accounts, plans, referrals, nil)
	paymentService := services.NewPaymentService(stubGateway{}, payments, orders, referralService, "https://app.example/payment", "")
	notifier := &recordingNotifier{orders: make(chan *models.Order, 4)}
	uploadDir := t.TempDir()

	e := echo.New()
	e.Validator = &testValidator{validator: validator.New()}
	SetupRoutes(e, Controllers{
		Auth:      controllers.NewAuthController(authService),
		Order:     controllers.NewOrderController(orders, accounts, referralService, notifier, nil, uploadDir),
		Partner:   controllers.NewPartnerController(accounts, plans, referralService, couponService, dashboardService, nil),
		Referral:  controllers.NewReferralController(referrals, accounts, referralService, users, "https://resellhub.example"),
		Expense:   controllers.NewExpenseController(expenses, nil),
		Coupon:    controllers.NewCouponController(coupons, couponService, "https://resellhub.example"),
		Plan:      controllers.NewPlanController(plans, nil),
		Dashboard: controllers.NewDashboardController(dashboardService),
		Payment:   controllers.NewPaymentController(paymentService, nil),
		Realtime:  controllers.NewRealtimeController(websocket.NewHub(), nil, nil),
	}, middleware.JWTMiddleware(jwtSecret, users), uploadDir)

	return &apiServer{t: t, e: e, auth: authService, referrals: referrals, notifier: notifier, uploadDir: uploadDir}
}

func (s *apiServer) call(method, path, token string, body interface{}, out interface{}) (int, envelope) {
	s.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
		if out != nil && len(env.Data) > 0 {
			require.NoError(s.t, json.Unmarshal(env.Data, out))
		}
	}
	return rec.Code, env
}

func (s *apiServer) session(uid string) string {
	var resp models.AuthResponse
	code, _ := s.call(http.MethodPost, "/api/auth/session", "", models.SessionRequest{IDToken: "uid:" + uid}, &resp)
	require.Equal(s.t, http.StatusOK, code)
	require.Equal(s.t, models.UserTypePartner, resp.UserType)
	return resp.Token
}

func (s *apiServer) account(email, password, userType, staffCode string) string {
	_, err := s.auth.CreateAccount(context.Background(), email, password, "Test "+userType, userType, staffCode)
	require.NoError(s.t, err)

	var resp models.AuthResponse
	code, _ := s.call(http.MethodPost, "/api/auth/login", "", models.LoginRequest{Email: email, Password: password}, &resp)
	require.Equal(s.t, http.StatusOK, code)
	return resp.Token
}

func (s *apiServer) signup(token string, req models.CompleteSignupRequest) {
	code, env := s.call(http.MethodPost, "/api/partner/signup", token, req, nil)
	require.Equal(s.t, http.StatusCreated, code, env.Message)
}

func TestPublicRoutes(t *testing.T) {
	s := newAPIServer(t)

	var plans []models.Plan
	code, _ := s.call(http.MethodGet, "/api/plans", "", nil, &plans)
	assert.Equal(t, http.StatusOK, code)
	require.Len(t, plans, 1)
	assert.Equal(t, "Gold", plans[0].Name)

	code, env := s.call(http.MethodPost, "/api/coupons/validate", "", models.ValidateCouponRequest{Code: "NOPE", Plan: "gold"}, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Invalid coupon code", env.Message)

	code, _ = s.call(http.MethodGet, "/api/auth/me", "", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = s.call(http.MethodPost, "/api/auth/session", "", models.SessionRequest{IDToken: "forged"}, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestPartnerJourney(t *testing.T) {
	s := newAPIServer(t)
	admin := s.account("admin@example.com", "supersecret", models.UserTypeAdmin, "")
	partner := s.session("p1")

	code, _ := s.call(http.MethodGet, "/api/partner/profile", partner, nil, nil)
	assert.Equal(t, http.StatusNotFound, code)

	var ref models.StaffReferral
	code, _ = s.call(http.MethodPost, "/api/admin/referrals", admin, models.CreateStaffReferralRequest{Name: "Sam", Email: "sam@example.com"}, &ref)
	require.Equal(t, http.StatusCreated, code)
	require.NotEmpty(t, ref.Code)

	code, _ = s.call(http.MethodPost, "/api/admin/referrals", admin, models.CreateStaffReferralRequest{Name: "Sam again", Email: "SAM@example.com"}, nil)
	assert.Equal(t, http.StatusConflict, code)

	code, _ = s.call(http.MethodPost, "/api/admin/coupons", admin, models.CreateCouponRequest{Code: "WELCOME10", DiscountPercent: 10}, nil)
	require.Equal(t, http.StatusCreated, code)

	t.Run("signup", func(t *testing.T) {
		code, env := s.call(http.MethodPost, "/api/partner/signup", partner, models.CompleteSignupRequest{Name: "Asha", Plan: "legacy"}, nil)
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "Plan is not available", env.Message)

		code, _ = s.call(http.MethodPost, "/api/partner/signup", partner, models.CompleteSignupRequest{Plan: "gold"}, nil)
		assert.Equal(t, http.StatusBadRequest, code)

		var result struct {
			Profile   models.AccountInfo  `json:"profile"`
			Coupon    *models.CouponQuote `json:"coupon"`
			AmountDue float64             `json:"amountDue"`
		}
		code, env = s.call(http.MethodPost, "/api/partner/signup", partner, models.CompleteSignupRequest{
			Name:         "Asha",
			Phone:        "+91 98765 43210",
			Plan:         "gold",
			ReferralCode: strings.ToLower(ref.Code),
			CouponCode:   "welcome10",
		}, &result)
		require.Equal(t, http.StatusCreated, code, env.Message)
		assert.Equal(t, "9876543210", result.Profile.Phone)
		assert.Equal(t, "p1@example.com", result.Profile.Email)
		assert.Equal(t, "Gold", result.Profile.Plan)
		assert.Equal(t, ref.Code, result.Profile.ReferralCode)
		assert.Equal(t, models.AccountInfoPath("p1"), result.Profile.Path)
		require.NotNil(t, result.Coupon)
		assert.Equal(t, 449.1, result.AmountDue)

		code, _ = s.call(http.MethodPost, "/api/partner/signup", partner, models.CompleteSignupRequest{Name: "Asha", Plan: "gold"}, nil)
		assert.Equal(t, http.StatusConflict, code)
	})

	var order models.Order
	code, _ = s.call(http.MethodPost, "/api/partner/orders", partner, models.CreateOrderRequest{
		ClientName:  "Ravi",
		ClientEmail: "ravi@example.com",
		Service:     models.ServiceDescriptor{Name: "GST filing"},
		ClientPrice: 1500,
	}, &order)
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "p1", order.PartnerID)
	assert.Equal(t, "Asha", order.PartnerName)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	orderPath := "/orders/" + order.ID.Hex()

	t.Run("visibility", func(t *testing.T) {
		other := s.session("p2")
		s.signup(other, models.CompleteSignupRequest{Name: "Bina", Plan: "Gold"})

		code, _ := s.call(http.MethodGet, "/api/partner"+orderPath, other, nil, nil)
		assert.Equal(t, http.StatusNotFound, code)

		var orders []models.Order
		code, _ = s.call(http.MethodGet, "/api/partner/orders", other, nil, &orders)
		assert.Equal(t, http.StatusOK, code)
		assert.Empty(t, orders)

		code, _ = s.call(http.MethodGet, "/api/admin/orders", partner, nil, nil)
		assert.Equal(t, http.StatusForbidden, code)

		code, _ = s.call(http.MethodGet, "/api/admin"+orderPath, admin, nil, nil)
		assert.Equal(t, http.StatusOK, code)

		code, _ = s.call(http.MethodGet, "/api/admin/orders/not-an-id", admin, nil, nil)
		assert.Equal(t, http.StatusBadRequest, code)
	})

	t.Run("admin updates", func(t *testing.T) {
		var updated models.Order
		code, _ := s.call(http.MethodPut, "/api/admin"+orderPath+"/status", admin, models.UpdateOrderStatusRequest{Status: "Completed"}, &updated)
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, "Completed", updated.Status)

		select {
		case notified := <-s.notifier.orders:
			assert.Equal(t, order.ID, notified.ID)
		case <-time.After(2 * time.Second):
			t.Fatal("status change was not notified")
		}

		adminPrice := 900.0
		code, _ = s.call(http.MethodPut, "/api/admin"+orderPath+"/pricing", admin, models.UpdateOrderPricingRequest{AdminPrice: &adminPrice}, &updated)
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, models.Amount(900), updated.AdminPrice)
		assert.Equal(t, models.Amount(1500), updated.ClientPrice)

		code, _ = s.call(http.MethodPost, "/api/admin"+orderPath+"/verify-payment", admin, models.VerifyPaymentRequest{PaidAmount: 1500}, &updated)
		require.Equal(t, http.StatusOK, code)
		assert.True(t, updated.PaymentVerified)

		var detail struct {
			Referral models.StaffReferral `json:"referral"`
			Partners []models.AccountInfo `json:"partners"`
		}
		code, _ = s.call(http.MethodGet, "/api/admin/referrals/"+ref.Code, admin, nil, &detail)
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, 1, detail.Referral.PartnerCount)
		assert.Equal(t, models.Amount(1500), detail.Referral.TotalSales)
		require.Len(t, detail.Partners, 1)
		assert.Equal(t, "p1", detail.Partners[0].UID)
	})

	t.Run("dashboards", func(t *testing.T) {
		code, _ := s.call(http.MethodPost, "/api/admin/expenses", admin, models.CreateExpenseRequest{Amount: 300, Category: " Ads "}, nil)
		require.Equal(t, http.StatusCreated, code)

		var m models.DashboardMetrics
		code, _ = s.call(http.MethodGet, "/api/admin/dashboard/metrics?range=all", admin, nil, &m)
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, 1, m.OrderCount)
		assert.Equal(t, 2, m.PartnerCount)
		assert.Equal(t, 1500.0, m.OrderRevenue)
		assert.Equal(t, 998.0, m.PlanRevenue)
		assert.Equal(t, 2498.0, m.Revenue)
		assert.Equal(t, 2198.0, m.Profit)
		assert.Equal(t, map[string]float64{"ads": 300}, m.ExpensesByCategory)
		assert.Equal(t, 1, m.Status.Completed)

		code, _ = s.call(http.MethodGet, "/api/admin/dashboard/metrics?range=fortnight", admin, nil, nil)
		assert.Equal(t, http.StatusBadRequest, code)

		var summary models.PartnerSummary
		code, _ = s.call(http.MethodGet, "/api/partner/summary?range=all", partner, nil, &summary)
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, 1, summary.OrderCount)
		assert.Equal(t, 1500.0, summary.TotalPaid)
	})

	t.Run("logout revokes the token", func(t *testing.T) {
		code, _ := s.call(http.MethodPost, "/api/auth/logout", partner, nil, nil)
		require.Equal(t, http.StatusOK, code)

		code, _ = s.call(http.MethodGet, "/api/partner/profile", partner, nil, nil)
		assert.Equal(t, http.StatusUnauthorized, code)
	})
}

func TestStaffRoutes(t *testing.T) {
	s := newAPIServer(t)
	ctx := context.Background()
	require.NoError(t, s.referrals.Create(ctx, &models.StaffReferral{Code: "STF-SAM001", Name: "Sam", Email: "sam@example.com"}))

	staff := s.account("sam@example.com", "salesperson", models.UserTypeStaff, "")

	var mine struct {
		Referral models.StaffReferral `json:"referral"`
	}
	code, _ := s.call(http.MethodGet, "/api/staff/referral", staff, nil, &mine)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "STF-SAM001", mine.Referral.Code)

	var qr map[string]string
	code, _ = s.call(http.MethodGet, "/api/staff/referral/qr", staff, nil, &qr)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "https://resellhub.example/signup?ref=STF-SAM001", qr["link"])
	assert.True(t, strings.HasPrefix(qr["qrCode"], "data:image/png;base64,"))

	lonely := s.account("lonely@example.com", "salesperson", models.UserTypeStaff, "")
	code, env := s.call(http.MethodGet, "/api/staff/referral", lonely, nil, nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "No referral code is assigned to this account", env.Message)

	code, _ = s.call(http.MethodGet, "/api/admin/expenses", staff, nil, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = s.call(http.MethodPost, "/api/auth/login", "", models.LoginRequest{Email: "sam@example.com", Password: "wrong-password"}, nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	var summary models.StaffSummary
	code, _ = s.call(http.MethodGet, "/api/staff/summary", staff, nil, &summary)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, summary.Leaderboard, 1)
}

func TestPaymentRoutes(t *testing.T) {
	s := newAPIServer(t)
	partner := s.session("p1")
	s.signup(partner, models.CompleteSignupRequest{Name: "Asha", Plan: "gold"})

	var order models.Order
	code, _ := s.call(http.MethodPost, "/api/partner/orders", partner, models.CreateOrderRequest{
		ClientName:  "Ravi",
		Service:     models.ServiceDescriptor{Name: "Trademark"},
		ClientPrice: 2000,
	}, &order)
	require.Equal(t, http.StatusCreated, code)

	var txn models.PaymentTransaction
	code, _ = s.call(http.MethodPost, "/api/payments/checkout", partner, models.CheckoutRequest{OrderID: order.ID.Hex(), Amount: 2000}, &txn)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, int64(200000), txn.Amount)
	assert.Equal(t, "https://pay.example/"+txn.MerchantTransactionID, txn.RedirectURL)

	callback := map[string]string{"response": txn.MerchantTransactionID}
	code, _ = s.call(http.MethodPost, "/api/payments/callback", "", callback, nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	req := httptest.NewRequest(http.MethodPost, "/api/payments/callback", strings.NewReader(`{"response":"`+txn.MerchantTransactionID+`"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set("X-VERIFY", "ok")
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var status models.PaymentTransaction
	code, _ = s.call(http.MethodGet, "/api/payments/"+txn.MerchantTransactionID+"/status", partner, nil, &status)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, models.PaymentStatusCompleted, status.Status)
	assert.True(t, status.Applied)

	var paid models.Order
	code, _ = s.call(http.MethodGet, "/api/partner/orders/"+order.ID.Hex(), partner, nil, &paid)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, models.Amount(2000), paid.PaidAmount)
}

func TestServeFile(t *testing.T) {
	s := newAPIServer(t)
	dir := filepath.Join(s.uploadDir, "payment-proofs")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "proof.png"), []byte("png"), 0o644))

	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/uploads/payment-proofs/proof.png", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "png", rec.Body.String())
	assert.Equal(t, "public, max-age=31536000", rec.Header().Get("Cache-Control"))

	rec = httptest.NewRecorder()
	s.e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/uploads/payment-proofs", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	s.e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/uploads/missing.png", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
