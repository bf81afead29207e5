package controllers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/labstack/echo/v4"

	"github.com/HSouheill/resellhub_backend/middleware"
	"github.com/HSouheill/resellhub_backend/models"
	"github.com/HSouheill/resellhub_backend/services"
)

type AuthController struct {
	auth *services.AuthService
}

func NewAuthController(auth *services.AuthService) *AuthController {
	return &AuthController{auth: auth}
}

// Session exchanges an auth-provider ID token for an API token
func (ac *AuthController) Session(c echo.Context) error {
	var req models.SessionRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	resp, err := ac.auth.Session(c.Request().Context(), req.IDToken)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrAuthUnavailable):
			return respond(c, http.StatusServiceUnavailable, "Sign-in is temporarily unavailable", nil)
		case errors.Is(err, services.ErrAccountDisabled):
			return respond(c, http.StatusForbidden, "Account is disabled", nil)
		}
		log.Printf("Session exchange failed: %v", err)
		return respond(c, http.StatusUnauthorized, "Invalid or expired sign-in token", nil)
	}
	return respond(c, http.StatusOK, "Signed in successfully", resp)
}

// Login authenticates admin and staff accounts by password
func (ac *AuthController) Login(c echo.Context) error {
	var req models.LoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	resp, err := ac.auth.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidCredentials):
			return respond(c, http.StatusUnauthorized, "Invalid email or password", nil)
		case errors.Is(err, services.ErrAccountDisabled):
			return respond(c, http.StatusForbidden, "Account is disabled", nil)
		}
		log.Printf("Login failed: %v", err)
		return respond(c, http.StatusInternalServerError, "Login failed", nil)
	}
	return respond(c, http.StatusOK, "Login successful", resp)
}

// Logout invalidates the presented token until it expires
func (ac *AuthController) Logout(c echo.Context) error {
	token, ok := c.Get("user").(*jwt.Token)
	if !ok {
		return respond(c, http.StatusUnauthorized, "Not signed in", nil)
	}
	expiry := time.Now().Add(middleware.TokenTTL)
	if claims, ok := token.Claims.(*middleware.JwtCustomClaims); ok && claims.ExpiresAt > 0 {
		expiry = time.Unix(claims.ExpiresAt, 0)
	}
	middleware.BlacklistToken(token.Raw, expiry)
	return respond(c, http.StatusOK, "Logged out successfully", nil)
}

// Me returns the identity behind the token
func (ac *AuthController) Me(c echo.Context) error {
	userID, err := middleware.ExtractUserID(c)
	if err != nil {
		return respond(c, http.StatusUnauthorized, "Authentication failed", nil)
	}
	return respond(c, http.StatusOK, "OK", map[string]string{
		"userId":   userID,
		"userType": middleware.ExtractUserType(c),
		"email":    middleware.ExtractEmail(c),
	})
}
