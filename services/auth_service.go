package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/HSouheill/resellhub_backend/models"
	"github.com/HSouheill/resellhub_backend/repositories"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountDisabled    = errors.New("account is disabled")
	ErrAuthUnavailable    = errors.New("auth provider is not configured")
)

// IDTokenVerifier is satisfied by *auth.Client
type IDTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// TokenIssuer signs an API session token
type TokenIssuer func(userID, email, userType string) (string, time.Time, error)

// AuthService exchanges credentials for API session tokens
type AuthService struct {
	verifier IDTokenVerifier
	users    repositories.UserRepository
	issue    TokenIssuer
}

func NewAuthService(verifier IDTokenVerifier, users repositories.UserRepository, issue TokenIssuer) *AuthService {
	return &AuthService{verifier: verifier, users: users, issue: issue}
}

// Session verifies an auth-provider ID token. First-time identities become partners.
func (s *AuthService) Session(ctx context.Context, idToken string) (*models.AuthResponse, error) {
	if s.verifier == nil {
		return nil, ErrAuthUnavailable
	}
	token, err := s.verifier.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, fmt.Errorf("verify id token: %w", err)
	}
	email, _ := token.Claims["email"].(string)
	name, _ := token.Claims["name"].(string)

	user, err := s.users.FindByID(ctx, token.UID)
	if errors.Is(err, repositories.ErrNotFound) {
		now := time.Now()
		user = &models.User{
			UID:       token.UID,
			Email:     strings.ToLower(email),
			FullName:  name,
			UserType:  models.UserTypePartner,
			IsActive:  true,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.users.Upsert(ctx, user); err != nil {
			return nil, err
		}
		log.Printf("Registered partner %s (%s)", user.UID, user.Email)
	} else if err != nil {
		return nil, err
	}

	return s.respond(ctx, user)
}

// Login checks an admin or staff password
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	user, err := s.users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if user.Password == "" || user.UserType == models.UserTypePartner {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.respond(ctx, user)
}

func (s *AuthService) respond(ctx context.Context, user *models.User) (*models.AuthResponse, error) {
	if !user.IsActive {
		return nil, ErrAccountDisabled
	}
	token, _, err := s.issue(user.UID, user.Email, user.UserType)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	if err := s.users.TouchLogin(ctx, user.UID); err != nil {
		log.Printf("Failed to record login for %s: %v", user.UID, err)
	}
	return &models.AuthResponse{
		Token:    token,
		UserID:   user.UID,
		UserType: user.UserType,
		Email:    user.Email,
	}, nil
}

// CreateAccount provisions an admin or staff account with a password
func (s *AuthService) CreateAccount(ctx context.Context, email, password, fullName, userType, staffCode string) (*models.User, error) {
	if userType != models.UserTypeAdmin && userType != models.UserTypeStaff {
		return nil, fmt.Errorf("unsupported account type %q", userType)
	}
	if len(password) < 8 {
		return nil, fmt.Errorf("password must be at least 8 characters")
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, repositories.ErrDuplicate
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	now := time.Now()
	user := &models.User{
		UID:       uuid.New().String(),
		Email:     email,
		FullName:  fullName,
		UserType:  userType,
		Password:  string(hashed),
		StaffCode: staffCode,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.users.Upsert(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
