package auth

import (
	"context"
	"crypto/subtle"
	"fmt"
	"time"

	"carrental-backend/internal/config"
	"carrental-backend/internal/shared/middleware"
	"carrental-backend/pkg/logger"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// TokenIssuer is the part of jwt.Manager the login flow needs
type TokenIssuer interface {
	GenerateAccessToken(userID, email, role string) (string, time.Time, error)
}

type Service interface {
	Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error)
}

// AdminAuthService authenticates the single configured admin account
type AdminAuthService struct {
	admin  config.AdminConfig
	tokens TokenIssuer
}

func NewAdminAuthService(admin config.AdminConfig, tokens TokenIssuer) *AdminAuthService {
	return &AdminAuthService{admin: admin, tokens: tokens}
}

// AdminUserID is stable per email so created_by stays meaningful across restarts
func AdminUserID(email string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("carrental:admin:"+email))
}

func (s *AdminAuthService) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	if s.admin.PasswordHash == "" || s.admin.Email == "" {
		return nil, ErrLoginDisabled
	}

	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	emailMatch := subtle.ConstantTimeCompare([]byte(req.Email), []byte(s.admin.Email)) == 1
	// always run bcrypt so a wrong email costs the same as a wrong password
	pwErr := bcrypt.CompareHashAndPassword([]byte(s.admin.PasswordHash), []byte(req.Password))
	if !emailMatch || pwErr != nil {
		logger.Warn("admin login failed", map[string]interface{}{"email": req.Email})
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.GenerateAccessToken(AdminUserID(s.admin.Email).String(), s.admin.Email, middleware.RoleAdmin)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	logger.Info("admin logged in", map[string]interface{}{"email": s.admin.Email})
	return &LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt,
		Role:        middleware.RoleAdmin,
	}, nil
}
