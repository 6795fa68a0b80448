package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/counterpos/pos-service/internal/apperr"
	"github.com/counterpos/pos-service/internal/db/repository"
	"github.com/counterpos/pos-service/internal/models"
)

var bcryptCost = bcrypt.DefaultCost

// JWTConfig holds configuration for JWT token generation
type JWTConfig struct {
	Secret    string
	ExpiresIn int // hours
}

// LoginLimiter throttles repeated failed logins per username. A nil
// limiter disables throttling.
type LoginLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Fail(ctx context.Context, key string) error
	Reset(ctx context.Context, key string) error
	Remaining(ctx context.Context, key string) (time.Duration, error)
}

// AuthService handles authentication and authorization
type AuthService struct {
	users     UserStore
	limiter   LoginLimiter
	jwtConfig JWTConfig
	now       func() time.Time
}

// NewAuthService creates a new authentication service
func NewAuthService(users UserStore, limiter LoginLimiter, jwtConfig JWTConfig) *AuthService {
	return &AuthService{
		users:     users,
		limiter:   limiter,
		jwtConfig: jwtConfig,
		now:       time.Now,
	}
}

// Claims represents JWT claims. TokenVersion must match the user's current
// version for the token to be accepted.
type Claims struct {
	UserID       string `json:"id"`
	Username     string `json:"username"`
	Role         string `json:"role"`
	TokenVersion int    `json:"tokenVersion"`
	jwt.RegisteredClaims
}

// Login authenticates a user and returns a signed token
func (s *AuthService) Login(ctx context.Context, username, password string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return "", apperr.Validation("Missing credentials")
	}

	if s.limiter != nil {
		allowed, err := s.limiter.Allow(ctx, username)
		if err != nil {
			zap.L().Warn("login limiter unavailable", zap.Error(err))
		} else if !allowed {
			throttled := apperr.TooManyRequests("Too many login attempts, try again later")
			if wait, err := s.limiter.Remaining(ctx, username); err == nil {
				throttled.WithRetryAfter(wait)
			}
			return "", throttled
		}
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.recordFailure(ctx, username)
			return "", apperr.Validation("Invalid credentials")
		}
		return "", apperr.Internal("Failed to log in", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.recordFailure(ctx, username)
		return "", apperr.Validation("Invalid credentials")
	}

	if !user.IsActive() {
		return "", apperr.Forbidden("Account is inactive")
	}

	if s.limiter != nil {
		if err := s.limiter.Reset(ctx, username); err != nil {
			zap.L().Warn("failed to reset login attempts", zap.String("username", username), zap.Error(err))
		}
	}

	token, err := s.generateToken(user)
	if err != nil {
		return "", apperr.Internal("Failed to log in", fmt.Errorf("failed to generate token: %w", err))
	}

	zap.L().Info("user logged in", zap.String("username", user.Username), zap.String("role", user.Role))
	return token, nil
}

func (s *AuthService) recordFailure(ctx context.Context, username string) {
	if s.limiter == nil {
		return
	}
	if err := s.limiter.Fail(ctx, username); err != nil {
		zap.L().Warn("failed to record login failure", zap.String("username", username), zap.Error(err))
	}
}

// Logout revokes every token issued to the user so far
func (s *AuthService) Logout(ctx context.Context, user *models.User) error {
	if err := s.users.IncrementTokenVersion(ctx, user.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.Unauthorized("User not found")
		}
		return apperr.Internal("Failed to log out", err)
	}
	zap.L().Info("user logged out", zap.String("username", user.Username))
	return nil
}

// generateToken generates a JWT token for a user
func (s *AuthService) generateToken(user *models.User) (string, error) {
	now := s.now()
	expirationTime := now.Add(time.Duration(s.jwtConfig.ExpiresIn) * time.Hour)

	claims := &Claims{
		UserID:       user.ID.String(),
		Username:     user.Username,
		Role:         user.Role,
		TokenVersion: user.TokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtConfig.Secret))
}

// ValidateToken validates a JWT token and returns the claims
func (s *AuthService) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtConfig.Secret), nil
	})
	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	return claims, nil
}

// Authenticate resolves a bearer token to an active user. Tokens issued
// before the user's last logout are rejected.
func (s *AuthService) Authenticate(ctx context.Context, tokenString string) (*models.User, error) {
	if tokenString == "" {
		return nil, apperr.Unauthorized("No token provided")
	}

	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, apperr.Unauthorized("Invalid or expired token")
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, apperr.Unauthorized("Invalid or expired token")
	}

	return s.session(ctx, userID, claims.TokenVersion)
}

// VerifySession re-checks a user resolved by Authenticate. It fails once the
// account is removed or deactivated, or the user has logged out since.
func (s *AuthService) VerifySession(ctx context.Context, user *models.User) error {
	_, err := s.session(ctx, user.ID, user.TokenVersion)
	return err
}

func (s *AuthService) session(ctx context.Context, userID uuid.UUID, tokenVersion int) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.Unauthorized("User not found")
		}
		return nil, apperr.Internal("Failed to authenticate", err)
	}

	if !user.IsActive() {
		return nil, apperr.Forbidden("Account is inactive")
	}

	if tokenVersion != user.TokenVersion {
		return nil, apperr.Unauthorized("Session has been revoked, please log in again")
	}

	return user, nil
}

// HashPassword hashes a password with bcrypt
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}
