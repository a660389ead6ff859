package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stemsi/websurvey-backend/internal/config"
	"github.com/stemsi/websurvey-backend/internal/model"
	"github.com/stemsi/websurvey-backend/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// Common auth errors.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNoActiveLogin      = errors.New("no active session")
	ErrLoginInvalidated   = errors.New("session invalidated")
)

// Claims extends JWT standard claims with app-specific fields.
type Claims struct {
	jwt.RegisteredClaims
	Role   model.Role `json:"role"`
	UserID uuid.UUID  `json:"user_id"`
}

// AuthService handles authentication, JWT, and login tracking.
type AuthService struct {
	cfg   *config.Config
	rdb   *redis.Client
	users UserDirectory
}

// NewAuthService creates a new AuthService.
func NewAuthService(cfg *config.Config, rdb *redis.Client, users UserDirectory) *AuthService {
	return &AuthService{cfg: cfg, rdb: rdb, users: users}
}

// HashPassword hashes a password with the configured bcrypt cost.
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	return string(hash), err
}

// CheckPassword compares a plaintext password against a bcrypt hash.
func (s *AuthService) CheckPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// Login verifies the credentials and issues a token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, "", ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", fmt.Errorf("get user: %w", err)
	}
	if err := s.CheckPassword(user.PasswordHash, password); err != nil {
		return nil, "", err
	}

	token, err := s.GenerateToken(ctx, user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// GenerateToken signs a JWT for user. For respondents the JTI becomes the
// current login in Redis, so any token issued earlier stops validating.
func (s *AuthService) GenerateToken(ctx context.Context, user *model.User) (string, error) {
	jti := uuid.New().String()

	signed, err := s.signToken(user, jti, time.Now())
	if err != nil {
		return "", err
	}

	if user.Role == model.RoleRespondent {
		key := config.CacheKey.UserLoginKey(user.ID.String())
		if err := s.rdb.Set(ctx, key, jti, s.cfg.JWTExpiry).Err(); err != nil {
			return "", fmt.Errorf("store login: %w", err)
		}
	}
	return signed, nil
}

func (s *AuthService) signToken(user *model.User, jti string, now time.Time) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.JWTExpiry)),
		},
		Role:   user.Role,
		UserID: user.ID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and validates a JWT, returning the claims.
func (s *AuthService) ValidateToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}

	return claims, nil
}

// ValidateLoginSession checks that jti is the user's current login.
func (s *AuthService) ValidateLoginSession(ctx context.Context, userID uuid.UUID, jti string) error {
	stored, err := s.rdb.Get(ctx, config.CacheKey.UserLoginKey(userID.String())).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrNoActiveLogin
		}
		return fmt.Errorf("check session: %w", err)
	}
	if stored != jti {
		return ErrLoginInvalidated
	}
	return nil
}

// Logout forgets the user's current login.
func (s *AuthService) Logout(ctx context.Context, userID uuid.UUID) error {
	return s.rdb.Del(ctx, config.CacheKey.UserLoginKey(userID.String())).Err()
}

// GetUser returns the account behind a token.
func (s *AuthService) GetUser(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return user, err
}
