package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"postboard/internal/domain/auth/model"
	"postboard/internal/domain/auth/repository"
	"postboard/pkg/cache"
	"postboard/pkg/logger"
	"postboard/pkg/utils"
	"postboard/pkg/validation"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrUserExists         = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// 缓存键常量
const (
	AdminCacheKeyPrefix   = "auth:admin:"
	AdminCacheTTL         = 10 * time.Minute
	RevokedCacheKeyPrefix = "auth:revoked:"
)

// Credentials 注册参数
type Credentials struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=6,max=100"`
}

// AuthService 认证服务接口
type AuthService interface {
	SignUp(ctx context.Context, email, password string) (*model.Session, error)
	SignInWithPassword(ctx context.Context, email, password string) (*model.Session, error)
	SignOut(ctx context.Context, claims *utils.Claims) error
	GetSession(ctx context.Context, userID string) (*model.Session, error)
	GrantAdminWithCode(ctx context.Context, userID, code string) (bool, error)
	IsAdmin(ctx context.Context, userID string) (bool, error)
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// authService 实现
type authService struct {
	repo      repository.UserRepository
	cache     cache.CacheService
	adminCode string
	cost      int
}

// NewAuthService 创建认证服务，cache 为 nil 时不缓存角色且注销不生效
func NewAuthService(repo repository.UserRepository, cache cache.CacheService, adminCode string) AuthService {
	return &authService{
		repo:      repo,
		cache:     cache,
		adminCode: adminCode,
		cost:      bcrypt.DefaultCost,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SignUp 注册并签发 token
func (s *authService) SignUp(ctx context.Context, email, password string) (*model.Session, error) {
	in := Credentials{Email: normalizeEmail(email), Password: password}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	if _, err := s.repo.GetByEmail(ctx, in.Email); err == nil {
		return nil, ErrUserExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{Email: in.Email, PasswordHash: string(hash)}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	logger.Log.Info("user signed up", zap.String("user_id", user.ID))

	return s.issue(user, false)
}

// SignInWithPassword 邮箱密码登录
func (s *authService) SignInWithPassword(ctx context.Context, email, password string) (*model.Session, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	isAdmin, err := s.IsAdmin(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return s.issue(user, isAdmin)
}

func (s *authService) issue(user *model.User, isAdmin bool) (*model.Session, error) {
	token, expireAt, err := utils.GenerateToken(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	return &model.Session{User: user, Token: token, ExpiresAt: expireAt, IsAdmin: isAdmin}, nil
}

// SignOut 将 token 的 jti 加入黑名单直到过期
func (s *authService) SignOut(ctx context.Context, claims *utils.Claims) error {
	if claims == nil || claims.ID == "" || s.cache == nil {
		return nil
	}

	ttl := time.Hour
	if claims.ExpiresAt != nil {
		ttl = time.Until(claims.ExpiresAt.Time)
	}
	if ttl <= 0 {
		return nil
	}
	if err := s.cache.Set(ctx, RevokedCacheKeyPrefix+claims.ID, true, ttl); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// IsRevoked token 是否已注销
func (s *authService) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if s.cache == nil || jti == "" {
		return false, nil
	}
	return s.cache.Exists(ctx, RevokedCacheKeyPrefix+jti)
}

// GetSession 当前用户及其管理员状态
func (s *authService) GetSession(ctx context.Context, userID string) (*model.Session, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	isAdmin, err := s.IsAdmin(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &model.Session{User: user, IsAdmin: isAdmin}, nil
}

// GrantAdminWithCode 授权码正确时授予管理员角色。
// 授权码是所有管理员共享的静态口令，属于已知弱点。
func (s *authService) GrantAdminWithCode(ctx context.Context, userID, code string) (bool, error) {
	if s.adminCode == "" || subtle.ConstantTimeCompare([]byte(code), []byte(s.adminCode)) != 1 {
		logger.Log.Warn("admin code mismatch", zap.String("user_id", userID))
		return false, nil
	}

	if err := s.repo.GrantRole(ctx, userID, model.RoleAdmin); err != nil {
		return false, fmt.Errorf("grant admin role: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Delete(ctx, AdminCacheKeyPrefix+userID); err != nil {
			logger.Log.Warn("failed to invalidate admin cache", zap.String("user_id", userID), zap.Error(err))
		}
	}
	logger.Log.Info("admin role granted", zap.String("user_id", userID))
	return true, nil
}

// IsAdmin 角色校验，结果缓存 10 分钟
func (s *authService) IsAdmin(ctx context.Context, userID string) (bool, error) {
	if userID == "" {
		return false, nil
	}

	key := AdminCacheKeyPrefix + userID
	if s.cache != nil {
		var cached bool
		err := s.cache.Get(ctx, key, &cached)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			logger.Log.Warn("admin cache read failed", zap.String("user_id", userID), zap.Error(err))
		}
	}

	isAdmin, err := s.repo.HasRole(ctx, userID, model.RoleAdmin)
	if err != nil {
		return false, fmt.Errorf("check admin role: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, isAdmin, AdminCacheTTL); err != nil {
			logger.Log.Warn("admin cache write failed", zap.String("user_id", userID), zap.Error(err))
		}
	}
	return isAdmin, nil
}
