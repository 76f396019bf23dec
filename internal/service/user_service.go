package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/nsxzhou1114/cms-api/internal/model"
	"github.com/nsxzhou1114/cms-api/pkg/auth"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UserService 用户服务
type UserService struct {
	db     *gorm.DB
	log    *zap.SugaredLogger
	tokens *auth.Manager
}

// NewUserService 创建用户服务实例
func NewUserService(db *gorm.DB, log *zap.SugaredLogger, tokens *auth.Manager) *UserService {
	return &UserService{db: db, log: log, tokens: tokens}
}

// Create 创建用户，密码以bcrypt哈希保存
func (s *UserService) Create(ctx context.Context, name, email, password, role string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" || password == "" {
		return nil, invalidArgument("用户名、邮箱和密码不能为空")
	}
	if role != model.RoleAdmin && role != model.RoleUser {
		return nil, invalidArgument("未知的用户角色: %s", role)
	}

	var taken int64
	if err := s.db.WithContext(ctx).Unscoped().Model(&model.User{}).Where("email = ?", email).Count(&taken).Error; err != nil {
		return nil, err
	}
	if taken > 0 {
		return nil, invalidArgument("邮箱已被注册: %s", email)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{Name: name, Email: email, Password: string(hashed), Role: role}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, invalidArgument("邮箱已被注册: %s", email)
		}
		return nil, err
	}

	s.log.Infof("用户创建成功: id=%d, email=%s, role=%s", user.ID, user.Email, user.Role)
	return user, nil
}

// Signup 注册普通用户
func (s *UserService) Signup(ctx context.Context, name, email, password string) (*model.User, error) {
	return s.Create(ctx, strings.TrimSpace(name), email, password, model.RoleUser)
}

// Login 邮箱密码登录，成功后签发令牌对
func (s *UserService) Login(ctx context.Context, email, password string) (*model.User, *auth.TokenPair, error) {
	var user model.User
	err := s.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	now := time.Now()
	if err := s.db.WithContext(ctx).Model(&user).Update("last_login_at", now).Error; err != nil {
		s.log.Warnf("更新用户登录信息失败: %v", err)
	}
	user.LastLoginAt = &now

	pair, err := s.tokens.GenerateTokenPair(user.ID, user.Role)
	if err != nil {
		return nil, nil, err
	}
	return &user, pair, nil
}

// Refresh 使用刷新令牌换取新的令牌对
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, error) {
	pair, err := s.tokens.RefreshAccessToken(ctx, refreshToken)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	return pair, nil
}

// Logout 撤销令牌
func (s *UserService) Logout(ctx context.Context, token string) error {
	return s.tokens.RevokeToken(ctx, token)
}

// Get 获取用户
func (s *UserService) Get(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translateNotFound(err, "用户")
	}
	return &user, nil
}
