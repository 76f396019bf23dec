package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"
	"github.com/nsxzhou1114/cms-api/internal/config"
)

// TokenType 定义token类型
type TokenType string

const (
	// AccessToken 访问令牌，用于访问资源
	AccessToken TokenType = "access"
	// RefreshToken 刷新令牌，用于获取新的访问令牌
	RefreshToken TokenType = "refresh"
)

var (
	// ErrTokenRevoked 令牌已被撤销
	ErrTokenRevoked = errors.New("令牌已被撤销")
	// ErrInvalidToken 无效的令牌
	ErrInvalidToken = errors.New("无效的令牌")
)

// Claims 自定义JWT声明结构体
type Claims struct {
	UserID   uint      `json:"user_id"`
	Role     string    `json:"role"`
	Type     TokenType `json:"type"`
	TokenID  string    `json:"jti,omitempty"`      // 令牌唯一ID，用于追踪和撤销
	Previous string    `json:"previous,omitempty"` // 前一个刷新令牌的ID，用于令牌轮换
	jwt.StandardClaims
}

// TokenPair 包含访问令牌和刷新令牌
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"` // 访问令牌过期时间（秒）
	TokenID      string `json:"token_id"`
}

// Manager 令牌签发与校验
type Manager struct {
	cfg       config.JWTConfig
	blacklist Blacklist
	now       func() time.Time
}

// NewManager 创建令牌管理器，blacklist为空时使用内存黑名单
func NewManager(cfg config.JWTConfig, blacklist Blacklist) *Manager {
	if blacklist == nil {
		blacklist = NewMemoryBlacklist()
	}
	return &Manager{cfg: cfg, blacklist: blacklist, now: time.Now}
}

// GenerateTokenPair 生成访问令牌和刷新令牌对
func (m *Manager) GenerateTokenPair(userID uint, role string) (*TokenPair, error) {
	return m.generatePair(userID, role, "")
}

func (m *Manager) generatePair(userID uint, role, previous string) (*TokenPair, error) {
	accessExpire := time.Duration(m.cfg.AccessExpireSeconds) * time.Second
	refreshExpire := time.Duration(m.cfg.RefreshExpireSeconds) * time.Second
	tokenID := uuid.NewString()

	accessToken, err := m.generateToken(userID, role, AccessToken, accessExpire, tokenID, "")
	if err != nil {
		return nil, err
	}

	refreshToken, err := m.generateToken(userID, role, RefreshToken, refreshExpire, tokenID, previous)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(accessExpire.Seconds()),
		TokenID:      tokenID,
	}, nil
}

// generateToken 创建指定类型的JWT令牌
func (m *Manager) generateToken(userID uint, role string, tokenType TokenType, expiration time.Duration, tokenID, previous string) (string, error) {
	now := m.now()
	claims := Claims{
		UserID:   userID,
		Role:     role,
		Type:     tokenType,
		TokenID:  tokenID,
		Previous: previous,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: now.Add(expiration).Unix(),
			IssuedAt:  now.Unix(),
			Issuer:    m.cfg.Issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(m.cfg.SecretKey))
}

func (m *Manager) parse(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("不支持的签名算法: %v", token.Header["alg"])
		}
		return []byte(m.cfg.SecretKey), nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, ErrInvalidToken
}

// ParseToken 解析并校验JWT令牌
func (m *Manager) ParseToken(ctx context.Context, tokenString string) (*Claims, error) {
	if m.blacklist.Contains(ctx, tokenString) {
		return nil, ErrTokenRevoked
	}
	return m.parse(tokenString)
}

// RefreshAccessToken 使用刷新令牌获取新的令牌对，旧刷新令牌随即失效
func (m *Manager) RefreshAccessToken(ctx context.Context, refreshTokenString string) (*TokenPair, error) {
	claims, err := m.ParseToken(ctx, refreshTokenString)
	if err != nil {
		return nil, err
	}
	if claims.Type != RefreshToken {
		return nil, ErrInvalidToken
	}

	pair, err := m.generatePair(claims.UserID, claims.Role, claims.TokenID)
	if err != nil {
		return nil, err
	}

	if err := m.blacklist.Add(ctx, refreshTokenString, time.Unix(claims.ExpiresAt, 0)); err != nil {
		return nil, err
	}
	return pair, nil
}

// RevokeToken 撤销令牌（登出时使用）
func (m *Manager) RevokeToken(ctx context.Context, tokenString string) error {
	claims, err := m.parse(tokenString)
	if err != nil {
		return err
	}
	return m.blacklist.Add(ctx, tokenString, time.Unix(claims.ExpiresAt, 0))
}
