package middleware

import (
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nsxzhou1114/cms-api/internal/logger"
	"github.com/nsxzhou1114/cms-api/internal/model"
	"github.com/nsxzhou1114/cms-api/pkg/auth"
	"github.com/nsxzhou1114/cms-api/pkg/response"
)

// 上下文键
const (
	ctxUserID   = "userID"
	ctxUserRole = "userRole"
	ctxTokenID  = "tokenID"
	ctxToken    = "token"
)

// bearerToken 从Authorization头中取出令牌
func bearerToken(c *gin.Context) (string, error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", errors.New("缺少Authorization头")
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if !(len(parts) == 2 && parts[0] == "Bearer") {
		return "", errors.New("Authorization格式错误")
	}
	return parts[1], nil
}

// authenticate 校验访问令牌并写入上下文，失败时已写出401并中止。
// 这里不调用c.Next()，后续检查由调用方完成。
func authenticate(c *gin.Context, tokens *auth.Manager, expireBuffer time.Duration) bool {
	token, err := bearerToken(c)
	if err != nil {
		response.Unauthorized(c, "请先登录", err)
		return false
	}

	claims, err := tokens.ParseToken(c.Request.Context(), token)
	if err != nil {
		logger.Warnf("无效的令牌: %v", err)
		response.Unauthorized(c, "无效的令牌", err)
		return false
	}

	if claims.Type != auth.AccessToken {
		logger.Warnf("使用了错误类型的令牌: %v", claims.Type)
		response.Unauthorized(c, "使用了错误类型的令牌", errors.New("需要访问令牌"))
		return false
	}

	if time.Until(time.Unix(claims.ExpiresAt, 0)) < expireBuffer {
		c.Header("X-Token-Expire-Soon", "true")
	}
	setClaims(c, claims, token)
	return true
}

// JWTAuth JWT认证中间件，expireBuffer内即将过期的令牌会在响应头中提示刷新
func JWTAuth(tokens *auth.Manager, expireBuffer time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !authenticate(c, tokens, expireBuffer) {
			return
		}
		c.Next()
	}
}

// AdminAuth 管理员认证中间件
func AdminAuth(tokens *auth.Manager, expireBuffer time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !authenticate(c, tokens, expireBuffer) {
			return
		}
		if role, _ := GetUserRole(c); role != model.RoleAdmin {
			response.Forbidden(c, "需要管理员权限", nil)
			return
		}
		c.Next()
	}
}

// OptionalAuth 可选的JWT认证中间件
// 不会阻止未认证的用户访问，但如果提供了有效的token会设置用户信息到上下文
func OptionalAuth(tokens *auth.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := bearerToken(c)
		if err != nil {
			c.Next()
			return
		}

		claims, err := tokens.ParseToken(c.Request.Context(), token)
		if err != nil || claims.Type != auth.AccessToken {
			logger.Warnf("忽略无效的可选令牌: %v", err)
			c.Next()
			return
		}

		setClaims(c, claims, token)
		c.Next()
	}
}

func setClaims(c *gin.Context, claims *auth.Claims, token string) {
	c.Set(ctxUserID, claims.UserID)
	c.Set(ctxUserRole, claims.Role)
	c.Set(ctxTokenID, claims.TokenID)
	c.Set(ctxToken, token)
}

// GetUserID 从上下文中获取用户ID
func GetUserID(c *gin.Context) (uint, bool) {
	userID, exists := c.Get(ctxUserID)
	if !exists {
		return 0, false
	}
	return userID.(uint), true
}

// GetUserRole 从上下文中获取用户角色
func GetUserRole(c *gin.Context) (string, bool) {
	userRole, exists := c.Get(ctxUserRole)
	if !exists {
		return "", false
	}
	return userRole.(string), true
}

// GetToken 从上下文中获取原始令牌
func GetToken(c *gin.Context) (string, bool) {
	token := c.GetString(ctxToken)
	return token, token != ""
}
