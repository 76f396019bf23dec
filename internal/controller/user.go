package controller

import (
	"github.com/gin-gonic/gin"
	"github.com/nsxzhou1114/cms-api/internal/dto"
	"github.com/nsxzhou1114/cms-api/internal/middleware"
	"github.com/nsxzhou1114/cms-api/internal/service"
	"github.com/nsxzhou1114/cms-api/pkg/response"
	"go.uber.org/zap"
)

// UserApi 用户API控制器
type UserApi struct {
	logger      *zap.SugaredLogger
	userService *service.UserService
}

// NewUserApi 创建用户API控制器
func NewUserApi(svc *service.Services, log *zap.SugaredLogger) *UserApi {
	return &UserApi{logger: log, userService: svc.Users}
}

// Signup 用户注册
func (api *UserApi) Signup(c *gin.Context) {
	var req dto.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	user, err := api.userService.Signup(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		handleError(c, api.logger, "注册", err)
		return
	}
	response.Success(c, "注册成功", toUserResponse(user))
}

// Login 用户登录
func (api *UserApi) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	user, pair, err := api.userService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		handleError(c, api.logger, "登录", err)
		return
	}

	response.Success(c, "登录成功", dto.LoginResponse{
		User:         toUserResponse(user),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn,
	})
}

// RefreshToken 刷新令牌
func (api *UserApi) RefreshToken(c *gin.Context) {
	var req dto.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	pair, err := api.userService.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		handleError(c, api.logger, "刷新令牌", err)
		return
	}
	response.Success(c, "刷新成功", pair)
}

// Logout 登出，当前访问令牌随即失效
func (api *UserApi) Logout(c *gin.Context) {
	token, ok := middleware.GetToken(c)
	if !ok {
		response.Unauthorized(c, "请先登录", nil)
		return
	}

	if err := api.userService.Logout(c.Request.Context(), token); err != nil {
		handleError(c, api.logger, "登出", err)
		return
	}
	response.Success(c, "登出成功", nil)
}

// Me 当前用户信息
func (api *UserApi) Me(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		response.Unauthorized(c, "请先登录", err)
		return
	}

	user, err := api.userService.Get(c.Request.Context(), userID)
	if err != nil {
		handleError(c, api.logger, "获取用户信息", err)
		return
	}
	response.Success(c, "获取成功", toUserResponse(user))
}
