package handler

import (
	"time"

	"chat-gateway/internal/dto"
	"chat-gateway/internal/i18n"
	"chat-gateway/internal/middleware"
	"chat-gateway/internal/service"
	"chat-gateway/internal/utils"

	"github.com/gin-gonic/gin"
)

// AuthHandler 认证处理器
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// Health 健康检查
func (h *AuthHandler) Health(c *gin.Context) {
	utils.SuccessResponse(c, gin.H{
		"status": "ok",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// Login 用户登录
// @Summary 用户登录
// @Tags 认证
// @Param user formData string true "用户名"
// @Param password formData string true "密码"
// @Success 200 {object} utils.Response{data=dto.LoginResponse}
// @Router /api/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	p, err := utils.GetParams(c)
	if err != nil {
		utils.ErrorResponse(c, err)
		return
	}

	resp, err := h.authService.Login(p.Get("user"), p.Raw("password"))
	if err != nil {
		utils.ErrorResponse(c, err)
		return
	}

	utils.SuccessWithMessage(c, i18n.MsgLoginSuccess, nil, resp)
}

// ChangePassword 修改密码，old_password 缺省时使用本次请求的 password
// @Summary 修改密码
// @Tags 认证
// @Param new_password formData string true "新密码"
// @Success 200 {object} utils.Response
// @Router /api/password [post]
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	p, err := utils.GetParams(c)
	if err != nil {
		utils.ErrorResponse(c, err)
		return
	}

	req := dto.ChangePasswordRequest{
		OldPassword: p.Raw("old_password"),
		NewPassword: p.Raw("new_password"),
	}
	if req.OldPassword == "" {
		req.OldPassword = p.Raw("password")
	}

	if err := h.authService.ChangePassword(user, &req); err != nil {
		utils.ErrorResponse(c, err)
		return
	}

	utils.SuccessWithMessage(c, i18n.MsgPasswordUpdated, nil, nil)
}
