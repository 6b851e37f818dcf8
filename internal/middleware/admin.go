package middleware

import (
	"chat-gateway/internal/models"

	"github.com/gin-gonic/gin"
)

// AdminGate 管理接口认证，要求启用的管理员账户
func AdminGate(verifier Verifier) gin.HandlerFunc {
	return AuthGate(verifier, models.RoleAdmin)
}

// IsAdmin 当前用户是否为管理员
func IsAdmin(c *gin.Context) bool {
	user, ok := CurrentUser(c)
	return ok && user.IsAdmin()
}
