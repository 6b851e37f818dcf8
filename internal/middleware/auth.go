package middleware

import (
	"chat-gateway/internal/models"
	"chat-gateway/internal/utils"

	"github.com/gin-gonic/gin"
)

const userContextKey = "user"

// Verifier 校验用户名和密码
type Verifier interface {
	Verify(username, password, role string) (*models.User, error)
}

// AuthGate 每个请求都携带 user/password，来源依次为 JSON、表单、查询参数。
// role 非空时要求角色匹配。
func AuthGate(verifier Verifier, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		params, err := utils.GetParams(c)
		if err != nil {
			abortWithError(c, err)
			return
		}

		user, err := verifier.Verify(params.Get("user"), params.Raw("password"), role)
		if err != nil {
			abortWithError(c, err)
			return
		}

		c.Set(userContextKey, user)
		c.Next()
	}
}

// CurrentUser 从上下文获取已认证用户
func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, exists := c.Get(userContextKey)
	if !exists {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok
}

// GetUsername 从上下文获取用户名
func GetUsername(c *gin.Context) (string, bool) {
	user, ok := CurrentUser(c)
	if !ok {
		return "", false
	}
	return user.Username, true
}
