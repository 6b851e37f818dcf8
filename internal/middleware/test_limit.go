package middleware

import "github.com/gin-gonic/gin"

// LimitGuard 测试账号按IP限次
type LimitGuard interface {
	Guard(username, ip string) error
}

// TestLimit 对测试账号检查并累加IP计数，须放在 AuthGate 之后
func TestLimit(guard LimitGuard) gin.HandlerFunc {
	return func(c *gin.Context) {
		username, _ := GetUsername(c)
		if err := guard.Guard(username, c.ClientIP()); err != nil {
			abortWithError(c, err)
			return
		}
		c.Next()
	}
}
