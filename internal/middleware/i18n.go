package middleware

import (
	"chat-gateway/internal/i18n"
	"chat-gateway/internal/utils"

	"github.com/gin-gonic/gin"
)

// Locale 按 Accept-Language 选择响应消息的语言
func Locale() gin.HandlerFunc {
	return func(c *gin.Context) {
		utils.SetPrinter(c, i18n.NewPrinter(c.Query("lang"), c.GetHeader("Accept-Language")))
		c.Next()
	}
}
