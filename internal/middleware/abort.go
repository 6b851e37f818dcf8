package middleware

import (
	"chat-gateway/internal/utils"

	"github.com/gin-gonic/gin"
)

const abortContextKey = "abort_writer"

// AbortWriter 输出中断请求时的错误
type AbortWriter func(c *gin.Context, err error)

// WithAbortWriter 指定后续中间件的错误输出方式，须放在 AuthGate、TestLimit 之前
func WithAbortWriter(write AbortWriter) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(abortContextKey, write)
		c.Next()
	}
}

// abortWithError 未指定输出方式时返回 JSON 信封
func abortWithError(c *gin.Context, err error) {
	if v, ok := c.Get(abortContextKey); ok {
		if write, ok := v.(AbortWriter); ok {
			c.Abort()
			write(c, err)
			return
		}
	}
	utils.AbortWithError(c, err)
}
