package utils

import (
	"net/http"

	"chat-gateway/internal/errs"
	"chat-gateway/internal/i18n"

	"github.com/gin-gonic/gin"
)

const printerContextKey = "i18n_printer"

// Response 统一响应格式，业务失败也返回HTTP 200
type Response struct {
	Success   bool        `json:"success"`
	Msg       string      `json:"msg"`
	ErrorType string      `json:"error_type,omitempty"`
	Data      interface{} `json:"data,omitempty"`
}

// ListData 列表数据
type ListData struct {
	Items interface{} `json:"items"`
	Total int64       `json:"total"`
}

// SetPrinter 将请求语言的翻译器放入上下文
func SetPrinter(c *gin.Context, p *i18n.Printer) {
	c.Set(printerContextKey, p)
}

// Printer 获取请求对应的翻译器
func Printer(c *gin.Context) *i18n.Printer {
	if v, ok := c.Get(printerContextKey); ok {
		return v.(*i18n.Printer)
	}
	p := i18n.NewPrinter(c.GetHeader("Accept-Language"))
	SetPrinter(c, p)
	return p
}

// T 翻译消息
func T(c *gin.Context, msgID string, data map[string]interface{}) string {
	return Printer(c).T(msgID, data)
}

// SuccessResponse 成功响应
func SuccessResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Msg:     T(c, i18n.MsgSuccess, nil),
		Data:    data,
	})
}

// SuccessWithMessage 成功响应(带消息)
func SuccessWithMessage(c *gin.Context, msgID string, msgData map[string]interface{}, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Msg:     T(c, msgID, msgData),
		Data:    data,
	})
}

// ListResponse 列表响应
func ListResponse(c *gin.Context, items interface{}, total int64) {
	SuccessResponse(c, ListData{Items: items, Total: total})
}

// ErrorEnvelope 将错误转换为响应体
func ErrorEnvelope(c *gin.Context, err error) Response {
	e := errs.From(err)
	return Response{
		Success:   false,
		Msg:       T(c, e.MsgID, e.Data),
		ErrorType: string(e.Type),
	}
}

// ErrorResponse 错误响应
func ErrorResponse(c *gin.Context, err error) {
	c.JSON(http.StatusOK, ErrorEnvelope(c, err))
}

// AbortWithError 错误响应并终止后续处理
func AbortWithError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusOK, ErrorEnvelope(c, err))
}
