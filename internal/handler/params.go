package handler

import (
	"strconv"
	"time"

	"chat-gateway/internal/errs"
	"chat-gateway/internal/utils"

	"github.com/gin-gonic/gin"
)

// requireID 读取路径参数 :id，缺省时读取请求参数 id
func requireID(c *gin.Context, p *utils.RequestParams) (uint, error) {
	raw := c.Param("id")
	if raw == "" {
		raw = p.Get("id")
	}
	if raw == "" {
		return 0, errs.InvalidParam("id")
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || n == 0 {
		return 0, errs.InvalidParam("id")
	}
	return uint(n), nil
}

// optionalID 参数存在且非空时解析为 id 指针
func optionalID(p *utils.RequestParams, key string) (*uint, error) {
	raw := p.Get(key)
	if raw == "" || raw == "null" {
		return nil, nil
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || n == 0 {
		return nil, errs.InvalidParam(key)
	}
	id := uint(n)
	return &id, nil
}

// optionalInt 整数指针参数
func optionalInt(p *utils.RequestParams, key string) (*int, error) {
	if p.Get(key) == "" {
		return nil, nil
	}
	return p.IntPtr(key)
}

// optionalBool 布尔过滤参数，空值视为未设置
func optionalBool(p *utils.RequestParams, key string) *bool {
	if p.Get(key) == "" {
		return nil
	}
	return p.BoolPtr(key)
}

// optionalTime 支持 RFC3339 和 "2006-01-02 15:04:05"
func optionalTime(p *utils.RequestParams, key string) (*time.Time, error) {
	raw := p.Get(key)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			return &t, nil
		}
	}
	return nil, errs.InvalidParam(key)
}
