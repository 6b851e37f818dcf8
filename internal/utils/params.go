package utils

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"chat-gateway/internal/errs"

	"github.com/gin-gonic/gin"
)

const paramsContextKey = "request_params"

// RequestParams 合并 JSON 请求体、表单和查询参数，JSON 优先
type RequestParams struct {
	values map[string]string
}

// NewRequestParams 直接由键值构造，测试和内部调用使用
func NewRequestParams(values map[string]string) *RequestParams {
	if values == nil {
		values = map[string]string{}
	}
	return &RequestParams{values: values}
}

// GetParams 解析并缓存请求参数，同一请求内多次调用返回同一结果
func GetParams(c *gin.Context) (*RequestParams, error) {
	if v, ok := c.Get(paramsContextKey); ok {
		return v.(*RequestParams), nil
	}

	p := &RequestParams{values: map[string]string{}}

	if strings.HasPrefix(c.ContentType(), "application/json") && c.Request.Body != nil {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			return nil, errs.Internal(err)
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		if len(bytes.TrimSpace(body)) > 0 {
			var raw map[string]interface{}
			dec := json.NewDecoder(bytes.NewReader(body))
			dec.UseNumber()
			if err := dec.Decode(&raw); err != nil {
				return nil, fmt.Errorf("%w: %v", errs.ErrInvalidJSON, err)
			}
			for k, v := range raw {
				if s, ok := stringify(v); ok {
					p.values[k] = s
				}
			}
		}
	}

	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		if form, err := c.MultipartForm(); err == nil {
			for k, vs := range form.Value {
				p.setDefault(k, vs)
			}
		}
	} else if err := c.Request.ParseForm(); err == nil {
		for k, vs := range c.Request.PostForm {
			p.setDefault(k, vs)
		}
	}

	for k, vs := range c.Request.URL.Query() {
		p.setDefault(k, vs)
	}

	c.Set(paramsContextKey, p)
	return p, nil
}

func (p *RequestParams) setDefault(key string, vs []string) {
	if _, ok := p.values[key]; ok || len(vs) == 0 {
		return
	}
	p.values[key] = vs[0]
}

func stringify(v interface{}) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", false
	case string:
		return val, true
	case json.Number:
		return val.String(), true
	case bool:
		return strconv.FormatBool(val), true
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return "", false
		}
		return string(b), true
	}
}

// Has 参数是否存在
func (p *RequestParams) Has(key string) bool {
	_, ok := p.values[key]
	return ok
}

// Get 获取字符串参数，去掉首尾空白
func (p *RequestParams) Get(key string) string {
	return strings.TrimSpace(p.values[key])
}

// Raw 获取未处理的参数值
func (p *RequestParams) Raw(key string) string {
	return p.values[key]
}

// StringPtr 参数存在时返回指针
func (p *RequestParams) StringPtr(key string) *string {
	if !p.Has(key) {
		return nil
	}
	v := p.Get(key)
	return &v
}

// Bool 解析布尔参数，true/1/yes 为真
func (p *RequestParams) Bool(key string) bool {
	return ParseBool(p.Get(key))
}

// BoolPtr 参数存在时返回布尔指针
func (p *RequestParams) BoolPtr(key string) *bool {
	if !p.Has(key) {
		return nil
	}
	v := p.Bool(key)
	return &v
}

// Int 解析整数参数，缺失时返回默认值
func (p *RequestParams) Int(key string, def int) (int, error) {
	s := p.Get(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, errs.InvalidParam(key)
	}
	return n, nil
}

// IntPtr 参数存在时解析为整数指针
func (p *RequestParams) IntPtr(key string) (*int, error) {
	if !p.Has(key) {
		return nil, nil
	}
	n, err := p.Int(key, 0)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// UintList 解析 id 列表，支持 JSON 数组或逗号分隔
func (p *RequestParams) UintList(key string) ([]uint, error) {
	s := p.Get(key)
	if s == "" {
		return nil, nil
	}

	var parts []string
	if strings.HasPrefix(s, "[") {
		var nums []json.Number
		if err := json.Unmarshal([]byte(s), &nums); err != nil {
			return nil, errs.InvalidParam(key)
		}
		for _, n := range nums {
			parts = append(parts, n.String())
		}
	} else {
		parts = strings.Split(s, ",")
	}

	ids := make([]uint, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.ParseUint(part, 10, 64)
		if err != nil {
			return nil, errs.InvalidParam(key)
		}
		ids = append(ids, uint(n))
	}
	return ids, nil
}

// ParseBool true/1/yes 视为真，忽略大小写
func ParseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes":
		return true
	}
	return false
}
