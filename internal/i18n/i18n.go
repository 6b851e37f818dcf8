package i18n

import (
	"sync"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

// Message IDs
const (
	MsgSuccess               = "success"
	MsgUserNotFound          = "user_not_found"
	MsgWrongPassword         = "wrong_password"
	MsgMissingCredentials    = "missing_credentials"
	MsgForbidden             = "forbidden"
	MsgInvalidParam          = "invalid_param"
	MsgInvalidJSON           = "invalid_json"
	MsgNotFound              = "not_found"
	MsgAlreadyExists         = "already_exists"
	MsgInternal              = "internal"
	MsgUpstreamAuth          = "upstream_auth"
	MsgUpstreamRateLimit     = "upstream_rate_limit"
	MsgUpstreamAPI           = "upstream_api"
	MsgDialogModeUnsupported = "dialog_mode_unsupported"
	MsgModelUnsupported      = "model_unsupported"
	MsgTestLimitExceeded     = "test_limit_exceeded"
	MsgTooManyRequests       = "too_many_requests"
	MsgBusy                  = "busy"
	MsgNoFile                = "no_file"
	MsgFileTooLarge          = "file_too_large"
	MsgFileTypeNotAllowed    = "file_type_not_allowed"
	MsgInvalidFileToken      = "invalid_file_token"
	MsgPasswordUpdated       = "password_updated"
	MsgDeleted               = "deleted"
	MsgRenamed               = "renamed"
	MsgCreated               = "created"
	MsgUpdated               = "updated"
	MsgReset                 = "reset"
	MsgSynced                = "synced"
	MsgLoginSuccess          = "login_success"
)

var messages = map[language.Tag][]*i18n.Message{
	language.Chinese: {
		{ID: MsgSuccess, Other: "成功"},
		{ID: MsgUserNotFound, Other: "用户不存在或无权限"},
		{ID: MsgWrongPassword, Other: "密码错误"},
		{ID: MsgMissingCredentials, Other: "缺少用户名或密码"},
		{ID: MsgForbidden, Other: "无访问权限"},
		{ID: MsgInvalidParam, Other: "参数错误: {{.Detail}}"},
		{ID: MsgInvalidJSON, Other: "请求体不是合法的JSON"},
		{ID: MsgNotFound, Other: "记录不存在"},
		{ID: MsgAlreadyExists, Other: "记录已存在"},
		{ID: MsgInternal, Other: "服务器内部错误"},
		{ID: MsgUpstreamAuth, Other: "上游服务认证失败或IP受限"},
		{ID: MsgUpstreamRateLimit, Other: "上游服务请求过于频繁，请稍后再试"},
		{ID: MsgUpstreamAPI, Other: "上游服务调用失败: {{.Detail}}"},
		{ID: MsgDialogModeUnsupported, Other: "不支持的对话模式: {{.Mode}}"},
		{ID: MsgModelUnsupported, Other: "不支持的模型: {{.Model}}"},
		{ID: MsgTestLimitExceeded, Other: "测试账号请求次数已达上限({{.Limit}})"},
		{ID: MsgTooManyRequests, Other: "请求过于频繁，请稍后再试"},
		{ID: MsgBusy, Other: "当前请求过多，请稍后再试"},
		{ID: MsgNoFile, Other: "未选择文件"},
		{ID: MsgFileTooLarge, Other: "文件大小超过限制({{.Limit}}MB)"},
		{ID: MsgFileTypeNotAllowed, Other: "不支持的文件类型: {{.Ext}}"},
		{ID: MsgInvalidFileToken, Other: "文件链接无效或已过期"},
		{ID: MsgPasswordUpdated, Other: "密码修改成功"},
		{ID: MsgDeleted, Other: "已删除{{.Count}}条记录"},
		{ID: MsgRenamed, Other: "重命名成功"},
		{ID: MsgCreated, Other: "创建成功"},
		{ID: MsgUpdated, Other: "更新成功"},
		{ID: MsgReset, Other: "已重置{{.Count}}条记录"},
		{ID: MsgSynced, Other: "已同步{{.Count}}个模型"},
		{ID: MsgLoginSuccess, Other: "登录成功"},
	},
	language.English: {
		{ID: MsgSuccess, Other: "success"},
		{ID: MsgUserNotFound, Other: "user not found or unauthorized"},
		{ID: MsgWrongPassword, Other: "wrong password"},
		{ID: MsgMissingCredentials, Other: "missing user or password"},
		{ID: MsgForbidden, Other: "forbidden"},
		{ID: MsgInvalidParam, Other: "invalid parameter: {{.Detail}}"},
		{ID: MsgInvalidJSON, Other: "request body is not valid JSON"},
		{ID: MsgNotFound, Other: "record not found"},
		{ID: MsgAlreadyExists, Other: "record already exists"},
		{ID: MsgInternal, Other: "internal server error"},
		{ID: MsgUpstreamAuth, Other: "upstream authentication failed or IP restricted"},
		{ID: MsgUpstreamRateLimit, Other: "upstream rate limit reached, please retry later"},
		{ID: MsgUpstreamAPI, Other: "upstream call failed: {{.Detail}}"},
		{ID: MsgDialogModeUnsupported, Other: "unsupported dialog mode: {{.Mode}}"},
		{ID: MsgModelUnsupported, Other: "unsupported model: {{.Model}}"},
		{ID: MsgTestLimitExceeded, Other: "test account request limit reached ({{.Limit}})"},
		{ID: MsgTooManyRequests, Other: "too many requests, please retry later"},
		{ID: MsgBusy, Other: "too many requests in flight, please retry later"},
		{ID: MsgNoFile, Other: "no file selected"},
		{ID: MsgFileTooLarge, Other: "file exceeds the size limit ({{.Limit}}MB)"},
		{ID: MsgFileTypeNotAllowed, Other: "file type not allowed: {{.Ext}}"},
		{ID: MsgInvalidFileToken, Other: "file link is invalid or expired"},
		{ID: MsgPasswordUpdated, Other: "password updated"},
		{ID: MsgDeleted, Other: "deleted {{.Count}} record(s)"},
		{ID: MsgRenamed, Other: "renamed"},
		{ID: MsgCreated, Other: "created"},
		{ID: MsgUpdated, Other: "updated"},
		{ID: MsgReset, Other: "reset {{.Count}} record(s)"},
		{ID: MsgSynced, Other: "synced {{.Count}} model(s)"},
		{ID: MsgLoginSuccess, Other: "login succeeded"},
	},
}

var (
	bundle      *i18n.Bundle
	defaultLang = language.Chinese.String()
	bundleOnce  sync.Once
)

func getBundle() *i18n.Bundle {
	bundleOnce.Do(func() {
		bundle = i18n.NewBundle(language.Chinese)
		for tag, msgs := range messages {
			bundle.MustAddMessages(tag, msgs...)
		}
	})
	return bundle
}

// SetDefaultLanguage 设置 Accept-Language 缺失或无法匹配时使用的语言
func SetDefaultLanguage(lang string) {
	if tag, err := language.Parse(lang); err == nil {
		defaultLang = tag.String()
	}
}

// Printer 绑定到某一请求语言的翻译器
type Printer struct {
	localizer *i18n.Localizer
}

// NewPrinter 按 Accept-Language 等语言串创建翻译器
func NewPrinter(langs ...string) *Printer {
	langs = append(langs, defaultLang)
	return &Printer{localizer: i18n.NewLocalizer(getBundle(), langs...)}
}

// T 翻译消息，找不到时返回消息ID
func (p *Printer) T(messageID string, data map[string]interface{}) string {
	msg, err := p.localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    messageID,
		TemplateData: data,
	})
	if err != nil {
		return messageID
	}
	return msg
}
