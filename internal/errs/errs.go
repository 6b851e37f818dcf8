package errs

import (
	"errors"
	"fmt"

	"chat-gateway/internal/i18n"
)

// Type 对外暴露的错误类别，写入响应的 error_type 字段
type Type string

const (
	TypeInvalidParam          Type = "invalid_param"
	TypeUnauthorized          Type = "unauthorized"
	TypeForbidden             Type = "forbidden"
	TypeNotFound              Type = "not_found"
	TypeAlreadyExists         Type = "already_exists"
	TypeAuthError             Type = "auth_error"
	TypeRateLimit             Type = "rate_limit"
	TypeAPIError              Type = "api_error"
	TypeDialogModeUnsupported Type = "dialog_mode_unsupported"
	TypeModelUnsupported      Type = "model_unsupported"
	TypeInternal              Type = "internal"
)

// Error 业务错误
type Error struct {
	Type  Type
	MsgID string
	Data  map[string]interface{}
	Err   error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Type, e.Err)
	}
	if len(e.Data) > 0 {
		return fmt.Sprintf("%s: %s %v", e.Type, e.MsgID, e.Data)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.MsgID)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is 同类别同消息的错误视为相等
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.MsgID == t.MsgID
}

var (
	ErrUserNotFound       = &Error{Type: TypeUnauthorized, MsgID: i18n.MsgUserNotFound}
	ErrWrongPassword      = &Error{Type: TypeUnauthorized, MsgID: i18n.MsgWrongPassword}
	ErrMissingCredentials = &Error{Type: TypeUnauthorized, MsgID: i18n.MsgMissingCredentials}
	ErrForbidden          = &Error{Type: TypeForbidden, MsgID: i18n.MsgForbidden}
	ErrNotFound           = &Error{Type: TypeNotFound, MsgID: i18n.MsgNotFound}
	ErrAlreadyExists      = &Error{Type: TypeAlreadyExists, MsgID: i18n.MsgAlreadyExists}
	ErrInvalidJSON        = &Error{Type: TypeInvalidParam, MsgID: i18n.MsgInvalidJSON}
	ErrTooManyRequests    = &Error{Type: TypeRateLimit, MsgID: i18n.MsgTooManyRequests}
	ErrBusy               = &Error{Type: TypeRateLimit, MsgID: i18n.MsgBusy}
	ErrInternal           = &Error{Type: TypeInternal, MsgID: i18n.MsgInternal}
	ErrNoFile             = &Error{Type: TypeInvalidParam, MsgID: i18n.MsgNoFile}
	ErrInvalidFileToken   = &Error{Type: TypeForbidden, MsgID: i18n.MsgInvalidFileToken}
)

// InvalidParam 参数错误
func InvalidParam(detail string) *Error {
	return &Error{Type: TypeInvalidParam, MsgID: i18n.MsgInvalidParam, Data: map[string]interface{}{"Detail": detail}}
}

// ModelUnsupported 模型不在目录中
func ModelUnsupported(model string) *Error {
	return &Error{Type: TypeModelUnsupported, MsgID: i18n.MsgModelUnsupported, Data: map[string]interface{}{"Model": model}}
}

// DialogModeUnsupported 未知对话模式
func DialogModeUnsupported(mode string) *Error {
	return &Error{Type: TypeDialogModeUnsupported, MsgID: i18n.MsgDialogModeUnsupported, Data: map[string]interface{}{"Mode": mode}}
}

// TestLimitExceeded 测试账号超出IP上限
func TestLimitExceeded(limit int) *Error {
	return &Error{Type: TypeRateLimit, MsgID: i18n.MsgTestLimitExceeded, Data: map[string]interface{}{"Limit": limit}}
}

// Wrap 为底层错误附加类别和消息
func Wrap(t Type, msgID string, err error) *Error {
	return &Error{Type: t, MsgID: msgID, Err: err}
}

// Internal 包装未分类的内部错误
func Internal(err error) *Error {
	return Wrap(TypeInternal, i18n.MsgInternal, err)
}

// From 将任意错误转换为业务错误，未分类的视为内部错误
func From(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal(err)
}

// TypeOf 返回错误类别
func TypeOf(err error) Type {
	if err == nil {
		return ""
	}
	return From(err).Type
}
