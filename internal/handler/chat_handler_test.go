package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"chat-gateway/internal/dto"
	"chat-gateway/internal/errs"
	"chat-gateway/internal/i18n"
	"chat-gateway/internal/middleware"
	"chat-gateway/internal/models"
	"chat-gateway/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockDispatcher struct {
	ChatFunc   func(ctx context.Context, user *models.User, req *dto.ChatRequest) (*dto.ChatResult, error)
	StreamFunc func(ctx context.Context, user *models.User, req *dto.ChatRequest, onDelta func(string) error) (*dto.ChatResult, error)
	ImageFunc  func(ctx context.Context, user *models.User, req *dto.ImageRequest) (*dto.ImageResult, error)
	calls      int
}

func (m *mockDispatcher) Chat(ctx context.Context, user *models.User, req *dto.ChatRequest) (*dto.ChatResult, error) {
	m.calls++
	return m.ChatFunc(ctx, user, req)
}

func (m *mockDispatcher) Stream(ctx context.Context, user *models.User, req *dto.ChatRequest, onDelta func(string) error) (*dto.ChatResult, error) {
	m.calls++
	return m.StreamFunc(ctx, user, req, onDelta)
}

func (m *mockDispatcher) Image(ctx context.Context, user *models.User, req *dto.ImageRequest) (*dto.ImageResult, error) {
	m.calls++
	return m.ImageFunc(ctx, user, req)
}

type mockGuard struct {
	GuardFunc func(username, ip string) error
}

func (m *mockGuard) Guard(username, ip string) error {
	return m.GuardFunc(username, ip)
}

func newChatRouter(d ChatDispatcher, guard middleware.LimitGuard) *gin.Engine {
	h := NewChatHandler(d, logger.Discard())
	r := gin.New()
	r.Use(middleware.Locale())
	api := r.Group("/api", middleware.AuthGate(staticVerifier("alice", models.RoleUser), ""))
	if guard != nil {
		api.Use(middleware.TestLimit(guard))
	}
	api.POST("/chat", h.Chat)
	api.POST("/chat/stream", h.Stream)
	api.POST("/image", h.Image)
	return r
}

// readFrames 按 SSE 空行分隔解析数据帧
func readFrames(t *testing.T, body string) []dto.StreamFrame {
	t.Helper()
	var frames []dto.StreamFrame
	for _, chunk := range strings.Split(body, "\n\n") {
		chunk = strings.TrimSpace(chunk)
		if chunk == "" {
			continue
		}
		require.True(t, strings.HasPrefix(chunk, "data: "), chunk)
		var f dto.StreamFrame
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(chunk, "data: ")), &f))
		frames = append(frames, f)
	}
	return frames
}

func TestChatHandler_Chat(t *testing.T) {
	var got *dto.ChatRequest
	d := &mockDispatcher{ChatFunc: func(ctx context.Context, user *models.User, req *dto.ChatRequest) (*dto.ChatResult, error) {
		got = req
		assert.Equal(t, "alice", user.Username)
		return &dto.ChatResult{Content: "Hi!", Usage: 12, DialogID: 3, Title: "hello"}, nil
	}}
	r := newChatRouter(d, nil)

	body := `{"user":"alice","password":"pw","model":"gpt-4o-mini",
		"dialog":[{"role":"user","content":"hello"}],"dialog_mode":"MULTI","dialog_id":3,"max_tokens":256}`
	w := postJSON(r, "/api/chat", body)

	var resp dto.ChatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "assistant", resp.Role)
	assert.Equal(t, "Hi!", resp.Content)
	assert.Equal(t, uint(3), resp.DialogID)
	assert.Equal(t, 12, resp.Usage)

	require.NotNil(t, got)
	assert.Equal(t, dto.DialogModeMulti, got.DialogMode)
	assert.JSONEq(t, `[{"role":"user","content":"hello"}]`, got.Dialog)
	require.NotNil(t, got.DialogID)
	assert.Equal(t, uint(3), *got.DialogID)
	assert.Equal(t, 256, got.MaxTokens)
}

func TestChatHandler_ChatErrors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		err     error
		errType string
		calls   int
	}{
		{"缺少模型", `{"user":"alice","password":"pw","dialog":"hi"}`, nil, "invalid_param", 0},
		{"dialog_id非法", `{"user":"alice","password":"pw","model":"m","dialog":"hi","dialog_id":"abc"}`, nil, "invalid_param", 0},
		{"模型不支持", `{"user":"alice","password":"pw","model":"m","dialog":"hi"}`, errs.ModelUnsupported("m"), "model_unsupported", 1},
		{"上游鉴权失败", `{"user":"alice","password":"pw","model":"m","dialog":"hi"}`, errs.Wrap(errs.TypeAuthError, i18n.MsgUpstreamAuth, errors.New("401")), "auth_error", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &mockDispatcher{ChatFunc: func(ctx context.Context, user *models.User, req *dto.ChatRequest) (*dto.ChatResult, error) {
				return nil, tt.err
			}}
			w := postJSON(newChatRouter(d, nil), "/api/chat", tt.body)

			assert.Equal(t, http.StatusOK, w.Code)
			resp := decode(t, w)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.errType, resp.ErrorType)
			assert.NotEmpty(t, resp.Msg)
			assert.Equal(t, tt.calls, d.calls)
		})
	}
}

func TestChatHandler_Stream(t *testing.T) {
	d := &mockDispatcher{StreamFunc: func(ctx context.Context, user *models.User, req *dto.ChatRequest, onDelta func(string) error) (*dto.ChatResult, error) {
		for _, s := range []string{"Hel", "", "lo"} {
			if err := onDelta(s); err != nil {
				return nil, err
			}
		}
		return &dto.ChatResult{Content: "Hello", DialogID: 9}, nil
	}}
	w := postJSON(newChatRouter(d, nil), "/api/chat/stream", `{"user":"alice","password":"pw","model":"m","dialog":"hi"}`)

	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	frames := readFrames(t, w.Body.String())
	require.Len(t, frames, 3)
	assert.Equal(t, "Hel", frames[0].Content)
	assert.False(t, frames[0].Done)
	assert.Equal(t, "lo", frames[1].Content)
	assert.True(t, frames[2].Done)
	assert.Empty(t, frames[2].Content)
	assert.Nil(t, frames[2].Success)
	assert.Equal(t, uint(9), frames[2].DialogID)
}

func TestChatHandler_StreamError(t *testing.T) {
	t.Run("中途出错", func(t *testing.T) {
		d := &mockDispatcher{StreamFunc: func(ctx context.Context, user *models.User, req *dto.ChatRequest, onDelta func(string) error) (*dto.ChatResult, error) {
			require.NoError(t, onDelta("partial"))
			return nil, errs.Wrap(errs.TypeRateLimit, i18n.MsgUpstreamRateLimit, errors.New("429"))
		}}
		w := postJSON(newChatRouter(d, nil), "/api/chat/stream", `{"user":"alice","password":"pw","model":"m","dialog":"hi"}`)

		frames := readFrames(t, w.Body.String())
		require.Len(t, frames, 2)
		assert.Equal(t, "partial", frames[0].Content)
		last := frames[1]
		assert.True(t, last.Done)
		require.NotNil(t, last.Success)
		assert.False(t, *last.Success)
		assert.Equal(t, "rate_limit", last.ErrorType)
		assert.NotEmpty(t, last.Msg)
	})

	t.Run("参数错误也只有一个终止帧", func(t *testing.T) {
		d := &mockDispatcher{}
		w := postJSON(newChatRouter(d, nil), "/api/chat/stream", `{"user":"alice","password":"pw","dialog":"hi"}`)

		frames := readFrames(t, w.Body.String())
		require.Len(t, frames, 1)
		assert.True(t, frames[0].Done)
		assert.Equal(t, "invalid_param", frames[0].ErrorType)
		assert.Equal(t, 0, d.calls)
	})
}

func TestChatHandler_Image(t *testing.T) {
	var got *dto.ImageRequest
	d := &mockDispatcher{ImageFunc: func(ctx context.Context, user *models.User, req *dto.ImageRequest) (*dto.ImageResult, error) {
		got = req
		return &dto.ImageResult{ImageURLs: []string{"https://img/1.png", "https://img/2.png"}, DialogID: 4}, nil
	}}
	w := postJSON(newChatRouter(d, nil), "/api/image",
		`{"user":"alice","password":"pw","model":"dall-e-3","dialog":"a cat","n":2,"size":"512x512","image_url":"/uploads/a.png?token=t"}`)

	var resp dto.ImageResultResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, []string{"https://img/1.png", "https://img/2.png"}, resp.ImageURLs)
	assert.Equal(t, "https://img/1.png\nhttps://img/2.png", resp.Content)

	require.NotNil(t, got)
	assert.Equal(t, "a cat", got.Prompt)
	assert.Equal(t, 2, got.N)
	assert.Equal(t, "512x512", got.Size)
	assert.Equal(t, "/uploads/a.png?token=t", got.ImageURL)
}

func TestChatHandler_TestLimit(t *testing.T) {
	d := &mockDispatcher{ChatFunc: func(ctx context.Context, user *models.User, req *dto.ChatRequest) (*dto.ChatResult, error) {
		return &dto.ChatResult{Content: "ok"}, nil
	}}
	var seenIP string
	guard := &mockGuard{GuardFunc: func(username, ip string) error {
		seenIP = ip
		return errs.TestLimitExceeded(20)
	}}
	r := newChatRouter(d, guard)

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"user":"alice","password":"pw","model":"m","dialog":"hi"}`))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "192.168.1.7:5555"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	resp := decode(t, w)
	assert.False(t, resp.Success)
	assert.Equal(t, "rate_limit", resp.ErrorType)
	assert.Contains(t, resp.Msg, "20")
	assert.Equal(t, "192.168.1.7", seenIP)
	assert.Equal(t, 0, d.calls)
}

func TestChatHandler_StreamRejected(t *testing.T) {
	d := &mockDispatcher{}
	h := NewChatHandler(d, logger.Discard())
	guard := &mockGuard{GuardFunc: func(username, ip string) error {
		return errs.TestLimitExceeded(0)
	}}
	verifier := verifierFunc(func(username, password, role string) (*models.User, error) {
		if password != "pw" {
			return nil, errs.ErrWrongPassword
		}
		return &models.User{ID: 1, Username: username, Role: models.RoleUser}, nil
	})

	r := gin.New()
	r.Use(middleware.Locale())
	r.POST("/api/chat/stream",
		middleware.WithAbortWriter(h.StreamAbort),
		middleware.AuthGate(verifier, ""),
		middleware.TestLimit(guard),
		h.Stream,
	)

	tests := []struct {
		name    string
		body    string
		errType string
	}{
		{"超过测试上限", `{"user":"test","password":"pw","model":"m","dialog":"hi"}`, "rate_limit"},
		{"密码错误", `{"user":"test","password":"nope","model":"m","dialog":"hi"}`, "unauthorized"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(r, "/api/chat/stream", tt.body)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
			frames := readFrames(t, w.Body.String())
			require.Len(t, frames, 1)
			assert.True(t, frames[0].Done)
			require.NotNil(t, frames[0].Success)
			assert.False(t, *frames[0].Success)
			assert.Equal(t, tt.errType, frames[0].ErrorType)
			assert.NotEmpty(t, frames[0].Msg)
		})
	}
	assert.Equal(t, 0, d.calls)
}
