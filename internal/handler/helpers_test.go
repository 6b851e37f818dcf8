package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"chat-gateway/internal/errs"
	"chat-gateway/internal/models"
	"chat-gateway/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// verifierFunc 函数形式的凭据校验
type verifierFunc func(username, password, role string) (*models.User, error)

func (f verifierFunc) Verify(username, password, role string) (*models.User, error) {
	return f(username, password, role)
}

// staticVerifier 只放行指定用户，密码不校验
func staticVerifier(username, role string) verifierFunc {
	return func(u, _, required string) (*models.User, error) {
		if u != username || (required != "" && required != role) {
			return nil, errs.ErrUserNotFound
		}
		return &models.User{ID: 1, Username: username, Role: role, IsActive: true}, nil
	}
}

func postJSON(r http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func get(r http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) utils.Response {
	t.Helper()
	var resp utils.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

// decodeData 将 data 字段解到 out
func decodeData(t *testing.T, w *httptest.ResponseRecorder, out interface{}) utils.Response {
	t.Helper()
	var resp struct {
		utils.Response
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	if out != nil && len(resp.Data) > 0 {
		require.NoError(t, json.Unmarshal(resp.Data, out))
	}
	return resp.Response
}
