package handler

import (
	"context"
	"encoding/json"
	"testing"

	"chat-gateway/internal/config"
	"chat-gateway/internal/middleware"
	"chat-gateway/internal/models"
	"chat-gateway/internal/repository"
	"chat-gateway/internal/service"
	"chat-gateway/internal/testutil"
	"chat-gateway/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// listerFunc 函数形式的上游模型列表
type listerFunc func(ctx context.Context) ([]string, error)

func (f listerFunc) ListModels(ctx context.Context) ([]string, error) {
	return f(ctx)
}

func newAdminRouter(t *testing.T, upstreamIDs []string) (*gin.Engine, *gorm.DB) {
	t.Helper()
	db := testutil.NewTestDB(t)
	log := logger.Discard()

	lister := listerFunc(func(ctx context.Context) ([]string, error) { return upstreamIDs, nil })
	catalog := service.NewCatalogService(lister, repository.NewModelMetaRepository(db), config.CatalogConfig{TTL: 60}, log)
	h := NewAdminHandler(
		catalog,
		service.NewPromptService(repository.NewSystemPromptRepository(db)),
		service.NewLimitService(repository.NewTestLimitRepository(db), config.TestUserConfig{Username: "test", Limit: 20}, log),
		service.NewUserService(repository.NewUserRepository(db), log),
		service.NewNotificationService(repository.NewNotificationRepository(db)),
	)

	r := gin.New()
	r.Use(middleware.Locale())
	admin := r.Group("/api/admin", middleware.AdminGate(staticVerifier("root", models.RoleAdmin)))
	admin.GET("/model_meta/list", WithParams(h.ListModelMeta))
	admin.GET("/model_meta/get/:id", WithParams(h.GetModelMeta))
	admin.POST("/model_meta/create", WithParams(h.CreateModelMeta))
	admin.POST("/model_meta/update", WithParams(h.UpdateModelMeta))
	admin.POST("/model_meta/delete", WithParams(h.DeleteModelMeta))
	admin.POST("/model_meta/sync", h.SyncModelMeta)
	admin.POST("/test_limit/create", WithParams(h.CreateTestLimit))
	admin.POST("/test_limit/reset", WithParams(h.ResetTestLimits))
	admin.GET("/test_limit/list", WithParams(h.ListTestLimits))
	admin.POST("/user/create", WithParams(h.CreateUser))
	admin.POST("/user/update", WithParams(h.UpdateUser))
	admin.POST("/user/delete", WithParams(h.DeleteUser))
	admin.GET("/user/list", WithParams(h.ListUsers))
	admin.GET("/user/get/:id", WithParams(h.GetUser))
	admin.POST("/notification/create", WithParams(h.CreateNotification))
	admin.GET("/notification/list", WithParams(h.ListNotifications))
	return r, db
}

const adminAuth = `"user":"root","password":"pw"`

func TestAdminHandler_ModelMeta(t *testing.T) {
	r, _ := newAdminRouter(t, []string{"gpt-4o", "gpt-4o-mini", "dall-e-3"})

	var created models.ModelMeta
	resp := decodeData(t, postJSON(r, "/api/admin/model_meta/create",
		`{`+adminAuth+`,"model_name":"gpt-4o","model_desc":"旗舰","recommend":true,"model_group":"openai"}`), &created)
	require.True(t, resp.Success, resp.Msg)
	assert.Equal(t, 1, created.ModelType)
	assert.True(t, created.StatusValid)

	resp = decode(t, postJSON(r, "/api/admin/model_meta/create", `{`+adminAuth+`,"model_name":"gpt-4o"}`))
	assert.False(t, resp.Success)
	assert.Equal(t, "already_exists", resp.ErrorType)

	resp = decode(t, postJSON(r, "/api/admin/model_meta/create", `{`+adminAuth+`}`))
	assert.Equal(t, "invalid_param", resp.ErrorType)

	// 只修改出现的字段
	var updated models.ModelMeta
	resp = decodeData(t, postJSON(r, "/api/admin/model_meta/update",
		`{`+adminAuth+`,"id":`+jsonID(created.ID)+`,"status_valid":false}`), &updated)
	require.True(t, resp.Success, resp.Msg)
	assert.False(t, updated.StatusValid)
	assert.True(t, updated.Recommend)
	assert.Equal(t, "旗舰", updated.ModelDesc)

	var synced struct {
		Created int `json:"created"`
	}
	resp = decodeData(t, postJSON(r, "/api/admin/model_meta/sync", `{`+adminAuth+`}`), &synced)
	require.True(t, resp.Success, resp.Msg)
	assert.Equal(t, 2, synced.Created)

	var list struct {
		Items []models.ModelMeta `json:"items"`
		Total int64              `json:"total"`
	}
	decodeData(t, get(r, "/api/admin/model_meta/list?user=root&password=pw&status_valid=true"), &list)
	assert.Equal(t, int64(2), list.Total)

	resp = decode(t, postJSON(r, "/api/admin/model_meta/delete", `{`+adminAuth+`,"id":`+jsonID(created.ID)+`}`))
	require.True(t, resp.Success)
	resp = decode(t, get(r, "/api/admin/model_meta/get/"+jsonID(created.ID)+"?user=root&password=pw"))
	assert.Equal(t, "not_found", resp.ErrorType)

	resp = decode(t, postJSON(r, "/api/admin/model_meta/delete", `{`+adminAuth+`}`))
	assert.Equal(t, "invalid_param", resp.ErrorType)
}

func TestAdminHandler_Users(t *testing.T) {
	r, db := newAdminRouter(t, nil)

	var created map[string]interface{}
	resp := decodeData(t, postJSON(r, "/api/admin/user/create",
		`{`+adminAuth+`,"username":"bob","new_password":"secret1","api_key":"sk-bob"}`), &created)
	require.True(t, resp.Success, resp.Msg)
	assert.Equal(t, "bob", created["username"])
	assert.NotContains(t, created, "password_hash")
	assert.NotContains(t, created, "salt")
	id := uint(created["id"].(float64))

	resp = decode(t, postJSON(r, "/api/admin/user/create", `{`+adminAuth+`,"username":"bob","new_password":"secret1"}`))
	assert.Equal(t, "already_exists", resp.ErrorType)

	resp = decode(t, postJSON(r, "/api/admin/user/update", `{`+adminAuth+`,"id":`+jsonID(id)+`,"role":"admin"}`))
	require.True(t, resp.Success, resp.Msg)

	resp = decode(t, postJSON(r, "/api/admin/user/delete", `{`+adminAuth+`,"id":`+jsonID(id)+`}`))
	require.True(t, resp.Success)
	var user models.User
	require.NoError(t, db.First(&user, id).Error)
	assert.False(t, user.IsActive)

	resp = decode(t, postJSON(r, "/api/admin/user/delete", `{`+adminAuth+`,"id":`+jsonID(id)+`,"hard_delete":true}`))
	require.True(t, resp.Success)
	resp = decode(t, get(r, "/api/admin/user/get/"+jsonID(id)+"?user=root&password=pw"))
	assert.Equal(t, "not_found", resp.ErrorType)
}

func TestAdminHandler_TestLimits(t *testing.T) {
	r, db := newAdminRouter(t, nil)

	var rec models.TestLimit
	resp := decodeData(t, postJSON(r, "/api/admin/test_limit/create", `{`+adminAuth+`,"user_ip":"10.0.0.1","user_count":5}`), &rec)
	require.True(t, resp.Success, resp.Msg)
	assert.Equal(t, 20, rec.UserLimit)

	resp = decode(t, postJSON(r, "/api/admin/test_limit/create", `{`+adminAuth+`,"user_ip":"not-an-ip"}`))
	assert.Equal(t, "invalid_param", resp.ErrorType)

	resp = decode(t, postJSON(r, "/api/admin/test_limit/reset", `{`+adminAuth+`}`))
	assert.Equal(t, "invalid_param", resp.ErrorType)

	var reset struct {
		Reset int64 `json:"reset"`
	}
	resp = decodeData(t, postJSON(r, "/api/admin/test_limit/reset", `{`+adminAuth+`,"user_ip":"10.0.0.1"}`), &reset)
	require.True(t, resp.Success, resp.Msg)
	assert.Equal(t, int64(1), reset.Reset)

	require.NoError(t, db.First(&rec, rec.ID).Error)
	assert.Equal(t, 0, rec.UserCount)
}

func TestAdminHandler_Notifications(t *testing.T) {
	r, _ := newAdminRouter(t, nil)

	resp := decode(t, postJSON(r, "/api/admin/notification/create",
		`{`+adminAuth+`,"title":"维护","content":"**今晚**","publish_time":"2024-05-01 08:00:00","priority":3}`))
	require.True(t, resp.Success, resp.Msg)

	resp = decode(t, postJSON(r, "/api/admin/notification/create", `{`+adminAuth+`,"title":"x","publish_time":"yesterday"}`))
	assert.Equal(t, "invalid_param", resp.ErrorType)

	var list struct {
		Items []models.Notification `json:"items"`
		Total int64                 `json:"total"`
	}
	decodeData(t, get(r, "/api/admin/notification/list?user=root&password=pw&status=active"), &list)
	require.Len(t, list.Items, 1)
	assert.Equal(t, 3, list.Items[0].Priority)
}

func TestAdminHandler_RequiresAdmin(t *testing.T) {
	r, _ := newAdminRouter(t, nil)
	resp := decode(t, get(r, "/api/admin/user/list?user=alice&password=pw"))
	assert.False(t, resp.Success)
	assert.Equal(t, "unauthorized", resp.ErrorType)
}

func jsonID(id uint) string {
	b, _ := json.Marshal(id)
	return string(b)
}
