package handler

import (
	"chat-gateway/internal/dto"
	"chat-gateway/internal/i18n"
	"chat-gateway/internal/service"
	"chat-gateway/internal/utils"

	"github.com/gin-gonic/gin"
)

// AdminHandler 管理员处理器，覆盖五张表的增删改查。
// 管理员凭据占用 user/password 参数，被管理的用户使用 username/new_password。
type AdminHandler struct {
	catalog       *service.CatalogService
	prompts       *service.PromptService
	limits        *service.LimitService
	users         *service.UserService
	notifications *service.NotificationService
}

// NewAdminHandler 创建管理员处理器
func NewAdminHandler(
	catalog *service.CatalogService,
	prompts *service.PromptService,
	limits *service.LimitService,
	users *service.UserService,
	notifications *service.NotificationService,
) *AdminHandler {
	return &AdminHandler{
		catalog:       catalog,
		prompts:       prompts,
		limits:        limits,
		users:         users,
		notifications: notifications,
	}
}

// WithParams 解析请求参数后调用 fn，任一步出错都写错误响应
func WithParams(fn func(c *gin.Context, p *utils.RequestParams) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := utils.GetParams(c)
		if err == nil {
			err = fn(c, p)
		}
		if err != nil {
			utils.ErrorResponse(c, err)
		}
	}
}

func boolDefault(p *utils.RequestParams, key string, def bool) bool {
	if p.Get(key) == "" {
		return def
	}
	return p.Bool(key)
}

func deleted(c *gin.Context, id uint) {
	utils.SuccessWithMessage(c, i18n.MsgDeleted, map[string]interface{}{"Count": 1}, gin.H{"id": id})
}

// ---------- model_meta ----------

// ListModelMeta 模型元数据列表
// @Summary 模型元数据列表
// @Tags 管理
// @Param recommend query bool false "是否推荐"
// @Param status_valid query bool false "是否有效"
// @Success 200 {object} utils.Response{data=utils.ListData}
// @Router /api/admin/model_meta/list [get]
func (h *AdminHandler) ListModelMeta(c *gin.Context, p *utils.RequestParams) error {
	modelType, err := optionalInt(p, "model_type")
	if err != nil {
		return err
	}
	items, total, err := h.catalog.ListMeta(dto.ModelMetaFilter{
		Recommend:   optionalBool(p, "recommend"),
		StatusValid: optionalBool(p, "status_valid"),
		ModelType:   modelType,
	})
	if err != nil {
		return err
	}
	utils.ListResponse(c, items, total)
	return nil
}

// GetModelMeta 获取模型元数据
func (h *AdminHandler) GetModelMeta(c *gin.Context, p *utils.RequestParams) error {
	id, err := requireID(c, p)
	if err != nil {
		return err
	}
	meta, err := h.catalog.GetMeta(id)
	if err != nil {
		return err
	}
	utils.SuccessResponse(c, meta)
	return nil
}

// CreateModelMeta 创建模型元数据
func (h *AdminHandler) CreateModelMeta(c *gin.Context, p *utils.RequestParams) error {
	modelType, err := p.Int("model_type", 0)
	if err != nil {
		return err
	}
	meta, err := h.catalog.CreateMeta(&dto.CreateModelMetaRequest{
		ModelName:   p.Get("model_name"),
		ModelDesc:   p.Get("model_desc"),
		ModelType:   modelType,
		Recommend:   p.Bool("recommend"),
		StatusValid: boolDefault(p, "status_valid", true),
		ModelGroup:  p.Get("model_group"),
	})
	if err != nil {
		return err
	}
	utils.SuccessWithMessage(c, i18n.MsgCreated, nil, meta)
	return nil
}

// UpdateModelMeta 部分更新模型元数据
func (h *AdminHandler) UpdateModelMeta(c *gin.Context, p *utils.RequestParams) error {
	id, err := requireID(c, p)
	if err != nil {
		return err
	}
	modelType, err := p.IntPtr("model_type")
	if err != nil {
		return err
	}
	meta, err := h.catalog.UpdateMeta(id, &dto.UpdateModelMetaRequest{
		ModelName:   p.StringPtr("model_name"),
		ModelDesc:   p.StringPtr("model_desc"),
		ModelType:   modelType,
		Recommend:   p.BoolPtr("recommend"),
		StatusValid: p.BoolPtr("status_valid"),
		ModelGroup:  p.StringPtr("model_group"),
	})
	if err != nil {
		return err
	}
	utils.SuccessWithMessage(c, i18n.MsgUpdated, nil, meta)
	return nil
}

// DeleteModelMeta 删除模型元数据
func (h *AdminHandler) DeleteModelMeta(c *gin.Context, p *utils.RequestParams) error {
	id, err := requireID(c, p)
	if err != nil {
		return err
	}
	if err := h.catalog.DeleteMeta(id); err != nil {
		return err
	}
	deleted(c, id)
	return nil
}

// SyncModelMeta 为上游新出现的模型补齐元数据
func (h *AdminHandler) SyncModelMeta(c *gin.Context) {
	created, err := h.catalog.SyncMeta(c.Request.Context())
	if err != nil {
		utils.ErrorResponse(c, err)
		return
	}
	utils.SuccessWithMessage(c, i18n.MsgSynced, map[string]interface{}{"Count": created}, gin.H{"created": created})
}

// ---------- system_prompt ----------

// ListSystemPrompts 提示词列表
func (h *AdminHandler) ListSystemPrompts(c *gin.Context, p *utils.RequestParams) error {
	items, total, err := h.prompts.List(dto.SystemPromptFilter{
		RoleGroup:   p.Get("role_group"),
		StatusValid: optionalBool(p, "status_valid"),
	})
	if err != nil {
		return err
	}
	utils.ListResponse(c, items, total)
	return nil
}

// GetSystemPrompt 获取提示词
func (h *AdminHandler) GetSystemPrompt(c *gin.Context, p *utils.RequestParams) error {
	id, err := requireID(c, p)
	if err != nil {
		return err
	}
	prompt, err := h.prompts.Get(id)
	if err != nil {
		return err
	}
	utils.SuccessResponse(c, prompt)
	return nil
}

// CreateSystemPrompt 创建提示词
func (h *AdminHandler) CreateSystemPrompt(c *gin.Context, p *utils.RequestParams) error {
	prompt, err := h.prompts.Create(&dto.CreateSystemPromptRequest{
		RoleName:    p.Get("role_name"),
		RoleGroup:   p.Get("role_group"),
		RoleDesc:    p.Get("role_desc"),
		RoleContent: p.Raw("role_content"),
		StatusValid: boolDefault(p, "status_valid", true),
	})
	if err != nil {
		return err
	}
	utils.SuccessWithMessage(c, i18n.MsgCreated, nil, prompt)
	return nil
}

// UpdateSystemPrompt 部分更新提示词
func (h *AdminHandler) UpdateSystemPrompt(c *gin.Context, p *utils.RequestParams) error {
	id, err := requireID(c, p)
	if err != nil {
		return err
	}
	var content *string
	if p.Has("role_content") {
		raw := p.Raw("role_content")
		content = &raw
	}
	prompt, err := h.prompts.Update(id, &dto.UpdateSystemPromptRequest{
		RoleName:    p.StringPtr("role_name"),
		RoleGroup:   p.StringPtr("role_group"),
		RoleDesc:    p.StringPtr("role_desc"),
		RoleContent: content,
		StatusValid: p.BoolPtr("status_valid"),
	})
	if err != nil {
		return err
	}
	utils.SuccessWithMessage(c, i18n.MsgUpdated, nil, prompt)
	return nil
}

// DeleteSystemPrompt 删除提示词
func (h *AdminHandler) DeleteSystemPrompt(c *gin.Context, p *utils.RequestParams) error {
	id, err := requireID(c, p)
	if err != nil {
		return err
	}
	if err := h.prompts.Delete(id); err != nil {
		return err
	}
	deleted(c, id)
	return nil
}

// ---------- test_limit ----------

// ListTestLimits IP限制列表，user_ip 为模糊匹配
func (h *AdminHandler) ListTestLimits(c *gin.Context, p *utils.RequestParams) error {
	items, total, err := h.limits.List(p.Get("user_ip"))
	if err != nil {
		return err
	}
	utils.ListResponse(c, items, total)
	return nil
}

// GetTestLimit 获取IP限制
func (h *AdminHandler) GetTestLimit(c *gin.Context, p *utils.RequestParams) error {
	id, err := requireID(c, p)
	if err != nil {
		return err
	}
	limit, err := h.limits.Get(id)
	if err != nil {
		return err
	}
	utils.SuccessResponse(c, limit)
	return nil
}

// CreateTestLimit 创建IP限制
func (h *AdminHandler) CreateTestLimit(c *gin.Context, p *utils.RequestParams) error {
	count, err := p.Int("user_count", 0)
	if err != nil {
		return err
	}
	ceiling, err := p.Int("limit", h.limits.DefaultLimit())
	if err != nil {
		return err
	}
	limit, err := h.limits.Create(&dto.CreateTestLimitRequest{
		UserIP:    p.Get("user_ip"),
		UserCount: count,
		Limit:     ceiling,
	})
	if err != nil {
		return err
	}
	utils.SuccessWithMessage(c, i18n.MsgCreated, nil, limit)
	return nil
}

// UpdateTestLimit 部分更新IP限制
func (h *AdminHandler) UpdateTestLimit(c *gin.Context, p *utils.RequestParams) error {
	id, err := requireID(c, p)
	if err != nil {
		return err
	}
	count, err := p.IntPtr("user_count")
	if err != nil {
		return err
	}
	ceiling, err := p.IntPtr("limit")
	if err != nil {
		return err
	}
	limit, err := h.limits.Update(id, &dto.UpdateTestLimitRequest{
		UserIP:    p.StringPtr("user_ip"),
		UserCount: count,
		Limit:     ceiling,
	})
	if err != nil {
		return err
	}
	utils.SuccessWithMessage(c, i18n.MsgUpdated, nil, limit)
	return nil
}

// DeleteTestLimit 删除IP限制
func (h *AdminHandler) DeleteTestLimit(c *gin.Context, p *utils.RequestParams) error {
	id, err := requireID(c, p)
	if err != nil {
		return err
	}
	if err := h.limits.Delete(id); err != nil {
		return err
	}
	deleted(c, id)
	return nil
}

// ResetTestLimits 计数清零，id、user_ip、reset_all 三选一
func (h *AdminHandler) ResetTestLimits(c *gin.Context, p *utils.RequestParams) error {
	id, err := optionalID(p, "id")
	if err != nil {
		return err
	}
	req := &dto.ResetTestLimitRequest{
		UserIP:   p.Get("user_ip"),
		ResetAll: p.Bool("reset_all"),
	}
	if id != nil {
		req.ID = *id
	}
	n, err := h.limits.Reset(req)
	if err != nil {
		return err
	}
	utils.SuccessWithMessage(c, i18n.MsgReset, map[string]interface{}{"Count": n}, gin.H{"reset": n})
	return nil
}

// ---------- user ----------

// ListUsers 用户列表，不含密码哈希和盐
func (h *AdminHandler) ListUsers(c *gin.Context, p *utils.RequestParams) error {
	items, total, err := h.users.List(dto.UserFilter{
		Role:     p.Get("role"),
		IsActive: optionalBool(p, "is_active"),
	})
	if err != nil {
		return err
	}
	utils.ListResponse(c, items, total)
	return nil
}

// GetUser 获取用户
func (h *AdminHandler) GetUser(c *gin.Context, p *utils.RequestParams) error {
	id, err := requireID(c, p)
	if err != nil {
		return err
	}
	user, err := h.users.Get(id)
	if err != nil {
		return err
	}
	utils.SuccessResponse(c, user)
	return nil
}

// CreateUser 创建用户
func (h *AdminHandler) CreateUser(c *gin.Context, p *utils.RequestParams) error {
	user, err := h.users.Create(&dto.CreateUserRequest{
		Username: p.Get("username"),
		Password: p.Raw("new_password"),
		APIKey:   p.StringPtr("api_key"),
		Role:     p.Get("role"),
		IsActive: boolDefault(p, "is_active", true),
	})
	if err != nil {
		return err
	}
	utils.SuccessWithMessage(c, i18n.MsgCreated, nil, user)
	return nil
}

// UpdateUser 部分更新用户，new_password 非空时重置密码
func (h *AdminHandler) UpdateUser(c *gin.Context, p *utils.RequestParams) error {
	id, err := requireID(c, p)
	if err != nil {
		return err
	}
	var password *string
	if raw := p.Raw("new_password"); raw != "" {
		password = &raw
	}
	user, err := h.users.Update(id, &dto.UpdateUserRequest{
		Password: password,
		APIKey:   p.StringPtr("api_key"),
		Role:     p.StringPtr("role"),
		IsActive: p.BoolPtr("is_active"),
	})
	if err != nil {
		return err
	}
	utils.SuccessWithMessage(c, i18n.MsgUpdated, nil, user)
	return nil
}

// DeleteUser 默认停用，hard_delete=true 时删除记录
func (h *AdminHandler) DeleteUser(c *gin.Context, p *utils.RequestParams) error {
	id, err := requireID(c, p)
	if err != nil {
		return err
	}
	if err := h.users.Delete(id, p.Bool("hard_delete")); err != nil {
		return err
	}
	deleted(c, id)
	return nil
}

// ---------- notification ----------

// ListNotifications 公告列表
func (h *AdminHandler) ListNotifications(c *gin.Context, p *utils.RequestParams) error {
	limit, err := p.Int("limit", 0)
	if err != nil {
		return err
	}
	offset, err := p.Int("offset", 0)
	if err != nil {
		return err
	}
	items, total, err := h.notifications.List(dto.NotificationFilter{
		Status: p.Get("status"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return err
	}
	utils.ListResponse(c, items, total)
	return nil
}

// GetNotification 获取公告
func (h *AdminHandler) GetNotification(c *gin.Context, p *utils.RequestParams) error {
	id, err := requireID(c, p)
	if err != nil {
		return err
	}
	n, err := h.notifications.Get(id)
	if err != nil {
		return err
	}
	utils.SuccessResponse(c, n)
	return nil
}

// CreateNotification 创建公告，publish_time 缺省为当前时间
func (h *AdminHandler) CreateNotification(c *gin.Context, p *utils.RequestParams) error {
	publishTime, err := optionalTime(p, "publish_time")
	if err != nil {
		return err
	}
	priority, err := p.Int("priority", 0)
	if err != nil {
		return err
	}
	n, err := h.notifications.Create(&dto.CreateNotificationRequest{
		Title:       p.Get("title"),
		Content:     p.Raw("content"),
		PublishTime: publishTime,
		Status:      p.Get("status"),
		Priority:    priority,
	})
	if err != nil {
		return err
	}
	utils.SuccessWithMessage(c, i18n.MsgCreated, nil, n)
	return nil
}

// UpdateNotification 部分更新公告
func (h *AdminHandler) UpdateNotification(c *gin.Context, p *utils.RequestParams) error {
	id, err := requireID(c, p)
	if err != nil {
		return err
	}
	publishTime, err := optionalTime(p, "publish_time")
	if err != nil {
		return err
	}
	priority, err := p.IntPtr("priority")
	if err != nil {
		return err
	}
	var content *string
	if p.Has("content") {
		raw := p.Raw("content")
		content = &raw
	}
	n, err := h.notifications.Update(id, &dto.UpdateNotificationRequest{
		Title:       p.StringPtr("title"),
		Content:     content,
		PublishTime: publishTime,
		Status:      p.StringPtr("status"),
		Priority:    priority,
	})
	if err != nil {
		return err
	}
	utils.SuccessWithMessage(c, i18n.MsgUpdated, nil, n)
	return nil
}

// DeleteNotification 删除公告
func (h *AdminHandler) DeleteNotification(c *gin.Context, p *utils.RequestParams) error {
	id, err := requireID(c, p)
	if err != nil {
		return err
	}
	if err := h.notifications.Delete(id); err != nil {
		return err
	}
	deleted(c, id)
	return nil
}
