package dto

import "time"

// CreateModelMetaRequest 创建模型元数据请求
type CreateModelMetaRequest struct {
	ModelName   string `json:"model_name" validate:"required,max=100"`
	ModelDesc   string `json:"model_desc"`
	ModelType   int    `json:"model_type" validate:"oneof=1 2"`
	Recommend   bool   `json:"recommend"`
	StatusValid bool   `json:"status_valid"`
	ModelGroup  string `json:"model_group" validate:"max=50"`
}

// UpdateModelMetaRequest 更新模型元数据请求，nil 字段不修改
type UpdateModelMetaRequest struct {
	ModelName   *string `json:"model_name" validate:"omitempty,min=1,max=100"`
	ModelDesc   *string `json:"model_desc"`
	ModelType   *int    `json:"model_type" validate:"omitempty,oneof=1 2"`
	Recommend   *bool   `json:"recommend"`
	StatusValid *bool   `json:"status_valid"`
	ModelGroup  *string `json:"model_group" validate:"omitempty,max=50"`
}

// ModelMetaFilter 模型元数据列表过滤条件
type ModelMetaFilter struct {
	Recommend   *bool
	StatusValid *bool
	ModelType   *int
}

// CreateSystemPromptRequest 创建提示词请求
type CreateSystemPromptRequest struct {
	RoleName    string `json:"role_name" validate:"required,max=100"`
	RoleGroup   string `json:"role_group" validate:"required,max=100"`
	RoleDesc    string `json:"role_desc"`
	RoleContent string `json:"role_content" validate:"required"`
	StatusValid bool   `json:"status_valid"`
}

// UpdateSystemPromptRequest 更新提示词请求
type UpdateSystemPromptRequest struct {
	RoleName    *string `json:"role_name" validate:"omitempty,min=1,max=100"`
	RoleGroup   *string `json:"role_group" validate:"omitempty,min=1,max=100"`
	RoleDesc    *string `json:"role_desc"`
	RoleContent *string `json:"role_content" validate:"omitempty,min=1"`
	StatusValid *bool   `json:"status_valid"`
}

// SystemPromptFilter 提示词列表过滤条件
type SystemPromptFilter struct {
	RoleGroup   string
	StatusValid *bool
}

// CreateTestLimitRequest 创建IP限制请求
type CreateTestLimitRequest struct {
	UserIP    string `json:"user_ip" validate:"required,ip"`
	UserCount int    `json:"user_count" validate:"min=0"`
	Limit     int    `json:"limit" validate:"min=0"`
}

// UpdateTestLimitRequest 更新IP限制请求
type UpdateTestLimitRequest struct {
	UserIP    *string `json:"user_ip" validate:"omitempty,ip"`
	UserCount *int    `json:"user_count" validate:"omitempty,min=0"`
	Limit     *int    `json:"limit" validate:"omitempty,min=0"`
}

// ResetTestLimitRequest 重置计数请求，三者取其一
type ResetTestLimitRequest struct {
	ID       uint
	UserIP   string
	ResetAll bool
}

// CreateUserRequest 创建用户请求
type CreateUserRequest struct {
	Username string  `json:"username" validate:"required,username"`
	Password string  `json:"new_password" validate:"required,min=6,max=128"`
	APIKey   *string `json:"api_key"`
	Role     string  `json:"role" validate:"oneof=user admin"`
	IsActive bool    `json:"is_active"`
}

// UpdateUserRequest 更新用户请求
type UpdateUserRequest struct {
	Password *string `json:"new_password" validate:"omitempty,min=6,max=128"`
	APIKey   *string `json:"api_key"`
	Role     *string `json:"role" validate:"omitempty,oneof=user admin"`
	IsActive *bool   `json:"is_active"`
}

// UserFilter 用户列表过滤条件
type UserFilter struct {
	Role     string
	IsActive *bool
}

// CreateNotificationRequest 创建公告请求
type CreateNotificationRequest struct {
	Title       string     `json:"title" validate:"required,max=200"`
	Content     string     `json:"content"`
	PublishTime *time.Time `json:"publish_time"`
	Status      string     `json:"status" validate:"oneof=active inactive"`
	Priority    int        `json:"priority"`
}

// UpdateNotificationRequest 更新公告请求
type UpdateNotificationRequest struct {
	Title       *string    `json:"title" validate:"omitempty,min=1,max=200"`
	Content     *string    `json:"content"`
	PublishTime *time.Time `json:"publish_time"`
	Status      *string    `json:"status" validate:"omitempty,oneof=active inactive"`
	Priority    *int       `json:"priority"`
}

// NotificationFilter 公告列表过滤条件
type NotificationFilter struct {
	Status string
	Limit  int
	Offset int
}
