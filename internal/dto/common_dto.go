package dto

import "time"

// DialogSummary 历史对话列表项
type DialogSummary struct {
	ID           uint   `json:"id"`
	Title        string `json:"title"`
	DisplayTitle string `json:"display_title"`
	ChatType     string `json:"chat_type"`
	ModelName    string `json:"model_name"`
	StartDate    string `json:"start_date"`
}

// DialogDetail 历史对话详情
type DialogDetail struct {
	DialogSummary
	Context []Message `json:"context"`
}

// ModelUsage 单个模型的用量
type ModelUsage struct {
	ModelName string `json:"model_name"`
	Calls     int64  `json:"calls"`
	Tokens    int64  `json:"tokens"`
}

// UsageSummary 用量汇总
type UsageSummary struct {
	Since       string       `json:"since"`
	TotalCalls  int64        `json:"total_calls"`
	TotalTokens int64        `json:"total_tokens"`
	Models      []ModelUsage `json:"models"`
}

// PromptPreset 公开的系统提示词
type PromptPreset struct {
	ID          uint   `json:"id"`
	RoleName    string `json:"role_name"`
	RoleDesc    string `json:"role_desc"`
	RoleContent string `json:"role_content"`
}

// NotificationView 公开的公告
type NotificationView struct {
	ID          uint      `json:"id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	ContentHTML string    `json:"content_html"`
	PublishTime time.Time `json:"publish_time"`
	Priority    int       `json:"priority"`
}

// UploadResponse 上传结果
type UploadResponse struct {
	Content  string `json:"content"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
}
