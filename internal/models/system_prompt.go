package models

// SystemPrompt 系统提示词预设，(role_name, role_group) 唯一
type SystemPrompt struct {
	ID          uint   `gorm:"primarykey" json:"id"`
	RoleName    string `gorm:"size:100;not null;uniqueIndex:idx_role_name_group,priority:1" json:"role_name"`
	RoleGroup   string `gorm:"size:100;not null;uniqueIndex:idx_role_name_group,priority:2" json:"role_group"`
	RoleDesc    string `gorm:"type:text" json:"role_desc"`
	RoleContent string `gorm:"type:text;not null" json:"role_content"`
	StatusValid bool   `gorm:"not null" json:"status_valid"`
}

// TableName 指定表名
func (SystemPrompt) TableName() string {
	return "system_prompts"
}
