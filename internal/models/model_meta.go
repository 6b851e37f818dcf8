package models

const (
	ModelTypeText  = 1
	ModelTypeImage = 2
)

// ModelMeta 本地维护的模型元数据
type ModelMeta struct {
	ID          uint   `gorm:"primarykey" json:"id"`
	ModelName   string `gorm:"uniqueIndex;size:100;not null" json:"model_name"`
	ModelDesc   string `gorm:"type:text" json:"model_desc"`
	ModelType   int    `gorm:"not null;default:1" json:"model_type"`
	Recommend   bool   `gorm:"not null" json:"recommend"`
	StatusValid bool   `gorm:"not null" json:"status_valid"`
	ModelGroup  string `gorm:"size:50" json:"model_group"`
}

// TableName 指定表名
func (ModelMeta) TableName() string {
	return "model_meta"
}
