package dto

// LoginResponse 登录响应
type LoginResponse struct {
	Username  string `json:"username"`
	Role      string `json:"role"`
	HasAPIKey bool   `json:"has_api_key"`
}

// ChangePasswordRequest 修改密码请求
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6,max=128"`
}
