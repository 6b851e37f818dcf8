package handler

import (
	"chat-gateway/internal/service"
	"chat-gateway/internal/utils"

	"github.com/gin-gonic/gin"
)

// NotificationHandler 公告处理器
type NotificationHandler struct {
	notifications *service.NotificationService
}

// NewNotificationHandler 创建公告处理器
func NewNotificationHandler(notifications *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// Active 当前生效的公告
// @Summary 生效公告
// @Tags 公告
// @Param limit query int false "数量，默认10"
// @Success 200 {object} utils.Response{data=[]dto.NotificationView}
// @Router /api/notifications/active [get]
func (h *NotificationHandler) Active(c *gin.Context) {
	p, err := utils.GetParams(c)
	if err != nil {
		utils.ErrorResponse(c, err)
		return
	}
	limit, err := p.Int("limit", 10)
	if err != nil {
		utils.ErrorResponse(c, err)
		return
	}

	views, err := h.notifications.Active(limit)
	if err != nil {
		utils.ErrorResponse(c, err)
		return
	}
	utils.SuccessResponse(c, views)
}
