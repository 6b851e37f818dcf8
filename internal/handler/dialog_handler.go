package handler

import (
	"chat-gateway/internal/errs"
	"chat-gateway/internal/i18n"
	"chat-gateway/internal/middleware"
	"chat-gateway/internal/service"
	"chat-gateway/internal/utils"

	"github.com/gin-gonic/gin"
)

// DialogHandler 历史对话和用量处理器
type DialogHandler struct {
	history *service.HistoryService
}

// NewDialogHandler 创建历史对话处理器
func NewDialogHandler(history *service.HistoryService) *DialogHandler {
	return &DialogHandler{history: history}
}

// List 最近的历史对话
// @Summary 历史对话列表
// @Tags 历史
// @Param since formData string false "起始日期 2006-01-02"
// @Param chat_type formData string false "chat 或 image"
// @Success 200 {object} utils.Response{data=utils.ListData}
// @Router /api/dialogs/list [post]
func (h *DialogHandler) List(c *gin.Context) {
	username, _ := middleware.GetUsername(c)
	p, err := utils.GetParams(c)
	if err != nil {
		utils.ErrorResponse(c, err)
		return
	}

	items, err := h.history.ListRecent(username, p.Get("since"), p.Get("chat_type"), p.Get("model"))
	if err != nil {
		utils.ErrorResponse(c, err)
		return
	}
	utils.ListResponse(c, items, int64(len(items)))
}

// Get 单个对话的完整上下文
func (h *DialogHandler) Get(c *gin.Context) {
	username, _ := middleware.GetUsername(c)
	p, err := utils.GetParams(c)
	if err != nil {
		utils.ErrorResponse(c, err)
		return
	}
	id, err := requireID(c, p)
	if err != nil {
		utils.ErrorResponse(c, err)
		return
	}

	detail, err := h.history.GetContext(username, id)
	if err != nil {
		utils.ErrorResponse(c, err)
		return
	}
	utils.SuccessResponse(c, detail)
}

// Rename 修改对话标题
func (h *DialogHandler) Rename(c *gin.Context) {
	username, _ := middleware.GetUsername(c)
	p, err := utils.GetParams(c)
	if err != nil {
		utils.ErrorResponse(c, err)
		return
	}
	id, err := requireID(c, p)
	if err != nil {
		utils.ErrorResponse(c, err)
		return
	}

	ok, err := h.history.Rename(username, id, p.Get("title"))
	if err != nil {
		utils.ErrorResponse(c, err)
		return
	}
	if !ok {
		utils.ErrorResponse(c, errs.ErrNotFound)
		return
	}
	utils.SuccessWithMessage(c, i18n.MsgRenamed, nil, gin.H{"id": id})
}

// Delete 删除对话，ids 支持数组或逗号分隔，也可只传 id
func (h *DialogHandler) Delete(c *gin.Context) {
	username, _ := middleware.GetUsername(c)
	p, err := utils.GetParams(c)
	if err != nil {
		utils.ErrorResponse(c, err)
		return
	}

	ids, err := p.UintList("ids")
	if err != nil {
		utils.ErrorResponse(c, err)
		return
	}
	if len(ids) == 0 && p.Get("id") != "" {
		id, err := requireID(c, p)
		if err != nil {
			utils.ErrorResponse(c, err)
			return
		}
		ids = []uint{id}
	}

	count, err := h.history.Delete(username, ids)
	if err != nil {
		utils.ErrorResponse(c, err)
		return
	}
	utils.SuccessWithMessage(c, i18n.MsgDeleted, map[string]interface{}{"Count": count}, gin.H{"deleted": count})
}

// Usage 按模型汇总的调用次数和用量
func (h *DialogHandler) Usage(c *gin.Context) {
	username, _ := middleware.GetUsername(c)
	p, err := utils.GetParams(c)
	if err != nil {
		utils.ErrorResponse(c, err)
		return
	}

	summary, err := h.history.UsageSummary(username, p.Get("since"))
	if err != nil {
		utils.ErrorResponse(c, err)
		return
	}
	utils.SuccessResponse(c, summary)
}
