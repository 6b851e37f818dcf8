package handler

import (
	"chat-gateway/internal/service"
	"chat-gateway/internal/utils"

	"github.com/gin-gonic/gin"
)

// ModelHandler 模型目录和提示词处理器
type ModelHandler struct {
	catalog *service.CatalogService
	prompts *service.PromptService
}

// NewModelHandler 创建模型处理器
func NewModelHandler(catalog *service.CatalogService, prompts *service.PromptService) *ModelHandler {
	return &ModelHandler{catalog: catalog, prompts: prompts}
}

// GetModels 获取可用模型列表，上游不可用时返回空列表
// @Summary 模型列表
// @Tags 模型
// @Success 200 {object} utils.Response{data=[]dto.ModelOption}
// @Router /api/models [post]
func (h *ModelHandler) GetModels(c *gin.Context) {
	utils.SuccessResponse(c, h.catalog.ListModels(c.Request.Context()))
}

// GetGroupedModels 按厂商分组的模型列表
func (h *ModelHandler) GetGroupedModels(c *gin.Context) {
	utils.SuccessResponse(c, h.catalog.Grouped(c.Request.Context()))
}

// GetSystemPrompts 按分组返回有效的系统提示词
func (h *ModelHandler) GetSystemPrompts(c *gin.Context) {
	presets, err := h.prompts.Presets()
	if err != nil {
		utils.ErrorResponse(c, err)
		return
	}
	utils.SuccessResponse(c, presets)
}
