package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"chat-gateway/internal/dto"
	"chat-gateway/internal/errs"
	"chat-gateway/internal/i18n"
	"chat-gateway/internal/middleware"
	"chat-gateway/internal/models"
	"chat-gateway/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// ChatDispatcher 对话、流式对话和图片的调度
type ChatDispatcher interface {
	Chat(ctx context.Context, user *models.User, req *dto.ChatRequest) (*dto.ChatResult, error)
	Stream(ctx context.Context, user *models.User, req *dto.ChatRequest, onDelta func(string) error) (*dto.ChatResult, error)
	Image(ctx context.Context, user *models.User, req *dto.ImageRequest) (*dto.ImageResult, error)
}

// ChatHandler 对话处理器
type ChatHandler struct {
	dispatcher ChatDispatcher
	logger     *logrus.Logger
}

// NewChatHandler 创建对话处理器
func NewChatHandler(dispatcher ChatDispatcher, logger *logrus.Logger) *ChatHandler {
	return &ChatHandler{dispatcher: dispatcher, logger: logger}
}

// Chat 非流式对话
// @Summary 对话
// @Tags 对话
// @Param user formData string true "用户名"
// @Param password formData string true "密码"
// @Param model formData string true "模型"
// @Param dialog formData string true "对话内容"
// @Success 200 {object} dto.ChatResponse
// @Router /api/chat [post]
func (h *ChatHandler) Chat(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	req, err := parseChatRequest(c)
	if err != nil {
		utils.ErrorResponse(c, err)
		return
	}

	result, err := h.dispatcher.Chat(c.Request.Context(), user, req)
	if err != nil {
		utils.ErrorResponse(c, err)
		return
	}

	c.JSON(200, dto.ChatResponse{
		Success:  true,
		Msg:      utils.T(c, i18n.MsgSuccess, nil),
		Role:     "assistant",
		Content:  result.Content,
		DialogID: result.DialogID,
		Title:    result.Title,
		Usage:    result.Usage,
	})
}

// Stream 流式对话(SSE)，以一个 done=true 的帧结束
// @Summary 流式对话
// @Tags 对话
// @Produce text/event-stream
// @Router /api/chat/stream [post]
func (h *ChatHandler) Stream(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	startStream(c)

	req, err := parseChatRequest(c)
	if err != nil {
		h.writeError(c, err)
		return
	}

	result, err := h.dispatcher.Stream(c.Request.Context(), user, req, func(delta string) error {
		if delta == "" {
			return nil
		}
		return h.writeFrame(c, dto.StreamFrame{Content: delta})
	})
	if err != nil {
		if c.Request.Context().Err() != nil {
			h.logger.WithField("username", user.Username).Info("客户端断开连接，流式对话中止")
			return
		}
		h.writeError(c, err)
		return
	}

	h.writeFrame(c, dto.StreamFrame{Done: true, DialogID: result.DialogID})
}

// StreamAbort 流式接口在认证或限次失败时同样以终止帧结束
func (h *ChatHandler) StreamAbort(c *gin.Context, err error) {
	startStream(c)
	h.writeError(c, err)
}

func startStream(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(200)
}

func (h *ChatHandler) writeError(c *gin.Context, err error) {
	env := utils.ErrorEnvelope(c, err)
	failed := false
	h.writeFrame(c, dto.StreamFrame{
		Done:      true,
		Success:   &failed,
		ErrorType: env.ErrorType,
		Msg:       env.Msg,
	})
}

func (h *ChatHandler) writeFrame(c *gin.Context, frame dto.StreamFrame) error {
	data, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(c.Writer, "data: %s\n\n", data); err != nil {
		return err
	}
	c.Writer.Flush()
	return nil
}

// Image 文生图或图片编辑
// @Summary 图片生成
// @Tags 对话
// @Param image_url formData string false "待编辑图片"
// @Success 200 {object} dto.ImageResultResponse
// @Router /api/image [post]
func (h *ChatHandler) Image(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	p, err := utils.GetParams(c)
	if err != nil {
		utils.ErrorResponse(c, err)
		return
	}

	n, err := p.Int("n", 1)
	if err != nil {
		utils.ErrorResponse(c, err)
		return
	}
	dialogID, err := optionalID(p, "dialog_id")
	if err != nil {
		utils.ErrorResponse(c, err)
		return
	}
	prompt := p.Raw("dialog")
	if prompt == "" {
		prompt = p.Raw("prompt")
	}

	req := &dto.ImageRequest{
		Model:    p.Get("model"),
		Prompt:   prompt,
		ImageURL: p.Get("image_url"),
		Size:     p.Get("size"),
		N:        n,
		Title:    p.Get("title"),
		DialogID: dialogID,
	}
	if req.Model == "" {
		utils.ErrorResponse(c, errs.InvalidParam("model"))
		return
	}

	result, err := h.dispatcher.Image(c.Request.Context(), user, req)
	if err != nil {
		utils.ErrorResponse(c, err)
		return
	}

	c.JSON(200, dto.ImageResultResponse{
		Success:   true,
		Msg:       utils.T(c, i18n.MsgSuccess, nil),
		Role:      "assistant",
		Content:   strings.Join(result.ImageURLs, "\n"),
		ImageURLs: result.ImageURLs,
		DialogID:  result.DialogID,
		Title:     result.Title,
	})
}

func parseChatRequest(c *gin.Context) (*dto.ChatRequest, error) {
	p, err := utils.GetParams(c)
	if err != nil {
		return nil, err
	}

	maxTokens, err := p.Int("max_tokens", 0)
	if err != nil {
		return nil, err
	}
	dialogID, err := optionalID(p, "dialog_id")
	if err != nil {
		return nil, err
	}

	req := &dto.ChatRequest{
		Model:        p.Get("model"),
		Dialog:       p.Raw("dialog"),
		DialogMode:   strings.ToLower(p.Get("dialog_mode")),
		Title:        p.Get("title"),
		DialogID:     dialogID,
		SystemPrompt: p.Raw("system_prompt"),
		MaxTokens:    maxTokens,
	}
	if req.Model == "" {
		return nil, errs.InvalidParam("model")
	}
	return req, nil
}
