package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"chat-gateway/internal/config"
	"chat-gateway/internal/dto"
	"chat-gateway/internal/errs"
	"chat-gateway/internal/i18n"
	"chat-gateway/internal/models"
	"chat-gateway/pkg/metrics"
	"chat-gateway/pkg/model_caller"
	"chat-gateway/pkg/redis_limiter"

	"github.com/sirupsen/logrus"
)

const (
	roleSystem    = "system"
	roleUser      = "user"
	roleAssistant = "assistant"

	defaultImageSize = "1024x1024"
)

// Upstream OpenAI兼容上游
type Upstream interface {
	Chat(ctx context.Context, model string, messages []dto.Message, options *model_caller.CallOptions) (*dto.ChatCompletionResponse, []byte, error)
	ChatStream(ctx context.Context, model string, messages []dto.Message, options *model_caller.CallOptions, onDelta func(string) error) error
	GenerateImage(ctx context.Context, req dto.ImageGenerationRequest, apiKey string) (*dto.ImageResponse, []byte, error)
	EditImage(ctx context.Context, req dto.ImageGenerationRequest, image []byte, filename, apiKey string) (*dto.ImageResponse, []byte, error)
	Download(ctx context.Context, url string, maxSize int64) ([]byte, error)
}

// ModelValidator 校验模型是否可用，返回目录中的模型ID
type ModelValidator interface {
	Resolve(ctx context.Context, model string) (string, bool)
}

// SlotLimiter 按用户的上游并发槽位
type SlotLimiter interface {
	Acquire(ctx context.Context, key string) error
	Release(ctx context.Context, key string)
}

// ChatService 对话、流式对话和图片请求的转发
type ChatService struct {
	upstream Upstream
	catalog  ModelValidator
	history  *HistoryService
	files    *FileService
	limiter  SlotLimiter
	cfg      config.UpstreamConfig
	logger   *logrus.Logger
}

// NewChatService 创建转发服务，limiter 可为 nil
func NewChatService(upstream Upstream, catalog ModelValidator, history *HistoryService, files *FileService, limiter SlotLimiter, cfg config.UpstreamConfig, logger *logrus.Logger) *ChatService {
	return &ChatService{
		upstream: upstream,
		catalog:  catalog,
		history:  history,
		files:    files,
		limiter:  limiter,
		cfg:      cfg,
		logger:   logger,
	}
}

// Chat 非流式对话
func (s *ChatService) Chat(ctx context.Context, user *models.User, req *dto.ChatRequest) (*dto.ChatResult, error) {
	messages, title, err := s.prepareChat(ctx, user, req)
	if err != nil {
		return nil, err
	}

	release, err := s.acquire(ctx, user.Username)
	if err != nil {
		return nil, err
	}
	defer release()

	start := time.Now()
	resp, raw, err := s.upstream.Chat(ctx, req.Model, messages, s.callOptions(user, req.MaxTokens))
	if err != nil {
		return nil, s.fail("chat", user.Username, req.Model, start, err)
	}
	metrics.RecordUpstream("chat", req.Model, "ok", time.Since(start))

	content := resp.Choices[0].Message.Content
	usage := resp.Usage.TotalTokens
	s.history.RecordUsage(user.Username, req.Model, usage, string(raw))

	result := &dto.ChatResult{Content: content, Usage: usage, Title: title}
	messages = append(messages, dto.Message{Role: roleAssistant, Content: content})
	result.DialogID = s.saveDialog(user.Username, req.Model, models.ChatTypeChat, title, messages, req.DialogID)

	s.logger.WithFields(logrus.Fields{
		"username": user.Username,
		"model":    req.Model,
		"usage":    usage,
		"duration": time.Since(start).Milliseconds(),
	}).Info("对话完成")
	return result, nil
}

// Stream 流式对话，每段增量内容调用一次 onDelta。
// 出错时已发送的部分内容仍会记录用量，但不保存对话。
func (s *ChatService) Stream(ctx context.Context, user *models.User, req *dto.ChatRequest, onDelta func(string) error) (*dto.ChatResult, error) {
	messages, title, err := s.prepareChat(ctx, user, req)
	if err != nil {
		return nil, err
	}

	release, err := s.acquire(ctx, user.Username)
	if err != nil {
		return nil, err
	}
	defer release()

	var full strings.Builder
	start := time.Now()
	err = s.upstream.ChatStream(ctx, req.Model, messages, s.callOptions(user, req.MaxTokens), func(delta string) error {
		full.WriteString(delta)
		return onDelta(delta)
	})
	content := full.String()
	usage := len(content) / 4

	if err != nil {
		classified := classifyUpstream(err)
		metrics.RecordUpstream("stream", req.Model, string(errs.TypeOf(classified)), time.Since(start))
		s.history.RecordUsage(user.Username, req.Model, usage, fmt.Sprintf("%s\n[error] %v", content, err))
		s.logger.WithError(err).WithFields(logrus.Fields{
			"username": user.Username,
			"model":    req.Model,
			"received": len(content),
		}).Error("流式对话失败")
		return nil, classified
	}
	metrics.RecordUpstream("stream", req.Model, "ok", time.Since(start))

	s.history.RecordUsage(user.Username, req.Model, usage, content)
	result := &dto.ChatResult{Content: content, Usage: usage, Title: title}
	messages = append(messages, dto.Message{Role: roleAssistant, Content: content})
	result.DialogID = s.saveDialog(user.Username, req.Model, models.ChatTypeChat, title, messages, req.DialogID)
	return result, nil
}

// Image 文生图，带 image_url 时为图片编辑
func (s *ChatService) Image(ctx context.Context, user *models.User, req *dto.ImageRequest) (*dto.ImageResult, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return nil, errs.InvalidParam("dialog")
	}
	model, ok := s.catalog.Resolve(ctx, req.Model)
	if !ok {
		return nil, errs.ModelUnsupported(req.Model)
	}
	req.Model = model
	if req.DialogID != nil {
		if err := s.history.Owns(user.Username, *req.DialogID); err != nil {
			return nil, err
		}
	}
	if req.N <= 0 {
		req.N = 1
	}
	if req.Size == "" {
		req.Size = defaultImageSize
	}

	release, err := s.acquire(ctx, user.Username)
	if err != nil {
		return nil, err
	}
	defer release()

	genReq := dto.ImageGenerationRequest{Model: req.Model, Prompt: prompt, N: req.N, Size: req.Size}
	apiKey := user.UpstreamKey()
	start := time.Now()

	var (
		resp *dto.ImageResponse
		raw  []byte
	)
	if req.ImageURL != "" {
		image, filename, loadErr := s.loadImage(ctx, req.ImageURL)
		if loadErr != nil {
			return nil, loadErr
		}
		resp, raw, err = s.upstream.EditImage(ctx, genReq, image, filename, apiKey)
	} else {
		resp, raw, err = s.upstream.GenerateImage(ctx, genReq, apiKey)
	}
	if err != nil {
		return nil, s.fail("image", user.Username, req.Model, start, err)
	}
	metrics.RecordUpstream("image", req.Model, "ok", time.Since(start))

	urls := resp.URLs()
	s.history.RecordUsage(user.Username, req.Model, len(urls), string(raw))

	title := req.Title
	if strings.TrimSpace(title) == "" {
		title = prompt
	}
	question := dto.Message{Role: roleUser, Content: prompt}
	if req.ImageURL != "" {
		question.ImageURLs = []string{req.ImageURL}
	}
	answer := dto.Message{Role: roleAssistant, Content: strings.Join(urls, "\n"), ImageURLs: urls}

	result := &dto.ImageResult{ImageURLs: urls, Title: title}
	result.DialogID = s.saveDialog(user.Username, req.Model, models.ChatTypeImage, title, []dto.Message{question, answer}, req.DialogID)
	return result, nil
}

// prepareChat 校验模型并构造上游消息，返回消息和对话标题
func (s *ChatService) prepareChat(ctx context.Context, user *models.User, req *dto.ChatRequest) ([]dto.Message, string, error) {
	messages, err := BuildMessages(req)
	if err != nil {
		return nil, "", err
	}
	model, ok := s.catalog.Resolve(ctx, req.Model)
	if !ok {
		return nil, "", errs.ModelUnsupported(req.Model)
	}
	req.Model = model
	if req.DialogID != nil {
		if err := s.history.Owns(user.Username, *req.DialogID); err != nil {
			return nil, "", err
		}
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		for _, m := range messages {
			if m.Role == roleUser && strings.TrimSpace(m.Content) != "" {
				title = strings.TrimSpace(m.Content)
				break
			}
		}
	}
	return messages, title, nil
}

// BuildMessages 按对话模式构造上游消息
func BuildMessages(req *dto.ChatRequest) ([]dto.Message, error) {
	mode := req.DialogMode
	if mode == "" {
		mode = dto.DialogModeSingle
	}

	var messages []dto.Message
	switch mode {
	case dto.DialogModeSingle:
		if strings.TrimSpace(req.Dialog) == "" {
			return nil, errs.InvalidParam("dialog")
		}
		messages = []dto.Message{{Role: roleUser, Content: req.Dialog}}
	case dto.DialogModeMulti:
		if err := json.Unmarshal([]byte(req.Dialog), &messages); err != nil {
			return nil, errs.InvalidParam("dialog")
		}
		if len(messages) == 0 {
			return nil, errs.InvalidParam("dialog")
		}
		for _, m := range messages {
			if m.Role != roleSystem && m.Role != roleUser && m.Role != roleAssistant {
				return nil, errs.InvalidParam("role")
			}
		}
	default:
		return nil, errs.DialogModeUnsupported(mode)
	}

	if sp := strings.TrimSpace(req.SystemPrompt); sp != "" && messages[0].Role != roleSystem {
		messages = append([]dto.Message{{Role: roleSystem, Content: sp}}, messages...)
	}
	return messages, nil
}

func (s *ChatService) callOptions(user *models.User, maxTokens int) *model_caller.CallOptions {
	if maxTokens <= 0 {
		maxTokens = s.cfg.MaxTokens
	}
	return &model_caller.CallOptions{APIKey: user.UpstreamKey(), MaxTokens: maxTokens}
}

// acquire 获取并发槽位。限流器本身故障时放行
func (s *ChatService) acquire(ctx context.Context, username string) (func(), error) {
	if s.limiter == nil {
		return func() {}, nil
	}
	if err := s.limiter.Acquire(ctx, username); err != nil {
		if errors.Is(err, redis_limiter.ErrLimitReached) || ctx.Err() != nil {
			return nil, errs.ErrBusy
		}
		s.logger.WithError(err).WithField("username", username).Warn("并发限制不可用，直接放行")
		return func() {}, nil
	}
	return func() {
		// 请求取消后仍需释放槽位
		s.limiter.Release(context.Background(), username)
	}, nil
}

// fail 记录失败调用并转换错误
func (s *ChatService) fail(kind, username, model string, start time.Time, err error) error {
	classified := classifyUpstream(err)
	metrics.RecordUpstream(kind, model, string(errs.TypeOf(classified)), time.Since(start))
	s.history.RecordUsage(username, model, 0, err.Error())
	s.logger.WithError(err).WithFields(logrus.Fields{
		"kind":     kind,
		"username": username,
		"model":    model,
	}).Error("上游调用失败")
	return classified
}

// saveDialog 保存对话，失败只记录日志
func (s *ChatService) saveDialog(username, model, chatType, title string, messages []dto.Message, dialogID *uint) uint {
	dialog, err := s.history.UpsertDialog(username, model, chatType, title, messages, dialogID)
	if err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"username": username,
			"title":    title,
		}).Error("保存对话失败")
		return 0
	}
	return dialog.ID
}

// loadImage 读取待编辑的图片：本服务上传的文件、data URL 或远程地址
func (s *ChatService) loadImage(ctx context.Context, ref string) ([]byte, string, error) {
	if strings.HasPrefix(ref, "data:") {
		comma := strings.Index(ref, ",")
		if comma < 0 || !strings.Contains(ref[:comma], ";base64") {
			return nil, "", errs.InvalidParam("image_url")
		}
		data, err := base64.StdEncoding.DecodeString(ref[comma+1:])
		if err != nil {
			return nil, "", errs.InvalidParam("image_url")
		}
		return data, "image.png", nil
	}

	if s.files != nil && s.files.IsLocal(ref) {
		return s.files.Load(ref)
	}

	var maxSize int64 = 20 << 20
	if s.files != nil {
		maxSize = s.files.MaxSize()
	}
	data, err := s.upstream.Download(ctx, ref, maxSize)
	if err != nil {
		return nil, "", &errs.Error{
			Type:  errs.TypeInvalidParam,
			MsgID: i18n.MsgInvalidParam,
			Data:  map[string]interface{}{"Detail": "image_url"},
			Err:   err,
		}
	}
	return data, imageFilename(ref), nil
}

func imageFilename(ref string) string {
	if u, err := url.Parse(ref); err == nil {
		if name := path.Base(u.Path); name != "" && name != "." && name != "/" {
			return name
		}
	}
	return "image.png"
}

// classifyUpstream 上游错误分类：401/403 认证失败，429 限流，其余为接口错误
func classifyUpstream(err error) error {
	var e *errs.Error
	if errors.As(err, &e) {
		return e
	}

	var apiErr *model_caller.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.IsAuth():
			return errs.Wrap(errs.TypeAuthError, i18n.MsgUpstreamAuth, err)
		case apiErr.IsRateLimit():
			return errs.Wrap(errs.TypeRateLimit, i18n.MsgUpstreamRateLimit, err)
		default:
			return &errs.Error{
				Type:  errs.TypeAPIError,
				MsgID: i18n.MsgUpstreamAPI,
				Data:  map[string]interface{}{"Detail": apiErr.Message()},
				Err:   err,
			}
		}
	}

	return &errs.Error{
		Type:  errs.TypeAPIError,
		MsgID: i18n.MsgUpstreamAPI,
		Data:  map[string]interface{}{"Detail": err.Error()},
		Err:   err,
	}
}
