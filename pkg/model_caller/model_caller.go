package model_caller

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"mime/multipart"
	"net/http"
	"strings"
	"sync"
	"time"

	"chat-gateway/internal/dto"
)

// APIError 上游返回的非2xx响应
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API返回错误: status=%d, body=%s", e.StatusCode, e.Body)
}

// IsAuth 认证失败或IP受限
func (e *APIError) IsAuth() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// IsRateLimit 上游限流
func (e *APIError) IsRateLimit() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

// Message 尽量从响应体中取出 error.message
func (e *APIError) Message() string {
	var body struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal([]byte(e.Body), &body); err == nil && body.Error.Message != "" {
		return body.Error.Message
	}
	return e.Body
}

// ErrEmptyResponse 上游没有返回任何 choice 或图片
var ErrEmptyResponse = errors.New("上游返回空结果")

// Options 客户端配置
type Options struct {
	BaseURLs     []string
	APIKey       string
	ChatTimeout  time.Duration
	ImageTimeout time.Duration
	ListTimeout  time.Duration
	Client       *http.Client
}

// ModelCaller OpenAI兼容接口客户端，每次调用随机选择一个上游地址
type ModelCaller struct {
	client       *http.Client
	baseURLs     []string
	apiKey       string
	chatTimeout  time.Duration
	imageTimeout time.Duration
	listTimeout  time.Duration

	mu   sync.Mutex
	pick func(n int) int
}

// CallOptions 调用选项
type CallOptions struct {
	APIKey    string
	MaxTokens int
}

// NewModelCaller 创建模型调用客户端
func NewModelCaller(opts Options) *ModelCaller {
	client := opts.Client
	if client == nil {
		client = &http.Client{}
	}
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &ModelCaller{
		client:       client,
		baseURLs:     opts.BaseURLs,
		apiKey:       opts.APIKey,
		chatTimeout:  opts.ChatTimeout,
		imageTimeout: opts.ImageTimeout,
		listTimeout:  opts.ListTimeout,
		pick:         r.Intn,
	}
}

// SetPicker 替换地址选择函数
func (mc *ModelCaller) SetPicker(pick func(n int) int) {
	mc.mu.Lock()
	mc.pick = pick
	mc.mu.Unlock()
}

func (mc *ModelCaller) baseURL() string {
	if len(mc.baseURLs) == 1 {
		return mc.baseURLs[0]
	}
	mc.mu.Lock()
	i := mc.pick(len(mc.baseURLs))
	mc.mu.Unlock()
	return mc.baseURLs[i]
}

// key 用户密钥优先，否则使用默认密钥
func (mc *ModelCaller) key(override string) string {
	if override != "" {
		return override
	}
	return mc.apiKey
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

func (mc *ModelCaller) newRequest(ctx context.Context, method, path, apiKey string, body io.Reader, contentType string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, mc.baseURL()+path, body)
	if err != nil {
		return nil, fmt.Errorf("创建请求失败: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if key := mc.key(apiKey); key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}
	return req, nil
}

// do 发送请求并读取完整响应体，非2xx返回 *APIError
func (mc *ModelCaller) do(req *http.Request) ([]byte, error) {
	resp, err := mc.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("请求失败: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取响应失败: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

func (mc *ModelCaller) postJSON(ctx context.Context, path, apiKey string, payload interface{}) ([]byte, error) {
	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("序列化请求失败: %w", err)
	}
	req, err := mc.newRequest(ctx, http.MethodPost, path, apiKey, bytes.NewReader(jsonBody), "application/json")
	if err != nil {
		return nil, err
	}
	return mc.do(req)
}

// Chat 非流式对话，返回解析结果和原始响应体
func (mc *ModelCaller) Chat(ctx context.Context, model string, messages []dto.Message, options *CallOptions) (*dto.ChatCompletionResponse, []byte, error) {
	if options == nil {
		options = &CallOptions{}
	}
	ctx, cancel := withTimeout(ctx, mc.chatTimeout)
	defer cancel()

	body, err := mc.postJSON(ctx, "/chat/completions", options.APIKey, dto.ChatCompletionRequest{
		Model:     model,
		Messages:  stripImages(messages),
		MaxTokens: options.MaxTokens,
	})
	if err != nil {
		return nil, body, err
	}

	var result dto.ChatCompletionResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, body, fmt.Errorf("解析响应失败: %w", err)
	}
	if len(result.Choices) == 0 {
		return nil, body, ErrEmptyResponse
	}
	return &result, body, nil
}

// ChatStream 流式对话，每收到一段增量内容调用一次 onDelta
func (mc *ModelCaller) ChatStream(ctx context.Context, model string, messages []dto.Message, options *CallOptions, onDelta func(string) error) error {
	if options == nil {
		options = &CallOptions{}
	}
	ctx, cancel := withTimeout(ctx, mc.chatTimeout)
	defer cancel()

	jsonBody, err := json.Marshal(dto.ChatCompletionRequest{
		Model:     model,
		Messages:  stripImages(messages),
		MaxTokens: options.MaxTokens,
		Stream:    true,
	})
	if err != nil {
		return fmt.Errorf("序列化请求失败: %w", err)
	}
	req, err := mc.newRequest(ctx, http.MethodPost, "/chat/completions", options.APIKey, bytes.NewReader(jsonBody), "application/json")
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := mc.client.Do(req)
	if err != nil {
		return fmt.Errorf("请求失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		return &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "[DONE]" {
			return nil
		}

		var chunk dto.ChatCompletionChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			return fmt.Errorf("解析流式数据失败: %w", err)
		}
		for _, choice := range chunk.Choices {
			if choice.Delta.Content == "" {
				continue
			}
			if err := onDelta(choice.Delta.Content); err != nil {
				return err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("读取流式响应失败: %w", err)
	}
	return nil
}

// ListModels 获取上游模型ID列表
func (mc *ModelCaller) ListModels(ctx context.Context) ([]string, error) {
	ctx, cancel := withTimeout(ctx, mc.listTimeout)
	defer cancel()

	req, err := mc.newRequest(ctx, http.MethodGet, "/models", "", nil, "")
	if err != nil {
		return nil, err
	}
	body, err := mc.do(req)
	if err != nil {
		return nil, err
	}

	var list dto.UpstreamModelList
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("解析模型列表失败: %w", err)
	}
	ids := make([]string, 0, len(list.Data))
	for _, m := range list.Data {
		if m.ID != "" {
			ids = append(ids, m.ID)
		}
	}
	return ids, nil
}

// GenerateImage 文生图
func (mc *ModelCaller) GenerateImage(ctx context.Context, req dto.ImageGenerationRequest, apiKey string) (*dto.ImageResponse, []byte, error) {
	ctx, cancel := withTimeout(ctx, mc.imageTimeout)
	defer cancel()

	body, err := mc.postJSON(ctx, "/images/generations", apiKey, req)
	if err != nil {
		return nil, body, err
	}
	return decodeImages(body)
}

// EditImage 图片编辑，image 为原图内容
func (mc *ModelCaller) EditImage(ctx context.Context, req dto.ImageGenerationRequest, image []byte, filename, apiKey string) (*dto.ImageResponse, []byte, error) {
	ctx, cancel := withTimeout(ctx, mc.imageTimeout)
	defer cancel()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("image", filename)
	if err != nil {
		return nil, nil, fmt.Errorf("构建表单失败: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return nil, nil, fmt.Errorf("构建表单失败: %w", err)
	}
	fields := map[string]string{"model": req.Model, "prompt": req.Prompt}
	if req.Size != "" {
		fields["size"] = req.Size
	}
	if req.N > 0 {
		fields["n"] = fmt.Sprintf("%d", req.N)
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, nil, fmt.Errorf("构建表单失败: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, nil, fmt.Errorf("构建表单失败: %w", err)
	}

	httpReq, err := mc.newRequest(ctx, http.MethodPost, "/images/edits", apiKey, &buf, w.FormDataContentType())
	if err != nil {
		return nil, nil, err
	}
	body, err := mc.do(httpReq)
	if err != nil {
		return nil, body, err
	}
	return decodeImages(body)
}

// Download 下载图片，超过 maxSize 字节时报错
func (mc *ModelCaller) Download(ctx context.Context, url string, maxSize int64) ([]byte, error) {
	ctx, cancel := withTimeout(ctx, mc.imageTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("创建请求失败: %w", err)
	}
	resp, err := mc.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("下载图片失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("下载图片失败: status=%d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("下载图片失败: %w", err)
	}
	if int64(len(data)) > maxSize {
		return nil, fmt.Errorf("图片超过大小限制: %d", maxSize)
	}
	return data, nil
}

func decodeImages(body []byte) (*dto.ImageResponse, []byte, error) {
	var result dto.ImageResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, body, fmt.Errorf("解析响应失败: %w", err)
	}
	if len(result.URLs()) == 0 {
		return nil, body, ErrEmptyResponse
	}
	return &result, body, nil
}

// stripImages 上游消息只保留 role 和 content
func stripImages(messages []dto.Message) []dto.Message {
	out := make([]dto.Message, len(messages))
	for i, m := range messages {
		out[i] = dto.Message{Role: m.Role, Content: m.Content}
	}
	return out
}
