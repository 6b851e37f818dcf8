package dto

// Message 对话消息
type Message struct {
	Role      string   `json:"role"`
	Content   string   `json:"content"`
	ImageURLs []string `json:"image_urls,omitempty"`
}

// ChatCompletionRequest 上游 /chat/completions 请求体
type ChatCompletionRequest struct {
	Model     string    `json:"model"`
	Messages  []Message `json:"messages"`
	MaxTokens int       `json:"max_tokens,omitempty"`
	Stream    bool      `json:"stream,omitempty"`
}

// ChatCompletionResponse 上游非流式响应
type ChatCompletionResponse struct {
	ID      string   `json:"id,omitempty"`
	Model   string   `json:"model,omitempty"`
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage,omitempty"`
}

// Choice 选择
type Choice struct {
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason,omitempty"`
}

// Usage 使用量
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ChatCompletionChunk 上游流式响应的单个数据块
type ChatCompletionChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
}

// UpstreamModelList 上游 /models 响应
type UpstreamModelList struct {
	Data []struct {
		ID      string `json:"id"`
		OwnedBy string `json:"owned_by,omitempty"`
	} `json:"data"`
}

// ImageGenerationRequest 上游 /images/generations 请求体
type ImageGenerationRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	N      int    `json:"n,omitempty"`
	Size   string `json:"size,omitempty"`
}

// ImageResponse 上游图片接口响应
type ImageResponse struct {
	Created int64 `json:"created,omitempty"`
	Data    []struct {
		URL           string `json:"url,omitempty"`
		B64JSON       string `json:"b64_json,omitempty"`
		RevisedPrompt string `json:"revised_prompt,omitempty"`
	} `json:"data"`
}

// URLs 返回图片地址，b64_json 转为 data URL
func (r *ImageResponse) URLs() []string {
	urls := make([]string, 0, len(r.Data))
	for _, d := range r.Data {
		switch {
		case d.URL != "":
			urls = append(urls, d.URL)
		case d.B64JSON != "":
			urls = append(urls, "data:image/png;base64,"+d.B64JSON)
		}
	}
	return urls
}

// ModelOption 模型目录条目
type ModelOption struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Recommend   bool   `json:"recommend"`
	Description string `json:"description"`
	Modality    int    `json:"modality"`
	Group       string `json:"group"`
}

// ModelGroup 按厂商分组的模型
type ModelGroup struct {
	Vendor string         `json:"vendor"`
	Models []GroupedModel `json:"models"`
}

// GroupedModel 分组视图中的模型
type GroupedModel struct {
	Value       string `json:"value"`
	Label       string `json:"label"`
	Description string `json:"description"`
	Recommend   bool   `json:"recommend"`
	Modality    int    `json:"modality"`
}
