package dto

const (
	DialogModeSingle = "single"
	DialogModeMulti  = "multi"
)

// ChatRequest 对话请求
type ChatRequest struct {
	Model        string
	Dialog       string
	DialogMode   string
	Title        string
	DialogID     *uint
	SystemPrompt string
	MaxTokens    int
}

// ChatResult 对话结果
type ChatResult struct {
	Content  string
	Usage    int
	DialogID uint
	Title    string
}

// ChatResponse 对话响应，role/content 位于顶层
type ChatResponse struct {
	Success  bool   `json:"success"`
	Msg      string `json:"msg"`
	Role     string `json:"role"`
	Content  string `json:"content"`
	DialogID uint   `json:"dialog_id,omitempty"`
	Title    string `json:"title,omitempty"`
	Usage    int    `json:"usage"`
}

// StreamFrame SSE 数据帧，终止帧 done=true 且只发送一次
type StreamFrame struct {
	Content   string `json:"content"`
	Done      bool   `json:"done"`
	Success   *bool  `json:"success,omitempty"`
	ErrorType string `json:"error_type,omitempty"`
	Msg       string `json:"msg,omitempty"`
	DialogID  uint   `json:"dialog_id,omitempty"`
}

// ImageRequest 图片生成或编辑请求，ImageURL 非空时为编辑
type ImageRequest struct {
	Model    string
	Prompt   string
	ImageURL string
	Size     string
	N        int
	Title    string
	DialogID *uint
}

// ImageResult 图片结果
type ImageResult struct {
	ImageURLs []string
	DialogID  uint
	Title     string
}

// ImageResultResponse 图片响应
type ImageResultResponse struct {
	Success   bool     `json:"success"`
	Msg       string   `json:"msg"`
	Role      string   `json:"role"`
	Content   string   `json:"content"`
	ImageURLs []string `json:"image_urls"`
	DialogID  uint     `json:"dialog_id,omitempty"`
	Title     string   `json:"title,omitempty"`
}
