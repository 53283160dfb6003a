package ai

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ResponseFormat asks the gateway for schema-constrained decoding
// (OpenRouter / OpenAI "json_schema" structured output).
type ResponseFormat struct {
	Type       string     `json:"type"`
	JSONSchema JSONSchema `json:"json_schema"`
}

type JSONSchema struct {
	Name   string         `json:"name"`
	Strict bool           `json:"strict"`
	Schema map[string]any `json:"schema"`
}

type SendOptions struct {
	Model          string
	MaxRetries     int
	ResponseFormat *ResponseFormat
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type Choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason *string `json:"finish_reason"`
}

type upstreamError struct {
	Message string `json:"message"`
	Code    any    `json:"code,omitempty"`
}

// RawResponse is the OpenAI-compatible chat-completion payload. Everything
// besides choices[0].message.content is provenance metadata passed through
// to the caller.
type RawResponse struct {
	ID      string         `json:"id"`
	Model   string         `json:"model"`
	Created int64          `json:"created"`
	Object  string         `json:"object"`
	Choices []Choice       `json:"choices"`
	Usage   Usage          `json:"usage"`
	Error   *upstreamError `json:"error,omitempty"`
}

type ChatResult struct {
	Message string
	Usage   Usage
	Raw     *RawResponse
}
