package httpadapter

import "github.com/kirillkom/legal-rag-assistant/internal/core/domain"

const (
	roleSystem    = "system"
	roleUser      = "user"
	roleAssistant = "assistant"
)

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type chatCompletionRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream,omitempty"`

	// Extensions understood by the legal pipeline.
	ShowReasoning bool  `json:"show_reasoning,omitempty"`
	TopK          int   `json:"top_k,omitempty"`
	UseRerank     *bool `json:"use_rerank,omitempty"`
}

type modelObject struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	OwnedBy string `json:"owned_by"`
}

type modelListResponse struct {
	Object string        `json:"object"`
	Data   []modelObject `json:"data"`
}

type usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type chatCompletionChoice struct {
	Index        int         `json:"index"`
	Message      chatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

type chatCompletionResponse struct {
	ID      string                 `json:"id"`
	Object  string                 `json:"object"`
	Created int64                  `json:"created"`
	Model   string                 `json:"model"`
	Choices []chatCompletionChoice `json:"choices"`
	Usage   usage                  `json:"usage"`
	Debug   *debugInfo             `json:"debug,omitempty"`
}

type chatMessageDelta struct {
	Role    string `json:"role,omitempty"`
	Content string `json:"content,omitempty"`
}

type chatCompletionChunkChoice struct {
	Index        int              `json:"index"`
	Delta        chatMessageDelta `json:"delta"`
	FinishReason *string          `json:"finish_reason"`
}

type chatCompletionChunk struct {
	ID      string                      `json:"id"`
	Object  string                      `json:"object"`
	Created int64                       `json:"created"`
	Model   string                      `json:"model"`
	Choices []chatCompletionChunkChoice `json:"choices"`
}

// debugInfo carries the legal pipeline side channel of a chat completion.
type debugInfo struct {
	Collections []string             `json:"collections"`
	Metadata    domain.LegalMetadata `json:"metadata"`
	Sources     []debugSource        `json:"sources"`
	Reasoning   string               `json:"reasoning,omitempty"`
}

type debugSource struct {
	Source  string `json:"source"`
	DBName  string `json:"db_name"`
	Preview string `json:"preview"`
}
