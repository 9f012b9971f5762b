package httpadapter

import (
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/kirillkom/legal-rag-assistant/internal/core/domain"
)

const sourcePreviewRunes = 200

func newCompletionID() string {
	return "chatcmpl-" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

func buildTextChatCompletionResponse(completionID string, created int64, modelID string, promptText string, answerText string, debug *debugInfo) chatCompletionResponse {
	return chatCompletionResponse{
		ID:      completionID,
		Object:  "chat.completion",
		Created: created,
		Model:   modelID,
		Choices: []chatCompletionChoice{
			{
				Index: 0,
				Message: chatMessage{
					Role:    roleAssistant,
					Content: answerText,
				},
				FinishReason: "stop",
			},
		},
		Usage: estimateUsage(promptText, answerText),
		Debug: debug,
	}
}

func estimateUsage(prompt string, completion string) usage {
	promptTokens := estimateTokenCount(prompt)
	completionTokens := estimateTokenCount(completion)
	return usage{
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
		TotalTokens:      promptTokens + completionTokens,
	}
}

// estimateTokenCount approximates four characters per token.
func estimateTokenCount(text string) int {
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return 0
	}
	return (n + 3) / 4
}

func toDebugInfo(answer *domain.LegalAnswer, maxDocs int) *debugInfo {
	docs := capDocuments(answer.Documents, maxDocs)
	sources := make([]debugSource, 0, len(docs))
	for _, doc := range docs {
		sources = append(sources, debugSource{
			Source:  doc.Source,
			DBName:  doc.DBName,
			Preview: previewText(doc.Content, sourcePreviewRunes),
		})
	}
	return &debugInfo{
		Collections: answer.Collections,
		Metadata:    answer.Metadata,
		Sources:     sources,
		Reasoning:   answer.Reasoning,
	}
}

func previewText(text string, limit int) string {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	return string([]rune(text)[:limit]) + "..."
}
