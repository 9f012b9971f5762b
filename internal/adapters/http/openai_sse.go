package httpadapter

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"
)

func writeChatCompletionStream(w http.ResponseWriter, chunks []chatCompletionChunk) error {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return fmt.Errorf("streaming is not supported by response writer")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	for _, chunk := range chunks {
		payload, err := json.Marshal(chunk)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
			return err
		}
		flusher.Flush()
	}

	if _, err := io.WriteString(w, "data: [DONE]\n\n"); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}

func buildTextStreamChunks(completionID string, created int64, modelID string, text string, chunkChars int) []chatCompletionChunk {
	if chunkChars <= 0 {
		chunkChars = 120
	}

	parts := splitByRunes(text, chunkChars)
	chunks := make([]chatCompletionChunk, 0, len(parts)+1)
	for idx, part := range parts {
		delta := chatMessageDelta{Content: part}
		if idx == 0 {
			delta.Role = roleAssistant
		}
		chunks = append(chunks, chatCompletionChunk{
			ID:      completionID,
			Object:  "chat.completion.chunk",
			Created: created,
			Model:   modelID,
			Choices: []chatCompletionChunkChoice{{
				Index: 0,
				Delta: delta,
			}},
		})
	}

	finishReason := "stop"
	chunks = append(chunks, chatCompletionChunk{
		ID:      completionID,
		Object:  "chat.completion.chunk",
		Created: created,
		Model:   modelID,
		Choices: []chatCompletionChunkChoice{{
			Index:        0,
			Delta:        chatMessageDelta{},
			FinishReason: &finishReason,
		}},
	})

	return chunks
}

func splitByRunes(text string, chunkChars int) []string {
	if strings.TrimSpace(text) == "" {
		return []string{""}
	}
	if chunkChars <= 0 || utf8.RuneCountInString(text) <= chunkChars {
		return []string{text}
	}

	parts := make([]string, 0, utf8.RuneCountInString(text)/chunkChars+1)
	runes := []rune(text)
	for start := 0; start < len(runes); start += chunkChars {
		end := min(start+chunkChars, len(runes))
		parts = append(parts, string(runes[start:end]))
	}
	return parts
}
