package httpadapter

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/legal-rag-assistant/internal/core/domain"
)

const defaultModelID = "legal-rag-v1"

func (rt *Router) modelID(requested string) string {
	if modelID := strings.TrimSpace(requested); modelID != "" {
		return modelID
	}
	if rt.openAICompatModelID != "" {
		return rt.openAICompatModelID
	}
	return defaultModelID
}

func (rt *Router) listModels(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, modelListResponse{
		Object: "list",
		Data: []modelObject{
			{
				ID:      rt.modelID(""),
				Object:  "model",
				Created: time.Now().Unix(),
				OwnedBy: "legal-rag-assistant",
			},
		},
	})
}

// chatCompletions answers the latest user message through the legal pipeline.
func (rt *Router) chatCompletions(w http.ResponseWriter, r *http.Request) {
	var body chatCompletionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if len(body.Messages) == 0 {
		writeError(w, http.StatusBadRequest, "messages are required")
		return
	}
	question, ok := latestUserMessageContent(body.Messages)
	if !ok {
		writeError(w, http.StatusBadRequest, "user message content is required")
		return
	}

	modelID := rt.modelID(body.Model)
	completionID := newCompletionID()
	created := time.Now().Unix()

	answer, err := rt.answer(r, "chat_completions", domain.QueryRequest{
		Question:      question,
		ShowReasoning: body.ShowReasoning,
		TopK:          body.TopK,
		UseRerank:     body.UseRerank,
	})
	if err != nil {
		writeError(w, mapErrorToHTTPStatus(err), err.Error())
		return
	}

	if body.Stream {
		chunks := buildTextStreamChunks(completionID, created, modelID, answer.Answer, rt.streamChunkChars)
		if err := writeChatCompletionStream(w, chunks); err != nil {
			slog.Warn("chat_completion_stream_failed",
				"request_id", requestIDFromContext(r.Context()),
				"error", err.Error(),
			)
		}
		return
	}

	writeJSON(w, http.StatusOK, buildTextChatCompletionResponse(
		completionID,
		created,
		modelID,
		question,
		answer.Answer,
		toDebugInfo(answer, rt.topKFinal),
	))
}
