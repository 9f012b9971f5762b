package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kirillkom/legal-rag-assistant/internal/core/ports"
)

const ErrorPrefix = "[LLM error]"

const dataPolicyMarker = "No endpoints found matching your data policy"

const dataPolicyHint = ErrorPrefix + " OpenRouter blocked the request because your account data policy only allows free models. " +
	"Update your data policy at https://openrouter.ai/settings/privacy " +
	"or choose a model that matches your policy (see https://openrouter.ai/models)."

const unconfiguredMessage = "LLM provider is not correctly configured or the model could not be loaded.\n\n" +
	"Please check your configuration:\n" +
	"- If LLM_PROVIDER = **openrouter**, make sure `OPENROUTER_API_KEY` is set.\n" +
	"- If LLM_PROVIDER = **ollama**, make sure `OLLAMA_URL` points to a running server and `LLM_MODEL` is pulled."

// SafeChat turns provider failures into "[LLM error]" text.
type SafeChat struct {
	provider ports.CompletionProvider
}

func NewSafeChat(provider ports.CompletionProvider) *SafeChat {
	return &SafeChat{provider: provider}
}

func (c *SafeChat) Chat(ctx context.Context, systemPrompt, userPrompt string) string {
	if c == nil || c.provider == nil {
		return unconfiguredMessage
	}
	text, err := c.provider.Complete(ctx, systemPrompt, userPrompt)
	if err != nil {
		slog.Warn("llm_call_failed", "error", err)
		return FormatError(err)
	}
	return text
}

func FormatError(err error) string {
	msg := err.Error()
	if strings.Contains(msg, dataPolicyMarker) {
		return dataPolicyHint
	}
	return fmt.Sprintf("%s %s", ErrorPrefix, msg)
}

// UnconfiguredChat answers every call with configuration guidance.
type UnconfiguredChat struct {
	Reason string
}

func (u UnconfiguredChat) Chat(context.Context, string, string) string {
	if strings.TrimSpace(u.Reason) == "" {
		return unconfiguredMessage
	}
	return unconfiguredMessage + "\n\nDetails: " + u.Reason
}

func IsErrorText(text string) bool {
	return strings.HasPrefix(text, ErrorPrefix)
}
