package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kirillkom/legal-rag-assistant/internal/core/domain"
	"github.com/kirillkom/legal-rag-assistant/internal/core/ports"
)

type LawSource string

const (
	LawSourceHeuristic LawSource = "heuristic"
	LawSourceModel     LawSource = "model"
)

type LawDecision struct {
	Law    string
	Source LawSource
	Log    string
}

var (
	successionKeywords = []string{"succession", "successione", "eredit", "inheritance"}
	divorceKeywords    = []string{"divorce", "divorz", "separazione", "separation", "matrimonio"}
)

type MetadataExtractor struct {
	chat   ports.ChatModel
	schema *domain.MetadataSchema
}

func NewMetadataExtractor(chat ports.ChatModel) *MetadataExtractor {
	return &MetadataExtractor{
		chat:   chat,
		schema: domain.LegalSchema,
	}
}

// ClassifyLaw decides the legal domain by keywords and asks the model only
// when both or neither keyword sets match. It always returns a domain.
func (e *MetadataExtractor) ClassifyLaw(ctx context.Context, question string) LawDecision {
	q := strings.ToLower(question)
	hasSuccession := containsAny(q, successionKeywords)
	hasDivorce := containsAny(q, divorceKeywords)

	logLines := make([]string, 0, 3)
	if hasSuccession {
		logLines = append(logLines, "Heuristic: succession/eredità keywords detected.")
	}
	if hasDivorce {
		logLines = append(logLines, "Heuristic: divorce/separazione keywords detected.")
	}

	switch {
	case hasSuccession && !hasDivorce:
		return LawDecision{Law: domain.LawInheritance, Source: LawSourceHeuristic, Log: strings.Join(logLines, "\n")}
	case hasDivorce && !hasSuccession:
		return LawDecision{Law: domain.LawDivorce, Source: LawSourceHeuristic, Log: strings.Join(logLines, "\n")}
	}

	resp := strings.TrimSpace(e.chat.Chat(ctx, lawClassificationSystemPrompt, lawClassificationUserPrompt(question)))
	law := parseLawResponse(resp)
	logLines = append(logLines, fmt.Sprintf("LLM law decision: '%s' → %s.", resp, law))
	return LawDecision{Law: law, Source: LawSourceModel, Log: strings.Join(logLines, "\n")}
}

func parseLawResponse(resp string) string {
	upper := strings.ToUpper(resp)
	switch {
	case strings.Contains(upper, "INHERIT"):
		return domain.LawInheritance
	case strings.Contains(upper, "DIVOR"):
		return domain.LawDivorce
	default:
		return domain.LawInheritance
	}
}

// Extract classifies the domain, asks the model to fill the schema and
// returns a schema-complete value. The classified law always wins.
func (e *MetadataExtractor) Extract(ctx context.Context, question string) (domain.LegalMetadata, string) {
	decision := e.ClassifyLaw(ctx, question)

	raw := e.chat.Chat(ctx, extractionSystemPrompt(e.schema.JSONSchema(), decision.Law), extractionUserPrompt(question))

	parsed, parseErr := parseJSONObject(raw)
	meta := e.schema.Defaults()
	if parseErr == nil {
		meta = e.schema.Conform(parsed)
	}
	meta[domain.FieldLaw] = decision.Law

	var logText strings.Builder
	logText.WriteString("Hybrid legal metadata extracted from query:\n")
	logText.WriteString(indentJSON(meta.JSON()))
	if parseErr != nil {
		fmt.Fprintf(&logText, "\n(model output not usable, schema defaults applied: %v)", parseErr)
	}
	fmt.Fprintf(&logText, "\n\nLaw classification log (%s):\n%s", decision.Source, decision.Log)
	return meta, logText.String()
}

// parseJSONObject accepts a bare object or one wrapped in a fence or prose.
func parseJSONObject(raw string) (map[string]any, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil, fmt.Errorf("empty model output")
	}
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no json object in model output")
	}

	var out map[string]any
	if err := json.Unmarshal([]byte(text[start:end+1]), &out); err != nil {
		return nil, fmt.Errorf("decode model output: %w", err)
	}
	if out == nil {
		return nil, fmt.Errorf("model output is not an object")
	}
	return out, nil
}

func indentJSON(raw string) string {
	var out bytes.Buffer
	if err := json.Indent(&out, []byte(raw), "", "  "); err != nil {
		return raw
	}
	return out.String()
}

func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}
