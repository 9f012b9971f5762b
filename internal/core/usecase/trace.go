package usecase

import (
	"fmt"
	"strings"

	"github.com/kirillkom/legal-rag-assistant/internal/core/domain"
)

const (
	observationPreviewDocs  = 5
	observationPreviewChars = 200
)

type collectionLog struct {
	name string
	text string
}

func buildObservation(usedCollections []string, docs []domain.Document) string {
	lines := make([]string, 0, 2+observationPreviewDocs)

	used := "none"
	if len(usedCollections) > 0 {
		unique := map[string]struct{}{}
		for _, name := range usedCollections {
			unique[name] = struct{}{}
		}
		used = strings.Join(sortedKeys(unique), ", ")
	}
	lines = append(lines, "Databases used: "+used)
	lines = append(lines, fmt.Sprintf("Total documents used as context: %d", len(docs)))

	for i, d := range docs {
		if i >= observationPreviewDocs {
			break
		}
		dbName := d.DBName
		if dbName == "" {
			dbName = "unknown_db"
		}
		lines = append(lines, fmt.Sprintf("- DOC %d (db=%s, source=%s): %s", i+1, dbName, documentSource(d), preview(d.Content)))
	}
	return strings.Join(lines, "\n")
}

func preview(content string) string {
	runes := []rune(content)
	if len(runes) > observationPreviewChars {
		runes = runes[:observationPreviewChars]
	}
	return strings.TrimSpace(strings.ReplaceAll(string(runes), "\n", " "))
}

func buildConfigurationLog(settings domain.PipelineSettings, infos []domain.CollectionInfo) string {
	lines := []string{
		"LLM provider: " + settings.LLMProvider,
		"LLM model: " + settings.LLMModel,
		"Embedding provider: " + settings.EmbeddingProvider,
		"Embedding model: " + settings.EmbeddingModel,
		"Vector backend: " + settings.VectorBackend,
		fmt.Sprintf("top_k: %d", settings.TopK),
		fmt.Sprintf("use_rerank: %t", settings.UseRerank),
		fmt.Sprintf("similarity_threshold: %.3f", settings.SimilarityThreshold),
		fmt.Sprintf("parallel_retrieval: %t", settings.ParallelRetrieval),
		"Hybrid RAG mode: LLM metadata + metadata filters + vector similarity",
		"Vector DBs:",
	}
	for _, info := range infos {
		description := info.Description
		if description == "" {
			description = "no description"
		}
		lines = append(lines, fmt.Sprintf("  - %s: path=%s | %s", info.Name, info.Location, description))
	}
	return strings.Join(lines, "\n")
}

func buildReasoningTrace(
	observation string,
	metadataLog string,
	routingLog string,
	perCollection []collectionLog,
	configurationLog string,
) string {
	var retrieval strings.Builder
	fmt.Fprintf(&retrieval, "LLM-based metadata extraction log:\n%s\n\nDB routing log:\n%s\n", metadataLog, routingLog)
	for _, entry := range perCollection {
		fmt.Fprintf(&retrieval, "\n\n[DB %s]\n%s", entry.name, entry.text)
	}

	return "Hybrid legal RAG log (LLM metadata, metadata filters, static retrieval; no ReAct):\n\n" +
		observation + "\n\n" +
		"---\n\n" +
		"Retrieval & filtering details:\n" +
		"```text\n" + strings.TrimSpace(retrieval.String()) + "\n```\n\n" +
		"Configuration:\n" +
		"```text\n" + configurationLog + "\n```"
}
