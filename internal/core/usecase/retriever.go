package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/kirillkom/legal-rag-assistant/internal/core/domain"
	"github.com/kirillkom/legal-rag-assistant/internal/core/ports"
)

type RetrievalRequest struct {
	Question   string
	Collection domain.Collection
	TopK       int
	UseRerank  bool
	Filter     domain.MetadataFilter
}

type CollectionRetriever struct {
	opener   ports.IndexOpener
	reranker *SimilarityReranker
}

func NewCollectionRetriever(opener ports.IndexOpener, reranker *SimilarityReranker) *CollectionRetriever {
	return &CollectionRetriever{
		opener:   opener,
		reranker: reranker,
	}
}

// Retrieve tries the full filter, then law+country, then law only, each only
// while fewer than TopK documents are held. A later tier with results
// replaces the current set instead of extending it.
func (r *CollectionRetriever) Retrieve(ctx context.Context, req RetrievalRequest) ([]domain.Document, string) {
	name := req.Collection.Name
	topK := req.TopK
	if topK <= 0 {
		topK = domain.DefaultTopK
	}
	logLines := []string{fmt.Sprintf("[DB %s] path=%s", name, req.Collection.Location)}

	index, err := r.opener.Open(ctx, req.Collection.Location)
	if err != nil {
		logLines = append(logLines, fmt.Sprintf("[DB %s] collection unavailable: %v", name, err))
		logLines = append(logLines, fmt.Sprintf("[DB %s] FINAL docs kept for context: 0 (fallback used: false)", name))
		return []domain.Document{}, strings.Join(logLines, "\n")
	}

	kBase := max(3*topK, topK)
	tiers := domain.FilterTiers(req.Filter)
	full, lawCountry, lawOnly := tiers[0], tiers[1], tiers[2]

	docs, tierLog := r.runTier(ctx, index, req, full, kBase, topK)
	logLines = append(logLines, tierLog)

	usedFallback := false
	if len(docs) < topK && len(lawCountry.Filter) > 0 && !lawCountry.Filter.Equal(full.Filter) {
		usedFallback = true
		logLines = append(logLines, fmt.Sprintf("[DB %s] Fallback-1: only %d doc(s) (< top_k=%d) → retry with law+country filter: %s",
			name, len(docs), topK, lawCountry.Filter))
		fallbackDocs, fallbackLog := r.runTier(ctx, index, req, lawCountry, kBase, topK)
		logLines = append(logLines, fallbackLog)
		if len(fallbackDocs) > 0 {
			docs = fallbackDocs
		}
	}

	if len(docs) < topK && len(lawOnly.Filter) > 0 &&
		!lawOnly.Filter.Equal(full.Filter) && !lawOnly.Filter.Equal(lawCountry.Filter) {
		usedFallback = true
		logLines = append(logLines, fmt.Sprintf("[DB %s] Fallback-2: still only %d doc(s) (< top_k=%d) → retry with law-only filter: %s",
			name, len(docs), topK, lawOnly.Filter))
		fallbackDocs, fallbackLog := r.runTier(ctx, index, req, lawOnly, kBase, topK)
		logLines = append(logLines, fallbackLog)
		if len(fallbackDocs) > 0 {
			docs = fallbackDocs
		}
	}

	logLines = append(logLines, fmt.Sprintf("[DB %s] FINAL docs kept for context: %d (fallback used: %t)", name, len(docs), usedFallback))
	return docs, strings.Join(logLines, "\n")
}

func (r *CollectionRetriever) runTier(
	ctx context.Context,
	index ports.VectorIndex,
	req RetrievalRequest,
	tier domain.FilterTier,
	kBase int,
	topK int,
) ([]domain.Document, string) {
	name := req.Collection.Name
	logLines := []string{fmt.Sprintf("[DB %s] Retrieval phase = %s", name, tier.Name)}
	if len(tier.Filter) > 0 {
		logLines = append(logLines, fmt.Sprintf("[DB %s] Using metadata filter: %s", name, tier.Filter))
	} else {
		logLines = append(logLines, fmt.Sprintf("[DB %s] No metadata filter used.", name))
	}
	logLines = append(logLines, fmt.Sprintf("[DB %s] Base retriever k=%d (top_k=%d).", name, kBase, topK))

	raw, err := index.Search(ctx, req.Question, kBase, tier.Filter)
	if err != nil {
		logLines = append(logLines, fmt.Sprintf("[DB %s] Search failed: %v", name, err))
		raw = nil
	}
	logLines = append(logLines, fmt.Sprintf("[DB %s] Raw docs from retriever: %d", name, len(raw)))

	tagged := make([]domain.Document, len(raw))
	for i, d := range raw {
		d.DBName = name
		tagged[i] = d
	}

	var docs []domain.Document
	if req.UseRerank && r.reranker != nil {
		logLines = append(logLines, fmt.Sprintf("[DB %s] Similarity reranking ENABLED.", name))
		var rerankLog string
		docs, rerankLog = r.reranker.Rerank(ctx, req.Question, tagged, topK)
		logLines = append(logLines, rerankLog)
	} else {
		logLines = append(logLines, fmt.Sprintf("[DB %s] Similarity reranking DISABLED; using top_k=%d raw docs.", name, topK))
		docs = truncateDocuments(tagged, topK)
	}

	logLines = append(logLines, fmt.Sprintf("[DB %s] Result: %d doc(s) kept.", name, len(docs)))
	return docs, strings.Join(logLines, "\n")
}
