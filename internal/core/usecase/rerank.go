package usecase

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/kirillkom/legal-rag-assistant/internal/core/domain"
	"github.com/kirillkom/legal-rag-assistant/internal/core/ports"
)

const cosineEpsilon = 1e-8

// SimilarityReranker keeps candidates whose cosine similarity to the question
// reaches the threshold, best first.
type SimilarityReranker struct {
	embedder  ports.Embedder
	threshold float64
}

func NewSimilarityReranker(embedder ports.Embedder, threshold float64) *SimilarityReranker {
	return &SimilarityReranker{
		embedder:  embedder,
		threshold: threshold,
	}
}

// Rerank returns at most topK documents sorted by similarity, ties in input
// order. Every returned document reaches the threshold, so a failed embedding
// call yields no documents.
func (r *SimilarityReranker) Rerank(
	ctx context.Context,
	question string,
	docs []domain.Document,
	topK int,
) ([]domain.Document, string) {
	if len(docs) == 0 {
		return []domain.Document{}, "No documents returned from base retriever."
	}

	sims, err := r.similarities(ctx, question, docs)
	if err != nil {
		return []domain.Document{}, fmt.Sprintf("Similarity reranking failed (%v); %d raw doc(s) dropped.", err, len(docs))
	}

	indices := make([]int, 0, len(docs))
	for i, s := range sims {
		if s >= r.threshold {
			indices = append(indices, i)
		}
	}

	rawMin, rawMax, rawMean := simStats(sims, nil)
	if len(indices) == 0 {
		return []domain.Document{}, fmt.Sprintf(
			"Similarity filtering: %d raw docs → 0 kept (threshold=%.3f, sim range=[%.3f, %.3f], mean=%.3f).",
			len(docs), r.threshold, rawMin, rawMax, rawMean,
		)
	}

	sort.SliceStable(indices, func(a, b int) bool {
		return sims[indices[a]] > sims[indices[b]]
	})
	aboveThreshold := len(indices)
	if topK > 0 && len(indices) > topK {
		indices = indices[:topK]
	}

	out := make([]domain.Document, 0, len(indices))
	for _, i := range indices {
		out = append(out, docs[i])
	}

	keptMin, keptMax, keptMean := simStats(sims, indices)
	logText := strings.Join([]string{
		"Similarity filtering + reranking:",
		fmt.Sprintf("- Raw docs from retriever: %d", len(docs)),
		fmt.Sprintf("- Docs above threshold %.3f: %d", r.threshold, aboveThreshold),
		fmt.Sprintf("- Final top_k=%d docs kept: %d", topK, len(out)),
		fmt.Sprintf("- Similarity stats (all raw): min=%.3f, max=%.3f, mean=%.3f", rawMin, rawMax, rawMean),
		fmt.Sprintf("- Similarity stats (kept):   min=%.3f, max=%.3f, mean=%.3f", keptMin, keptMax, keptMean),
	}, "\n")
	return out, logText
}

func (r *SimilarityReranker) similarities(ctx context.Context, question string, docs []domain.Document) ([]float64, error) {
	queryVector, err := r.embedder.EmbedQuery(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Content
	}
	docVectors, err := r.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed documents: %w", err)
	}
	if len(docVectors) != len(docs) {
		return nil, fmt.Errorf("embed documents: got %d vectors for %d documents", len(docVectors), len(docs))
	}

	out := make([]float64, len(docs))
	for i, v := range docVectors {
		out[i] = CosineSimilarity(queryVector, v)
	}
	return out, nil
}

// CosineSimilarity uses max(|a|*|b|, 1e-8) as the denominator so zero vectors
// score 0 instead of dividing by zero.
func CosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
	}
	denom := vectorNorm(a) * vectorNorm(b)
	if denom < cosineEpsilon {
		denom = cosineEpsilon
	}
	return dot / denom
}

func vectorNorm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

func simStats(sims []float64, indices []int) (float64, float64, float64) {
	values := sims
	if indices != nil {
		values = make([]float64, 0, len(indices))
		for _, i := range indices {
			values = append(values, sims[i])
		}
	}
	if len(values) == 0 {
		return 0, 0, 0
	}
	minV, maxV, sum := values[0], values[0], 0.0
	for _, v := range values {
		minV = math.Min(minV, v)
		maxV = math.Max(maxV, v)
		sum += v
	}
	return minV, maxV, sum / float64(len(values))
}

func truncateDocuments(docs []domain.Document, limit int) []domain.Document {
	if limit <= 0 || len(docs) <= limit {
		out := make([]domain.Document, len(docs))
		copy(out, docs)
		return out
	}
	out := make([]domain.Document, limit)
	copy(out, docs[:limit])
	return out
}
