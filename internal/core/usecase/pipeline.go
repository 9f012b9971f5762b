package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/kirillkom/legal-rag-assistant/internal/core/domain"
	"github.com/kirillkom/legal-rag-assistant/internal/core/ports"
)

const maxParallelCollections = 4

// LegalPipeline answers legal questions: extraction, routing, per-collection
// retrieval, context assembly and a single generation call.
type LegalPipeline struct {
	chat     ports.ChatModel
	embedder ports.Embedder
	opener   ports.IndexOpener
	settings atomic.Pointer[domain.PipelineSettings]
}

func NewLegalPipeline(
	chat ports.ChatModel,
	embedder ports.Embedder,
	opener ports.IndexOpener,
	settings domain.PipelineSettings,
) *LegalPipeline {
	p := &LegalPipeline{
		chat:     chat,
		embedder: embedder,
		opener:   opener,
	}
	p.UpdateSettings(settings)
	return p
}

func (p *LegalPipeline) Settings() domain.PipelineSettings {
	return *p.settings.Load()
}

// UpdateSettings swaps the configuration used by subsequent queries. Queries
// already running keep their snapshot.
func (p *LegalPipeline) UpdateSettings(settings domain.PipelineSettings) {
	normalized := settings.WithDefaults()
	normalized.Collections = append([]string(nil), settings.Collections...)
	p.settings.Store(&normalized)
}

func (p *LegalPipeline) Collections(ctx context.Context) ([]domain.CollectionInfo, error) {
	settings := p.Settings()
	return describeCollections(ctx, newQueryScopedOpener(p.opener), domain.NewCollectionMap(settings.Collections), settings.DescribeSampleSize), nil
}

func (p *LegalPipeline) Answer(ctx context.Context, req domain.QueryRequest) (*domain.LegalAnswer, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "answer legal question", errors.New("question is empty"))
	}

	settings := p.querySettings(req)
	opener := newQueryScopedOpener(p.opener)
	collections := domain.NewCollectionMap(settings.Collections)

	infos := describeCollections(ctx, opener, collections, settings.DescribeSampleSize)

	extractor := NewMetadataExtractor(p.chat)
	meta, metadataLog := extractor.Extract(ctx, question)
	filter := domain.BuildMetadataFilter(meta)
	constraints := domain.LegalSchema.FormatConstraints(meta)

	routed, routingLog := RouteCollections(meta, collections, routingDescriptions(infos))

	retriever := NewCollectionRetriever(opener, NewSimilarityReranker(p.embedder, settings.SimilarityThreshold))
	docs, perCollection := p.retrieveAll(ctx, retriever, question, collections, routed, filter, settings)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	contextText := ""
	if len(docs) > 0 {
		contextText = BuildContext(docs, settings.ContextMaxChars)
	}
	answer := p.chat.Chat(ctx, answerSystemPrompt, answerUserPrompt(question, constraints, contextText))

	result := &domain.LegalAnswer{
		Answer:      answer,
		Documents:   docs,
		Metadata:    meta,
		Collections: routed,
	}
	if req.ShowReasoning {
		result.Reasoning = buildReasoningTrace(
			buildObservation(routed, docs),
			metadataLog,
			routingLog,
			perCollection,
			buildConfigurationLog(settings, infos),
		)
	}
	return result, nil
}

func (p *LegalPipeline) querySettings(req domain.QueryRequest) domain.PipelineSettings {
	settings := p.Settings()
	if topK := domain.ClampTopK(req.TopK); topK > 0 {
		settings.TopK = topK
	}
	if req.UseRerank != nil {
		settings.UseRerank = *req.UseRerank
	}
	return settings
}

// retrieveAll concatenates results in routing order whether or not the
// collections are searched concurrently.
func (p *LegalPipeline) retrieveAll(
	ctx context.Context,
	retriever *CollectionRetriever,
	question string,
	collections domain.CollectionMap,
	routed []string,
	filter domain.MetadataFilter,
	settings domain.PipelineSettings,
) ([]domain.Document, []collectionLog) {
	results := make([][]domain.Document, len(routed))
	logs := make([]collectionLog, len(routed))

	run := func(ctx context.Context, i int) {
		name := routed[i]
		location, _ := collections.Location(name)
		docs, logText := retriever.Retrieve(ctx, RetrievalRequest{
			Question:   question,
			Collection: domain.Collection{Name: name, Location: location},
			TopK:       settings.TopK,
			UseRerank:  settings.UseRerank,
			Filter:     filter,
		})
		results[i] = docs
		logs[i] = collectionLog{name: name, text: logText}
	}

	if settings.ParallelRetrieval && len(routed) > 1 {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(maxParallelCollections)
		for i := range routed {
			g.Go(func() error {
				run(gctx, i)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i := range routed {
			run(ctx, i)
		}
	}

	docs := make([]domain.Document, 0)
	for _, part := range results {
		docs = append(docs, part...)
	}
	return docs, logs
}

// queryScopedOpener opens each location at most once per query.
type queryScopedOpener struct {
	next ports.IndexOpener

	mu      sync.Mutex
	indexes map[string]openResult
}

type openResult struct {
	index ports.VectorIndex
	err   error
}

func newQueryScopedOpener(next ports.IndexOpener) *queryScopedOpener {
	return &queryScopedOpener{
		next:    next,
		indexes: make(map[string]openResult),
	}
}

func (o *queryScopedOpener) Open(ctx context.Context, location string) (ports.VectorIndex, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if cached, ok := o.indexes[location]; ok {
		return cached.index, cached.err
	}
	index, err := o.next.Open(ctx, location)
	if err != nil {
		err = domain.WrapError(domain.ErrCollectionUnavailable, "open collection", err)
	}
	o.indexes[location] = openResult{index: index, err: err}
	return index, err
}
