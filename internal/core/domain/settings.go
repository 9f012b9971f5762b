package domain

// PipelineSettings is the read-only snapshot of options a query runs with.
type PipelineSettings struct {
	TopK                int
	TopKFinal           int
	SimilarityThreshold float64
	UseRerank           bool
	ContextMaxChars     int
	DescribeSampleSize  int
	ParallelRetrieval   bool

	LLMProvider       string
	LLMModel          string
	LLMTemperature    float64
	EmbeddingProvider string
	EmbeddingModel    string
	VectorBackend     string

	// Collections lists storage locations; names come from CollectionName.
	Collections []string
}

const (
	DefaultTopK                = 30
	DefaultTopKFinal           = 20
	DefaultSimilarityThreshold = 0.1
	DefaultContextMaxChars     = 4000
	DefaultDescribeSampleSize  = 20
)

func (s PipelineSettings) WithDefaults() PipelineSettings {
	out := s
	if out.TopK <= 0 {
		out.TopK = DefaultTopK
	}
	if out.TopKFinal <= 0 {
		out.TopKFinal = DefaultTopKFinal
	}
	if out.ContextMaxChars <= 0 {
		out.ContextMaxChars = DefaultContextMaxChars
	}
	if out.DescribeSampleSize <= 0 {
		out.DescribeSampleSize = DefaultDescribeSampleSize
	}
	return out
}
