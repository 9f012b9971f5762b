package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// fileConfig is the optional YAML overlay. Unset keys keep env/default values.
type fileConfig struct {
	LLM struct {
		Provider    *string  `yaml:"provider"`
		Model       *string  `yaml:"model"`
		Temperature *float64 `yaml:"temperature"`
		MaxTokens   *int     `yaml:"max_tokens"`
	} `yaml:"llm"`

	Embedding struct {
		Provider *string `yaml:"provider"`
		Model    *string `yaml:"model"`
	} `yaml:"embedding"`

	VectorStore struct {
		Backend *string  `yaml:"backend"`
		BaseDir *string  `yaml:"base_dir"`
		Dirs    []string `yaml:"dirs"`
		Dir     *string  `yaml:"dir"`
	} `yaml:"vector_store"`

	Retrieval struct {
		TopK                *int     `yaml:"top_k"`
		TopKFinal           *int     `yaml:"top_k_final"`
		SimilarityThreshold *float64 `yaml:"similarity_threshold"`
		UseRerank           *bool    `yaml:"use_rerank"`
		ContextMaxChars     *int     `yaml:"context_max_chars"`
		DescribeSample      *int     `yaml:"describe_sample"`
		Parallel            *bool    `yaml:"parallel"`
	} `yaml:"retrieval"`
}

func loadFile(path string) (fileConfig, error) {
	var out fileConfig
	if strings.TrimSpace(path) == "" {
		return out, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return out, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return out, nil
}

func pick[T any](v *T, fallback T) T {
	if v == nil {
		return fallback
	}
	return *v
}

func (f fileConfig) llmProvider(d string) string       { return pick(f.LLM.Provider, d) }
func (f fileConfig) llmModel(d string) string          { return pick(f.LLM.Model, d) }
func (f fileConfig) llmTemperature(d float64) float64  { return pick(f.LLM.Temperature, d) }
func (f fileConfig) llmMaxTokens(d int) int            { return pick(f.LLM.MaxTokens, d) }
func (f fileConfig) embeddingProvider(d string) string { return pick(f.Embedding.Provider, d) }
func (f fileConfig) embeddingModel(d string) string    { return pick(f.Embedding.Model, d) }
func (f fileConfig) vectorBackend(d string) string     { return pick(f.VectorStore.Backend, d) }
func (f fileConfig) vectorBaseDir(d string) string     { return pick(f.VectorStore.BaseDir, d) }
func (f fileConfig) vectorDir(d string) string         { return pick(f.VectorStore.Dir, d) }
func (f fileConfig) vectorDirs() []string              { return f.VectorStore.Dirs }

func (f fileConfig) topK(d int) int                { return pick(f.Retrieval.TopK, d) }
func (f fileConfig) topKFinal(d int) int           { return pick(f.Retrieval.TopKFinal, d) }
func (f fileConfig) useRerank(d bool) bool         { return pick(f.Retrieval.UseRerank, d) }
func (f fileConfig) contextMaxChars(d int) int     { return pick(f.Retrieval.ContextMaxChars, d) }
func (f fileConfig) describeSample(d int) int      { return pick(f.Retrieval.DescribeSample, d) }
func (f fileConfig) parallelRetrieval(d bool) bool { return pick(f.Retrieval.Parallel, d) }

func (f fileConfig) similarityThreshold(d float64) float64 {
	return pick(f.Retrieval.SimilarityThreshold, d)
}
