package domain

import "time"

// Document is a retrieved passage. DBName is assigned by the retriever.
type Document struct {
	Content  string         `json:"content"`
	Source   string         `json:"source"`
	DBName   string         `json:"db_name"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

func (d Document) MetadataString(key string) string {
	return scalarString(d.Metadata[key])
}

type LegalAnswer struct {
	Answer      string        `json:"answer"`
	Documents   []Document    `json:"documents"`
	Reasoning   string        `json:"reasoning,omitempty"`
	Metadata    LegalMetadata `json:"metadata"`
	Collections []string      `json:"collections"`
}

type QueryRecord struct {
	ID            string    `json:"id"`
	Question      string    `json:"question"`
	Law           string    `json:"law"`
	Country       string    `json:"country,omitempty"`
	DocType       string    `json:"doc_type,omitempty"`
	Collections   []string  `json:"collections"`
	DocumentCount int       `json:"document_count"`
	Answer        string    `json:"answer"`
	CreatedAt     time.Time `json:"created_at"`
}

// QueryRequest is one question submitted to the pipeline. Zero TopK and nil
// UseRerank keep the configured values.
type QueryRequest struct {
	Question      string `json:"question"`
	ShowReasoning bool   `json:"show_reasoning"`
	TopK          int    `json:"top_k,omitempty"`
	UseRerank     *bool  `json:"use_rerank,omitempty"`
}

const MaxRequestTopK = 200

// ClampTopK maps a requested TopK into [1, MaxRequestTopK]; zero or negative
// values mean "use the configured default" and become 0.
func ClampTopK(k int) int {
	if k <= 0 {
		return 0
	}
	return min(k, MaxRequestTopK)
}

// NewDocument builds a stored passage; Source comes from the "source"
// metadata entry when present.
func NewDocument(content string, metadata map[string]any) Document {
	if metadata == nil {
		metadata = map[string]any{}
	}
	return Document{
		Content:  content,
		Source:   scalarString(metadata["source"]),
		Metadata: metadata,
	}
}
