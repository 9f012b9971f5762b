package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kirillkom/legal-rag-assistant/internal/core/domain"
	"github.com/kirillkom/legal-rag-assistant/internal/core/ports"
	"github.com/kirillkom/legal-rag-assistant/internal/infrastructure/resilience"
)

const (
	contentKey  = "page_content"
	metadataKey = "metadata"
)

// Client opens Qdrant collections. Points carry the passage text under
// "page_content" and its metadata under "metadata".
type Client struct {
	baseURL    string
	embedder   ports.Embedder
	httpClient *http.Client
	executor   *resilience.Executor
}

func New(baseURL string, embedder ports.Embedder, executor *resilience.Executor) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		embedder:   embedder,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		executor:   executor,
	}
}

// Open resolves the collection named by the location's last path segment and
// checks that it exists.
func (c *Client) Open(ctx context.Context, location string) (ports.VectorIndex, error) {
	name := domain.CollectionName(location)
	if name == "" || name == "." {
		return nil, fmt.Errorf("qdrant: empty collection name for %q", location)
	}
	_, err := resilience.Do(ctx, c.executor, "qdrant.collection", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, c.do(ctx, http.MethodGet, c.collectionPath(name, ""), nil, nil, "get collection")
	}, resilience.ClassifyHTTPError)
	if err != nil {
		return nil, domain.WrapError(domain.ErrCollectionUnavailable, "qdrant open "+name, err)
	}
	return &Index{client: c, collection: name}, nil
}

func (c *Client) collectionPath(name, suffix string) string {
	return "/collections/" + url.PathEscape(name) + suffix
}

func (c *Client) do(ctx context.Context, method, path string, payload any, out any, operation string) error {
	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal %s body: %w", operation, err)
		}
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create %s request: %w", operation, err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant %s request: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return resilience.NewHTTPStatusError("qdrant", operation, resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", operation, err)
	}
	return nil
}

// Index is one opened Qdrant collection.
type Index struct {
	client     *Client
	collection string
}

type scoredPoint struct {
	Score   float64        `json:"score"`
	Payload map[string]any `json:"payload"`
}

func (i *Index) Search(ctx context.Context, query string, k int, filter domain.MetadataFilter) ([]domain.Document, error) {
	if k <= 0 {
		return []domain.Document{}, nil
	}
	vector, err := i.client.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("qdrant search %s: embed query: %w", i.collection, err)
	}

	reqBody := map[string]any{
		"vector":       vector,
		"limit":        k,
		"with_payload": true,
	}
	if len(filter) > 0 {
		reqBody["filter"] = buildFilter(filter)
	}

	points, err := resilience.Do(ctx, i.client.executor, "qdrant.search", func(ctx context.Context) ([]scoredPoint, error) {
		var resp struct {
			Result []scoredPoint `json:"result"`
		}
		err := i.client.do(ctx, http.MethodPost, i.client.collectionPath(i.collection, "/points/search"), reqBody, &resp, "search")
		return resp.Result, err
	}, resilience.ClassifyHTTPError)
	if err != nil {
		return nil, resilience.WrapTemporary("qdrant search "+i.collection, err, resilience.ClassifyHTTPError)
	}

	out := make([]domain.Document, 0, len(points))
	for _, p := range points {
		out = append(out, documentFromPayload(p.Payload))
	}
	return out, nil
}

func (i *Index) Sample(ctx context.Context, n int) ([]domain.Document, error) {
	if n <= 0 {
		return []domain.Document{}, nil
	}
	reqBody := map[string]any{
		"limit":        n,
		"with_payload": true,
		"with_vector":  false,
	}

	points, err := resilience.Do(ctx, i.client.executor, "qdrant.scroll", func(ctx context.Context) ([]scoredPoint, error) {
		var resp struct {
			Result struct {
				Points []scoredPoint `json:"points"`
			} `json:"result"`
		}
		err := i.client.do(ctx, http.MethodPost, i.client.collectionPath(i.collection, "/points/scroll"), reqBody, &resp, "scroll")
		return resp.Result.Points, err
	}, resilience.ClassifyHTTPError)
	if err != nil {
		return nil, resilience.WrapTemporary("qdrant scroll "+i.collection, err, resilience.ClassifyHTTPError)
	}

	out := make([]domain.Document, 0, len(points))
	for _, p := range points {
		out = append(out, documentFromPayload(p.Payload))
	}
	return out, nil
}

func buildFilter(filter domain.MetadataFilter) map[string]any {
	must := make([]map[string]any, 0, len(filter))
	for _, key := range filter.Keys() {
		must = append(must, map[string]any{
			"key":   metadataKey + "." + key,
			"match": map[string]any{"value": filter[key]},
		})
	}
	return map[string]any{"must": must}
}

func documentFromPayload(payload map[string]any) domain.Document {
	content, _ := payload[contentKey].(string)
	metadata, _ := payload[metadataKey].(map[string]any)
	return domain.NewDocument(content, metadata)
}
