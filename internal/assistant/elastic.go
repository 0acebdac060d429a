package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/elastic/go-elasticsearch/v9"
)

type ESConfig struct {
	URL      string
	User     string
	Password string
	Index    string

	// Transport replaces the HTTP transport; tests use it.
	Transport http.RoundTripper
}

// NewESClient connects to Elasticsearch and checks the cluster answers.
func NewESClient(ctx context.Context, cfg ESConfig) (*elasticsearch.Client, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.User,
		Password:  cfg.Password,
		Transport: cfg.Transport,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch client: %w", err)
	}

	res, err := client.Info(client.Info.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("elasticsearch info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("elasticsearch info: %s: %s", res.Status(), body)
	}
	return client, nil
}

// ESRetriever searches the knowledge base stored in an Elasticsearch index.
type ESRetriever struct {
	es    *elasticsearch.Client
	index string
}

func NewESRetriever(es *elasticsearch.Client, index string) *ESRetriever {
	return &ESRetriever{es: es, index: index}
}

// Seed writes docs into the index under their ids, so reseeding on every
// start overwrites instead of duplicating.
func (r *ESRetriever) Seed(ctx context.Context, docs []Doc) error {
	for _, d := range docs {
		body, err := json.Marshal(d)
		if err != nil {
			return err
		}
		res, err := r.es.Index(r.index, bytes.NewReader(body),
			r.es.Index.WithContext(ctx),
			r.es.Index.WithDocumentID(d.ID),
			r.es.Index.WithRefresh("true"),
		)
		if err != nil {
			return fmt.Errorf("index %s: %w", d.ID, err)
		}
		res.Body.Close()
		if res.IsError() {
			return fmt.Errorf("index %s: %s", d.ID, res.Status())
		}
	}
	return nil
}

func (r *ESRetriever) Retrieve(ctx context.Context, query string, k int) ([]Passage, error) {
	body := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     query,
				"fields":    []string{"title^2", "content"},
				"fuzziness": "AUTO",
			},
		},
		"size": k,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}

	res, err := r.es.Search(
		r.es.Search.WithContext(ctx),
		r.es.Search.WithIndex(r.index),
		r.es.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("search: %s", res.Status())
	}

	var out struct {
		Hits struct {
			Hits []struct {
				Score  float64 `json:"_score"`
				Source Doc     `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode search: %w", err)
	}

	passages := make([]Passage, 0, len(out.Hits.Hits))
	for _, h := range out.Hits.Hits {
		passages = append(passages, Passage{Source: h.Source.ID, Text: h.Source.Content, Score: h.Score})
	}
	return passages, nil
}
