package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/elastic/go-elasticsearch/v9/esapi"

	"github.com/Skotchmaster/userpanel/pkg/logging"
)

type ElasticConfig struct {
	URL      string
	Username string
	Password string
	Index    string
}

type Elastic struct {
	client *elasticsearch.Client
	index  string
}

// NewElastic connects to the cluster and checks it answers before returning.
func NewElastic(ctx context.Context, cfg ElasticConfig) (*Elastic, error) {
	l := logging.FromContext(ctx).With("svc", "directory.elastic")
	l.Info("es_connecting", "url", cfg.URL, "index", cfg.Index)

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("es: new client: %w", err)
	}

	res, err := client.Info(client.Info.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("es: info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		l.Error("es_info_failed", "status", res.StatusCode, "body", string(body))
		return nil, fmt.Errorf("es: info: %s", res.Status())
	}

	l.Info("es_connected")
	return &Elastic{client: client, index: cfg.Index}, nil
}

func (e *Elastic) Index(ctx context.Context, entry Entry) error {
	body, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("es: marshal: %w", err)
	}

	res, err := e.client.Index(
		e.index,
		bytes.NewReader(body),
		e.client.Index.WithContext(ctx),
		e.client.Index.WithDocumentID(entry.Username),
		e.client.Index.WithRefresh("true"),
	)
	if err != nil {
		return fmt.Errorf("es: index: %w", err)
	}
	return checkResponse(res, "index")
}

func (e *Elastic) Remove(ctx context.Context, username string) error {
	res, err := e.client.Delete(
		e.index,
		username,
		e.client.Delete.WithContext(ctx),
		e.client.Delete.WithRefresh("true"),
	)
	if err != nil {
		return fmt.Errorf("es: delete: %w", err)
	}
	if res.StatusCode == http.StatusNotFound {
		res.Body.Close()
		return nil
	}
	return checkResponse(res, "delete")
}

type searchResponse struct {
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []struct {
			Source Entry `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func (e *Elastic) Search(ctx context.Context, q string, limit int) ([]Entry, error) {
	q, limit = normalize(q, limit)
	if q == "" {
		return []Entry{}, nil
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(searchQuery(q, limit)); err != nil {
		return nil, fmt.Errorf("es: encode query: %w", err)
	}

	res, err := e.client.Search(
		e.client.Search.WithContext(ctx),
		e.client.Search.WithIndex(e.index),
		e.client.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, fmt.Errorf("es: search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("es: search: %s: %s", res.Status(), body)
	}

	var sr searchResponse
	if err := json.NewDecoder(res.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("es: decode: %w", err)
	}

	out := make([]Entry, 0, len(sr.Hits.Hits))
	for _, h := range sr.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}

func searchQuery(q string, limit int) map[string]any {
	return map[string]any{
		"size": limit,
		"sort": []any{map[string]any{"username.keyword": "asc"}},
		"query": map[string]any{
			"bool": map[string]any{
				"should": []any{
					map[string]any{"prefix": map[string]any{"username.keyword": q}},
					map[string]any{"prefix": map[string]any{"email.keyword": q}},
				},
				"minimum_should_match": 1,
			},
		},
	}
}

func checkResponse(res *esapi.Response, op string) error {
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return fmt.Errorf("es: %s: %s: %s", op, res.Status(), body)
	}
	return nil
}
