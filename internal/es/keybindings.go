package es

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/Skotchmaster/medflow/internal/models"
)

const keyBindingMapping = `{
  "mappings": {
    "properties": {
      "id":        {"type": "long"},
      "user_id":   {"type": "keyword"},
      "shortcut":  {"type": "text", "fields": {"raw": {"type": "keyword"}}},
      "template":  {"type": "text"},
      "category":  {"type": "text", "fields": {"raw": {"type": "keyword"}}},
      "is_active": {"type": "boolean"}
    }
  }
}`

// KeyBindingIndex mirrors key bindings into an Elasticsearch index for template search.
type KeyBindingIndex struct {
	ES    *elasticsearch.Client
	Index string
}

func (x *KeyBindingIndex) EnsureIndex(ctx context.Context) error {
	res, err := x.ES.Indices.Exists([]string{x.Index}, x.ES.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("index exists: %w", err)
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}

	res, err = x.ES.Indices.Create(x.Index,
		x.ES.Indices.Create.WithContext(ctx),
		x.ES.Indices.Create.WithBody(bytes.NewReader([]byte(keyBindingMapping))),
	)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return responseError("create index", res.Status(), res.Body)
	}
	return nil
}

func (x *KeyBindingIndex) Put(ctx context.Context, kb models.KeyBinding) error {
	body, err := json.Marshal(kb)
	if err != nil {
		return err
	}
	res, err := x.ES.Index(x.Index, bytes.NewReader(body),
		x.ES.Index.WithContext(ctx),
		x.ES.Index.WithDocumentID(strconv.FormatUint(uint64(kb.ID), 10)),
	)
	if err != nil {
		return fmt.Errorf("index key binding: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return responseError("index key binding", res.Status(), res.Body)
	}
	return nil
}

func (x *KeyBindingIndex) Remove(ctx context.Context, id uint) error {
	res, err := x.ES.Delete(x.Index, strconv.FormatUint(uint64(id), 10), x.ES.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("delete key binding: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return responseError("delete key binding", res.Status(), res.Body)
	}
	return nil
}

// RemoveUser drops every document owned by userID.
func (x *KeyBindingIndex) RemoveUser(ctx context.Context, userID string) error {
	body, err := json.Marshal(map[string]any{
		"query": map[string]any{"term": map[string]any{"user_id": userID}},
	})
	if err != nil {
		return err
	}
	res, err := x.ES.DeleteByQuery([]string{x.Index}, bytes.NewReader(body), x.ES.DeleteByQuery.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("delete user key bindings: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return responseError("delete user key bindings", res.Status(), res.Body)
	}
	return nil
}

func (x *KeyBindingIndex) Search(ctx context.Context, userID, query string, from, size int) (int64, []models.KeyBinding, error) {
	body := map[string]any{
		"query": map[string]any{
			"bool": map[string]any{
				"must": map[string]any{
					"multi_match": map[string]any{
						"query":     query,
						"fields":    []string{"shortcut^3", "template", "category"},
						"fuzziness": "AUTO",
					},
				},
				"filter": []any{
					map[string]any{"term": map[string]any{"user_id": userID}},
				},
			},
		},
		"from": from,
		"size": size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, err
	}

	res, err := x.ES.Search(
		x.ES.Search.WithContext(ctx),
		x.ES.Search.WithIndex(x.Index),
		x.ES.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("search key bindings: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, nil, responseError("search key bindings", res.Status(), res.Body)
	}

	var r struct {
		Hits struct {
			Total struct{ Value int64 } `json:"total"`
			Hits  []struct {
				Source models.KeyBinding `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, err
	}

	items := make([]models.KeyBinding, len(r.Hits.Hits))
	for i, hit := range r.Hits.Hits {
		items[i] = hit.Source
	}
	return r.Hits.Total.Value, items, nil
}

func responseError(op, status string, body io.Reader) error {
	b, _ := io.ReadAll(body)
	return fmt.Errorf("%s: %s: %s", op, status, b)
}
