package es

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/medflow/internal/models"
)

type recorded struct {
	Method string
	Path   string
	Body   string
}

func fakeCluster(t *testing.T, handle func(w http.ResponseWriter, r *http.Request)) (*httptest.Server, *[]recorded) {
	t.Helper()
	var (
		mu   sync.Mutex
		reqs []recorded
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		reqs = append(reqs, recorded{r.Method, r.URL.Path, string(b)})
		mu.Unlock()

		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/" {
			_, _ = w.Write([]byte(`{"version":{"number":"9.0.0"},"tagline":"You Know, for Search"}`))
			return
		}
		handle(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, &reqs
}

func TestNewClient_DisabledWithoutURL(t *testing.T) {
	c, err := NewClient(context.Background(), Config{}, slog.Default())
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestKeyBindingIndex_Search(t *testing.T) {
	srv, reqs := fakeCluster(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"hits":{"total":{"value":1},"hits":[{"_source":{"id":7,"user_id":"u1","shortcut":";hpi","template":"History","category":"notes","is_active":true}}]}}`))
	})

	client, err := NewClient(context.Background(), Config{URL: srv.URL}, slog.Default())
	require.NoError(t, err)

	idx := &KeyBindingIndex{ES: client, Index: "key_bindings"}
	total, items, err := idx.Search(context.Background(), "u1", "histroy", 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, uint(7), items[0].ID)
	assert.Equal(t, ";hpi", items[0].Shortcut)

	last := (*reqs)[len(*reqs)-1]
	assert.Equal(t, "/key_bindings/_search", last.Path)

	var q map[string]any
	require.NoError(t, json.Unmarshal([]byte(last.Body), &q))
	assert.Contains(t, last.Body, `"user_id":"u1"`)
	assert.EqualValues(t, 10, q["size"])
}

func TestKeyBindingIndex_PutAndRemove(t *testing.T) {
	srv, reqs := fakeCluster(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"result":"not_found"}`))
			return
		}
		_, _ = w.Write([]byte(`{"result":"created"}`))
	})

	client, err := NewClient(context.Background(), Config{URL: srv.URL}, slog.Default())
	require.NoError(t, err)
	idx := &KeyBindingIndex{ES: client, Index: "key_bindings"}

	require.NoError(t, idx.Put(context.Background(), models.KeyBinding{ID: 3, UserID: "u1", Shortcut: ";a", Template: "b"}))
	put := (*reqs)[len(*reqs)-1]
	assert.True(t, strings.HasSuffix(put.Path, "/3"), put.Path)
	assert.Contains(t, put.Body, `"shortcut":";a"`)

	assert.NoError(t, idx.Remove(context.Background(), 3))
}

func TestKeyBindingIndex_SearchError(t *testing.T) {
	srv, _ := fakeCluster(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"boom"}`))
	})
	client, err := NewClient(context.Background(), Config{URL: srv.URL}, slog.Default())
	require.NoError(t, err)

	idx := &KeyBindingIndex{ES: client, Index: "key_bindings"}
	_, _, err = idx.Search(context.Background(), "u1", "x", 0, 10)
	assert.Error(t, err)
}
