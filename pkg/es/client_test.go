package es

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"pai-assistant-go/internal/config"
	"pai-assistant-go/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeES(t *testing.T, h http.HandlerFunc) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		h(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

func TestInitESCreatesIndex(t *testing.T) {
	var created bool
	addr := fakeES(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodHead && r.URL.Path == "/pages":
			w.WriteHeader(http.StatusNotFound)
		case r.Method == http.MethodPut && r.URL.Path == "/pages":
			body, _ := io.ReadAll(r.Body)
			assert.Contains(t, string(body), `"source_url"`)
			created = true
			_, _ = io.WriteString(w, `{"acknowledged":true}`)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	})

	c, err := InitES(config.ElasticsearchConfig{Addresses: addr, IndexName: "pages"})
	require.NoError(t, err)
	assert.NotNil(t, c)
	assert.True(t, created)
}

func TestIndexAndSearchPages(t *testing.T) {
	addr := fakeES(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/pages/_doc/job-1":
			var page model.KnowledgePage
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&page))
			assert.Equal(t, "news.example", page.Host)
			w.WriteHeader(http.StatusCreated)
			_, _ = io.WriteString(w, `{"result":"created"}`)
		case r.URL.Path == "/pages/_search":
			body, _ := io.ReadAll(r.Body)
			assert.True(t, strings.Contains(string(body), `"flood"`))
			_, _ = io.WriteString(w, `{"hits":{"hits":[{"_score":1.5,"_source":{"job_id":"job-1","source_url":"https://news.example/a","file_name":"news.example.md"},"highlight":{"content":["<em>Flood</em> warning"]}}]}}`)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	})

	client, err := newClient(config.ElasticsearchConfig{Addresses: addr})
	require.NoError(t, err)
	c := NewCatalog(client, "pages")

	require.NoError(t, c.IndexPage(context.Background(), model.KnowledgePage{JobID: "job-1", Host: "news.example", Content: "Flood warning"}))

	hits, err := c.SearchPages(context.Background(), "flood", 5)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, model.PageHit{
		JobID:     "job-1",
		SourceURL: "https://news.example/a",
		FileName:  "news.example.md",
		Snippet:   "<em>Flood</em> warning",
		Score:     1.5,
	}, hits[0])
}

func TestSearchPagesError(t *testing.T) {
	addr := fakeES(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"error":"boom"}`)
	})
	client, err := newClient(config.ElasticsearchConfig{Addresses: addr})
	require.NoError(t, err)

	_, err = NewCatalog(client, "pages").SearchPages(context.Background(), "flood", 5)
	assert.Error(t, err)
}
