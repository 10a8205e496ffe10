package crawler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"pai-assistant-go/internal/config"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const page = `<html><head><title>News</title><script>track()</script><style>p{}</style></head>
<body><nav>menu</nav><h1>Alert</h1><p>Flood   warning issued.</p><footer>(c)</footer></body></html>`

type fakeExtractor struct {
	text string
	err  error
}

func (f fakeExtractor) ExtractText(ctx context.Context, r io.Reader, contentType string) (string, error) {
	return f.text, f.err
}

func serve(t *testing.T, contentType string, status int, body string) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		if contentType != "" {
			w.Header().Set("Content-Type", contentType)
		}
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

func TestHTMLToText(t *testing.T) {
	text, err := HTMLToText(page)
	require.NoError(t, err)
	assert.Equal(t, "# News\n\n# Alert\n\nFlood warning issued.", text)
}

func TestFetch(t *testing.T) {
	cfg := config.CrawlerConfig{UserAgent: "test-agent"}

	t.Run("html", func(t *testing.T) {
		url := serve(t, "text/html; charset=utf-8", http.StatusOK, page)
		res, err := New(cfg, nil).Fetch(context.Background(), url)
		require.NoError(t, err)
		assert.True(t, res.OK)
		assert.Equal(t, "text/html", res.ContentType)
		assert.Contains(t, res.Text, "Flood warning issued.")
		assert.NotContains(t, res.Text, "track()")
		assert.NotContains(t, res.Text, "menu")
	})

	t.Run("plain text", func(t *testing.T) {
		url := serve(t, "text/plain", http.StatusOK, "  Flood warning issued.\n")
		res, err := New(cfg, nil).Fetch(context.Background(), url)
		require.NoError(t, err)
		assert.True(t, res.OK)
		assert.Equal(t, "Flood warning issued.", res.Text)
	})

	t.Run("not found is unsuccessful", func(t *testing.T) {
		url := serve(t, "text/html", http.StatusNotFound, "nope")
		res, err := New(cfg, nil).Fetch(context.Background(), url)
		require.NoError(t, err)
		assert.False(t, res.OK)
		assert.Equal(t, http.StatusNotFound, res.StatusCode)
	})

	t.Run("binary via extractor", func(t *testing.T) {
		url := serve(t, "application/pdf", http.StatusOK, "%PDF-1.4")
		res, err := New(cfg, fakeExtractor{text: " Route B "}).Fetch(context.Background(), url)
		require.NoError(t, err)
		assert.True(t, res.OK)
		assert.Equal(t, "Route B", res.Text)
	})

	t.Run("binary extractor failure", func(t *testing.T) {
		url := serve(t, "application/pdf", http.StatusOK, "%PDF-1.4")
		res, err := New(cfg, fakeExtractor{err: errors.New("tika down")}).Fetch(context.Background(), url)
		require.NoError(t, err)
		assert.False(t, res.OK)
	})

	t.Run("binary without extractor", func(t *testing.T) {
		url := serve(t, "application/pdf", http.StatusOK, "%PDF-1.4")
		res, err := New(cfg, nil).Fetch(context.Background(), url)
		require.NoError(t, err)
		assert.False(t, res.OK)
	})

	t.Run("latin-1 body is decoded", func(t *testing.T) {
		url := serve(t, "text/plain; charset=iso-8859-1", http.StatusOK, "caf\xe9 ouvert")
		res, err := New(cfg, nil).Fetch(context.Background(), url)
		require.NoError(t, err)
		assert.True(t, res.OK)
		assert.Equal(t, "café ouvert", res.Text)
	})

	t.Run("html meta charset is honoured", func(t *testing.T) {
		body := "<html><head><meta charset=\"iso-8859-1\"></head><body><p>na\xefve</p></body></html>"
		url := serve(t, "text/html", http.StatusOK, body)
		res, err := New(cfg, nil).Fetch(context.Background(), url)
		require.NoError(t, err)
		assert.True(t, res.OK)
		assert.Contains(t, res.Text, "naïve")
	})

	t.Run("oversize body is unsuccessful", func(t *testing.T) {
		url := serve(t, "text/plain; charset=utf-8", http.StatusOK, strings.Repeat("警", 400))
		res, err := New(config.CrawlerConfig{UserAgent: "test-agent", MaxBodyBytes: 1000}, nil).Fetch(context.Background(), url)
		require.NoError(t, err)
		assert.False(t, res.OK)
		assert.Equal(t, http.StatusOK, res.StatusCode)
		assert.Equal(t, "text/plain", res.ContentType)
		assert.Empty(t, res.Text)
	})

	t.Run("body at the limit is kept whole", func(t *testing.T) {
		body := strings.Repeat("警", 400)
		url := serve(t, "text/plain; charset=utf-8", http.StatusOK, body)
		res, err := New(config.CrawlerConfig{UserAgent: "test-agent", MaxBodyBytes: int64(len(body))}, nil).Fetch(context.Background(), url)
		require.NoError(t, err)
		assert.True(t, res.OK)
		assert.Equal(t, body, res.Text)
		assert.True(t, utf8.ValidString(res.Text))
	})

	t.Run("malformed request url", func(t *testing.T) {
		url := serve(t, "text/plain", http.StatusOK, "x")
		_, err := New(cfg, nil).Fetch(context.Background(), url+"\x7f")
		assert.Error(t, err)
	})
}
