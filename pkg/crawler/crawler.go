// Package crawler fetches a web page and extracts its readable text.
package crawler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"pai-assistant-go/internal/config"
	"pai-assistant-go/pkg/log"
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

var (
	multiNewlinePattern = regexp.MustCompile(`\n{3,}`)
	multiSpacePattern   = regexp.MustCompile(`[ \t]{2,}`)
)

// TextExtractor converts binary documents (PDF, Office) to text.
type TextExtractor interface {
	ExtractText(ctx context.Context, r io.Reader, contentType string) (string, error)
}

// Result is the outcome of a fetch that reached the server. OK is false for non-200
// responses or content types that could not be converted.
type Result struct {
	OK          bool
	StatusCode  int
	ContentType string
	Text        string
}

// Crawler fetches pages over HTTP.
type Crawler struct {
	cfg       config.CrawlerConfig
	client    *http.Client
	extractor TextExtractor
}

// New creates a Crawler. extractor may be nil, in which case non-text documents are
// reported as unsuccessful.
func New(cfg config.CrawlerConfig, extractor TextExtractor) *Crawler {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 2 << 20
	}
	return &Crawler{
		cfg:       cfg,
		client:    &http.Client{Timeout: cfg.Timeout},
		extractor: extractor,
	}
}

// Fetch retrieves url and returns its text. A returned error means the request itself failed.
func (c *Crawler) Fetch(ctx context.Context, url string) (Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Result{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9,*/*;q=0.8")

	resp, err := c.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("failed to fetch url: %w", err)
	}
	defer resp.Body.Close()

	res := Result{StatusCode: resp.StatusCode}
	if resp.StatusCode != http.StatusOK {
		log.Warnw("[Crawler] non-200 response", "url", url, "status", resp.StatusCode)
		return res, nil
	}

	contentType := resp.Header.Get("Content-Type")
	mediaType, _, _ := mime.ParseMediaType(contentType)

	// A page over the limit is rejected rather than ingested partially.
	body, err := io.ReadAll(io.LimitReader(resp.Body, c.cfg.MaxBodyBytes+1))
	if err != nil {
		return Result{}, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) > c.cfg.MaxBodyBytes {
		log.Warnw("[Crawler] response body too large", "url", url, "limit", c.cfg.MaxBodyBytes)
		res.ContentType = mediaType
		return res, nil
	}

	if mediaType == "" {
		mediaType, _, _ = mime.ParseMediaType(http.DetectContentType(body))
	}
	res.ContentType = mediaType

	switch {
	case mediaType == "text/html" || mediaType == "application/xhtml+xml":
		content, err := decode(body, contentType)
		if err != nil {
			return Result{}, err
		}
		text, err := HTMLToText(content)
		if err != nil {
			return Result{}, fmt.Errorf("failed to parse html: %w", err)
		}
		res.Text = text
	case strings.HasPrefix(mediaType, "text/"):
		content, err := decode(body, contentType)
		if err != nil {
			return Result{}, err
		}
		res.Text = strings.TrimSpace(content)
	case c.extractor != nil:
		text, err := c.extractor.ExtractText(ctx, bytes.NewReader(body), mediaType)
		if err != nil {
			log.Warnw("[Crawler] text extraction failed", "url", url, "contentType", mediaType, "error", err)
			return res, nil
		}
		res.Text = strings.TrimSpace(text)
	default:
		log.Warnw("[Crawler] unsupported content type", "url", url, "contentType", mediaType)
		return res, nil
	}

	res.OK = true
	log.Infow("[Crawler] fetched", "url", url, "contentType", mediaType, "chars", len(res.Text))
	return res, nil
}

// decode converts body to UTF-8 using the charset from the Content-Type header,
// falling back to <meta> sniffing for HTML.
func decode(body []byte, contentType string) (string, error) {
	r, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return "", fmt.Errorf("failed to decode charset: %w", err)
	}
	decoded, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to decode charset: %w", err)
	}
	return string(decoded), nil
}

// HTMLToText converts an HTML document to a light markdown rendering of its visible text.
func HTMLToText(htmlContent string) (string, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	extractText(doc, &sb, 0)
	return cleanText(sb.String()), nil
}

func extractText(n *html.Node, sb *strings.Builder, depth int) {
	if depth > 100 {
		return
	}

	switch n.Type {
	case html.TextNode:
		text := strings.TrimSpace(n.Data)
		if text != "" {
			sb.WriteString(text)
			sb.WriteString(" ")
		}
	case html.ElementNode:
		switch n.Data {
		case "script", "style", "noscript", "iframe", "svg", "nav", "footer", "template":
			return
		case "title":
			sb.WriteString("# ")
		case "h1":
			sb.WriteString("\n\n# ")
		case "h2":
			sb.WriteString("\n\n## ")
		case "h3", "h4", "h5", "h6":
			sb.WriteString("\n\n### ")
		case "p", "div", "section", "article", "table":
			sb.WriteString("\n\n")
		case "br", "tr":
			sb.WriteString("\n")
		case "li":
			sb.WriteString("\n- ")
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		extractText(c, sb, depth+1)
	}

	if n.Type == html.ElementNode {
		switch n.Data {
		case "title", "h1", "h2", "h3", "h4", "h5", "h6", "p":
			sb.WriteString("\n\n")
		}
	}
}

func cleanText(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(multiSpacePattern.ReplaceAllString(line, " "))
	}
	s = strings.Join(lines, "\n")
	s = multiNewlinePattern.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
