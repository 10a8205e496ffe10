// Package es 提供了与 Elasticsearch 交互的客户端功能。
package es

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"pai-assistant-go/internal/config"
	"pai-assistant-go/internal/model"
	"pai-assistant-go/pkg/log"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// pageMapping 是已入库网页目录索引的结构。
const pageMapping = `{
	"mappings": {
		"properties": {
			"job_id": { "type": "keyword" },
			"source_url": { "type": "keyword" },
			"host": { "type": "keyword" },
			"file_name": { "type": "keyword" },
			"file_id": { "type": "keyword" },
			"content": { "type": "text" },
			"snapshot_at": { "type": "date" }
		}
	}
}`

// Catalog 在 Elasticsearch 中维护已入库网页的目录，支持关键字查找。
type Catalog struct {
	client *elasticsearch.Client
	index  string
}

// InitES 初始化 Elasticsearch 客户端并确保索引存在。
func InitES(esCfg config.ElasticsearchConfig) (*Catalog, error) {
	client, err := newClient(esCfg)
	if err != nil {
		return nil, err
	}
	c := NewCatalog(client, esCfg.IndexName)
	if err := c.createIndexIfNotExists(); err != nil {
		return nil, err
	}
	return c, nil
}

func newClient(esCfg config.ElasticsearchConfig) (*elasticsearch.Client, error) {
	return elasticsearch.NewClient(elasticsearch.Config{
		Addresses: strings.Split(esCfg.Addresses, ","),
		Username:  esCfg.Username,
		Password:  esCfg.Password,
	})
}

// NewCatalog 使用已有的客户端创建 Catalog。
func NewCatalog(client *elasticsearch.Client, index string) *Catalog {
	return &Catalog{client: client, index: index}
}

// createIndexIfNotExists 检查索引是否存在，如果不存在则创建它
func (c *Catalog) createIndexIfNotExists() error {
	res, err := c.client.Indices.Exists([]string{c.index})
	if err != nil {
		log.Errorf("检查索引是否存在时出错: %v", err)
		return err
	}
	res.Body.Close()
	// 如果 res.StatusCode 是 200，说明索引已存在
	if res.StatusCode == http.StatusOK {
		log.Infof("索引 '%s' 已存在", c.index)
		return nil
	}
	// 如果 res.StatusCode 是 404，说明索引不存在，需要创建
	if res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("检查索引是否存在时收到意外的状态码: %d", res.StatusCode)
	}

	res, err = c.client.Indices.Create(c.index, c.client.Indices.Create.WithBody(strings.NewReader(pageMapping)))
	if err != nil {
		log.Errorf("创建索引 '%s' 失败: %v", c.index, err)
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		log.Errorf("创建索引 '%s' 时 Elasticsearch 返回错误: %s", c.index, res.String())
		return errors.New("创建索引时 Elasticsearch 返回错误")
	}

	log.Infof("索引 '%s' 创建成功", c.index)
	return nil
}

// IndexPage 将一个网页快照写入目录，以 JobID 作为文档 ID。
func (c *Catalog) IndexPage(ctx context.Context, page model.KnowledgePage) error {
	docBytes, err := json.Marshal(page)
	if err != nil {
		return err
	}

	req := esapi.IndexRequest{
		Index:      c.index,
		DocumentID: page.JobID,
		Body:       bytes.NewReader(docBytes),
		Refresh:    "true",
	}
	res, err := req.Do(ctx, c.client)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		log.Errorf("索引文档到 Elasticsearch 出错: %s", res.String())
		return errors.New("failed to index page")
	}
	return nil
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Score     float64             `json:"_score"`
			Source    model.KnowledgePage `json:"_source"`
			Highlight struct {
				Content []string `json:"content"`
			} `json:"highlight"`
		} `json:"hits"`
	} `json:"hits"`
}

// SearchPages 在已入库网页中做全文检索。
func (c *Catalog) SearchPages(ctx context.Context, query string, size int) ([]model.PageHit, error) {
	var buf bytes.Buffer
	esQuery := map[string]interface{}{
		"query": map[string]interface{}{
			"match": map[string]interface{}{"content": query},
		},
		"highlight": map[string]interface{}{
			"fields": map[string]interface{}{
				"content": map[string]interface{}{"fragment_size": 200, "number_of_fragments": 1},
			},
		},
		"_source": []string{"job_id", "source_url", "file_name"},
		"size":    size,
	}
	if err := json.NewEncoder(&buf).Encode(esQuery); err != nil {
		return nil, fmt.Errorf("failed to encode es query: %w", err)
	}

	res, err := c.client.Search(
		c.client.Search.WithContext(ctx),
		c.client.Search.WithIndex(c.index),
		c.client.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch search failed: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch search returned error: %s", res.String())
	}

	var sr searchResponse
	if err := json.NewDecoder(res.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("failed to decode es response: %w", err)
	}
	hits := make([]model.PageHit, 0, len(sr.Hits.Hits))
	for _, h := range sr.Hits.Hits {
		hit := model.PageHit{
			JobID:     h.Source.JobID,
			SourceURL: h.Source.SourceURL,
			FileName:  h.Source.FileName,
			Score:     h.Score,
		}
		if len(h.Highlight.Content) > 0 {
			hit.Snippet = h.Highlight.Content[0]
		}
		hits = append(hits, hit)
	}
	return hits, nil
}
