package service

import (
	"context"
	"errors"
	"fmt"
	"pai-assistant-go/internal/model"
	"pai-assistant-go/internal/repository"
	"pai-assistant-go/pkg/log"
	"pai-assistant-go/pkg/storage"
	"pai-assistant-go/pkg/urlutil"
	"strings"
	"time"

	"gorm.io/gorm"
)

const (
	snapshotLinkExpiry = time.Hour
	maxSearchSize      = 50
	maxListSize        = 100
)

// PageSearcher 在已入库网页中全文检索，由 Elasticsearch 目录实现。
type PageSearcher interface {
	SearchPages(ctx context.Context, query string, size int) ([]model.PageHit, error)
}

// SnapshotLinker 为快照生成临时下载链接，由 MinIO 实现。
type SnapshotLinker interface {
	GetPresignedURL(ctx context.Context, objectName string, expiry time.Duration) (string, error)
}

// JobView 是入库任务的查询结果。
type JobView struct {
	model.KnowledgeFile
	SnapshotURL string `json:"snapshotUrl,omitempty"`
}

// CatalogService 定义了入库记录与网页目录的查询接口。
type CatalogService interface {
	JobStatus(ctx context.Context, jobID string) (JobView, error)
	ListJobs(ctx context.Context, limit int) ([]model.KnowledgeFile, error)
	Search(ctx context.Context, query string, size int) ([]model.PageHit, error)
}

type catalogService struct {
	ledger   repository.KnowledgeFileRepository
	searcher PageSearcher
	linker   SnapshotLinker
}

// NewCatalogService 创建一个新的 CatalogService。searcher 和 linker 可以为 nil。
func NewCatalogService(ledger repository.KnowledgeFileRepository, searcher PageSearcher, linker SnapshotLinker) CatalogService {
	return &catalogService{ledger: ledger, searcher: searcher, linker: linker}
}

// JobStatus 查询入库任务；任务完成时附带快照下载链接。
func (s *catalogService) JobStatus(ctx context.Context, jobID string) (JobView, error) {
	record, err := s.ledger.FindByJobID(ctx, jobID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return JobView{}, fmt.Errorf("%w: job %s", ErrNotFound, jobID)
	}
	if err != nil {
		return JobView{}, err
	}

	view := JobView{KnowledgeFile: *record}
	if s.linker != nil && record.Status == model.KnowledgeStatusCompleted {
		host := strings.TrimSuffix(record.FileName, urlutil.ContentExtension)
		link, err := s.linker.GetPresignedURL(ctx, storage.ObjectName(host, record.JobID), snapshotLinkExpiry)
		if err != nil {
			log.Warnw("[CatalogService] 生成快照链接失败", "jobId", jobID, "error", err)
		} else {
			view.SnapshotURL = link
		}
	}
	return view, nil
}

// ListJobs 返回最近的入库记录。
func (s *catalogService) ListJobs(ctx context.Context, limit int) ([]model.KnowledgeFile, error) {
	if limit <= 0 || limit > maxListSize {
		limit = maxListSize
	}
	return s.ledger.ListRecent(ctx, limit)
}

// Search 在已入库网页中检索。
func (s *catalogService) Search(ctx context.Context, query string, size int) ([]model.PageHit, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query is empty", ErrValidation)
	}
	if s.searcher == nil {
		return []model.PageHit{}, nil
	}
	if size <= 0 {
		size = 10
	}
	if size > maxSearchSize {
		size = maxSearchSize
	}
	return s.searcher.SearchPages(ctx, query, size)
}
