package service

import (
	"context"
	"fmt"
	"pai-assistant-go/internal/model"
	"pai-assistant-go/internal/repository"
	"pai-assistant-go/pkg/log"
	"pai-assistant-go/pkg/tasks"
	"pai-assistant-go/pkg/urlutil"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TaskPublisher 发布异步入库任务，由 Kafka 生产者实现。
type TaskPublisher interface {
	PublishIngestTask(ctx context.Context, task tasks.IngestTask) error
}

// Facade 是调用方（HTTP 与 Kafka 消费者）使用的入口，组合问答与入库两条流程。
type Facade struct {
	assistant AssistantService
	knowledge KnowledgeService
	fetcher   ContentFetcher
	archiver  PageArchiver
	publisher TaskPublisher
	ledger    repository.KnowledgeFileRepository
}

// FacadeOption 配置 Facade 的可选依赖。
type FacadeOption func(*Facade)

// WithArchiver 在入库完成后归档网页。
func WithArchiver(a PageArchiver) FacadeOption {
	return func(f *Facade) { f.archiver = a }
}

// WithTaskPublisher 启用异步入库。
func WithTaskPublisher(p TaskPublisher) FacadeOption {
	return func(f *Facade) { f.publisher = p }
}

// WithLedger 让异步入库在排队时就写入台账。
func WithLedger(l repository.KnowledgeFileRepository) FacadeOption {
	return func(f *Facade) { f.ledger = l }
}

// NewFacade 创建一个新的 Facade。
func NewFacade(assistant AssistantService, knowledge KnowledgeService, fetcher ContentFetcher, opts ...FacadeOption) *Facade {
	f := &Facade{
		assistant: assistant,
		knowledge: knowledge,
		fetcher:   fetcher,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// AnswerQuestion 转交给问答编排。
func (f *Facade) AnswerQuestion(ctx context.Context, question, conversationID string) (model.Answer, error) {
	return f.assistant.Answer(ctx, question, conversationID)
}

// IngestURL 校验、抓取并入库一个网页，返回抓取到的文本。
func (f *Facade) IngestURL(ctx context.Context, rawURL string) (model.IngestResult, error) {
	return f.IngestJob(ctx, "", rawURL)
}

// IngestJob 与 IngestURL 相同，但使用调用方给定的 jobID，供异步任务使用。
func (f *Facade) IngestJob(ctx context.Context, jobID, rawURL string) (model.IngestResult, error) {
	// 1. 校验，失败时不发起任何网络请求
	if !urlutil.Validate(rawURL) {
		return model.IngestResult{}, f.failJob(ctx, jobID, fmt.Errorf("%w: %q", ErrInvalidURL, rawURL))
	}

	// 2. 抓取
	res, err := f.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return model.IngestResult{}, f.failJob(ctx, jobID, fmt.Errorf("%w: %s: %w", ErrFetch, rawURL, err))
	}
	if !res.OK {
		return model.IngestResult{}, f.failJob(ctx, jobID, fmt.Errorf("%w: %s returned status %d (%s)", ErrFetch, rawURL, res.StatusCode, res.ContentType))
	}
	if strings.TrimSpace(res.Text) == "" {
		return model.IngestResult{}, f.failJob(ctx, jobID, fmt.Errorf("%w: %s has no text content", ErrFetch, rawURL))
	}

	// 3. 入库
	filename, err := urlutil.Filename(rawURL)
	if err != nil {
		return model.IngestResult{}, f.failJob(ctx, jobID, fmt.Errorf("%w: %w", ErrInvalidURL, err))
	}
	receipt, err := f.knowledge.IngestFile(ctx, IngestRequest{
		JobID:     jobID,
		SourceURL: rawURL,
		FileName:  filename,
		Content:   []byte(res.Text),
	})
	if err != nil {
		return model.IngestResult{}, err
	}

	// 4. 归档
	if f.archiver != nil {
		f.archiver.Archive(ctx, model.KnowledgePage{
			JobID:      receipt.JobID,
			SourceURL:  rawURL,
			Host:       strings.TrimSuffix(filename, urlutil.ContentExtension),
			FileName:   filename,
			FileID:     receipt.FileID,
			Content:    res.Text,
			SnapshotAt: time.Now(),
		})
	}

	return model.IngestResult{Content: res.Text}, nil
}

// EnqueueIngest 校验 URL 并发布异步入库任务，返回任务 ID。
func (f *Facade) EnqueueIngest(ctx context.Context, rawURL, requestedBy string) (string, error) {
	if !urlutil.Validate(rawURL) {
		return "", fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}
	if f.publisher == nil {
		return "", fmt.Errorf("%w: async ingestion is not enabled", ErrTransport)
	}

	task := tasks.IngestTask{
		JobID:       uuid.NewString(),
		URL:         rawURL,
		RequestedBy: requestedBy,
		RequestedAt: time.Now(),
	}
	filename, _ := urlutil.Filename(rawURL)
	f.track(ctx, task.JobID, func(ctx context.Context) error {
		return f.ledger.Upsert(ctx, &model.KnowledgeFile{
			JobID:     task.JobID,
			SourceURL: rawURL,
			FileName:  filename,
			Status:    model.KnowledgeStatusQueued,
		})
	})
	if err := f.publisher.PublishIngestTask(ctx, task); err != nil {
		f.track(ctx, task.JobID, func(ctx context.Context) error {
			return f.ledger.Update(ctx, task.JobID, map[string]interface{}{
				"status": model.KnowledgeStatusFailed,
				"error":  err.Error(),
			})
		})
		return "", fmt.Errorf("%w: publish ingest task: %w", ErrTransport, err)
	}
	log.Infow("[Facade] 入库任务已排队", "jobId", task.JobID, "url", rawURL)
	return task.JobID, nil
}

func (f *Facade) track(ctx context.Context, jobID string, write func(ctx context.Context) error) {
	if f.ledger == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ledgerTimeout)
	defer cancel()
	if err := write(ctx); err != nil {
		log.Warnw("[Facade] 更新入库台账失败", "jobId", jobID, "error", err)
	}
}

// failJob 在异步任务抓取阶段失败时更新台账，入库阶段的失败由 KnowledgeService 记录。
func (f *Facade) failJob(ctx context.Context, jobID string, err error) error {
	if jobID == "" {
		return err
	}
	f.track(ctx, jobID, func(ctx context.Context) error {
		return f.ledger.Update(ctx, jobID, map[string]interface{}{
			"status": model.KnowledgeStatusFailed,
			"error":  err.Error(),
		})
	})
	return err
}
