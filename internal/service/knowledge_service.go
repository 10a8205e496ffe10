package service

import (
	"context"
	"errors"
	"fmt"
	"pai-assistant-go/internal/config"
	"pai-assistant-go/internal/model"
	"pai-assistant-go/internal/repository"
	"pai-assistant-go/pkg/log"
	"pai-assistant-go/pkg/poll"
	"time"

	"github.com/google/uuid"
)

const ledgerTimeout = 5 * time.Second

// IngestRequest 描述一次入库。JobID 为空时自动生成，SourceURL 仅用于台账。
type IngestRequest struct {
	JobID     string
	SourceURL string
	FileName  string
	Content   []byte
}

// IngestReceipt 是入库成功后外部知识库分配的标识。
type IngestReceipt struct {
	JobID   string
	FileID  string
	BatchID string
}

// KnowledgeService 定义了知识文件入库的接口。
type KnowledgeService interface {
	// Ingest 上传内容并等待向量索引完成，失败返回 ErrValidation 或 ErrIndexing。
	Ingest(ctx context.Context, content []byte, filename string) error
	IngestFile(ctx context.Context, req IngestRequest) (IngestReceipt, error)
}

type knowledgeService struct {
	store  KnowledgeStore
	ledger repository.KnowledgeFileRepository
	cfg    config.KnowledgeConfig
}

// NewKnowledgeService 创建一个新的 KnowledgeService 实例。ledger 可以为 nil。
func NewKnowledgeService(store KnowledgeStore, ledger repository.KnowledgeFileRepository, cfg config.KnowledgeConfig) KnowledgeService {
	return &knowledgeService{
		store:  store,
		ledger: ledger,
		cfg:    cfg,
	}
}

func (s *knowledgeService) Ingest(ctx context.Context, content []byte, filename string) error {
	_, err := s.IngestFile(ctx, IngestRequest{FileName: filename, Content: content})
	return err
}

// IngestFile 上传文件、创建索引 batch 并轮询到终态。
// 索引失败时不会删除已上传的文件，台账中会保留 file_id 以便人工清理。
func (s *knowledgeService) IngestFile(ctx context.Context, req IngestRequest) (IngestReceipt, error) {
	if len(req.Content) == 0 {
		return IngestReceipt{}, fmt.Errorf("%w: content is empty", ErrValidation)
	}
	if req.FileName == "" {
		return IngestReceipt{}, fmt.Errorf("%w: filename is empty", ErrValidation)
	}
	if req.JobID == "" {
		req.JobID = uuid.NewString()
	}
	receipt := IngestReceipt{JobID: req.JobID}

	log.Infow("[KnowledgeService] 开始入库", "jobId", req.JobID, "fileName", req.FileName, "bytes", len(req.Content))
	s.track(ctx, func(ctx context.Context) error {
		return s.ledger.Upsert(ctx, &model.KnowledgeFile{
			JobID:     req.JobID,
			SourceURL: req.SourceURL,
			FileName:  req.FileName,
			Size:      len(req.Content),
			Status:    model.KnowledgeStatusUploading,
		})
	})

	// 1. 上传文件
	fileID, err := s.store.UploadFile(ctx, req.FileName, req.Content)
	if err != nil {
		return receipt, s.fail(ctx, req.JobID, fmt.Errorf("%w: upload %s: %w", ErrIndexing, req.FileName, err))
	}
	receipt.FileID = fileID

	// 2. 创建索引 batch
	handle, err := s.store.CreateIndexBatch(ctx, s.cfg.VectorStoreID, []string{fileID})
	if err != nil {
		return receipt, s.fail(ctx, req.JobID, fmt.Errorf("%w: create batch for %s: %w", ErrIndexing, fileID, err))
	}
	receipt.BatchID = handle.BatchID
	s.track(ctx, func(ctx context.Context) error {
		return s.ledger.Update(ctx, req.JobID, map[string]interface{}{
			"file_id":  fileID,
			"batch_id": handle.BatchID,
			"status":   model.KnowledgeStatusIndexing,
		})
	})

	// 3. 轮询到终态
	status, err := poll.Until(ctx, poll.Options{Interval: s.cfg.PollInterval, MaxWait: s.cfg.MaxWait},
		func(ctx context.Context) (model.BatchStatus, bool, error) {
			st, err := s.store.PollBatch(ctx, handle)
			if err != nil {
				return "", false, err
			}
			return st, st.Terminal(), nil
		})
	if errors.Is(err, poll.ErrDeadline) {
		return receipt, s.fail(ctx, req.JobID, fmt.Errorf("%w: batch %s not finished within %s", ErrIndexing, handle.BatchID, s.cfg.MaxWait))
	}
	if err != nil {
		return receipt, s.fail(ctx, req.JobID, fmt.Errorf("%w: poll batch %s: %w", ErrIndexing, handle.BatchID, err))
	}
	if status != model.BatchStatusCompleted {
		return receipt, s.fail(ctx, req.JobID, fmt.Errorf("%w: batch %s ended with status %s", ErrIndexing, handle.BatchID, status))
	}

	s.track(ctx, func(ctx context.Context) error {
		return s.ledger.Update(ctx, req.JobID, map[string]interface{}{"status": model.KnowledgeStatusCompleted})
	})
	log.Infow("[KnowledgeService] 入库完成", "jobId", req.JobID, "fileId", fileID, "batchId", handle.BatchID)
	return receipt, nil
}

// fail 记录失败原因并原样返回 err。
func (s *knowledgeService) fail(ctx context.Context, jobID string, err error) error {
	log.Errorw("[KnowledgeService] 入库失败", "jobId", jobID, "error", err)
	s.track(ctx, func(ctx context.Context) error {
		return s.ledger.Update(ctx, jobID, map[string]interface{}{
			"status": model.KnowledgeStatusFailed,
			"error":  err.Error(),
		})
	})
	return err
}

// track 更新台账。台账只用于排查，写入失败不影响入库结果。
func (s *knowledgeService) track(ctx context.Context, write func(ctx context.Context) error) {
	if s.ledger == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ledgerTimeout)
	defer cancel()
	if err := write(ctx); err != nil {
		log.Warnw("[KnowledgeService] 更新入库台账失败", "error", err)
	}
}
