// Package pipeline 定义了异步入库任务的处理流程。
package pipeline

import (
	"context"
	"errors"
	"pai-assistant-go/internal/model"
	"pai-assistant-go/internal/service"
	"pai-assistant-go/pkg/log"
	"pai-assistant-go/pkg/tasks"
)

// Ingestor 执行一次入库，由 service.Facade 实现。
type Ingestor interface {
	IngestJob(ctx context.Context, jobID, rawURL string) (model.IngestResult, error)
}

// Processor 把 Kafka 中的入库任务交给 Ingestor 处理。
type Processor struct {
	ingestor Ingestor
}

// NewProcessor 创建一个新的 Processor 实例。
func NewProcessor(ingestor Ingestor) *Processor {
	return &Processor{ingestor: ingestor}
}

// Process 处理一个入库任务。
// 校验错误重试也不会成功，记录日志后视为已处理；其余错误返回给消费者触发重试。
func (p *Processor) Process(ctx context.Context, task tasks.IngestTask) error {
	log.Infow("[Processor] 开始处理入库任务", "jobId", task.JobID, "url", task.URL, "requestedBy", task.RequestedBy)

	res, err := p.ingestor.IngestJob(ctx, task.JobID, task.URL)
	if errors.Is(err, service.ErrValidation) {
		log.Errorw("[Processor] 入库任务无效，放弃", "jobId", task.JobID, "error", err)
		return nil
	}
	if err != nil {
		return err
	}

	log.Infow("[Processor] 入库任务完成", "jobId", task.JobID, "chars", len([]rune(res.Content)))
	return nil
}
