// Package kafka 提供了与 Kafka 消息队列交互的功能。
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"pai-assistant-go/internal/config"
	"pai-assistant-go/pkg/log"
	"pai-assistant-go/pkg/tasks"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

// maxAttempts 是一个任务被放弃前允许的失败次数。
const maxAttempts = 3

var retryDelay = 2 * time.Second

// TaskProcessor defines the interface for any service that can process a task.
// This decouples the Kafka consumer from the concrete pipeline implementation.
type TaskProcessor interface {
	Process(ctx context.Context, task tasks.IngestTask) error
}

// AttemptCounter 记录任务失败次数，由 Redis 实现。
type AttemptCounter interface {
	Incr(ctx context.Context, jobID string) (int64, error)
	Reset(ctx context.Context, jobID string) error
}

// MessageReader 是消费者用到的 kafka.Reader 子集，便于测试。
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer 发送入库任务。
type Producer struct {
	writer *kafka.Writer
}

// NewProducer 初始化 Kafka 生产者。
func NewProducer(cfg config.KafkaConfig) *Producer {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers(cfg)...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
		ErrorLogger:            kafka.LoggerFunc(log.Logger().Errorf),
	}
	log.Info("Kafka 生产者初始化成功")
	return &Producer{writer: w}
}

// PublishIngestTask 发送一个入库任务到 Kafka，以 JobID 作为消息键。
func (p *Producer) PublishIngestTask(ctx context.Context, task tasks.IngestTask) error {
	taskBytes, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(task.JobID),
		Value: taskBytes,
	})
}

// Close 关闭生产者并刷新缓冲的消息。
func (p *Producer) Close() error {
	return p.writer.Close()
}

// NewReader 创建消费组 reader。
func NewReader(cfg config.KafkaConfig) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers(cfg),
		Topic:       cfg.Topic,
		GroupID:     cfg.GroupID,
		MinBytes:    1,
		MaxBytes:    10e6, // 10MB
		ErrorLogger: kafka.LoggerFunc(log.Logger().Errorf),
	})
}

// StartConsumer 消费入库任务直到 ctx 结束。任务处理成功或失败达到 3 次后提交 offset。
func StartConsumer(ctx context.Context, r MessageReader, processor TaskProcessor, attempts AttemptCounter) {
	log.Info("Kafka 消费者已启动")
	defer func() {
		if err := r.Close(); err != nil {
			log.Errorf("关闭 Kafka 消费者失败: %v", err)
		}
	}()

	for {
		m, err := r.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				log.Info("Kafka 消费者已停止")
			} else {
				log.Error("从 Kafka 读取消息失败", err)
			}
			return
		}

		log.Infof("收到 Kafka 消息: offset %d", m.Offset)

		var task tasks.IngestTask
		if err := json.Unmarshal(m.Value, &task); err != nil || task.JobID == "" {
			log.Errorf("无法解析 Kafka 消息: %v, value: %s", err, string(m.Value))
			// 消息格式错误，直接提交，避免阻塞队列
			commit(ctx, r, m)
			continue
		}

		log.Infow("开始处理入库任务", "jobId", task.JobID, "url", task.URL)
		if !processWithRetry(ctx, processor, attempts, task) {
			return
		}
		commit(ctx, r, m)
	}
}

// processWithRetry 同步处理任务，失败时原地重试。失败计数保存在 Redis 中，
// 进程重启后重新投递的消息会沿用之前的计数。返回 false 表示 ctx 已结束，不应提交 offset。
func processWithRetry(ctx context.Context, processor TaskProcessor, attempts AttemptCounter, task tasks.IngestTask) bool {
	var local int64
	for {
		err := processor.Process(ctx, task)
		if err == nil {
			log.Infow("入库任务处理成功", "jobId", task.JobID)
			_ = attempts.Reset(ctx, task.JobID)
			return true
		}
		if ctx.Err() != nil {
			return false
		}
		local++
		n, incErr := attempts.Incr(ctx, task.JobID)
		if incErr != nil {
			log.Errorf("记录失败次数失败: %v", incErr)
			n = local
		}
		log.Errorw("处理入库任务失败", "jobId", task.JobID, "attempts", n, "error", err)
		if n >= maxAttempts {
			log.Errorw("入库任务多次失败，提交 offset 终止重试", "jobId", task.JobID)
			_ = attempts.Reset(ctx, task.JobID)
			return true
		}

		t := time.NewTimer(retryDelay)
		select {
		case <-ctx.Done():
			t.Stop()
			return false
		case <-t.C:
		}
	}
}

func commit(ctx context.Context, r MessageReader, m kafka.Message) {
	if err := r.CommitMessages(ctx, m); err != nil {
		log.Errorf("提交 Kafka 消息 offset 失败: %v", err)
	}
}

func brokers(cfg config.KafkaConfig) []string {
	var out []string
	for _, b := range strings.Split(cfg.Brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}
