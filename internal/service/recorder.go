package service

import (
	"context"
	"pai-assistant-go/internal/model"
	"pai-assistant-go/internal/repository"
	"pai-assistant-go/pkg/log"
	"sync"
	"time"
)

// QARecorder 在后台持久化成功的问答。写入失败只记录日志，不会传回问答流程。
type QARecorder struct {
	qaRepo      repository.QARepository
	historyRepo repository.ConversationRepository
	timeout     time.Duration
	wg          sync.WaitGroup
}

// NewQARecorder 创建一个新的 QARecorder。historyRepo 可以为 nil。
func NewQARecorder(qaRepo repository.QARepository, historyRepo repository.ConversationRepository, timeout time.Duration) *QARecorder {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &QARecorder{
		qaRepo:      qaRepo,
		historyRepo: historyRepo,
		timeout:     timeout,
	}
}

// Record 立即返回，写入在独立的 goroutine 中完成。
// 使用新的 context，因为即使原始请求已结束，我们也希望保存已经生成的答案。
func (r *QARecorder) Record(conversationID, question, answer string) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer func() {
			if p := recover(); p != nil {
				log.Errorw("[QARecorder] panic while saving q&a", "conversationId", conversationID, "panic", p)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()

		entry := &model.QAEntry{ConversationID: conversationID, Question: question, Answer: answer}
		if err := r.qaRepo.Insert(ctx, entry); err != nil {
			log.Errorw("[QARecorder] failed to save q&a", "conversationId", conversationID, "error", err)
		} else {
			log.Infow("[QARecorder] q&a saved", "conversationId", conversationID, "id", entry.ID)
		}

		if r.historyRepo == nil {
			return
		}
		if err := r.historyRepo.AppendExchange(ctx, conversationID, question, answer); err != nil {
			log.Errorw("[QARecorder] failed to update conversation history", "conversationId", conversationID, "error", err)
		}
	}()
}

// Wait 阻塞直到所有进行中的写入结束，用于优雅停机。
func (r *QARecorder) Wait() {
	r.wg.Wait()
}
