package service

import (
	"context"
	"pai-assistant-go/internal/model"
	"pai-assistant-go/pkg/crawler"
)

// ConversationProvider 是外部对话服务（thread/run/message）的能力接口。
type ConversationProvider interface {
	CreateConversation(ctx context.Context, firstMessage string) (string, error)
	AppendMessage(ctx context.Context, conversationID, content string) error
	SubmitRun(ctx context.Context, conversationID, assistantID string) (model.RunHandle, error)
	PollRun(ctx context.Context, h model.RunHandle) (model.RunStatus, error)
	// ListMessages 返回按提交顺序排列的消息，最新的在最后。
	ListMessages(ctx context.Context, conversationID string) ([]model.Message, error)
}

// KnowledgeStore 是外部知识库（文件 + 向量索引）的能力接口。
type KnowledgeStore interface {
	UploadFile(ctx context.Context, name string, content []byte) (string, error)
	CreateIndexBatch(ctx context.Context, vectorStoreID string, fileIDs []string) (model.BatchHandle, error)
	PollBatch(ctx context.Context, h model.BatchHandle) (model.BatchStatus, error)
}

// ContentFetcher 抓取 URL 并返回提取后的文本。
type ContentFetcher interface {
	Fetch(ctx context.Context, url string) (crawler.Result, error)
}

// Recorder 接收成功问答的记录请求，实现必须不阻塞、不返回错误。
type Recorder interface {
	Record(conversationID, question, answer string)
}
