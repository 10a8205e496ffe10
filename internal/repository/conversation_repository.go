package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"pai-assistant-go/internal/model"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	historyLimit = 20
	historyTTL   = 7 * 24 * time.Hour
)

// ConversationRepository 在 Redis 中镜像每个对话最近的问答，供历史查询使用。
type ConversationRepository interface {
	AppendExchange(ctx context.Context, conversationID, question, answer string) error
	GetConversationHistory(ctx context.Context, conversationID string) ([]model.ChatMessage, error)
}

type redisConversationRepository struct {
	redisClient *redis.Client
}

// NewConversationRepository 创建一个新的 ConversationRepository 实例。
func NewConversationRepository(redisClient *redis.Client) ConversationRepository {
	return &redisConversationRepository{redisClient: redisClient}
}

func historyKey(conversationID string) string {
	return fmt.Sprintf("conversation:%s", conversationID)
}

// AppendExchange 追加一问一答两条消息，只保留最近 20 条。
func (r *redisConversationRepository) AppendExchange(ctx context.Context, conversationID, question, answer string) error {
	now := time.Now()
	user, err := json.Marshal(model.ChatMessage{Role: model.RoleUser, Content: question, Timestamp: now})
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	assistant, err := json.Marshal(model.ChatMessage{Role: model.RoleAssistant, Content: answer, Timestamp: now})
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	key := historyKey(conversationID)
	pipe := r.redisClient.TxPipeline()
	pipe.RPush(ctx, key, user, assistant)
	pipe.LTrim(ctx, key, -historyLimit, -1)
	pipe.Expire(ctx, key, historyTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append conversation history: %w", err)
	}
	return nil
}

// GetConversationHistory 从 Redis 获取对话历史记录，不存在时返回空切片。
func (r *redisConversationRepository) GetConversationHistory(ctx context.Context, conversationID string) ([]model.ChatMessage, error) {
	items, err := r.redisClient.LRange(ctx, historyKey(conversationID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation history: %w", err)
	}
	messages := make([]model.ChatMessage, 0, len(items))
	for _, item := range items {
		var m model.ChatMessage
		if err := json.Unmarshal([]byte(item), &m); err != nil {
			return nil, fmt.Errorf("failed to unmarshal conversation history: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, nil
}
