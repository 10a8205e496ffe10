package service

import (
	"context"
	"fmt"
	"pai-assistant-go/internal/model"
	"pai-assistant-go/internal/repository"
	"strings"
)

// ConversationService 定义了对话历史查询的接口。
type ConversationService interface {
	GetConversationHistory(ctx context.Context, conversationID string) ([]model.ChatMessage, error)
}

type conversationService struct {
	repo repository.ConversationRepository
}

// NewConversationService 创建一个新的 ConversationService。
func NewConversationService(repo repository.ConversationRepository) ConversationService {
	return &conversationService{repo: repo}
}

// GetConversationHistory 返回对话最近的问答。历史只是缓存镜像，过期后为空。
func (s *conversationService) GetConversationHistory(ctx context.Context, conversationID string) ([]model.ChatMessage, error) {
	if strings.TrimSpace(conversationID) == "" {
		return nil, fmt.Errorf("%w: conversation id is empty", ErrValidation)
	}
	return s.repo.GetConversationHistory(ctx, conversationID)
}
