package service

import (
	"context"
	"errors"
	"fmt"
	"pai-assistant-go/internal/config"
	"pai-assistant-go/internal/model"
	"pai-assistant-go/pkg/log"
	"pai-assistant-go/pkg/openai"
	"pai-assistant-go/pkg/poll"
	"strings"
)

// DegradedAnswer 是 run 未能正常完成时返回给用户的固定回复。
const DegradedAnswer = "service experienced an issue, please try again"

// AssistantService 定义了问答编排的接口。
type AssistantService interface {
	Answer(ctx context.Context, question, conversationID string) (model.Answer, error)
}

type assistantService struct {
	provider ConversationProvider
	recorder Recorder
	cfg      config.AssistantConfig
}

// NewAssistantService 创建一个新的 AssistantService 实例。
func NewAssistantService(provider ConversationProvider, recorder Recorder, cfg config.AssistantConfig) AssistantService {
	return &assistantService{
		provider: provider,
		recorder: recorder,
		cfg:      cfg,
	}
}

// Answer 将问题写入对话（没有 conversationID 时新建），提交 run 并轮询到终态。
// run 未 completed 或轮询超时时返回降级回复而不是错误；对话服务调用失败返回 ErrTransport。
func (s *assistantService) Answer(ctx context.Context, question, conversationID string) (model.Answer, error) {
	if strings.TrimSpace(question) == "" {
		return model.Answer{}, fmt.Errorf("%w: question is empty", ErrValidation)
	}

	// 1. 新建或追加消息
	if conversationID == "" {
		id, err := s.provider.CreateConversation(ctx, question)
		if err != nil {
			return model.Answer{}, transportErr("create conversation", err)
		}
		conversationID = id
		log.Infow("[AssistantService] conversation created", "conversationId", conversationID)
	} else {
		if err := s.provider.AppendMessage(ctx, conversationID, question); err != nil {
			if errors.Is(err, openai.ErrNotFound) {
				return model.Answer{}, fmt.Errorf("%w: conversation %q: %w", ErrNotFound, conversationID, err)
			}
			return model.Answer{}, transportErr("append message", err)
		}
	}

	// 2. 提交 run
	handle, err := s.provider.SubmitRun(ctx, conversationID, s.cfg.ID)
	if err != nil {
		return model.Answer{}, transportErr("submit run", err)
	}

	// 3. 轮询到终态
	status, err := poll.Until(ctx, poll.Options{Interval: s.cfg.PollInterval, MaxWait: s.cfg.MaxWait},
		func(ctx context.Context) (model.RunStatus, bool, error) {
			st, err := s.provider.PollRun(ctx, handle)
			if err != nil {
				return "", false, err
			}
			return st, st.Terminal(), nil
		})
	if errors.Is(err, poll.ErrDeadline) {
		log.Warnw("[AssistantService] run did not finish in time", "conversationId", conversationID, "runId", handle.RunID, "maxWait", s.cfg.MaxWait)
		return degraded(conversationID), nil
	}
	if err != nil {
		return model.Answer{}, transportErr("poll run", err)
	}
	if status != model.RunStatusCompleted {
		log.Warnw("[AssistantService] run ended without completing", "conversationId", conversationID, "runId", handle.RunID, "status", status)
		return degraded(conversationID), nil
	}

	// 4. 读取最新的助手回复
	messages, err := s.provider.ListMessages(ctx, conversationID)
	if err != nil {
		return model.Answer{}, transportErr("list messages", err)
	}
	text, err := latestAssistantText(messages)
	if err != nil {
		return model.Answer{}, err
	}

	// 5. 记录问答，结果不影响返回
	if s.recorder != nil {
		s.recorder.Record(conversationID, question, text)
	}

	return model.Answer{ConversationID: conversationID, Text: text}, nil
}

// latestAssistantText 取最新一条助手消息的第一个文本片段，messages 按时间升序。
func latestAssistantText(messages []model.Message) (string, error) {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role != model.RoleAssistant {
			continue
		}
		text, ok := messages[i].FirstText()
		if !ok {
			return "", fmt.Errorf("%w: assistant message %s has no text content", ErrValidation, messages[i].ID)
		}
		return text, nil
	}
	return "", fmt.Errorf("%w: no assistant message in conversation", ErrValidation)
}

func degraded(conversationID string) model.Answer {
	return model.Answer{ConversationID: conversationID, Text: DegradedAnswer, Degraded: true}
}

// transportErr 将对话服务的调用失败归类为 ErrTransport，响应结构缺字段归类为 ErrValidation。
func transportErr(op string, err error) error {
	if errors.Is(err, openai.ErrSchema) {
		return fmt.Errorf("%w: %s: %w", ErrValidation, op, err)
	}
	return fmt.Errorf("%w: %s: %w", ErrTransport, op, err)
}
