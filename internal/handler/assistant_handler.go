package handler

import (
	"context"
	"net/http"
	"pai-assistant-go/internal/model"
	"pai-assistant-go/internal/service"
	"pai-assistant-go/pkg/log"
	"strings"

	"github.com/gin-gonic/gin"
)

// QuestionAnswerer 回答问题，由 service.Facade 实现。
type QuestionAnswerer interface {
	AnswerQuestion(ctx context.Context, question, conversationID string) (model.Answer, error)
}

// AssistantHandler 处理问答相关的 API 请求。
type AssistantHandler struct {
	answerer            QuestionAnswerer
	conversationService service.ConversationService
}

// NewAssistantHandler 创建一个新的 AssistantHandler。
func NewAssistantHandler(answerer QuestionAnswerer, conversationService service.ConversationService) *AssistantHandler {
	return &AssistantHandler{answerer: answerer, conversationService: conversationService}
}

// QuestionRequest 定义了问答 API 的请求体结构。
type QuestionRequest struct {
	Question string `json:"question" binding:"required"`
	ThreadID string `json:"thread_id"`
}

// Ask 处理 POST /api/v1/assistant。
func (h *AssistantHandler) Ask(c *gin.Context) {
	var req QuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Question) == "" {
		log.Warnf("Ask: Invalid request payload, error: %v", err)
		fail(c, http.StatusBadRequest, "无效的请求负载：question 不能为空")
		return
	}

	answer, err := h.answerer.AnswerQuestion(c.Request.Context(), req.Question, req.ThreadID)
	if err != nil {
		respondError(c, "answer question", err)
		return
	}
	success(c, answer)
}

// History 处理 GET /api/v1/assistant/:conversationId/history。
func (h *AssistantHandler) History(c *gin.Context) {
	history, err := h.conversationService.GetConversationHistory(c.Request.Context(), c.Param("conversationId"))
	if err != nil {
		respondError(c, "get conversation history", err)
		return
	}
	success(c, history)
}
