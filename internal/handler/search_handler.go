package handler

import (
	"pai-assistant-go/internal/service"
	"pai-assistant-go/pkg/log"
	"strconv"

	"github.com/gin-gonic/gin"
)

// SearchHandler 结构体定义了已入库网页检索的处理器。
type SearchHandler struct {
	catalogService service.CatalogService
}

// NewSearchHandler 创建一个新的 SearchHandler 实例。
func NewSearchHandler(catalogService service.CatalogService) *SearchHandler {
	return &SearchHandler{catalogService: catalogService}
}

// Search 处理 GET /api/v1/knowledge/search?query=&topK=。
func (h *SearchHandler) Search(c *gin.Context) {
	query := c.Query("query")
	topK, err := strconv.Atoi(c.DefaultQuery("topK", "10"))
	if err != nil || topK <= 0 {
		topK = 10
	}

	results, err := h.catalogService.Search(c.Request.Context(), query, topK)
	if err != nil {
		respondError(c, "search pages", err)
		return
	}

	log.Infof("[SearchHandler] 检索成功, query: '%s', 返回 %d 条结果", query, len(results))
	success(c, results)
}
