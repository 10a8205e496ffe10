package handler

import (
	"context"
	"net/http"
	"pai-assistant-go/internal/middleware"
	"pai-assistant-go/internal/model"
	"pai-assistant-go/internal/service"
	"strconv"

	"github.com/gin-gonic/gin"
)

// URLIngestor 抓取并入库网页，由 service.Facade 实现。
type URLIngestor interface {
	IngestURL(ctx context.Context, rawURL string) (model.IngestResult, error)
	EnqueueIngest(ctx context.Context, rawURL, requestedBy string) (string, error)
}

// ScrapeHandler 处理网页入库相关的 API 请求。
type ScrapeHandler struct {
	ingestor       URLIngestor
	catalogService service.CatalogService
}

// NewScrapeHandler 创建一个新的 ScrapeHandler。
func NewScrapeHandler(ingestor URLIngestor, catalogService service.CatalogService) *ScrapeHandler {
	return &ScrapeHandler{ingestor: ingestor, catalogService: catalogService}
}

// Scrape 处理 GET /api/v1/scrape?url=，同步抓取并入库。
func (h *ScrapeHandler) Scrape(c *gin.Context) {
	result, err := h.ingestor.IngestURL(c.Request.Context(), c.Query("url"))
	if err != nil {
		respondError(c, "scrape", err)
		return
	}
	success(c, result)
}

// EnqueueRequest 定义了异步入库 API 的请求体结构。
type EnqueueRequest struct {
	URL string `json:"url" binding:"required"`
}

// Enqueue 处理 POST /api/v1/scrape/jobs，返回任务 ID。
func (h *ScrapeHandler) Enqueue(c *gin.Context) {
	var req EnqueueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "无效的请求负载：url 不能为空")
		return
	}

	var requestedBy string
	if claims := middleware.ClaimsFrom(c); claims != nil {
		requestedBy = claims.Email
	}
	jobID, err := h.ingestor.EnqueueIngest(c.Request.Context(), req.URL, requestedBy)
	if err != nil {
		respondError(c, "enqueue scrape", err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"code": http.StatusAccepted, "message": "accepted", "data": gin.H{"jobId": jobID}})
}

// JobStatus 处理 GET /api/v1/scrape/jobs/:jobId。
func (h *ScrapeHandler) JobStatus(c *gin.Context) {
	view, err := h.catalogService.JobStatus(c.Request.Context(), c.Param("jobId"))
	if err != nil {
		respondError(c, "get scrape job", err)
		return
	}
	success(c, view)
}

// ListJobs 处理 GET /api/v1/scrape/jobs?limit=。
func (h *ScrapeHandler) ListJobs(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 {
		limit = 20
	}
	jobs, err := h.catalogService.ListJobs(c.Request.Context(), limit)
	if err != nil {
		respondError(c, "list scrape jobs", err)
		return
	}
	success(c, jobs)
}
