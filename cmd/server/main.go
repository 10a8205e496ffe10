// Package main 是应用程序的入口点。
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"pai-assistant-go/internal/config"
	"pai-assistant-go/internal/handler"
	"pai-assistant-go/internal/middleware"
	"pai-assistant-go/internal/pipeline"
	"pai-assistant-go/internal/repository"
	"pai-assistant-go/internal/service"
	"pai-assistant-go/pkg/crawler"
	"pai-assistant-go/pkg/database"
	"pai-assistant-go/pkg/es"
	"pai-assistant-go/pkg/kafka"
	"pai-assistant-go/pkg/log"
	"pai-assistant-go/pkg/openai"
	"pai-assistant-go/pkg/storage"
	"pai-assistant-go/pkg/tika"
	"pai-assistant-go/pkg/token"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
)

const defaultConfigPath = "./configs/config.yaml"

func main() {
	// 1. 初始化配置
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = defaultConfigPath
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync() // 确保在程序退出时刷新所有缓冲的日志条目
	log.Info("日志记录器初始化成功")

	rootCtx, stop := context.WithCancel(context.Background())
	defer stop()

	// 3. 初始化数据库和 Redis
	db, err := database.InitMySQL(cfg.Database.MySQL.DSN)
	if err != nil {
		log.Fatal("MySQL 初始化失败", err)
	}
	rdb, err := database.InitRedis(rootCtx, cfg.Database.Redis)
	if err != nil {
		log.Fatal("Redis 初始化失败", err)
	}
	defer rdb.Close()

	// 归档与检索是附加功能，依赖不可用时降级运行
	var snapshots *storage.SnapshotStore
	if cfg.MinIO.Endpoint != "" {
		if snapshots, err = storage.InitMinIO(rootCtx, cfg.MinIO); err != nil {
			log.Warnf("MinIO 初始化失败，快照归档已关闭: %v", err)
			snapshots = nil
		}
	}
	var catalog *es.Catalog
	if cfg.Elasticsearch.Addresses != "" {
		if catalog, err = es.InitES(cfg.Elasticsearch); err != nil {
			log.Warnf("es 初始化失败，网页目录已关闭: %v", err)
			catalog = nil
		}
	}

	// 4. 初始化 Repository
	qaRepo := repository.NewQARepository(db)
	ledgerRepo := repository.NewKnowledgeFileRepository(db)
	conversationRepo := repository.NewConversationRepository(rdb)
	attemptRepo := repository.NewAttemptRepository(rdb)

	// 5. 初始化 Service (依赖注入)
	openaiClient := openai.NewClient(cfg.OpenAI)
	var extractor crawler.TextExtractor
	if tikaClient := tika.NewClient(cfg.Tika); tikaClient != nil {
		extractor = tikaClient
	}
	fetcher := crawler.New(cfg.Crawler, extractor)

	recorder := service.NewQARecorder(qaRepo, conversationRepo, cfg.Recorder.Timeout)
	assistantService := service.NewAssistantService(openaiClient, recorder, cfg.Assistant)
	knowledgeService := service.NewKnowledgeService(openaiClient, ledgerRepo, cfg.Knowledge)
	conversationService := service.NewConversationService(conversationRepo)

	var (
		snapshotWriter service.SnapshotWriter
		snapshotLinker service.SnapshotLinker
		pageIndexer    service.PageIndexer
		pageSearcher   service.PageSearcher
	)
	if snapshots != nil {
		snapshotWriter, snapshotLinker = snapshots, snapshots
	}
	if catalog != nil {
		pageIndexer, pageSearcher = catalog, catalog
	}
	catalogService := service.NewCatalogService(ledgerRepo, pageSearcher, snapshotLinker)

	facadeOpts := []service.FacadeOption{service.WithLedger(ledgerRepo)}
	var archiver service.PageArchiver
	if snapshotWriter != nil || pageIndexer != nil {
		archiver = service.NewPageArchiver(snapshotWriter, pageIndexer, 0)
		facadeOpts = append(facadeOpts, service.WithArchiver(archiver))
	}

	// 6. 启动后台 Kafka 消费者
	var producer *kafka.Producer
	var consumerWG sync.WaitGroup
	if cfg.Kafka.Brokers != "" && cfg.Kafka.Topic != "" {
		producer = kafka.NewProducer(cfg.Kafka)
		facadeOpts = append(facadeOpts, service.WithTaskPublisher(producer))
	}
	facade := service.NewFacade(assistantService, knowledgeService, fetcher, facadeOpts...)

	if producer != nil {
		processor := pipeline.NewProcessor(facade)
		consumerWG.Add(1)
		go func() {
			defer consumerWG.Done()
			kafka.StartConsumer(rootCtx, kafka.NewReader(cfg.Kafka), processor, attemptRepo)
		}()
	}

	// 7. 设置 Gin 模式并创建路由引擎
	gin.SetMode(cfg.Server.Mode)
	r := gin.New() // 使用 New() 创建一个不带默认中间件的引擎
	r.Use(middleware.RequestLogger(), gin.Recovery())

	jwtManager := token.NewJWTManager(cfg.Admin.JWTSecret)
	assistantHandler := handler.NewAssistantHandler(facade, conversationService)
	scrapeHandler := handler.NewScrapeHandler(facade, catalogService)
	searchHandler := handler.NewSearchHandler(catalogService)
	healthHandler := handler.NewHealthHandler(map[string]handler.CheckFunc{
		"mysql": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
		"redis": func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
	})

	// 8. 注册路由
	r.GET("/healthz", healthHandler.Health)
	apiV1 := r.Group("/api/v1")
	{
		apiV1.POST("/assistant", assistantHandler.Ask)
		apiV1.GET("/assistant/:conversationId/history", assistantHandler.History)
		apiV1.GET("/knowledge/search", searchHandler.Search)

		// 入库路由需要管理员权限
		scrape := apiV1.Group("/scrape")
		scrape.Use(middleware.AuthMiddleware(jwtManager), middleware.AdminAuthMiddleware(cfg.Admin))
		{
			scrape.GET("", scrapeHandler.Scrape)
			scrape.POST("/jobs", scrapeHandler.Enqueue)
			scrape.GET("/jobs", scrapeHandler.ListJobs)
			scrape.GET("/jobs/:jobId", scrapeHandler.JobStatus)
		}
	}

	// 启动 HTTP 服务器并实现优雅停机
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infof("服务启动于 %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP 服务监听失败: %s\n", err)
		}
	}()

	// 等待中断信号以实现优雅停机
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("接收到停机信号，正在关闭服务...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorf("HTTP 服务器关闭失败: %v", err)
	}

	// 停止消费者，等待进行中的任务退出
	stop()
	consumerWG.Wait()
	if producer != nil {
		if err := producer.Close(); err != nil {
			log.Errorf("关闭 Kafka 生产者失败: %v", err)
		}
	}

	// 等待后台问答记录和归档写完
	recorder.Wait()
	if archiver != nil {
		archiver.Wait()
	}
	log.Info("服务已优雅关闭")
}
