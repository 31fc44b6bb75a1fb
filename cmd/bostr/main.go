package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"bostr/internal/chat_service/api"
	"bostr/internal/chat_service/service"
	"bostr/internal/chat_service/session"
	"bostr/internal/chat_service/store"
	"bostr/internal/config"
	"bostr/internal/database/kafka"
	"bostr/internal/database/milvus"
	"bostr/internal/database/minio"
	"bostr/internal/database/mongo"
	"bostr/internal/database/redis"
	"bostr/internal/embedding"
	"bostr/internal/llm"
	"bostr/internal/rag/interfaces"
	"bostr/internal/rag/loaders"
	"bostr/internal/rag/pipeline"
	"bostr/internal/rag/splitters"
	"bostr/internal/rag/storages/vectorstore"
	"bostr/pkg/logger"
)

func main() {
	// 1. Environment and configuration
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Logger
	logger.Init(logger.ParseLevel(cfg.Logger.Level))
	appLogger := logger.New(cfg.App.Name, "", "")
	appLogger.Info("Starting chat service...")

	ctx := context.Background()

	// 3. Backing stores
	mongoClient, err := mongo.GetClient(&cfg.Databases.MongoDB)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer mongo.Close(ctx)
	db := mongoClient.Database(cfg.Databases.MongoDB.Database)

	milvusClient, err := milvus.GetClient(ctx, &cfg.Databases.Milvus)
	if err != nil {
		log.Fatalf("Failed to connect to Milvus: %v", err)
	}
	defer milvusClient.Close()
	if err := milvusClient.EnsureCollection(ctx); err != nil {
		log.Fatalf("Failed to prepare Milvus collection: %v", err)
	}

	vectorStore, err := vectorstore.NewMilvusStore(milvusClient)
	if err != nil {
		log.Fatalf("Failed to create vector store: %v", err)
	}

	// 4. Optional infrastructure
	var archiver service.Archiver
	if cfg.Databases.MinIO.Endpoint != "" {
		minioClient, err := minio.GetClient(&cfg.Databases.MinIO)
		if err != nil {
			appLogger.Warn(fmt.Sprintf("MinIO unavailable, uploads will not be archived: %v", err))
		} else {
			if err := minio.EnsureBucket(ctx, minioClient, cfg.Databases.MinIO.Bucket); err != nil {
				log.Fatalf("Failed to prepare MinIO bucket: %v", err)
			}
			archiver = store.NewUploadArchive(minioClient, cfg.Databases.MinIO.Bucket)
		}
	}

	var publisher service.EventPublisher
	if cfg.Databases.Kafka.Enabled {
		p, err := kafka.NewIngestEventPublisher(&cfg.Databases.Kafka, appLogger)
		if err != nil {
			log.Fatalf("Failed to connect to Kafka: %v", err)
		}
		defer kafka.Close()
		publisher = p
	}

	sessionTTL := time.Duration(cfg.Session.TTL) * time.Second
	var sessions session.Store
	if cfg.Session.Backend == "redis" {
		redisClient, err := redis.GetClient(&cfg.Databases.Redis)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redis.Close()
		sessions = session.NewRedisStore(redisClient, sessionTTL)
	} else {
		sessions = session.NewMemoryStore(sessionTTL)
	}

	// 5. Model providers
	embedder, err := embedding.NewModel(&cfg.Embedding)
	if err != nil {
		log.Fatalf("Failed to create embedding model: %v", err)
	}
	llmFactory := func(provider, modelName string) (interfaces.LLM, error) {
		return llm.NewClient(&cfg.LLM, provider, modelName)
	}

	// 6. Pipelines and services
	splitter, err := splitters.NewCharacterSplitter(cfg.RAG.ChunkSize, cfg.RAG.ChunkOverlap)
	if err != nil {
		log.Fatalf("Invalid chunking configuration: %v", err)
	}
	indexer := pipeline.NewIndexingPipeline(splitter, embedder, vectorStore, appLogger)
	retriever := pipeline.NewRetrievalPipeline(embedder, vectorStore)

	ledger := store.NewURLLedger(db, appLogger)
	profiles := store.NewProfileStore(db)

	chatService := service.NewChatService(profiles, sessions, retriever, llmFactory, cfg.RAG.TopK, cfg.RAG.BroadTopK, appLogger)
	ingestService := service.NewIngestService(
		ledger,
		indexer,
		func(maxPages int) interfaces.Loader { return loaders.NewWebLoader(maxPages) },
		loaders.NewPdfLoader(),
		loaders.NewJSONLoader(),
		archiver,
		publisher,
		cfg.RAG.MaxCrawlPages,
		appLogger,
	)

	// 7. HTTP server
	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	handler := api.NewHandler(chatService, ingestService, vectorStore, cfg.Server.MaxUploadBytes, appLogger)
	router := api.SetupRouter(handler, cfg.Server.AllowedOrigins)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}
	go func() {
		appLogger.Info(fmt.Sprintf("HTTP server listening at %s", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to serve HTTP: %v", err)
		}
	}()

	// 8. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Warn(fmt.Sprintf("Forced shutdown: %v", err))
	}
	appLogger.Info("Server stopped")
}
