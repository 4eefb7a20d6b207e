package bootstrap

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"time"

	"claims-agent-be/internal/config"
	"claims-agent-be/internal/controller"
	"claims-agent-be/internal/pkg/logger"
	"claims-agent-be/internal/repository/contract"
	"claims-agent-be/internal/repository/memory"
	"claims-agent-be/internal/repository/redisstore"
	"claims-agent-be/internal/service"
	"claims-agent-be/pkg/blobstore/pgblob"
	"claims-agent-be/pkg/embedding"
	"claims-agent-be/pkg/llm/factory"
	pktNats "claims-agent-be/pkg/nats"
	"claims-agent-be/pkg/rag/citation"
	"claims-agent-be/pkg/rag/history"
	"claims-agent-be/pkg/rag/intent"
	"claims-agent-be/pkg/rag/prompt"
	"claims-agent-be/pkg/rag/response"
	"claims-agent-be/pkg/rag/search"
	"claims-agent-be/pkg/rag/session"
	"claims-agent-be/pkg/vectorindex/pgindex"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	ChatController controller.IChatController

	// Background services
	ConsumerService service.IConsumerService

	// Core facades
	Logger logger.ILogger
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	pipelineLogger := initPipelineLogger()

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. Oracles
	var embeddingProvider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embeddingProvider = embedding.NewOllamaProvider(
			cfg.Ai.OllamaBaseURL,
			cfg.Ai.OllamaModel,
		)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaModel)
	} else {
		embeddingProvider = embedding.NewGeminiProvider(cfg.Keys.GoogleGemini)
		log.Printf("[INFO] Using Embedding Provider: GEMINI")
	}

	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
		cfg.Keys.GoogleGemini,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 4. Session storage
	sessionTTL := time.Duration(cfg.Session.TTLMinutes) * time.Minute
	var sessionStore contract.SessionStore
	if cfg.Session.Backend == "redis" {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
			opt = &redis.Options{
				Addr: cfg.App.RedisURL,
			}
		}
		rdb := redis.NewClient(opt)
		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v", err)
		}
		sessionStore = redisstore.NewSessionRepository(rdb, sessionTTL)
		log.Printf("[INFO] Using Session Backend: REDIS")
	} else {
		sessionStore = memory.NewSessionRepository(sessionTTL)
		log.Printf("[INFO] Using Session Backend: MEMORY")
	}

	// 5. NATS
	var claimEvents service.IClaimEventPublisher
	if natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL); err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	} else {
		claimEvents = natsPub
	}

	// 6. Retrieval pipeline
	searchConfig := search.DefaultConfig()
	searchConfig.TopK = cfg.Retrieval.TopK
	searchConfig.MaxQueries = cfg.Retrieval.MaxQueries
	searchConfig.NeighborCount = cfg.Retrieval.NeighborCount
	searchConfig.RelaxedNeighborCount = cfg.Retrieval.RelaxedNeighborCount

	vectorIndex := pgindex.NewPgIndex(db)
	chunkStore := pgblob.NewPgStore(db)
	orchestrator := search.NewOrchestrator(embeddingProvider, vectorIndex, chunkStore, searchConfig, pipelineLogger)

	// 7. Services
	publisherService := service.NewPublisherService(cfg.Keys.ClaimFiledTopic, pubSub)
	consumerService := service.NewConsumerService(
		pubSub,
		cfg.Keys.ClaimFiledTopic,
		claimEvents,
		sysLogger,
	)

	chatService := service.NewChatService(
		intent.NewClassifier(llmProvider, pipelineLogger),
		history.NewBuilder(llmProvider, pipelineLogger),
		orchestrator,
		session.NewManager(sessionStore),
		prompt.NewBuilder(),
		response.NewGenerator(llmProvider, pipelineLogger),
		citation.NewEngine(),
		llmProvider,
		publisherService,
		sysLogger,
	)

	// 8. Controllers
	chatController := controller.NewChatController(chatService)

	return &Container{
		ChatController:  chatController,
		ConsumerService: consumerService,
		Logger:          sysLogger,
	}
}

func initPipelineLogger() *log.Logger {
	logPath := filepath.Join(".", "logs", "rag_pipeline.log")
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		log.Printf("Failed to create logs directory: %v", err)
	}
	file, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return log.New(os.Stdout, "[RAG] ", log.LstdFlags)
	}
	return log.New(file, "", log.LstdFlags)
}
