package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"recall/backend/internal/adapter"
	"recall/backend/internal/content"
	"recall/backend/internal/graph"
	"recall/backend/internal/indexer"
	"recall/backend/internal/query"
	"recall/backend/pkg/config"
	"recall/backend/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load configuration: %v", err))
	}

	if err := logger.Init(cfg.Env); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("Starting knowledge base server...")

	ctx := context.Background()

	// Relational content store
	pool, err := content.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to content database", zap.Error(err))
	}
	defer pool.Close()
	store := content.NewPostgresStore(pool)

	// Knowledge graph
	driver, err := graph.Connect(ctx, cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPassword)
	if err != nil {
		log.Fatal("Failed to connect to Neo4j", zap.Error(err))
	}
	defer driver.Close(ctx)
	graphRepo := graph.NewRepository(driver)

	// LLM collaborators
	llm := adapter.NewLLMAdapter(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.ChatModel, cfg.EmbeddingModel, cfg.LLMTimeout)

	kbIndexer := indexer.New(store, graphRepo, llm, llm, cfg.IndexConcurrency)
	kbEngine := query.NewEngine(store, graphRepo, llm, llm)

	// Setup Gin router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(ginLogger(log))
	router.Use(gin.Recovery())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api/kb")
	{
		// Query the knowledge base. Degrades internally, never 5xx for
		// collaborator failures.
		api.POST("/query", func(c *gin.Context) {
			var req struct {
				Query  string `json:"query" binding:"required"`
				UserID string `json:"user_id" binding:"required"`
				query.Options
			}

			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}

			resp := kbEngine.Query(c.Request.Context(), req.Query, req.UserID, req.Options)
			c.JSON(http.StatusOK, resp)
		})

		// Index one item in the background, fire-and-forget
		api.POST("/index", func(c *gin.Context) {
			var req struct {
				ItemType string `json:"item_type" binding:"required"`
				ItemID   string `json:"item_id" binding:"required"`
				UserID   string `json:"user_id" binding:"required"`
				Force    bool   `json:"force"`
			}

			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}

			itemType := content.ItemType(req.ItemType)
			if !itemType.Valid() {
				c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown item type %q", req.ItemType)})
				return
			}

			go func() {
				bgCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
				defer cancel()

				status, err := kbIndexer.IndexItem(bgCtx, itemType, req.ItemID, req.UserID, indexer.Options{Force: req.Force})
				if err != nil {
					log.Warn("Background index failed",
						zap.String("item_type", req.ItemType),
						zap.String("item_id", req.ItemID),
						zap.Error(err),
					)
					return
				}
				log.Info("Background index finished",
					zap.String("item_type", req.ItemType),
					zap.String("item_id", req.ItemID),
					zap.String("status", string(status)),
				)
			}()

			c.JSON(http.StatusAccepted, gin.H{"status": "queued"})
		})

		// Re-trigger indexing for everything the user owns
		api.POST("/reindex", func(c *gin.Context) {
			var req struct {
				UserID string `json:"user_id" binding:"required"`
			}

			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}

			go func() {
				bgCtx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
				defer cancel()

				counts, err := kbIndexer.ReindexAll(bgCtx, req.UserID)
				if err != nil {
					log.Warn("Reindex failed", zap.String("user_id", req.UserID), zap.Error(err))
					return
				}
				log.Info("Reindex finished",
					zap.String("user_id", req.UserID),
					zap.Int64("emails", counts.Emails),
					zap.Int64("documents", counts.Documents),
					zap.Int64("meetings", counts.Meetings),
				)
			}()

			c.JSON(http.StatusAccepted, gin.H{"status": "queued"})
		})

		// Knowledge graph visualization dump
		api.GET("/graph", func(c *gin.Context) {
			userID := c.Query("user_id")
			if userID == "" {
				c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
				return
			}

			limit := 50
			if raw := c.Query("limit"); raw != "" {
				fmt.Sscanf(raw, "%d", &limit)
			}

			payload, err := graphRepo.GraphData(c.Request.Context(), userID, c.Query("node_type"), limit)
			if err != nil {
				log.Error("Failed to fetch graph data", zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch graph data"})
				return
			}
			c.JSON(http.StatusOK, payload)
		})
	}

	// Start server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	log.Info("Server started", zap.String("port", cfg.Port))

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited")
}

// ginLogger is a custom logger middleware for Gin
func ginLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		if raw != "" {
			path = path + "?" + raw
		}

		log.Info("HTTP Request",
			zap.Int("status", status),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Duration("latency", latency),
			zap.String("ip", c.ClientIP()),
		)
	}
}
