package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"redtape/internal/api"
	"redtape/internal/config"
	"redtape/internal/ocr"
	"redtape/internal/service/ai"
	"redtape/internal/triage"
	"redtape/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// best effort; real deployments set the environment directly
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("REDTAPE_CONFIG"))
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx := context.Background()
	aiService, err := ai.NewService(ctx, cfg.GeminiConfig.APIKey, cfg.GeminiConfig.Model)
	if err != nil {
		log.Fatalf("init gemini client: %v", err)
	}

	ocrEngine := ocr.NewEngine(cfg.OCRConfig.Binary, cfg.OCRConfig.Languages)
	if !ocrEngine.Detect() {
		log.Printf("warning: %s not found, image grievances will fail", cfg.OCRConfig.Binary)
	}

	dispatch := worker.NewDispatcher(worker.DispatcherConfig{
		MinWorkers:        cfg.BasicConfig.MinWorkers,
		MaxWorkers:        cfg.BasicConfig.MaxWorkers,
		QueueSize:         cfg.BasicConfig.QueueSize,
		WorkerIdleTimeout: time.Duration(cfg.BasicConfig.WorkerIdleTimeout) * time.Minute,
	})

	handlers := api.NewHandler(triage.NewService(aiService), ocrEngine, dispatch)

	router := gin.New()
	router.Use(gin.Logger(), gin.CustomRecovery(func(c *gin.Context, recovered any) {
		c.JSON(500, gin.H{"error": fmt.Sprint(recovered)})
	}))
	handlers.RegisterRoutes(router)

	addr := cfg.BasicConfig.ServerAddress
	log.Printf("listening on %s (model %s, ocr langs %v)", addr, cfg.GeminiConfig.Model, cfg.OCRConfig.Languages)
	if err := router.Run(addr); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
