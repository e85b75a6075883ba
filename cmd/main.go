package main

import (
	"context"
	"fmt"
	"os"

	"github.com/yungbote/fieldlog-backend/internal/clients/gemini"
	"github.com/yungbote/fieldlog-backend/internal/clients/pokeapi"
	"github.com/yungbote/fieldlog-backend/internal/data/db"
	"github.com/yungbote/fieldlog-backend/internal/data/repos"
	"github.com/yungbote/fieldlog-backend/internal/http/handlers"
	"github.com/yungbote/fieldlog-backend/internal/jobs"
	"github.com/yungbote/fieldlog-backend/internal/pkg/logger"
	"github.com/yungbote/fieldlog-backend/internal/server"
	"github.com/yungbote/fieldlog-backend/internal/services"
	"github.com/yungbote/fieldlog-backend/internal/utils"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// DB
	log.Info("Setting up database from main...")
	dbService, err := db.New(log)
	if err != nil {
		log.Fatal("Database init failed", "error", err)
	}
	if err := dbService.AutoMigrateAll(); err != nil {
		log.Fatal("Auto migration failed", "error", err)
	}
	gdb := dbService.DB()

	// Repos
	log.Info("Setting up repos from main...")
	jobRepo := repos.NewJobRepo(gdb, log)
	summaryRepo := repos.NewSummaryRepo(gdb, log)
	audioLogRepo := repos.NewAudioLogRepo(gdb, log)
	promptRepo := repos.NewPromptRepo(gdb, log)

	// Provider clients
	log.Info("Setting up provider clients from main...")
	geminiClient, err := gemini.NewClient(log)
	if err != nil {
		log.Fatal("Gemini client init failed", "error", err)
	}
	catalogClient, err := pokeapi.NewClient(log)
	if err != nil {
		log.Fatal("Catalog client init failed", "error", err)
	}

	// Jobs left running by a previous process go back to the queue before the
	// runner starts claiming.
	if n, err := jobRepo.RecoverStalled(context.Background(), 0); err != nil {
		log.Warn("Startup job recovery failed", "error", err)
	} else if n > 0 {
		log.Info("Recovered jobs from previous run", "count", n)
	}

	// Engine + runner
	log.Info("Setting up job runner from main...")
	cfg := jobs.DefaultConfig(log)
	engine := jobs.NewEngine(log, cfg, jobRepo, summaryRepo, audioLogRepo, promptRepo, geminiClient, catalogClient)
	runner := jobs.NewRunner(log, cfg, engine, jobRepo)
	runner.Start(context.Background())

	// Services + handlers
	jobService := services.NewJobService(log, jobRepo)
	codexService := services.NewCodexService(log, summaryRepo, audioLogRepo, promptRepo)

	router := server.NewRouter(server.RouterConfig{
		Log:          log,
		JobHandler:   handlers.NewJobHandler(log, jobService),
		CodexHandler: handlers.NewCodexHandler(log, codexService),
	})

	port := utils.GetEnv("PORT", "8080", log)
	log.Info("Starting HTTP server", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatal("HTTP server exited", "error", err)
	}
}
