package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/spacesedan/commentpulse/config"
	"github.com/spacesedan/commentpulse/internal/analysis"
	"github.com/spacesedan/commentpulse/internal/clients"
	"github.com/spacesedan/commentpulse/internal/db"
	"github.com/spacesedan/commentpulse/internal/handler"
	"github.com/spacesedan/commentpulse/internal/logging"
	"github.com/spacesedan/commentpulse/internal/ratelimit"
	"github.com/spacesedan/commentpulse/internal/summarizer"
)

const shutdownTimeout = 10 * time.Second

func main() {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev"
	}
	config.LoadEnv(env)
	logging.InitLogger()

	cfg := config.FromEnv()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	limiter := ratelimit.NewWithMode(cfg.MaxRequestsPerMinute, ratelimit.ParseMode(cfg.RateLimitMode))

	youtube := clients.InitYouTube(ctx)
	chat := clients.NewChatCompleter(clients.GetAIClient(), cfg.LLMModel, cfg.LLMRequestsPerSec)
	service := summarizer.New(chat, cfg.ContextMaxComments, cfg.ContextMaxChars)

	var cache db.ProcessedCache
	if cfg.ValkeyAddress != "" {
		cache = clients.InitValkey()
	}
	defer clients.CloseValkey()

	store := db.NewResultStore(clients.GetDynamoDBClient(), cfg.JobResultsTable, cache)

	orchestrator := analysis.NewOrchestrator(youtube, service, store, limiter, analysis.Options{
		MaxComments:      cfg.MaxCommentsPerVideo,
		TopKeywords:      cfg.TopKeywords,
		Workers:          cfg.AnalysisWorkers,
		FetchTimeout:     cfg.FetchTimeout,
		SummarizeTimeout: cfg.SummarizeTimeout,
	})
	analyzeHandler := handler.NewAnalyzeHandler(orchestrator, limiter)

	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type"},
	}))

	r.GET("/api/v1/analyze-youtube", analyzeHandler.Analyze)
	r.GET("/api/v1/analyze-youtube-stream", analyzeHandler.AnalyzeStream)
	r.GET("/health", analyzeHandler.Health)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		slog.Info("[Main] API listening",
			slog.String("port", cfg.Port),
			slog.String("env", cfg.AppEnv))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("[Main] Server stopped unexpectedly",
				slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("[Main] Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("[Main] Shutdown did not drain in time",
			slog.String("error", err.Error()))
	}
}
