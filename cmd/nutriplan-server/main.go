package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"nutriplan/internal/auth"
	"nutriplan/internal/clipper"
	"nutriplan/internal/config"
	"nutriplan/internal/httpapi"
	"nutriplan/internal/llm"
	"nutriplan/internal/metrics"
	"nutriplan/internal/planner"
	"nutriplan/internal/store"

	"github.com/joho/godotenv"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()

	geminiClient, err := llm.NewGeminiClient(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to create Gemini client: %v", err)
	}
	defer geminiClient.Close()

	db, err := store.NewDB(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	gateway := store.NewGateway(db)
	identity := auth.NewProvider(db.SQL)
	metricsStore := metrics.NewStore(db.SQL)

	mealPlanner := planner.NewPlanner(geminiClient)
	ingredientClipper := clipper.NewClipper(geminiClient)

	server := httpapi.NewServer(
		mealPlanner,
		gateway,
		identity,
		ingredientClipper,
		metricsStore,
		[]byte(cfg.JWTSecret),
		filepath.Dir(cfg.DatabasePath),
	)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: server.Handler(cfg.AllowedOrigins),
	}

	go func() {
		log.Printf("NutriPlan server listening on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting")
}
