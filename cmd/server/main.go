// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Annany2002/datalens-backend/api"
	"github.com/Annany2002/datalens-backend/config"
	"github.com/Annany2002/datalens-backend/internal/dbaccess"
	"github.com/Annany2002/datalens-backend/internal/llm"
	"github.com/Annany2002/datalens-backend/internal/logger"
	"github.com/Annany2002/datalens-backend/internal/storage"
)

var (
	customLog = logger.NewLogger()
)

const shutdownTimeout = 10 * time.Second

func openStore(cfg *config.Config) (storage.Store, error) {
	if cfg.StoreDriver == config.StoreDriverSQLite {
		return storage.NewSQLiteStore(cfg)
	}
	return storage.NewMemoryStore(), nil
}

func main() {
	customLog.Println("Starting DataLens backend server...")

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		customLog.Fatalf("Failed to load configuration: %v", err)
	}

	// 2. Initialize the record store
	store, err := openStore(cfg)
	if err != nil {
		customLog.Fatalf("Failed to initialize %s store: %v", cfg.StoreDriver, err)
	}
	if err := storage.SeedDefaultDatabase(context.Background(), store, cfg.DefaultDatabasePath); err != nil {
		customLog.Warnf("Failed to seed default database: %v", err)
	}

	// 3. Services
	dbAccess := dbaccess.NewService(cfg.QueryTimeout, cfg.SchemaCacheTTL)
	llmClient := llm.NewOpenAIClient(cfg.LLMAPIKey, cfg.LLMBaseURL, cfg.LLMModel, cfg.LLMTimeout)

	// 4. Setup Router (passing dependencies)
	router := api.SetupRouter(api.Dependencies{
		Cfg:        cfg,
		Store:      store,
		DBAccess:   dbAccess,
		Translator: llm.NewTranslator(llmClient),
		Validator:  llm.NewValidator(llmClient),
	})

	// 5. Start Server
	server := &http.Server{Addr: fmt.Sprintf(":%s", cfg.ServerPort), Handler: router}
	go func() {
		customLog.Printf("Server listening on port %s", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			customLog.Fatalf("Failed to start server: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	customLog.Println("Shutting down gracefully...")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		customLog.Warnf("Server shutdown error: %v", err)
	}

	dbAccess.CloseAllConnections()
	customLog.Println("Closing record store...")
	if err := store.Close(); err != nil {
		customLog.Printf("Error closing record store: %v", err)
	}
	customLog.Println("Server stopped")
}
