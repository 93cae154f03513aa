// File path: cmd/agentbi/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/devAndrejr/Agents-Solution-Business-sub001/internal/api"
	"github.com/devAndrejr/Agents-Solution-Business-sub001/internal/common"
	"github.com/devAndrejr/Agents-Solution-Business-sub001/internal/core"
	"github.com/devAndrejr/Agents-Solution-Business-sub001/internal/llm"
)

func main() {
	_ = godotenv.Load()
	logger := common.Logger()

	var (
		addr       = flag.String("addr", ":8080", "listen address")
		configPath = flag.String("config", "", "path to JSON config file")
	)
	flag.Parse()

	cfg, err := core.LoadConfig(*configPath)
	if err != nil {
		logger.Error("main: config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	provider := llm.NewProvider(cfg.EmbeddingModelName)
	logger.Info("main: provider selected", "provider", provider.Name())

	orch, err := core.Build(ctx, cfg, provider)
	if err != nil {
		logger.Error("main: startup", "error", err)
		os.Exit(1)
	}

	server := &http.Server{
		Addr:              *addr,
		Handler:           api.NewServer(orch).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("main: listening", "addr", *addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("main: server", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("main: shutdown", "error", err)
	}
	logger.Info("main: stopped")
}
