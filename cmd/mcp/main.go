package main

import (
	"context"
	"os"

	mcpadapter "github.com/bovicare/bovicare/internal/adapters/mcp"
	"github.com/bovicare/bovicare/internal/bootstrap"
	"github.com/bovicare/bovicare/internal/config"
	"github.com/bovicare/bovicare/internal/observability/logging"
)

func main() {
	cfg := config.Load()

	// stdout carries the MCP protocol, so logs go to stderr.
	logger := logging.SetupStderr("mcp", cfg.LogLevel)

	app, err := bootstrap.New(context.Background(), cfg)
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	server := mcpadapter.NewServer(app.AskUC, app.EvaluateUC, cfg.RAGTopK)
	logger.Info("mcp_serving_stdio")
	if err := server.ServeStdio(); err != nil {
		logger.Error("mcp_server_failed", "error", err)
		os.Exit(1)
	}
}
