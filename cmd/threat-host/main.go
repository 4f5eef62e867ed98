package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mikey/llm-threat-scanner/internal/config"
	"github.com/mikey/llm-threat-scanner/internal/di"
	"github.com/mikey/llm-threat-scanner/internal/factory"
	"github.com/mikey/llm-threat-scanner/internal/messaging"
	"go.uber.org/zap"
)

func main() {
	// Build the dependency injection container
	container, err := di.BuildHostContainer()
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	// Run the application
	if err := container.Invoke(run); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

// run is the main application function that gets all dependencies injected
func run(
	cfg *config.Config,
	logger *zap.Logger,
	server *messaging.Server,
	llmFactory *factory.LLMFactory,
) error {
	defer logger.Sync()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Listen(cfg.GetString("server.listen_address"))
	}()

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case <-sigCh:
	case runErr = <-errCh:
		logger.Error("Host server error", zap.Error(runErr))
	}

	logger.Info("Shutting down...")

	if err := server.Shutdown(); err != nil {
		logger.Error("Failed to stop host server", zap.Error(err))
	}
	if err := llmFactory.Close(); err != nil {
		logger.Error("Failed to close LLM client", zap.Error(err))
	}

	logger.Info("Shutdown complete")
	return runErr
}
