package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mikey/llm-threat-scanner/internal/config"
	"github.com/mikey/llm-threat-scanner/internal/di"
	"github.com/mikey/llm-threat-scanner/internal/dom"
	"github.com/mikey/llm-threat-scanner/internal/factory"
	"github.com/mikey/llm-threat-scanner/internal/messaging"
	"github.com/mikey/llm-threat-scanner/internal/ports"
	"github.com/mikey/llm-threat-scanner/internal/scan"
	"go.uber.org/dig"
	"go.uber.org/zap"
)

func main() {
	// Build the dependency injection container
	container, err := di.BuildScannerContainer()
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

type params struct {
	dig.In

	Config       *config.Config
	Logger       *zap.Logger
	Orchestrator *scan.Orchestrator
	Source       *dom.FileSource
	Presenters   *factory.PresenterFactory
	Stats        ports.StatsRepository
	Dispatcher   *messaging.Dispatcher `optional:"true"`
	Server       *messaging.Server     `optional:"true"`
	LLM          *factory.LLMFactory   `optional:"true"`
}

// run is the main application function that gets all dependencies injected
func run(p params) error {
	logger := p.Logger
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger.Info("Starting threat scanner", zap.String("session", p.Orchestrator.Session()))

	// Settings changed through the host apply to the running scan
	if p.Dispatcher != nil {
		p.Dispatcher.OnSettingsChanged(p.Orchestrator.ApplySettings)
	}

	if p.Server != nil && p.Config.GetBool("server.enabled") {
		go func() {
			if err := p.Server.Listen(p.Config.GetString("server.listen_address")); err != nil {
				logger.Error("Host server error", zap.Error(err))
			}
		}()
	}

	sourceErr := make(chan error, 1)
	go func() {
		sourceErr <- p.Source.Run(ctx)
	}()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = p.Orchestrator.Run(ctx, p.Source)
	}()

	// Handle rescan and graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
loop:
	for {
		select {
		case sig := <-sigCh:
			if sig == syscall.SIGHUP {
				logger.Info("Rescan requested")
				p.Orchestrator.Rescan(ctx)
				continue
			}
			break loop
		case err := <-sourceErr:
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Document source failed", zap.Error(err))
				runErr = err
			}
			break loop
		}
	}

	logger.Info("Shutting down...")
	cancel()
	<-done

	if p.Server != nil && p.Config.GetBool("server.enabled") {
		if err := p.Server.Shutdown(); err != nil {
			logger.Error("Failed to stop host server", zap.Error(err))
		}
	}

	// Close any resources that need closing
	if err := p.Presenters.Close(); err != nil {
		logger.Error("Failed to close presenters", zap.Error(err))
	}
	if err := p.Stats.Close(); err != nil {
		logger.Error("Failed to close stats repository", zap.Error(err))
	}
	if p.LLM != nil {
		if err := p.LLM.Close(); err != nil {
			logger.Error("Failed to close LLM client", zap.Error(err))
		}
	}

	logger.Info("Shutdown complete")
	return runErr
}
