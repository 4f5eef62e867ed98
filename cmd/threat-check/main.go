package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mikey/llm-threat-scanner/internal/config"
	"github.com/mikey/llm-threat-scanner/internal/core"
	"github.com/mikey/llm-threat-scanner/internal/di"
	"github.com/mikey/llm-threat-scanner/internal/dom"
	"github.com/mikey/llm-threat-scanner/internal/extract"
	"github.com/mikey/llm-threat-scanner/internal/factory"
	"github.com/mikey/llm-threat-scanner/internal/ports"
	"go.uber.org/zap"
)

func main() {
	flags := di.ParseFlags()

	// Build the dependency injection container
	container, err := di.BuildCLIContainer(flags)
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	// Run the application
	if err := container.Invoke(run); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

// run classifies every email visible in one HTML snapshot
func run(
	flags *di.CLIFlags,
	cfg *config.Config,
	logger *zap.Logger,
	service *core.ThreatAnalysisService,
	extractor *extract.Extractor,
	presenter ports.Presenter,
	llmFactory *factory.LLMFactory,
) error {
	defer logger.Sync()
	defer func() {
		if err := llmFactory.Close(); err != nil {
			logger.Error("Failed to close LLM client", zap.Error(err))
		}
	}()

	// Read snapshot from file or stdin
	var snapshotReader io.Reader
	if flags.InputFile != "" {
		file, err := os.Open(flags.InputFile)
		if err != nil {
			return fmt.Errorf("failed to open input file: %w", err)
		}
		defer file.Close()
		snapshotReader = file
		logger.Info("Reading snapshot from file", zap.String("file", flags.InputFile))
	} else {
		snapshotReader = os.Stdin
		logger.Info("Reading snapshot from stdin")
	}

	snap, err := dom.Parse(snapshotReader, 1)
	if err != nil {
		return err
	}

	layout := extractor.Layout()
	candidates := layout.Rows(snap.Document())
	if open, ok := layout.OpenMessage(snap.Document()); ok {
		candidates = append(candidates, open)
	}

	settings := cfg.GetSettings()

	fmt.Printf("\n=== Analysis ===\n")
	fmt.Printf("Platform: %s\n", layout.Platform())
	fmt.Printf("Strategy: %s\n", strategy(service, settings))
	fmt.Printf("Candidates: %d\n", len(candidates))

	ctx := context.Background()
	startTime := time.Now()
	classified := 0

	for _, c := range candidates {
		features, err := extractor.Extract(c.Selection, c.Placement, settings.ScanAttachments)
		if err != nil {
			if errors.Is(err, core.ErrExtractionFailure) {
				logger.Debug("Skipping candidate", zap.String("element", string(c.ID)), zap.Error(err))
				continue
			}
			return err
		}

		verdict, err := service.AnalyzeEmail(ctx, features)
		if err != nil {
			logger.Error("Failed to analyze email", zap.String("element", string(c.ID)), zap.Error(err))
			verdict = core.NotAnalyzedVerdict()
		}

		if err := presenter.Show(ctx, c.ID, c.Placement, verdict); err != nil {
			return err
		}
		classified++
	}

	fmt.Printf("\n=== Results ===\n")
	fmt.Printf("Classified: %d of %d\n", classified, len(candidates))
	fmt.Printf("Processing time: %v\n", time.Since(startTime))

	return nil
}

func strategy(service *core.ThreatAnalysisService, settings core.Settings) string {
	if settings.PrivacyMode && service.ModelReady() {
		return "model"
	}
	return "rules"
}
