package di

import (
	"fmt"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/llm-threat-scanner/internal/adapters/cache"
	"github.com/mikey/llm-threat-scanner/internal/config"
	"github.com/mikey/llm-threat-scanner/internal/core"
	"github.com/mikey/llm-threat-scanner/internal/dom"
	"github.com/mikey/llm-threat-scanner/internal/extract"
	"github.com/mikey/llm-threat-scanner/internal/factory"
	"github.com/mikey/llm-threat-scanner/internal/logging"
	"github.com/mikey/llm-threat-scanner/internal/messaging"
	"github.com/mikey/llm-threat-scanner/internal/ports"
	"github.com/mikey/llm-threat-scanner/internal/rules"
	"github.com/mikey/llm-threat-scanner/internal/scan"
	"github.com/mikey/llm-threat-scanner/internal/settings"
	"github.com/mikey/llm-threat-scanner/internal/whitelist"
)

// BuildHostContainer creates the container of the classification host
func BuildHostContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	if err := provideHost(container); err != nil {
		return nil, err
	}

	// Register host server
	if err := container.Provide(func(d *messaging.Dispatcher, logger *zap.Logger) *messaging.Server {
		return messaging.NewServer(d, nil, logger)
	}); err != nil {
		return nil, err
	}

	return container, nil
}

// BuildScannerContainer creates the container of the scanner daemon. With
// the in-process transport the host components live in the same container.
func BuildScannerContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	// Register scan configuration
	if err := container.Provide(func(cfg *config.Config) (config.ScanConfig, error) {
		return cfg.GetScan()
	}); err != nil {
		return nil, err
	}

	var transport string
	if err := container.Invoke(func(cfg *config.Config) {
		transport = cfg.GetString("scan.transport")
	}); err != nil {
		return nil, err
	}

	switch transport {
	case "inprocess":
		if err := provideHost(container); err != nil {
			return nil, err
		}
		if err := container.Provide(func(d *messaging.Dispatcher) messaging.Transport {
			return messaging.NewInProcessTransport(d)
		}); err != nil {
			return nil, err
		}
		if err := container.Provide(func(d *messaging.Dispatcher, o *scan.Orchestrator, logger *zap.Logger) *messaging.Server {
			return messaging.NewServer(d, o, logger)
		}); err != nil {
			return nil, err
		}
	case "http":
		if err := container.Provide(func(scanCfg config.ScanConfig, logger *zap.Logger) messaging.Transport {
			return messaging.NewHTTPTransport(scanCfg.HostURL, scanCfg.RequestTimeout, logger)
		}); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported scan transport: %s", transport)
	}

	// Register messaging client
	if err := container.Provide(messaging.NewClient); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewStatsFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewPresenterFactory); err != nil {
		return nil, err
	}

	// Register stats repository
	if err := container.Provide(func(f *factory.StatsFactory) (ports.StatsRepository, error) {
		return f.CreateStatsRepository()
	}); err != nil {
		return nil, err
	}

	// Register presenter
	if err := container.Provide(func(f *factory.PresenterFactory, client *messaging.Client) (ports.Presenter, error) {
		return f.CreatePresenter(client)
	}); err != nil {
		return nil, err
	}

	// Register verdict cache
	if err := container.Provide(func(logger *zap.Logger) core.VerdictCache {
		return cache.NewMemoryCache(logger)
	}); err != nil {
		return nil, err
	}

	// Register extractor
	if err := container.Provide(func(scanCfg config.ScanConfig, logger *zap.Logger) (*extract.Extractor, error) {
		layout, err := extract.LayoutFor(scanCfg.Platform)
		if err != nil {
			return nil, err
		}
		return extract.NewExtractor(layout, logger), nil
	}); err != nil {
		return nil, err
	}

	// Register document source
	if err := container.Provide(func(scanCfg config.ScanConfig, logger *zap.Logger) *dom.FileSource {
		return dom.NewFileSource(scanCfg.DocumentPath, logger)
	}); err != nil {
		return nil, err
	}

	// Register orchestrator
	if err := container.Provide(func(
		extractor *extract.Extractor,
		client *messaging.Client,
		verdicts core.VerdictCache,
		presenter ports.Presenter,
		stats ports.StatsRepository,
		scanCfg config.ScanConfig,
		logger *zap.Logger,
	) *scan.Orchestrator {
		return scan.NewOrchestrator(extractor, client, client, verdicts, presenter, stats, scanCfg.Debounce, logger)
	}); err != nil {
		return nil, err
	}

	return container, nil
}

// provideHost registers the classification host components
func provideHost(container *dig.Container) error {
	// Register LLM factory
	if err := container.Provide(factory.NewLLMFactory); err != nil {
		return err
	}

	// Register settings store
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) *settings.Store {
		return settings.NewStore(cfg.GetSettings(), logger)
	}); err != nil {
		return err
	}

	// Register threat analysis service
	if err := container.Provide(func(
		cfg *config.Config,
		f *factory.LLMFactory,
		store *settings.Store,
		logger *zap.Logger,
	) *core.ThreatAnalysisService {
		model, err := f.CreateModelClassifier()
		if err != nil {
			logger.Warn("Model backend unavailable, using rule-based classification", zap.Error(err))
		}

		whitelistedDomains := cfg.GetStringSlice("settings.whitelisted_domains")
		trusted := whitelist.NewChecker(whitelistedDomains, logger)

		return core.NewThreatAnalysisService(rules.NewClassifier(logger), model, store, trusted, logger)
	}); err != nil {
		return err
	}

	// Register dispatcher
	if err := container.Provide(func(
		service *core.ThreatAnalysisService,
		store *settings.Store,
		logger *zap.Logger,
	) *messaging.Dispatcher {
		return messaging.NewDispatcher(service, store, logger)
	}); err != nil {
		return err
	}

	return nil
}
