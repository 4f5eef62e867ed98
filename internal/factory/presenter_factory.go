package factory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/mikey/llm-threat-scanner/internal/adapters/notify"
	"github.com/mikey/llm-threat-scanner/internal/adapters/presenter"
	"github.com/mikey/llm-threat-scanner/internal/config"
	"github.com/mikey/llm-threat-scanner/internal/ports"
	"go.uber.org/zap"
)

// PresenterFactory creates the presenters named in presenter.types
type PresenterFactory struct {
	cfg     *config.Config
	logger  *zap.Logger
	out     io.Writer
	closers []io.Closer
}

// NewPresenterFactory creates a new presenter factory
func NewPresenterFactory(cfg *config.Config, logger *zap.Logger) *PresenterFactory {
	return &PresenterFactory{
		cfg:    cfg,
		logger: logger,
		out:    os.Stdout,
	}
}

// CreatePresenter creates a presenter fanning out to every configured type
func (f *PresenterFactory) CreatePresenter(settings notify.SettingsProvider) (ports.Presenter, error) {
	presenterConfig := f.cfg.GetPresenter()

	var presenters presenter.Multi
	for _, presenterType := range presenterConfig.Types {
		switch presenterType {
		case "log":
			presenters = append(presenters, presenter.NewLogPresenter(f.logger))
		case "console":
			presenters = append(presenters, presenter.NewConsolePresenter(f.out, presenterConfig.Verbose))
		case "json":
			w, err := f.openJSON(presenterConfig.JSONPath)
			if err != nil {
				return nil, err
			}
			presenters = append(presenters, presenter.NewJSONPresenter(w))
		case "smtp":
			sender, err := notify.NewSMTPSender(f.cfg.GetNotify(), f.logger)
			if err != nil {
				return nil, fmt.Errorf("failed to create SMTP sender: %w", err)
			}
			presenters = append(presenters, f.notifier(sender, settings))
		case "ses":
			sender, err := notify.NewSESSender(context.Background(), f.cfg.GetNotify(), f.logger)
			if err != nil {
				return nil, fmt.Errorf("failed to create SES sender: %w", err)
			}
			presenters = append(presenters, f.notifier(sender, settings))
		default:
			return nil, fmt.Errorf("unsupported presenter type: %s", presenterType)
		}
	}

	if len(presenters) == 0 {
		return nil, fmt.Errorf("no presenter configured")
	}
	if len(presenters) == 1 {
		return presenters[0], nil
	}
	return presenters, nil
}

// Close flushes pending alerts and closes opened files
func (f *PresenterFactory) Close() error {
	var errs []error
	for _, c := range f.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	f.closers = nil
	return errors.Join(errs...)
}

func (f *PresenterFactory) notifier(sender notify.Sender, settings notify.SettingsProvider) *notify.Notifier {
	n := notify.NewNotifier(sender, settings, f.logger)
	f.closers = append(f.closers, n)
	return n
}

func (f *PresenterFactory) openJSON(path string) (io.Writer, error) {
	if path == "" || path == "-" {
		return f.out, nil
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open presenter output: %w", err)
	}
	f.closers = append(f.closers, file)
	return file, nil
}
