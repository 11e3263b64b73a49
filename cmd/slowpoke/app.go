package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slowpoke/internal/config"
	"slowpoke/internal/core"
	"slowpoke/internal/logging"
	"slowpoke/internal/metrics"
	"slowpoke/pkg/domain"
)

// app holds the services a command runs against.
type app struct {
	cfg     *config.Config
	logger  *logging.Logger
	metrics *metrics.Metrics
	journal domain.JournalStore
	tracer  *core.JSONTracer
	trace   io.Closer
	service *core.Service
}

func openApp(ctx context.Context, flags *globalFlags) (*app, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}
	logger, err := logging.NewLogger(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	registry, err := cfg.Registry()
	if err != nil {
		return nil, fmt.Errorf("build workflows: %w", err)
	}
	journal, err := core.OpenJournal(ctx, cfg.JournalOptions())
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	a := &app{cfg: cfg, logger: logger, metrics: metrics.New(), journal: journal}
	if path := cfg.Metrics.TraceFile; path != "" {
		fh, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			_ = journal.Close()
			return nil, fmt.Errorf("open trace file: %w", err)
		}
		a.tracer, a.trace = core.NewJSONTracer(fh), fh
	}
	a.service = a.newService(registry)
	return a, nil
}

func (a *app) newService(registry *core.WorkflowRegistry, opts ...core.ServiceOption) *core.Service {
	base := []core.ServiceOption{
		core.WithLogger(a.logger.Named("core").KV()),
		core.WithMetrics(a.metrics),
		core.WithJournal(a.journal),
	}
	if a.tracer != nil {
		base = append(base, core.WithTracer(a.tracer))
	}
	return core.NewService(registry, append(base, opts...)...)
}

// Close flushes metrics and releases the journal.
func (a *app) Close() error {
	var errs []error
	if path := a.cfg.Metrics.Textfile; path != "" {
		if err := a.metrics.WriteTextfile(path); err != nil {
			errs = append(errs, fmt.Errorf("write metrics: %w", err))
		}
	}
	if a.trace != nil {
		if err := a.trace.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close trace file: %w", err))
		}
	}
	if err := a.journal.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close journal: %w", err))
	}
	_ = a.logger.Sync()
	return errors.Join(errs...)
}

// withApp opens the app, runs fn and closes it, keeping fn's error first.
func withApp(ctx context.Context, flags *globalFlags, fn func(*app) error) (err error) {
	a, err := openApp(ctx, flags)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(a)
}
