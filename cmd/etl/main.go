package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/couchcryptid/disturbance-data-etl/internal/adapter/export"
	"github.com/couchcryptid/disturbance-data-etl/internal/adapter/httpadapter"
	"github.com/couchcryptid/disturbance-data-etl/internal/adapter/sheet"
	"github.com/couchcryptid/disturbance-data-etl/internal/assemble"
	"github.com/couchcryptid/disturbance-data-etl/internal/config"
	"github.com/couchcryptid/disturbance-data-etl/internal/domain"
	"github.com/couchcryptid/disturbance-data-etl/internal/observability"
	"github.com/couchcryptid/disturbance-data-etl/internal/pipeline"
	"github.com/couchcryptid/disturbance-data-etl/internal/rules"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}

	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()
	defer writeMetrics(cfg.MetricsFile, metrics, logger)

	r, err := rules.Load(cfg.RulesPath)
	if err != nil {
		logger.Error("failed to load rules", "path", cfg.RulesPath, "error", err)
		return 1
	}
	issues := rules.Validate(r)
	for _, i := range issues {
		if i.Severity == rules.SeverityFatal {
			logger.Error("rule table issue", "table", i.Table, "message", i.Message)
		} else {
			logger.Warn("rule table issue", "table", i.Table, "message", i.Message)
		}
	}
	if rules.HasFatal(issues) {
		logger.Error("refusing to run", "error", domain.ErrInvalidRules)
		return 1
	}

	writer, err := export.NewWriter(cfg.OutputDir, cfg.OutputFormat, logger)
	if err != nil {
		logger.Error("failed to create writer", "error", err)
		return 1
	}
	assembler := assemble.New(cfg.InputDir, sheet.NewReader(), r.Columns, cfg.MaxHeaderAttempts, logger)
	transformer := pipeline.NewTransformer(r, logger)

	p := pipeline.New(assembler, transformer, writer, logger, metrics).WithConfigIssues(issues)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.HTTPAddr != "" {
		srv := httpadapter.NewServer(cfg.HTTPAddr, p, metrics.Registry(), logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
			}
		}()
		defer shutdownServer(srv, cfg.ShutdownTimeout, logger)
	}

	logger.Info("starting batch", "input_dir", cfg.InputDir, "output_dir", cfg.OutputDir, "format", cfg.OutputFormat)
	report, err := p.Run(ctx)
	if err != nil {
		switch {
		case errors.Is(err, context.Canceled):
			logger.Warn("batch interrupted, no outputs written")
		case errors.Is(err, domain.ErrInputDirNotFound):
			logger.Error("input directory not found", "dir", cfg.InputDir, "error", err)
		default:
			logger.Error("batch failed", "error", err)
		}
		return 1
	}

	logger.Info("batch complete",
		"run_id", report.RunID,
		"files", len(report.FilesRead),
		"skipped", len(report.Skipped),
		"rows_valid", report.Conversion.Valid,
		"rows_quarantined", report.Conversion.Incompatible,
	)
	return 0
}

func shutdownServer(srv *httpadapter.Server, timeout time.Duration, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
}

func writeMetrics(path string, m *observability.Metrics, logger *slog.Logger) {
	if path == "" {
		return
	}
	if err := m.WriteTextfile(path); err != nil {
		logger.Error("metrics textfile not written", "path", path, "error", err)
	}
}
