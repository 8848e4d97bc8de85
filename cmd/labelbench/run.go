package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"time"

	"go.uber.org/zap"

	"github.com/FairForge/labelbench/internal/api"
	"github.com/FairForge/labelbench/internal/classifier"
	"github.com/FairForge/labelbench/internal/config"
	"github.com/FairForge/labelbench/internal/export"
	"github.com/FairForge/labelbench/internal/loadtest"
	"github.com/FairForge/labelbench/internal/logging"
	"github.com/FairForge/labelbench/internal/metrics"
	"github.com/FairForge/labelbench/internal/reporting"
)

// Artifact names, relative to <output dir>/<run id>/.
const (
	resultsFile  = "accuracy_results.csv"
	averagesFile = "average_metrics.csv"
	overallFile  = "overall_averages.csv"
	combinedFile = "combined_average_metrics.csv"
	reportFile   = "report.json"
)

type options struct {
	configPath string
	levels     string
	outDir     string
	cpuCSV     string
}

// loadConfig reads the config file and applies command-line overrides.
func loadConfig(opts options) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.levels != "" {
		levels, err := config.ParseLevels(opts.levels)
		if err != nil {
			return nil, &config.ValidationError{Field: "-levels", Reason: err.Error()}
		}
		cfg.Sweep.LoadLevels = levels
	}
	if opts.outDir != "" {
		cfg.Output.Dir = opts.outDir
	}
	if opts.cpuCSV != "" {
		cfg.CPUCSV = opts.cpuCSV
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func buildSink(ctx context.Context, cfg *config.Config, logger *zap.Logger) (export.Sink, error) {
	sinks := export.Fanout{export.NewLocalSink(cfg.Output.Dir, logger)}
	if cfg.Output.S3.Bucket != "" {
		s3Sink, err := export.NewS3Sink(ctx, export.S3Config{
			Bucket:    cfg.Output.S3.Bucket,
			Prefix:    cfg.Output.S3.Prefix,
			Region:    cfg.Output.S3.Region,
			Endpoint:  cfg.Output.S3.Endpoint,
			AccessKey: os.Getenv("LABELBENCH_S3_ACCESS_KEY"),
			SecretKey: os.Getenv("LABELBENCH_S3_SECRET_KEY"),
		}, logger)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, s3Sink)
	}
	return export.NewCompressSink(sinks, cfg.Output.Algorithm())
}

func run(ctx context.Context, opts options, stdout io.Writer) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	logger, err := logging.Build(&cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	// Read the CPU file up front so a typo fails before the sweep.
	var cpu []reporting.CPURow
	if cfg.CPUCSV != "" {
		f, err := os.Open(cfg.CPUCSV)
		if err != nil {
			return fmt.Errorf("open cpu csv: %w", err)
		}
		cpu, err = reporting.ReadCPUCSV(f, nil)
		_ = f.Close()
		if err != nil {
			return err
		}
	}

	sink, err := buildSink(ctx, cfg, logger)
	if err != nil {
		return err
	}

	collector := metrics.NewCollector()
	client := classifier.NewClient(cfg.ClientConfig(), logger)
	evaluator := loadtest.NewEvaluator(client, logger,
		loadtest.WithObserver(collector),
		loadtest.WithRateLimit(cfg.Sweep.RequestsPerSecond),
	)
	sweep := loadtest.NewSweep(evaluator, logger,
		loadtest.WithSweepObserver(collector),
		loadtest.WithHostSampler(loadtest.NewHostSampler(time.Second)),
	)

	if cfg.Status.Addr != "" {
		status := api.NewServer(cfg.Status.Addr, sweep, collector.Handler(), logger)
		go func() {
			if err := status.ListenAndServe(); err != nil {
				logger.Error("status server failed", zap.Error(err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = status.Shutdown(shutdownCtx)
		}()
	}

	table, runErr := sweep.Run(ctx, cfg.Items(), cfg.PlatformList(), cfg.Sweep.LoadLevels)
	if table == nil {
		return runErr
	}
	if runErr != nil {
		logger.Warn("sweep stopped early, exporting partial results",
			zap.Error(runErr), zap.Int("records", table.Len()))
	}

	report := reporting.NewReport(table, sweep.Summaries(), cpu)

	// Exports must finish even when the sweep was interrupted.
	exportCtx := context.WithoutCancel(ctx)
	if err := writeArtifacts(exportCtx, sink, table.RunID(), table.Records(), report); err != nil {
		return errors.Join(runErr, err)
	}
	logger.Info("Results saved",
		zap.String("dir", path.Join(cfg.Output.Dir, table.RunID())),
		zap.String("sink", sink.Name()))

	fmt.Fprintf(stdout, "\nRun %s: %d records\n\n", table.RunID(), table.Len())
	reporting.RenderTable(stdout, report.Averages)
	if len(report.Combined) > 0 {
		fmt.Fprintln(stdout)
		reporting.RenderCombined(stdout, report.Combined)
	}

	return runErr
}

func writeArtifacts(ctx context.Context, sink export.Sink, runID string, records []loadtest.Record, report *reporting.Report) error {
	var buf bytes.Buffer
	put := func(name string, write func(io.Writer) error) error {
		buf.Reset()
		if err := write(&buf); err != nil {
			return fmt.Errorf("render %s: %w", name, err)
		}
		if err := export.PutBytes(ctx, sink, path.Join(runID, name), buf.Bytes()); err != nil {
			return fmt.Errorf("export %s: %w", name, err)
		}
		return nil
	}

	if err := put(resultsFile, func(w io.Writer) error { return reporting.WriteResultsCSV(w, records) }); err != nil {
		return err
	}
	if err := put(averagesFile, func(w io.Writer) error { return reporting.WriteAveragesCSV(w, report.Averages) }); err != nil {
		return err
	}
	if err := put(overallFile, func(w io.Writer) error { return reporting.WriteOverallCSV(w, report.Overall) }); err != nil {
		return err
	}
	if len(report.Combined) > 0 {
		if err := put(combinedFile, func(w io.Writer) error { return reporting.WriteCombinedCSV(w, report.Combined) }); err != nil {
			return err
		}
	}
	return put(reportFile, func(w io.Writer) error {
		data, err := reporting.Export(report, reporting.FormatJSON)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	})
}
