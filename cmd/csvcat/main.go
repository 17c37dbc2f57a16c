// Command csvcat prints the records of delimited text files as UTF-8, whatever
// their source encoding.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/Belphemur/csvreader/internal/apperrors"
	"github.com/Belphemur/csvreader/internal/config"
	"github.com/Belphemur/csvreader/internal/csvreader"
	"github.com/Belphemur/csvreader/internal/detect"
	"github.com/Belphemur/csvreader/internal/metrics"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	logger := config.GetLogger()

	fs := pflag.NewFlagSet("csvcat", pflag.ContinueOnError)
	fs.Bool("ignore-blank", false, "skip records that consist of a single empty field")
	fs.String("format", "tsv", "output format: tsv or json")
	fs.Bool("decompress", false, "read gzip, zstd and brotli compressed files")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: csvcat [flags] FILE...")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	_ = viper.BindPFlag("reader.ignore_blank_records", fs.Lookup("ignore-blank"))
	_ = viper.BindPFlag("output.format", fs.Lookup("format"))
	_ = viper.BindPFlag("reader.decompress", fs.Lookup("decompress"))
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load config")
		return 2
	}

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: cfg.Sentry.Environment,
		}); err != nil {
			logger.Warn().Err(err).Msg("Failed to initialize sentry")
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	if cfg.Metrics.Enabled {
		metricsServer := metrics.NewHTTPServer(cfg.Server.Address, cfg.Metrics.Port)
		go func() {
			logger.Info().Str("address", metricsServer.Addr).Msg("Starting Prometheus metrics HTTP server")
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error().Err(err).Msg("Failed to serve metrics")
			}
		}()
		defer func() {
			if err := metricsServer.Shutdown(context.Background()); err != nil {
				logger.Error().Err(err).Msg("Failed to shutdown metrics server")
			}
		}()
	}

	w, err := newRecordWriter(cfg.Output.Format, os.Stdout)
	if err != nil {
		logger.Error().Err(err).Msg("Invalid output format")
		return 2
	}

	opts, err := config.ReaderOptions(cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Invalid reader configuration")
		return 2
	}

	var detector detect.Detector = detect.NewSniffer()
	detectionCache, err := config.NewDetectionCache(cfg, &logger)
	if err != nil {
		logger.Warn().Err(err).Str("provider", cfg.DetectionCache.Provider).Msg("Detection cache unavailable, sniffing every file")
	} else if detectionCache != nil {
		defer detectionCache.Close()
		detector = detect.NewCachingDetector(detector, detectionCache)
	}
	opts = append(opts, csvreader.WithDetector(detector))

	reader := csvreader.New(opts...)
	defer reader.Close()

	failed := 0
	for _, path := range fs.Args() {
		if err := catFile(reader, path, w, logger); err != nil {
			failed++
			reportError(err, path)
		}
	}
	if err := w.Flush(); err != nil {
		logger.Error().Err(err).Msg("Failed to write output")
		return 1
	}

	if failed > 0 {
		logger.Error().Int("failed", failed).Int("files", fs.NArg()).Msg("Some files could not be read")
		return 1
	}
	return 0
}

// catFile writes every record of path to w. Reading stops at the first error.
func catFile(reader *csvreader.Reader, path string, w recordWriter, logger zerolog.Logger) error {
	if err := reader.Open(path); err != nil {
		var loadErr *apperrors.LoadError
		if errors.As(err, &loadErr) {
			logger.Error().Err(err).Str("kind", loadErr.Kind.String()).Str("path", path).Msg("File not loaded")
		}
		return err
	}
	defer reader.Close()

	logger.Debug().Str("path", path).Str("encoding", reader.Encoding().String()).Msg("Reading file")
	for record, err := range reader.All() {
		if err != nil {
			logger.Error().Err(err).Str("path", path).Int("record", reader.Line()).Msg("Failed to read record")
			return err
		}
		if err := w.Write(path, reader.Line(), record); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	return nil
}

func reportError(err error, path string) {
	hub := sentry.CurrentHub()
	if hub.Client() == nil {
		return
	}
	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("path", path)
		var loadErr *apperrors.LoadError
		if errors.As(err, &loadErr) {
			scope.SetTag("kind", loadErr.Kind.String())
		}
		hub.CaptureException(err)
	})
}
