package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/streamq/doc-scanner/internal/archive"
	"github.com/streamq/doc-scanner/internal/capture"
	"github.com/streamq/doc-scanner/internal/config"
	"github.com/streamq/doc-scanner/internal/dedup"
	"github.com/streamq/doc-scanner/internal/detect"
	"github.com/streamq/doc-scanner/internal/logger"
	"github.com/streamq/doc-scanner/internal/metrics"
	"github.com/streamq/doc-scanner/internal/notify"
	"github.com/streamq/doc-scanner/internal/ocr"
	"github.com/streamq/doc-scanner/internal/triage"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Handle --version and -v flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("docscan %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			fmt.Println("docscan - frame-by-frame document capture and triage")
			fmt.Println()
			fmt.Println("Usage: docscan [options]")
			fmt.Println()
			fmt.Println("Options:")
			fmt.Println("  --version, -v    Print version information")
			fmt.Println("  --help, -h       Print this help message")
			fmt.Println()
			fmt.Println("Environment variables:")
			fmt.Println("  SQ_SOURCE_DIR           Directory of frames to scan")
			fmt.Println("  SQ_ARCHIVE_DIR          Where archived documents land (default ./archive)")
			fmt.Println("  SQ_SCANNER_FPS          Target analysis rate (default 2)")
			fmt.Println("  SQ_SCANNER_JPEG_QUALITY Save quality 1-100 (default 90)")
			fmt.Println("  SQ_METRICS_ADDR         Prometheus listen address (empty disables)")
			fmt.Println("  SQ_LOG_LEVEL            trace|debug|info|warn|error (default info)")
			fmt.Println()
			fmt.Println("A .env file in the working directory is loaded if present.")
			return
		}
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.LogPretty,
		Output: os.Stderr,
	})
	log.Info().Str("version", Version).Str("commit", GitCommit).Msg("docscan starting")

	var m *metrics.Metrics
	if cfg.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		m = metrics.New(reg)
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		go func() {
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				log.Error().Err(err).Msg("metrics listener failed")
			}
		}()
		log.Info().Str("addr", cfg.MetricsAddr).Msg("metrics exposed")
	}

	store, err := archive.NewFSStore(cfg.ArchiveDir)
	if err != nil {
		log.Fatal().Err(err).Str("dir", cfg.ArchiveDir).Msg("cannot open archive directory")
	}

	checker := dedup.NewChecker(cfg.Dedup)
	notifier := notify.Multi(
		&notify.LogNotifier{Log: log},
	)

	engine := triage.New(cfg.Thresholds, checker,
		triage.WithNotifier(notifier),
		triage.WithMetrics(m),
		triage.WithLogger(log),
	)

	router := detect.NewRouter(cfg.Detection, cfg.EnabledTypes,
		detect.WithMetrics(m),
		detect.WithLogger(log),
	)

	if cfg.SourceDir == "" {
		log.Fatal().Msg("SQ_SOURCE_DIR is required")
	}
	frameInterval := time.Duration(float64(time.Second) / cfg.ScanFPS)
	src, err := capture.NewDirectorySource(cfg.SourceDir, frameInterval)
	if err != nil {
		log.Fatal().Err(err).Str("dir", cfg.SourceDir).Msg("cannot open frame source")
	}

	opts := []capture.SessionOption{
		capture.WithNotifier(notifier),
		capture.WithMetrics(m),
		capture.WithLogger(log),
		capture.WithScanRate(cfg.ScanFPS),
		capture.WithJPEGQuality(cfg.JPEGQuality),
	}
	if cfg.OCRLanguage != "" {
		opts = append(opts, capture.WithOCR(&ocr.TesseractReader{Language: cfg.OCRLanguage}))
	}
	session := capture.NewSession(src, router, engine, store, opts...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := session.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("capture session failed")
	}

	if n := engine.Pending().Len(); n > 0 {
		log.Warn().Int("count", n).Msg("unconfirmed documents discarded on shutdown")
	}
	log.Info().Msg("docscan stopped")
}
