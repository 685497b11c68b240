package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vertextoedge/index-mirror/internal/adapter/filesystem"
	"github.com/vertextoedge/index-mirror/internal/adapter/listing"
	"github.com/vertextoedge/index-mirror/internal/adapter/remote"
	"github.com/vertextoedge/index-mirror/internal/adapter/sqlite"
	"github.com/vertextoedge/index-mirror/internal/config"
	"github.com/vertextoedge/index-mirror/internal/domain/event"
	"github.com/vertextoedge/index-mirror/internal/logger"
	"github.com/vertextoedge/index-mirror/internal/port"
	"github.com/vertextoedge/index-mirror/internal/service/fetcher"
	"github.com/vertextoedge/index-mirror/internal/service/mirror"
)

// Version information - set via ldflags during build.
var version = "0.1.0"

var configPath string

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "index-mirror",
		Short: "Mirror an HTTP directory listing to local disk",
		Long: `index-mirror walks an HTTP index page tree depth-first and downloads every
file it finds, skipping files whose local size already matches the server.`,
		Version:      version,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE:         runMirror,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "Path to configuration file (default ./index-mirror.yaml if present)")
	flags.String("base-url", "", "Listing URL to mirror")
	flags.StringP("output", "o", "", "Local output directory")
	flags.Int("max-depth", 0, "Maximum directory depth below the base URL (0 = unbounded)")
	flags.String("log-level", "", "Log level: debug, info, warn, error")
	flags.String("journal", "", "Path to the SQLite run journal (empty disables it)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Perform one full mirror run (default command)",
		Args:  cobra.NoArgs,
		RunE:  runMirror,
	}

	rootCmd.AddCommand(runCmd, newHistoryCmd())
	return rootCmd
}

func runMirror(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath, cmd.Flags())
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.Format); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	zapLogger := logger.GetZapLogger()
	zapLogger.Info("starting index-mirror",
		zap.String("event", "start"),
		zap.String("version", version),
		zap.String("base_url", cfg.Remote.BaseURL),
		zap.String("output_dir", cfg.Output.RootDir),
	)
	zapLogger.Info("configuration loaded",
		zap.String("event", "config"),
		zap.Duration("request_timeout", cfg.Remote.GetRequestTimeout()),
		zap.Duration("head_timeout", cfg.Remote.GetHeadTimeout()),
		zap.Int("chunk_size", cfg.Download.ChunkSize),
		zap.Int("max_depth", cfg.Mirror.MaxDepth),
		zap.Bool("http3", cfg.Remote.HTTP3),
		zap.String("journal", cfg.Journal.Path),
	)

	// Initialize filesystem manager
	fsManager, err := filesystem.NewManager(cfg.Output.RootDir)
	if err != nil {
		zapLogger.Error("failed to create output directory", zap.Error(err))
		return err
	}

	lock, err := filesystem.AcquireRunLock(fsManager.RootDir())
	if err != nil {
		zapLogger.Error("failed to lock output directory", zap.Error(err))
		return err
	}
	defer lock.Release()

	// Open the journal only when configured
	var journal port.RunJournal
	if cfg.Journal.Path != "" {
		store, err := sqlite.Open(cfg.Journal.Path)
		if err != nil {
			zapLogger.Error("failed to open journal", zap.Error(err), zap.String("path", cfg.Journal.Path))
			return err
		}
		defer store.Close()
		journal = store
	}

	client := remote.NewClient(&remote.ClientConfig{
		RequestTimeout: cfg.Remote.GetRequestTimeout(),
		HeadTimeout:    cfg.Remote.GetHeadTimeout(),
		UserAgent:      cfg.Remote.GetUserAgent(version),
		SkipTLSVerify:  cfg.Remote.SkipTLSVerify,
		HTTP3:          cfg.Remote.HTTP3,
	})

	dispatcher := event.NewInMemoryDispatcher()
	dispatcher.Subscribe(event.NewLoggingHandler(zapLogger))

	discoverer := listing.NewDiscoverer(client, dispatcher, zapLogger)
	fileFetcher := fetcher.New(&fetcher.Config{
		ChunkSize:        cfg.Download.ChunkSize,
		ProgressInterval: cfg.Download.GetProgressInterval(),
	}, client, fsManager, nil, dispatcher, zapLogger)

	orchestrator := mirror.New(&mirror.Config{
		MaxDepth: cfg.Mirror.MaxDepth,
	}, discoverer, fileFetcher, fsManager, journal, dispatcher, zapLogger)

	// Stop the walk on SIGINT/SIGTERM; the partial file is caught by the next run
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := orchestrator.Mirror(ctx, cfg.Remote.BaseURL); err != nil {
		if errors.Is(err, context.Canceled) {
			zapLogger.Info("shutdown complete")
			return nil
		}
		return err
	}

	return nil
}
