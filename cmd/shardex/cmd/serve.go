package cmd

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/shardex/internal/catalog"
	"github.com/Aman-CERP/shardex/internal/config"
	"github.com/Aman-CERP/shardex/internal/daemon"
	"github.com/Aman-CERP/shardex/internal/logging"
	"github.com/Aman-CERP/shardex/internal/server"
)

// nodeFlags are the command-line overrides shared by serve, status and stop.
type nodeFlags struct {
	dataDir string
	host    string
	port    int
}

func (f *nodeFlags) register(cmd *cobra.Command, withListen bool) {
	cmd.Flags().StringVar(&f.dataDir, "data-dir", "", "Data directory (overrides config)")
	if withListen {
		cmd.Flags().StringVar(&f.host, "host", "", "Listen host (overrides config)")
		cmd.Flags().IntVar(&f.port, "port", 0, "Listen port (overrides config)")
	}
}

// loadConfig loads config for the working directory and applies flag overrides.
func (f *nodeFlags) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get current directory: %w", err)
	}

	cfg, err := config.Load(cwd)
	if err != nil {
		return nil, err
	}

	if f.dataDir != "" {
		cfg.Paths.DataDir = f.dataDir
	}
	if f.host != "" {
		cfg.Server.Host = f.host
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = f.port
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newServeCmd() *cobra.Command {
	var flags nodeFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the indices in the data directory over HTTP",
		Long: `Open every index under the data directory as a primary shard and serve
it over HTTP until SIGINT or SIGTERM.

Only one node may serve a data directory at a time. Buffered writes that were
never flushed are discarded on shutdown.`,
		Example: `  # Serve with configuration defaults
  shardex serve

  # Serve a specific data directory on another port
  shardex serve --data-dir /var/lib/shardex --port 9200`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg)
		},
	}

	flags.register(cmd, true)
	return cmd
}

// runServe holds the data directory for the lifetime of ctx.
func runServe(ctx context.Context, cfg *config.Config) error {
	if !debugMode {
		logCfg := logging.DefaultConfig()
		logCfg.Level = cfg.Server.LogLevel
		logCfg.Attrs = []slog.Attr{slog.String("node", cfg.NodeID())}
		cleanup, err := logging.SetupDefault(logCfg)
		if err != nil {
			return fmt.Errorf("failed to setup logging: %w", err)
		}
		defer cleanup()
	}

	paths := daemon.PathsFor(cfg.Paths.DataDir)
	if err := paths.EnsureDir(); err != nil {
		return err
	}

	lock := daemon.NewDataDirLock(paths.LockPath)
	if err := lock.Acquire(); err != nil {
		if stderrors.Is(err, daemon.ErrDataDirLocked) {
			return fmt.Errorf("%w: %s", err, cfg.Paths.DataDir)
		}
		return err
	}
	defer func() { _ = lock.Release() }()

	pid := daemon.NewPIDFile(paths.PIDPath)
	if err := pid.Write(); err != nil {
		return err
	}
	defer func() { _ = pid.Remove() }()

	cat, err := catalog.Open(ctx, cfg.Paths.DataDir, cfg.IndexSettings())
	if err != nil {
		return fmt.Errorf("failed to open catalog: %w", err)
	}

	srv := server.New(server.Config{
		Addr:            cfg.Addr(),
		Catalog:         cat,
		NodeID:          cfg.NodeID(),
		ShutdownTimeout: cfg.ShutdownTimeout(),
	})

	serveErr := srv.Run(ctx)

	if err := cat.Close(); err != nil {
		slog.Error("catalog close failed", slog.String("error", err.Error()))
		if serveErr == nil {
			serveErr = err
		}
	}
	slog.Info("shardex stopped", slog.String("data_dir", cfg.Paths.DataDir))
	return serveErr
}
