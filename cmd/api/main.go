package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/kaczcards/card-show-finder-sub014/internal/config"
	"github.com/kaczcards/card-show-finder-sub014/internal/logger"
	"github.com/kaczcards/card-show-finder-sub014/internal/server"
	"github.com/kaczcards/card-show-finder-sub014/internal/version"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "csf-edge",
		Short:        "Edge security gateway for the card show finder API",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd)
		},
	}
	root.AddCommand(serveCmd(), cleanupCmd(), versionCmd())
	return root
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd)
		},
	}
}

func cleanupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Delete expired rate-limit windows and old WAF logs once",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			closer := setupLogging(cfg, cmd.ErrOrStderr())
			defer closer.Close()

			a, err := buildApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			report, err := a.maintenance.RunOnce(cmd.Context())
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if encErr := enc.Encode(report); encErr != nil {
				return encErr
			}
			return err
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", version.Name, version.Full())
		},
	}
}

func runServe(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	closer := setupLogging(cfg, os.Stdout)
	defer closer.Close()

	logger.Log().WithField("version", version.Full()).Infof("starting %s", version.Name)

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := buildApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.maintenance.Start(cfg.Security.CleanupSchedule); err != nil {
		return err
	}
	defer a.maintenance.Stop()

	srv, err := server.New(cfg, a.deps())
	if err != nil {
		return err
	}
	return srv.Run(ctx)
}

// setupLogging sends logs to out and a rotated file. The returned closer
// flushes the rotator.
func setupLogging(cfg config.Config, out io.Writer) io.Closer {
	rotator := &lumberjack.Logger{
		Filename:   cfg.LogFile,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}
	var w io.Writer = out
	if cfg.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755); err == nil {
			w = io.MultiWriter(out, rotator)
		}
	}
	logger.Init(cfg.Debug, w)
	gin.DefaultWriter = w
	gin.DefaultErrorWriter = w
	return rotator
}
