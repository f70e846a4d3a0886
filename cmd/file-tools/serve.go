package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ironsheep/file-tools/internal/config"
	"github.com/ironsheep/file-tools/internal/imaging"
	"github.com/ironsheep/file-tools/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Serve starts the conversion endpoints on the configured address and runs
until SIGINT or SIGTERM. In-flight requests are given server.shutdown_timeout
to finish.

Configuration is read from defaults, the config file, FILE_TOOLS_*
environment variables (e.g. FILE_TOOLS_SERVER_ADDR) and the flags below,
in increasing order of precedence.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default :5001)")
	serveCmd.Flags().String("work-dir", "", "directory for per-request workspaces")
	serveCmd.Flags().String("log-level", "", "log level: debug, info, warn, error")

	rootCmd.AddCommand(serveCmd)
}

// flagKeys maps serve flags to configuration keys.
var flagKeys = map[string]string{
	"addr":      "server.addr",
	"work-dir":  "work_dir",
	"log-level": "log.level",
}

func runServe(cmd *cobra.Command, args []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	v := config.NewViper(cfgFile)
	for flag, key := range flagKeys {
		f := cmd.Flags().Lookup(flag)
		if f == nil || !f.Changed {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind --%s: %w", flag, err)
		}
	}

	cfg, err := config.Load(v)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		return err
	}
	if used := v.ConfigFileUsed(); used != "" {
		logger.WithField("file", used).Debug("using config file")
	}
	logger.WithFields(logrus.Fields{
		"version":    Version,
		"build_time": BuildTime,
		"commit":     GitCommit,
	}).Debug("starting file-tools")

	imaging.StartVips(imaging.VipsOptions{
		Concurrency: cfg.Vips.Concurrency,
		Logger:      logger,
	})
	defer imaging.ShutdownVips()

	srv, err := server.New(cfg, logger, Version)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}
