package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gtriggiano/hierauthz/pkg/apiserver"
	"github.com/gtriggiano/hierauthz/pkg/config"
	"github.com/gtriggiano/hierauthz/pkg/decision"
	"github.com/gtriggiano/hierauthz/pkg/hierarchy"
	"github.com/gtriggiano/hierauthz/pkg/logging"
	"github.com/gtriggiano/hierauthz/pkg/metrics"
)

var cfgFile string

// init wires the serve subcommand and configuration flag into the CLI.
func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&cfgFile, "config", "config.yaml", "Path to the configuration file")
}

var serveCmd = &cobra.Command{
	Use:           "serve",
	Short:         "Serve access decisions over HTTP",
	SilenceErrors: true,
	RunE: func(_ *cobra.Command, _ []string) error {
		path, err := filepath.Abs(cfgFile)
		if err != nil {
			return fmt.Errorf("resolve config path: %w", err)
		}
		cfg, err := config.Load(path)
		if err != nil {
			return err
		}

		baseLogger, err := logging.New(cfg.Logging)
		if err != nil {
			return err
		}
		defer func() { _ = baseLogger.Sync() }()
		logger := baseLogger.With(zap.String("component", "cli"))

		resources := make(map[string]hierarchy.ResourceAttributes, len(cfg.Resources))
		for path, rc := range cfg.Resources {
			resources[path] = hierarchy.ResourceAttributes{
				AccessRule:  rc.AccessRule,
				Description: rc.Description,
			}
		}
		h, err := hierarchy.BuildFromResources(resources)
		if err != nil {
			logger.Error("could not build resource hierarchy", zap.Error(err))
			return err
		}

		runCtx, cancelRunCtx := context.WithCancel(context.Background())
		defer cancelRunCtx()

		metricsServer := metrics.NewServer(cfg.Metrics, baseLogger.With(zap.String("component", "metrics-server")))
		metricsServer.SetReady(false)

		manager := decision.NewManager(h, metricsServer.Instrumentation(), baseLogger.With(zap.String("component", "decision-manager")))
		apiServer := apiserver.NewServer(cfg.Server, manager, baseLogger.With(zap.String("component", "api-server")))

		serversGroup, serversCtx := errgroup.WithContext(runCtx)

		serversGroup.Go(func() error {
			return metricsServer.Start(serversCtx)
		})

		serversGroup.Go(func() error {
			return apiServer.Start(serversCtx, func() { metricsServer.SetReady(true) })
		})

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
		defer signal.Stop(sigCh)

		done := make(chan struct{})
		defer close(done)

		go func() {
			select {
			case <-sigCh:
				logger.Info("shutdown signal received")
				cancelRunCtx()
				timeout := cfg.Shutdown.ShutdownTimeout()
				timer := time.NewTimer(timeout)
				defer timer.Stop()
				select {
				case <-done:
				case <-timer.C:
					logger.Error("shutdown timed out", zap.String("timeout", timeout.String()))
					os.Exit(1)
				}
			case <-done:
				return
			}
		}()

		if err := serversGroup.Wait(); err != nil && serversCtx.Err() == nil {
			logger.Error("server exited with error", zap.Error(err))
			return err
		}
		return nil
	},
}
