package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/avoronkov/peerchat-server/internal/app"
	"github.com/avoronkov/peerchat-server/internal/config"
	"github.com/avoronkov/peerchat-server/internal/log"
)

func main() {
	var (
		configPath string
		overrides  config.Config
	)

	root := &cobra.Command{
		Use:           "peerchat-server",
		Short:         "Real-time presence and messaging server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			bootstrapLogger := log.New("info")

			cfg, path, err := config.Load(bootstrapLogger, configPath)
			if err != nil {
				return err
			}
			cfg.UpdateFrom(overrides)

			logger := log.New(cfg.LogLevel)
			logger.Info().Str("config", path).Str("addr", cfg.Addr).Msg("starting peerchat server")

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			application, err := app.New(cfg, logger)
			if err != nil {
				return err
			}

			if err := application.Run(ctx); err != nil {
				return err
			}

			logger.Info().Msg("server stopped")
			return nil
		},
	}

	flags := root.Flags()
	flags.StringVar(&configPath, "config", "", "path to config file")
	flags.StringVar(&overrides.Addr, "addr", "", "HTTP listen address")
	flags.StringVar(&overrides.DatabasePath, "db", "", "path to the SQLite database")
	flags.StringVar(&overrides.LogLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.DurationVar(&overrides.ShutdownTimeout, "shutdown-timeout", 0, "graceful shutdown timeout")
	flags.DurationVar(&overrides.PresenceInterval, "presence-interval", 0, "streamed presence snapshot interval")

	if err := root.ExecuteContext(context.Background()); err != nil {
		logger := log.New("error")
		logger.Fatal().Err(err).Msg("server exited with error")
	}
}
