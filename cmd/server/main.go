package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/anha-cs/filechat/internal/app"
	"github.com/anha-cs/filechat/internal/config"
	"github.com/anha-cs/filechat/internal/log"
)

func main() {
	var configPath string

	cmd := &cobra.Command{
		Use:          "server [port]",
		Short:        "Chat relay server with brokered peer-to-peer file transfers",
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(configPath, args)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "path to config file")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(configPath string, args []string) error {
	bootstrapLogger := log.New("info")

	cfg, _, err := config.Load(bootstrapLogger, configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if len(args) == 1 {
		if port, err := strconv.Atoi(args[0]); err == nil && port > 0 && port < 65536 {
			cfg.Addr = fmt.Sprintf(":%d", port)
		} else {
			fmt.Printf("Invalid port number. Using default port %d.\n", config.DefaultPort)
		}
	}

	logger := log.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(cfg, logger)
	if err != nil {
		return err
	}

	if err := application.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("server exited with error")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
