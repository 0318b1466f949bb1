// Package app wires configuration, the transfer log, the hub, and the TCP
// transport into a runnable server.
package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/anha-cs/filechat/internal/config"
	"github.com/anha-cs/filechat/internal/core"
	"github.com/anha-cs/filechat/internal/store"
	"github.com/anha-cs/filechat/internal/store/sqlite"
	"github.com/anha-cs/filechat/internal/transport/tcp"
)

// App wires together core and transport layers.
type App struct {
	server   *tcp.Server
	hub      *core.Hub
	transfer store.TransferLog
	log      *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg config.Config, logger *zerolog.Logger) (*App, error) {
	var transferLog store.TransferLog
	if cfg.DatabasePath != "" {
		tl, err := sqlite.New(cfg.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("init transfer log: %w", err)
		}
		transferLog = tl
		logger.Info().Str("db_path", cfg.DatabasePath).Msg("transfer log enabled")
	}

	hub := core.NewHub(logger, transferLog)
	server := tcp.NewServer(hub, cfg.Addr, logger)

	return &App{
		server:   server,
		hub:      hub,
		transfer: transferLog,
		log:      logger,
	}, nil
}

// Run starts the TCP server and blocks until context cancellation or a fatal
// error. A busy listen address surfaces here before any client is served.
func (a *App) Run(ctx context.Context) error {
	err := a.server.Run(ctx)
	a.cleanup()
	return err
}

// cleanup closes the transfer log and other resources.
func (a *App) cleanup() {
	if a.transfer != nil {
		if err := a.transfer.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close transfer log")
		} else {
			a.log.Info().Msg("transfer log closed")
		}
	}
}
