package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/anha-cs/filechat/internal/client"
	"github.com/anha-cs/filechat/internal/config"
	"github.com/anha-cs/filechat/internal/log"
)

func main() {
	var (
		downloadDir string
		logLevel    string
	)

	cmd := &cobra.Command{
		Use:          "client <hostname> <username> [port]",
		Short:        "Chat client with direct peer-to-peer file transfers",
		Args:         cobra.RangeArgs(2, 3),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(args, downloadDir, logLevel)
		},
	}
	cmd.Flags().StringVar(&downloadDir, "download-dir", "", "directory for received files")
	cmd.Flags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(args []string, downloadDir, logLevel string) error {
	host, username := args[0], args[1]

	port := config.DefaultPort
	if len(args) == 3 {
		if p, err := strconv.Atoi(args[2]); err == nil && p > 0 && p < 65536 {
			port = p
		} else {
			fmt.Printf("Invalid port number. Using default port %d.\n", config.DefaultPort)
		}
	}

	logger := log.New(logLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := client.Dial(host, port, username, os.Stdout, logger, client.Options{
		DownloadDir: downloadDir,
	})
	if err != nil {
		fmt.Printf("Unable to connect to server: %v\n", err)
		return err
	}

	return c.Run(ctx, os.Stdin)
}
