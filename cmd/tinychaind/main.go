// Command tinychaind runs a single tinychain full node: chain engine,
// mempool, miner, and P2P server, configured entirely from environment
// variables (see internal/config).
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/tinychain-go/tinychain/internal/config"
	"github.com/tinychain-go/tinychain/internal/logging"
	"github.com/tinychain-go/tinychain/internal/node"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("tinychaind: %w", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogLabel)
	if err != nil {
		return fmt.Errorf("tinychaind: %w", err)
	}
	defer logger.Sync()

	n, err := node.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("tinychaind: %w", err)
	}
	defer n.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger.Info("tinychaind starting",
		zap.Int("port", cfg.Port),
		zap.String("chain_path", cfg.ChainPath),
	)

	return n.Run(ctx)
}
