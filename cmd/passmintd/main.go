package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"passmint/config"
	"passmint/core"
	"passmint/core/events"
	"passmint/observability/logging"
	telemetry "passmint/observability/otel"
	"passmint/rpc"
	"passmint/services/indexer"
	"passmint/storage"
)

const (
	serviceName    = "passmintd"
	genesisPathEnv = "PASSMINT_GENESIS"
)

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	genesisFlag := flag.String("genesis", "", "Path to a genesis JSON file (overrides PASSMINT_GENESIS and config GenesisFile)")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}
	logger := logging.Setup(serviceName, cfg.Environment, cfg.LogOptions())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Telemetry.Enabled {
		shutdownTelemetry, err := telemetry.Init(ctx, cfg.TelemetryConfig(serviceName))
		if err != nil {
			logger.Error("Failed to initialise telemetry", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() {
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownTelemetry(flushCtx); err != nil {
				logger.Warn("Telemetry shutdown failed", slog.Any("error", err))
			}
		}()
	}

	db, err := storage.NewLevelDB(cfg.StateDir())
	if err != nil {
		panic(fmt.Sprintf("Failed to open database: %v", err))
	}
	defer db.Close()

	node, err := core.NewNode(db, resolveGenesisPath(*genesisFlag, cfg.GenesisFile, os.LookupEnv))
	if err != nil {
		logger.Error("Failed to open ledger", slog.Any("error", err))
		os.Exit(1)
	}
	if err := node.SetParams(cfg.PassesParams()); err != nil {
		logger.Error("Invalid passes parameters", slog.Any("error", err))
		os.Exit(1)
	}
	node.SetRent(cfg.RentParams())
	if err := node.SetPauses(cfg.PauseSet()); err != nil {
		logger.Error("Failed to apply pauses", slog.Any("error", err))
		os.Exit(1)
	}
	node.SetLogger(logger)

	var index *indexer.Store
	if cfg.Index.Enabled {
		index, err = indexer.Open(cfg.Index.Driver, cfg.Index.DSN)
		if err != nil {
			logger.Error("Failed to open event index", slog.Any("error", err))
			os.Exit(1)
		}
		defer index.Close()
		index.SetLogger(logger)
		node.SetEmitter(events.Fanout{index})
	}

	logger.Info("Ledger ready",
		slog.Uint64("height", node.Height()),
		slog.String("root", node.CommittedRoot().Hex()),
		slog.String("namespace", node.Params().Namespace))

	server := rpc.NewServer(node, index, cfg.RPCConfig(), logger)
	listener, err := net.Listen("tcp", cfg.ListenAddress)
	if err != nil {
		logger.Error("Failed to listen", slog.String("addr", cfg.ListenAddress), slog.Any("error", err))
		os.Exit(1)
	}
	serveErr := make(chan error, 1)
	go func() { serveErr <- server.Serve(listener) }()

	runCommitLoop(ctx, node, cfg.CommitInterval(), logger, serveErr)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Graceful shutdown failed", slog.Any("error", err))
	}
	if _, err := node.Commit(); err != nil {
		logger.Error("Final commit failed", slog.Any("error", err))
	}
	logger.Info("Shut down", slog.Uint64("height", node.Height()))
}

// runCommitLoop commits the working state every interval until ctx is done or
// the RPC server exits. Ticks with no pending transitions are skipped.
func runCommitLoop(ctx context.Context, node *core.Node, interval time.Duration, logger *slog.Logger, serveErr <-chan error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-serveErr:
			if err != nil {
				logger.Error("RPC server stopped", slog.Any("error", err))
			}
			return
		case <-ticker.C:
			if !node.Pending() {
				continue
			}
			root, err := node.Commit()
			if err != nil {
				logger.Error("Commit failed", slog.Any("error", err))
				continue
			}
			logger.Debug("Committed state",
				slog.Uint64("height", node.Height()),
				slog.String("root", root.Hex()))
		}
	}
}

// resolveGenesisPath prefers the flag, then the environment, then config.
func resolveGenesisPath(flagPath, configPath string, lookup func(string) (string, bool)) string {
	if trimmed := strings.TrimSpace(flagPath); trimmed != "" {
		return trimmed
	}
	if lookup != nil {
		if value, ok := lookup(genesisPathEnv); ok && strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}
	return strings.TrimSpace(configPath)
}
