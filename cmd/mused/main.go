package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"musechain/config"
	"musechain/core/events"
	"musechain/core/types"
	"musechain/crypto"
	"musechain/devnet"
	"musechain/gateway"
	"musechain/native/claims"
	"musechain/native/content"
	"musechain/native/inspiration"
	"musechain/native/reputation"
	"musechain/native/revenue"
	"musechain/observability/logging"
	"musechain/rpc"
	"musechain/state"
	"musechain/storage"
)

func main() {
	configPath := flag.String("config", "./config.toml", "path to the TOML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.SetupWithOptions("mused", cfg.Environment, logging.Options{
		FilePath:   cfg.LogFile,
		MaxSizeMB:  100,
		MaxBackups: 5,
		MaxAgeDays: 28,
	})

	db, err := openDatabase(cfg)
	if err != nil {
		logger.Error("open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	engine, err := buildEngine(cfg, db, logger)
	if err != nil {
		logger.Error("wire engine", "error", err)
		os.Exit(1)
	}

	rpcServer := rpc.NewServer(engine, logger)
	gw := gateway.New(engine, logger)

	errCh := make(chan error, 2)
	go func() { errCh <- rpcServer.Start(cfg.RPCAddress) }()
	go func() { errCh <- gw.Start(cfg.GatewayAddress) }()

	logger.Info("mused started",
		"network", cfg.NetworkName,
		"rpc", cfg.RPCAddress,
		"gateway", cfg.GatewayAddress,
		"backend", cfg.StorageBackend,
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.Info("shutting down", "signal", sig.String())
	case err := <-errCh:
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func openDatabase(cfg *config.Config) (storage.Database, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.StorageBackend)) {
	case "memory":
		return storage.NewMemDB(), nil
	case "bolt":
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return nil, err
		}
		return storage.NewBoltDB(filepath.Join(cfg.DataDir, "muse.db"))
	default:
		return storage.NewLevelDB(filepath.Join(cfg.DataDir, "leveldb"))
	}
}

func buildEngine(cfg *config.Config, db storage.Database, logger *slog.Logger) (*inspiration.Engine, error) {
	manager := state.NewManager(db)
	emitter := slogEmitter{log: logger}

	registry := content.NewRegistry()
	registry.SetState(manager)
	registry.SetEmitter(emitter)

	claimLedger := claims.NewLedger()
	claimLedger.SetState(manager)
	claimLedger.SetEmitter(emitter)

	repStore := reputation.NewStore()
	repStore.SetState(manager)

	revLedger := revenue.NewLedger()
	revLedger.SetState(manager)

	owner, err := optionalAddress(cfg.OwnerAddress)
	if err != nil {
		return nil, fmt.Errorf("owner address: %w", err)
	}
	custody, err := optionalAddress(cfg.CustodyAddress)
	if err != nil {
		return nil, fmt.Errorf("custody address: %w", err)
	}
	treasury, err := optionalAddress(cfg.PlatformTreasury)
	if err != nil {
		return nil, fmt.Errorf("platform treasury: %w", err)
	}

	engine := inspiration.NewEngine(owner, registry, claimLedger, repStore, revLedger)
	engine.SetState(manager)
	engine.SetEmitter(emitter)
	engine.SetCustody(custody)
	engine.SetPlatformTreasury(treasury)

	hub := devnet.NewAssetHub()
	engine.SetTokenFactory(hub)
	engine.SetLiquidityPool(hub)
	engine.SetAssetTransfer(devnet.NewBank())

	if cfg.PlatformFeeBps > 0 {
		if err := engine.SetPlatformFeeBps(owner, cfg.PlatformFeeBps); err != nil {
			return nil, err
		}
	}
	return engine, nil
}

func optionalAddress(value string) ([20]byte, error) {
	if strings.TrimSpace(value) == "" {
		return [20]byte{}, nil
	}
	addr, err := crypto.DecodeAddress(strings.TrimSpace(value))
	if err != nil {
		return [20]byte{}, err
	}
	return addr.Raw(), nil
}

// slogEmitter forwards ledger events to the structured log.
type slogEmitter struct {
	log *slog.Logger
}

func (e slogEmitter) Emit(evt events.Event) {
	if evt == nil {
		return
	}
	args := []any{"type", evt.EventType()}
	if payload, ok := evt.(interface{ Event() *types.Event }); ok {
		if ev := payload.Event(); ev != nil {
			for key, value := range ev.Attributes {
				args = append(args, key, value)
			}
		}
	}
	e.log.Info("ledger event", args...)
}
