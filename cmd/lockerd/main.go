package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"lockstream/config"
	"lockstream/core/state"
	"lockstream/native/campaign"
	"lockstream/native/points"
	"lockstream/native/snapshot"
	"lockstream/native/stream"
	"lockstream/observability/logging"
	"lockstream/observability/metrics"
	"lockstream/storage"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	// VerifierSnapshot is the registry name of the merkle-snapshot strategy.
	VerifierSnapshot = "merkle-snapshot"
	// VerifierStreaming is the registry name of the streaming strategy.
	VerifierStreaming = "streaming"

	logLevelEnv = "LOCKER_LOG_LEVEL"
)

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	flag.Parse()

	logger := logging.Setup("lockerd", logging.ParseLevel(os.Getenv(logLevelEnv)))

	cfg, err := config.Load(*configFile)
	if err != nil {
		logger.Error("failed to load config", "path", *configFile, "err", err)
		os.Exit(1)
	}

	owner, err := config.Address(cfg.OwnerAddress)
	if err != nil {
		logger.Error("invalid owner address", "err", err)
		os.Exit(1)
	}
	vault, err := config.Address(cfg.VaultAddress)
	if err != nil {
		logger.Error("invalid vault address", "err", err)
		os.Exit(1)
	}
	oracle, err := config.Address(cfg.OracleAddress)
	if err != nil {
		logger.Error("invalid oracle address", "err", err)
		os.Exit(1)
	}

	db, err := storage.NewLevelDB(filepath.Join(cfg.DataDir, "state"))
	if err != nil {
		logger.Error("failed to open state database", "dir", cfg.DataDir, "err", err)
		os.Exit(1)
	}
	defer db.Close()

	manager := state.NewManager(db)
	for _, symbol := range cfg.Tokens {
		if manager.TokenExists(symbol) {
			continue
		}
		if err := manager.RegisterToken(symbol, symbol, 18); err != nil {
			logger.Error("failed to register token", "symbol", symbol, "err", err)
			os.Exit(1)
		}
		logger.Info("registered token", "symbol", symbol)
	}
	for _, weigher := range cfg.WeigherAddresses {
		addr, err := config.Address(weigher)
		if err != nil {
			logger.Error("invalid weigher address", "addr", weigher, "err", err)
			os.Exit(1)
		}
		if err := manager.GrantRole(stream.RoleWeigher, addr[:]); err != nil {
			logger.Error("failed to grant weigher role", "addr", weigher, "err", err)
			os.Exit(1)
		}
	}

	emitter := metrics.NewEventEmitter(nil)

	ledger := points.NewLedger(manager)
	ledger.SetEmitter(emitter)

	engine := campaign.NewEngine(manager, ledger, owner, vault)
	engine.SetEmitter(emitter)

	feeRate, err := config.FeeRate(cfg.DefaultFeeRate)
	if err != nil {
		logger.Error("invalid default fee rate", "err", err)
		os.Exit(1)
	}
	if feeRate.Sign() > 0 {
		if err := engine.SetDefaultFeeRate(owner, feeRate); err != nil {
			logger.Error("failed to set default fee rate", "err", err)
			os.Exit(1)
		}
	}

	snapshotVerifier := snapshot.NewVerifier(manager, vault, oracle, cfg.SnapshotLiveness)
	snapshotVerifier.SetEmitter(emitter)
	if err := engine.RegisterVerifier(VerifierSnapshot, snapshotVerifier); err != nil {
		logger.Error("failed to register snapshot verifier", "err", err)
		os.Exit(1)
	}

	streamVerifier := stream.NewVerifier(manager, vault)
	streamVerifier.SetEmitter(emitter)
	if err := engine.RegisterVerifier(VerifierStreaming, streamVerifier); err != nil {
		logger.Error("failed to register streaming verifier", "err", err)
		os.Exit(1)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})

	server := &http.Server{
		Addr:              cfg.ListenAddress,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("lockerd listening", "addr", cfg.ListenAddress)
		errCh <- server.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutting down", "signal", sig.String())
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", "err", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown failed", "err", err)
	}
}
