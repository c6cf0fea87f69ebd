// Package main is the entry point for the squad games settlement API server.
// It wires the deposit webhook ingestor, the pot aggregator, and the
// vault-provisioning / conversion / payout pipeline behind the HTTP surface.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgres driver
	"github.com/sendarcade/squadgames/internal/api"
	"github.com/sendarcade/squadgames/internal/config"
	"github.com/sendarcade/squadgames/internal/repository"
	"github.com/sendarcade/squadgames/internal/retry"
	"github.com/sendarcade/squadgames/internal/service"
	chain "github.com/sendarcade/squadgames/internal/solana"
	"github.com/sendarcade/squadgames/internal/solana/jupiter"
)

func main() {
	// ── 1. Logger ─────────────────────────────────────────────────────────────
	cfg := config.MustLoad()

	var logHandler slog.Handler
	if cfg.IsProd() {
		logHandler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	} else {
		logHandler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	logger := slog.New(logHandler)
	slog.SetDefault(logger)

	logger.Info("starting squadgames settlement server", "env", cfg.Server.Env, "port", cfg.Server.Port, "game", cfg.Game.GameID)

	// ── 2. Database ───────────────────────────────────────────────────────────
	db, err := sqlx.Connect("postgres", cfg.DB.DSN)
	if err != nil {
		logger.Error("database connection failed", "err", err)
		os.Exit(1)
	}
	db.SetMaxOpenConns(cfg.DB.MaxOpenConns)
	db.SetMaxIdleConns(cfg.DB.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.DB.ConnMaxLifetime)

	if err = db.Ping(); err != nil {
		logger.Error("database ping failed", "err", err)
		os.Exit(1)
	}
	logger.Info("database connected")

	// ── 3. Migrations ─────────────────────────────────────────────────────────
	if err = runMigrations(db, "migrations"); err != nil {
		logger.Error("migrations failed", "err", err)
		os.Exit(1)
	}
	logger.Info("migrations applied")

	// ── 4. Chain connection + operator key (process-wide, read-only) ─────────
	chainClient := chain.NewClient(&cfg.Solana)

	var operator solana.PrivateKey
	if cfg.Solana.OperatorKey == "" {
		// Dev convenience: production boot requires an explicit key (see
		// config.Validate).  An ephemeral key cannot settle anything real.
		operator, err = solana.NewRandomPrivateKey()
		if err != nil {
			logger.Error("generate ephemeral operator key", "err", err)
			os.Exit(1)
		}
		logger.Warn("SOLANA_OPERATOR_KEY not set, using ephemeral key", "address", operator.PublicKey())
	} else {
		operator, err = solana.PrivateKeyFromBase58(cfg.Solana.OperatorKey)
		if err != nil {
			logger.Error("invalid operator key", "err", err)
			os.Exit(1)
		}
		logger.Info("operator key loaded", "address", operator.PublicKey())
	}

	venue := jupiter.NewClient(cfg.Swap.JupiterURL, cfg.Swap.FetchTimeout)

	// ── 5. Repositories ───────────────────────────────────────────────────────
	depositRepo := repository.NewDepositRepository(db)
	multisigRepo := repository.NewMultisigRepository(db)
	playerRepo := repository.NewPlayerRepository(db)

	// ── 6. Services ───────────────────────────────────────────────────────────
	ingestSvc := service.NewIngestService(depositRepo, logger)

	actionSvc := service.NewActionService(depositRepo, playerRepo, chainClient, &cfg.Game, logger)

	potSvc := service.NewPotService(depositRepo, logger)

	multisigSvc := service.NewMultisigService(chainClient, multisigRepo, operator, retry.DefaultPolicy(), logger)

	swapSvc := service.NewSwapService(chainClient, venue, operator, &cfg.Swap, logger)

	transferSvc := service.NewTransferService(chainClient, operator, &cfg.Swap, logger)

	settlementSvc := service.NewSettlementService(potSvc, multisigSvc, swapSvc, transferSvc, multisigRepo, logger)

	// ── 7. Root context + signal handling ─────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── 8. HTTP Router ────────────────────────────────────────────────────────
	router := api.SetupRouter(api.RouterDeps{
		Actions: actionSvc,
		Ingest:  ingestSvc,
		Settler: settlementSvc,
		Cfg:     cfg,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// ── 9. Start server ───────────────────────────────────────────────────────
	go func() {
		logger.Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
			stop() // trigger graceful shutdown
		}
	}()

	// ── 10. Graceful shutdown ─────────────────────────────────────────────────
	<-ctx.Done()
	logger.Info("shutdown signal received, draining connections…")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err = srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown error", "err", err)
	}

	db.Close()
	logger.Info("server stopped cleanly")
}

// runMigrations reads all *.sql files from dir, sorted by name, and executes
// them sequentially.  Idempotent: SQL files should use IF NOT EXISTS / ON CONFLICT.
func runMigrations(db *sqlx.DB, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("runMigrations: read dir %q: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)

	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return fmt.Errorf("runMigrations: read %q: %w", f, err)
		}
		if _, err = db.Exec(string(data)); err != nil {
			return fmt.Errorf("runMigrations: exec %q: %w", f, err)
		}
		slog.Info("migration applied", "file", filepath.Base(f))
	}
	return nil
}
