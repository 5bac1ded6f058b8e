package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"messages-service/api"
	"messages-service/internal"
	"messages-service/repositories"
	"messages-service/storage"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run owns every resource so that deferred cleanups execute before the process exits.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if err := config.Validate(); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Store
	store, cleanup, err := openStore(ctx, config, log)
	if err != nil {
		return err
	}
	defer cleanup()

	// 3. HTTP server
	repository := repositories.NewMessageRepository(store, log)
	server := api.NewServer(repository, log)
	address := fmt.Sprintf("%s:%d", config.Host, config.Port)

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "address", address, "backend", config.StoreBackend)
		if err := server.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// 4. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP server shutdown: %w", err)
	}
	log.Info("Program stopped cleanly")
	return nil
}

// openStore returns the configured backend and the function releasing it.
func openStore(ctx context.Context, config Config, log *slog.Logger) (storage.IMessageStore, func(), error) {
	if config.StoreBackend == MongoBackend {
		store, err := storage.NewMongoStore(ctx, config.MongoURI, config.MongoDatabase, log)
		if err != nil {
			return nil, nil, fmt.Errorf("database opening failed: %w", err)
		}
		return store, func() {
			log.Info("Closing MongoDB...")
			_ = store.Close()
		}, nil
	}

	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.INFO))
	if err != nil {
		return nil, nil, fmt.Errorf("database opening failed: %w", err)
	}
	store, err := storage.NewBadgerStore(db, log, uint64(config.SequenceBandwidth), config.TxnRetries)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	var debugServer *http.Server
	if config.DebugPort != nil {
		debugServer = internal.StartDebugServer(db, *config.DebugPort, log)
	}

	return store, func() {
		if debugServer != nil {
			_ = debugServer.Close()
		}
		log.Info("Closing BadgerDB...")
		_ = store.Close()
		_ = db.Close()
	}, nil
}
