/*
Package main is the entry point for the Majlis chat server.

It loads configuration, initializes the global logging system, opens the selected credential and
message stores, starts the change feed listener and the tab Manager, serves HTTP, and shuts
everything down gracefully on SIGINT or SIGTERM.
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"majlis/internal/app/auth"
	"majlis/internal/app/chat"
	"majlis/internal/app/db"
	"majlis/internal/app/message"
	"majlis/internal/app/storage"
	"majlis/internal/configs"
	"majlis/internal/handler"
	"majlis/internal/pkg/kv"
	"majlis/internal/pkg/logx"
	"majlis/internal/pkg/pow"
)

// stores are the backends selected by STORE_DRIVER. Both are nil while the remote store is
// unconfigured.
type stores struct {
	credentials *auth.Store
	messages    message.Store
	close       func()
}

func main() {
	// Load configuration from environment variables
	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	logx.InitGlobalLogger(cfg.Environment == "development")
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Int("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Int("pow_difficulty", cfg.PowDifficulty).
		Str("store_driver", cfg.StoreDriver).
		Bool("store_configured", cfg.StoreConfigured()).
		Bool("attachments", cfg.AttachmentsEnabled()).
		Msg("Configuration loaded successfully")

	// Create a context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg)
	if err != nil {
		logx.Fatal(err, "Failed to open stores")
	}
	defer st.close()

	deps := &handler.AppDeps{
		Config: cfg,
		Pow:    pow.NewPoWManager(ctx, cfg.PowDifficulty),
	}

	tabDeps := chat.TabDeps{
		Configured: st.credentials != nil,
		JWTSecret:  cfg.JWTSecret,
	}
	if st.credentials != nil {
		deps.Credentials = st.credentials
		deps.Messages = st.messages
		tabDeps.Credentials = st.credentials
		tabDeps.Messages = st.messages
	} else {
		logx.Warn("Remote store is not configured; set CHAT_STORE_URL and CHAT_STORE_KEY.")
	}

	if cfg.AttachmentsEnabled() {
		storageService, err := storage.NewStorageService(ctx, storage.ServiceConfig{
			S3BucketName:      cfg.S3BucketName,
			S3Endpoint:        cfg.S3Endpoint,
			S3AccessKeyID:     cfg.S3AccessKeyID,
			S3SecretAccessKey: cfg.S3SecretAccessKey,
			PublicBaseURL:     cfg.S3PublicBaseURL,
		})
		if err != nil {
			logx.Fatal(err, "Failed to initialize storage service")
		}
		deps.StorageService = storageService
	}

	// Initialize Chat Manager
	deps.Manager = chat.NewManager(ctx, tabDeps)

	// Setup HTTP server and routes
	router := handler.Router(ctx, deps)

	serverAddr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logx.Info(fmt.Sprintf("Majlis Chat Server starting on http://localhost%s", serverAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logx.Fatal(err, "Server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server with a timeout of 5 seconds.
	<-ctx.Done()
	logx.Info("Received shutdown signal. Starting graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logx.Error(err, "Server forced to shutdown")
	}

	deps.Manager.Shutdown()

	logx.Info("Server gracefully stopped.")
}

// openStores opens the stores selected by cfg. For the remote driver it also starts the LISTEN
// loop that feeds inserted messages to subscribed tabs; the loop stops with ctx.
func openStores(ctx context.Context, cfg *configs.AppConfig) (*stores, error) {
	if !cfg.StoreConfigured() {
		return &stores{close: func() {}}, nil
	}

	if cfg.StoreDriver == configs.DriverLocal {
		store, err := kv.Open(ctx, cfg.LocalKV)
		if err != nil {
			return nil, fmt.Errorf("open local kv %q: %w", cfg.LocalKV, err)
		}

		return &stores{
			credentials: auth.NewStore(auth.NewLocalBackend(store)),
			messages:    message.NewLocalStore(store),
			close: func() {
				if err := store.Close(); err != nil {
					logx.Warn("Failed to close local kv", "error", err.Error())
				}
			},
		}, nil
	}

	pool, err := db.NewPool(ctx, cfg.StoreURL)
	if err != nil {
		return nil, err
	}

	queries := db.New(pool)
	messages := message.NewRemoteStore(queries, message.NewFeed())

	go db.NewListener(pool, db.MessagesInsertChannel).Run(ctx, messages.PublishInsert)

	return &stores{
		credentials: auth.NewStore(auth.NewRemoteBackend(queries)),
		messages:    messages,
		close:       pool.Close,
	}, nil
}
