/*
Package main runs one expiry sweep against the configured message store and exits.

It is meant for a scheduler (cron, a Kubernetes CronJob) holding the store credentials; browsers never
trigger it. The exit status is 1 when the store is unconfigured or the sweep fails.
*/
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"majlis/internal/app/db"
	"majlis/internal/app/message"
	"majlis/internal/configs"
	"majlis/internal/pkg/kv"
	"majlis/internal/pkg/logx"
)

const sweepTimeout = time.Minute

func main() {
	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logx.InitGlobalLogger(cfg.Environment == "development")

	if !cfg.StoreConfigured() {
		logx.Error(fmt.Errorf("store driver %q is not configured", cfg.StoreDriver), "Sweep skipped")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithTimeout(ctx, sweepTimeout)
	defer cancel()

	store, closeStore, err := openMessageStore(ctx, cfg)
	if err != nil {
		logx.Error(err, "Failed to open message store")
		os.Exit(1)
	}
	defer closeStore()

	deleted, ok := store.DeleteExpiredMessages(ctx)
	if !ok {
		logx.Error(fmt.Errorf("delete expired messages failed"), "Sweep failed", "driver", cfg.StoreDriver)
		closeStore()
		os.Exit(1)
	}

	logx.Info("Sweep finished", "driver", cfg.StoreDriver, "deleted", deleted, "window", message.Window.String())
}

func openMessageStore(ctx context.Context, cfg *configs.AppConfig) (message.Store, func(), error) {
	if cfg.StoreDriver == configs.DriverLocal {
		store, err := kv.Open(ctx, cfg.LocalKV)
		if err != nil {
			return nil, nil, err
		}
		return message.NewLocalStore(store), func() { _ = store.Close() }, nil
	}

	pool, err := db.NewPool(ctx, cfg.StoreURL)
	if err != nil {
		return nil, nil, err
	}

	return message.NewRemoteStore(db.New(pool), message.NewFeed()), pool.Close, nil
}
