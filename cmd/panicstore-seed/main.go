// Command panicstore-seed writes fixture data into the store using the same
// key schema the API reads with.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/c360/panicstore/aggregate"
	"github.com/c360/panicstore/config"
	"github.com/c360/panicstore/storeclient"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		slog.Error("seed failed", "error", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("panicstore-seed", flag.ContinueOnError)
	configPath := fs.String("config", os.Getenv("PANICSTORE_CONFIG"), "Path to configuration file (env: PANICSTORE_CONFIG)")
	fixturePath := fs.String("fixture", "", "Path to YAML fixture (required)")
	timeout := fs.Duration("timeout", 30*time.Second, "Overall timeout")
	verify := fs.Bool("verify", false, "Read every key back after writing and fail on any difference")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *fixturePath == "" {
		return fmt.Errorf("--fixture is required")
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil)).With("service", "panicstore-seed")

	cfg, err := config.LoadFile(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	file, err := os.Open(*fixturePath)
	if err != nil {
		return fmt.Errorf("open fixture: %w", err)
	}
	defer file.Close()

	fixture, err := decodeFixture(file)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	store, err := storeclient.NewClient(cfg.Store.Addr(),
		storeclient.WithDB(cfg.Store.DB),
		storeclient.WithPassword(cfg.Store.Password),
		storeclient.WithConnectTimeout(cfg.Store.ConnectTimeout),
		storeclient.WithHealthInterval(0),
		storeclient.WithLogger(logger))
	if err != nil {
		return err
	}
	defer func() { _ = store.Close(context.Background()) }()

	if err := store.Connect(ctx); err != nil {
		return fmt.Errorf("connect to %s: %w", cfg.Store.Addr(), err)
	}

	svc, err := aggregate.NewService(store, aggregate.WithLogger(logger))
	if err != nil {
		return err
	}

	res, err := fixture.apply(ctx, svc, store)
	if err != nil {
		return err
	}
	logger.Info("fixture stored", "written", res.Written, "removed", res.Removed,
		"store", cfg.Store.Addr(), "db", cfg.Store.DB)

	if *verify {
		checked, err := fixture.verify(ctx, store)
		if err != nil {
			return fmt.Errorf("verify: %w", err)
		}
		logger.Info("fixture verified", "keys", checked)
	}
	return nil
}
