package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"dexPricer/internal/config"
	"dexPricer/internal/storage"
	"dexPricer/internal/storage/snapshot"
)

func runImport(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	from, _ := cmd.Flags().GetString("from")
	if from == "" {
		return fmt.Errorf("from path is required")
	}
	src, err := snapshot.Load(from)
	if err != nil {
		return err
	}
	doc := src.Document()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dst, err := storage.Open(ctx, storage.Options{
		Backend:       cfg.Store,
		SnapshotPath:  cfg.SnapshotPath,
		PGDSN:         cfg.PGDSN,
		RedisAddr:     cfg.RedisAddr,
		RedisPassword: cfg.RedisPassword,
		RedisDB:       cfg.RedisDB,
		RedisPrefix:   cfg.RedisPrefix,
	})
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}

	if err := storage.Import(ctx, dst, doc); err != nil {
		dst.Close()
		return err
	}
	if err := dst.Close(); err != nil {
		return fmt.Errorf("close store: %w", err)
	}

	logger.Info("import complete",
		zap.String("from", from),
		zap.String("store", cfg.Store),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
		zap.Int("tokens", len(doc.Tokens)),
		zap.Int("pairs", len(doc.Pairs)),
		zap.Bool("bundle", doc.Bundle != nil),
	)
	return nil
}
