package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"dexPricer/internal/chain"
	"dexPricer/internal/config"
	"dexPricer/internal/pricing"
	"dexPricer/internal/storage"
)

// deps bundles the opened backends for one command run.
type deps struct {
	deployment config.Deployment
	store      storage.Backend
	engine     *pricing.Engine
	client     *chain.Client
}

func (d *deps) Close() error {
	if d.client != nil {
		d.client.Close()
	}
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

func openDeps(ctx context.Context, cfg config.Config, logger *zap.Logger) (*deps, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	deployment, err := config.LoadDeployment(cfg.Deployment, cfg.DeploymentFile)
	if err != nil {
		return nil, err
	}
	pricingCfg, err := deployment.PricingConfig()
	if err != nil {
		return nil, err
	}

	store, err := storage.Open(ctx, storage.Options{
		Backend:       cfg.Store,
		SnapshotPath:  cfg.SnapshotPath,
		PGDSN:         cfg.PGDSN,
		RedisAddr:     cfg.RedisAddr,
		RedisPassword: cfg.RedisPassword,
		RedisDB:       cfg.RedisDB,
		RedisPrefix:   cfg.RedisPrefix,
	})
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	d := &deps{deployment: deployment, store: store}

	var lookup pricing.PairLookup = store
	if cfg.FactorySource == config.FactorySourceChain {
		factory, err := openFactory(ctx, cfg, d, logger)
		if err != nil {
			d.Close()
			return nil, err
		}
		lookup = factory
	}

	engine, err := pricing.NewEngine(pricingCfg, store, lookup, logger)
	if err != nil {
		d.Close()
		return nil, err
	}
	d.engine = engine
	active := engine.Config()

	logger.Info("pricer ready",
		zap.String("deployment", deployment.Name),
		zap.String("store", cfg.Store),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
		zap.String("factory_source", cfg.FactorySource),
		zap.String("reference_token", active.ReferenceToken),
		zap.Int("whitelist", len(active.Whitelist)),
		zap.Int("untracked_pairs", len(active.UntrackedPairs)),
		zap.Int("reference_pools", len(active.ReferencePools)),
		zap.Int64("minimum_liquidity_providers", active.MinimumLiquidityProviders),
	)

	return d, nil
}

func openFactory(ctx context.Context, cfg config.Config, d *deps, logger *zap.Logger) (*chain.FactoryLookup, error) {
	factoryAddr := cfg.Factory
	if factoryAddr == "" {
		factoryAddr = d.deployment.Factory
	}
	if factoryAddr == "" {
		return nil, fmt.Errorf("factory address is required for deployment %s", d.deployment.Name)
	}

	client, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("connect rpc: %w", err)
	}
	d.client = client

	chainID, err := client.GetChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("chain id: %w", err)
	}
	if d.deployment.ChainID != 0 && chainID.Uint64() != d.deployment.ChainID {
		logger.Warn("rpc chain id does not match deployment",
			zap.Uint64("rpc_chain_id", chainID.Uint64()),
			zap.Uint64("deployment_chain_id", d.deployment.ChainID),
		)
	}

	block := cfg.Block
	if block == 0 {
		latest, err := client.LatestBlockNumber(ctx)
		if err != nil {
			return nil, fmt.Errorf("latest block: %w", err)
		}
		block = latest
	}

	return chain.NewFactoryLookup(client, factoryAddr, block, logger)
}
