package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"dexPricer/internal/config"
	"dexPricer/internal/model"
)

type ethPriceOutput struct {
	Deployment        string          `json:"deployment"`
	Block             uint64          `json:"block"`
	ReferencePriceUSD decimal.Decimal `json:"reference_price_usd"`
	Written           bool            `json:"written"`
}

type tokenPriceOutput struct {
	Token                 string          `json:"token"`
	Whitelisted           bool            `json:"whitelisted"`
	DerivedReferencePrice decimal.Decimal `json:"derived_reference_price"`
	PriceUSD              decimal.Decimal `json:"price_usd"`
	Written               bool            `json:"written"`
}

func runEthPrice(cmd *cobra.Command, _ []string) error {
	return withDeps(cmd, func(ctx context.Context, d *deps, cfg config.Config, logger *zap.Logger) error {
		price, err := d.engine.ReferencePriceUSD(ctx, cfg.Block)
		if err != nil {
			return err
		}

		write, _ := cmd.Flags().GetBool("write")
		if write {
			if err := d.store.SaveBundle(ctx, model.Bundle{ID: model.BundleID, ReferencePriceUSD: price}); err != nil {
				return fmt.Errorf("save bundle: %w", err)
			}
			logger.Info("bundle updated", zap.String("reference_price_usd", price.String()))
		}

		return printJSON(cmd, ethPriceOutput{
			Deployment:        d.deployment.Name,
			Block:             cfg.Block,
			ReferencePriceUSD: price,
			Written:           write,
		})
	})
}

func runTokenPrice(cmd *cobra.Command, _ []string) error {
	token, _ := cmd.Flags().GetString("token")
	id, err := model.NormalizeAddress(token)
	if err != nil {
		return fmt.Errorf("token: %w", err)
	}

	return withDeps(cmd, func(ctx context.Context, d *deps, _ config.Config, logger *zap.Logger) error {
		derived, err := d.engine.ReferencePerToken(ctx, id)
		if err != nil {
			return err
		}

		write, _ := cmd.Flags().GetBool("write")
		if write {
			if err := d.store.SaveTokenPrice(ctx, id, derived); err != nil {
				return fmt.Errorf("save token price: %w", err)
			}
			logger.Info("token price updated", zap.String("token", id), zap.String("derived", derived.String()))
		}

		priceUSD := decimal.Zero
		bundle, ok, err := d.store.LoadBundle(ctx)
		if err != nil {
			return fmt.Errorf("load bundle: %w", err)
		}
		if ok {
			priceUSD = derived.Mul(bundle.ReferencePriceUSD)
		}

		return printJSON(cmd, tokenPriceOutput{
			Token:                 id,
			Whitelisted:           d.engine.Valuer().IsWhitelisted(id),
			DerivedReferencePrice: derived,
			PriceUSD:              priceUSD,
			Written:               write,
		})
	})
}

func runTrack(cmd *cobra.Command, _ []string) error {
	pair, _ := cmd.Flags().GetString("pair")
	if pair == "" {
		return fmt.Errorf("pair is required")
	}
	amount0, err := parseAmountFlag(cmd, "amount0")
	if err != nil {
		return err
	}
	amount1, err := parseAmountFlag(cmd, "amount1")
	if err != nil {
		return err
	}

	return withDeps(cmd, func(ctx context.Context, d *deps, _ config.Config, _ *zap.Logger) error {
		tracked, err := d.engine.TrackSwap(ctx, pair, amount0, amount1)
		if err != nil {
			return err
		}
		return printJSON(cmd, tracked)
	})
}

func runDeployments(cmd *cobra.Command, _ []string) error {
	type entry struct {
		Name           string `json:"name"`
		ChainID        uint64 `json:"chain_id"`
		ReferenceToken string `json:"reference_token"`
		Whitelist      int    `json:"whitelist"`
		ReferencePools int    `json:"reference_pools"`
	}

	out := make([]entry, 0)
	for _, name := range config.DeploymentNames() {
		dep, err := config.LoadDeployment(name, "")
		if err != nil {
			return err
		}
		out = append(out, entry{
			Name:           dep.Name,
			ChainID:        dep.ChainID,
			ReferenceToken: dep.ReferenceToken,
			Whitelist:      len(dep.Whitelist),
			ReferencePools: len(dep.ReferencePools),
		})
	}
	return printJSON(cmd, out)
}

// withDeps loads config, opens backends and runs fn under a signal-aware context.
func withDeps(cmd *cobra.Command, fn func(ctx context.Context, d *deps, cfg config.Config, logger *zap.Logger) error) error {
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d, err := openDeps(ctx, cfg, logger)
	if err != nil {
		return err
	}

	runErr := fn(ctx, d, cfg, logger)
	if err := d.Close(); err != nil && runErr == nil {
		runErr = fmt.Errorf("close store: %w", err)
	}
	return runErr
}

func parseAmountFlag(cmd *cobra.Command, name string) (decimal.Decimal, error) {
	raw, _ := cmd.Flags().GetString(name)
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", name, err)
	}
	if amount.IsNegative() {
		return decimal.Zero, fmt.Errorf("%s must not be negative", name)
	}
	return amount, nil
}
