package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	root := &cobra.Command{
		Use:          "pricer",
		Short:        "AMM token pricing and tracked volume",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	ethPriceCmd := &cobra.Command{
		Use:   "eth-price",
		Short: "Compute the reference currency USD price from the reference pools",
		RunE:  runEthPrice,
	}
	addCommonFlags(ethPriceCmd)
	ethPriceCmd.Flags().Uint64("block", 0, "block used to select active reference pools, 0 means latest")
	ethPriceCmd.Flags().Bool("write", false, "persist the price to the bundle")
	root.AddCommand(ethPriceCmd)

	tokenPriceCmd := &cobra.Command{
		Use:   "token-price",
		Short: "Derive a token price through the whitelist",
		RunE:  runTokenPrice,
	}
	addCommonFlags(tokenPriceCmd)
	tokenPriceCmd.Flags().String("token", "", "token address")
	tokenPriceCmd.Flags().Bool("write", false, "persist the derived price on the token")
	root.AddCommand(tokenPriceCmd)

	trackCmd := &cobra.Command{
		Use:   "track",
		Short: "Compute tracked volume and liquidity for a trade",
		RunE:  runTrack,
	}
	addCommonFlags(trackCmd)
	trackCmd.Flags().String("pair", "", "pair address")
	trackCmd.Flags().String("amount0", "0", "token0 amount (decimal units)")
	trackCmd.Flags().String("amount1", "0", "token1 amount (decimal units)")
	root.AddCommand(trackCmd)

	aggregateCmd := &cobra.Command{
		Use:   "aggregate",
		Short: "Aggregate swap records into tracked window metrics",
		RunE:  runAggregate,
	}
	addCommonFlags(aggregateCmd)
	aggregateCmd.Flags().String("in", "", "input swap records JSONL")
	aggregateCmd.Flags().String("window", "5m", "aggregation window (e.g. 1m, 5m, 1h)")
	aggregateCmd.Flags().String("out", "", "write window metrics to this JSONL file instead of Postgres")
	aggregateCmd.Flags().Int("batch-size", 1000, "batch size for metric writes")
	aggregateCmd.Flags().String("state-file", "", "optional local state file for progress tracking")
	aggregateCmd.Flags().String("recompute-from", "", "recompute from timestamp (unix seconds or RFC3339)")
	root.AddCommand(aggregateCmd)

	importCmd := &cobra.Command{
		Use:   "import",
		Short: "Load tokens, pairs and the bundle from a snapshot file into the store",
		RunE:  runImport,
	}
	addCommonFlags(importCmd)
	importCmd.Flags().String("from", "", "snapshot JSON file to import")
	root.AddCommand(importCmd)

	deploymentsCmd := &cobra.Command{
		Use:   "deployments",
		Short: "List built-in deployment profiles",
		RunE:  runDeployments,
	}
	root.AddCommand(deploymentsCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addCommonFlags(cmd *cobra.Command) {
	cmd.Flags().String("deployment", "fantom", "built-in deployment profile")
	cmd.Flags().String("deployment-file", "", "custom deployment profile (YAML)")
	cmd.Flags().String("store", "snapshot", "entity store backend (snapshot, postgres, redis)")
	cmd.Flags().String("snapshot", "./data/snapshot.json", "snapshot file for the snapshot store")
	cmd.Flags().String("pg-dsn", "", "Postgres DSN")
	cmd.Flags().String("redis-addr", "localhost:6379", "Redis address")
	cmd.Flags().String("redis-password", "", "Redis password")
	cmd.Flags().Int("redis-db", 0, "Redis database")
	cmd.Flags().String("redis-prefix", "pricer", "Redis key prefix")
	cmd.Flags().String("factory-source", "store", "pair lookup source (store, chain)")
	cmd.Flags().String("factory", "", "factory address, overrides the deployment profile")
	cmd.Flags().String("rpc", "", "RPC URL for factory-source=chain")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

func printJSON(cmd *cobra.Command, value interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}

func redactDSN(dsn string) string {
	if dsn == "" {
		return dsn
	}
	return "***"
}
