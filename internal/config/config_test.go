package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
)

func TestEmbeddedDeployments(t *testing.T) {
	names := DeploymentNames()
	if len(names) != 2 || names[0] != "ethereum" || names[1] != "fantom" {
		t.Fatalf("unexpected deployments: %v", names)
	}

	for _, name := range names {
		dep, err := LoadDeployment(name, "")
		if err != nil {
			t.Fatalf("load %s: %v", name, err)
		}
		cfg, err := dep.PricingConfig()
		if err != nil {
			t.Fatalf("pricing config %s: %v", name, err)
		}
		if cfg.Whitelist[0] != cfg.ReferenceToken {
			t.Fatalf("%s: expected reference token first in whitelist", name)
		}
	}
}

func TestFantomDeployment(t *testing.T) {
	dep, err := LoadDeployment("FANTOM", "")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg, err := dep.PricingConfig()
	if err != nil {
		t.Fatalf("pricing config: %v", err)
	}
	if dep.ChainID != 250 {
		t.Fatalf("chain id mismatch: %d", dep.ChainID)
	}
	if len(cfg.Whitelist) != 6 {
		t.Fatalf("expected 6 whitelist entries, got %d", len(cfg.Whitelist))
	}
	// mixed-case entries are normalised
	if cfg.Whitelist[2] != "0x1b6382dbdea11d97f24495c9a90b7c88469134a4" {
		t.Fatalf("whitelist not normalised: %s", cfg.Whitelist[2])
	}
	if len(cfg.ReferencePools) != 1 || cfg.ReferencePools[0].StableSide != 0 {
		t.Fatalf("unexpected reference pools: %+v", cfg.ReferencePools)
	}
	if cfg.MinimumUSDThresholdNewPairs.String() != "400000" || cfg.MinimumLiquidityThresholdReference.String() != "4000" {
		t.Fatalf("thresholds mismatch: %s %s", cfg.MinimumUSDThresholdNewPairs, cfg.MinimumLiquidityThresholdReference)
	}
	if cfg.MinimumLiquidityProviders != 5 {
		t.Fatalf("lp minimum mismatch: %d", cfg.MinimumLiquidityProviders)
	}
}

func TestEthereumDeploymentWeightedPools(t *testing.T) {
	dep, err := LoadDeployment("ethereum", "")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg, err := dep.PricingConfig()
	if err != nil {
		t.Fatalf("pricing config: %v", err)
	}
	if len(cfg.ReferencePools) != 3 {
		t.Fatalf("expected 3 reference pools, got %d", len(cfg.ReferencePools))
	}
	if cfg.ReferencePools[2].StableSide != 1 {
		t.Fatalf("usdt pool should hold the stablecoin at side 1")
	}
	if len(cfg.UntrackedPairs) != 1 {
		t.Fatalf("expected one untracked pair, got %d", len(cfg.UntrackedPairs))
	}
	if dep.Factory == "" {
		t.Fatalf("ethereum factory missing")
	}
}

func TestLoadDeploymentErrors(t *testing.T) {
	if _, err := LoadDeployment("moonbeam", ""); err == nil {
		t.Fatalf("expected unknown deployment error")
	}
	if _, err := LoadDeployment("", ""); err == nil {
		t.Fatalf("expected missing deployment error")
	}
}

func TestDeploymentFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	body := `
name: custom
chain_id: 31337
reference_token: "0x0000000000000000000000000000000000000001"
whitelist: ["0x0000000000000000000000000000000000000001"]
minimum_usd_threshold_new_pairs: 1000
minimum_liquidity_threshold_reference: "0.5"
reference_pools:
  - address: "0x0000000000000000000000000000000000000050"
    stable_side: 1
    from_block: 100
    to_block: 200
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	dep, err := LoadDeployment("ignored", path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg, err := dep.PricingConfig()
	if err != nil {
		t.Fatalf("pricing config: %v", err)
	}
	if cfg.MinimumUSDThresholdNewPairs.String() != "1000" {
		t.Fatalf("unquoted threshold mismatch: %s", cfg.MinimumUSDThresholdNewPairs)
	}
	pool := cfg.ReferencePools[0]
	if pool.FromBlock != 100 || pool.ToBlock != 200 || pool.StableSide != 1 {
		t.Fatalf("pool mismatch: %+v", pool)
	}
	if cfg.MinimumLiquidityProviders != 5 {
		t.Fatalf("expected default lp minimum, got %d", cfg.MinimumLiquidityProviders)
	}
}

func TestDeploymentBadThreshold(t *testing.T) {
	dep, err := ParseDeployment([]byte(`
reference_token: "0x0000000000000000000000000000000000000001"
whitelist: ["0x0000000000000000000000000000000000000001"]
minimum_usd_threshold_new_pairs: "lots"
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, err := dep.PricingConfig(); err == nil {
		t.Fatalf("expected threshold error")
	}
}

func TestDeploymentMissingThresholds(t *testing.T) {
	base := `
reference_token: "0x0000000000000000000000000000000000000001"
whitelist: ["0x0000000000000000000000000000000000000001"]
reference_pools:
  - address: "0x0000000000000000000000000000000000000050"
`
	cases := map[string]string{
		"both":      base,
		"usd":       base + "minimum_liquidity_threshold_reference: \"2\"\n",
		"liquidity": base + "minimum_usd_threshold_new_pairs: \"50000\"\n",
		"blank":     base + "minimum_usd_threshold_new_pairs: \" \"\nminimum_liquidity_threshold_reference: \"2\"\n",
	}
	for name, body := range cases {
		dep, err := ParseDeployment([]byte(body))
		if err != nil {
			t.Fatalf("%s: parse: %v", name, err)
		}
		if _, err := dep.PricingConfig(); err == nil {
			t.Fatalf("%s: expected missing threshold error", name)
		}
	}

	dep, err := ParseDeployment([]byte(base + "minimum_usd_threshold_new_pairs: 0\nminimum_liquidity_threshold_reference: 0\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, err := dep.PricingConfig(); err != nil {
		t.Fatalf("explicit zero thresholds should be accepted: %v", err)
	}
}

func TestLoadFlagsAndEnv(t *testing.T) {
	t.Setenv("PRICER_REDIS_DB", "3")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("store", "snapshot", "")
	flags.String("factory-source", "store", "")
	if err := flags.Parse([]string{"--store", "Redis", "--factory-source", "chain"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg, err := Load("", flags)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Store != "redis" {
		t.Fatalf("store mismatch: %s", cfg.Store)
	}
	if cfg.RedisDB != 3 {
		t.Fatalf("redis db from env mismatch: %d", cfg.RedisDB)
	}
	if cfg.Deployment != "fantom" {
		t.Fatalf("default deployment mismatch: %s", cfg.Deployment)
	}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected rpc requirement for chain factory source")
	}
}

func TestParseTimestamp(t *testing.T) {
	ts, err := ParseTimestamp("1700000000")
	if err != nil || ts != 1700000000 {
		t.Fatalf("unix parse: %d %v", ts, err)
	}
	ts, err = ParseTimestamp("2023-11-14T22:13:20Z")
	if err != nil || ts != 1700000000 {
		t.Fatalf("rfc3339 parse: %d %v", ts, err)
	}
	ts, err = ParseTimestamp("  ")
	if err != nil || ts != 0 {
		t.Fatalf("blank parse: %d %v", ts, err)
	}
	if _, err := ParseTimestamp("yesterday"); err == nil {
		t.Fatalf("expected parse error")
	}
}
