package config

import (
	"embed"
	"fmt"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"dexPricer/internal/pricing"
)

//go:embed deployments/*.yaml
var deploymentFS embed.FS

// Deployment is a per-chain pricing profile.
type Deployment struct {
	Name           string           `yaml:"name"`
	ChainID        uint64           `yaml:"chain_id"`
	ReferenceToken string           `yaml:"reference_token"`
	Factory        string           `yaml:"factory"`
	Whitelist      []string         `yaml:"whitelist"`
	UntrackedPairs []string         `yaml:"untracked_pairs"`
	ReferencePools []DeploymentPool `yaml:"reference_pools"`

	MinimumUSDThresholdNewPairs        string `yaml:"minimum_usd_threshold_new_pairs"`
	MinimumLiquidityThresholdReference string `yaml:"minimum_liquidity_threshold_reference"`
	MinimumLiquidityProviders          int64  `yaml:"minimum_liquidity_providers"`
}

// DeploymentPool is a reference pool entry.
type DeploymentPool struct {
	Address    string `yaml:"address"`
	StableSide int    `yaml:"stable_side"`
	FromBlock  uint64 `yaml:"from_block"`
	ToBlock    uint64 `yaml:"to_block"`
}

// DeploymentNames lists the embedded deployment profiles.
func DeploymentNames() []string {
	entries, err := deploymentFS.ReadDir("deployments")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), path.Ext(entry.Name())))
	}
	sort.Strings(names)
	return names
}

// LoadDeployment reads the profile at file, or the embedded profile name when
// file is empty.
func LoadDeployment(name, file string) (Deployment, error) {
	var (
		data []byte
		err  error
	)
	if file != "" {
		data, err = os.ReadFile(file)
		if err != nil {
			return Deployment{}, fmt.Errorf("read deployment file: %w", err)
		}
	} else {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			return Deployment{}, fmt.Errorf("deployment is required (one of %s)", strings.Join(DeploymentNames(), ", "))
		}
		data, err = deploymentFS.ReadFile(path.Join("deployments", name+".yaml"))
		if err != nil {
			return Deployment{}, fmt.Errorf("unknown deployment %q (one of %s)", name, strings.Join(DeploymentNames(), ", "))
		}
	}
	return ParseDeployment(data)
}

// ParseDeployment decodes a YAML deployment profile.
func ParseDeployment(data []byte) (Deployment, error) {
	var dep Deployment
	if err := yaml.Unmarshal(data, &dep); err != nil {
		return Deployment{}, fmt.Errorf("parse deployment: %w", err)
	}
	return dep, nil
}

// PricingConfig converts the profile into a validated pricing config.
func (d Deployment) PricingConfig() (pricing.Config, error) {
	minUSD, err := parseThreshold("minimum_usd_threshold_new_pairs", d.MinimumUSDThresholdNewPairs)
	if err != nil {
		return pricing.Config{}, err
	}
	minLiquidity, err := parseThreshold("minimum_liquidity_threshold_reference", d.MinimumLiquidityThresholdReference)
	if err != nil {
		return pricing.Config{}, err
	}

	pools := make([]pricing.ReferencePool, 0, len(d.ReferencePools))
	for _, pool := range d.ReferencePools {
		pools = append(pools, pricing.ReferencePool{
			Address:    pool.Address,
			StableSide: pool.StableSide,
			FromBlock:  pool.FromBlock,
			ToBlock:    pool.ToBlock,
		})
	}

	cfg := pricing.Config{
		ReferenceToken:                     d.ReferenceToken,
		Whitelist:                          d.Whitelist,
		UntrackedPairs:                     d.UntrackedPairs,
		ReferencePools:                     pools,
		MinimumUSDThresholdNewPairs:        minUSD,
		MinimumLiquidityThresholdReference: minLiquidity,
		MinimumLiquidityProviders:          d.MinimumLiquidityProviders,
	}
	validated, err := cfg.Validate()
	if err != nil {
		return pricing.Config{}, fmt.Errorf("deployment %s: %w", d.Name, err)
	}
	return validated, nil
}

func parseThreshold(key, value string) (decimal.Decimal, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return decimal.Zero, fmt.Errorf("%s is required", key)
	}
	parsed, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", key, err)
	}
	return parsed, nil
}
