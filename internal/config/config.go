package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Factory sources.
const (
	FactorySourceStore = "store"
	FactorySourceChain = "chain"
)

// Config holds the pricing command configuration loaded from flags, env, or config file.
type Config struct {
	Deployment     string
	DeploymentFile string
	Store          string
	SnapshotPath   string
	PGDSN          string
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	RedisPrefix    string
	FactorySource  string
	Factory        string
	RPCURL         string
	Block          uint64
	LogLevel       string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return Config{}, err
	}
	return fromViper(v), nil
}

func newViper(cfgFile string, flags *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("PRICER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("deployment", "fantom")
	v.SetDefault("store", "snapshot")
	v.SetDefault("snapshot", "./data/snapshot.json")
	v.SetDefault("redis-addr", "localhost:6379")
	v.SetDefault("redis-prefix", "pricer")
	v.SetDefault("factory-source", FactorySourceStore)
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	return v, nil
}

func fromViper(v *viper.Viper) Config {
	return Config{
		Deployment:     v.GetString("deployment"),
		DeploymentFile: v.GetString("deployment-file"),
		Store:          strings.ToLower(v.GetString("store")),
		SnapshotPath:   v.GetString("snapshot"),
		PGDSN:          v.GetString("pg-dsn"),
		RedisAddr:      v.GetString("redis-addr"),
		RedisPassword:  v.GetString("redis-password"),
		RedisDB:        v.GetInt("redis-db"),
		RedisPrefix:    v.GetString("redis-prefix"),
		FactorySource:  strings.ToLower(v.GetString("factory-source")),
		Factory:        v.GetString("factory"),
		RPCURL:         v.GetString("rpc"),
		Block:          v.GetUint64("block"),
		LogLevel:       v.GetString("log-level"),
	}
}

// Validate checks backend selections.
func (c Config) Validate() error {
	switch c.FactorySource {
	case FactorySourceStore:
	case FactorySourceChain:
		if c.RPCURL == "" {
			return fmt.Errorf("rpc url is required for factory-source=chain")
		}
	default:
		return fmt.Errorf("unsupported factory source: %s", c.FactorySource)
	}
	return nil
}
