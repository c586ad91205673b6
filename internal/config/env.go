// Package config loads node configuration from the environment.
package config

import (
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/pkg/errors"

	"github.com/blockberries/minichain/types"
)

// Config holds the settings of a node process.
type Config struct {
	GRPCAddr    string `env:"MINICHAIN_GRPC_ADDR" envDefault:"127.0.0.1:26658"`
	HTTPAddr    string `env:"MINICHAIN_HTTP_ADDR" envDefault:"127.0.0.1:8080"`
	ChainID     string `env:"MINICHAIN_CHAIN_ID" envDefault:"minichain"`
	GenesisFile string `env:"MINICHAIN_GENESIS_FILE"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "parse env")
	}
	return cfg, nil
}

// GenesisDoc builds the genesis document for this configuration. The
// runtime state is read from GenesisFile; without one the chain
// starts empty.
func (c Config) GenesisDoc() (types.GenesisDoc, error) {
	doc := types.GenesisDoc{ChainID: c.ChainID}
	if c.GenesisFile == "" {
		return doc, nil
	}
	data, err := os.ReadFile(c.GenesisFile)
	if err != nil {
		return types.GenesisDoc{}, errors.Wrapf(err, "read genesis file %s", c.GenesisFile)
	}
	doc.AppState = data
	return doc, nil
}
