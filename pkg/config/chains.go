package config

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed chains.yaml
var chainsYAML []byte

// ChainInfo describes one of the two bridged networks.
type ChainInfo struct {
	Key      string `yaml:"key"`
	ChainID  int64  `yaml:"chain_id"`
	Name     string `yaml:"name"`
	Currency string `yaml:"currency"`
	Decimals int    `yaml:"decimals"`
	Explorer string `yaml:"explorer"`
}

type chainRegistry struct {
	Chains []ChainInfo `yaml:"chains"`
}

var registry chainRegistry

func init() {
	if err := yaml.Unmarshal(chainsYAML, &registry); err != nil {
		panic(fmt.Sprintf("invalid embedded chain registry: %v", err))
	}
}

// ChainByID returns the registry entry for a chain id.
func ChainByID(chainID int64) (ChainInfo, bool) {
	for _, c := range registry.Chains {
		if c.ChainID == chainID {
			return c, true
		}
	}
	return ChainInfo{}, false
}

// ChainByKey returns the registry entry for a chain key ("magnet" or "bsc").
func ChainByKey(key string) (ChainInfo, bool) {
	for _, c := range registry.Chains {
		if c.Key == key {
			return c, true
		}
	}
	return ChainInfo{}, false
}

// NetworkName returns the display name for a chain id, or "unknown network".
func NetworkName(chainID int64) string {
	if c, ok := ChainByID(chainID); ok {
		return c.Name
	}
	return "unknown network"
}

// ExplorerTxURL composes an explorer link for a transaction hash.
func ExplorerTxURL(chainKey, txHash string) string {
	c, ok := ChainByKey(chainKey)
	if !ok || c.Explorer == "" {
		return ""
	}
	return fmt.Sprintf("%s/tx/%s", c.Explorer, txHash)
}
