package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config captures the daemon settings loaded from the TOML file.
type Config struct {
	RPCAddress       string `toml:"RPCAddress"`
	GatewayAddress   string `toml:"GatewayAddress"`
	DataDir          string `toml:"DataDir"`
	StorageBackend   string `toml:"StorageBackend"`
	NetworkName      string `toml:"NetworkName"`
	Environment      string `toml:"Environment"`
	LogFile          string `toml:"LogFile"`
	OwnerAddress     string `toml:"OwnerAddress"`
	CustodyAddress   string `toml:"CustodyAddress"`
	PlatformTreasury string `toml:"PlatformTreasury"`
	PlatformFeeBps   uint32 `toml:"PlatformFeeBps"`
}

const (
	defaultRPCAddress     = "127.0.0.1:8645"
	defaultGatewayAddress = "127.0.0.1:8646"
	defaultDataDir        = "./muse-data"
	defaultBackend        = "leveldb"
	defaultNetworkName    = "muse-local"
	// MaxPlatformFeeBps mirrors the engine cap so a misconfigured file fails
	// at startup rather than at the first distribution.
	MaxPlatformFeeBps uint32 = 1000
)

// Load loads the configuration from the given path, writing a default file on
// first run.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.RPCAddress) == "" {
		cfg.RPCAddress = defaultRPCAddress
	}
	if strings.TrimSpace(cfg.GatewayAddress) == "" {
		cfg.GatewayAddress = defaultGatewayAddress
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = defaultDataDir
	}
	if strings.TrimSpace(cfg.StorageBackend) == "" {
		cfg.StorageBackend = defaultBackend
	}
	if strings.TrimSpace(cfg.NetworkName) == "" {
		cfg.NetworkName = defaultNetworkName
	}
}

// Validate rejects settings the daemon could not safely run with.
func (c *Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.StorageBackend)) {
	case "leveldb", "bolt", "memory":
	default:
		return fmt.Errorf("config: unsupported storage backend %q", c.StorageBackend)
	}
	if c.PlatformFeeBps > MaxPlatformFeeBps {
		return fmt.Errorf("config: platform fee %d bps exceeds maximum %d", c.PlatformFeeBps, MaxPlatformFeeBps)
	}
	return nil
}

func createDefault(path string) (*Config, error) {
	cfg := &Config{}
	applyDefaults(cfg)
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	if err := toml.NewEncoder(file).Encode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
