package config

import (
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"lockstream/crypto"

	"github.com/BurntSushi/toml"
)

type Config struct {
	ListenAddress    string   `toml:"ListenAddress"`
	DataDir          string   `toml:"DataDir"`
	OwnerAddress     string   `toml:"OwnerAddress"`
	VaultAddress     string   `toml:"VaultAddress"`
	OracleAddress    string   `toml:"OracleAddress"`
	WeigherAddresses []string `toml:"WeigherAddresses"`
	Tokens           []string `toml:"Tokens"`
	DefaultFeeRate   string   `toml:"DefaultFeeRate"`
	SnapshotLiveness uint64   `toml:"SnapshotLiveness"`
}

// Load loads the configuration from the given path.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.ListenAddress) == "" {
		cfg.ListenAddress = ":8080"
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = "./locker-data"
	}
	if cfg.WeigherAddresses == nil {
		cfg.WeigherAddresses = []string{}
	}
	if cfg.Tokens == nil {
		cfg.Tokens = []string{}
	}
	if cfg.SnapshotLiveness == 0 {
		cfg.SnapshotLiveness = 7200
	}

	return cfg, nil
}

// createDefault creates and saves a default configuration file. The owner
// and vault addresses are derived from freshly generated keys so a new
// deployment comes up self-consistent.
func createDefault(path string) (*Config, error) {
	ownerKey, err := crypto.GeneratePrivateKey()
	if err != nil {
		return nil, err
	}
	vaultKey, err := crypto.GeneratePrivateKey()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		ListenAddress:    ":8080",
		DataDir:          "./locker-data",
		OwnerAddress:     ownerKey.PubKey().Address().String(),
		VaultAddress:     vaultKey.PubKey().Address().String(),
		OracleAddress:    ownerKey.PubKey().Address().String(),
		WeigherAddresses: []string{},
		Tokens:           []string{"ZNHB"},
		DefaultFeeRate:   "0",
		SnapshotLiveness: 7200,
	}

	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return toml.NewEncoder(file).Encode(cfg)
}

// Address decodes a configured bech32 address into its raw 20-byte form.
func Address(value string) ([20]byte, error) {
	var out [20]byte
	addr, err := crypto.DecodeAddress(strings.TrimSpace(value))
	if err != nil {
		return out, err
	}
	raw := addr.Bytes()
	if len(raw) != len(out) {
		return out, fmt.Errorf("config: address %q is %d bytes, want %d", value, len(raw), len(out))
	}
	copy(out[:], raw)
	return out, nil
}

// FeeRate parses the configured default fee rate as a base-10 integer
// scaled by 1e18.
func FeeRate(value string) (*big.Int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return big.NewInt(0), nil
	}
	rate, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("config: invalid fee rate %q", value)
	}
	return rate, nil
}
