// Package config loads and validates the node configuration.
package config

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/PanGan21/indexer-go/model/payments"
)

type Config struct {
	Server struct {
		ListenAddr string `mapstructure:"listen_addr" validate:"required,hostname_port"`
	} `mapstructure:"server"`

	Indexer struct {
		Address     string `mapstructure:"address" validate:"required,eth_addr"`
		OperatorKey string `mapstructure:"operator_key" validate:"required,hexadecimal"`
	} `mapstructure:"indexer"`

	Database struct {
		Dir string `mapstructure:"dir" validate:"required"`
	} `mapstructure:"database"`

	Subgraphs struct {
		NetworkEndpoint string `mapstructure:"network_endpoint" validate:"required,url"`
		EscrowEndpoint  string `mapstructure:"escrow_endpoint" validate:"required,url"`
	} `mapstructure:"subgraphs"`

	Sync struct {
		AllocationInterval     time.Duration `mapstructure:"allocation_interval" validate:"required"`
		EscrowInterval         time.Duration `mapstructure:"escrow_interval" validate:"required"`
		DisputeManagerInterval time.Duration `mapstructure:"dispute_manager_interval" validate:"required"`
	} `mapstructure:"sync"`

	Receipts struct {
		AcceptanceWindow time.Duration `mapstructure:"acceptance_window" validate:"required"`
		AppraisalTTL     time.Duration `mapstructure:"appraisal_ttl" validate:"required"`
	} `mapstructure:"receipts"`

	Domain struct {
		Name              string `mapstructure:"name" validate:"required"`
		Version           string `mapstructure:"version" validate:"required"`
		ChainID           int64  `mapstructure:"chain_id" validate:"required"`
		VerifyingContract string `mapstructure:"verifying_contract" validate:"required,eth_addr"`
	} `mapstructure:"domain"`

	Log struct {
		Level string `mapstructure:"level" validate:"oneof=trace debug info warn error"`
	} `mapstructure:"log"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.listen_addr", "0.0.0.0:7600")
	v.SetDefault("database.dir", "/var/lib/indexer/receipts")
	v.SetDefault("sync.allocation_interval", time.Minute)
	v.SetDefault("sync.escrow_interval", 42*time.Second)
	v.SetDefault("sync.dispute_manager_interval", time.Hour)
	v.SetDefault("receipts.acceptance_window", 30*time.Second)
	v.SetDefault("receipts.appraisal_ttl", 10*time.Minute)
	v.SetDefault("domain.name", "TAP")
	v.SetDefault("domain.version", "1")
	v.SetDefault("log.level", "info")
}

// Load reads the config file at path, applies defaults and environment
// overrides (prefix INDEXER_), and validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("INDEXER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("could not read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("could not unmarshal config: %w", err)
	}
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// IndexerAddress returns the indexer's on-chain address.
func (c *Config) IndexerAddress() common.Address {
	return common.HexToAddress(c.Indexer.Address)
}

// OperatorECDSAKey parses the operator's signing key.
func (c *Config) OperatorECDSAKey() (*ecdsa.PrivateKey, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(c.Indexer.OperatorKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("could not parse operator key: %w", err)
	}
	return key, nil
}

// EIP712Domain returns the receipt signing-domain parameters.
func (c *Config) EIP712Domain() *payments.Domain {
	return &payments.Domain{
		Name:              c.Domain.Name,
		Version:           c.Domain.Version,
		ChainID:           big.NewInt(c.Domain.ChainID),
		VerifyingContract: common.HexToAddress(c.Domain.VerifyingContract),
	}
}
