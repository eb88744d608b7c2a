package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"reflect"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/mitchellh/mapstructure"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	beaconConfig "github.com/ggxchain/transaction-receipt-relayer/beacon/config"
	"github.com/ggxchain/transaction-receipt-relayer/lightclient"
	"github.com/ggxchain/transaction-receipt-relayer/registry"
)

type Config struct {
	DataDir             string                  `mapstructure:"data-dir"`
	LogLevel            string                  `mapstructure:"log-level"`
	Admins              []lightclient.AccountID `mapstructure:"admins"`
	Treasury            *lightclient.AccountID  `mapstructure:"treasury"`
	StoragePricePerByte uint64                  `mapstructure:"storage-price-per-byte"`
	Chains              []ChainConfig           `mapstructure:"chains"`
	Registry            RegistryConfig          `mapstructure:"registry"`
}

type ChainConfig struct {
	ChainID             uint64                 `mapstructure:"chain-id"`
	Network             string                 `mapstructure:"network"`
	HashesGCThreshold   uint64                 `mapstructure:"hashes-gc-threshold"`
	ValidateUpdates     bool                   `mapstructure:"validate-updates"`
	VerifyBLSSignatures bool                   `mapstructure:"verify-bls-signatures"`
	TrustedSigner       *lightclient.AccountID `mapstructure:"trusted-signer"`
}

type RegistryConfig struct {
	WatchedAddress common.Address `mapstructure:"watched-address"`
	ProofDeposit   uint64         `mapstructure:"proof-deposit"`
	ProofReward    uint64         `mapstructure:"proof-reward"`
	MaxProofSize   int            `mapstructure:"max-proof-size"`
}

func defaults(v *viper.Viper) {
	v.SetDefault("data-dir", "./data")
	v.SetDefault("log-level", "info")
	v.SetDefault("registry.max-proof-size", registry.DefaultMaxProofSize)
}

// Load reads the configuration file at path. The format follows the file
// extension.
func Load(path string) (*Config, error) {
	v := viper.New()
	defaults(v)
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var config Config
	err := v.Unmarshal(&config, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		HexHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)))
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) Validate() error {
	if c.DataDir == "" {
		return errors.New("data-dir is required")
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log-level: %w", err)
	}

	seen := make(map[uint64]bool, len(c.Chains))
	for i := range c.Chains {
		chain := &c.Chains[i]
		if err := chain.Validate(); err != nil {
			return fmt.Errorf("chains[%d]: %w", i, err)
		}
		if seen[chain.ChainID] {
			return fmt.Errorf("chains[%d]: duplicate chain-id %d", i, chain.ChainID)
		}
		seen[chain.ChainID] = true
	}

	if c.Registry.MaxProofSize < 0 {
		return errors.New("registry.max-proof-size must not be negative")
	}
	return nil
}

func (c *ChainConfig) Validate() error {
	network, err := beaconConfig.Lookup(c.Network)
	if err != nil {
		return err
	}
	if c.HashesGCThreshold == 0 {
		return errors.New("hashes-gc-threshold is required")
	}
	if network.RequireTrustless && !(c.ValidateUpdates && c.VerifyBLSSignatures) {
		return fmt.Errorf("network %s requires validate-updates and verify-bls-signatures", network.Name)
	}
	return nil
}

// Chain returns the settings of chain id.
func (c *Config) Chain(id uint64) (*ChainConfig, error) {
	for i := range c.Chains {
		if c.Chains[i].ChainID == id {
			return &c.Chains[i], nil
		}
	}
	return nil, fmt.Errorf("chain %d is not configured", id)
}

func (c *Config) Level() logrus.Level {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}

func (r *RegistryConfig) Fees() registry.Fees {
	return registry.Fees{
		ProofDeposit: new(big.Int).SetUint64(r.ProofDeposit),
		ProofReward:  new(big.Int).SetUint64(r.ProofReward),
	}
}

var (
	accountIDType = reflect.TypeOf(lightclient.AccountID{})
	addressType   = reflect.TypeOf(common.Address{})
)

// HexHookFunc decodes hex strings into account ids and addresses.
func HexHookFunc() mapstructure.DecodeHookFuncType {
	return func(
		f reflect.Type,
		t reflect.Type,
		data interface{},
	) (interface{}, error) {
		if f.Kind() != reflect.String {
			return data, nil
		}

		switch t {
		case accountIDType:
			b, err := HexDecodeString(data.(string))
			if err != nil {
				return nil, err
			}
			if len(b) != len(lightclient.AccountID{}) {
				return nil, fmt.Errorf("account id %q must be 32 bytes", data)
			}
			var out lightclient.AccountID
			copy(out[:], b)
			return out, nil
		case addressType:
			s := data.(string)
			if !common.IsHexAddress(s) {
				return nil, fmt.Errorf("invalid address %q", s)
			}
			return common.HexToAddress(s), nil
		default:
			return data, nil
		}
	}
}

// HexDecodeString decodes bytes from a hex string. Contrary to hex.DecodeString, this function does not error if "0x"
// is prefixed, and adds an extra 0 if the hex string has an odd length.
func HexDecodeString(s string) ([]byte, error) {
	s = strings.TrimPrefix(s, "0x")

	if len(s)%2 != 0 {
		s = "0" + s
	}

	return hex.DecodeString(s)
}
