package config

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

var ErrInvalidConfig = errors.New("invalid config")

// MaxDifficulty is the length of a hex SHA256 digest. Anything longer can never be met.
const MaxDifficulty = 64

type LedgerPolicy string

const (
	// Balances live in a wallet map, updated as soon as a transaction is submitted.
	LedgerEager LedgerPolicy = "eager"
	// Balances are recomputed from the mined chain on every query.
	LedgerDerived LedgerPolicy = "derived"
)

type MiningPolicy string

const (
	// Search for a nonce until the hash meets the difficulty.
	MiningProofOfWork MiningPolicy = "pow"
	// Hash once, no search.
	MiningNoop MiningPolicy = "noop"
)

// This is the global app config for the blockchain.
type AppConfig struct {
	// How many leading 0s to form a valid hash.
	DIFFICULTY int `yaml:"DIFFICULTY"`
	// The base reward for mining a block, increased by one per mined transaction.
	MINING_REWARD float64 `yaml:"MINING_REWARD"`
	// How balances are kept, see LedgerPolicy.
	LEDGER_POLICY LedgerPolicy `yaml:"LEDGER_POLICY"`
	// How blocks are sealed, see MiningPolicy.
	MINING_POLICY MiningPolicy `yaml:"MINING_POLICY"`
}

// Default returns the settings the engine was designed around.
func Default() AppConfig {
	return AppConfig{
		DIFFICULTY:    4,
		MINING_REWARD: 100,
		LEDGER_POLICY: LedgerEager,
		MINING_POLICY: MiningProofOfWork,
	}
}

func (c AppConfig) Validate() error {
	if c.DIFFICULTY < 0 || c.DIFFICULTY > MaxDifficulty {
		return errors.Wrapf(ErrInvalidConfig, "DIFFICULTY must be within [0, %d], got %d", MaxDifficulty, c.DIFFICULTY)
	}
	if c.MINING_REWARD < 0 {
		return errors.Wrapf(ErrInvalidConfig, "MINING_REWARD must not be negative, got %v", c.MINING_REWARD)
	}
	switch c.LEDGER_POLICY {
	case LedgerEager, LedgerDerived:
	default:
		return errors.Wrapf(ErrInvalidConfig, "unknown LEDGER_POLICY %q", c.LEDGER_POLICY)
	}
	switch c.MINING_POLICY {
	case MiningProofOfWork, MiningNoop:
	default:
		return errors.Wrapf(ErrInvalidConfig, "unknown MINING_POLICY %q", c.MINING_POLICY)
	}
	return nil
}

// ParseLedgerPolicy accepts the policy name in any case.
func ParseLedgerPolicy(s string) LedgerPolicy {
	return LedgerPolicy(strings.ToLower(strings.TrimSpace(s)))
}

// ParseMiningPolicy accepts the policy name in any case, "proofofwork" is an alias of "pow".
func ParseMiningPolicy(s string) MiningPolicy {
	p := strings.ToLower(strings.TrimSpace(s))
	if p == "proofofwork" {
		return MiningProofOfWork
	}
	return MiningPolicy(p)
}

// ParseAppConfig reads a YAML config on top of the defaults. Keys missing from the file keep
// their default value.
func ParseAppConfig(path string) (AppConfig, error) {
	c := Default()
	yamlFile, err := os.ReadFile(path)
	if err != nil {
		return c, errors.Wrapf(err, "read config %s", path)
	}
	if err := yaml.Unmarshal(yamlFile, &c); err != nil {
		return c, errors.Wrapf(err, "unmarshal config %s", path)
	}
	c.LEDGER_POLICY = ParseLedgerPolicy(string(c.LEDGER_POLICY))
	c.MINING_POLICY = ParseMiningPolicy(string(c.MINING_POLICY))
	return c, c.Validate()
}

// String renders the config as YAML.
func (c AppConfig) String() string {
	out, err := yaml.Marshal(c)
	if err != nil {
		return err.Error()
	}
	return string(out)
}
