// Package miner holds the block sealing policies. A miner fixes a block's identity hash and
// decides the reward paid for it.
package miner

import (
	"github.com/Luismorlan/ledger_in_go/commands"
	"github.com/Luismorlan/ledger_in_go/config"
	"github.com/Luismorlan/ledger_in_go/model"
	"github.com/Luismorlan/ledger_in_go/utils"
	"github.com/pkg/errors"
)

// NoopReward is the fixed payout of the no-op policy.
const NoopReward = 1.0

var (
	ErrMiningCancelled  = utils.ErrMiningCancelled
	ErrInsufficientWork = errors.New("hash does not meet difficulty")
)

type Miner interface {
	// Seal fixes block.Hash. A command received on ctl aborts the seal with ErrMiningCancelled
	// and is returned. A nil ctl never aborts.
	Seal(block *model.Block, ctl chan commands.Command) (commands.Command, error)
	// Reward is the payout for a block carrying pending transactions.
	Reward(pending int) float64
	// Verify checks the policy's own rule on a sealed block.
	Verify(block *model.Block) error
	Name() string
}

// New picks the miner named by the config.
func New(c config.AppConfig) (Miner, error) {
	switch c.MINING_POLICY {
	case config.MiningProofOfWork:
		return NewPowMiner(c.DIFFICULTY, c.MINING_REWARD), nil
	case config.MiningNoop:
		return NewNoopMiner(), nil
	default:
		return nil, errors.Wrapf(config.ErrInvalidConfig, "unknown MINING_POLICY %q", c.MINING_POLICY)
	}
}

// NoopMiner computes the content digest once and pays a fixed reward.
type NoopMiner struct{}

func NewNoopMiner() *NoopMiner { return &NoopMiner{} }

func (m *NoopMiner) Seal(block *model.Block, _ chan commands.Command) (commands.Command, error) {
	block.Hash = utils.CalculateHash(block)
	return commands.NewDefaultCommand(), nil
}

func (m *NoopMiner) Reward(_ int) float64 { return NoopReward }

func (m *NoopMiner) Verify(_ *model.Block) error { return nil }

func (m *NoopMiner) Name() string { return string(config.MiningNoop) }

// PowMiner searches nonces until the hash starts with Difficulty '0' characters.
// The expected number of attempts is 16^Difficulty.
type PowMiner struct {
	Difficulty int
	BaseReward float64
}

func NewPowMiner(difficulty int, baseReward float64) *PowMiner {
	return &PowMiner{
		Difficulty: difficulty,
		BaseReward: baseReward,
	}
}

func (m *PowMiner) Seal(block *model.Block, ctl chan commands.Command) (commands.Command, error) {
	return utils.Mine(block, m.Difficulty, ctl)
}

// Reward grows with the number of transactions the block clears.
func (m *PowMiner) Reward(pending int) float64 {
	return m.BaseReward + float64(pending)
}

func (m *PowMiner) Verify(block *model.Block) error {
	if !utils.HasLeadingZeros(block.Hash, m.Difficulty) {
		return errors.Wrapf(ErrInsufficientWork, "want %d leading zeros in %s", m.Difficulty, block.Hash)
	}
	return nil
}

func (m *PowMiner) Name() string { return string(config.MiningProofOfWork) }
