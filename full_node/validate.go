package full_node

import (
	"fmt"

	"github.com/Luismorlan/ledger_in_go/miner"
	"github.com/Luismorlan/ledger_in_go/model"
	"github.com/Luismorlan/ledger_in_go/utils"
	"github.com/pkg/errors"
)

var (
	ErrBadGenesis       = errors.New("malformed genesis block")
	ErrIndexMismatch    = errors.New("block index does not match its height")
	ErrHashMismatch     = errors.New("stored hash does not match block content")
	ErrLinkMismatch     = errors.New("previous hash does not match previous block")
	ErrInsufficientWork = miner.ErrInsufficientWork
)

// ChainError locates the first block that failed validation.
type ChainError struct {
	Index int64
	Err   error
}

func (e *ChainError) Error() string {
	return fmt.Sprintf("block %d: %v", e.Index, e.Err)
}

func (e *ChainError) Unwrap() error {
	return e.Err
}

// ValidateBlock checks a block on its own: its position, that its stored hash is the digest of
// its current fields, and the miner's rule. The reward is outside the digest.
func ValidateBlock(block *model.Block, height int64, m miner.Miner) error {
	if block.Index != height {
		return errors.Wrapf(ErrIndexMismatch, "index %d at height %d", block.Index, height)
	}
	if digest := utils.CalculateHash(block); digest != block.Hash {
		return errors.Wrapf(ErrHashMismatch, "stored %s, computed %s", block.Hash, digest)
	}
	return m.Verify(block)
}

func validateGenesis(genesis *model.Block) error {
	if genesis.Index != 0 || genesis.PrevHash != model.GenesisPrevHash || len(genesis.Transactions()) != 0 {
		return ErrBadGenesis
	}
	if digest := utils.CalculateHash(genesis); digest != genesis.Hash {
		return errors.Wrapf(ErrHashMismatch, "stored %s, computed %s", genesis.Hash, digest)
	}
	return nil
}

// ValidateChain walks the chain from genesis and returns a *ChainError for the first violation.
func ValidateChain(blocks []model.Block, m miner.Miner) error {
	if len(blocks) == 0 {
		return &ChainError{Index: 0, Err: errors.Wrap(ErrBadGenesis, "empty chain")}
	}
	if err := validateGenesis(&blocks[0]); err != nil {
		return &ChainError{Index: 0, Err: err}
	}
	for i := 1; i < len(blocks); i++ {
		current := &blocks[i]
		previous := &blocks[i-1]

		// Check if the current block is valid
		if err := ValidateBlock(current, int64(i), m); err != nil {
			return &ChainError{Index: int64(i), Err: err}
		}

		// Check if the previous hash is correct
		if current.PrevHash != previous.Hash {
			return &ChainError{
				Index: int64(i),
				Err:   errors.Wrapf(ErrLinkMismatch, "points at %s, previous is %s", current.PrevHash, previous.Hash),
			}
		}
	}
	return nil
}

// ValidateChain checks the node's own chain. Validation is a diagnostic, nothing else depends
// on it.
func (f *FullNode) ValidateChain() error {
	f.m.RLock()
	defer f.m.RUnlock()
	return ValidateChain(f.blockchain.Blocks, f.miner)
}

func (f *FullNode) IsChainValid() bool {
	err := f.ValidateChain()
	if err != nil {
		f.logger.Warn().Err(err).Msg("Chain is invalid")
	}
	return err == nil
}
