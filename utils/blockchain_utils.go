package utils

import (
	"strings"

	"github.com/Luismorlan/ledger_in_go/commands"
	"github.com/Luismorlan/ledger_in_go/model"
	"github.com/pkg/errors"
	"google.golang.org/protobuf/encoding/protowire"
)

var ErrMiningCancelled = errors.New("mining cancelled")

// Field numbers of the block encoding.
const (
	blockIndexField     protowire.Number = 1
	blockTimestampField protowire.Number = 2
	blockTxField        protowire.Number = 3
	blockPrevHashField  protowire.Number = 4
	blockNonceField     protowire.Number = 5
)

// NewGenesisBlock creates the first block of a chain: index 0, no transactions and the sentinel
// previous hash. Its hash is computed like any other block.
func NewGenesisBlock(timestamp int64) model.Block {
	genesis := model.Block{
		Index:     0,
		Timestamp: timestamp,
		Txs:       []model.Transaction{},
		PrevHash:  model.GenesisPrevHash,
	}
	genesis.Hash = CalculateHash(&genesis)
	return genesis
}

// Create a candidate block from the provided transactions on top of prevHash. The block still
// needs to be sealed by a miner.
func CreateNewBlock(index int64, timestamp int64, txs []model.Transaction, prevHash string) *model.Block {
	block := model.Block{
		Index:     index,
		Timestamp: timestamp,
		Txs:       txs,
		PrevHash:  prevHash,
	}
	block.Hash = CalculateHash(&block)
	return &block
}

// GetBlockBytes serializes every hashed field of the block. Transactions are written in order,
// each as a length-delimited record. The coinbase is deliberately left out.
func GetBlockBytes(block *model.Block) []byte {
	var rawBlock []byte

	rawBlock = protowire.AppendTag(rawBlock, blockIndexField, protowire.VarintType)
	rawBlock = protowire.AppendVarint(rawBlock, uint64(block.Index))
	rawBlock = protowire.AppendTag(rawBlock, blockTimestampField, protowire.VarintType)
	rawBlock = protowire.AppendVarint(rawBlock, uint64(block.Timestamp))

	for i := 0; i < len(block.Txs); i++ {
		rawBlock = protowire.AppendTag(rawBlock, blockTxField, protowire.BytesType)
		rawBlock = protowire.AppendBytes(rawBlock, GetTransactionBytes(&block.Txs[i]))
	}

	rawBlock = protowire.AppendTag(rawBlock, blockPrevHashField, protowire.BytesType)
	rawBlock = protowire.AppendString(rawBlock, block.PrevHash)
	rawBlock = protowire.AppendTag(rawBlock, blockNonceField, protowire.VarintType)
	rawBlock = protowire.AppendVarint(rawBlock, uint64(block.Nonce))

	return rawBlock
}

// CalculateHash returns the hex SHA256 digest of the block's current fields.
func CalculateHash(block *model.Block) string {
	return BytesToHex(SHA256(GetBlockBytes(block)))
}

// Mine a block, fill the nonce and hash given the current difficulty setting.
// difficulty - how many leading '0' hex characters.
// Any command received on ctl interrupts the search and is handed back to the caller, which is
// the only way out when difficulty cannot be met.
func Mine(block *model.Block, difficulty int, ctl chan commands.Command) (commands.Command, error) {
	for i := int64(0); ; i++ {
		select {
		case c := <-ctl:
			return c, ErrMiningCancelled
		default:
		}
		block.Nonce = i
		isMatched, digest := MatchDifficulty(block, difficulty)
		if isMatched {
			block.Hash = digest
			return commands.NewDefaultCommand(), nil
		}
	}
}

func MatchDifficulty(block *model.Block, difficulty int) (bool, string) {
	digest := CalculateHash(block)
	return HasLeadingZeros(digest, difficulty), digest
}

// HasLeadingZeros reports whether the first difficulty characters of the hex digest are '0'.
func HasLeadingZeros(digest string, difficulty int) bool {
	if difficulty <= 0 {
		return true
	}
	if difficulty > len(digest) {
		return false
	}
	return strings.Count(digest[:difficulty], "0") == difficulty
}
