package model

// GenesisPrevHash is the previous hash of the first block in every chain.
const GenesisPrevHash = "0"

type Block struct {
	// Position in the chain, 0 for genesis.
	Index int64
	// Creation time in unix nanoseconds.
	Timestamp int64
	// Transactions for this block, in submission order.
	Txs []Transaction
	// Coinbase transaction as the miner's reward. It is attached after the hash is fixed,
	// so it is not part of the committed digest. Nil for genesis.
	Coinbase *Transaction
	// Hash of the previous block in the hex format.
	PrevHash string
	// Nonce is the miner's challenge for computing the block.
	Nonce int64
	// Hash of this block in the hex string format.
	Hash string
}

// Transactions returns every transaction of the block with the reward last.
func (b *Block) Transactions() []Transaction {
	txs := make([]Transaction, 0, len(b.Txs)+1)
	txs = append(txs, b.Txs...)
	if b.Coinbase != nil {
		txs = append(txs, *b.Coinbase)
	}
	return txs
}

// Blockchain is an append-only log of blocks, indexed by height.
type Blockchain struct {
	Blocks []Block
}

// Create a new blockchain holding only the given genesis block.
func NewBlockChain(genesis Block) Blockchain {
	return Blockchain{
		Blocks: []Block{genesis},
	}
}

// Tail returns the most recent block.
func (bc *Blockchain) Tail() *Block {
	return &bc.Blocks[len(bc.Blocks)-1]
}

// Height is the index of the tail block.
func (bc *Blockchain) Height() int64 {
	return int64(len(bc.Blocks) - 1)
}

// BalanceChange is the net effect of one block on one address.
type BalanceChange struct {
	// Timestamp of the block, unix nanoseconds.
	Timestamp int64
	// Sum of credits minus debits within the block. Not a running total.
	Delta float64
}
