package full_node

import (
	"sync"
	"time"

	"github.com/Luismorlan/ledger_in_go/commands"
	"github.com/Luismorlan/ledger_in_go/config"
	"github.com/Luismorlan/ledger_in_go/ledger"
	"github.com/Luismorlan/ledger_in_go/miner"
	"github.com/Luismorlan/ledger_in_go/model"
	"github.com/Luismorlan/ledger_in_go/utils"
	"github.com/jinzhu/copier"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	uuid "github.com/satori/go.uuid"
)

// Recorder observes the node's activity, typically to export metrics.
type Recorder interface {
	TransactionAdmitted()
	TransactionRejected(err error)
	BlockMined(block *model.Block, elapsed time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) TransactionAdmitted() {}

func (nopRecorder) TransactionRejected(error) {}

func (nopRecorder) BlockMined(*model.Block, time.Duration) {}

// A full node maintains the blockchain, its pending transactions and the balances.
type FullNode struct {
	// The blockchain it needs to maintain. Append-only, only mining adds to it.
	blockchain *model.Blockchain
	// Incoming transactions wait here until the next block is mined.
	txPool *model.TransactionPool
	// Balance accounting policy.
	ledger ledger.Ledger
	// Block sealing policy.
	miner miner.Miner
	// Blockchain config.
	config config.AppConfig
	// A single mutex for changing internal state.
	m sync.RWMutex
	// Serializes mining so that only one block is sealed on top of the tail at a time.
	mineMu sync.Mutex

	logger   zerolog.Logger
	recorder Recorder
	now      func() time.Time
	// A unique identifier of this node, only used for naming its outputs.
	uuid string
}

type Option func(*FullNode)

func WithLogger(logger zerolog.Logger) Option {
	return func(f *FullNode) {
		f.logger = logger
	}
}

func WithRecorder(r Recorder) Option {
	return func(f *FullNode) {
		f.recorder = r
	}
}

// WithClock replaces the wall clock used to timestamp blocks.
func WithClock(now func() time.Time) Option {
	return func(f *FullNode) {
		f.now = now
	}
}

// Create a brand new full node, which contains a genesis block in the chain.
func NewFullNode(c config.AppConfig, opts ...Option) (*FullNode, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	l, err := ledger.New(c)
	if err != nil {
		return nil, err
	}
	m, err := miner.New(c)
	if err != nil {
		return nil, err
	}
	txPool := model.NewTransactionPool()
	f := &FullNode{
		txPool:   &txPool,
		ledger:   l,
		miner:    m,
		config:   c,
		logger:   zerolog.Nop(),
		recorder: nopRecorder{},
		now:      time.Now,
		uuid:     uuid.NewV4().String(),
	}
	for _, opt := range opts {
		opt(f)
	}
	bc := model.NewBlockChain(utils.NewGenesisBlock(f.now().UnixNano()))
	f.blockchain = &bc
	f.logger = f.logger.With().Str("node", f.uuid).Logger()
	f.logger.Info().
		Str("ledger", l.Name()).
		Str("miner", m.Name()).
		Int("difficulty", c.DIFFICULTY).
		Str("genesis", bc.Tail().Hash).
		Msg("Full node created")
	return f, nil
}

// CreateWallet registers a new address holding initialBalance. Only the eager ledger keeps
// wallets, the derived ledger returns ledger.ErrUnsupported.
func (f *FullNode) CreateWallet(initialBalance float64) (string, error) {
	f.m.Lock()
	defer f.m.Unlock()

	wc, ok := f.ledger.(ledger.WalletCreator)
	if !ok {
		return "", errors.Wrapf(ledger.ErrUnsupported, "create wallet with %s ledger", f.ledger.Name())
	}
	addr, err := wc.CreateWallet(initialBalance)
	if err != nil {
		return "", err
	}
	f.logger.Info().Str("address", addr).Float64("balance", initialBalance).Msg("Wallet created")
	return addr, nil
}

// GetWallets returns a copy of every registered balance.
func (f *FullNode) GetWallets() (map[string]float64, error) {
	f.m.RLock()
	defer f.m.RUnlock()

	wc, ok := f.ledger.(ledger.WalletCreator)
	if !ok {
		return nil, errors.Wrapf(ledger.ErrUnsupported, "list wallets with %s ledger", f.ledger.Name())
	}
	return wc.Wallets(), nil
}

// GetBalance follows the ledger policy: the stored balance (pending transfers included) for the
// eager ledger, a full scan of the mined chain for the derived ledger.
func (f *FullNode) GetBalance(addr string) float64 {
	f.m.RLock()
	defer f.m.RUnlock()
	return f.ledger.Balance(f.blockchain, addr)
}

// SubmitTransaction validates a transfer against the ledger policy and queues it for the next
// block. A rejected transfer changes nothing.
func (f *FullNode) SubmitTransaction(sender string, recipient string, amount float64) error {
	tx, err := model.NewTransaction(sender, recipient, amount)
	if err != nil {
		f.recorder.TransactionRejected(err)
		return err
	}

	f.m.Lock()
	defer f.m.Unlock()

	if err := f.ledger.Admit(tx); err != nil {
		f.recorder.TransactionRejected(err)
		f.logger.Warn().Err(err).Str("sender", sender).Str("recipient", recipient).Float64("amount", amount).Msg("Transaction rejected")
		return err
	}
	f.txPool.Txs = append(f.txPool.Txs, tx)
	f.recorder.TransactionAdmitted()
	f.logger.Debug().Str("sender", sender).Str("recipient", recipient).Float64("amount", amount).Int("pending", len(f.txPool.Txs)).Msg("Transaction added to pending transactions")
	return nil
}

// MinePendingTransactions seals every pending transaction into a new block paying minerAddress,
// and appends it. It runs until the block is sealed.
func (f *FullNode) MinePendingTransactions(minerAddress string) (*model.Block, error) {
	block, _, err := f.MinePendingTransactionsWithControl(minerAddress, nil)
	return block, err
}

// MinePendingTransactionsWithControl is MinePendingTransactions with an interrupt: any command
// received on ctl abandons the block, leaves chain and pool untouched, and is returned with
// miner.ErrMiningCancelled.
//
// Sealing happens outside the state lock so that submissions and queries proceed meanwhile.
// Transactions submitted during the search stay pending for the next block.
func (f *FullNode) MinePendingTransactionsWithControl(minerAddress string, ctl chan commands.Command) (*model.Block, commands.Command, error) {
	if minerAddress == "" {
		return nil, commands.NewDefaultCommand(), errors.Wrap(model.ErrInvalidTransaction, "miner address is missing")
	}

	f.mineMu.Lock()
	defer f.mineMu.Unlock()

	// Snapshot the pool and the tail. Only this function appends to the chain and mineMu is
	// held, so the tail cannot move before the block is appended.
	f.m.RLock()
	tail := f.blockchain.Tail()
	txs := make([]model.Transaction, len(f.txPool.Txs))
	copy(txs, f.txPool.Txs)
	index := int64(len(f.blockchain.Blocks))
	prevHash := tail.Hash
	timestamp := f.now().UnixNano()
	if timestamp < tail.Timestamp {
		timestamp = tail.Timestamp
	}
	f.m.RUnlock()

	block := utils.CreateNewBlock(index, timestamp, txs, prevHash)
	start := time.Now()
	c, err := f.miner.Seal(block, ctl)
	if err != nil {
		f.logger.Warn().Err(err).Int64("index", index).Int64("nonce", block.Nonce).Msg("Mining stopped")
		return nil, c, err
	}
	elapsed := time.Since(start)

	// The reward is attached after sealing and is not covered by the hash.
	block.Coinbase = utils.CreateRewardTx(f.miner.Reward(len(txs)), minerAddress)

	f.m.Lock()
	f.blockchain.Blocks = append(f.blockchain.Blocks, *block)
	remaining := make([]model.Transaction, len(f.txPool.Txs)-len(txs))
	copy(remaining, f.txPool.Txs[len(txs):])
	f.txPool.Txs = remaining
	f.ledger.Commit(block)
	f.m.Unlock()

	f.recorder.BlockMined(block, elapsed)
	f.logger.Info().
		Int64("index", block.Index).
		Str("hash", block.Hash).
		Int64("nonce", block.Nonce).
		Int("txs", len(txs)).
		Float64("reward", block.Coinbase.Amount).
		Dur("elapsed", elapsed).
		Msg("Block mined")
	return cloneBlock(block), c, nil
}

// GetTransactionHistory lists mined transactions involving addr in chain order. Pending
// transactions are not included.
func (f *FullNode) GetTransactionHistory(addr string) []model.Transaction {
	f.m.RLock()
	defer f.m.RUnlock()
	return utils.TransactionHistory(f.blockchain.Blocks, addr)
}

// GetBalanceHistory lists, for every block, its timestamp and the net change of addr's balance.
func (f *FullNode) GetBalanceHistory(addr string) []model.BalanceChange {
	f.m.RLock()
	defer f.m.RUnlock()
	return utils.BalanceHistory(f.blockchain.Blocks, addr)
}

// Return a deep copy of every block.
func (f *FullNode) GetChain() []model.Block {
	f.m.RLock()
	defer f.m.RUnlock()
	var blocks []model.Block
	copier.CopyWithOption(&blocks, &f.blockchain.Blocks, copier.Option{DeepCopy: true})
	return blocks
}

// Return a deep copy of the tail block.
func (f *FullNode) GetTail() *model.Block {
	f.m.RLock()
	defer f.m.RUnlock()
	return cloneBlock(f.blockchain.Tail())
}

func (f *FullNode) GetHeight() int64 {
	f.m.RLock()
	defer f.m.RUnlock()
	return f.blockchain.Height()
}

// GetPending returns a copy of the pending transactions in submission order.
func (f *FullNode) GetPending() []model.Transaction {
	f.m.RLock()
	defer f.m.RUnlock()
	txs := make([]model.Transaction, len(f.txPool.Txs))
	copy(txs, f.txPool.Txs)
	return txs
}

func (f *FullNode) GetConfig() config.AppConfig {
	return f.config
}

func (f *FullNode) ID() string {
	return f.uuid
}

func cloneBlock(b *model.Block) *model.Block {
	clone := &model.Block{}
	copier.CopyWithOption(clone, b, copier.Option{DeepCopy: true})
	return clone
}
