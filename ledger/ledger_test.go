package ledger

import (
	"math"
	"testing"

	"github.com/Luismorlan/ledger_in_go/config"
	"github.com/Luismorlan/ledger_in_go/model"
	"github.com/Luismorlan/ledger_in_go/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	c := config.Default()
	l, err := New(c)
	require.NoError(t, err)
	assert.Equal(t, "eager", l.Name())
	_, ok := l.(WalletCreator)
	assert.True(t, ok)

	c.LEDGER_POLICY = config.LedgerDerived
	l, err = New(c)
	require.NoError(t, err)
	assert.Equal(t, "derived", l.Name())
	_, ok = l.(WalletCreator)
	assert.False(t, ok)

	c.LEDGER_POLICY = "lazy"
	_, err = New(c)
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func createEagerLedger(t *testing.T) (*EagerLedger, string, string) {
	t.Helper()
	l := NewEagerLedger()
	a, err := l.CreateWallet(100)
	require.NoError(t, err)
	b, err := l.CreateWallet(0)
	require.NoError(t, err)
	return l, a, b
}

func TestEagerCreateWallet(t *testing.T) {
	l, a, b := createEagerLedger(t)
	assert.NotEqual(t, a, b)
	assert.Equal(t, 100.0, l.Balance(nil, a))
	assert.Equal(t, 0.0, l.Balance(nil, b))
	assert.Equal(t, 0.0, l.Balance(nil, "unknown"))

	for _, balance := range []float64{-1, math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := l.CreateWallet(balance)
		assert.ErrorIs(t, err, model.ErrInvalidTransaction, "%v", balance)
	}
	assert.Len(t, l.Wallets(), 2)
}

func TestEagerCreateWalletRetriesTakenAddress(t *testing.T) {
	l := NewEagerLedger()
	addrs := []string{"a", "a", "b"}
	l.newAddress = func() string {
		addr := addrs[0]
		addrs = addrs[1:]
		return addr
	}
	first, err := l.CreateWallet(1)
	require.NoError(t, err)
	second, err := l.CreateWallet(2)
	require.NoError(t, err)
	assert.Equal(t, "a", first)
	assert.Equal(t, "b", second)
	assert.Equal(t, 1.0, l.Balance(nil, "a"))
}

func TestEagerAdmitIsAtomic(t *testing.T) {
	l, a, b := createEagerLedger(t)

	err := l.Admit(model.Transaction{Sender: a, Recipient: b, Amount: 150})
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.Equal(t, 100.0, l.Balance(nil, a))
	assert.Equal(t, 0.0, l.Balance(nil, b))

	err = l.Admit(model.Transaction{Sender: a, Recipient: b, Amount: 40})
	assert.NoError(t, err)
	assert.Equal(t, 60.0, l.Balance(nil, a))
	assert.Equal(t, 40.0, l.Balance(nil, b))
}

func TestEagerAdmitUnknownAddress(t *testing.T) {
	l, a, b := createEagerLedger(t)

	for _, tx := range []model.Transaction{
		{Sender: "ghost", Recipient: a, Amount: 1},
		{Sender: a, Recipient: "ghost", Amount: 1},
		{Recipient: a, Amount: 1},
	} {
		assert.ErrorIs(t, l.Admit(tx), ErrUnknownAddress)
	}
	assert.Equal(t, map[string]float64{a: 100, b: 0}, l.Wallets())
}

func TestEagerAdmitWholeBalance(t *testing.T) {
	l, a, b := createEagerLedger(t)
	assert.NoError(t, l.Admit(model.Transaction{Sender: a, Recipient: b, Amount: 100}))
	assert.Equal(t, 0.0, l.Balance(nil, a))
	assert.ErrorIs(t, l.Admit(model.Transaction{Sender: a, Recipient: b, Amount: 0.5}), ErrInsufficientFunds)
}

func TestEagerCommitCreditsReward(t *testing.T) {
	l, a, _ := createEagerLedger(t)
	block := utils.CreateNewBlock(1, 1, nil, "prev")
	block.Coinbase = utils.CreateRewardTx(101, a)
	l.Commit(block)
	assert.Equal(t, 201.0, l.Balance(nil, a))

	block.Coinbase = utils.CreateRewardTx(5, "outsider")
	l.Commit(block)
	assert.Equal(t, 5.0, l.Balance(nil, "outsider"))

	l.Commit(&model.Block{})
	assert.Len(t, l.Wallets(), 3)
}

func TestEagerWalletsIsACopy(t *testing.T) {
	l, a, _ := createEagerLedger(t)
	snapshot := l.Wallets()
	snapshot[a] = 1e9
	assert.Equal(t, 100.0, l.Balance(nil, a))
}

func TestDerivedLedger(t *testing.T) {
	l := NewDerivedLedger()
	assert.NoError(t, l.Admit(model.Transaction{Sender: "a", Recipient: "b", Amount: 30}))

	genesis := utils.NewGenesisBlock(0)
	chain := model.NewBlockChain(genesis)
	block := utils.CreateNewBlock(1, 1, []model.Transaction{{Sender: "a", Recipient: "b", Amount: 30}}, genesis.Hash)
	block.Coinbase = utils.CreateRewardTx(1, "miner")
	chain.Blocks = append(chain.Blocks, *block)
	l.Commit(block)

	assert.Equal(t, -30.0, l.Balance(&chain, "a"))
	assert.Equal(t, 30.0, l.Balance(&chain, "b"))
	assert.Equal(t, 1.0, l.Balance(&chain, "miner"))
}
