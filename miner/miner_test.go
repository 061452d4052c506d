package miner

import (
	"testing"

	"github.com/Luismorlan/ledger_in_go/commands"
	"github.com/Luismorlan/ledger_in_go/config"
	"github.com/Luismorlan/ledger_in_go/model"
	"github.com/Luismorlan/ledger_in_go/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestBlock() *model.Block {
	return utils.CreateNewBlock(1, 1700000000, []model.Transaction{
		{Sender: "alice", Recipient: "bob", Amount: 30},
	}, "prev")
}

func TestNew(t *testing.T) {
	c := config.Default()
	m, err := New(c)
	require.NoError(t, err)
	assert.Equal(t, "pow", m.Name())

	c.MINING_POLICY = config.MiningNoop
	m, err = New(c)
	require.NoError(t, err)
	assert.Equal(t, "noop", m.Name())

	c.MINING_POLICY = "stake"
	_, err = New(c)
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestNoopMiner(t *testing.T) {
	m := NewNoopMiner()
	b := createTestBlock()
	b.Hash = ""
	c, err := m.Seal(b, nil)
	require.NoError(t, err)
	assert.True(t, c.IsDefault())
	assert.Equal(t, int64(0), b.Nonce)
	assert.Equal(t, utils.CalculateHash(b), b.Hash)
	assert.Equal(t, 1.0, m.Reward(10))
	assert.NoError(t, m.Verify(b))
}

func TestPowMiner(t *testing.T) {
	m := NewPowMiner(2, 100)
	b := createTestBlock()
	_, err := m.Seal(b, make(chan commands.Command))
	require.NoError(t, err)
	assert.Equal(t, "00", b.Hash[:2])
	assert.Equal(t, utils.CalculateHash(b), b.Hash)
	assert.NoError(t, m.Verify(b))
	assert.Equal(t, 103.0, m.Reward(3))
}

func TestPowMinerVerifyRejectsWeakHash(t *testing.T) {
	m := NewPowMiner(3, 0)
	b := createTestBlock()
	b.Hash = "00f" + b.Hash[3:]
	assert.ErrorIs(t, m.Verify(b), ErrInsufficientWork)
}

func TestPowMinerCancel(t *testing.T) {
	m := NewPowMiner(config.MaxDifficulty, 0)
	ctl := make(chan commands.Command, 1)
	ctl <- commands.Command{Op: commands.STOP}
	c, err := m.Seal(createTestBlock(), ctl)
	assert.ErrorIs(t, err, ErrMiningCancelled)
	assert.Equal(t, commands.Operation(commands.STOP), c.Op)
}
