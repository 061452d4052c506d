package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Luismorlan/ledger_in_go/commands"
	"github.com/Luismorlan/ledger_in_go/config"
	"github.com/Luismorlan/ledger_in_go/full_node"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func executeCommand(root *cobra.Command, args ...string) (output string, err error) {
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)

	_, err = root.ExecuteC()
	return buf.String(), err
}

// viperFor returns the viper instance of a root command after parsing args.
func viperFor(t *testing.T, args ...string) *viper.Viper {
	t.Helper()
	cmd := newRootCmd()
	require.NoError(t, cmd.ParseFlags(args))
	v := viper.New()
	require.NoError(t, v.BindPFlags(cmd.Flags()))
	v.SetEnvPrefix("ledger")
	v.AutomaticEnv()
	return v
}

func TestRootCmdHelp(t *testing.T) {
	output, err := executeCommand(newRootCmd(), "--help")
	assert.NoError(t, err)
	assert.Contains(t, output, "keeps a blockchain of transfers in memory")
	assert.Contains(t, output, "--ledger_policy")
}

func TestRootCmdRejectsBadFlags(t *testing.T) {
	_, err := executeCommand(newRootCmd(), "--log_level", "loud")
	assert.ErrorContains(t, err, "invalid log level")

	_, err = executeCommand(newRootCmd(), "--log_format", "xml")
	assert.ErrorContains(t, err, "invalid log format")

	_, err = executeCommand(newRootCmd(), "--difficulty", "65")
	assert.ErrorIs(t, err, config.ErrInvalidConfig)

	_, err = executeCommand(newRootCmd(), "--mining_policy", "proofofstake")
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestResolveConfigDefaults(t *testing.T) {
	c, err := resolveConfig(viperFor(t))
	require.NoError(t, err)
	assert.Equal(t, config.Default(), c)
}

func TestResolveConfigOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("DIFFICULTY: 2\nMINING_REWARD: 7\nLEDGER_POLICY: derived\n"), 0644))
	t.Setenv("LEDGER_MINING_POLICY", "NOOP")

	c, err := resolveConfig(viperFor(t, "--config_path", path, "--difficulty", "3"))
	require.NoError(t, err)
	assert.Equal(t, 3, c.DIFFICULTY)
	assert.Equal(t, 7.0, c.MINING_REWARD)
	assert.Equal(t, config.LedgerDerived, c.LEDGER_POLICY)
	assert.Equal(t, config.MiningNoop, c.MINING_POLICY)
}

func TestResolveConfigMissingFile(t *testing.T) {
	_, err := resolveConfig(viperFor(t, "--config_path", filepath.Join(t.TempDir(), "missing.yaml")))
	assert.Error(t, err)
}

func TestShippedConfigParses(t *testing.T) {
	c, err := config.ParseAppConfig("config.yaml")
	require.NoError(t, err)
	assert.Equal(t, config.Default(), c)
}

func TestNewLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, err := newLogger(buf, "warn", "json", true)
	require.NoError(t, err)
	logger.Info().Msg("hidden")
	logger.Warn().Msg("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"message":"shown"`)

	_, err = newLogger(buf, "", "json", true)
	assert.Error(t, err)
}

func TestReadCommands(t *testing.T) {
	in := strings.NewReader("balance abc\n\nbogus\ntransfer a b 1\n")
	out := &bytes.Buffer{}
	cmd := make(chan commands.Command, 4)

	require.NoError(t, readCommands(context.Background(), in, out, cmd))
	close(cmd)
	var got []commands.Command
	for c := range cmd {
		got = append(got, c)
	}
	assert.Equal(t, []commands.Command{
		{Op: commands.BALANCE, Args: []string{"abc"}},
		{Op: commands.TRANSFER, Args: []string{"a", "b", "1"}},
	}, got)
	assert.Contains(t, out.String(), "bogus: invalid command")
}

// syncBuffer is written by the mining loop while the test reads it.
type syncBuffer struct {
	buf bytes.Buffer
	m   sync.Mutex
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.m.Lock()
	defer b.m.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.m.Lock()
	defer b.m.Unlock()
	return b.buf.String()
}

func createTestHandler(t *testing.T, ledgerPolicy config.LedgerPolicy) (*handler, *syncBuffer) {
	t.Helper()
	c := config.Default()
	c.DIFFICULTY = 1
	c.LEDGER_POLICY = ledgerPolicy
	node, err := full_node.NewFullNode(c)
	require.NoError(t, err)
	out := &syncBuffer{}
	return newHandler(node, out, zerolog.Nop(), time.Millisecond, t.TempDir()), out
}

func mustCommand(t *testing.T, s string) commands.Command {
	t.Helper()
	c, err := commands.CreateCommand(s)
	require.NoError(t, err)
	return c
}

func TestHandlerTransferAndMine(t *testing.T) {
	h, out := createTestHandler(t, config.LedgerEager)
	a, err := h.node.CreateWallet(50)
	require.NoError(t, err)
	b, err := h.node.CreateWallet(0)
	require.NoError(t, err)

	h.handle(mustCommand(t, "transfer "+a+" "+b+" 20"))
	assert.Contains(t, out.String(), "transaction pending")
	h.handle(mustCommand(t, "transfer "+a+" "+b+" 200"))
	assert.Contains(t, out.String(), "insufficient funds")

	h.handle(mustCommand(t, "mine "+a))
	h.wg.Wait()
	assert.Contains(t, out.String(), "mined block 1")

	h.handle(mustCommand(t, "balance "+b))
	assert.Contains(t, out.String(), "20\n")
	h.handle(mustCommand(t, "history "+b))
	assert.Contains(t, out.String(), a+" -> "+b+" 20")
	h.handle(mustCommand(t, "history "+a))
	assert.Contains(t, out.String(), "reward -> "+a+" 101")
	h.handle(mustCommand(t, "validate"))
	assert.Contains(t, out.String(), "chain is valid, height 1")
	h.handle(mustCommand(t, "wallets"))
	assert.Contains(t, out.String(), b+" 20")
}

func TestHandlerCreateWalletDerived(t *testing.T) {
	h, out := createTestHandler(t, config.LedgerDerived)
	h.handle(mustCommand(t, "create_wallet 5"))
	assert.Contains(t, out.String(), "not supported")
}

func TestHandlerStartStop(t *testing.T) {
	h, out := createTestHandler(t, config.LedgerDerived)

	h.handle(mustCommand(t, "stop"))
	assert.Contains(t, out.String(), "no running mining task")

	h.handle(mustCommand(t, "start miner"))
	h.handle(mustCommand(t, "start miner"))
	assert.Contains(t, out.String(), "mining has already been started")
	assert.Eventually(t, func() bool { return h.node.GetHeight() >= 2 }, 5*time.Second, time.Millisecond)

	h.handle(mustCommand(t, "stop"))
	h.wg.Wait()
	assert.False(t, h.mining.Load())
	assert.Contains(t, out.String(), "mining stopped")
	assert.NoError(t, h.node.ValidateChain())
	assert.Greater(t, h.node.GetBalance("miner"), 0.0)
}

func TestHandlerRunStopsWithContext(t *testing.T) {
	h, _ := createTestHandler(t, config.LedgerDerived)
	cmd := make(chan commands.Command)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.run(ctx, cmd) }()

	cmd <- mustCommand(t, "start miner")
	assert.Eventually(t, func() bool { return h.node.GetHeight() >= 1 }, 5*time.Second, time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("handler did not stop")
	}
	assert.False(t, h.mining.Load())
}

func TestHandlerRunCancelsOneShotMine(t *testing.T) {
	c := config.Default()
	// Unreachable, the search only ends when cancelled.
	c.DIFFICULTY = config.MaxDifficulty
	node, err := full_node.NewFullNode(c)
	require.NoError(t, err)
	out := &syncBuffer{}
	h := newHandler(node, out, zerolog.Nop(), time.Millisecond, t.TempDir())

	h.handle(mustCommand(t, "mine miner"))
	h.handle(mustCommand(t, "mine miner"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	done := make(chan error, 1)
	go func() { done <- h.run(ctx, nil) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("handler did not stop")
	}
	assert.Equal(t, 2, strings.Count(out.String(), "mining stopped"))
	assert.Equal(t, int64(0), node.GetHeight())
}

func TestHandlerShow(t *testing.T) {
	h, out := createTestHandler(t, config.LedgerDerived)
	h.handle(mustCommand(t, "show 3"))
	assert.Contains(t, out.String(), "chain written to "+h.renderDir)
}
