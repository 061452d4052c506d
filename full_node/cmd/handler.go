package main

import (
	"context"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Luismorlan/ledger_in_go/commands"
	"github.com/Luismorlan/ledger_in_go/full_node"
	"github.com/Luismorlan/ledger_in_go/miner"
	"github.com/Luismorlan/ledger_in_go/visualize"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

type handler struct {
	node   *full_node.FullNode
	out    io.Writer
	logger zerolog.Logger
	// Pause between two blocks of the mining loop.
	interval time.Duration
	// Where show writes its graphviz output.
	renderDir string

	// A separate control is needed to make sure cmd is non-blocking when we just want to stop
	// the mining loop.
	ctl chan commands.Command
	// Closed on shutdown. A closed channel is always ready, so it cancels every one-shot mine.
	shutdown     chan commands.Command
	shutdownOnce sync.Once
	mining       atomic.Bool
	wg     sync.WaitGroup
	outMu  sync.Mutex
}

func newHandler(node *full_node.FullNode, out io.Writer, logger zerolog.Logger, interval time.Duration, renderDir string) *handler {
	return &handler{
		node:      node,
		out:       out,
		logger:    logger,
		interval:  interval,
		renderDir: renderDir,
		ctl:       make(chan commands.Command, 1),
		shutdown:  make(chan commands.Command),
	}
}

func (h *handler) printf(format string, a ...interface{}) {
	h.outMu.Lock()
	defer h.outMu.Unlock()
	fmt.Fprintf(h.out, format, a...)
}

// run handles commands until ctx is done, then stops mining and waits for it.
func (h *handler) run(ctx context.Context, cmd <-chan commands.Command) error {
	for {
		select {
		case <-ctx.Done():
			h.stopMining(commands.Command{Op: commands.STOP})
			h.shutdownOnce.Do(func() { close(h.shutdown) })
			h.wg.Wait()
			return nil
		case c := <-cmd:
			h.handle(c)
		}
	}
}

func (h *handler) handle(c commands.Command) {
	switch c.Op {
	case commands.START:
		if !h.mining.CompareAndSwap(false, true) {
			h.printf("mining has already been started\n")
			return
		}
		// Drop a stop that arrived after the previous loop exited.
		select {
		case <-h.ctl:
		default:
		}
		h.wg.Add(1)
		go h.mineLoop(c.Args[0])
	case commands.STOP:
		if !h.mining.Load() {
			h.printf("no running mining task to stop\n")
			return
		}
		h.stopMining(c)
	case commands.MINE:
		h.wg.Add(1)
		go func() {
			defer h.wg.Done()
			block, _, err := h.node.MinePendingTransactionsWithControl(c.Args[0], h.shutdown)
			if errors.Is(err, miner.ErrMiningCancelled) {
				h.printf("mining stopped\n")
				return
			}
			if err != nil {
				h.printf("%v\n", err)
				return
			}
			h.printf("mined block %d %s\n", block.Index, block.Hash)
		}()
	case commands.CREATE_WALLET:
		amount := 0.0
		if len(c.Args) == 1 {
			amount, _ = strconv.ParseFloat(c.Args[0], 64)
		}
		addr, err := h.node.CreateWallet(amount)
		if err != nil {
			h.printf("%v\n", err)
			return
		}
		h.printf("%s\n", addr)
	case commands.WALLETS:
		wallets, err := h.node.GetWallets()
		if err != nil {
			h.printf("%v\n", err)
			return
		}
		for _, addr := range slices.Sorted(maps.Keys(wallets)) {
			h.printf("%s %v\n", addr, wallets[addr])
		}
	case commands.BALANCE:
		h.printf("%v\n", h.node.GetBalance(c.Args[0]))
	case commands.TRANSFER:
		amount, _ := strconv.ParseFloat(c.Args[2], 64)
		if err := h.node.SubmitTransaction(c.Args[0], c.Args[1], amount); err != nil {
			h.printf("%v\n", err)
			return
		}
		h.printf("transaction pending\n")
	case commands.VALIDATE:
		if err := h.node.ValidateChain(); err != nil {
			h.printf("chain is invalid: %v\n", err)
			return
		}
		h.printf("chain is valid, height %d\n", h.node.GetHeight())
	case commands.HISTORY:
		for _, tx := range h.node.GetTransactionHistory(c.Args[0]) {
			sender := tx.Sender
			if tx.IsReward() {
				sender = "reward"
			}
			h.printf("%s -> %s %v\n", sender, tx.Recipient, tx.Amount)
		}
	case commands.BALANCE_HISTORY:
		for _, change := range h.node.GetBalanceHistory(c.Args[0]) {
			h.printf("%s %+v\n", time.Unix(0, change.Timestamp).Format(time.RFC3339Nano), change.Delta)
		}
	case commands.SHOW:
		d, _ := strconv.Atoi(c.Args[0])
		path, err := visualize.RenderToFile(h.node.GetChain(), d, h.renderDir, h.node.ID())
		if err != nil {
			h.printf("%v\n", err)
			return
		}
		h.printf("chain written to %s\n", path)
	default:
		h.logger.Warn().Interface("command", c).Msg("Unrecognized command")
	}
}

// stopMining relays c to the mining loop. At most one stop is pending at a time.
func (h *handler) stopMining(c commands.Command) {
	select {
	case h.ctl <- c:
	default:
	}
}

// mineLoop mines blocks paying addr until a command arrives on ctl.
func (h *handler) mineLoop(addr string) {
	defer h.wg.Done()
	defer h.mining.Store(false)
	for {
		block, _, err := h.node.MinePendingTransactionsWithControl(addr, h.ctl)
		if errors.Is(err, miner.ErrMiningCancelled) {
			h.printf("mining stopped\n")
			return
		}
		if err != nil {
			h.printf("%v\n", err)
			return
		}
		h.printf("mined block %d %s\n", block.Index, block.Hash)

		select {
		case <-h.ctl:
			h.printf("mining stopped\n")
			return
		case <-time.After(h.interval):
		}
	}
}
