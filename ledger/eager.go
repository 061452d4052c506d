package ledger

import (
	"github.com/Luismorlan/ledger_in_go/config"
	"github.com/Luismorlan/ledger_in_go/model"
	"github.com/Luismorlan/ledger_in_go/utils"
	"github.com/jinzhu/copier"
	"github.com/pkg/errors"
)

type EagerLedger struct {
	// Current balance of every registered address.
	wallets map[string]float64
	// newAddress generates wallet addresses, replaced in tests.
	newAddress func() string
}

func NewEagerLedger() *EagerLedger {
	return &EagerLedger{
		wallets:    make(map[string]float64),
		newAddress: utils.NewAddress,
	}
}

func (l *EagerLedger) Name() string { return string(config.LedgerEager) }

// CreateWallet registers a fresh address holding initialBalance.
func (l *EagerLedger) CreateWallet(initialBalance float64) (string, error) {
	if !model.IsValidAmount(initialBalance) {
		return "", errors.Wrapf(model.ErrInvalidTransaction, "initial balance %v", initialBalance)
	}
	addr := l.newAddress()
	for _, exist := l.wallets[addr]; exist; _, exist = l.wallets[addr] {
		addr = l.newAddress()
	}
	l.wallets[addr] = initialBalance
	return addr, nil
}

func (l *EagerLedger) Admit(tx model.Transaction) error {
	if tx.IsReward() {
		return errors.Wrap(ErrUnknownAddress, "sender is missing")
	}
	senderBalance, ok := l.wallets[tx.Sender]
	if !ok {
		return errors.Wrapf(ErrUnknownAddress, "sender %s", tx.Sender)
	}
	if _, ok := l.wallets[tx.Recipient]; !ok {
		return errors.Wrapf(ErrUnknownAddress, "recipient %s", tx.Recipient)
	}
	if senderBalance < tx.Amount {
		return errors.Wrapf(ErrInsufficientFunds, "%s holds %v, needs %v", tx.Sender, senderBalance, tx.Amount)
	}
	utils.ApplyTransaction(l.wallets, &tx)
	return nil
}

// Commit credits the block reward. Transfers were already applied on admission.
// A miner without a wallet gets one.
func (l *EagerLedger) Commit(block *model.Block) {
	if block.Coinbase == nil {
		return
	}
	utils.ApplyTransaction(l.wallets, block.Coinbase)
}

// Balance returns the stored balance, 0 for an unknown address. The chain is not consulted.
func (l *EagerLedger) Balance(_ *model.Blockchain, addr string) float64 {
	return l.wallets[addr]
}

func (l *EagerLedger) Wallets() map[string]float64 {
	snapshot := make(map[string]float64, len(l.wallets))
	copier.CopyWithOption(&snapshot, &l.wallets, copier.Option{DeepCopy: true})
	return snapshot
}
