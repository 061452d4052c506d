// Package ledger holds the balance accounting policies.
//
// The eager policy keeps an authoritative wallet map and updates it the moment a transfer is
// submitted, so balances include pending transfers. The derived policy keeps nothing and
// recomputes balances from the mined chain.
//
// Ledgers are not safe for concurrent use; the node serializes every call.
package ledger

import (
	"github.com/Luismorlan/ledger_in_go/config"
	"github.com/Luismorlan/ledger_in_go/model"
	"github.com/pkg/errors"
)

var (
	ErrUnknownAddress    = errors.New("unknown address")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrUnsupported       = errors.New("operation not supported by ledger policy")
)

type Ledger interface {
	// Admit validates a submitted transfer and applies whatever the policy applies at
	// submission. A rejected transfer leaves the ledger untouched.
	Admit(tx model.Transaction) error
	// Commit is called once a block has been appended to the chain.
	Commit(block *model.Block)
	// Balance of addr given the current chain.
	Balance(chain *model.Blockchain, addr string) float64
	Name() string
}

// WalletCreator is implemented by policies that register addresses explicitly.
type WalletCreator interface {
	CreateWallet(initialBalance float64) (string, error)
	// Wallets returns a copy of every registered balance.
	Wallets() map[string]float64
}

// New picks the ledger named by the config.
func New(c config.AppConfig) (Ledger, error) {
	switch c.LEDGER_POLICY {
	case config.LedgerEager:
		return NewEagerLedger(), nil
	case config.LedgerDerived:
		return NewDerivedLedger(), nil
	default:
		return nil, errors.Wrapf(config.ErrInvalidConfig, "unknown LEDGER_POLICY %q", c.LEDGER_POLICY)
	}
}
