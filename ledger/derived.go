package ledger

import (
	"github.com/Luismorlan/ledger_in_go/config"
	"github.com/Luismorlan/ledger_in_go/model"
	"github.com/Luismorlan/ledger_in_go/utils"
)

// DerivedLedger keeps no state. Submitted transfers are not checked against any balance and
// show up, possibly driving balances negative, once they are mined.
type DerivedLedger struct{}

func NewDerivedLedger() *DerivedLedger { return &DerivedLedger{} }

func (l *DerivedLedger) Name() string { return string(config.LedgerDerived) }

func (l *DerivedLedger) Admit(_ model.Transaction) error { return nil }

func (l *DerivedLedger) Commit(_ *model.Block) {}

func (l *DerivedLedger) Balance(chain *model.Blockchain, addr string) float64 {
	return utils.Balance(chain.Blocks, addr)
}
