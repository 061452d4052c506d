package utils

import "github.com/Luismorlan/ledger_in_go/model"

// TransactionDelta is the signed effect of tx on addr's balance.
func TransactionDelta(tx *model.Transaction, addr string) float64 {
	delta := 0.0
	if tx.Sender != "" && tx.Sender == addr {
		delta -= tx.Amount
	}
	if tx.Recipient == addr {
		delta += tx.Amount
	}
	return delta
}

// BlockDelta sums the debits and credits of addr within a single block, reward included.
func BlockDelta(block *model.Block, addr string) float64 {
	delta := 0.0
	for _, tx := range block.Transactions() {
		delta += TransactionDelta(&tx, addr)
	}
	return delta
}

// Balance scans the whole chain. The result can be negative since nothing stops
// a transfer from an empty address from being mined.
func Balance(blocks []model.Block, addr string) float64 {
	balance := 0.0
	for i := 0; i < len(blocks); i++ {
		balance += BlockDelta(&blocks[i], addr)
	}
	return balance
}

// BalanceHistory returns one entry per block, genesis included, holding the block timestamp and
// the net change of addr's balance in that block.
func BalanceHistory(blocks []model.Block, addr string) []model.BalanceChange {
	history := make([]model.BalanceChange, 0, len(blocks))
	for i := 0; i < len(blocks); i++ {
		history = append(history, model.BalanceChange{
			Timestamp: blocks[i].Timestamp,
			Delta:     BlockDelta(&blocks[i], addr),
		})
	}
	return history
}

// Apply a transfer to a balance map. The caller is responsible for validating it first.
func ApplyTransaction(balances map[string]float64, tx *model.Transaction) {
	if !tx.IsReward() {
		balances[tx.Sender] -= tx.Amount
	}
	balances[tx.Recipient] += tx.Amount
}
