package utils

import (
	"math"

	"github.com/Luismorlan/ledger_in_go/model"
	"google.golang.org/protobuf/encoding/protowire"
)

// Field numbers of the transaction encoding.
const (
	txSenderField    protowire.Number = 1
	txRecipientField protowire.Number = 2
	txAmountField    protowire.Number = 3
)

// GetTransactionBytes converts a transaction to a stable, length-delimited byte slice.
// Every field is always written so that an empty sender still occupies its slot.
func GetTransactionBytes(t *model.Transaction) []byte {
	var data []byte
	data = protowire.AppendTag(data, txSenderField, protowire.BytesType)
	data = protowire.AppendString(data, t.Sender)
	data = protowire.AppendTag(data, txRecipientField, protowire.BytesType)
	data = protowire.AppendString(data, t.Recipient)
	data = protowire.AppendTag(data, txAmountField, protowire.Fixed64Type)
	data = protowire.AppendFixed64(data, math.Float64bits(t.Amount))
	return data
}

// CreateRewardTx creates the miner's payout for a block.
func CreateRewardTx(reward float64, miner string) *model.Transaction {
	tx := model.NewRewardTransaction(miner, reward)
	return &tx
}

// TransactionHistory returns every mined transaction in chain order where addr is the sender
// or the recipient. Rewards are included.
func TransactionHistory(blocks []model.Block, addr string) []model.Transaction {
	history := []model.Transaction{}
	for i := 0; i < len(blocks); i++ {
		for _, tx := range blocks[i].Transactions() {
			if tx.Involves(addr) {
				history = append(history, tx)
			}
		}
	}
	return history
}
