package model

import (
	"math"

	"github.com/pkg/errors"
)

var ErrInvalidTransaction = errors.New("invalid transaction")

type Transaction struct {
	// Address being debited. Empty for a mining reward, which has no source.
	Sender string
	// Address being credited, always present.
	Recipient string
	// How much value to transfer, never negative.
	Amount float64
}

// NewTransaction creates a transfer intent. Recipient must be set and amount must be non-negative.
func NewTransaction(sender string, recipient string, amount float64) (Transaction, error) {
	if recipient == "" {
		return Transaction{}, errors.Wrap(ErrInvalidTransaction, "recipient is missing")
	}
	if !IsValidAmount(amount) {
		return Transaction{}, errors.Wrapf(ErrInvalidTransaction, "amount %v", amount)
	}
	return Transaction{
		Sender:    sender,
		Recipient: recipient,
		Amount:    amount,
	}, nil
}

// IsValidAmount reports whether amount can be held or transferred: finite and non-negative.
func IsValidAmount(amount float64) bool {
	return amount >= 0 && !math.IsNaN(amount) && !math.IsInf(amount, 0)
}

// NewRewardTransaction pays the miner. It has no sender.
func NewRewardTransaction(miner string, amount float64) Transaction {
	return Transaction{
		Recipient: miner,
		Amount:    amount,
	}
}

// IsReward reports whether the transaction is a mining payout.
func (t Transaction) IsReward() bool {
	return t.Sender == ""
}

// Involves reports whether addr is the sender or the recipient.
func (t Transaction) Involves(addr string) bool {
	return (t.Sender != "" && t.Sender == addr) || t.Recipient == addr
}

type TransactionPool struct {
	// Txs contains all pending transactions that haven't been mined into the blockchain,
	// in submission order.
	Txs []Transaction
}

// NewTransactionPool creates a new transaction pool with no transaction at all.
func NewTransactionPool() TransactionPool {
	return TransactionPool{
		Txs: []Transaction{},
	}
}
