package commands

import (
	"strconv"
	"strings"

	"github.com/Luismorlan/ledger_in_go/model"
	"github.com/pkg/errors"
)

type Operation int

const (
	DEFAULT = iota
	// Start mining to the given address, infinite loop until explicit stop.
	START
	// Stop a running mining loop, also interrupts a proof-of-work search in progress.
	STOP
	// Mine the pending transactions once.
	MINE
	// Register a wallet with an initial balance.
	CREATE_WALLET
	// Print the balance of an address.
	BALANCE
	// Submit a transfer between two addresses.
	TRANSFER
	// Check every block of the chain.
	VALIDATE
	// List the mined transactions of an address.
	HISTORY
	// List the per-block balance changes of an address.
	BALANCE_HISTORY
	// List all registered wallets.
	WALLETS
	// Show the blockchain.
	SHOW
)

// A command contains a operation and many arguments.
type Command struct {
	Op   Operation
	Args []string
}

func isAmount(s string) bool {
	v, err := strconv.ParseFloat(s, 64)
	return err == nil && model.IsValidAmount(v)
}

func (c Command) IsValid() bool {
	switch c.Op {
	case STOP, VALIDATE, WALLETS:
		return len(c.Args) == 0
	case START, MINE, BALANCE, HISTORY, BALANCE_HISTORY:
		return len(c.Args) == 1 && c.Args[0] != ""
	case CREATE_WALLET:
		if len(c.Args) == 0 {
			return true
		}
		return len(c.Args) == 1 && isAmount(c.Args[0])
	case TRANSFER:
		if len(c.Args) != 3 {
			return false
		}
		return c.Args[0] != "" && c.Args[1] != "" && isAmount(c.Args[2])
	case SHOW:
		if len(c.Args) != 1 {
			return false
		}
		// depth must be a number.
		if _, err := strconv.Atoi(c.Args[0]); err != nil {
			return false
		}
		return true
	default:
		return false
	}
}

// From string, create
func CreateCommand(s string) (Command, error) {
	// split command by whitespace.
	ss := strings.Fields(s)
	if len(ss) == 0 {
		return Command{}, errors.New("command is empty")
	}
	cmd := Command{}
	switch ss[0] {
	case "start":
		cmd.Op = START
	case "stop":
		cmd.Op = STOP
	case "mine":
		cmd.Op = MINE
	case "create_wallet":
		cmd.Op = CREATE_WALLET
	case "balance":
		cmd.Op = BALANCE
	case "transfer":
		cmd.Op = TRANSFER
	case "validate":
		cmd.Op = VALIDATE
	case "history":
		cmd.Op = HISTORY
	case "balance_history":
		cmd.Op = BALANCE_HISTORY
	case "wallets":
		cmd.Op = WALLETS
	case "show":
		cmd.Op = SHOW
	}
	cmd.Args = ss[1:]
	if !cmd.IsValid() {
		return Command{}, errors.New("invalid command")
	}
	return cmd, nil
}

// Create a brand new command with default operation.
func NewDefaultCommand() Command {
	return Command{
		Op: DEFAULT,
	}
}

func (c Command) IsDefault() bool {
	return c.Op == DEFAULT
}
