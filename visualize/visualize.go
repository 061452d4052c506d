package visualize

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/Luismorlan/ledger_in_go/model"
	"github.com/bradleyjkemp/memviz"
	"github.com/pkg/errors"
)

// We re-define the rendered model here: hashes are shortened and each block points to the
// next one, so that memviz draws the chain left to right.
type transaction struct {
	sender    string
	recipient string
	amount    float64
}

type block struct {
	index    int64
	hash     string
	prevHash string
	nonce    int64
	coinbase *transaction
	txs      []transaction
	next     *block
}

// The hashes and addresses are too long to render, instead we take only first 3 and last 3
// characters and replace the middle part with '...'. E.g. "abcdefghi" will be rendered as "abc...ghi"
func shortenString(s string) string {
	if len(s) < 9 {
		return s
	}
	return fmt.Sprintf("%s...%s", s[0:3], s[len(s)-3:])
}

func txToTx(tx *model.Transaction) transaction {
	return transaction{
		sender:    shortenString(tx.Sender),
		recipient: shortenString(tx.Recipient),
		amount:    tx.Amount,
	}
}

func blockToBlock(b *model.Block) *block {
	n := &block{
		index:    b.Index,
		hash:     shortenString(b.Hash),
		prevHash: shortenString(b.PrevHash),
		nonce:    b.Nonce,
	}
	if b.Coinbase != nil {
		cb := txToTx(b.Coinbase)
		n.coinbase = &cb
	}
	for i := 0; i < len(b.Txs); i++ {
		n.txs = append(n.txs, txToTx(&b.Txs[i]))
	}
	return n
}

// Given the whole chain, link the last d+1 blocks, ending at the tail. Returns nil for an
// empty chain.
func constructData(blocks []model.Block, d int) *block {
	if len(blocks) == 0 {
		return nil
	}
	if d < 0 {
		d = 0
	}
	start := len(blocks) - 1 - d
	if start < 0 {
		start = 0
	}
	root := blockToBlock(&blocks[start])
	cur := root
	for i := start + 1; i < len(blocks); i++ {
		cur.next = blockToBlock(&blocks[i])
		cur = cur.next
	}
	return root
}

// Render writes the Graphviz description of the tail of the chain to w.
// d: how many blocks before the tail to include.
func Render(w io.Writer, blocks []model.Block, d int) error {
	chain := constructData(blocks, d)
	if chain == nil {
		return errors.New("nothing to render")
	}
	memviz.Map(w, chain)
	return nil
}

// RenderToFile writes the Graphviz description to dir/chaindata-<id> and, when the dot binary is
// available, a PNG next to it. It returns the path of the best output produced.
func RenderToFile(blocks []model.Block, d int, dir string, id string) (string, error) {
	buf := &bytes.Buffer{}
	if err := Render(buf, blocks, d); err != nil {
		return "", err
	}

	fileName := filepath.Join(dir, "chaindata-"+id)
	if err := os.WriteFile(fileName, buf.Bytes(), 0644); err != nil {
		return "", errors.Wrap(err, "write chain data")
	}

	outputName := filepath.Join(dir, "rendered-chain-"+id+".png")
	if err := exec.Command("dot", "-Tpng", fileName, "-o", outputName).Run(); err != nil {
		// Graphviz is optional, the dot file is still useful.
		return fileName, nil
	}
	return outputName, nil
}
