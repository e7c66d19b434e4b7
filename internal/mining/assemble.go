package mining

import (
	"fmt"

	"github.com/tinychain-go/tinychain/internal/chainmodel"
	"github.com/tinychain-go/tinychain/internal/codec"
	"github.com/tinychain-go/tinychain/internal/mempool"
	"github.com/tinychain-go/tinychain/internal/merkle"
)

// UTXOContains reports whether an outpoint is in the confirmed UTXO set,
// the only external dependency select_from_mempool needs.
type UTXOContains func(op chainmodel.OutPoint) bool

// SelectFromMempool implements select_from_mempool (§4.H): a greedy,
// dependency-respecting walk of the mempool in insertion order. Candidates
// whose inputs reference mempool-only parents pull those parents in first;
// a candidate that cannot resolve a parent (neither confirmed nor pending)
// aborts just that sub-graph. Selection stops at the first candidate that
// would push the provisional block (header plus transactions selected so
// far) at or past MaxBlockSerializedSize. Parents already selected for a
// candidate whose sub-graph is aborted stay in the selection.
func SelectFromMempool(pool *mempool.Pool, utxoContains UTXOContains, header chainmodel.Block) []chainmodel.Transaction {
	selected := make([]chainmodel.Transaction, 0)
	selectedIDs := make(map[string]bool)
	attempted := make(map[string]bool)
	full := false

	fits := func(candidate chainmodel.Transaction) bool {
		trial := header
		trial.Txns = append(append([]chainmodel.Transaction{}, selected...), candidate)
		raw, err := codec.Serialize(trial)
		if err != nil {
			return false
		}
		return len(raw) < chainmodel.MaxBlockSerializedSize
	}

	var tryAdd func(txid string) bool
	tryAdd = func(txid string) bool {
		if selectedIDs[txid] {
			return true
		}
		if attempted[txid] {
			return false
		}
		attempted[txid] = true

		tx, ok := pool.Get(txid)
		if !ok {
			return false
		}

		for _, in := range tx.TxIns {
			if in.ToSpend == nil || utxoContains(*in.ToSpend) {
				continue
			}
			if !tryAdd(in.ToSpend.TxID) {
				return false
			}
		}

		if !fits(tx) {
			full = true
			return false
		}

		selected = append(selected, tx)
		selectedIDs[txid] = true
		return true
	}

	for _, txid := range pool.OrderedIDs() {
		if !tryAdd(txid) && full {
			break
		}
	}

	return selected
}

// AssembleAndSolveBlock implements assemble_and_solve_block (§4.H).
// prevBlockHash is the active tip's id (or the "None" genesis-parent
// sentinel for genesis), bits is get_next_work_required(prevBlockHash),
// payTo is the coinbase payout address, height is the new block's height
// (the active chain length), and now is the wall-clock timestamp to seal
// the block with. If explicitTxns is non-nil it is used verbatim instead of
// select_from_mempool. interrupt is checked cooperatively during mining;
// AssembleAndSolveBlock returns ok=false if mining was interrupted.
func AssembleAndSolveBlock(
	prevBlockHash string,
	bits uint32,
	height uint32,
	now uint32,
	payTo string,
	pool *mempool.Pool,
	utxoContains UTXOContains,
	resolveValue func(op chainmodel.OutPoint) (uint64, bool),
	explicitTxns []chainmodel.Transaction,
	interrupt <-chan struct{},
) (chainmodel.Block, bool, error) {
	block := chainmodel.Block{
		Version:       0,
		PrevBlockHash: prevBlockHash,
		Timestamp:     now,
		Bits:          bits,
	}

	var txns []chainmodel.Transaction
	if explicitTxns != nil {
		txns = explicitTxns
	} else {
		txns = SelectFromMempool(pool, utxoContains, block)
	}

	fees := CalculateFees(txns, resolveValue)
	coinbase := chainmodel.Transaction{
		TxIns:  []chainmodel.TxIn{{UnlockSig: heightBytes(height)}},
		TxOuts: []chainmodel.TxOut{{Value: Subsidy(height) + fees, ToAddress: payTo}},
	}
	block.Txns = append([]chainmodel.Transaction{coinbase}, txns...)

	root, err := merkle.GetMerkleRootOfTxns(block.Txns)
	if err != nil {
		return chainmodel.Block{}, false, fmt.Errorf("mining: merkle root: %w", err)
	}
	block.MerkleHash = root.Val

	raw, err := codec.Serialize(block)
	if err != nil {
		return chainmodel.Block{}, false, fmt.Errorf("mining: serialize: %w", err)
	}
	if len(raw) >= chainmodel.MaxBlockSerializedSize {
		return chainmodel.Block{}, false, fmt.Errorf("mining: assembled block exceeds max serialized size")
	}

	solved, ok, err := Mine(block, interrupt)
	if err != nil {
		return chainmodel.Block{}, false, err
	}
	if !ok {
		return chainmodel.Block{}, false, nil
	}
	return solved, true, nil
}

func heightBytes(height uint32) []byte {
	return []byte{byte(height >> 24), byte(height >> 16), byte(height >> 8), byte(height)}
}
