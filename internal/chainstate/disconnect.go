package chainstate

import (
	"fmt"

	"github.com/tinychain-go/tinychain/internal/chainmodel"
)

// DisconnectBlock implements disconnect_block (§4.G): removes the active
// chain's tip, reinserts its non-coinbase transactions into the mempool, restores the
// UTXOs their non-coinbase inputs spent, and removes the outputs the block
// itself created. Per the source's find_txout_for_txin behavior (preserved
// deliberately — see design notes), the search for a spent output's origin
// is scoped to the chain being disconnected from, not side branches.
func (s *State) DisconnectBlock() (chainmodel.Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.active) == 0 {
		return chainmodel.Block{}, fmt.Errorf("chainstate: cannot disconnect from empty active chain")
	}

	tip := s.active[len(s.active)-1]
	remaining := s.active[:len(s.active)-1]

	for i, tx := range tip.Txns {
		txid, err := tx.ID()
		if err != nil {
			return chainmodel.Block{}, err
		}

		if i != 0 {
			s.mempool.Add(txid, tx)
		}

		for _, in := range tx.TxIns {
			if in.ToSpend == nil {
				continue
			}
			restored, found := findTxOutForTxIn(remaining, *in.ToSpend)
			if !found {
				continue
			}
			s.utxo.Add(restored)
		}

		for idx := range tx.TxOuts {
			s.utxo.Remove(txid, uint32(idx))
		}
	}

	s.active = remaining
	return tip, nil
}

// findTxOutForTxIn locates the origin output referenced by outpoint within
// chain, reconstructing its UnspentTxOut (including is_coinbase and
// height, the height being the origin block's index within chain).
func findTxOutForTxIn(chain []chainmodel.Block, outpoint chainmodel.OutPoint) (chainmodel.UnspentTxOut, bool) {
	for height, block := range chain {
		for txIdx, tx := range block.Txns {
			txid, err := tx.ID()
			if err != nil || txid != outpoint.TxID {
				continue
			}
			if int(outpoint.TxOutIdx) >= len(tx.TxOuts) {
				continue
			}
			out := tx.TxOuts[outpoint.TxOutIdx]
			return chainmodel.UnspentTxOut{
				Value:      out.Value,
				ToAddress:  out.ToAddress,
				TxID:       txid,
				TxOutIdx:   outpoint.TxOutIdx,
				IsCoinbase: txIdx == 0,
				Height:     uint32(height),
			}, true
		}
	}
	return chainmodel.UnspentTxOut{}, false
}
