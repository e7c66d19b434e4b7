package chainstate

import (
	"github.com/tinychain-go/tinychain/internal/chainmodel"
	"github.com/tinychain-go/tinychain/internal/validate"
)

// ConnectBlock implements connect_block (§4.G): validate, select or
// allocate the target chain, append, and — for an active-chain append —
// update mempool and UTXO. doingReorg suppresses the recursive
// reorg_if_necessary call made during ordinary (non-reorg) connection.
func (s *State) ConnectBlock(block chainmodel.Block, doingReorg bool) (int, error) {
	s.mu.Lock()
	currentHeight := uint32(len(s.active))
	s.mu.Unlock()

	chainIdx, err := validate.ValidateBlock(block, s, s.utxo, s.mempool, true, currentHeight)
	if err != nil {
		if orphan, ok := validate.IsOrphanBlock(err); ok {
			id, idErr := orphan.ID()
			if idErr == nil {
				s.orphanBlocks.Add(id, orphan)
			}
		}
		return 0, err
	}
	defer s.RefreshMetrics()

	s.mu.Lock()
	if chainIdx != 0 && len(s.sideBranches) < chainIdx {
		forkHeight, _, _ := s.findInActiveChainLocked(block.PrevBlockHash)
		s.sideBranches = append(s.sideBranches, sideBranch{forkHeight: forkHeight + 1})
	}

	height := uint32(len(s.active))
	if chainIdx == 0 {
		s.active = append(s.active, block)
	} else {
		branch := &s.sideBranches[chainIdx-1]
		branch.blocks = append(branch.blocks, block)
	}
	s.mu.Unlock()

	if chainIdx == 0 {
		s.applyActiveAppend(block, height)
	}

	reorged := false
	if !doingReorg {
		reorged = s.ReorgIfNecessary()
	}

	if chainIdx == 0 || reorged {
		s.mineInterrupt.Set()
	}

	return chainIdx, nil
}

// applyActiveAppend removes the block's transactions from the mempool and
// updates the UTXO set: spent outpoints are removed, new outputs are added
// at height.
func (s *State) applyActiveAppend(block chainmodel.Block, height uint32) {
	for i, tx := range block.Txns {
		txid, err := tx.ID()
		if err != nil {
			continue
		}
		s.mempool.Remove(txid)

		for _, in := range tx.TxIns {
			if in.ToSpend != nil {
				s.utxo.Remove(in.ToSpend.TxID, in.ToSpend.TxOutIdx)
			}
		}
		for idx, out := range tx.TxOuts {
			s.utxo.Add(chainmodel.UnspentTxOut{
				Value:      out.Value,
				ToAddress:  out.ToAddress,
				TxID:       txid,
				TxOutIdx:   uint32(idx),
				IsCoinbase: i == 0,
				Height:     height,
			})
		}
	}
}
