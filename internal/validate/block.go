package validate

import (
	"math/big"
	"time"

	"github.com/tinychain-go/tinychain/internal/chainmodel"
	"github.com/tinychain-go/tinychain/internal/merkle"
)

// ActiveChain bundles the read-only chain queries validate_block needs.
// chainstate.State implements this.
type ActiveChain interface {
	// ActiveTipID returns the active chain's tip id, or "" if empty.
	ActiveTipID() string
	// FindInActiveChain returns the height of blockID in the active chain
	// and whether it's the tip.
	FindInActiveChain(blockID string) (height int, isTip bool, found bool)
	// FindInSideBranches returns the side-branch index (1-based slot
	// number, matching chain_idx semantics) of the branch whose tip is
	// blockID.
	FindInSideBranches(blockID string) (chainIdx int, found bool)
	// SideBranchCount returns the number of existing side branches.
	SideBranchCount() int
	// MedianTimePast returns the median timestamp of the last n active
	// chain blocks (0 if the chain has fewer than 1 block).
	MedianTimePast(n int) uint32
	// NextWorkRequired computes get_next_work_required for a block
	// extending prevBlockHash.
	NextWorkRequired(prevBlockHash string) (uint32, error)
	// IsActiveEmpty reports whether the active chain has no blocks yet.
	IsActiveEmpty() bool
}

// ValidateBlock implements validate_block (§4.D). It returns the target
// chain index: 0 for active, k>=1 for side-branch slot k-1 (a new slot is
// allocated when k exceeds the current count).
func ValidateBlock(b chainmodel.Block, chain ActiveChain, utxos UTXOLookup, mempool MempoolLookup, allowUTXOFromMempool bool, currentHeight uint32) (int, error) {
	if len(b.Txns) == 0 {
		return 0, newBlockErr("block has no transactions")
	}

	now := uint32(time.Now().Unix())
	if b.Timestamp > now && b.Timestamp-now > chainmodel.MaxFutureBlockTime {
		return 0, newBlockErr("timestamp too far in the future")
	}

	id, err := b.ID()
	if err != nil {
		return 0, newBlockErr("compute id: " + err.Error())
	}
	if !meetsTarget(id, b.Bits) {
		return 0, newBlockErr("proof of work not met")
	}

	if !b.Txns[0].IsCoinbase() {
		return 0, newBlockErr("first transaction is not coinbase")
	}

	for i, tx := range b.Txns {
		if err := validateTxnBasics(tx, i == 0); err != nil {
			return 0, err
		}
	}

	root, err := merkle.GetMerkleRootOfTxns(b.Txns)
	if err != nil {
		return 0, newBlockErr("compute merkle root: " + err.Error())
	}
	if root.Val != b.MerkleHash {
		return 0, newBlockErr("merkle hash mismatch")
	}

	if b.Timestamp <= chain.MedianTimePast(11) && !chain.IsActiveEmpty() {
		return 0, newBlockErr("timestamp not after median time past")
	}

	chainIdx, skipRemaining, err := locateParent(b, chain)
	if err != nil {
		return 0, err
	}
	if skipRemaining {
		return chainIdx, nil
	}

	if !chainmodel.IsGenesisParent(b.PrevBlockHash) {
		bits, err := chain.NextWorkRequired(b.PrevBlockHash)
		if err != nil {
			return 0, newBlockErr("compute next work required: " + err.Error())
		}
		if bits != b.Bits {
			return 0, newBlockErr("bits does not match next work required")
		}
	}

	for i, tx := range b.Txns {
		if i == 0 {
			continue
		}
		siblings := make([]chainmodel.Transaction, 0, len(b.Txns)-1)
		for j, other := range b.Txns {
			if j != i {
				siblings = append(siblings, other)
			}
		}
		opts := TxnOptions{
			AsCoinbase:           false,
			SiblingsInBlock:      siblings,
			AllowUTXOFromMempool: allowUTXOFromMempool,
			CurrentHeight:        currentHeight,
		}
		if err := ValidateTxn(tx, utxos, mempool, opts); err != nil {
			return 0, newBlockErr("contained transaction invalid: " + err.Error())
		}
	}

	return chainIdx, nil
}

// locateParent implements step 8 of validate_block. It returns the target
// chain index and whether the remaining checks (next-work-required and the
// contained-transaction checks) should be skipped because the block extends
// a side branch or creates a new fork. A genesis block is not skipped, but
// ValidateBlock does not apply the next-work-required check to it.
func locateParent(b chainmodel.Block, chain ActiveChain) (int, bool, error) {
	if chainmodel.IsGenesisParent(b.PrevBlockHash) && chain.IsActiveEmpty() {
		return 0, false, nil
	}

	if _, isTip, found := chain.FindInActiveChain(b.PrevBlockHash); found {
		if isTip {
			return 0, false, nil
		}
		return chain.SideBranchCount() + 1, true, nil
	}

	if chainIdx, found := chain.FindInSideBranches(b.PrevBlockHash); found {
		return chainIdx, true, nil
	}

	return 0, false, newOrphanBlockErr("unknown parent", b)
}

// meetsTarget reports whether blockID, read as a 256-bit big-endian
// unsigned integer, is strictly less than 2^(256-bits).
func meetsTarget(blockID string, bits uint32) bool {
	h, ok := new(big.Int).SetString(blockID, 16)
	if !ok {
		return false
	}
	target := new(big.Int).Lsh(big.NewInt(1), uint(256-bits))
	return h.Cmp(target) < 0
}
