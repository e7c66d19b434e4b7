// Package mining implements proof-of-work difficulty retargeting, block
// subsidy/fee accounting, mempool-based block assembly, and the
// cooperatively-interruptible nonce search.
package mining

import (
	"fmt"
	"math/big"

	"github.com/tinychain-go/tinychain/internal/chainmodel"
)

// GetNextWorkRequired implements get_next_work_required (§4.F). active is
// the active chain in height order; prevBlockHash identifies the block the
// candidate extends.
func GetNextWorkRequired(active []chainmodel.Block, prevBlockHash string) (uint32, error) {
	if chainmodel.IsGenesisParent(prevBlockHash) {
		return chainmodel.InitialDifficultyBits, nil
	}

	prevHeight := -1
	for i, b := range active {
		id, err := b.ID()
		if err != nil {
			return 0, err
		}
		if id == prevBlockHash {
			prevHeight = i
			break
		}
	}
	if prevHeight == -1 {
		return 0, fmt.Errorf("mining: prev block %s not found in active chain", prevBlockHash)
	}

	prevBlock := active[prevHeight]
	if (prevHeight+1)%chainmodel.PeriodInBlocks != 0 {
		return prevBlock.Bits, nil
	}

	windowStart := prevHeight - (chainmodel.PeriodInBlocks - 1)
	if windowStart < 0 {
		windowStart = 0
	}
	actual := int64(prevBlock.Timestamp) - int64(active[windowStart].Timestamp)

	switch {
	case actual < chainmodel.DifficultyPeriodTarget:
		return prevBlock.Bits + 1, nil
	case actual > chainmodel.DifficultyPeriodTarget:
		return prevBlock.Bits - 1, nil
	default:
		return prevBlock.Bits, nil
	}
}

// MeetsTarget reports whether blockID, read as a 256-bit big-endian
// unsigned integer, is strictly less than 2^(256-bits).
func MeetsTarget(blockID string, bits uint32) bool {
	h, ok := new(big.Int).SetString(blockID, 16)
	if !ok {
		return false
	}
	target := new(big.Int).Lsh(big.NewInt(1), uint(256-bits))
	return h.Cmp(target) < 0
}

// Subsidy returns the block reward at height, halving every
// HalveSubsidyAfterBlocks blocks and reaching zero after 64 halvings.
func Subsidy(height uint32) uint64 {
	halvings := height / chainmodel.HalveSubsidyAfterBlocks
	if halvings >= 64 {
		return 0
	}
	return (50 * chainmodel.BelushisPerCoin) >> halvings
}
