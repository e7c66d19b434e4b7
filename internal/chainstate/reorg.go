package chainstate

import (
	"github.com/tinychain-go/tinychain/internal/chainmodel"
	"github.com/tinychain-go/tinychain/internal/metrics"
)

// ReorgIfNecessary implements reorg_if_necessary (§4.G): for each side
// branch whose tip height strictly exceeds the active chain's height,
// attempt promotion. Returns whether any reorg succeeded.
func (s *State) ReorgIfNecessary() bool {
	s.mu.RLock()
	activeHeight := len(s.active)
	branches := make([]sideBranch, len(s.sideBranches))
	copy(branches, s.sideBranches)
	s.mu.RUnlock()

	reorged := false
	for idx, branch := range branches {
		branchTipHeight := branch.forkHeight + len(branch.blocks)
		if branchTipHeight > activeHeight {
			if s.tryReorg(idx+1, branch.forkHeight) {
				reorged = true
				metrics.ReorgsTotal.Inc()
			}
		}
	}
	return reorged
}

// tryReorg implements try_reorg (§4.G). branchIdx is the 1-based
// side-branch slot; forkHeight is the number of active-chain blocks kept
// (the branch replaces active[forkHeight:]).
func (s *State) tryReorg(branchIdx int, forkHeight int) bool {
	s.mu.Lock()
	if branchIdx-1 >= len(s.sideBranches) {
		s.mu.Unlock()
		return false
	}
	branchBlocks := make([]chainmodel.Block, len(s.sideBranches[branchIdx-1].blocks))
	copy(branchBlocks, s.sideBranches[branchIdx-1].blocks)
	s.mu.Unlock()

	var oldActive []chainmodel.Block
	for s.ActiveHeight() > forkHeight {
		tip, err := s.DisconnectBlock()
		if err != nil {
			break
		}
		oldActive = append(oldActive, tip)
	}
	// oldActive was built tip-first during unwinding; restore original
	// chain order (lowest height first).
	reverseBlocks(oldActive)

	attached := 0
	for _, b := range branchBlocks {
		if _, err := s.ConnectBlock(b, true); err != nil {
			break
		}
		attached++
	}

	if attached == len(branchBlocks) {
		s.mu.Lock()
		newBranch := sideBranch{forkHeight: forkHeight, blocks: oldActive}
		s.sideBranches = append(s.sideBranches[:branchIdx-1], s.sideBranches[branchIdx:]...)
		s.sideBranches = append(s.sideBranches, newBranch)
		s.mu.Unlock()
		return true
	}

	// Roll back: disconnect whatever from the branch attached, then
	// re-attach old_active.
	for i := 0; i < attached; i++ {
		if _, err := s.DisconnectBlock(); err != nil {
			break
		}
	}
	for _, b := range oldActive {
		if _, err := s.ConnectBlock(b, true); err != nil {
			break
		}
	}
	return false
}

func reverseBlocks(blocks []chainmodel.Block) {
	for i, j := 0, len(blocks)-1; i < j; i, j = i+1, j-1 {
		blocks[i], blocks[j] = blocks[j], blocks[i]
	}
}
