// Package chainstate orchestrates tinychain's process-wide mutable state:
// the active chain, side branches, UTXO set, mempool, orphan pools, known
// peers, and the mining interrupt. The chain data is guarded by State's
// own lock; the UTXO set, mempool, orphan pools and mining interrupt each
// carry their own lock.
package chainstate

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/tinychain-go/tinychain/internal/chainmodel"
	"github.com/tinychain-go/tinychain/internal/mempool"
	"github.com/tinychain-go/tinychain/internal/metrics"
	"github.com/tinychain-go/tinychain/internal/mining"
	"github.com/tinychain-go/tinychain/internal/utxo"
)

// MaxOrphanBlocks bounds the orphan block set.
const MaxOrphanBlocks = 2_000

// sideBranch is a non-active fork, recorded with the active-chain height it
// split from so reorg can compare branch height against active height and,
// on promotion, disconnect exactly down to the fork point.
type sideBranch struct {
	forkHeight int
	blocks     []chainmodel.Block
}

// MineInterrupt is a cancellation token set whenever the active chain
// advances or reorganizes, so an in-flight mining attempt can abandon its
// stale parent.
type MineInterrupt struct {
	mu sync.Mutex
	ch chan struct{}
}

// NewMineInterrupt returns a token in its initial, non-signaled state.
func NewMineInterrupt() *MineInterrupt {
	return &MineInterrupt{ch: make(chan struct{})}
}

// C returns a channel closed when Set is called.
func (m *MineInterrupt) C() <-chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ch
}

// Set signals every live waiter and arms a fresh channel for the next
// mining attempt.
func (m *MineInterrupt) Set() {
	m.mu.Lock()
	defer m.mu.Unlock()
	close(m.ch)
	m.ch = make(chan struct{})
}

// State is tinychain's single source of chain truth.
type State struct {
	mu sync.RWMutex

	active       []chainmodel.Block
	sideBranches []sideBranch

	utxo    *utxo.Set
	mempool *mempool.Pool

	orphanBlocks *lru.Cache[string, chainmodel.Block]

	peerHostnames map[string]struct{}
	mineInterrupt *MineInterrupt

	logger *zap.Logger
}

// New creates an empty chain state (no genesis block yet — callers apply
// genesis via ConnectBlock like any other block).
func New(logger *zap.Logger) *State {
	orphans, _ := lru.New[string, chainmodel.Block](MaxOrphanBlocks)
	return &State{
		utxo:          utxo.New(),
		mempool:       mempool.New(),
		orphanBlocks:  orphans,
		peerHostnames: make(map[string]struct{}),
		mineInterrupt: NewMineInterrupt(),
		logger:        logger,
	}
}

// UTXOSet exposes the UTXO store for validation and query handlers.
func (s *State) UTXOSet() *utxo.Set { return s.utxo }

// Mempool exposes the mempool for validation, assembly, and query handlers.
func (s *State) Mempool() *mempool.Pool { return s.mempool }

// MineInterrupt exposes the cancellation token for the mining worker.
func (s *State) MineInterrupt() *MineInterrupt { return s.mineInterrupt }

// ActiveHeight returns the number of blocks in the active chain.
func (s *State) ActiveHeight() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.active)
}

// ActiveTip returns the active chain's tip block and whether one exists.
func (s *State) ActiveTip() (chainmodel.Block, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.active) == 0 {
		return chainmodel.Block{}, false
	}
	return s.active[len(s.active)-1], true
}

// ActiveTipID returns the active chain tip's id, or "" if empty.
func (s *State) ActiveTipID() string {
	tip, ok := s.ActiveTip()
	if !ok {
		return ""
	}
	id, err := tip.ID()
	if err != nil {
		return ""
	}
	return id
}

// ActiveChainSnapshot returns a copy of the active chain.
func (s *State) ActiveChainSnapshot() []chainmodel.Block {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]chainmodel.Block, len(s.active))
	copy(out, s.active)
	return out
}

// IsActiveEmpty reports whether the active chain has no blocks.
func (s *State) IsActiveEmpty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.active) == 0
}

// SideBranchCount returns the number of existing side branches.
func (s *State) SideBranchCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sideBranches)
}

// RefreshMetrics publishes the current chain/mempool/UTXO gauges. Callers
// invoke it after any operation that changes active height, side branches,
// mempool contents, or UTXO set size.
func (s *State) RefreshMetrics() {
	s.mu.RLock()
	height := len(s.active)
	branches := len(s.sideBranches)
	s.mu.RUnlock()

	metrics.ActiveChainHeight.Set(float64(height))
	metrics.SideBranchCount.Set(float64(branches))
	metrics.MempoolSize.Set(float64(s.mempool.Len()))
	metrics.OrphanTxnCount.Set(float64(s.mempool.OrphanCount()))
	metrics.UTXOSetSize.Set(float64(s.utxo.Len()))
}

// FindInActiveChain returns the height of blockID in the active chain and
// whether it is the tip.
func (s *State) FindInActiveChain(blockID string) (height int, isTip bool, found bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.findInActiveChainLocked(blockID)
}

func (s *State) findInActiveChainLocked(blockID string) (height int, isTip bool, found bool) {
	for i, b := range s.active {
		id, err := b.ID()
		if err != nil {
			continue
		}
		if id == blockID {
			return i, i == len(s.active)-1, true
		}
	}
	return 0, false, false
}

// FindInSideBranches returns the 1-based chain_idx of the side branch
// containing blockID as its tip.
func (s *State) FindInSideBranches(blockID string) (chainIdx int, found bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i, branch := range s.sideBranches {
		if len(branch.blocks) == 0 {
			continue
		}
		id, err := branch.blocks[len(branch.blocks)-1].ID()
		if err != nil {
			continue
		}
		if id == blockID {
			return i + 1, true
		}
	}
	return 0, false
}

// MedianTimePast returns the median timestamp of the last n active chain
// blocks (0 if the chain is empty).
func (s *State) MedianTimePast(n int) uint32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return medianTimePastLocked(s.active, n)
}

func medianTimePastLocked(active []chainmodel.Block, n int) uint32 {
	if len(active) == 0 {
		return 0
	}
	start := len(active) - n
	if start < 0 {
		start = 0
	}
	window := active[start:]
	ts := make([]uint32, len(window))
	for i, b := range window {
		ts[i] = b.Timestamp
	}
	sortUint32(ts)
	return ts[len(ts)/2]
}

func sortUint32(ts []uint32) {
	for i := 1; i < len(ts); i++ {
		for j := i; j > 0 && ts[j-1] > ts[j]; j-- {
			ts[j-1], ts[j] = ts[j], ts[j-1]
		}
	}
}

// AddPeer records a peer hostname.
func (s *State) AddPeer(hostname string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.peerHostnames[hostname] = struct{}{}
}

// RemovePeer evicts a peer hostname, e.g. after exhausting send retries.
func (s *State) RemovePeer(hostname string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.peerHostnames, hostname)
}

// Peers returns a snapshot of known peer hostnames.
func (s *State) Peers() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.peerHostnames))
	for p := range s.peerHostnames {
		out = append(out, p)
	}
	return out
}

// OrphanBlocks exposes the orphan block LRU for the P2P layer.
func (s *State) OrphanBlocks() *lru.Cache[string, chainmodel.Block] {
	return s.orphanBlocks
}

// Logger returns the state's structured logger.
func (s *State) Logger() *zap.Logger { return s.logger }

// NextWorkRequired computes get_next_work_required for a block extending
// prevBlockHash, satisfying validate.ActiveChain.
func (s *State) NextWorkRequired(prevBlockHash string) (uint32, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return mining.GetNextWorkRequired(s.active, prevBlockHash)
}
