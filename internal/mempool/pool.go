// Package mempool implements the pool of pending transactions keyed by
// txid, plus the orphan transaction set (bounded with an LRU so a peer
// cannot grow it without bound).
package mempool

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/tinychain-go/tinychain/internal/chainmodel"
)

// MaxOrphanTxns bounds the orphan transaction set.
const MaxOrphanTxns = 10_000

// Pool is a concurrency-safe txid -> Transaction map with insertion order
// preserved for select_from_mempool's greedy, dependency-respecting
// assembly.
type Pool struct {
	mu      sync.RWMutex
	byID    map[string]chainmodel.Transaction
	order   []string
	orphans *lru.Cache[string, chainmodel.Transaction]
}

// New creates an empty mempool.
func New() *Pool {
	orphans, _ := lru.New[string, chainmodel.Transaction](MaxOrphanTxns)
	return &Pool{
		byID:    make(map[string]chainmodel.Transaction),
		orphans: orphans,
	}
}

// Add inserts tx under txid, preserving insertion order. Overwriting an
// existing entry does not change its position.
func (p *Pool) Add(txid string, tx chainmodel.Transaction) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.byID[txid]; !exists {
		p.order = append(p.order, txid)
	}
	p.byID[txid] = tx
}

// Remove deletes txid from the pool, if present.
func (p *Pool) Remove(txid string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.byID[txid]; !exists {
		return
	}
	delete(p.byID, txid)
	for i, id := range p.order {
		if id == txid {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
}

// Get returns the transaction for txid and whether it exists.
func (p *Pool) Get(txid string) (chainmodel.Transaction, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	tx, ok := p.byID[txid]
	return tx, ok
}

// Contains reports whether txid is pending.
func (p *Pool) Contains(txid string) bool {
	_, ok := p.Get(txid)
	return ok
}

// Len returns the number of pending transactions.
func (p *Pool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.order)
}

// OrderedIDs returns txids in insertion order, the order
// select_from_mempool walks.
func (p *Pool) OrderedIDs() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]string, len(p.order))
	copy(out, p.order)
	return out
}

// AddOrphan records tx as orphaned pending resolution of a missing input.
func (p *Pool) AddOrphan(txid string, tx chainmodel.Transaction) {
	p.orphans.Add(txid, tx)
}

// TakeOrphans returns and clears every currently orphaned transaction,
// for re-validation after a new block or transaction arrives.
func (p *Pool) TakeOrphans() map[string]chainmodel.Transaction {
	keys := p.orphans.Keys()
	out := make(map[string]chainmodel.Transaction, len(keys))
	for _, k := range keys {
		if tx, ok := p.orphans.Get(k); ok {
			out[k] = tx
		}
	}
	p.orphans.Purge()
	return out
}

// OrphanCount returns the number of orphaned transactions.
func (p *Pool) OrphanCount() int {
	return p.orphans.Len()
}
