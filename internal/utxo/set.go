// Package utxo implements the node's unspent-transaction-output store: a
// keyed map from OutPoint to UnspentTxOut.
package utxo

import (
	"sync"

	"github.com/tinychain-go/tinychain/internal/chainmodel"
)

// Set is a concurrency-safe OutPoint -> UnspentTxOut store.
type Set struct {
	mu      sync.RWMutex
	entries map[chainmodel.OutPoint]chainmodel.UnspentTxOut
}

// New creates an empty UTXO set.
func New() *Set {
	return &Set{entries: make(map[chainmodel.OutPoint]chainmodel.UnspentTxOut)}
}

// Add inserts or overwrites the entry for utxo.OutPoint().
func (s *Set) Add(utxo chainmodel.UnspentTxOut) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[utxo.OutPoint()] = utxo
}

// Remove deletes the entry for (txid, idx), if present.
func (s *Set) Remove(txid string, idx uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, chainmodel.OutPoint{TxID: txid, TxOutIdx: idx})
}

// Get returns the entry for outpoint and whether it exists.
func (s *Set) Get(outpoint chainmodel.OutPoint) (chainmodel.UnspentTxOut, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.entries[outpoint]
	return u, ok
}

// Contains reports whether outpoint is in the set.
func (s *Set) Contains(outpoint chainmodel.OutPoint) bool {
	_, ok := s.Get(outpoint)
	return ok
}

// Len returns the number of entries.
func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// All returns a snapshot copy of every UnspentTxOut in the set (each one
// carries its own txid and output index), in no particular order.
func (s *Set) All() []chainmodel.UnspentTxOut {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]chainmodel.UnspentTxOut, 0, len(s.entries))
	for _, u := range s.entries {
		out = append(out, u)
	}
	return out
}
