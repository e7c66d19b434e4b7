// Package merkle computes the Merkle root committed to by a block's
// merkle_hash field.
package merkle

import (
	"github.com/tinychain-go/tinychain/internal/chainmodel"
	"github.com/tinychain-go/tinychain/internal/primitives"
)

// GetMerkleRoot builds the Merkle tree over leaves (transaction ids, in
// block order) and returns its root node. An odd leaf count duplicates the
// last leaf before hashing. Each node's val is sha256d of its children's
// concatenated hex values; a leaf's val is sha256d of the leaf hash itself.
func GetMerkleRoot(leaves []string) chainmodel.MerkleNode {
	if len(leaves) == 0 {
		return chainmodel.MerkleNode{Val: primitives.SHA256DHex(nil)}
	}

	nodes := make([]chainmodel.MerkleNode, len(leaves))
	for i, leaf := range leaves {
		nodes[i] = chainmodel.MerkleNode{Val: primitives.SHA256DHex([]byte(leaf))}
	}

	return reduce(nodes)
}

// GetMerkleRootOfTxns hashes the ids of txns, in order, into a Merkle root.
func GetMerkleRootOfTxns(txns []chainmodel.Transaction) (chainmodel.MerkleNode, error) {
	leaves := make([]string, len(txns))
	for i, tx := range txns {
		id, err := tx.ID()
		if err != nil {
			return chainmodel.MerkleNode{}, err
		}
		leaves[i] = id
	}
	return GetMerkleRoot(leaves), nil
}

func reduce(level []chainmodel.MerkleNode) chainmodel.MerkleNode {
	if len(level) == 1 {
		return level[0]
	}

	if len(level)%2 != 0 {
		level = append(level, level[len(level)-1])
	}

	next := make([]chainmodel.MerkleNode, 0, len(level)/2)
	for i := 0; i < len(level); i += 2 {
		left, right := level[i], level[i+1]
		combined := left.Val + right.Val
		parent := chainmodel.MerkleNode{
			Val:      primitives.SHA256DHex([]byte(combined)),
			Children: []chainmodel.MerkleNode{left, right},
		}
		next = append(next, parent)
	}

	return reduce(next)
}
