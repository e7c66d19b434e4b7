package chainmodel

import (
	"fmt"

	"github.com/tinychain-go/tinychain/internal/codec"
)

// MerkleNode is one node of a Merkle tree: a hash plus its children (empty
// for a leaf).
type MerkleNode struct {
	Val      string       `json:"val"`
	Children []MerkleNode `json:"children"`
}

func (n MerkleNode) TypeTag() string { return "MerkleNode" }

func (n MerkleNode) CanonicalFields() map[string]interface{} {
	children := make([]interface{}, len(n.Children))
	for i, c := range n.Children {
		children[i] = c
	}
	return map[string]interface{}{
		"val":      n.Val,
		"children": children,
	}
}

func merkleNodeFromFields(m map[string]interface{}) (interface{}, error) {
	val, err := codec.String(m, "val")
	if err != nil {
		return nil, err
	}
	childrenRaw, err := codec.List(m, "children")
	if err != nil {
		return nil, err
	}
	children := make([]MerkleNode, len(childrenRaw))
	for i, raw := range childrenRaw {
		decoded, err := codec.DecodeValue(raw)
		if err != nil {
			return nil, err
		}
		child, ok := decoded.(MerkleNode)
		if !ok {
			return nil, fmt.Errorf("chainmodel: children[%d] is not a MerkleNode", i)
		}
		children[i] = child
	}
	return MerkleNode{Val: val, Children: children}, nil
}

func init() {
	codec.Register("MerkleNode", merkleNodeFromFields)
}
